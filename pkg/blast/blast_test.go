package blast

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// helper to create a fake 'blastn' executable that prints fixed tabular output
func createFakeBlastn(t *testing.T, dir string, output string) string {
	t.Helper()

	path := filepath.Join(dir, "blastn")
	content := "#!/usr/bin/env bash\n" +
		"cat <<'EOF'\n" + output + "\nEOF\n"
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write fake blastn: %v", err)
	}
	return path
}

// prepend a directory to PATH for this test
func prependPath(t *testing.T, dir string) {
	t.Helper()
	old := os.Getenv("PATH")
	newPath := dir
	if old != "" {
		newPath = dir + string(os.PathListSeparator) + old
	}
	t.Setenv("PATH", newPath)
}

func TestParseHits(t *testing.T) {

	tests := []struct {
		name        string
		output      string
		expected    int
		shouldError bool
	}{
		{
			name:     "TwoHits",
			output:   "AB746210.1\t96.50\t98\t1e-40\nKY676659.1\t88.20\t95\t3e-21\n",
			expected: 2,
		},
		{
			name:     "BlankAndCommentLines",
			output:   "# BLASTN 2.14.0\n\nAB746210.1\t96.50\t98\t1e-40\n\n",
			expected: 1,
		},
		{
			name:     "NoHits",
			output:   "",
			expected: 0,
		},
		{
			name:        "TruncatedLine",
			output:      "AB746210.1\t96.50\n",
			shouldError: true,
		},
		{
			name:        "BadIdentity",
			output:      "AB746210.1\tnot-a-number\t98\t1e-40\n",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := parseHits(bytes.NewBufferString(tt.output))

			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected an error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHits: %v", err)
			}
			if len(hits) != tt.expected {
				t.Errorf("got %d hits, want %d", len(hits), tt.expected)
			}
		})
	}
}

func TestParseHitsValues(t *testing.T) {

	hits, err := parseHits(bytes.NewBufferString("AB746210.1\t96.50\t98\t1e-40\n"))
	if err != nil {
		t.Fatalf("parseHits: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}

	h := hits[0]
	if h.Accession != "AB746210.1" {
		t.Errorf("accession = %q", h.Accession)
	}
	if h.IdentityPercent != 96.5 {
		t.Errorf("identity = %v, want 96.5", h.IdentityPercent)
	}
	if h.CoveragePercent != 98 {
		t.Errorf("coverage = %v, want 98", h.CoveragePercent)
	}
	if h.EValue != 1e-40 {
		t.Errorf("e-value = %v, want 1e-40", h.EValue)
	}
}

func TestCleanSequence(t *testing.T) {

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
	}{
		{
			name:     "BareResidues",
			input:    "ACGTACGT",
			expected: "ACGTACGT",
		},
		{
			name:     "FastaInput",
			input:    ">seq_0001 some description\nACGT\nACGT\n",
			expected: "ACGTACGT",
		},
		{
			name:     "WhitespaceLines",
			input:    "  ACGT  \n\n  TTTT\n",
			expected: "ACGTTTTT",
		},
		{
			name:        "Empty",
			input:       "   \n  ",
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanSequence(tt.input)

			if tt.shouldError {
				if !errors.Is(err, ErrEmptySequence) {
					t.Errorf("expected ErrEmptySequence, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("cleanSequence: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCommandSearcherSearch(t *testing.T) {
	tmp := t.TempDir()
	createFakeBlastn(t, tmp, "AB746210.1\t96.50\t98\t1e-40\nKY676659.1\t88.20\t95\t3e-21")
	prependPath(t, tmp)

	s := &CommandSearcher{}
	hits, err := s.Search(context.Background(), "ACGTACGTACGT", "SSU_eukaryote_rRNA", 1e-5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Accession != "AB746210.1" {
		t.Errorf("first accession = %q", hits[0].Accession)
	}
}

func TestCommandSearcherEmptyQuery(t *testing.T) {
	s := &CommandSearcher{}

	_, err := s.Search(context.Background(), "   ", "SSU_eukaryote_rRNA", 1e-5)
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected ErrEmptySequence, got %v", err)
	}

	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected SearchError wrapper, got %T", err)
	}
	if se.Database != "SSU_eukaryote_rRNA" {
		t.Errorf("database = %q", se.Database)
	}
}

func TestCommandSearcherMissingBinary(t *testing.T) {
	// PATH holds only an empty dir, so the tool cannot be found.
	prependPath(t, t.TempDir())
	s := &CommandSearcher{Binary: "definitely-not-blastn"}

	_, err := s.Search(context.Background(), "ACGT", "nt_euk", 1e-5)
	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatalf("expected SearchError, got %v", err)
	}
	if !IsRetryable(err) {
		t.Errorf("tool failures should be retryable")
	}
}

func TestCommandSearcherTimeout(t *testing.T) {
	tmp := t.TempDir()
	script := "#!/usr/bin/env bash\nsleep 5\n"
	if err := os.WriteFile(filepath.Join(tmp, "blastn"), []byte(script), 0o755); err != nil {
		t.Fatalf("write fake blastn: %v", err)
	}
	prependPath(t, tmp)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := &CommandSearcher{}
	_, err := s.Search(ctx, "ACGT", "nt_euk", 1e-5)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if te.Database != "nt_euk" {
		t.Errorf("database = %q", te.Database)
	}
	if !IsRetryable(err) {
		t.Errorf("timeouts should be retryable")
	}
}
