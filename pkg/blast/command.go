package blast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// outFmt is the tabular column spec requested from blastn. parseHits depends
// on this column order.
const outFmt = "6 saccver pident qcovs evalue"

// CommandSearcher shells out to an NCBI BLAST+ binary, streaming the query
// over stdin. DBDir, when set, is exported as BLASTDB so database names stay
// bare in configuration.
type CommandSearcher struct {
	Binary     string // tool name, defaults to blastn
	DBDir      string
	MaxTargets int // hits requested per search, defaults to 25
}

func (s *CommandSearcher) binary() string {
	if s.Binary == "" {
		return "blastn"
	}
	return s.Binary
}

func (s *CommandSearcher) maxTargets() int {
	if s.MaxTargets <= 0 {
		return 25
	}
	return s.MaxTargets
}

// Search runs one query against one database. The deadline on ctx bounds the
// whole tool invocation; exceeding it yields a TimeoutError.
func (s *CommandSearcher) Search(ctx context.Context, sequence string, database string, eValueCutoff float64) ([]RawHit, error) {
	query, err := cleanSequence(sequence)
	if err != nil {
		return nil, &SearchError{Database: database, Err: err}
	}

	start := time.Now()

	args := []string{
		"-db", database,
		"-outfmt", outFmt,
		"-evalue", strconv.FormatFloat(eValueCutoff, 'g', -1, 64),
		"-max_target_seqs", strconv.Itoa(s.maxTargets()),
	}
	cmd := exec.CommandContext(ctx, s.binary(), args...)
	cmd.Stdin = bytes.NewBufferString(">query\n" + query + "\n")
	if s.DBDir != "" {
		cmd.Env = append(cmd.Environ(), "BLASTDB="+s.DBDir)
	}

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Database: database, Elapsed: time.Since(start)}
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &SearchError{Database: database, Err: err}
	}

	hits, err := parseHits(&out)
	if err != nil {
		return nil, &SearchError{Database: database, Err: err}
	}
	return hits, nil
}

// cleanSequence strips whitespace and FASTA headers, leaving bare residues.
func cleanSequence(sequence string) (string, error) {
	var lines []string
	for _, line := range strings.Split(sequence, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ">") {
			continue
		}
		lines = append(lines, trimmed)
	}
	if len(lines) == 0 {
		return "", ErrEmptySequence
	}
	return strings.Join(lines, ""), nil
}

// parseHits reads outFmt-shaped tabular output, one hit per line.
func parseHits(out *bytes.Buffer) ([]RawHit, error) {
	var hits []RawHit
	for _, line := range strings.Split(out.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 4 {
			return nil, fmt.Errorf("malformed hit line %q", line)
		}

		identity, err := strconv.ParseFloat(cols[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad identity in %q: %w", line, err)
		}
		coverage, err := strconv.ParseFloat(cols[2], 64)
		if err != nil {
			return nil, fmt.Errorf("bad coverage in %q: %w", line, err)
		}
		evalue, err := strconv.ParseFloat(cols[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad e-value in %q: %w", line, err)
		}

		hits = append(hits, RawHit{
			Accession:       cols[0],
			IdentityPercent: identity,
			CoveragePercent: coverage,
			EValue:          evalue,
		})
	}
	return hits, nil
}
