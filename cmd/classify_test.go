package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/A-Akhil/BluePrint/pkg/db"
	"github.com/A-Akhil/BluePrint/pkg/model"
)

// fakeBlastn writes a stand-in blastn that reports one strong hit for any
// query and prepends it to PATH.
func fakeBlastn(t *testing.T, dir string) {
	t.Helper()

	content := "#!/usr/bin/env bash\n" +
		"cat <<'EOF'\n" +
		"AB123456.1\t96.50\t94\t1e-120\n" +
		"EOF\n"
	if err := os.WriteFile(filepath.Join(dir, "blastn"), []byte(content), 0o755); err != nil {
		t.Fatalf("Failed to write fake blastn: %v", err)
	}

	old := os.Getenv("PATH")
	path := dir
	if old != "" {
		path = dir + string(os.PathListSeparator) + old
	}
	t.Setenv("PATH", path)
}

func TestClassifyAndMetricsCommands(t *testing.T) {
	dir := t.TempDir()
	fakeBlastn(t, dir)

	fasta := filepath.Join(dir, "sample.fasta")
	fastaContent := ">ASV_0001;size=5\nACGTACGTACGTACGT\n>ASV_0002\nGGGGCCCCGGGGCCCC\n"
	if err := os.WriteFile(fasta, []byte(fastaContent), 0644); err != nil {
		t.Fatalf("Failed to write fasta file: %v", err)
	}

	lineages := filepath.Join(dir, "lineages.tsv")
	lineageRow := "AB123456\tEukaryota\tChordata\tActinopteri\tGadiformes\tMacrouridae\tCoryphaenoides\tCoryphaenoides armatus\n"
	if err := os.WriteFile(lineages, []byte(lineageRow), 0644); err != nil {
		t.Fatalf("Failed to write lineage table: %v", err)
	}

	dbPath := filepath.Join(dir, "blueprint.db")

	rootCmd.SetArgs([]string{
		"classify",
		"--config", "",
		"--in", fasta,
		"--sample", "CMD-01",
		"--sample-type", "sediment",
		"--region", "18S",
		"--db", dbPath,
		"--taxonomy", lineages,
		"--no-progress",
		"--log-level", "error",
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Failed to run classify command: %v", err)
	}

	store, err := db.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("Failed to open result database: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	sample, err := store.GetSample(ctx, "CMD-01")
	if err != nil {
		t.Fatalf("Failed to get sample: %v", err)
	}
	if sample.SampleType != "sediment" || sample.AmpliconRegion != "18S" {
		t.Errorf("Unexpected sample record: %+v", sample)
	}

	assignments, err := store.GetAssignments(ctx, "CMD-01")
	if err != nil {
		t.Fatalf("Failed to get assignments: %v", err)
	}
	if len(assignments) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(assignments))
	}
	for _, a := range assignments {
		if a.ConfidenceLevel != model.ConfidenceHigh {
			t.Errorf("Expected high confidence for %s, got %s", a.SequenceID, a.ConfidenceLevel)
		}
		if a.Lineage.Species != "Coryphaenoides armatus" {
			t.Errorf("Expected the version-stripped accession to resolve, got %+v", a.Lineage)
		}
		if a.DatabaseSource != "SSU_eukaryote_rRNA" {
			t.Errorf("Expected acceptance at the first database, got %s", a.DatabaseSource)
		}
		if a.IsNovelTaxon {
			t.Errorf("Expected %s not to be novel at 96.5%% identity", a.SequenceID)
		}
	}
	if assignments[0].ReadCount != 5 || assignments[1].ReadCount != 1 {
		t.Errorf("Expected size annotation to carry through: %d and %d reads",
			assignments[0].ReadCount, assignments[1].ReadCount)
	}

	stored, err := store.GetMetrics(ctx, "CMD-01")
	if err != nil {
		t.Fatalf("Failed to get metrics: %v", err)
	}
	if stored.TotalSequences != 6 || stored.ObservedOTUs != 1 {
		t.Errorf("Expected 6 reads in 1 OTU, got %d in %d", stored.TotalSequences, stored.ObservedOTUs)
	}
	if stored.AssignmentRate != 1.0 {
		t.Errorf("Expected full assignment rate, got %f", stored.AssignmentRate)
	}

	// The metrics command recomputes the same record and prints it.
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"metrics",
		"--config", "",
		"--sample", "CMD-01",
		"--db", dbPath,
		"--log-level", "error",
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Failed to run metrics command: %v", err)
	}

	var printed model.BiodiversityMetrics
	if err := json.Unmarshal(out.Bytes(), &printed); err != nil {
		t.Fatalf("Failed to decode metrics output: %v\n%s", err, out.String())
	}
	if printed.ObservedOTUs != stored.ObservedOTUs || printed.TotalSequences != stored.TotalSequences {
		t.Errorf("Printed metrics diverge from stored: %+v vs %+v", printed, stored)
	}
	if printed.ShannonDiversity != 0.0 {
		t.Errorf("Expected zero Shannon diversity for a single OTU, got %f", printed.ShannonDiversity)
	}
}

func TestClassifyCommandRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	fasta := filepath.Join(dir, "sample.fasta")
	if err := os.WriteFile(fasta, []byte(">ASV_0001\nACGT\n"), 0644); err != nil {
		t.Fatalf("Failed to write fasta file: %v", err)
	}

	cfgPath := filepath.Join(dir, "blueprint.yaml")
	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  workers: 99\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	rootCmd.SetArgs([]string{
		"classify",
		"--config", cfgPath,
		"--in", fasta,
		"--sample", "CMD-02",
		"--db", filepath.Join(dir, "blueprint.db"),
		"--no-progress",
		"--log-level", "error",
	})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("Expected an out-of-bounds worker count to fail validation")
	}
}
