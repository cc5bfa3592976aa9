package model

import (
	"testing"
)

func TestLineageString(t *testing.T) {

	tests := []struct {
		name     string
		lineage  Lineage
		expected string
	}{
		{
			name: "FullHierarchy",
			lineage: Lineage{
				Kingdom: "Eukaryota",
				Phylum:  "Foraminifera",
				Class:   "Globothalamea",
				Order:   "Rotaliida",
				Family:  "Globigerinidae",
				Genus:   "Globigerina",
				Species: "Globigerina bulloides",
			},
			expected: "Eukaryota > Foraminifera > Globothalamea > Rotaliida > Globigerinidae > Globigerina > Globigerina bulloides",
		},
		{
			name: "SparseRanks",
			lineage: Lineage{
				Kingdom: "Eukaryota",
				Phylum:  "Cnidaria",
				Genus:   "Desmophyllum",
			},
			expected: "Eukaryota > Cnidaria > Desmophyllum",
		},
		{
			name:     "Empty",
			lineage:  Lineage{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.lineage.String()
			if got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLineageIsEmpty(t *testing.T) {

	if !(Lineage{}).IsEmpty() {
		t.Errorf("zero lineage should be empty")
	}

	if (Lineage{Genus: "Globigerina"}).IsEmpty() {
		t.Errorf("lineage with a genus should not be empty")
	}
}

func TestSequenceReads(t *testing.T) {

	tests := []struct {
		name     string
		seq      Sequence
		expected int
	}{
		{name: "Unset", seq: Sequence{ID: "seq_0001"}, expected: 1},
		{name: "Single", seq: Sequence{ID: "seq_0002", ReadCount: 1}, expected: 1},
		{name: "Aggregated", seq: Sequence{ID: "seq_0003", ReadCount: 42}, expected: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seq.Reads(); got != tt.expected {
				t.Errorf("Reads() = %d, want %d", got, tt.expected)
			}
		})
	}
}
