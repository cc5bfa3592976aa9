package model

import (
	"strings"
	"time"
)

// Sequence is one input read: an opaque identifier plus a nucleotide string.
// ReadCount carries pre-aggregated duplicate reads; zero means "not counted"
// and is treated as a single read.
type Sequence struct {
	ID        string `json:"sequence_id"`
	Data      string `json:"sequence_data"`
	ReadCount int    `json:"read_count"`
}

// Reads returns the read count, treating an unset count as one read.
func (s Sequence) Reads() int {
	if s.ReadCount < 1 {
		return 1
	}
	return s.ReadCount
}

// Lineage is a resolved taxonomic hierarchy, kingdom down to species. Any
// rank may be empty when the reference record carries no name at that level.
type Lineage struct {
	Kingdom string `json:"kingdom"`
	Phylum  string `json:"phylum"`
	Class   string `json:"class"`
	Order   string `json:"order"`
	Family  string `json:"family"`
	Genus   string `json:"genus"`
	Species string `json:"species"`
}

// IsEmpty reports whether no rank is populated.
func (l Lineage) IsEmpty() bool {
	return l == Lineage{}
}

// String joins the populated ranks with " > ", most inclusive first.
func (l Lineage) String() string {
	ranks := []string{l.Kingdom, l.Phylum, l.Class, l.Order, l.Family, l.Genus, l.Species}
	named := make([]string, 0, len(ranks))
	for _, r := range ranks {
		if r != "" {
			named = append(named, r)
		}
	}
	return strings.Join(named, " > ")
}

// MatchResult is the normalized outcome of searching one sequence against one
// reference database. The statistics always travel together: a hit without an
// e-value is not a match. Built transiently per search, never persisted on
// its own.
type MatchResult struct {
	IdentityPercent float64 `json:"identity_percent"`
	CoveragePercent float64 `json:"coverage_percent"`
	EValue          float64 `json:"e_value"`
	Lineage         Lineage `json:"lineage"`
	Database        string  `json:"database"`
	Accession       string  `json:"accession"`
}

// ReferenceDatabase is one ordered cascade entry. CostHint orders the
// cascade cheapest-first; nothing else depends on it.
type ReferenceDatabase struct {
	Name     string `json:"name" mapstructure:"name"`
	Marker   string `json:"marker" mapstructure:"marker"`
	CostHint int    `json:"cost_hint" mapstructure:"cost_hint"`
}

// TaxonomicAssignment is the durable classification outcome for one
// (sample, sequence) pair. Written once per pipeline run; a rerun replaces
// the record rather than mutating it.
type TaxonomicAssignment struct {
	SequenceID         string          `json:"sequence_id"`
	SequenceData       string          `json:"sequence_data"`
	Lineage            Lineage         `json:"lineage"`
	DatabaseSource     string          `json:"database_source"`
	ConfidenceLevel    ConfidenceLevel `json:"confidence_level"`
	ConfidenceScore    float64         `json:"confidence_score"`
	IdentityPercent    float64         `json:"identity_percent"`
	CoveragePercent    float64         `json:"coverage_percent"`
	EValue             float64         `json:"e_value"`
	BestMatchAccession string          `json:"best_match_accession"`
	IsNovelTaxon       bool            `json:"is_novel_taxon"`
	ReadCount          int             `json:"read_count"`
	RelativeAbundance  float64         `json:"relative_abundance"`
}

// BiodiversityMetrics is the per-sample summary derived from the full
// assignment set. It is a cache of a pure function over that set and is
// recomputed whole, never edited field by field.
type BiodiversityMetrics struct {
	ShannonDiversity  float64            `json:"shannon_diversity"`
	SimpsonDiversity  float64            `json:"simpson_diversity"`
	Chao1Richness     float64            `json:"chao1_richness"`
	ObservedOTUs      int                `json:"observed_otus"`
	TotalSequences    int                `json:"total_sequences"`
	AssignedSequences int                `json:"assigned_sequences"`
	NovelSequences    int                `json:"novel_sequences"`
	AssignmentRate    float64            `json:"assignment_rate"`
	GroupPercentages  map[string]float64 `json:"group_percentages"`
}

// Sample identifies one eDNA collection event. Assignments and metrics hang
// off SampleID, the collector-facing label.
type Sample struct {
	ID             string    `json:"id"`
	SampleID       string    `json:"sample_id"`
	SampleType     string    `json:"sample_type"`
	AmpliconRegion string    `json:"amplicon_region"`
	CollectedAt    time.Time `json:"collected_at"`
}
