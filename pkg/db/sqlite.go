package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/A-Akhil/BluePrint/pkg/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id TEXT PRIMARY KEY,
	sample_id TEXT NOT NULL UNIQUE,
	sample_type TEXT NOT NULL DEFAULT '',
	amplicon_region TEXT NOT NULL DEFAULT '',
	collected_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS taxonomic_assignments (
	sample_id TEXT NOT NULL,
	sequence_id TEXT NOT NULL,
	sequence_data TEXT NOT NULL DEFAULT '',
	kingdom TEXT NOT NULL DEFAULT '',
	phylum TEXT NOT NULL DEFAULT '',
	class_name TEXT NOT NULL DEFAULT '',
	order_name TEXT NOT NULL DEFAULT '',
	family TEXT NOT NULL DEFAULT '',
	genus TEXT NOT NULL DEFAULT '',
	species TEXT NOT NULL DEFAULT '',
	database_source TEXT NOT NULL DEFAULT 'none',
	confidence_level TEXT NOT NULL DEFAULT 'uncertain',
	confidence_score REAL NOT NULL DEFAULT 0,
	identity_percent REAL NOT NULL DEFAULT 0,
	coverage_percent REAL NOT NULL DEFAULT 0,
	e_value REAL NOT NULL DEFAULT 0,
	best_match_accession TEXT NOT NULL DEFAULT '',
	is_novel_taxon INTEGER NOT NULL DEFAULT 0,
	read_count INTEGER NOT NULL DEFAULT 1,
	relative_abundance REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (sample_id, sequence_id)
);

CREATE TABLE IF NOT EXISTS biodiversity_metrics (
	sample_id TEXT PRIMARY KEY,
	shannon_diversity REAL NOT NULL DEFAULT 0,
	simpson_diversity REAL NOT NULL DEFAULT 0,
	chao1_richness REAL NOT NULL DEFAULT 0,
	observed_otus INTEGER NOT NULL DEFAULT 0,
	total_sequences INTEGER NOT NULL DEFAULT 0,
	assigned_sequences INTEGER NOT NULL DEFAULT 0,
	novel_sequences INTEGER NOT NULL DEFAULT 0,
	assignment_rate REAL NOT NULL DEFAULT 0,
	group_percentages TEXT NOT NULL DEFAULT '{}'
)`

// SQLiteStore keeps everything in a single sqlite file, one writer at a
// time per sample as the pipeline requires.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database file, creating it and the schema on first
// use.
func OpenSQLite(path string) (*SQLiteStore, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store, err := NewSQLiteStore(sqldb)
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an already-open connection, applying the schema.
func NewSQLiteStore(sqldb *sql.DB) (*SQLiteStore, error) {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := sqldb.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLiteStore{db: sqldb}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertSample(ctx context.Context, sample model.Sample) error {
	collected := ""
	if !sample.CollectedAt.IsZero() {
		collected = sample.CollectedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (id, sample_id, sample_type, amplicon_region, collected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sample_id) DO UPDATE SET
			sample_type = excluded.sample_type,
			amplicon_region = excluded.amplicon_region,
			collected_at = excluded.collected_at`,
		sample.ID, sample.SampleID, sample.SampleType, sample.AmpliconRegion, collected)
	if err != nil {
		return fmt.Errorf("upsert sample %s: %w", sample.SampleID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSample(ctx context.Context, sampleID string) (model.Sample, error) {
	var sample model.Sample
	var collected string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, sample_id, sample_type, amplicon_region, collected_at
		FROM samples WHERE sample_id = ?`, sampleID).
		Scan(&sample.ID, &sample.SampleID, &sample.SampleType, &sample.AmpliconRegion, &collected)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Sample{}, fmt.Errorf("%w: %s", ErrSampleNotFound, sampleID)
	}
	if err != nil {
		return model.Sample{}, fmt.Errorf("get sample %s: %w", sampleID, err)
	}

	if collected != "" {
		t, err := time.Parse(time.RFC3339Nano, collected)
		if err != nil {
			return model.Sample{}, fmt.Errorf("parse collected_at for %s: %w", sampleID, err)
		}
		sample.CollectedAt = t
	}
	return sample, nil
}

func (s *SQLiteStore) UpsertAssignment(ctx context.Context, sampleID string, a model.TaxonomicAssignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO taxonomic_assignments (
			sample_id, sequence_id, sequence_data,
			kingdom, phylum, class_name, order_name, family, genus, species,
			database_source, confidence_level, confidence_score,
			identity_percent, coverage_percent, e_value, best_match_accession,
			is_novel_taxon, read_count, relative_abundance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sample_id, sequence_id) DO UPDATE SET
			sequence_data = excluded.sequence_data,
			kingdom = excluded.kingdom,
			phylum = excluded.phylum,
			class_name = excluded.class_name,
			order_name = excluded.order_name,
			family = excluded.family,
			genus = excluded.genus,
			species = excluded.species,
			database_source = excluded.database_source,
			confidence_level = excluded.confidence_level,
			confidence_score = excluded.confidence_score,
			identity_percent = excluded.identity_percent,
			coverage_percent = excluded.coverage_percent,
			e_value = excluded.e_value,
			best_match_accession = excluded.best_match_accession,
			is_novel_taxon = excluded.is_novel_taxon,
			read_count = excluded.read_count,
			relative_abundance = excluded.relative_abundance`,
		sampleID, a.SequenceID, a.SequenceData,
		a.Lineage.Kingdom, a.Lineage.Phylum, a.Lineage.Class, a.Lineage.Order,
		a.Lineage.Family, a.Lineage.Genus, a.Lineage.Species,
		a.DatabaseSource, string(a.ConfidenceLevel), a.ConfidenceScore,
		a.IdentityPercent, a.CoveragePercent, a.EValue, a.BestMatchAccession,
		a.IsNovelTaxon, a.ReadCount, a.RelativeAbundance)
	if err != nil {
		return fmt.Errorf("upsert assignment %s/%s: %w", sampleID, a.SequenceID, err)
	}
	return nil
}

func (s *SQLiteStore) GetAssignments(ctx context.Context, sampleID string) ([]model.TaxonomicAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_id, sequence_data,
			kingdom, phylum, class_name, order_name, family, genus, species,
			database_source, confidence_level, confidence_score,
			identity_percent, coverage_percent, e_value, best_match_accession,
			is_novel_taxon, read_count, relative_abundance
		FROM taxonomic_assignments
		WHERE sample_id = ?
		ORDER BY sequence_id`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("query assignments for %s: %w", sampleID, err)
	}
	defer rows.Close()

	var assignments []model.TaxonomicAssignment
	for rows.Next() {
		var a model.TaxonomicAssignment
		var level string
		if err := rows.Scan(
			&a.SequenceID, &a.SequenceData,
			&a.Lineage.Kingdom, &a.Lineage.Phylum, &a.Lineage.Class, &a.Lineage.Order,
			&a.Lineage.Family, &a.Lineage.Genus, &a.Lineage.Species,
			&a.DatabaseSource, &level, &a.ConfidenceScore,
			&a.IdentityPercent, &a.CoveragePercent, &a.EValue, &a.BestMatchAccession,
			&a.IsNovelTaxon, &a.ReadCount, &a.RelativeAbundance,
		); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.ConfidenceLevel = model.ConfidenceLevel(level)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments for %s: %w", sampleID, err)
	}
	return assignments, nil
}

func (s *SQLiteStore) UpsertMetrics(ctx context.Context, sampleID string, m model.BiodiversityMetrics) error {
	groups, err := json.Marshal(m.GroupPercentages)
	if err != nil {
		return fmt.Errorf("encode group percentages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO biodiversity_metrics (
			sample_id, shannon_diversity, simpson_diversity, chao1_richness,
			observed_otus, total_sequences, assigned_sequences, novel_sequences,
			assignment_rate, group_percentages
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sample_id) DO UPDATE SET
			shannon_diversity = excluded.shannon_diversity,
			simpson_diversity = excluded.simpson_diversity,
			chao1_richness = excluded.chao1_richness,
			observed_otus = excluded.observed_otus,
			total_sequences = excluded.total_sequences,
			assigned_sequences = excluded.assigned_sequences,
			novel_sequences = excluded.novel_sequences,
			assignment_rate = excluded.assignment_rate,
			group_percentages = excluded.group_percentages`,
		sampleID, m.ShannonDiversity, m.SimpsonDiversity, m.Chao1Richness,
		m.ObservedOTUs, m.TotalSequences, m.AssignedSequences, m.NovelSequences,
		m.AssignmentRate, string(groups))
	if err != nil {
		return fmt.Errorf("upsert metrics for %s: %w", sampleID, err)
	}
	return nil
}

func (s *SQLiteStore) GetMetrics(ctx context.Context, sampleID string) (model.BiodiversityMetrics, error) {
	var m model.BiodiversityMetrics
	var groups string

	err := s.db.QueryRowContext(ctx, `
		SELECT shannon_diversity, simpson_diversity, chao1_richness,
			observed_otus, total_sequences, assigned_sequences, novel_sequences,
			assignment_rate, group_percentages
		FROM biodiversity_metrics WHERE sample_id = ?`, sampleID).
		Scan(&m.ShannonDiversity, &m.SimpsonDiversity, &m.Chao1Richness,
			&m.ObservedOTUs, &m.TotalSequences, &m.AssignedSequences, &m.NovelSequences,
			&m.AssignmentRate, &groups)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BiodiversityMetrics{}, fmt.Errorf("%w: %s", ErrMetricsNotFound, sampleID)
	}
	if err != nil {
		return model.BiodiversityMetrics{}, fmt.Errorf("get metrics for %s: %w", sampleID, err)
	}

	if err := json.Unmarshal([]byte(groups), &m.GroupPercentages); err != nil {
		return model.BiodiversityMetrics{}, fmt.Errorf("decode group percentages for %s: %w", sampleID, err)
	}
	return m, nil
}
