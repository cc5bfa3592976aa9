// Package db persists samples, taxonomic assignments, and derived
// biodiversity metrics. The engine depends only on the Store contract;
// SQLiteStore is the durable implementation, MemStore backs tests and dry
// runs.
package db

import (
	"context"
	"errors"

	"github.com/A-Akhil/BluePrint/pkg/model"
)

// Defining possible errors
var (
	ErrSampleNotFound  = errors.New("sample does not exist")
	ErrMetricsNotFound = errors.New("no metrics recorded for sample")
)

// Store is the narrow persistence surface the pipeline writes through.
// Assignments are keyed by (sample, sequence): rerunning a sample replaces
// records instead of duplicating them.
type Store interface {
	UpsertSample(ctx context.Context, sample model.Sample) error
	GetSample(ctx context.Context, sampleID string) (model.Sample, error)

	GetAssignments(ctx context.Context, sampleID string) ([]model.TaxonomicAssignment, error)
	UpsertAssignment(ctx context.Context, sampleID string, assignment model.TaxonomicAssignment) error

	UpsertMetrics(ctx context.Context, sampleID string, metrics model.BiodiversityMetrics) error
	GetMetrics(ctx context.Context, sampleID string) (model.BiodiversityMetrics, error)
}
