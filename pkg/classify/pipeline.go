package classify

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/A-Akhil/BluePrint/logger"
	"github.com/A-Akhil/BluePrint/pkg/db"
	"github.com/A-Akhil/BluePrint/pkg/diversity"
	"github.com/A-Akhil/BluePrint/pkg/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Worker pool bounds. Search tool invocations are the expensive resource,
// so fan-out is capped rather than unbounded.
const (
	DefaultWorkers = 4
	MinWorkers     = 2
	MaxWorkers     = 20
)

// InvalidConfigError reports a pipeline configuration problem. It is
// returned before any search is issued.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid pipeline configuration: %s: %s", e.Field, e.Reason)
}

// Result summarizes one pipeline run over a sample.
type Result struct {
	AssignmentsCreated int
	NovelTaxaCount     int
	Elapsed            time.Duration
}

// Pipeline runs the cascade over every sequence of a sample, persists one
// assignment per sequence, and recomputes the sample's biodiversity
// metrics. Rerunning on the same sample replaces prior assignments.
//
// Concurrent runs on the same sample are not serialized here; callers must
// keep at most one pipeline invocation in flight per sample.
type Pipeline struct {
	Cascade    *Cascade
	Detector   NoveltyDetector
	Calculator *diversity.Calculator
	Store      db.Store

	// Workers bounds the number of concurrent cascades. Zero selects
	// DefaultWorkers.
	Workers int

	// OnProgress, when set, is called after each sequence finishes.
	// It may be called from multiple goroutines at once.
	OnProgress func(done, total int)
}

func (p *Pipeline) workers() int {
	if p.Workers == 0 {
		return DefaultWorkers
	}
	return p.Workers
}

func (p *Pipeline) validate() error {
	if p.Store == nil {
		return &InvalidConfigError{Field: "store", Reason: "no persistence backend configured"}
	}
	if p.Cascade == nil {
		return &InvalidConfigError{Field: "cascade", Reason: "no cascade configured"}
	}
	if len(p.Cascade.Databases) == 0 {
		return &InvalidConfigError{Field: "cascade.databases", Reason: "database list is empty"}
	}
	if p.Cascade.Searcher == nil {
		return &InvalidConfigError{Field: "cascade.searcher", Reason: "no search tool configured"}
	}
	if p.Cascade.Acceptance < 0 || p.Cascade.Acceptance > 1 {
		return &InvalidConfigError{Field: "cascade.acceptance", Reason: "threshold must be within [0,1]"}
	}
	s := p.Cascade.Scorer
	if s.HighThreshold < 0 || s.HighThreshold > 1 {
		return &InvalidConfigError{Field: "scorer.high", Reason: "threshold must be within [0,1]"}
	}
	if s.MediumThreshold < 0 || s.MediumThreshold > 1 {
		return &InvalidConfigError{Field: "scorer.medium", Reason: "threshold must be within [0,1]"}
	}
	if s.LowThreshold < 0 || s.LowThreshold > 1 {
		return &InvalidConfigError{Field: "scorer.low", Reason: "threshold must be within [0,1]"}
	}
	if w := p.workers(); w < MinWorkers || w > MaxWorkers {
		return &InvalidConfigError{
			Field:  "workers",
			Reason: fmt.Sprintf("must be between %d and %d", MinWorkers, MaxWorkers),
		}
	}
	return nil
}

// Run classifies every sequence of the sample. Per-sequence, per-database
// search failures never abort the run; only configuration errors, store
// errors, and cancellation surface to the caller.
func (p *Pipeline) Run(ctx context.Context, sampleID string, seqs []model.Sequence) (Result, error) {
	start := time.Now()

	if err := p.validate(); err != nil {
		return Result{}, err
	}

	runID := uuid.NewString()
	logger.Info("classification started",
		zap.String("run_id", runID),
		zap.String("sample_id", sampleID),
		zap.Int("sequences", len(seqs)),
		zap.Int("databases", len(p.Cascade.Databases)),
		zap.Int("workers", p.workers()))

	totalReads := 0
	for _, seq := range seqs {
		totalReads += seq.Reads()
	}

	assignments := make([]model.TaxonomicAssignment, len(seqs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, seq := range seqs {
		i, seq := i, seq
		g.Go(func() error {
			out, err := p.Cascade.Run(gctx, seq)
			if err != nil {
				return err
			}
			assignments[i] = p.buildAssignment(seq, out, totalReads)
			if p.OnProgress != nil {
				p.OnProgress(int(done.Add(1)), len(seqs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("classify sample %s: %w", sampleID, err)
	}

	// gctx is cancelled once Wait returns, so persistence runs on the
	// caller's context.
	result := Result{AssignmentsCreated: len(assignments)}
	for _, a := range assignments {
		if a.IsNovelTaxon {
			result.NovelTaxaCount++
		}
		if err := p.Store.UpsertAssignment(ctx, sampleID, a); err != nil {
			return Result{}, fmt.Errorf("persist assignment %s/%s: %w", sampleID, a.SequenceID, err)
		}
	}

	if len(assignments) == 0 {
		logger.Warn("no sequences to classify, skipping metrics",
			zap.String("run_id", runID),
			zap.String("sample_id", sampleID))
		result.Elapsed = time.Since(start)
		return result, nil
	}

	metrics, err := p.calculator().Compute(assignments)
	if err != nil {
		return Result{}, fmt.Errorf("compute metrics for %s: %w", sampleID, err)
	}
	if err := p.Store.UpsertMetrics(ctx, sampleID, metrics); err != nil {
		return Result{}, fmt.Errorf("persist metrics for %s: %w", sampleID, err)
	}

	result.Elapsed = time.Since(start)
	logger.Info("classification finished",
		zap.String("run_id", runID),
		zap.String("sample_id", sampleID),
		zap.Int("assignments", result.AssignmentsCreated),
		zap.Int("novel_taxa", result.NovelTaxaCount),
		zap.Float64("assignment_rate", metrics.AssignmentRate),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (p *Pipeline) calculator() *diversity.Calculator {
	if p.Calculator != nil {
		return p.Calculator
	}
	return diversity.NewCalculator(nil)
}

// buildAssignment turns one cascade outcome into the durable record for
// the sequence.
func (p *Pipeline) buildAssignment(seq model.Sequence, out Outcome, totalReads int) model.TaxonomicAssignment {
	level, score := p.Cascade.Scorer.Classify(out.Best)

	a := model.TaxonomicAssignment{
		SequenceID:      seq.ID,
		SequenceData:    seq.Data,
		DatabaseSource:  model.SourceNone,
		ConfidenceLevel: level,
		ConfidenceScore: score,
		IsNovelTaxon:    p.Detector.IsNovel(out.Strongest),
		ReadCount:       seq.Reads(),
	}
	if totalReads > 0 {
		a.RelativeAbundance = float64(a.ReadCount) / float64(totalReads)
	}
	if out.Best != nil {
		a.Lineage = out.Best.Lineage
		a.DatabaseSource = out.Best.Database
		a.IdentityPercent = out.Best.IdentityPercent
		a.CoveragePercent = out.Best.CoveragePercent
		a.EValue = out.Best.EValue
		a.BestMatchAccession = out.Best.Accession
	}
	if a.Lineage.Kingdom == "" {
		a.Lineage.Kingdom = model.DefaultKingdom
	}
	return a
}
