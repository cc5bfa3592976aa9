package classify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/A-Akhil/BluePrint/logger"
	"github.com/A-Akhil/BluePrint/pkg/blast"
	"github.com/A-Akhil/BluePrint/pkg/model"
	"github.com/A-Akhil/BluePrint/pkg/taxonomy"
)

// Cascade routes one sequence through the ordered reference databases. Each
// stage searches one database, keeps that stage's best hit, and either
// accepts it (score cleared the acceptance threshold, stop searching) or
// carries the best match seen so far into the next stage. Exhausting the
// list is a normal outcome, not a failure.
type Cascade struct {
	Databases []model.ReferenceDatabase
	Searcher  blast.Searcher
	Resolver  taxonomy.Resolver
	Scorer    Scorer

	// Acceptance is the score at which a stage's best hit ends the
	// cascade early.
	Acceptance   float64
	EValueCutoff float64

	// SearchTimeout bounds each tool invocation; RetryBackoff is the wait
	// before the single retry of a failed search.
	SearchTimeout time.Duration
	RetryBackoff  time.Duration
}

// Outcome is the terminal state of one sequence's cascade.
type Outcome struct {
	// Best is the match feeding the assignment and its confidence: the
	// accepting hit, or the strongest hit retained across all stages, or
	// nil when nothing survived.
	Best     *model.MatchResult
	Accepted bool

	// Strongest is the highest-identity match seen across all attempted
	// stages. It differs from Best only when a later, better-covered hit
	// accepted the cascade; novelty detection reads it.
	Strongest *model.MatchResult

	// StagesRun counts databases attempted, including skipped ones.
	StagesRun int

	// SkippedDatabases lists databases that failed persistently for this
	// sequence and were treated as contributing no hit.
	SkippedDatabases []string
}

// Run walks the cascade for one sequence. The only error it returns is
// cancellation of ctx; search failures are absorbed per database. Given the
// same sequence, database list, and tool responses the outcome is identical
// every time.
func (c *Cascade) Run(ctx context.Context, seq model.Sequence) (Outcome, error) {
	var out Outcome

	for _, db := range c.Databases {
		// Cooperative cancellation: no new stage once the sample is
		// cancelled, but an in-flight search is left to finish.
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.StagesRun++

		hits, err := c.searchWithRetry(ctx, seq.Data, db.Name)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logger.Warn("database skipped for sequence",
				zap.String("sequence", seq.ID),
				zap.String("database", db.Name),
				zap.Error(err))
			out.SkippedDatabases = append(out.SkippedDatabases, db.Name)
			continue
		}

		stageBest := bestHit(hits)
		if stageBest == nil {
			continue
		}

		match := Interpret(*stageBest, db.Name, c.Resolver)
		if out.Strongest == nil || betterMatch(match, *out.Strongest) {
			out.Strongest = &match
		}
		if c.Scorer.Score(match) >= c.Acceptance {
			out.Best = &match
			out.Accepted = true
			logger.Debug("cascade accepted",
				zap.String("sequence", seq.ID),
				zap.String("database", db.Name),
				zap.Float64("identity", match.IdentityPercent))
			return out, nil
		}

		// Retention is monotonic: a later, weaker hit never replaces an
		// earlier stronger one.
		if out.Best == nil || betterMatch(match, *out.Best) {
			out.Best = &match
		}
	}

	return out, nil
}

func (c *Cascade) searchOnce(ctx context.Context, sequence, database string) ([]blast.RawHit, error) {
	if c.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.SearchTimeout)
		defer cancel()
	}
	return c.Searcher.Search(ctx, sequence, database, c.EValueCutoff)
}

// searchWithRetry applies the transient-failure policy: one retry after a
// backoff, then the caller skips the database for this sequence.
func (c *Cascade) searchWithRetry(ctx context.Context, sequence, database string) ([]blast.RawHit, error) {
	hits, err := c.searchOnce(ctx, sequence, database)
	if err == nil {
		return hits, nil
	}
	if ctx.Err() != nil || !blast.IsRetryable(err) {
		return nil, err
	}

	logger.Debug("search failed, retrying once",
		zap.String("database", database),
		zap.Error(err))

	if c.RetryBackoff > 0 {
		select {
		case <-time.After(c.RetryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.searchOnce(ctx, sequence, database)
}

// bestHit keeps the highest-identity hit, ties broken by higher coverage,
// then lower e-value.
func bestHit(hits []blast.RawHit) *blast.RawHit {
	if len(hits) == 0 {
		return nil
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if betterHit(h, best) {
			best = h
		}
	}
	return &best
}

func betterHit(a, b blast.RawHit) bool {
	if a.IdentityPercent != b.IdentityPercent {
		return a.IdentityPercent > b.IdentityPercent
	}
	if a.CoveragePercent != b.CoveragePercent {
		return a.CoveragePercent > b.CoveragePercent
	}
	return a.EValue < b.EValue
}

func betterMatch(a, b model.MatchResult) bool {
	if a.IdentityPercent != b.IdentityPercent {
		return a.IdentityPercent > b.IdentityPercent
	}
	if a.CoveragePercent != b.CoveragePercent {
		return a.CoveragePercent > b.CoveragePercent
	}
	return a.EValue < b.EValue
}
