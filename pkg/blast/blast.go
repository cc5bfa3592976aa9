// Package blast wraps the external sequence search tool behind a narrow
// contract: one query sequence against one named reference database,
// returning raw tabular hits. The cascade never sees how the search ran.
package blast

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RawHit is one line of search output before taxonomy resolution.
type RawHit struct {
	Accession       string
	IdentityPercent float64
	CoveragePercent float64
	EValue          float64
}

// Searcher runs one query against one reference database. Implementations
// must be idempotent and safe for concurrent use; the pipeline fans
// sequences out across goroutines.
type Searcher interface {
	Search(ctx context.Context, sequence string, database string, eValueCutoff float64) ([]RawHit, error)
}

// ErrEmptySequence rejects a blank query before the tool is ever invoked.
var ErrEmptySequence = errors.New("query sequence is empty")

// SearchError is a transient tool failure against one database. The caller
// retries once, then treats the database as contributing no hit.
type SearchError struct {
	Database string
	Err      error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search against %s failed: %v", e.Database, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// TimeoutError is a search that exceeded its deadline. Handled exactly like
// SearchError: retry once, then skip the database for that sequence.
type TimeoutError struct {
	Database string
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search against %s timed out after %s", e.Database, e.Elapsed)
}

// IsRetryable reports whether err is one of the transient search failures
// that the retry-then-skip policy applies to.
func IsRetryable(err error) bool {
	var se *SearchError
	var te *TimeoutError
	return errors.As(err, &se) || errors.As(err, &te)
}
