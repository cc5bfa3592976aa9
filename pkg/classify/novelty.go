package classify

import "github.com/A-Akhil/BluePrint/pkg/model"

// NoveltyDetector flags sequences whose best match is too weak to represent
// a described organism. Below the identity threshold, marker databases
// cannot reliably place a eukaryote sequence within a known species or
// genus; those reads are candidates for clustering outside this engine.
type NoveltyDetector struct {
	IdentityThreshold float64
}

// DefaultNoveltyDetector uses the documented 80% identity cutoff.
func DefaultNoveltyDetector() NoveltyDetector {
	return NoveltyDetector{IdentityThreshold: 80}
}

// IsNovel reports whether the sequence should be flagged. No hit from any
// database is always novel, whatever the threshold.
func (d NoveltyDetector) IsNovel(best *model.MatchResult) bool {
	if best == nil {
		return true
	}
	return best.IdentityPercent < d.IdentityThreshold
}
