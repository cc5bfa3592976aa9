package classify

import "github.com/A-Akhil/BluePrint/pkg/model"

// Scorer turns match statistics into a confidence score and tier. All
// thresholds apply to the score, which lives in [0,1].
type Scorer struct {
	HighThreshold   float64
	MediumThreshold float64
	LowThreshold    float64

	// CoverageFloor is the coverage percent under which the identity
	// fraction is down-weighted proportionally.
	CoverageFloor float64
}

// DefaultScorer carries the documented defaults: 0.90 / 0.70 / 0.50 tiers
// with a 70% coverage floor.
func DefaultScorer() Scorer {
	return Scorer{
		HighThreshold:   0.90,
		MediumThreshold: 0.70,
		LowThreshold:    0.50,
		CoverageFloor:   70,
	}
}

// Score is the identity fraction penalized for thin coverage:
// (identity/100) * min(1, coverage/floor).
func (s Scorer) Score(m model.MatchResult) float64 {
	penalty := 1.0
	if s.CoverageFloor > 0 {
		penalty = m.CoveragePercent / s.CoverageFloor
		if penalty > 1 {
			penalty = 1
		}
	}
	return (m.IdentityPercent / 100) * penalty
}

// Classify maps the retained best match, or the lack of one, onto a tier.
// No surviving match means uncertain at score zero.
func (s Scorer) Classify(best *model.MatchResult) (model.ConfidenceLevel, float64) {
	if best == nil {
		return model.ConfidenceUncertain, 0.0
	}

	score := s.Score(*best)
	switch {
	case score >= s.HighThreshold:
		return model.ConfidenceHigh, score
	case score >= s.MediumThreshold:
		return model.ConfidenceMedium, score
	case score >= s.LowThreshold:
		return model.ConfidenceLow, score
	default:
		return model.ConfidenceUncertain, score
	}
}
