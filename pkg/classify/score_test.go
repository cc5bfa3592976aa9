package classify

import (
	"math"
	"testing"

	"github.com/A-Akhil/BluePrint/pkg/model"
)

const scoreTolerance = 1e-9

func TestScoreCoveragePenalty(t *testing.T) {
	s := DefaultScorer()

	tests := []struct {
		name     string
		identity float64
		coverage float64
		want     float64
	}{
		{"CoverageAboveFloor", 95.0, 90.0, 0.95},
		{"CoverageAtFloor", 80.0, 70.0, 0.80},
		{"CoverageHalfFloor", 100.0, 35.0, 0.50},
		{"ZeroCoverage", 90.0, 0.0, 0.0},
		{"PerfectMatch", 100.0, 100.0, 1.0},
		{"NoMatchAtAll", 0.0, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := model.MatchResult{IdentityPercent: tt.identity, CoveragePercent: tt.coverage}
			got := s.Score(m)
			if math.Abs(got-tt.want) > scoreTolerance {
				t.Errorf("Score(%.1f%%, %.1f%%) = %f, want %f", tt.identity, tt.coverage, got, tt.want)
			}
		})
	}
}

func TestScoreZeroCoverageFloor(t *testing.T) {
	s := Scorer{HighThreshold: 0.90, MediumThreshold: 0.70, LowThreshold: 0.50}

	// Without a floor there is no penalty to apply.
	got := s.Score(model.MatchResult{IdentityPercent: 80.0, CoveragePercent: 10.0})
	if math.Abs(got-0.80) > scoreTolerance {
		t.Errorf("Score without coverage floor = %f, want 0.80", got)
	}
}

func TestClassifyTiers(t *testing.T) {
	s := DefaultScorer()

	tests := []struct {
		name      string
		match     *model.MatchResult
		wantLevel model.ConfidenceLevel
		wantScore float64
	}{
		{"NilMatch", nil, model.ConfidenceUncertain, 0.0},
		{"High", &model.MatchResult{IdentityPercent: 97.0, CoveragePercent: 95.0}, model.ConfidenceHigh, 0.97},
		{"HighBoundary", &model.MatchResult{IdentityPercent: 90.0, CoveragePercent: 100.0}, model.ConfidenceHigh, 0.90},
		{"Medium", &model.MatchResult{IdentityPercent: 85.0, CoveragePercent: 80.0}, model.ConfidenceMedium, 0.85},
		{"MediumBoundary", &model.MatchResult{IdentityPercent: 70.0, CoveragePercent: 70.0}, model.ConfidenceMedium, 0.70},
		{"Low", &model.MatchResult{IdentityPercent: 60.0, CoveragePercent: 75.0}, model.ConfidenceLow, 0.60},
		{"LowBoundary", &model.MatchResult{IdentityPercent: 50.0, CoveragePercent: 90.0}, model.ConfidenceLow, 0.50},
		{"Uncertain", &model.MatchResult{IdentityPercent: 40.0, CoveragePercent: 80.0}, model.ConfidenceUncertain, 0.40},
		{"HighIdentityPoorCoverage", &model.MatchResult{IdentityPercent: 98.0, CoveragePercent: 20.0}, model.ConfidenceUncertain, 0.28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, score := s.Classify(tt.match)
			if level != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, level)
			}
			if math.Abs(score-tt.wantScore) > scoreTolerance {
				t.Errorf("Expected score %f, got %f", tt.wantScore, score)
			}
		})
	}
}
