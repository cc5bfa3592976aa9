// Package diversity computes alpha-diversity indices and community
// composition for one sample from its full assignment set. Everything here
// is a pure function of the assignments passed in; the metrics record is a
// cache, recomputed whole on every call.
package diversity

import (
	"errors"
	"math"

	"github.com/A-Akhil/BluePrint/pkg/model"
)

// ErrEmptyAssignmentSet rejects metric computation over zero observations;
// the indices are undefined and the caller must not persist a record.
var ErrEmptyAssignmentSet = errors.New("no taxonomic assignments to summarize")

// Calculator groups assignments into species-level OTUs and major community
// groups. Groups maps a group name to the phyla counted toward it.
type Calculator struct {
	Groups map[string][]string
}

func NewCalculator(groups map[string][]string) *Calculator {
	if groups == nil {
		groups = model.DefaultGroups
	}
	return &Calculator{Groups: groups}
}

// SpeciesKey is the OTU grouping key: the species name when present, else
// the genus marked "_sp", else "Unknown".
func SpeciesKey(a model.TaxonomicAssignment) string {
	if a.Lineage.Species != "" {
		return a.Lineage.Species
	}
	if a.Lineage.Genus != "" {
		return a.Lineage.Genus + "_sp"
	}
	return "Unknown"
}

// Compute derives the full metrics record in one pass over the assignments.
// Every division guards a zero denominator by yielding 0, except the
// empty-set guard at the top.
func (c *Calculator) Compute(assignments []model.TaxonomicAssignment) (model.BiodiversityMetrics, error) {
	if len(assignments) == 0 {
		return model.BiodiversityMetrics{}, ErrEmptyAssignmentSet
	}

	speciesCounts := make(map[string]int)
	groupReads := make(map[string]int, len(c.Groups))
	totalReads := 0
	assigned := 0
	novel := 0

	for _, a := range assignments {
		reads := a.ReadCount
		if reads < 1 {
			reads = 1
		}

		speciesCounts[SpeciesKey(a)] += reads
		totalReads += reads

		if a.ConfidenceLevel != model.ConfidenceUncertain {
			assigned++
		}
		if a.IsNovelTaxon {
			novel++
		}

		for name, phyla := range c.Groups {
			for _, phylum := range phyla {
				if a.Lineage.Phylum == phylum {
					groupReads[name] += reads
					break
				}
			}
		}
	}

	observed := len(speciesCounts)

	var shannon, simpsonSum float64
	singletons, doubletons := 0, 0
	for _, count := range speciesCounts {
		if count <= 0 {
			continue
		}
		p := float64(count) / float64(totalReads)
		shannon -= p * math.Log(p)
		simpsonSum += p * p

		if count == 1 {
			singletons++
		}
		if count == 2 {
			doubletons++
		}
	}

	// Without doubletons the estimator degenerates to the observed count.
	chao1 := float64(observed)
	if doubletons > 0 {
		chao1 = float64(observed) + float64(singletons*singletons)/float64(2*doubletons)
	}

	rate := 0.0
	if len(assignments) > 0 {
		rate = float64(assigned) / float64(len(assignments))
	}

	percentages := make(map[string]float64, len(c.Groups))
	for name := range c.Groups {
		pct := 0.0
		if totalReads > 0 {
			pct = 100 * float64(groupReads[name]) / float64(totalReads)
		}
		percentages[name] = pct
	}

	return model.BiodiversityMetrics{
		ShannonDiversity:  shannon,
		SimpsonDiversity:  1 - simpsonSum,
		Chao1Richness:     chao1,
		ObservedOTUs:      observed,
		TotalSequences:    totalReads,
		AssignedSequences: assigned,
		NovelSequences:    novel,
		AssignmentRate:    rate,
		GroupPercentages:  percentages,
	}, nil
}
