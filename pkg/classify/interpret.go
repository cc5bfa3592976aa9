// Package classify holds the classification engine: hit interpretation,
// confidence scoring, novel-taxon detection, the database cascade, and the
// sample-level pipeline that drives them.
package classify

import (
	"github.com/A-Akhil/BluePrint/pkg/blast"
	"github.com/A-Akhil/BluePrint/pkg/model"
	"github.com/A-Akhil/BluePrint/pkg/taxonomy"
)

// Interpret normalizes one raw hit into a MatchResult. When the resolver
// does not know the accession the hierarchy stays empty but the statistics
// are kept: a hit with unknown taxonomy is still evidence against
// "unassigned", it just cannot contribute names.
func Interpret(hit blast.RawHit, database string, resolver taxonomy.Resolver) model.MatchResult {
	m := model.MatchResult{
		IdentityPercent: hit.IdentityPercent,
		CoveragePercent: hit.CoveragePercent,
		EValue:          hit.EValue,
		Database:        database,
		Accession:       hit.Accession,
	}
	if resolver != nil {
		m.Lineage = resolver.Resolve(hit.Accession)
	}
	return m
}
