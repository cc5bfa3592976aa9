// Package taxonomy resolves reference accessions to named hierarchies. The
// resolver is total: an accession the table does not know yields an empty
// lineage, never an error, so a hit with unknown taxonomy still counts as
// evidence against "unassigned".
package taxonomy

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/A-Akhil/BluePrint/internal/util"
	"github.com/A-Akhil/BluePrint/pkg/model"
)

// Resolver maps one accession onto a taxonomic hierarchy.
type Resolver interface {
	Resolve(accession string) model.Lineage
}

// Table is an in-memory accession index loaded from a lineage table.
type Table struct {
	lineages map[string]model.Lineage
}

func NewTable() *Table {
	return &Table{lineages: make(map[string]model.Lineage)}
}

func (t *Table) Add(accession string, lineage model.Lineage) {
	t.lineages[accession] = lineage
}

func (t *Table) Len() int {
	return len(t.lineages)
}

// Resolve looks the accession up exactly, then once more with a trailing
// version suffix stripped (AB746210.1 -> AB746210); reference tables are
// often unversioned while search output is versioned.
func (t *Table) Resolve(accession string) model.Lineage {
	if lineage, ok := t.lineages[accession]; ok {
		return lineage
	}
	if i := strings.LastIndex(accession, "."); i > 0 {
		if lineage, ok := t.lineages[accession[:i]]; ok {
			return lineage
		}
	}
	return model.Lineage{}
}

// rank column order when the table carries no header line
var defaultRanks = []string{"kingdom", "phylum", "class", "order", "family", "genus", "species"}

// rankAlias folds equivalent rank labels together.
var rankAlias = map[string]string{
	"superkingdom": "kingdom",
}

// LoadTable reads a plain or gzipped lineage table: one accession per line,
// tab-separated ranks. A header line starting with "accession" renames and
// reorders the rank columns; without one the columns are kingdom through
// species. Lines missing an accession are skipped.
func LoadTable(path string) (*Table, error) {
	in, err := util.OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("open lineage table: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	table := NewTable()
	ranks := defaultRanks

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(fields[0]), "accession") {
				ranks = headerRanks(fields[1:])
				continue
			}
		}

		accession := strings.TrimSpace(fields[0])
		if accession == "" {
			continue
		}

		var lineage model.Lineage
		for i, rank := range ranks {
			setRank(&lineage, rank, field(fields, i+1))
		}
		table.Add(accession, lineage)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lineage table: %w", err)
	}

	return table, nil
}

func headerRanks(cols []string) []string {
	ranks := make([]string, len(cols))
	for i, col := range cols {
		rank := strings.ToLower(strings.TrimSpace(col))
		if alias, ok := rankAlias[rank]; ok {
			rank = alias
		}
		ranks[i] = rank
	}
	return ranks
}

func setRank(lineage *model.Lineage, rank, name string) {
	if name == "" {
		return
	}
	switch rank {
	case "kingdom":
		lineage.Kingdom = name
	case "phylum":
		lineage.Phylum = name
	case "class":
		lineage.Class = name
	case "order":
		lineage.Order = name
	case "family":
		lineage.Family = name
	case "genus":
		lineage.Genus = name
	case "species":
		lineage.Species = name
	}
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}
