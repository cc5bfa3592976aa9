package model

// ConfidenceLevel is the tier attached to every assignment.
type ConfidenceLevel string

const (
	ConfidenceHigh      ConfidenceLevel = "high"
	ConfidenceMedium    ConfidenceLevel = "medium"
	ConfidenceLow       ConfidenceLevel = "low"
	ConfidenceUncertain ConfidenceLevel = "uncertain"
)

// SourceNone is the database_source sentinel for sequences where no database
// produced a usable hit.
const SourceNone = "none"

// DefaultKingdom is recorded when a hit resolves no names at all; the
// reference cascade carries only eukaryote databases.
const DefaultKingdom = "Eukaryota"

// DefaultDatabases is the reference cascade in search order, the specific
// marker databases before the comprehensive one.
var DefaultDatabases = []ReferenceDatabase{
	{Name: "SSU_eukaryote_rRNA", Marker: "18S", CostHint: 1},
	{Name: "LSU_eukaryote_rRNA", Marker: "28S", CostHint: 2},
	{Name: "ITS_eukaryote_sequences", Marker: "ITS", CostHint: 3},
	{Name: "nt_euk", Marker: "comprehensive", CostHint: 4},
}

// DefaultGroups maps major community groups to the phyla counted toward them.
var DefaultGroups = map[string][]string{
	"protist":   {"Foraminifera", "Radiolaria", "Ciliophora", "Dinoflagellata"},
	"metazoan":  {"Nematoda", "Arthropoda", "Mollusca", "Annelida"},
	"cnidarian": {"Cnidaria"},
	"fungi":     {"Ascomycota", "Basidiomycota"},
}
