package schemas

// -- Core Graph Models --
// These types represent the fully-formed elements as they exist in the graph store.

// Properties is a generic map for storing node attributes.
type Properties map[string]any

// Node represents a labeled, uniquely-keyed entity in the graph.
type Node struct {
	Label      string     `json:"label"`
	Key        string     `json:"key"`
	Properties Properties `json:"properties"`
}

// Edge represents a directed, typed relationship between two nodes.
// Merge semantics dedupe edges on the full (from, type, to) identity.
type Edge struct {
	FromLabel string `json:"from_label"`
	FromKey   string `json:"from_key"`
	Type      string `json:"type"`
	ToLabel   string `json:"to_label"`
	ToKey     string `json:"to_key"`
}

// -- Declarative Rule Models --
// The pipeline is driven by static rule tables interpreted by generic routines.

// EntityTable describes the external contract for one tabular input file:
// which label its rows become, which column keys the node, and the full set
// of columns a conforming file provides.
type EntityTable struct {
	Label     string
	File      string
	KeyColumn string
	Columns   []string
}

// LinkRule declares a foreign-key-style join between two entity labels,
// materialized as one merged edge per matching ordered pair.
type LinkRule struct {
	Name         string
	FromLabel    string
	FromField    string
	ToLabel      string
	ToField      string
	Relationship string
}

// PrefixRule rewrites an identifier field to carry a type-indicating prefix.
// The rewrite is guarded by a starts-with check, so applying it twice leaves
// values unchanged.
type PrefixRule struct {
	Field  string
	Prefix string
}

// MappingRule links entities of one label to ontology Resource nodes by
// comparing the (de-prefixed) identifier field against the final path segment
// of the resource URI.
type MappingRule struct {
	Label        string
	Field        string
	Relationship string
	// Prefix, when present at the head of the field value, is stripped before
	// the URI-tail comparison.
	Prefix string
	// ColonVariant additionally matches an underscore-to-colon rewrite of the
	// candidate key (NCBITaxon_9606 vs NCBITaxon:9606 style notations).
	ColonVariant bool
	// CopyProperties, when non-empty, marks a "primary representation" mapping:
	// each listed resource property (From) is copied onto the matched entity
	// under a namespaced key (To).
	CopyProperties []PropertyRename
}

// PropertyRename maps an opaque coded ontology property key to its
// human-readable equivalent.
type PropertyRename struct {
	From string
	To   string
}

// -- Result Models --

// ImportStats reports the outcome of an ontology import.
type ImportStats struct {
	TriplesParsed int64
	ResourceCount int64
}

// MappingResult reports the outcome of one mapping rule.
type MappingResult struct {
	// Mapped counts distinct entities that gained at least one edge.
	Mapped int64
	// Unmapped counts entities of the rule's label with no edge of the rule's
	// relationship type. Reported for manual review; never an error.
	Unmapped int64
}
