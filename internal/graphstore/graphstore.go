// Package graphstore provides the graph persistence layer for the import
// pipeline. A Store holds labeled, uniquely-keyed nodes and deduplicated
// directed edges, and exposes the bulk operations the pipeline phases are
// built from: constraint setup, row upserts, rule-driven linking, identifier
// prefixing, ontology import and resource mapping.
//
// Three implementations exist: Neo4jStore (the production target, using n10s
// for server-side RDF import), PostgresStore (relational projection of the
// graph), and MemoryStore (ephemeral, for tests and dry runs).
package graphstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
)

// Resource nodes are created by the ontology import and are keyed by URI.
const (
	ResourceLabel       = "Resource"
	ResourceURIProperty = "uri"
)

// Store is the contract every graph backend fulfils. All operations are
// idempotent: re-running an upsert, link, prefix or mapping pass leaves the
// graph in the same state.
type Store interface {
	// EnsureUniqueConstraint guarantees key uniqueness for a label. Backends
	// that enforce uniqueness structurally may treat this as a no-op.
	EnsureUniqueConstraint(ctx context.Context, label, property string) error

	// UpsertNode merges one node identified by (label, key) and overlays the
	// given properties onto it.
	UpsertNode(ctx context.Context, label, keyProperty, key string, props schemas.Properties) error

	// CountNodes returns the number of nodes carrying the label.
	CountNodes(ctx context.Context, label string) (int64, error)

	// Link materializes the rule's relationship for every pair of nodes whose
	// join fields are equal and non-empty. Repeated pairs merge into a single
	// edge. The returned count is informational (pairs processed).
	Link(ctx context.Context, rule schemas.LinkRule) (int64, error)

	// ApplyPrefix rewrites the rule's field on every node of the label,
	// prepending the prefix unless the value is empty or already carries it.
	// Returns the number of nodes rewritten.
	ApplyPrefix(ctx context.Context, label string, rule schemas.PrefixRule) (int64, error)

	// ImportOntology fetches the ontology document at url and materializes one
	// Resource node per named subject.
	ImportOntology(ctx context.Context, url, format string) (schemas.ImportStats, error)

	// MapToResources connects entities to Resource nodes per the rule: the
	// de-prefixed field value is compared against the final path segment of
	// each resource URI, and matches gain the rule's relationship (plus any
	// configured property copies).
	MapToResources(ctx context.Context, rule schemas.MappingRule) (schemas.MappingResult, error)

	// RenameResourceProperties renames properties on every Resource node,
	// moving each From key's value to the To key and dropping From.
	RenameResourceProperties(ctx context.Context, renames []schemas.PropertyRename) error

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// identPattern matches the label, property and relationship names we are
// willing to splice into generated queries. Everything else is rejected
// before it gets near a query string.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateIdents rejects names unsafe to interpolate into query text. Rule
// tables are static, so a failure here is a programming error surfaced early.
func validateIdents(names ...string) error {
	for _, name := range names {
		if !identPattern.MatchString(name) {
			return fmt.Errorf("graphstore: invalid identifier %q", name)
		}
	}
	return nil
}

// uriTail returns the text after the last '/' of a URI, matching the key
// convention OBO-style ontologies use (VO_0000001 from .../obo/VO_0000001).
// A URI without a slash is returned whole.
func uriTail(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// candidateKey derives the resource key candidate from an entity field value:
// the type prefix, when present, is stripped; otherwise the value is used
// verbatim.
func candidateKey(value, prefix string) string {
	if prefix != "" && strings.HasPrefix(value, prefix) {
		return value[len(prefix):]
	}
	return value
}

// keyMatches reports whether the candidate key matches a resource URI tail
// under the rule's matching mode. The colon variant covers CURIE-style keys
// (NCBITaxon_9606 in the URI vs NCBITaxon:9606 in the data, or vice versa).
func keyMatches(tail, candidate string, colonVariant bool) bool {
	if tail == candidate {
		return true
	}
	return colonVariant && tail == strings.ReplaceAll(candidate, "_", ":")
}

// stringValue coerces a stored property to its text form for comparisons and
// rewrites. Loader-written values are already strings; anything else falls
// back to fmt formatting.
func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
