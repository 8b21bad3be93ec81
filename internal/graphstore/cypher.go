package graphstore

import (
	"fmt"
	"strings"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
)

// Cypher text for the Neo4j backend. Labels, properties and relationship
// types cannot be parameterized in Cypher, so the builders splice validated
// identifiers into the query and pass values as parameters.

// Fixed statements for the n10s (neosemantics) RDF import machinery.
const (
	// n10s refuses to reconfigure a live graph config, so the import phase
	// deletes any existing one before initializing.
	resetGraphConfigCypher = "MATCH (n:_GraphConfig) DETACH DELETE n"

	// MAP keeps vocabulary URIs as-is (no namespace shortening), OVERWRITE
	// collapses repeated relationships, NODES materializes rdf:type targets
	// as nodes.
	initGraphConfigCypher = "CALL n10s.graphconfig.init({handleVocabUris: 'MAP', handleMultipleRelsPerType: 'OVERWRITE', handleRDFTypes: 'NODES'})"

	importFetchCypher = "CALL n10s.rdf.import.fetch($url, $format) YIELD triplesParsed RETURN triplesParsed"

	// n10s requires this exact constraint before its graph config can be
	// created. No IF NOT EXISTS: a pre-existing constraint surfaces as an
	// "equivalent constraint already exists" error, which the caller treats
	// as informational.
	resourceConstraintCypher = "CREATE CONSTRAINT n10s_unique_uri FOR (r:Resource) REQUIRE r.uri IS UNIQUE"
)

func uniqueConstraintCypher(label, property string) (string, error) {
	if err := validateIdents(label, property); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		label, property,
	), nil
}

func upsertNodeCypher(label, keyProperty string) (string, error) {
	if err := validateIdents(label, keyProperty); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MERGE (n:%s {%s: $key}) SET n += $props",
		label, keyProperty,
	), nil
}

func countNodesCypher(label string) (string, error) {
	if err := validateIdents(label); err != nil {
		return "", err
	}
	return fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS total", label), nil
}

// linkCypher joins two labels on field equality and merges one relationship
// per matching pair. Empty join values never link: a blank foreign key in the
// source data would otherwise connect to every node with a blank key field.
func linkCypher(rule schemas.LinkRule) (string, error) {
	if err := validateIdents(rule.FromLabel, rule.FromField, rule.ToLabel, rule.ToField, rule.Relationship); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MATCH (a:%s), (b:%s)\n"+
			"WHERE a.%s = b.%s AND a.%s <> ''\n"+
			"MERGE (a)-[:%s]->(b)\n"+
			"RETURN count(*) AS pairs",
		rule.FromLabel, rule.ToLabel,
		rule.FromField, rule.ToField, rule.FromField,
		rule.Relationship,
	), nil
}

// applyPrefixCypher rewrites an identifier field in place. The STARTS WITH
// guard makes the rewrite idempotent across pipeline re-runs.
func applyPrefixCypher(label, field string) (string, error) {
	if err := validateIdents(label, field); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MATCH (n:%s)\n"+
			"WHERE n.%s IS NOT NULL AND toString(n.%s) <> '' AND NOT toString(n.%s) STARTS WITH $prefix\n"+
			"SET n.%s = $prefix + toString(n.%s)\n"+
			"RETURN count(n) AS updated",
		label, field, field, field, field, field,
	), nil
}

// mapToResourcesCypher matches entities to ontology resources by comparing
// the de-prefixed field value to the final path segment of the resource URI,
// then merges the rule's relationship. Primary-representation rules also copy
// resource properties onto the entity.
func mapToResourcesCypher(rule schemas.MappingRule) (string, map[string]any, error) {
	idents := []string{rule.Label, rule.Field, rule.Relationship}
	for _, cp := range rule.CopyProperties {
		idents = append(idents, cp.From, cp.To)
	}
	if err := validateIdents(idents...); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	params := map[string]any{}

	fmt.Fprintf(&b, "MATCH (e:%s)\n", rule.Label)
	fmt.Fprintf(&b, "WHERE e.%s IS NOT NULL AND e.%s <> ''\n", rule.Field, rule.Field)
	if rule.Prefix != "" {
		fmt.Fprintf(&b,
			"WITH e, CASE WHEN e.%s STARTS WITH $prefix THEN substring(e.%s, $prefixLen) ELSE e.%s END AS candidate\n",
			rule.Field, rule.Field, rule.Field)
		params["prefix"] = rule.Prefix
		params["prefixLen"] = len(rule.Prefix)
	} else {
		fmt.Fprintf(&b, "WITH e, e.%s AS candidate\n", rule.Field)
	}
	fmt.Fprintf(&b, "MATCH (r:%s)\n", ResourceLabel)
	if rule.ColonVariant {
		b.WriteString("WHERE last(split(r.uri, '/')) = candidate OR last(split(r.uri, '/')) = replace(candidate, '_', ':')\n")
	} else {
		b.WriteString("WHERE last(split(r.uri, '/')) = candidate\n")
	}
	fmt.Fprintf(&b, "MERGE (e)-[:%s]->(r)\n", rule.Relationship)
	if len(rule.CopyProperties) > 0 {
		assignments := make([]string, 0, len(rule.CopyProperties))
		for _, cp := range rule.CopyProperties {
			assignments = append(assignments, fmt.Sprintf("e.%s = r.%s", cp.To, cp.From))
		}
		fmt.Fprintf(&b, "SET %s\n", strings.Join(assignments, ", "))
	}
	b.WriteString("RETURN count(DISTINCT e) AS mapped")

	return b.String(), params, nil
}

// unmappedCountCypher counts nodes of a label that gained no relationship of
// the rule's type, for post-mapping review.
func unmappedCountCypher(label, relationship string) (string, error) {
	if err := validateIdents(label, relationship); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"MATCH (e:%s) WHERE NOT (e)-[:%s]->(:%s) RETURN count(e) AS unmapped",
		label, relationship, ResourceLabel,
	), nil
}

// renameResourcePropertiesCypher produces the copy and cleanup statements that
// move coded property keys to their readable names on every Resource node.
// Copy and removal are separate statements so a failure between them leaves
// the readable copies in place.
func renameResourcePropertiesCypher(renames []schemas.PropertyRename) (setQuery, removeQuery string, err error) {
	assignments := make([]string, 0, len(renames))
	removals := make([]string, 0, len(renames))
	for _, rn := range renames {
		if err := validateIdents(rn.From, rn.To); err != nil {
			return "", "", err
		}
		assignments = append(assignments, fmt.Sprintf("r.%s = r.%s", rn.To, rn.From))
		removals = append(removals, "r."+rn.From)
	}
	setQuery = fmt.Sprintf("MATCH (r:%s) SET %s", ResourceLabel, strings.Join(assignments, ", "))
	removeQuery = fmt.Sprintf("MATCH (r:%s) REMOVE %s", ResourceLabel, strings.Join(removals, ", "))
	return setQuery, removeQuery, nil
}
