// Package ontology drives the vocabulary side of the pipeline: importing the
// remote OWL document, normalizing entity identifiers, mapping entities onto
// the imported Resource nodes, and rewriting coded annotation properties into
// readable names.
package ontology

import "github.com/sea-cdm/OSEAN-KG/api/schemas"

// codedProperties is the annotation vocabulary carried by VO resources: IAO
// metadata terms, VO-specific regulatory fields, and UBPROP cross-ontology
// notes. Each coded key has one readable equivalent.
var codedProperties = []schemas.PropertyRename{
	{From: "IAO_0000111", To: "editor_preferred_label"},
	{From: "IAO_0000112", To: "example_of_usage"},
	{From: "IAO_0000114", To: "has_curation_status"},
	{From: "IAO_0000115", To: "definition"},
	{From: "IAO_0000116", To: "editor_note"},
	{From: "IAO_0000117", To: "term_editor"},
	{From: "IAO_0000118", To: "alternative_term"},
	{From: "IAO_0000119", To: "definition_source"},
	{From: "IAO_0000232", To: "curator_note"},
	{From: "IAO_0000233", To: "term_tracker_item"},
	{From: "IAO_0000412", To: "imported_from"},
	{From: "VO_0001818", To: "violin_vaccine_id"},
	{From: "VO_0003099", To: "trade_name"},
	{From: "VO_0003160", To: "fda_vaccine_indications"},
	{From: "VO_0003161", To: "vaccine_package_insert_pdf_url"},
	{From: "VO_0003162", To: "vaccine_stn"},
	{From: "UBPROP_0000008", To: "taxon_notes"},
	{From: "UBPROP_0000001", To: "external_definition"},
	{From: "UBPROP_0000002", To: "axiom_lost_from_external_ontology"},
	{From: "UBPROP_0000003", To: "homology_notes"},
}

// ResourceRenames returns the rename table applied to Resource nodes after
// mapping: coded keys move to their readable names.
func ResourceRenames() []schemas.PropertyRename {
	out := make([]schemas.PropertyRename, len(codedProperties))
	copy(out, codedProperties)
	return out
}

// voPropertyCopies is the copy set for primary-representation mappings: the
// resource URI plus every coded annotation, landed on the entity under
// vo_-namespaced readable keys. The copies run before the resource-side
// rename, so they read the coded keys.
func voPropertyCopies() []schemas.PropertyRename {
	copies := make([]schemas.PropertyRename, 0, len(codedProperties)+1)
	copies = append(copies, schemas.PropertyRename{From: "uri", To: "vo_representation_uri"})
	for _, cp := range codedProperties {
		copies = append(copies, schemas.PropertyRename{From: cp.From, To: "vo_" + cp.To})
	}
	return copies
}
