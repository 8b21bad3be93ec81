// Package dataset loads the tabular experiment submission files into the
// graph store and links the resulting entities. The eleven entity tables and
// twenty link rules are static: the loader and linker are generic routines
// that interpret them.
package dataset

import "github.com/sea-cdm/OSEAN-KG/api/schemas"

// Tables describes every entity file in a submission, in load order. Each
// file is a headered CSV named after its entity; the key column both merges
// the node and survives as a regular property.
var Tables = []schemas.EntityTable{
	{
		Label:     "Assay",
		File:      "assay.csv",
		KeyColumn: "assay_id",
		Columns: []string{
			"assay_id", "assay_name", "documentation_id", "assay_type",
			"assay_type_id", "organism", "reagents", "platform", "comments",
		},
	},
	{
		Label:     "Analysis",
		File:      "analysis.csv",
		KeyColumn: "analysis_id",
		Columns: []string{
			"analysis_id", "documentation_id", "group_id", "analysis_name",
			"analysis_name_id", "input_data", "input_data_id", "reference_id",
			"reference_source", "comments", "assay_name", "assay_type",
			"assay_type_id", "organism", "reagents", "platform",
		},
	},
	{
		Label:     "Documentation",
		File:      "documentation.csv",
		KeyColumn: "documentation_id",
		Columns: []string{
			"documentation_id", "study_id", "document_name", "document_type",
			"document_type_id", "documentation_source", "source_id",
			"reference_source", "citation", "citation_style", "person_id",
			"person_id_type", "honorific", "first_name", "middle_name",
			"last_name", "person_role", "comments",
		},
	},
	{
		Label:     "Experiment",
		File:      "experiment.csv",
		KeyColumn: "experiment_id",
		Columns: []string{
			"experiment_id", "study_id", "experiment_type", "experiment_type_id",
			"experiment_control", "source_id", "reference_source", "comments",
			"experiment_name",
		},
	},
	{
		Label:     "Group",
		File:      "group.csv",
		KeyColumn: "group_id",
		Columns: []string{
			"group_id", "experiment_id", "group_type", "group_size",
			"reference_id", "reference_source", "max_age", "min_age", "comments",
		},
	},
	{
		Label:     "Intervention",
		File:      "intervention.csv",
		KeyColumn: "intervention_id",
		Columns: []string{
			"intervention_id", "experiment_id", "organism_id", "material",
			"material_id", "dosage", "dosage_unit", "dosage_unit_id",
			"intervention_type", "intervention_type_id", "intervention_route",
			"intervention_route_id", "T0_definition", "intervention_time",
			"intervention_unit", "intervention_time_unit_id", "source_id",
			"reference_source", "comments",
		},
	},
	{
		Label:     "Material",
		File:      "material.csv",
		KeyColumn: "material_id",
		Columns: []string{
			"material_id", "material_name", "material_name_id", "organization",
			"reference_id", "reference_source", "comments", "reference",
		},
	},
	{
		Label:     "Organism",
		File:      "organism.csv",
		KeyColumn: "organism_id",
		Columns: []string{
			"organism_id", "group_id", "experiment_id", "species", "species_id",
			"type", "type_id", "age", "age_unit", "age_unit_id", "sex", "sex_id",
			"reference_id", "reference_source", "comments",
		},
	},
	{
		Label:     "Study",
		File:      "study.csv",
		KeyColumn: "study_id",
		Columns: []string{
			"study_id", "study_type", "study_type_id", "study_name",
			"study_description", "reference_id", "reference_source", "comments",
		},
	},
	{
		Label:     "Sample",
		File:      "sample.csv",
		KeyColumn: "sample_id",
		Columns: []string{
			"sample_id", "group_id", "organism_id", "collection", "collection_id",
			"collection_time", "collection_time_unit", "collection_time_unit_id",
			"expsample_type", "expsample_type_id", "expsample_reference_id",
			"expsample_reference_name", "expsample_source", "biosample_type",
			"biosample_type_id", "biosample_reference_id",
			"biosample_reference_name", "replicates",
		},
	},
	{
		// The Result key column is results_id, not result_id; the source
		// submissions are inconsistent here and the graph follows them.
		Label:     "Result",
		File:      "result.csv",
		KeyColumn: "results_id",
		Columns: []string{
			"results_id", "experiment_id", "group_id", "sample_id",
			"analysis_name", "analysis_id", "original_assay_type",
			"original_assay_type_id", "assay_id", "analysis_type", "datatype",
			"datatype_id", "file_access", "file_type", "replications",
			"comments", "document_id",
		},
	},
}

// TableFor returns the table definition for a label.
func TableFor(label string) (schemas.EntityTable, bool) {
	for _, table := range Tables {
		if table.Label == label {
			return table, true
		}
	}
	return schemas.EntityTable{}, false
}
