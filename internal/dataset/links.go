package dataset

import (
	"context"
	"fmt"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"github.com/sea-cdm/OSEAN-KG/internal/graphstore"
	"go.uber.org/zap"
)

// LinkRules connects the loaded entities along their foreign-key columns.
// Most joins are straight key equality; the last few join on descriptive
// fields (assay_name, platform, reference_id) because the source submissions
// carry no better identifier for those relationships.
var LinkRules = []schemas.LinkRule{
	{Name: "StudyExperiment", FromLabel: "Study", FromField: "study_id", ToLabel: "Experiment", ToField: "study_id", Relationship: "HAS_EXPERIMENT"},
	{Name: "StudyDocumentation", FromLabel: "Study", FromField: "study_id", ToLabel: "Documentation", ToField: "study_id", Relationship: "PROVIDES_DOCUMENTATION"},
	{Name: "ExperimentGroup", FromLabel: "Experiment", FromField: "experiment_id", ToLabel: "Group", ToField: "experiment_id", Relationship: "CONTAINS_GROUP"},
	{Name: "ExperimentOrganism", FromLabel: "Experiment", FromField: "experiment_id", ToLabel: "Organism", ToField: "experiment_id", Relationship: "INVOLVES_ORGANISM"},
	{Name: "ExperimentIntervention", FromLabel: "Experiment", FromField: "experiment_id", ToLabel: "Intervention", ToField: "experiment_id", Relationship: "HAS_INTERVENTION"},
	{Name: "ExperimentResult", FromLabel: "Experiment", FromField: "experiment_id", ToLabel: "Result", ToField: "experiment_id", Relationship: "YIELDS_RESULT"},
	{Name: "GroupOrganism", FromLabel: "Group", FromField: "group_id", ToLabel: "Organism", ToField: "group_id", Relationship: "COMPOSED_OF"},
	{Name: "GroupSample", FromLabel: "Group", FromField: "group_id", ToLabel: "Sample", ToField: "group_id", Relationship: "PROVIDES_SAMPLE"},
	{Name: "GroupResult", FromLabel: "Group", FromField: "group_id", ToLabel: "Result", ToField: "group_id", Relationship: "ASSOCIATED_WITH_RESULT"},
	{Name: "OrganismSample", FromLabel: "Organism", FromField: "organism_id", ToLabel: "Sample", ToField: "organism_id", Relationship: "IS_SOURCE_OF"},
	{Name: "OrganismIntervention", FromLabel: "Organism", FromField: "organism_id", ToLabel: "Intervention", ToField: "organism_id", Relationship: "UNDERGOES"},
	{Name: "SampleResult", FromLabel: "Sample", FromField: "sample_id", ToLabel: "Result", ToField: "sample_id", Relationship: "GENERATES_RESULT"},
	{Name: "InterventionMaterial", FromLabel: "Intervention", FromField: "material_id", ToLabel: "Material", ToField: "material_id", Relationship: "APPLIES_MATERIAL"},
	{Name: "AnalysisAssay", FromLabel: "Analysis", FromField: "assay_name", ToLabel: "Assay", ToField: "assay_name", Relationship: "ANALYZES_ASSAY"},
	{Name: "AnalysisResult", FromLabel: "Analysis", FromField: "analysis_id", ToLabel: "Result", ToField: "analysis_id", Relationship: "PRODUCED_RESULT"},
	{Name: "DocumentationAssay", FromLabel: "Documentation", FromField: "documentation_id", ToLabel: "Assay", ToField: "documentation_id", Relationship: "DESCRIBES"},
	{Name: "DocumentationAnalysis", FromLabel: "Documentation", FromField: "documentation_id", ToLabel: "Analysis", ToField: "documentation_id", Relationship: "DESCRIBES"},
	{Name: "DocumentationResult", FromLabel: "Documentation", FromField: "documentation_id", ToLabel: "Result", ToField: "document_id", Relationship: "DESCRIBES"},
	{Name: "InterventionReferencesMaterial", FromLabel: "Intervention", FromField: "material_id", ToLabel: "Material", ToField: "reference_id", Relationship: "REFERENCES_MATERIAL"},
	{Name: "ResultFromAssay", FromLabel: "Result", FromField: "assay_id", ToLabel: "Assay", ToField: "platform", Relationship: "DERIVED_FROM_ASSAY"},
}

// Linker materializes every link rule against the store.
type Linker struct {
	store graphstore.Store
	log   *zap.Logger
}

// NewLinker creates a linker over the given store.
func NewLinker(store graphstore.Store, logger *zap.Logger) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{store: store, log: logger.Named("Linker")}
}

// LinkAll runs the rules in order. The first failing rule aborts the pass:
// the rules are independent, but a store that rejects one will reject the
// rest for the same reason.
func (l *Linker) LinkAll(ctx context.Context) error {
	for _, rule := range LinkRules {
		pairs, err := l.store.Link(ctx, rule)
		if err != nil {
			return fmt.Errorf("link rule %s: %w", rule.Name, err)
		}
		l.log.Info("Link rule applied",
			zap.String("rule", rule.Name),
			zap.String("relationship", rule.Relationship),
			zap.Int64("pairs", pairs))
	}
	return nil
}
