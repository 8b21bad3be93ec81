package ontology

import (
	"context"
	"errors"
	"fmt"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"github.com/sea-cdm/OSEAN-KG/internal/graphstore"
	"go.uber.org/zap"
)

// MappingRules connects loaded entities to imported Resource nodes. Each rule
// names the entity field carrying an ontology identifier, the prefix the
// normalizer added to it, and the relationship the match materializes.
// Experiment and Material mappings are "primary representations" and also
// copy the resource's annotation set onto the entity.
var MappingRules = []schemas.MappingRule{
	{
		Label: "Experiment", Field: "experiment_type_id",
		Relationship: "VO_REPRESENTATION", Prefix: "exp_type_",
		CopyProperties: voPropertyCopies(),
	},
	{
		Label: "Intervention", Field: "intervention_type_id",
		Relationship: "HAS_TYPE", Prefix: "int_type_",
	},
	{
		Label: "Intervention", Field: "material_id",
		Relationship: "USES_MATERIAL", Prefix: "mat_",
	},
	{
		Label: "Intervention", Field: "intervention_route_id",
		Relationship: "HAS_ROUTE", Prefix: "route_",
	},
	{
		Label: "Intervention", Field: "dosage_unit_id",
		Relationship: "HAS_DOSAGE_UNIT", Prefix: "dosage_",
	},
	{
		Label: "Material", Field: "material_name_id",
		Relationship: "VO_REPRESENTATION", Prefix: "mat_name_",
		CopyProperties: voPropertyCopies(),
	},
	{
		// Species identifiers mix NCBITaxon_9606 and NCBITaxon:9606 spellings
		// across ontology versions, so this rule matches both.
		Label: "Organism", Field: "species_id",
		Relationship: "IS_SPECIES", Prefix: "species_",
		ColonVariant: true,
	},
}

// Mapper runs the domain mapping rules.
type Mapper struct {
	store graphstore.Store
	log   *zap.Logger
}

// NewMapper creates a mapper over the given store.
func NewMapper(store graphstore.Store, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{store: store, log: logger.Named("Mapper")}
}

// MapAll runs every mapping rule. The rules are independent, so a failing
// rule is logged and the rest still run; the joined error is returned at the
// end for the caller to report.
func (m *Mapper) MapAll(ctx context.Context) error {
	var errs []error
	for _, rule := range MappingRules {
		result, err := m.store.MapToResources(ctx, rule)
		if err != nil {
			m.log.Error("Mapping rule failed",
				zap.String("label", rule.Label),
				zap.String("field", rule.Field),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("mapping %s.%s: %w", rule.Label, rule.Field, err))
			continue
		}
		m.log.Info("Mapping rule applied",
			zap.String("label", rule.Label),
			zap.String("field", rule.Field),
			zap.String("relationship", rule.Relationship),
			zap.Int64("mapped", result.Mapped))
		if result.Unmapped > 0 {
			m.log.Warn("Entities left without an ontology mapping",
				zap.String("label", rule.Label),
				zap.String("relationship", rule.Relationship),
				zap.Int64("unmapped", result.Unmapped))
		}
	}
	return errors.Join(errs...)
}
