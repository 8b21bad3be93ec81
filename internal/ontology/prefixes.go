package ontology

import (
	"context"
	"fmt"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"github.com/sea-cdm/OSEAN-KG/internal/graphstore"
	"go.uber.org/zap"
)

// PrefixRules assigns each shared identifier field a short type-indicating
// prefix, so a bare "12" in two different columns stops colliding once it
// becomes "org_12" in one and "exp_12" in the other.
var PrefixRules = []schemas.PrefixRule{
	{Field: "organism_id", Prefix: "org_"},
	{Field: "experiment_id", Prefix: "exp_"},
	{Field: "intervention_id", Prefix: "int_"},
	{Field: "material_id", Prefix: "mat_"},
	{Field: "sample_id", Prefix: "sam_"},
	{Field: "assay_id", Prefix: "asy_"},
	{Field: "analysis_id", Prefix: "ana_"},
}

// PrefixTargets lists the labels the rules are applied to. Every rule runs
// against every target: a label without the field simply matches nothing, and
// foreign-key copies of the field (Intervention.organism_id and so on) get
// the same prefix as the owning label's key, which keeps the joins coherent
// after the rewrite.
var PrefixTargets = []string{
	"Organism", "Sample", "Analysis", "Assay", "Experiment", "Intervention", "Material",
}

// Normalizer applies the identifier prefix rules across the graph.
type Normalizer struct {
	store graphstore.Store
	log   *zap.Logger
}

// NewNormalizer creates a normalizer over the given store.
func NewNormalizer(store graphstore.Store, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{store: store, log: logger.Named("Normalizer")}
}

// NormalizeAll runs every prefix rule against every target label. The
// starts-with guard in the store makes the pass idempotent.
func (n *Normalizer) NormalizeAll(ctx context.Context) error {
	for _, rule := range PrefixRules {
		for _, label := range PrefixTargets {
			updated, err := n.store.ApplyPrefix(ctx, label, rule)
			if err != nil {
				return fmt.Errorf("prefixing %s.%s: %w", label, rule.Field, err)
			}
			if updated > 0 {
				n.log.Info("Identifier prefix applied",
					zap.String("label", label),
					zap.String("field", rule.Field),
					zap.String("prefix", rule.Prefix),
					zap.Int64("updated", updated))
			}
		}
	}
	return nil
}
