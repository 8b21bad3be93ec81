package ontology

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"github.com/sea-cdm/OSEAN-KG/internal/graphstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const voFixture = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:obo="http://purl.obolibrary.org/obo/">
  <owl:Class rdf:about="http://purl.obolibrary.org/obo/VO_0000001">
    <rdfs:label>vaccine</rdfs:label>
    <obo:IAO_0000115>A processed material that improves immunity.</obo:IAO_0000115>
    <obo:VO_0003099>ExampleVax</obo:VO_0003099>
  </owl:Class>
  <owl:Class rdf:about="http://purl.obolibrary.org/obo/VO_0000738">
    <rdfs:label>intramuscular route</rdfs:label>
  </owl:Class>
  <rdf:Description rdf:about="http://purl.obolibrary.org/obo/NCBITaxon:10090">
    <rdfs:label>Mus musculus</rdfs:label>
  </rdf:Description>
</rdf:RDF>`

// newFixtureStore imports the test ontology into a fresh memory store.
func newFixtureStore(t *testing.T) *graphstore.MemoryStore {
	t.Helper()
	store := graphstore.NewMemoryStore(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(voFixture))
	}))
	t.Cleanup(srv.Close)

	stats, err := NewImporter(store, nil).Run(context.Background(), srv.URL, "RDF/XML")
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.ResourceCount)
	return store
}

func TestNormalizerAppliesPrefixesAcrossLabels(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore(nil)

	require.NoError(t, store.UpsertNode(ctx, "Organism", "organism_id", "12", schemas.Properties{
		"organism_id": "12",
	}))
	// Foreign-key copies of the field get the same prefix as the owning key.
	require.NoError(t, store.UpsertNode(ctx, "Intervention", "intervention_id", "7", schemas.Properties{
		"intervention_id": "7",
		"organism_id":     "12",
		"material_id":     "mat_VO_0000001",
	}))

	require.NoError(t, NewNormalizer(store, nil).NormalizeAll(ctx))

	organism, err := store.GetNode(ctx, "Organism", "12")
	require.NoError(t, err)
	assert.Equal(t, "org_12", organism.Properties["organism_id"])

	intervention, err := store.GetNode(ctx, "Intervention", "7")
	require.NoError(t, err)
	assert.Equal(t, "int_7", intervention.Properties["intervention_id"])
	assert.Equal(t, "org_12", intervention.Properties["organism_id"])
	// Already-prefixed values survive unchanged.
	assert.Equal(t, "mat_VO_0000001", intervention.Properties["material_id"])

	// The pass is idempotent.
	require.NoError(t, NewNormalizer(store, nil).NormalizeAll(ctx))
	organism, err = store.GetNode(ctx, "Organism", "12")
	require.NoError(t, err)
	assert.Equal(t, "org_12", organism.Properties["organism_id"])
}

func TestMapperMapsEntitiesToResources(t *testing.T) {
	ctx := context.Background()
	store := newFixtureStore(t)

	require.NoError(t, store.UpsertNode(ctx, "Intervention", "intervention_id", "int_1", schemas.Properties{
		"intervention_id":       "int_1",
		"material_id":           "mat_VO_0000001",
		"intervention_route_id": "route_VO_0000738",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Organism", "organism_id", "org_1", schemas.Properties{
		"organism_id": "org_1",
		"species_id":  "species_NCBITaxon_10090",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Experiment", "experiment_id", "exp_1", schemas.Properties{
		"experiment_id":      "exp_1",
		"experiment_type_id": "exp_type_VO_0000001",
	}))

	require.NoError(t, NewMapper(store, nil).MapAll(ctx))

	assert.True(t, store.HasEdge(schemas.Edge{
		FromLabel: "Intervention", FromKey: "int_1", Type: "USES_MATERIAL",
		ToLabel: graphstore.ResourceLabel, ToKey: "http://purl.obolibrary.org/obo/VO_0000001",
	}))
	assert.True(t, store.HasEdge(schemas.Edge{
		FromLabel: "Intervention", FromKey: "int_1", Type: "HAS_ROUTE",
		ToLabel: graphstore.ResourceLabel, ToKey: "http://purl.obolibrary.org/obo/VO_0000738",
	}))
	// The colon variant bridges NCBITaxon_10090 in the data to
	// NCBITaxon:10090 in the ontology URI.
	assert.True(t, store.HasEdge(schemas.Edge{
		FromLabel: "Organism", FromKey: "org_1", Type: "IS_SPECIES",
		ToLabel: graphstore.ResourceLabel, ToKey: "http://purl.obolibrary.org/obo/NCBITaxon:10090",
	}))
	assert.True(t, store.HasEdge(schemas.Edge{
		FromLabel: "Experiment", FromKey: "exp_1", Type: "VO_REPRESENTATION",
		ToLabel: graphstore.ResourceLabel, ToKey: "http://purl.obolibrary.org/obo/VO_0000001",
	}))

	// The primary-representation rule copies annotations under vo_ keys.
	experiment, err := store.GetNode(ctx, "Experiment", "exp_1")
	require.NoError(t, err)
	assert.Equal(t, "http://purl.obolibrary.org/obo/VO_0000001", experiment.Properties["vo_representation_uri"])
	assert.Equal(t, "A processed material that improves immunity.", experiment.Properties["vo_definition"])
	assert.Equal(t, "ExampleVax", experiment.Properties["vo_trade_name"])
	assert.NotContains(t, experiment.Properties, "vo_taxon_notes",
		"annotations absent from the resource are not copied")
}

func TestMapperContinuesPastUnmappableEntities(t *testing.T) {
	ctx := context.Background()
	store := newFixtureStore(t)

	require.NoError(t, store.UpsertNode(ctx, "Intervention", "intervention_id", "int_1", schemas.Properties{
		"intervention_id": "int_1",
		"material_id":     "mat_NO_SUCH_TERM",
	}))

	// Unknown identifiers are reported as unmapped, never as errors.
	require.NoError(t, NewMapper(store, nil).MapAll(ctx))
	assert.Equal(t, 0, store.EdgeCount())
}

func TestHumanizerRenamesResourceProperties(t *testing.T) {
	ctx := context.Background()
	store := newFixtureStore(t)

	require.NoError(t, NewHumanizer(store, nil).Run(ctx))

	node, err := store.GetNode(ctx, graphstore.ResourceLabel, "http://purl.obolibrary.org/obo/VO_0000001")
	require.NoError(t, err)
	assert.Equal(t, "A processed material that improves immunity.", node.Properties["definition"])
	assert.Equal(t, "ExampleVax", node.Properties["trade_name"])
	assert.NotContains(t, node.Properties, "IAO_0000115")
	assert.NotContains(t, node.Properties, "VO_0003099")
	// Untouched keys survive.
	assert.Equal(t, "vaccine", node.Properties["label"])
}

func TestRuleTables(t *testing.T) {
	t.Run("mapping rules cover the four mapped labels", func(t *testing.T) {
		require.Len(t, MappingRules, 7)
		labels := make(map[string]int)
		for _, rule := range MappingRules {
			labels[rule.Label]++
			assert.NotEmpty(t, rule.Prefix, "%s.%s: prefix required", rule.Label, rule.Field)
			assert.NotEmpty(t, rule.Relationship)
		}
		assert.Equal(t, map[string]int{"Experiment": 1, "Intervention": 4, "Material": 1, "Organism": 1}, labels)
	})

	t.Run("primary representation rules carry the full copy set", func(t *testing.T) {
		for _, rule := range MappingRules {
			if rule.Relationship != "VO_REPRESENTATION" {
				assert.Empty(t, rule.CopyProperties)
				continue
			}
			require.Len(t, rule.CopyProperties, len(codedProperties)+1)
			assert.Equal(t, schemas.PropertyRename{From: "uri", To: "vo_representation_uri"}, rule.CopyProperties[0])
		}
	})

	t.Run("renames are unique in both directions", func(t *testing.T) {
		from := make(map[string]bool)
		to := make(map[string]bool)
		for _, rn := range ResourceRenames() {
			assert.False(t, from[rn.From], "duplicate source %s", rn.From)
			assert.False(t, to[rn.To], "duplicate target %s", rn.To)
			from[rn.From] = true
			to[rn.To] = true
		}
		assert.Len(t, from, 20)
	})

	t.Run("prefix rules and targets match the shared identifier fields", func(t *testing.T) {
		assert.Len(t, PrefixRules, 7)
		assert.Len(t, PrefixTargets, 7)
	})
}
