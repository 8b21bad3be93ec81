package graphstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOntologyDoc = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:obo="http://purl.obolibrary.org/obo/">
  <owl:Class rdf:about="http://purl.obolibrary.org/obo/VO_0000001">
    <rdfs:label>vaccine</rdfs:label>
    <obo:IAO_0000115>A preparation that improves immunity.</obo:IAO_0000115>
  </owl:Class>
  <owl:Class rdf:about="http://purl.obolibrary.org/obo/VO_0003162">
    <rdfs:label>saline</rdfs:label>
  </owl:Class>
  <rdf:Description rdf:about="http://purl.obolibrary.org/obo/NCBITaxon_9606">
    <rdfs:label>Homo sapiens</rdfs:label>
  </rdf:Description>
</rdf:RDF>`

// newOntologyServer serves a fixed RDF/XML document for import tests.
func newOntologyServer(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rdf+xml")
		_, _ = w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMemoryStoreUpsertNode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	t.Run("creates a node with its key property", func(t *testing.T) {
		err := store.UpsertNode(ctx, "Study", "study_id", "std_001", schemas.Properties{
			"study_id":    "std_001",
			"study_title": "Challenge study",
		})
		require.NoError(t, err)

		node, err := store.GetNode(ctx, "Study", "std_001")
		require.NoError(t, err)
		assert.Equal(t, "Challenge study", node.Properties["study_title"])
	})

	t.Run("re-upsert merges properties instead of replacing", func(t *testing.T) {
		err := store.UpsertNode(ctx, "Study", "study_id", "std_001", schemas.Properties{
			"study_type": "interventional",
		})
		require.NoError(t, err)

		node, err := store.GetNode(ctx, "Study", "std_001")
		require.NoError(t, err)
		// The earlier title survives the second upsert.
		assert.Equal(t, "Challenge study", node.Properties["study_title"])
		assert.Equal(t, "interventional", node.Properties["study_type"])

		count, err := store.CountNodes(ctx, "Study")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects unsafe identifiers", func(t *testing.T) {
		err := store.UpsertNode(ctx, "Study; DROP", "study_id", "x", nil)
		assert.Error(t, err)
	})
}

func TestMemoryStoreLink(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	require.NoError(t, store.UpsertNode(ctx, "Study", "study_id", "std_001", schemas.Properties{
		"study_id": "std_001", "experiment_id": "e1",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Study", "study_id", "std_002", schemas.Properties{
		"study_id": "std_002", "experiment_id": "",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Experiment", "experiment_id", "e1", schemas.Properties{
		"experiment_id": "e1",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Experiment", "experiment_id", "e2", schemas.Properties{
		"experiment_id": "",
	}))

	rule := schemas.LinkRule{
		Name:      "study_experiments",
		FromLabel: "Study", FromField: "experiment_id",
		ToLabel: "Experiment", ToField: "experiment_id",
		Relationship: "HAS_EXPERIMENT",
	}

	pairs, err := store.Link(ctx, rule)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pairs)

	assert.True(t, store.HasEdge(schemas.Edge{
		FromLabel: "Study", FromKey: "std_001",
		Type:    "HAS_EXPERIMENT",
		ToLabel: "Experiment", ToKey: "e1",
	}))
	// Empty join values never link, even though both sides are empty strings.
	assert.Equal(t, 1, store.EdgeCount())

	// Re-running merges into the same edge.
	_, err = store.Link(ctx, rule)
	require.NoError(t, err)
	assert.Equal(t, 1, store.EdgeCount())
}

func TestMemoryStoreApplyPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	require.NoError(t, store.UpsertNode(ctx, "Organism", "organism_id", "1", schemas.Properties{
		"organism_id": "1",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Organism", "organism_id", "org_2", schemas.Properties{
		"organism_id": "org_2",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Organism", "organism_id", "3", schemas.Properties{
		"organism_id": "",
	}))

	rule := schemas.PrefixRule{Field: "organism_id", Prefix: "org_"}

	updated, err := store.ApplyPrefix(ctx, "Organism", rule)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	node, err := store.GetNode(ctx, "Organism", "1")
	require.NoError(t, err)
	assert.Equal(t, "org_1", node.Properties["organism_id"])

	// Already-prefixed and empty values are untouched.
	node, err = store.GetNode(ctx, "Organism", "org_2")
	require.NoError(t, err)
	assert.Equal(t, "org_2", node.Properties["organism_id"])
	node, err = store.GetNode(ctx, "Organism", "3")
	require.NoError(t, err)
	assert.Equal(t, "", node.Properties["organism_id"])

	// A second pass is a no-op.
	updated, err = store.ApplyPrefix(ctx, "Organism", rule)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

func TestMemoryStoreImportOntology(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	srv := newOntologyServer(t, testOntologyDoc)

	stats, err := store.ImportOntology(ctx, srv.URL, "RDF/XML")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ResourceCount)
	assert.Greater(t, stats.TriplesParsed, int64(0))

	node, err := store.GetNode(ctx, ResourceLabel, "http://purl.obolibrary.org/obo/VO_0000001")
	require.NoError(t, err)
	assert.Equal(t, "vaccine", node.Properties["label"])
	assert.Equal(t, "A preparation that improves immunity.", node.Properties["IAO_0000115"])
	assert.Equal(t, "http://purl.obolibrary.org/obo/VO_0000001", node.Properties[ResourceURIProperty])

	t.Run("unsupported format is rejected", func(t *testing.T) {
		_, err := store.ImportOntology(ctx, srv.URL, "Turtle")
		assert.ErrorContains(t, err, "unsupported ontology format")
	})

	t.Run("unreachable source is an error", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()
		_, err := store.ImportOntology(ctx, failing.URL, "RDF/XML")
		assert.ErrorContains(t, err, "status 500")
	})
}

func TestMemoryStoreMapToResources(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	srv := newOntologyServer(t, testOntologyDoc)

	_, err := store.ImportOntology(ctx, srv.URL, "RDF/XML")
	require.NoError(t, err)

	require.NoError(t, store.UpsertNode(ctx, "Material", "material_id", "mat_VO_0003162", schemas.Properties{
		"material_id": "mat_VO_0003162",
	}))
	require.NoError(t, store.UpsertNode(ctx, "Material", "material_id", "mat_UNKNOWN", schemas.Properties{
		"material_id": "mat_UNKNOWN",
	}))

	t.Run("prefix-stripped field matches the URI tail", func(t *testing.T) {
		result, err := store.MapToResources(ctx, schemas.MappingRule{
			Label: "Material", Field: "material_id",
			Relationship: "USES_MATERIAL", Prefix: "mat_",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Mapped)
		assert.Equal(t, int64(1), result.Unmapped)

		assert.True(t, store.HasEdge(schemas.Edge{
			FromLabel: "Material", FromKey: "mat_VO_0003162",
			Type:    "USES_MATERIAL",
			ToLabel: ResourceLabel, ToKey: "http://purl.obolibrary.org/obo/VO_0003162",
		}))
	})

	t.Run("colon variant matches CURIE style keys", func(t *testing.T) {
		require.NoError(t, store.UpsertNode(ctx, "Organism", "organism_id", "org_1", schemas.Properties{
			"organism_id": "org_1",
			"species_id":  "species_NCBITaxon_9606",
		}))

		result, err := store.MapToResources(ctx, schemas.MappingRule{
			Label: "Organism", Field: "species_id",
			Relationship: "IS_SPECIES", Prefix: "species_",
			ColonVariant: true,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Mapped)

		assert.True(t, store.HasEdge(schemas.Edge{
			FromLabel: "Organism", FromKey: "org_1",
			Type:    "IS_SPECIES",
			ToLabel: ResourceLabel, ToKey: "http://purl.obolibrary.org/obo/NCBITaxon_9606",
		}))
	})

	t.Run("primary representation copies resource properties", func(t *testing.T) {
		require.NoError(t, store.UpsertNode(ctx, "Experiment", "experiment_id", "exp_1", schemas.Properties{
			"experiment_id":      "exp_1",
			"experiment_type_id": "exp_type_VO_0000001",
		}))

		result, err := store.MapToResources(ctx, schemas.MappingRule{
			Label: "Experiment", Field: "experiment_type_id",
			Relationship: "VO_REPRESENTATION", Prefix: "exp_type_",
			CopyProperties: []schemas.PropertyRename{
				{From: ResourceURIProperty, To: "vo_representation_uri"},
				{From: "label", To: "vo_label"},
				{From: "IAO_0000115", To: "vo_definition"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Mapped)

		node, err := store.GetNode(ctx, "Experiment", "exp_1")
		require.NoError(t, err)
		assert.Equal(t, "http://purl.obolibrary.org/obo/VO_0000001", node.Properties["vo_representation_uri"])
		assert.Equal(t, "vaccine", node.Properties["vo_label"])
		assert.Equal(t, "A preparation that improves immunity.", node.Properties["vo_definition"])
	})
}

func TestMemoryStoreRenameResourceProperties(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	srv := newOntologyServer(t, testOntologyDoc)

	_, err := store.ImportOntology(ctx, srv.URL, "RDF/XML")
	require.NoError(t, err)

	renames := []schemas.PropertyRename{
		{From: "IAO_0000115", To: "definition"},
	}
	require.NoError(t, store.RenameResourceProperties(ctx, renames))

	node, err := store.GetNode(ctx, ResourceLabel, "http://purl.obolibrary.org/obo/VO_0000001")
	require.NoError(t, err)
	assert.Equal(t, "A preparation that improves immunity.", node.Properties["definition"])
	assert.NotContains(t, node.Properties, "IAO_0000115")

	// Nodes without the coded property are untouched; a second pass is a no-op.
	require.NoError(t, store.RenameResourceProperties(ctx, renames))
	node, err = store.GetNode(ctx, ResourceLabel, "http://purl.obolibrary.org/obo/VO_0000001")
	require.NoError(t, err)
	assert.Equal(t, "A preparation that improves immunity.", node.Properties["definition"])
}

func TestUriTailHelpers(t *testing.T) {
	assert.Equal(t, "VO_0000001", uriTail("http://purl.obolibrary.org/obo/VO_0000001"))
	assert.Equal(t, "bare", uriTail("bare"))

	assert.Equal(t, "VO_0000001", candidateKey("mat_VO_0000001", "mat_"))
	assert.Equal(t, "other", candidateKey("other", "mat_"))
	assert.Equal(t, "value", candidateKey("value", ""))

	assert.True(t, keyMatches("NCBITaxon:9606", "NCBITaxon_9606", true))
	assert.False(t, keyMatches("NCBITaxon:9606", "NCBITaxon_9606", false))
	assert.True(t, keyMatches("VO_0000001", "VO_0000001", false))
}
