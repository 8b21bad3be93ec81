package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sea-cdm/OSEAN-KG/internal/graphstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSubmission creates a minimal but complete submission directory: every
// entity file exists, most with just a header row.
func writeSubmission(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for _, table := range Tables {
		content, ok := overrides[table.File]
		if !ok {
			header := table.KeyColumn
			content = header + "\n"
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, table.File), []byte(content), 0o644))
	}
	return dir
}

func TestLoaderEnsureConstraints(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore(nil)
	loader := NewLoader(store, t.TempDir(), nil)

	require.NoError(t, loader.EnsureConstraints(ctx))
	// Re-running is harmless.
	require.NoError(t, loader.EnsureConstraints(ctx))
}

func TestLoaderLoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("loads rows and fills missing columns with empty values", func(t *testing.T) {
		store := graphstore.NewMemoryStore(nil)
		dir := writeSubmission(t, map[string]string{
			"study.csv": "study_id,study_name,unknown_extra\n" +
				"std_001,Influenza challenge,ignored\n" +
				"std_002,Booster response,ignored\n",
		})

		summary, err := NewLoader(store, dir, nil).LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.Rows["Study"])
		assert.Equal(t, int64(0), summary.Rows["Assay"])

		node, err := store.GetNode(ctx, "Study", "std_001")
		require.NoError(t, err)
		assert.Equal(t, "Influenza challenge", node.Properties["study_name"])
		// Declared but absent columns land as empty strings.
		assert.Equal(t, "", node.Properties["study_type"])
		// Undeclared columns do not leak into the node.
		assert.NotContains(t, node.Properties, "unknown_extra")
	})

	t.Run("repeated keys merge into one node", func(t *testing.T) {
		store := graphstore.NewMemoryStore(nil)
		dir := writeSubmission(t, map[string]string{
			"study.csv": "study_id,study_name\nstd_001,First\nstd_001,Second\n",
		})

		summary, err := NewLoader(store, dir, nil).LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.Rows["Study"])

		count, err := store.CountNodes(ctx, "Study")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		node, err := store.GetNode(ctx, "Study", "std_001")
		require.NoError(t, err)
		assert.Equal(t, "Second", node.Properties["study_name"])
	})

	t.Run("rows with empty keys are skipped", func(t *testing.T) {
		store := graphstore.NewMemoryStore(nil)
		dir := writeSubmission(t, map[string]string{
			"study.csv": "study_id,study_name\n,orphan row\nstd_001,Kept\n",
		})

		summary, err := NewLoader(store, dir, nil).LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.Rows["Study"])
		assert.Equal(t, int64(1), summary.Skipped)
	})

	t.Run("ragged rows are tolerated", func(t *testing.T) {
		store := graphstore.NewMemoryStore(nil)
		dir := writeSubmission(t, map[string]string{
			"study.csv": "study_id,study_name,study_type\nstd_001,Short row\n",
		})

		_, err := NewLoader(store, dir, nil).LoadAll(ctx)
		require.NoError(t, err)
		node, err := store.GetNode(ctx, "Study", "std_001")
		require.NoError(t, err)
		assert.Equal(t, "", node.Properties["study_type"])
	})

	t.Run("missing file aborts the load", func(t *testing.T) {
		store := graphstore.NewMemoryStore(nil)
		dir := writeSubmission(t, nil)
		require.NoError(t, os.Remove(filepath.Join(dir, "organism.csv")))

		_, err := NewLoader(store, dir, nil).LoadAll(ctx)
		require.Error(t, err)
		assert.ErrorContains(t, err, "organism.csv")
	})

	t.Run("missing key column is an error", func(t *testing.T) {
		store := graphstore.NewMemoryStore(nil)
		dir := writeSubmission(t, map[string]string{
			"study.csv": "study_name\nNo key here\n",
		})

		_, err := NewLoader(store, dir, nil).LoadAll(ctx)
		require.Error(t, err)
		assert.ErrorContains(t, err, `key column "study_id"`)
	})
}

func TestTableDefinitions(t *testing.T) {
	seenFiles := make(map[string]bool)
	for _, table := range Tables {
		assert.NotEmpty(t, table.Label)
		assert.NotEmpty(t, table.KeyColumn)
		assert.Contains(t, table.Columns, table.KeyColumn,
			"%s: key column must be part of the column contract", table.Label)
		assert.False(t, seenFiles[table.File], "%s: duplicate file %s", table.Label, table.File)
		seenFiles[table.File] = true
	}

	table, ok := TableFor("Result")
	require.True(t, ok)
	assert.Equal(t, "results_id", table.KeyColumn)

	_, ok = TableFor("Nope")
	assert.False(t, ok)
}
