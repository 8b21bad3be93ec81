package cmd

import (
	"github.com/sea-cdm/OSEAN-KG/internal/config"
	"github.com/sea-cdm/OSEAN-KG/internal/observability"
	"github.com/sea-cdm/OSEAN-KG/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loadDataDir string

// loadCmd runs only the entity phases: constraints, CSV load, linking.
// Useful when iterating on submission data before the ontology passes.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load and link the entity CSV files without touching the ontology",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if loadDataDir != "" {
			cfg.Data.BaseDir = loadDataDir
		}
		logger := observability.GetLogger()

		store, err := newStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(cmd.Context()); err != nil {
				logger.Warn("Failed to close graph store", zap.Error(err))
			}
		}()

		summary, err := pipeline.New(store, cfg, logger).LoadOnly(cmd.Context())
		if err != nil {
			return err
		}
		logSummary(logger, summary)
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadDataDir, "data-dir", "", "directory holding the entity CSV files (overrides data.base_dir)")
}
