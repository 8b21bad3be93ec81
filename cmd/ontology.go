package cmd

import (
	"github.com/sea-cdm/OSEAN-KG/internal/config"
	"github.com/sea-cdm/OSEAN-KG/internal/observability"
	"github.com/sea-cdm/OSEAN-KG/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ontologyURL string

// ontologyCmd runs only the ontology phases against an already-loaded graph:
// import, identifier normalization, domain mapping, property humanizing.
var ontologyCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Import the ontology and map loaded entities onto it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if ontologyURL != "" {
			cfg.Ontology.URL = ontologyURL
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

		summary, err := pipeline.New(store, cfg, logger).OntologyOnly(cmd.Context())
		if err != nil {
			return err
		}
		logSummary(logger, summary)
		return nil
	},
}

func init() {
	ontologyCmd.Flags().StringVar(&ontologyURL, "url", "", "ontology document URL (overrides ontology.url)")
}
