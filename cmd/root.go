package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sea-cdm/OSEAN-KG/internal/config"
	"github.com/sea-cdm/OSEAN-KG/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:          "osean-kg",
	Short:        "Imports experimental submissions and the vaccine ontology into a knowledge graph.",
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1. Initialize configuration loading (Viper).
		if err := initializeConfig(); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		// 2. Unmarshal the configuration.
		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}

		// 3. Validate the configuration.
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// 4. Store the configuration globally.
		config.Set(&cfg)

		// 5. Initialize the logger.
		observability.InitializeLogger(cfg.Logger)
		logger := observability.GetLogger()
		logger.Info("Starting osean-kg",
			zap.String("version", Version),
			zap.String("backend", cfg.Graph.Backend))

		return nil
	},
}

// Execute runs the root command with a context from main.go, so a signal
// cancels any in-flight pipeline phase.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() == nil {
			// Config failures happen before the logger exists; stderr is
			// the reliable channel here.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(ontologyCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeConfig reads the config file and OSEAN_-prefixed environment
// variables. A .env file in the working directory is honored for local runs.
func initializeConfig() error {
	_ = godotenv.Load()

	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("OSEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind the connection settings. Keys without a default or a
	// config-file entry are otherwise invisible to Unmarshal.
	_ = v.BindEnv("neo4j.password", "OSEAN_NEO4J_PASSWORD")
	_ = v.BindEnv("neo4j.database", "OSEAN_NEO4J_DATABASE")
	_ = v.BindEnv("postgres.url", "OSEAN_POSTGRES_URL")

	if err := v.ReadInConfig(); err != nil {
		// Running on defaults and environment alone is supported; only an
		// explicitly named file must exist.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}
