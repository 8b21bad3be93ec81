// The application's root configuration: graph store connection, input data
// locations, and the ontology source.
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Supported graph store backends.
const (
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Data     DataConfig     `mapstructure:"data"`
	Ontology OntologyConfig `mapstructure:"ontology"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" json:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" json:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" json:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" json:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// GraphConfig selects which graph store backend the pipeline writes to.
type GraphConfig struct {
	Backend string `mapstructure:"backend"`
}

// Neo4jConfig holds the connection settings for the Neo4j backend.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// PostgresConfig holds settings for the Postgres backend.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// DataConfig locates the tabular input files.
type DataConfig struct {
	// BaseDir is the directory holding one delimited file per entity type.
	BaseDir string `mapstructure:"base_dir"`
}

// OntologyConfig locates the remote OWL document.
type OntologyConfig struct {
	URL    string `mapstructure:"url"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values so the app can run with a minimal config.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "osean-kg")
	v.SetDefault("graph.backend", BackendNeo4j)
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("data.base_dir", "./data")
	v.SetDefault("ontology.url", "https://raw.githubusercontent.com/vaccineontology/VO/v2025-02-26/vo.owl")
	v.SetDefault("ontology.format", "RDF/XML")
}

// Validate checks that the selected backend has the settings it needs.
func (c *Config) Validate() error {
	switch c.Graph.Backend {
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri is a required configuration field")
		}
		if c.Neo4j.Username == "" || c.Neo4j.Password == "" {
			return fmt.Errorf("neo4j.username and neo4j.password are required configuration fields (hint: check OSEAN_NEO4J_PASSWORD)")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres.url is a required configuration field (hint: check OSEAN_POSTGRES_URL)")
		}
	case BackendMemory:
		// Nothing to verify; the in-memory store needs no connection settings.
	default:
		return fmt.Errorf("graph.backend must be one of %q, %q or %q, got %q",
			BackendNeo4j, BackendPostgres, BackendMemory, c.Graph.Backend)
	}

	if c.Data.BaseDir == "" {
		return fmt.Errorf("data.base_dir is a required configuration field")
	}
	if c.Ontology.URL == "" {
		return fmt.Errorf("ontology.url is a required configuration field")
	}
	return nil
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Set stores a fully-built configuration as the global instance. Intended for
// the root command and for tests.
func Set(cfg *Config) {
	instance = cfg
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
