package graphstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"github.com/sea-cdm/OSEAN-KG/internal/config"
	"go.uber.org/zap"
)

// Neo4jStore is the production backend. Ontology import is delegated to the
// n10s (neosemantics) server plugin, which fetches and parses the RDF
// document inside the database.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.Logger
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore connects to the configured Neo4j instance and verifies the
// connection before returning.
func NewNeo4jStore(ctx context.Context, cfg config.Neo4jConfig, logger *zap.Logger) (*Neo4jStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver for %s: %w", cfg.URI, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach neo4j at %s: %w", cfg.URI, err)
	}
	return &Neo4jStore{
		driver:   driver,
		database: cfg.Database,
		log:      logger.Named("Neo4jStore"),
	}, nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
}

// run executes a statement and discards any records.
func (s *Neo4jStore) run(ctx context.Context, query string, params map[string]any) error {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// runCount executes a statement returning a single record and extracts the
// named integer column.
func (s *Neo4jStore) runCount(ctx context.Context, query string, params map[string]any, column string) (int64, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	value, ok := record.Get(column)
	if !ok {
		return 0, fmt.Errorf("result record is missing column %q", column)
	}
	count, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("column %q is %T, expected an integer", column, value)
	}
	return count, nil
}

func (s *Neo4jStore) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	query, err := uniqueConstraintCypher(label, property)
	if err != nil {
		return err
	}
	if err := s.run(ctx, query, nil); err != nil {
		// IF NOT EXISTS makes a clean re-run silent, but an equivalent
		// constraint created under a different name still errors. Existing
		// uniqueness is the desired state either way.
		if isConstraintExists(err) {
			s.log.Info("Uniqueness constraint already present",
				zap.String("label", label), zap.String("property", property))
			return nil
		}
		return fmt.Errorf("failed to ensure constraint on %s.%s: %w", label, property, err)
	}
	return nil
}

func (s *Neo4jStore) UpsertNode(ctx context.Context, label, keyProperty, key string, props schemas.Properties) error {
	query, err := upsertNodeCypher(label, keyProperty)
	if err != nil {
		return err
	}
	return s.run(ctx, query, map[string]any{"key": key, "props": map[string]any(props)})
}

func (s *Neo4jStore) CountNodes(ctx context.Context, label string) (int64, error) {
	query, err := countNodesCypher(label)
	if err != nil {
		return 0, err
	}
	return s.runCount(ctx, query, nil, "total")
}

func (s *Neo4jStore) Link(ctx context.Context, rule schemas.LinkRule) (int64, error) {
	query, err := linkCypher(rule)
	if err != nil {
		return 0, err
	}
	pairs, err := s.runCount(ctx, query, nil, "pairs")
	if err != nil {
		return 0, fmt.Errorf("link %s failed: %w", rule.Name, err)
	}
	return pairs, nil
}

func (s *Neo4jStore) ApplyPrefix(ctx context.Context, label string, rule schemas.PrefixRule) (int64, error) {
	query, err := applyPrefixCypher(label, rule.Field)
	if err != nil {
		return 0, err
	}
	return s.runCount(ctx, query, map[string]any{"prefix": rule.Prefix}, "updated")
}

// ImportOntology prepares the n10s graph config and triggers a server-side
// fetch of the ontology document. The previous graph config is removed first;
// n10s refuses to initialize over a live one.
func (s *Neo4jStore) ImportOntology(ctx context.Context, url, format string) (schemas.ImportStats, error) {
	if err := s.run(ctx, resourceConstraintCypher, nil); err != nil {
		if !isConstraintExists(err) {
			return schemas.ImportStats{}, fmt.Errorf("failed to create resource uniqueness constraint: %w", err)
		}
		s.log.Info("Resource uniqueness constraint already present")
	}

	if err := s.run(ctx, resetGraphConfigCypher, nil); err != nil {
		return schemas.ImportStats{}, fmt.Errorf("failed to reset n10s graph config: %w", err)
	}
	if err := s.run(ctx, initGraphConfigCypher, nil); err != nil {
		return schemas.ImportStats{}, fmt.Errorf("failed to initialize n10s graph config: %w", err)
	}

	triples, err := s.runCount(ctx, importFetchCypher, map[string]any{"url": url, "format": format}, "triplesParsed")
	if err != nil {
		return schemas.ImportStats{}, fmt.Errorf("ontology fetch from %s failed: %w", url, err)
	}

	resources, err := s.CountNodes(ctx, ResourceLabel)
	if err != nil {
		return schemas.ImportStats{}, err
	}
	return schemas.ImportStats{TriplesParsed: triples, ResourceCount: resources}, nil
}

func (s *Neo4jStore) MapToResources(ctx context.Context, rule schemas.MappingRule) (schemas.MappingResult, error) {
	query, params, err := mapToResourcesCypher(rule)
	if err != nil {
		return schemas.MappingResult{}, err
	}
	mapped, err := s.runCount(ctx, query, params, "mapped")
	if err != nil {
		return schemas.MappingResult{}, fmt.Errorf("mapping %s.%s failed: %w", rule.Label, rule.Field, err)
	}

	unmappedQuery, err := unmappedCountCypher(rule.Label, rule.Relationship)
	if err != nil {
		return schemas.MappingResult{}, err
	}
	unmapped, err := s.runCount(ctx, unmappedQuery, nil, "unmapped")
	if err != nil {
		return schemas.MappingResult{}, err
	}
	return schemas.MappingResult{Mapped: mapped, Unmapped: unmapped}, nil
}

func (s *Neo4jStore) RenameResourceProperties(ctx context.Context, renames []schemas.PropertyRename) error {
	if len(renames) == 0 {
		return nil
	}
	setQuery, removeQuery, err := renameResourcePropertiesCypher(renames)
	if err != nil {
		return err
	}
	if err := s.run(ctx, setQuery, nil); err != nil {
		return fmt.Errorf("failed to copy readable resource properties: %w", err)
	}
	if err := s.run(ctx, removeQuery, nil); err != nil {
		return fmt.Errorf("failed to remove coded resource properties: %w", err)
	}
	return nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// isConstraintExists recognizes the server errors raised when a uniqueness
// constraint (or an equivalent one under another name) is already defined.
func isConstraintExists(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "EquivalentSchemaRuleAlreadyExists") ||
		strings.Contains(msg, "ConstraintAlreadyExists") ||
		strings.Contains(msg, "already exists")
}
