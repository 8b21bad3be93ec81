package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"go.uber.org/zap"
)

// DBPool abstracts the pgxpool.Pool methods the store needs, so tests can
// substitute a mock pool and exercise the SQL without a live database.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Compile-time check that the real pool satisfies the interface.
var _ DBPool = (*pgxpool.Pool)(nil)

// PostgresStore projects the property graph onto two relational tables:
// graph_nodes keyed by (label, key) with a jsonb property bag, and
// graph_edges keyed by the full edge identity. Ontology import is performed
// client-side.
type PostgresStore struct {
	pool       DBPool
	httpClient *http.Client
	schemaOnce sync.Once
	schemaErr  error
	log        *zap.Logger
}

var _ Store = (*PostgresStore)(nil)

const (
	createNodesTableSQL = `
		CREATE TABLE IF NOT EXISTS graph_nodes (
			label      text  NOT NULL,
			key        text  NOT NULL,
			properties jsonb NOT NULL DEFAULT '{}'::jsonb,
			PRIMARY KEY (label, key)
		);`

	createEdgesTableSQL = `
		CREATE TABLE IF NOT EXISTS graph_edges (
			from_label text NOT NULL,
			from_key   text NOT NULL,
			rel_type   text NOT NULL,
			to_label   text NOT NULL,
			to_key     text NOT NULL,
			PRIMARY KEY (from_label, from_key, rel_type, to_label, to_key)
		);`

	upsertNodeSQL = `
		INSERT INTO graph_nodes (label, key, properties)
		VALUES ($1, $2, $3)
		ON CONFLICT (label, key) DO UPDATE
		SET properties = graph_nodes.properties || EXCLUDED.properties;`

	insertEdgeSQL = `
		INSERT INTO graph_edges (from_label, from_key, rel_type, to_label, to_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING;`

	linkSQL = `
		INSERT INTO graph_edges (from_label, from_key, rel_type, to_label, to_key)
		SELECT a.label, a.key, $5, b.label, b.key
		FROM graph_nodes a
		JOIN graph_nodes b
		  ON b.label = $3 AND b.properties->>$4 = a.properties->>$2
		WHERE a.label = $1 AND coalesce(a.properties->>$2, '') <> ''
		ON CONFLICT DO NOTHING;`

	applyPrefixSQL = `
		UPDATE graph_nodes
		SET properties = jsonb_set(properties, ARRAY[$2], to_jsonb($3 || (properties->>$2)))
		WHERE label = $1
		  AND coalesce(properties->>$2, '') <> ''
		  AND left(properties->>$2, length($3)) <> $3;`

	// The candidate key (field value with the type prefix stripped) is
	// compared against the final path segment of the resource URI; $5 also
	// enables the underscore-to-colon variant of the comparison.
	mappingPairsSQL = `
		SELECT e.key, r.key, r.properties
		FROM graph_nodes e
		CROSS JOIN LATERAL (
			SELECT CASE WHEN $3 <> '' AND left(e.properties->>$2, length($3)) = $3
			            THEN substr(e.properties->>$2, length($3) + 1)
			            ELSE e.properties->>$2 END AS candidate
		) c
		JOIN graph_nodes r
		  ON r.label = $4
		 AND (reverse(split_part(reverse(r.key), '/', 1)) = c.candidate
		      OR ($5 AND reverse(split_part(reverse(r.key), '/', 1)) = replace(c.candidate, '_', ':')))
		WHERE e.label = $1 AND coalesce(e.properties->>$2, '') <> '';`

	copyPropertiesSQL = `
		UPDATE graph_nodes
		SET properties = properties || $3
		WHERE label = $1 AND key = $2;`

	unmappedCountSQL = `
		SELECT count(*)
		FROM graph_nodes e
		WHERE e.label = $1 AND NOT EXISTS (
			SELECT 1 FROM graph_edges g
			WHERE g.from_label = e.label AND g.from_key = e.key AND g.rel_type = $2
		);`

	renamePropertySQL = `
		UPDATE graph_nodes
		SET properties = (properties - $2) || jsonb_build_object($3, properties->$2)
		WHERE label = $1 AND properties ? $2;`

	countNodesSQL = `SELECT count(*) FROM graph_nodes WHERE label = $1;`
)

// NewPostgresStore wraps an existing pool. The schema is created lazily on
// first use.
func NewPostgresStore(pool DBPool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{
		pool:       pool,
		httpClient: http.DefaultClient,
		log:        logger.Named("PostgresStore"),
	}
}

// SetHTTPClient overrides the client used for ontology fetches.
func (s *PostgresStore) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		for _, ddl := range []string{createNodesTableSQL, createEdgesTableSQL} {
			if _, err := s.pool.Exec(ctx, ddl); err != nil {
				s.schemaErr = fmt.Errorf("failed to create graph schema: %w", err)
				return
			}
		}
	})
	return s.schemaErr
}

// EnsureUniqueConstraint creates the backing tables if needed. Uniqueness per
// (label, key) is enforced by the primary key, so per-label constraints need
// no dedicated DDL.
func (s *PostgresStore) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	if err := validateIdents(label, property); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	s.log.Debug("Uniqueness constraint covered by primary key",
		zap.String("label", label), zap.String("property", property))
	return nil
}

func (s *PostgresStore) UpsertNode(ctx context.Context, label, keyProperty, key string, props schemas.Properties) error {
	if err := validateIdents(label, keyProperty); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	merged := make(schemas.Properties, len(props)+1)
	for k, v := range props {
		merged[k] = v
	}
	merged[keyProperty] = key

	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to marshal node properties: %w", err)
	}
	_, err = s.pool.Exec(ctx, upsertNodeSQL, label, key, payload)
	return err
}

func (s *PostgresStore) CountNodes(ctx context.Context, label string) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	var count int64
	if err := s.pool.QueryRow(ctx, countNodesSQL, label).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *PostgresStore) Link(ctx context.Context, rule schemas.LinkRule) (int64, error) {
	if err := validateIdents(rule.FromLabel, rule.FromField, rule.ToLabel, rule.ToField, rule.Relationship); err != nil {
		return 0, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, linkSQL,
		rule.FromLabel, rule.FromField, rule.ToLabel, rule.ToField, rule.Relationship)
	if err != nil {
		return 0, fmt.Errorf("link %s failed: %w", rule.Name, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ApplyPrefix(ctx context.Context, label string, rule schemas.PrefixRule) (int64, error) {
	if err := validateIdents(label, rule.Field); err != nil {
		return 0, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, applyPrefixSQL, label, rule.Field, rule.Prefix)
	if err != nil {
		return 0, fmt.Errorf("prefix rewrite of %s.%s failed: %w", label, rule.Field, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ImportOntology(ctx context.Context, url, format string) (schemas.ImportStats, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return schemas.ImportStats{}, err
	}
	resources, triples, err := fetchResources(ctx, s.httpClient, url, format)
	if err != nil {
		return schemas.ImportStats{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return schemas.ImportStats{}, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, node := range resources {
		payload, err := json.Marshal(node.Properties)
		if err != nil {
			return schemas.ImportStats{}, fmt.Errorf("failed to marshal resource properties: %w", err)
		}
		if _, err := tx.Exec(ctx, upsertNodeSQL, node.Label, node.Key, payload); err != nil {
			return schemas.ImportStats{}, fmt.Errorf("failed to upsert resource %s: %w", node.Key, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return schemas.ImportStats{}, fmt.Errorf("failed to commit import transaction: %w", err)
	}

	count, err := s.CountNodes(ctx, ResourceLabel)
	if err != nil {
		return schemas.ImportStats{}, err
	}
	s.log.Info("Ontology imported",
		zap.String("url", url),
		zap.Int64("triples", triples),
		zap.Int64("resources", count))
	return schemas.ImportStats{TriplesParsed: triples, ResourceCount: count}, nil
}

// mappedPair is one (entity, resource) match produced by a mapping rule.
type mappedPair struct {
	entityKey     string
	resourceKey   string
	resourceProps []byte
}

func (s *PostgresStore) MapToResources(ctx context.Context, rule schemas.MappingRule) (schemas.MappingResult, error) {
	if err := validateIdents(rule.Label, rule.Field, rule.Relationship); err != nil {
		return schemas.MappingResult{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return schemas.MappingResult{}, err
	}

	rows, err := s.pool.Query(ctx, mappingPairsSQL,
		rule.Label, rule.Field, rule.Prefix, ResourceLabel, rule.ColonVariant)
	if err != nil {
		return schemas.MappingResult{}, fmt.Errorf("mapping %s.%s failed: %w", rule.Label, rule.Field, err)
	}

	var pairs []mappedPair
	for rows.Next() {
		var p mappedPair
		if err := rows.Scan(&p.entityKey, &p.resourceKey, &p.resourceProps); err != nil {
			rows.Close()
			return schemas.MappingResult{}, err
		}
		pairs = append(pairs, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return schemas.MappingResult{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return schemas.MappingResult{}, fmt.Errorf("failed to begin mapping transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	mapped := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if _, err := tx.Exec(ctx, insertEdgeSQL,
			rule.Label, p.entityKey, rule.Relationship, ResourceLabel, p.resourceKey); err != nil {
			return schemas.MappingResult{}, fmt.Errorf("failed to insert mapping edge: %w", err)
		}
		mapped[p.entityKey] = struct{}{}

		if len(rule.CopyProperties) == 0 {
			continue
		}
		var resourceProps schemas.Properties
		if err := json.Unmarshal(p.resourceProps, &resourceProps); err != nil {
			return schemas.MappingResult{}, fmt.Errorf("failed to unmarshal resource properties: %w", err)
		}
		delta := make(schemas.Properties, len(rule.CopyProperties))
		for _, cp := range rule.CopyProperties {
			if v, ok := resourceProps[cp.From]; ok {
				delta[cp.To] = v
			}
		}
		if len(delta) == 0 {
			continue
		}
		payload, err := json.Marshal(delta)
		if err != nil {
			return schemas.MappingResult{}, fmt.Errorf("failed to marshal property copies: %w", err)
		}
		if _, err := tx.Exec(ctx, copyPropertiesSQL, rule.Label, p.entityKey, payload); err != nil {
			return schemas.MappingResult{}, fmt.Errorf("failed to copy resource properties: %w", err)
		}
	}

	var unmapped int64
	if err := tx.QueryRow(ctx, unmappedCountSQL, rule.Label, rule.Relationship).Scan(&unmapped); err != nil {
		return schemas.MappingResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return schemas.MappingResult{}, fmt.Errorf("failed to commit mapping transaction: %w", err)
	}

	return schemas.MappingResult{Mapped: int64(len(mapped)), Unmapped: unmapped}, nil
}

func (s *PostgresStore) RenameResourceProperties(ctx context.Context, renames []schemas.PropertyRename) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	for _, rn := range renames {
		if err := validateIdents(rn.From, rn.To); err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, renamePropertySQL, ResourceLabel, rn.From, rn.To); err != nil {
			return fmt.Errorf("failed to rename resource property %s: %w", rn.From, err)
		}
	}
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
