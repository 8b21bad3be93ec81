package graphstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"go.uber.org/zap"
)

// MemoryStore provides a fast, ephemeral, in-memory implementation of the
// Store interface. It's great for tests, dry runs, or validating input data
// without a database. Ontology import is performed client-side.
type MemoryStore struct {
	nodes       map[string]map[string]schemas.Properties // label -> key -> properties
	edges       map[schemas.Edge]struct{}
	constraints map[string]string // label -> unique key property
	httpClient  *http.Client
	mu          sync.RWMutex
	log         *zap.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new, empty in-memory graph store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		nodes:       make(map[string]map[string]schemas.Properties),
		edges:       make(map[schemas.Edge]struct{}),
		constraints: make(map[string]string),
		httpClient:  http.DefaultClient,
		log:         logger.Named("MemoryStore"),
	}
}

// SetHTTPClient overrides the client used for ontology fetches. Intended for
// tests that serve the ontology from a local fixture server.
func (s *MemoryStore) SetHTTPClient(client *http.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpClient = client
}

// EnsureUniqueConstraint records the key property for a label. Uniqueness is
// structural here (nodes live in a map keyed by label and key), so re-running
// is always safe.
func (s *MemoryStore) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	if err := validateIdents(label, property); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.constraints[label] = property
	s.log.Debug("Uniqueness constraint recorded",
		zap.String("label", label), zap.String("property", property))
	return nil
}

func (s *MemoryStore) UpsertNode(ctx context.Context, label, keyProperty, key string, props schemas.Properties) error {
	if err := validateIdents(label, keyProperty); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.nodes[label]
	if !ok {
		byKey = make(map[string]schemas.Properties)
		s.nodes[label] = byKey
	}
	existing, ok := byKey[key]
	if !ok {
		existing = schemas.Properties{keyProperty: key}
		byKey[key] = existing
	}
	// Merge semantics: incoming properties overlay the node, untouched keys
	// survive.
	for k, v := range props {
		existing[k] = v
	}
	return nil
}

func (s *MemoryStore) CountNodes(ctx context.Context, label string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.nodes[label])), nil
}

// GetNode returns a copy of one node. Intended for tests and inspection.
func (s *MemoryStore) GetNode(ctx context.Context, label, key string) (schemas.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	props, ok := s.nodes[label][key]
	if !ok {
		return schemas.Node{}, fmt.Errorf("node %s:%s not found", label, key)
	}
	copied := make(schemas.Properties, len(props))
	for k, v := range props {
		copied[k] = v
	}
	return schemas.Node{Label: label, Key: key, Properties: copied}, nil
}

// HasEdge reports whether the exact edge exists.
func (s *MemoryStore) HasEdge(edge schemas.Edge) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[edge]
	return ok
}

// EdgeCount returns the total number of distinct edges.
func (s *MemoryStore) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

func (s *MemoryStore) Link(ctx context.Context, rule schemas.LinkRule) (int64, error) {
	if err := validateIdents(rule.FromLabel, rule.FromField, rule.ToLabel, rule.ToField, rule.Relationship); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var pairs int64
	for fromKey, fromProps := range s.nodes[rule.FromLabel] {
		joinValue := stringValue(fromProps[rule.FromField])
		if joinValue == "" {
			continue
		}
		for toKey, toProps := range s.nodes[rule.ToLabel] {
			if stringValue(toProps[rule.ToField]) != joinValue {
				continue
			}
			s.edges[schemas.Edge{
				FromLabel: rule.FromLabel,
				FromKey:   fromKey,
				Type:      rule.Relationship,
				ToLabel:   rule.ToLabel,
				ToKey:     toKey,
			}] = struct{}{}
			pairs++
		}
	}
	return pairs, nil
}

func (s *MemoryStore) ApplyPrefix(ctx context.Context, label string, rule schemas.PrefixRule) (int64, error) {
	if err := validateIdents(label, rule.Field); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, props := range s.nodes[label] {
		raw, ok := props[rule.Field]
		if !ok {
			continue
		}
		value := stringValue(raw)
		if value == "" || strings.HasPrefix(value, rule.Prefix) {
			continue
		}
		props[rule.Field] = rule.Prefix + value
		updated++
	}
	return updated, nil
}

func (s *MemoryStore) ImportOntology(ctx context.Context, url, format string) (schemas.ImportStats, error) {
	s.mu.RLock()
	client := s.httpClient
	s.mu.RUnlock()

	resources, triples, err := fetchResources(ctx, client, url, format)
	if err != nil {
		return schemas.ImportStats{}, err
	}
	for _, node := range resources {
		if err := s.UpsertNode(ctx, node.Label, ResourceURIProperty, node.Key, node.Properties); err != nil {
			return schemas.ImportStats{}, err
		}
	}

	count, _ := s.CountNodes(ctx, ResourceLabel)
	s.log.Info("Ontology imported",
		zap.String("url", url),
		zap.Int64("triples", triples),
		zap.Int64("resources", count))
	return schemas.ImportStats{TriplesParsed: triples, ResourceCount: count}, nil
}

func (s *MemoryStore) MapToResources(ctx context.Context, rule schemas.MappingRule) (schemas.MappingResult, error) {
	if err := validateIdents(rule.Label, rule.Field, rule.Relationship); err != nil {
		return schemas.MappingResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for entityKey, entityProps := range s.nodes[rule.Label] {
		value := stringValue(entityProps[rule.Field])
		if value == "" {
			continue
		}
		candidate := candidateKey(value, rule.Prefix)

		for resourceKey, resourceProps := range s.nodes[ResourceLabel] {
			if !keyMatches(uriTail(resourceKey), candidate, rule.ColonVariant) {
				continue
			}
			s.edges[schemas.Edge{
				FromLabel: rule.Label,
				FromKey:   entityKey,
				Type:      rule.Relationship,
				ToLabel:   ResourceLabel,
				ToKey:     resourceKey,
			}] = struct{}{}
			for _, cp := range rule.CopyProperties {
				if v, ok := resourceProps[cp.From]; ok {
					entityProps[cp.To] = v
				}
			}
		}
	}

	// Recount from the edge set so pre-existing links from earlier runs are
	// reflected, matching what a database query would report.
	mappedKeys := make(map[string]struct{})
	for edge := range s.edges {
		if edge.FromLabel == rule.Label && edge.Type == rule.Relationship && edge.ToLabel == ResourceLabel {
			mappedKeys[edge.FromKey] = struct{}{}
		}
	}
	result := schemas.MappingResult{
		Mapped:   int64(len(mappedKeys)),
		Unmapped: int64(len(s.nodes[rule.Label]) - len(mappedKeys)),
	}
	return result, nil
}

func (s *MemoryStore) RenameResourceProperties(ctx context.Context, renames []schemas.PropertyRename) error {
	for _, rn := range renames {
		if err := validateIdents(rn.From, rn.To); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, props := range s.nodes[ResourceLabel] {
		for _, rn := range renames {
			if v, ok := props[rn.From]; ok {
				props[rn.To] = v
				delete(props, rn.From)
			}
		}
	}
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
