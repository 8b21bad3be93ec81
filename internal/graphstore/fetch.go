package graphstore

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/sea-cdm/OSEAN-KG/api/schemas"
	"github.com/sea-cdm/OSEAN-KG/internal/rdfxml"
)

// Backends without a server-side RDF importer fetch and fold the ontology
// themselves. Each named subject in the document becomes one Resource node
// keyed by URI; literal triples become node properties under the short form
// of the predicate IRI.

// fetchResources downloads the ontology document and materializes its
// Resource nodes. Only the RDF/XML serialization is supported client-side.
func fetchResources(ctx context.Context, client *http.Client, url, format string) ([]schemas.Node, int64, error) {
	if !strings.EqualFold(format, "RDF/XML") {
		return nil, 0, fmt.Errorf("unsupported ontology format %q: this backend only parses RDF/XML", format)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build ontology request: %w", err)
	}
	req.Header.Set("Accept", "application/rdf+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("ontology fetch from %s failed: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("ontology fetch from %s returned status %d", url, resp.StatusCode)
	}

	triples, err := rdfxml.Parse(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse ontology document: %w", err)
	}

	return resourcesFromTriples(triples), int64(len(triples)), nil
}

// resourcesFromTriples folds parsed triples into one node per named subject.
// Blank-node subjects (axiom machinery, restrictions) carry no stable URI and
// are dropped. When a subject repeats a literal property the first value
// wins. IRI-valued triples describe structure between resources and do not
// become properties.
func resourcesFromTriples(triples []rdfxml.Triple) []schemas.Node {
	byURI := make(map[string]schemas.Properties)
	for _, t := range triples {
		if rdfxml.IsBlank(t.Subject) {
			continue
		}
		props, ok := byURI[t.Subject]
		if !ok {
			props = schemas.Properties{ResourceURIProperty: t.Subject}
			byURI[t.Subject] = props
		}
		if t.IsIRI {
			continue
		}
		key := rdfxml.LocalName(t.Predicate)
		if key == "" {
			continue
		}
		if _, exists := props[key]; !exists {
			props[key] = t.Object
		}
	}

	nodes := make([]schemas.Node, 0, len(byURI))
	for uri, props := range byURI {
		nodes = append(nodes, schemas.Node{Label: ResourceLabel, Key: uri, Properties: props})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Key < nodes[j].Key })
	return nodes
}
