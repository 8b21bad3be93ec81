// Package rdfxml implements a minimal streaming parser for the RDF/XML
// serialization of RDF, sufficient for OWL ontology documents: typed node
// elements, rdf:Description blocks, rdf:about/rdf:ID subjects, rdf:resource
// and rdf:nodeID object references, nested (striped) node elements, and plain
// literal property values.
package rdfxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// TypePredicate is the expanded IRI of rdf:type.
	TypePredicate = rdfNS + "type"
)

// Triple is one parsed RDF statement. Object holds either an IRI/blank-node
// identifier (IsIRI true) or a literal value (IsIRI false).
type Triple struct {
	Subject   string
	Predicate string
	Object    string
	IsIRI     bool
}

// Parser decodes RDF/XML from a stream into triples.
type Parser struct {
	dec    *xml.Decoder
	bnodes int
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{dec: xml.NewDecoder(r)}
}

// Parse consumes the whole document and returns its triples in document order.
func Parse(r io.Reader) ([]Triple, error) {
	return NewParser(r).All()
}

// All reads every top-level node element under rdf:RDF.
func (p *Parser) All() ([]Triple, error) {
	var triples []Triple
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return triples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("rdfxml: malformed document: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space == rdfNS && start.Name.Local == "RDF" {
			continue // descend into the envelope
		}
		_, ts, err := p.parseNode(start)
		if err != nil {
			return nil, err
		}
		triples = append(triples, ts...)
	}
}

// parseNode handles one node element. The element name, unless it is
// rdf:Description, asserts an rdf:type triple. Child elements are property
// arcs off the subject.
func (p *Parser) parseNode(start xml.StartElement) (subject string, triples []Triple, err error) {
	subject = p.subjectOf(start)

	if !(start.Name.Space == rdfNS && start.Name.Local == "Description") {
		triples = append(triples, Triple{
			Subject:   subject,
			Predicate: TypePredicate,
			Object:    expand(start.Name),
			IsIRI:     true,
		})
	}

	// Non-rdf attributes on a node element are shorthand literal properties.
	for _, attr := range start.Attr {
		if attr.Name.Space == rdfNS || attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" || attr.Name.Space == "xml" {
			continue
		}
		triples = append(triples, Triple{
			Subject:   subject,
			Predicate: expand(attr.Name),
			Object:    attr.Value,
		})
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", nil, fmt.Errorf("rdfxml: unterminated node element %s: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			ts, err := p.parseProperty(subject, t)
			if err != nil {
				return "", nil, err
			}
			triples = append(triples, ts...)
		case xml.EndElement:
			return subject, triples, nil
		}
	}
}

// parseProperty handles one property arc element inside a node element.
func (p *Parser) parseProperty(subject string, start xml.StartElement) ([]Triple, error) {
	pred := expand(start.Name)

	// Object given by reference.
	for _, attr := range start.Attr {
		if attr.Name.Space != rdfNS {
			continue
		}
		switch attr.Name.Local {
		case "resource":
			if err := p.dec.Skip(); err != nil {
				return nil, fmt.Errorf("rdfxml: bad property element %s: %w", start.Name.Local, err)
			}
			return []Triple{{Subject: subject, Predicate: pred, Object: attr.Value, IsIRI: true}}, nil
		case "nodeID":
			if err := p.dec.Skip(); err != nil {
				return nil, fmt.Errorf("rdfxml: bad property element %s: %w", start.Name.Local, err)
			}
			return []Triple{{Subject: subject, Predicate: pred, Object: "_:" + attr.Value, IsIRI: true}}, nil
		}
	}

	// Otherwise the content is either a nested node element or a literal.
	var text strings.Builder
	var triples []Triple
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("rdfxml: unterminated property element %s: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			object, nested, err := p.parseNode(t)
			if err != nil {
				return nil, err
			}
			triples = append(triples, Triple{Subject: subject, Predicate: pred, Object: object, IsIRI: true})
			triples = append(triples, nested...)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(triples) == 0 {
				triples = append(triples, Triple{Subject: subject, Predicate: pred, Object: strings.TrimSpace(text.String())})
			}
			return triples, nil
		}
	}
}

// subjectOf resolves the subject identifier of a node element: rdf:about,
// rdf:ID, rdf:nodeID, or a generated blank node for anonymous elements.
func (p *Parser) subjectOf(start xml.StartElement) string {
	for _, attr := range start.Attr {
		if attr.Name.Space != rdfNS {
			continue
		}
		switch attr.Name.Local {
		case "about":
			return attr.Value
		case "ID":
			return "#" + attr.Value
		case "nodeID":
			return "_:" + attr.Value
		}
	}
	p.bnodes++
	return fmt.Sprintf("_:b%d", p.bnodes)
}

// expand turns a namespaced XML name into a full IRI. RDF/XML concatenates
// the namespace IRI and the local part directly.
func expand(name xml.Name) string {
	return name.Space + name.Local
}

// IsBlank reports whether the identifier names a blank node.
func IsBlank(id string) bool {
	return strings.HasPrefix(id, "_:")
}

// LocalName returns the fragment or final path segment of an IRI, the
// conventional short form used as a property key (IAO_0000115 from
// http://purl.obolibrary.org/obo/IAO_0000115).
func LocalName(iri string) string {
	if i := strings.LastIndex(iri, "#"); i >= 0 {
		return iri[i+1:]
	}
	if i := strings.LastIndex(iri, "/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
