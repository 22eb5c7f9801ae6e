// Package yamlspec reads result-view specification documents written as YAML.
//
// A document is a mapping with one root element. Inside an element,
// scalar values are attributes; mappings are child elements named by
// their key, and lists of mappings are repeated child elements:
//
//	result:
//	  block:
//	    - id: psms
//	      data:
//	        source: {type: file, name: psms}
//	        parsers:
//	          parser:
//	            - {type: sortedTabular, sortBy: score}
//	            - {type: SQLite}
//
// Keys keep document order.
package yamlspec

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.SpecLoader = (*Loader)(nil)

// Loader parses YAML specification files.
type Loader struct{}

// New creates a YAML specification loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the document at path.
func (l *Loader) Load(path string) (*domain.SpecNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse builds the element tree of a YAML document.
func Parse(data []byte) (*domain.SpecNode, error) {
	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSpecification, err)
	}

	root, ok := doc.(yaml.MapSlice)
	if !ok || len(root) != 1 {
		return nil, fmt.Errorf("%w: document must be a mapping with exactly one root element", domain.ErrSpecification)
	}
	nodes, err := elements(keyString(root[0].Key), root[0].Value)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("%w: root element must not be a list", domain.ErrSpecification)
	}
	return nodes[0], nil
}

// elements converts the value of an element key into one node per occurrence.
func elements(name string, value any) ([]*domain.SpecNode, error) {
	switch v := value.(type) {
	case nil:
		return []*domain.SpecNode{domain.NewSpecNode(name)}, nil
	case yaml.MapSlice:
		node, err := element(name, v)
		if err != nil {
			return nil, err
		}
		return []*domain.SpecNode{node}, nil
	case []any:
		nodes := make([]*domain.SpecNode, 0, len(v))
		for i, item := range v {
			var body yaml.MapSlice
			switch it := item.(type) {
			case nil:
			case yaml.MapSlice:
				body = it
			default:
				return nil, fmt.Errorf("%w: item %d of %q must be a mapping", domain.ErrSpecification, i+1, name)
			}
			node, err := element(name, body)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
		return nodes, nil
	default:
		return nil, fmt.Errorf("%w: element %q must be a mapping or a list of mappings", domain.ErrSpecification, name)
	}
}

func element(name string, body yaml.MapSlice) (*domain.SpecNode, error) {
	node := domain.NewSpecNode(name)
	for _, item := range body {
		key := keyString(item.Key)
		switch v := item.Value.(type) {
		case nil, yaml.MapSlice, []any:
			children, err := elements(key, v)
			if err != nil {
				return nil, err
			}
			node.Append(children...)
		default:
			node.Attrs = append(node.Attrs, domain.Attr{Name: key, Value: scalarString(v)})
		}
	}
	return node, nil
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
