// Package xmlspec reads result-view specification documents written as XML.
package xmlspec

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.SpecLoader = (*Loader)(nil)

// Loader parses XML specification files.
type Loader struct{}

// New creates an XML specification loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the document at path.
func (l *Loader) Load(path string) (*domain.SpecNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, path, err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse builds the element tree of an XML document. Namespaces are
// dropped; attributes and children keep document order. Text content
// is ignored.
func Parse(r io.Reader) (*domain.SpecNode, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var root *domain.SpecNode
	var stack []*domain.SpecNode
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSpecification, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := domain.NewSpecNode(t.Name.Local)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				node.Attrs = append(node.Attrs, domain.Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: more than one root element", domain.ErrSpecification)
				}
				root = node
			} else {
				stack[len(stack)-1].Append(node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", domain.ErrSpecification)
	}
	return root, nil
}

// charsetReader decodes documents declaring a non-UTF-8 encoding, such as
// the ISO-8859-1 declared by most existing result-view files.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
