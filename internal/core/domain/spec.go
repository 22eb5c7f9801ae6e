package domain

import (
	"unicode"
	"unicode/utf8"
)

// Element names used by result-view specification documents.
const (
	ElementView       = "view"
	ElementBlock      = "block"
	ElementData       = "data"
	ElementSource     = "source"
	ElementParsers    = "parsers"
	ElementParser     = "parser"
	ElementParameter  = "parameter"
	ElementProcessors = "processors"
	ElementProcessor  = "processor"
)

// Attribute names with fixed meaning in specification documents.
const (
	AttrID    = "id"
	AttrType  = "type"
	AttrName  = "name"
	AttrValue = "value"
)

// Attr is one named attribute of a SpecNode.
type Attr struct {
	Name  string
	Value string
}

// SpecNode is one element of a specification document.
// Attributes and children keep document order. Nodes are treated
// as read-only once a loader has produced them.
type SpecNode struct {
	Name     string
	Attrs    []Attr
	Children []*SpecNode
}

// NewSpecNode creates a node with the given attributes in order.
func NewSpecNode(name string, attrs ...Attr) *SpecNode {
	return &SpecNode{Name: name, Attrs: attrs}
}

// Append adds children and returns the node for chaining.
func (n *SpecNode) Append(children ...*SpecNode) *SpecNode {
	n.Children = append(n.Children, children...)
	return n
}

// Attr returns the value of the named attribute.
func (n *SpecNode) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attributes returns a copy of the node's attributes, optionally
// leaving out the named ones.
func (n *SpecNode) Attributes(exclude ...string) []Attr {
	if n == nil {
		return nil
	}
	out := make([]Attr, 0, len(n.Attrs))
	for _, a := range n.Attrs {
		if containsString(exclude, a.Name) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Child returns the first direct child with the given name.
func (n *SpecNode) Child(name string) *SpecNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given name.
func (n *SpecNode) ChildrenNamed(name string) []*SpecNode {
	if n == nil {
		return nil
	}
	var out []*SpecNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns every node below n with the given name in document
// order. Subtrees rooted at an element named in skip are not entered.
func (n *SpecNode) Descendants(name string, skip ...string) []*SpecNode {
	if n == nil {
		return nil
	}
	var out []*SpecNode
	var walk func(*SpecNode)
	walk = func(node *SpecNode) {
		for _, c := range node.Children {
			if c.Name == name {
				out = append(out, c)
			}
			if containsString(skip, c.Name) {
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// FirstDescendant returns the first node below n with the given name.
func (n *SpecNode) FirstDescendant(name string) *SpecNode {
	found := n.Descendants(name)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// ViewSpec returns the view element with the given id.
func ViewSpec(doc *SpecNode, id string) *SpecNode {
	return findByID(doc, ElementView, id)
}

// BlockSpec returns the block element with the given id.
func BlockSpec(doc *SpecNode, id string) *SpecNode {
	return findByID(doc, ElementBlock, id)
}

// BlockSpecs returns every block element of the document.
func BlockSpecs(doc *SpecNode) []*SpecNode {
	return selfOrDescendants(doc, ElementBlock)
}

// DataSpec returns the data element of a block.
func DataSpec(block *SpecNode) *SpecNode {
	return block.FirstDescendant(ElementData)
}

// SourceSpec returns the source element of a data element.
func SourceSpec(data *SpecNode) *SpecNode {
	return data.FirstDescendant(ElementSource)
}

// ParserSpecs returns the parser stages of a data element in order.
func ParserSpecs(data *SpecNode) []*SpecNode {
	parsers := data.FirstDescendant(ElementParsers)
	if parsers == nil {
		return nil
	}
	return parsers.Descendants(ElementParser)
}

// ParameterSpecs returns the parameter elements of a parser, ignoring
// any that belong to its processors.
func ParameterSpecs(parser *SpecNode) []*SpecNode {
	return parser.Descendants(ElementParameter, ElementProcessor, ElementProcessors)
}

// ProcessorSpecs returns the processor elements below a node.
func ProcessorSpecs(node *SpecNode) []*SpecNode {
	return node.Descendants(ElementProcessor)
}

// GlobalProcessorSpecs returns the processors declared for a whole data
// element, outside any parser.
func GlobalProcessorSpecs(data *SpecNode) []*SpecNode {
	return ProcessorSpecs(data.Child(ElementProcessors))
}

func findByID(doc *SpecNode, name, id string) *SpecNode {
	for _, node := range selfOrDescendants(doc, name) {
		if v, ok := node.Attr(AttrID); ok && v == id {
			return node
		}
	}
	return nil
}

func selfOrDescendants(doc *SpecNode, name string) []*SpecNode {
	if doc == nil {
		return nil
	}
	found := doc.Descendants(name)
	if doc.Name == name {
		found = append([]*SpecNode{doc}, found...)
	}
	return found
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// UpperFirst upper-cases the first letter of a type or property tag.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst lower-cases the first letter of a property name, so that
// "sortBy" and "SortBy" select the same property.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
