// Package processors provides the per-hit processors that can be attached
// to iterable results, a registry resolving processor type tags, and the
// ordered pipeline that runs them.
package processors

import (
	"fmt"
	"sort"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// BuilderFunc creates a fresh processor. Properties from the specification
// are applied afterwards through driven.PropertySetter.
type BuilderFunc func() (driven.ResultProcessor, error)

// Registry maps processor type tags to their builders.
// Tags are matched with their first letter upper-cased, so "uploadFilename"
// and "UploadFilename" name the same processor.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a processor builder under a type tag.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[domain.UpperFirst(name)] = builder
}

// Build creates a processor by type tag.
// Returns domain.ErrUnknownType if the tag is not registered.
func (r *Registry) Build(name string) (driven.ResultProcessor, error) {
	builder, ok := r.builders[domain.UpperFirst(name)]
	if !ok {
		return nil, fmt.Errorf("%w: processor %q", domain.ErrUnknownType, name)
	}
	return builder()
}

// Has returns true if a processor with the given tag is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[domain.UpperFirst(name)]
	return ok
}

// Names returns all registered tags in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
