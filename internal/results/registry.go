package results

import (
	"fmt"
	"sort"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Gate builds on-demand operations. *ondemand.Loader implements it.
type Gate interface {
	Load(op driven.OnDemandOperation) error
}

// Env carries the collaborators of one pipeline run.
type Env struct {
	// Gate builds derived files at most once per run.
	Gate Gate

	// Sorter produces sorted copies for SortedTabular results.
	Sorter driven.Sorter

	// Runner executes generated scripts for SQLite results.
	Runner driven.ScriptRunner

	// TempDir holds scripts and scratch databases.
	TempDir string
}

// FileConstructor builds the first stage of a parser chain from a raw file.
type FileConstructor func(env Env, file, outputDir, taskID, block string) (driven.Result, error)

// ChainConstructor builds a later stage from the previous stage's output.
type ChainConstructor func(env Env, previous driven.Result, outputDir, block string) (driven.Result, error)

// Kind registers one result variant.
type Kind struct {
	Name      string
	FromFile  FileConstructor
	FromChain ChainConstructor
}

// Registry maps result type tags to their constructors.
// Tags are matched with their first letter upper-cased.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry creates an empty result registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind)}
}

// Register adds a variant under its tag.
func (r *Registry) Register(kind Kind) {
	r.kinds[domain.UpperFirst(kind.Name)] = kind
}

// Has returns true if a variant with the given tag is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.kinds[domain.UpperFirst(name)]
	return ok
}

// Names returns the registered tags in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFromFile constructs the variant named by tag over a raw file.
func (r *Registry) NewFromFile(tag string, env Env, file, outputDir, taskID, block string) (driven.Result, error) {
	kind, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	if kind.FromFile == nil {
		return nil, fmt.Errorf("%w: result type %q cannot start a parser chain", domain.ErrSpecification, tag)
	}
	return kind.FromFile(env, file, outputDir, taskID, block)
}

// NewFromChain constructs the variant named by tag over a previous result.
func (r *Registry) NewFromChain(tag string, env Env, previous driven.Result, outputDir, block string) (driven.Result, error) {
	kind, err := r.lookup(tag)
	if err != nil {
		return nil, err
	}
	if kind.FromChain == nil {
		return nil, fmt.Errorf("%w: result type %q cannot follow another stage", domain.ErrSpecification, tag)
	}
	return kind.FromChain(env, previous, outputDir, block)
}

func (r *Registry) lookup(tag string) (Kind, error) {
	kind, ok := r.kinds[domain.UpperFirst(tag)]
	if !ok {
		return Kind{}, fmt.Errorf("%w: result %q", domain.ErrUnknownType, tag)
	}
	return kind, nil
}

// RegisterDefaults registers the built-in file-backed variants.
func RegisterDefaults(r *Registry) {
	r.Register(Kind{
		Name: KindTabular,
		FromFile: func(env Env, file, outputDir, taskID, block string) (driven.Result, error) {
			return asResult(NewTabular(env, file, outputDir, taskID, block))
		},
		FromChain: func(env Env, previous driven.Result, outputDir, block string) (driven.Result, error) {
			return asResult(NewTabularFrom(env, previous, outputDir, block))
		},
	})
	r.Register(Kind{
		Name: KindSortedTabular,
		FromFile: func(env Env, file, outputDir, taskID, block string) (driven.Result, error) {
			return asResult(NewSortedTabular(env, file, outputDir, taskID, block))
		},
		FromChain: func(env Env, previous driven.Result, outputDir, block string) (driven.Result, error) {
			return asResult(NewSortedTabularFrom(env, previous, outputDir, block))
		},
	})
	r.Register(Kind{
		Name: KindSQLite,
		FromFile: func(env Env, file, outputDir, taskID, block string) (driven.Result, error) {
			return asResult(NewSQLite(env, file, outputDir, taskID, block))
		},
		FromChain: func(env Env, previous driven.Result, outputDir, block string) (driven.Result, error) {
			return asResult(NewSQLiteFrom(env, previous, outputDir, block))
		},
	})
}

// asResult converts a concrete constructor result without leaking a typed nil.
func asResult[T driven.Result](r T, err error) (driven.Result, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// propertyTable maps property names to setters.
type propertyTable map[string]func(string) error

// apply sets a property through the table. Names are matched with their
// first letter lower-cased.
func (p propertyTable) apply(kind, name, value string) error {
	set, ok := p[domain.LowerFirst(name)]
	if !ok {
		return fmt.Errorf("%w: %q on result %s", domain.ErrUnknownProperty, name, kind)
	}
	if err := set(value); err != nil {
		return fmt.Errorf("property %q on result %s: %w", name, kind, err)
	}
	return nil
}
