package services

import (
	"fmt"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/logger"
	"github.com/ccms-ucsd/resultview/internal/ondemand"
	"github.com/ccms-ucsd/resultview/internal/processors"
	"github.com/ccms-ucsd/resultview/internal/results"
)

// sourceTypeValue marks a source element carrying a literal value.
const sourceTypeValue = "VALUE"

// CreateRequest describes the result of one block.
type CreateRequest struct {
	// Data is the data element of the block.
	Data *domain.SpecNode

	// ResultFile is the raw workflow output. Empty yields an Empty result.
	ResultFile string

	// TempDir receives intermediate stage output, scripts and scratch databases.
	TempDir string

	// OutputDir receives the output of the last stage.
	OutputDir string

	TaskID string
	Block  string

	// Params resolves {name} tokens in attribute values.
	Params map[string]string

	// Gate builds derived files. A fresh one is used when nil.
	Gate results.Gate
}

// ResultFactory builds parser chains from specification data elements.
type ResultFactory struct {
	results    *results.Registry
	processors *processors.Registry
	sorter     driven.Sorter
	runner     driven.ScriptRunner
}

// NewResultFactory creates a factory over the given registries and build collaborators.
func NewResultFactory(
	resultRegistry *results.Registry,
	processorRegistry *processors.Registry,
	sorter driven.Sorter,
	runner driven.ScriptRunner,
) *ResultFactory {
	return &ResultFactory{
		results:    resultRegistry,
		processors: processorRegistry,
		sorter:     sorter,
		runner:     runner,
	}
}

// CreateResult builds and loads the result of one block. A failure at any
// step is logged and returned; no partially built result is returned.
func (f *ResultFactory) CreateResult(req CreateRequest) (driven.Result, error) {
	result, err := f.create(req)
	if err != nil {
		logger.Error("creating result for block %q: %v", req.Block, err)
		return nil, err
	}
	return result, nil
}

func (f *ResultFactory) create(req CreateRequest) (driven.Result, error) {
	if req.Data == nil {
		return nil, fmt.Errorf("%w: no data element", domain.ErrSpecification)
	}

	var result driven.Result
	if req.ResultFile == "" {
		value, err := SourceValue(domain.SourceSpec(req.Data), req.Params)
		if err != nil {
			return nil, err
		}
		result = results.NewEmpty(value, req.OutputDir, req.TaskID)
	} else {
		gate := req.Gate
		if gate == nil {
			gate = ondemand.NewLoader()
		}
		env := results.Env{
			Gate:    gate,
			Sorter:  f.sorter,
			Runner:  f.runner,
			TempDir: req.TempDir,
		}

		chain, err := f.buildChain(env, domain.ParserSpecs(req.Data), req)
		if err != nil {
			return nil, err
		}
		// Processors declared for the whole data element run on the last stage.
		if err := f.attachProcessors(chain, domain.GlobalProcessorSpecs(req.Data), req.Params); err != nil {
			return nil, err
		}
		result = chain
	}

	if err := result.Load(); err != nil {
		_ = result.Close()
		return nil, fmt.Errorf("loading %s result: %w", result.Kind(), err)
	}
	return result, nil
}

// buildChain instantiates every parser stage in order. Intermediate
// stages write to the temp directory, the last one to the output directory.
func (f *ResultFactory) buildChain(env results.Env, parsers []*domain.SpecNode, req CreateRequest) (driven.Result, error) {
	if len(parsers) == 0 {
		return nil, fmt.Errorf("%w: block %q declares no parser", domain.ErrSpecification, req.Block)
	}

	var result driven.Result
	for i, parser := range parsers {
		dir := req.TempDir
		if i == len(parsers)-1 {
			dir = req.OutputDir
		}
		stage, err := f.buildStage(env, parser, result, dir, req)
		if err != nil {
			return nil, fmt.Errorf("parser %d: %w", i+1, err)
		}
		result = stage
	}
	return result, nil
}

func (f *ResultFactory) buildStage(
	env results.Env, parser *domain.SpecNode, previous driven.Result, dir string, req CreateRequest,
) (driven.Result, error) {
	rawType, ok := parser.Attr(domain.AttrType)
	if !ok {
		return nil, fmt.Errorf("%w: element <%s>", domain.ErrMissingType, domain.ElementParser)
	}
	kind, err := domain.ResolveParameters(rawType, req.Params)
	if err != nil {
		return nil, err
	}

	var result driven.Result
	if previous == nil {
		result, err = f.results.NewFromFile(kind, env, req.ResultFile, dir, req.TaskID, req.Block)
	} else {
		result, err = f.results.NewFromChain(kind, env, previous, dir, req.Block)
	}
	if err != nil {
		return nil, err
	}

	for _, attr := range parser.Attributes(domain.AttrType) {
		if err := setProperty(result, attr.Name, attr.Value, req.Params); err != nil {
			return nil, err
		}
	}

	for _, param := range domain.ParameterSpecs(parser) {
		name, hasName := param.Attr(domain.AttrName)
		value, hasValue := param.Attr(domain.AttrValue)
		if !hasName || !hasValue {
			continue
		}
		resolvedName, err := domain.ResolveParameters(name, req.Params)
		if err != nil {
			return nil, err
		}
		if err := setProperty(result, resolvedName, value, req.Params); err != nil {
			return nil, err
		}
	}

	if err := f.attachProcessors(result, domain.ProcessorSpecs(parser), req.Params); err != nil {
		return nil, err
	}
	return result, nil
}

// attachProcessors builds the declared processors and appends them to result.
func (f *ResultFactory) attachProcessors(result driven.Result, specs []*domain.SpecNode, params map[string]string) error {
	if len(specs) == 0 {
		return nil
	}
	iterable, ok := result.(driven.IterableResult)
	if !ok {
		return fmt.Errorf("%w: results of type %q cannot have <%s> elements",
			domain.ErrNotIterable, result.Kind(), domain.ElementProcessor)
	}

	for _, spec := range specs {
		rawType, ok := spec.Attr(domain.AttrType)
		if !ok {
			return fmt.Errorf("%w: element <%s>", domain.ErrMissingType, domain.ElementProcessor)
		}
		kind, err := domain.ResolveParameters(rawType, params)
		if err != nil {
			return err
		}
		processor, err := f.processors.Build(kind)
		if err != nil {
			return err
		}
		for _, attr := range spec.Attributes(domain.AttrType) {
			if err := setProperty(processor, attr.Name, attr.Value, params); err != nil {
				return err
			}
		}
		iterable.AddProcessor(processor)
	}
	return nil
}

// setProperty resolves value and applies it through driven.PropertySetter.
func setProperty(target any, name, value string, params map[string]string) error {
	if name == "" {
		return fmt.Errorf("%w: empty property name", domain.ErrUnknownProperty)
	}
	resolved, err := domain.ResolveParameters(value, params)
	if err != nil {
		return err
	}
	setter, ok := target.(driven.PropertySetter)
	if !ok {
		return fmt.Errorf("%w: %q on %T", domain.ErrUnknownProperty, name, target)
	}
	return setter.SetProperty(name, resolved)
}

// SourceValue returns the literal value of a source element whose type
// is "value", resolved against params. Other sources yield "".
func SourceValue(source *domain.SpecNode, params map[string]string) (string, error) {
	if source == nil {
		return "", nil
	}
	rawType, ok := source.Attr(domain.AttrType)
	if !ok {
		logger.Error("%q is a required attribute of element <%s>", domain.AttrType, domain.ElementSource)
		return "", nil
	}
	kind, err := domain.ResolveParameters(rawType, params)
	if err != nil {
		return "", err
	}
	if strings.ToUpper(kind) != sourceTypeValue {
		return "", nil
	}
	value, _ := source.Attr(domain.AttrValue)
	return domain.ResolveParameters(value, params)
}
