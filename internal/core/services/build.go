package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driving"
	"github.com/ccms-ucsd/resultview/internal/logger"
	"github.com/ccms-ucsd/resultview/internal/ondemand"
)

// Ensure BuildService implements the interface.
var _ driving.ResultBuilder = (*BuildService)(nil)

// DefaultTempDir is used when a request names no temp directory.
const DefaultTempDir = "temp"

// BuildService pre-builds and renders block results.
type BuildService struct {
	factory *ResultFactory
}

// NewBuildService creates a build service over a result factory.
func NewBuildService(factory *ResultFactory) *BuildService {
	return &BuildService{factory: factory}
}

// Build creates the result of every target and makes sure its derived
// artifact exists. All targets are validated before anything is built.
// Building stops at the first failing block.
func (s *BuildService) Build(ctx context.Context, req driving.BuildRequest) (*driving.BuildReport, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("%w: task ID is required", domain.ErrInvalidInput)
	}
	if req.Spec == nil {
		return nil, fmt.Errorf("%w: specification is required", domain.ErrInvalidInput)
	}
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("%w: at least one block, result file and output directory must be provided",
			domain.ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(req.Targets))
	for _, target := range req.Targets {
		if _, dup := seen[target.Block]; dup {
			return nil, fmt.Errorf("%w: block %q given more than once", domain.ErrInvalidInput, target.Block)
		}
		seen[target.Block] = struct{}{}
		if err := validateTarget(target, true); err != nil {
			return nil, err
		}
	}

	tempDir, err := prepareTempDir(req.TempDir)
	if err != nil {
		return nil, err
	}

	report := &driving.BuildReport{RunID: uuid.NewString()}
	logger.Debug("build %s: task %s, %d block(s)", report.RunID, req.TaskID, len(req.Targets))

	// One gate per call, so a derived file shared by several blocks is built once.
	gate := ondemand.NewLoader()
	for _, target := range req.Targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := s.create(req.Spec, target, tempDir, req.TaskID, req.Params, gate)
		if err != nil {
			return report, err
		}
		err = gate.Load(result)
		_ = result.Close()
		if err != nil {
			return report, fmt.Errorf("result file [%s] for result view block [%s] could not be written: %w",
				target.ResultFile, target.Block, err)
		}

		report.Results = append(report.Results, driving.BuiltResult{
			Block:    target.Block,
			Kind:     result.Kind(),
			Resource: result.ResourceName(),
		})
		logger.Debug("build %s: block %s ready (%s)", report.RunID, target.Block, result.ResourceName())
	}
	return report, nil
}

// Render returns the JSON data of one block.
func (s *BuildService) Render(ctx context.Context, req driving.RenderRequest) (string, error) {
	result, err := s.single(ctx, req)
	if err != nil {
		return "", err
	}
	return result.Data()
}

// Describe returns the kind, schema, row count and size of one block.
// Rows are counted with processors applied, so attribute names are complete.
func (s *BuildService) Describe(ctx context.Context, req driving.RenderRequest) (*domain.ResultSummary, error) {
	result, err := s.single(ctx, req)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	summary := &domain.ResultSummary{
		Block:    req.Target.Block,
		Kind:     result.Kind(),
		File:     result.File(),
		Resource: result.ResourceName(),
	}
	if size, ok := result.Size(); ok {
		summary.Size = size
	}

	iterable, ok := result.(driven.IterableResult)
	if !ok {
		return summary, nil
	}
	for iterable.HasNext() {
		if _, err := iterable.Next(); err != nil {
			return nil, err
		}
		summary.Rows++
	}
	if err := iterable.Err(); err != nil {
		return nil, err
	}
	summary.Fields = iterable.FieldNames()
	summary.Attributes = iterable.AttributeNames()
	return summary, nil
}

func (s *BuildService) single(ctx context.Context, req driving.RenderRequest) (driven.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.TaskID == "" {
		return nil, fmt.Errorf("%w: task ID is required", domain.ErrInvalidInput)
	}
	if req.Spec == nil {
		return nil, fmt.Errorf("%w: specification is required", domain.ErrInvalidInput)
	}
	if err := validateTarget(req.Target, false); err != nil {
		return nil, err
	}
	tempDir, err := prepareTempDir(req.TempDir)
	if err != nil {
		return nil, err
	}
	return s.create(req.Spec, req.Target, tempDir, req.TaskID, req.Params, ondemand.NewLoader())
}

func (s *BuildService) create(
	spec *domain.SpecNode, target driving.BlockTarget, tempDir, taskID string,
	params map[string]string, gate *ondemand.Loader,
) (driven.Result, error) {
	block := domain.BlockSpec(spec, target.Block)
	if block == nil {
		return nil, fmt.Errorf("%w: block %q", domain.ErrNotFound, target.Block)
	}
	data := domain.DataSpec(block)
	if data == nil {
		return nil, fmt.Errorf("%w: block %q has no <%s> element", domain.ErrSpecification, target.Block, domain.ElementData)
	}

	return s.factory.CreateResult(CreateRequest{
		Data:       data,
		ResultFile: target.ResultFile,
		TempDir:    tempDir,
		OutputDir:  target.OutputDir,
		TaskID:     taskID,
		Block:      target.Block,
		Params:     params,
		Gate:       gate,
	})
}

// validateTarget checks the block name, the result file and the output
// directory. The result file is optional unless required is set.
func validateTarget(target driving.BlockTarget, required bool) error {
	if target.Block == "" {
		return fmt.Errorf("%w: block name is required", domain.ErrInvalidInput)
	}
	if target.ResultFile == "" {
		if required {
			return fmt.Errorf("%w: block %q: result file is required", domain.ErrInvalidInput, target.Block)
		}
	} else if info, err := os.Stat(target.ResultFile); err != nil || info.IsDir() {
		return fmt.Errorf("%w: block %q: result file %s must be a readable file",
			domain.ErrUnreadable, target.Block, target.ResultFile)
	}

	info, err := os.Stat(target.OutputDir)
	switch {
	case target.OutputDir == "":
		return fmt.Errorf("%w: block %q: output directory is required", domain.ErrInvalidInput, target.Block)
	case errors.Is(err, os.ErrNotExist), err == nil && !info.IsDir():
		return fmt.Errorf("%w: output directory [%s] must be a directory", domain.ErrUnwritable, target.OutputDir)
	case err != nil:
		return fmt.Errorf("%w: output directory [%s]: %w", domain.ErrUnwritable, target.OutputDir, err)
	}
	return nil
}

func prepareTempDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultTempDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrUnwritable, dir, err)
	}
	return dir, nil
}
