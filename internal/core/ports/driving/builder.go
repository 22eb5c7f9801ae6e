package driving

import (
	"context"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
)

// BlockTarget names one block of a specification and the files it maps to.
type BlockTarget struct {
	// Block is the id of the block element.
	Block string

	// ResultFile is the raw workflow output for the block.
	ResultFile string

	// OutputDir receives the final derived artifact.
	OutputDir string
}

// BuildRequest asks for the derived artifacts of several blocks.
type BuildRequest struct {
	TaskID  string
	Spec    *domain.SpecNode
	TempDir string
	Params  map[string]string
	Targets []BlockTarget
}

// BuiltResult reports one block processed by Build.
type BuiltResult struct {
	Block    string
	Kind     string
	Resource string
}

// BuildReport summarises a Build call.
type BuildReport struct {
	// RunID identifies the call in logs.
	RunID   string
	Results []BuiltResult
}

// RenderRequest asks for a single block's result.
type RenderRequest struct {
	TaskID  string
	Spec    *domain.SpecNode
	TempDir string
	Params  map[string]string
	Target  BlockTarget
}

// ResultBuilder constructs results from specification documents.
type ResultBuilder interface {
	// Build pre-builds the derived artifact of every target, stopping at
	// the first failure.
	Build(ctx context.Context, req BuildRequest) (*BuildReport, error)

	// Render returns the JSON data of one block.
	Render(ctx context.Context, req RenderRequest) (string, error)

	// Describe returns the schema and row count of one block.
	Describe(ctx context.Context, req RenderRequest) (*domain.ResultSummary, error)
}
