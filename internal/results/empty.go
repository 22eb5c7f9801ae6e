package results

import (
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// KindEmpty is the type tag of Empty results.
const KindEmpty = "empty"

// Ensure Empty implements the interface.
var _ driven.Result = (*Empty)(nil)

// Empty is the result of a block without a result file. It may carry a
// literal value taken from the specification.
type Empty struct {
	value     string
	outputDir string
	taskID    string
	loaded    bool
}

// NewEmpty creates an empty result carrying value.
func NewEmpty(value, outputDir, taskID string) *Empty {
	return &Empty{value: value, outputDir: outputDir, taskID: taskID}
}

// Kind returns the type tag of the result.
func (e *Empty) Kind() string { return KindEmpty }

// Value returns the literal value.
func (e *Empty) Value() string { return e.value }

// Load marks the result loaded.
func (e *Empty) Load() error {
	e.loaded = true
	return nil
}

// Close marks the result unloaded.
func (e *Empty) Close() error {
	e.loaded = false
	return nil
}

// IsLoaded reports whether Load was called since the last Close.
func (e *Empty) IsLoaded() bool { return e.loaded }

// File is empty; the result has no backing file.
func (e *Empty) File() string { return "" }

// OutputDirectory returns the block's output directory.
func (e *Empty) OutputDirectory() string { return e.outputDir }

// TaskID returns the owning task.
func (e *Empty) TaskID() string { return e.taskID }

// Data renders the value as a JSON string.
func (e *Empty) Data() (string, error) {
	return jsonString(e.value), nil
}

// Size returns the length of the value in bytes.
func (e *Empty) Size() (int64, bool) {
	return int64(len(e.value)), true
}

// Execute has nothing to build.
func (e *Empty) Execute() error { return nil }

// ResourceExists is always true; there is nothing to build.
func (e *Empty) ResourceExists() bool { return true }

// ResourceDated is always false.
func (e *Empty) ResourceDated() bool { return false }

// ResourceName is empty; the result has no resource.
func (e *Empty) ResourceName() string { return "" }
