package domain

import "errors"

// Domain errors represent pipeline failures.
// Callers wrap them with context and test them with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Specification Errors.

	// ErrSpecification indicates a structurally invalid specification document.
	ErrSpecification = errors.New("invalid specification")

	// ErrMissingType indicates a parser or processor node without a type attribute.
	ErrMissingType = errors.New("missing type attribute")

	// ErrUnknownType indicates a type tag with no registered implementation.
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownProperty indicates a property name the target cannot accept.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidProperty indicates a property value the target rejected.
	ErrInvalidProperty = errors.New("invalid property value")

	// ErrNotIterable indicates a processor was attached to a result without rows.
	ErrNotIterable = errors.New("result is not iterable")

	// ErrMalformedHeader indicates a row file without a usable header line.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrRowInconsistent indicates a row whose cell count does not match the header.
	ErrRowInconsistent = errors.New("row inconsistent with header")

	// ErrSortColumn indicates the configured sort column is absent from the header.
	ErrSortColumn = errors.New("sort column not found")

	// ErrRecursiveParameter indicates a parameter value that itself holds a {token}.
	ErrRecursiveParameter = errors.New("recursive parameter reference")

	// I/O Errors.

	// ErrUnreadable indicates a file that does not exist or cannot be read.
	ErrUnreadable = errors.New("file not readable")

	// ErrUnwritable indicates a directory that does not exist or cannot be written.
	ErrUnwritable = errors.New("directory not writable")

	// ErrNotLoaded indicates an operation that requires a loaded result.
	ErrNotLoaded = errors.New("result not loaded")

	// ErrNoMoreHits indicates iteration past the last row.
	ErrNoMoreHits = errors.New("no more hits")

	// Build Errors.

	// ErrBuildTool indicates an external build tool failed or printed unexpected output.
	ErrBuildTool = errors.New("build tool failed")

	// ErrBuildFailed indicates a derived resource could not be produced.
	ErrBuildFailed = errors.New("build failed")
)
