// Package domain defines the core entities of the result-view pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SpecNode: A read-only node of a result-view specification document
//   - Hit: One row of a tabular result, with fields and attributes
//   - ResultSummary: A description of a constructed result
//
// It also holds the parameter resolver applied to specification
// attribute values and the sentinel errors shared by every layer.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
