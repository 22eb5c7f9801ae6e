// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Result / IterableResult: Constructed result variants
//   - ResultProcessor: Per-hit mutation attached to a result
//   - OnDemandOperation: A derived resource built only when missing or stale
//   - Sorter: Stable column sort of a row file (sort utility or in-process)
//   - ScriptRunner: Executes a generated SQL script into a database file
//   - SpecLoader: Parses a specification document (XML, YAML)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - UploadStore: Original upload names per task. Without it, the
//     upload filename processor keeps the stored names.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
