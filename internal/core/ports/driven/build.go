package driven

import "context"

// SortRequest describes a stable sort of a delimited row file by one column.
type SortRequest struct {
	// Input is the file to sort.
	Input string

	// Output receives the sorted rows. It may not equal Input.
	Output string

	// Column is the 1-based key column.
	Column int

	// Delimiter separates columns.
	Delimiter rune

	// Header keeps the first line in place.
	Header bool

	// Numeric compares keys as floating point numbers.
	Numeric bool

	// Descending reverses the order.
	Descending bool
}

// Sorter produces a sorted copy of a row file.
type Sorter interface {
	Sort(ctx context.Context, req SortRequest) error
}

// ScriptOutcome is what a ScriptRunner observed while executing a script.
type ScriptOutcome struct {
	// ExitCode of the tool, 0 for in-process runners.
	ExitCode int

	// Output is the combined console output of the tool.
	Output string
}

// ScriptRunner executes a SQL script file against a database file,
// creating the database when it does not exist.
type ScriptRunner interface {
	Run(ctx context.Context, scriptPath, dbPath string) (ScriptOutcome, error)

	// BenignExitCode reports whether a non-zero exit code still counts as success.
	BenignExitCode(code int) bool
}
