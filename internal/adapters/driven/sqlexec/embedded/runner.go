// Package embedded executes SQL scripts in process with the pure-Go
// SQLite driver, for hosts without the sqlite3 tool.
package embedded

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure Runner implements the interface.
var _ driven.ScriptRunner = (*Runner)(nil)

// Runner executes scripts through database/sql.
type Runner struct{}

// New creates an in-process runner.
func New() *Runner {
	return &Runner{}
}

// Run executes every statement of scriptPath against dbPath. SQL errors
// are reported as console output with exit code 1, like the sqlite3 tool.
func (r *Runner) Run(ctx context.Context, scriptPath, dbPath string) (driven.ScriptOutcome, error) {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return driven.ScriptOutcome{}, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return driven.ScriptOutcome{}, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, string(script)); err != nil {
		return driven.ScriptOutcome{ExitCode: 1, Output: err.Error()}, nil
	}
	return driven.ScriptOutcome{}, nil
}

// BenignExitCode is always false; in-process runs only exit with 0 or 1.
func (r *Runner) BenignExitCode(int) bool {
	return false
}
