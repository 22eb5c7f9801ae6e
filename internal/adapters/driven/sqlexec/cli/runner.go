// Package cli executes SQL scripts with the sqlite3 command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure Runner implements the interface.
var _ driven.ScriptRunner = (*Runner)(nil)

// DefaultCommand is the sqlite3 executable looked up on PATH.
const DefaultCommand = "sqlite3"

// benignExitCode is returned by some sqlite3 builds after a successful run.
const benignExitCode = 2

// Runner pipes a script file into sqlite3.
type Runner struct {
	command string
}

// New creates a runner for the given executable, sqlite3 when empty.
func New(command string) *Runner {
	if command == "" {
		command = DefaultCommand
	}
	return &Runner{command: command}
}

// Command returns the executable name.
func (r *Runner) Command() string {
	return r.command
}

// Run executes scriptPath against dbPath and reports the exit code and
// combined console output. A tool that cannot be started is an error.
func (r *Runner) Run(ctx context.Context, scriptPath, dbPath string) (driven.ScriptOutcome, error) {
	script, err := os.Open(scriptPath)
	if err != nil {
		return driven.ScriptOutcome{}, err
	}
	defer script.Close()

	cmd := exec.CommandContext(ctx, r.command, dbPath)
	cmd.Stdin = script
	out, err := cmd.CombinedOutput()

	outcome := driven.ScriptOutcome{Output: string(out)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		return outcome, fmt.Errorf("running %s: %w", r.command, err)
	}
	return outcome, nil
}

// BenignExitCode reports whether code is sqlite3's success-with-warnings code.
func (r *Runner) BenignExitCode(code int) bool {
	return code == benignExitCode
}
