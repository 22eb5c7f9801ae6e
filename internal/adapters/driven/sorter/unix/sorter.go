// Package unix sorts row files with the shell's head, tail and sort.
package unix

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/logger"
	"github.com/ccms-ucsd/resultview/internal/textio"
)

// Ensure Sorter implements the interface.
var _ driven.Sorter = (*Sorter)(nil)

// Default commands.
const (
	DefaultShell       = "bash"
	DefaultSortCommand = "sort"
)

// Sorter runs a stable sort pipeline through a shell.
type Sorter struct {
	shell string
	sort  string
}

// Option configures the sorter.
type Option func(*Sorter)

// WithShell sets the shell used to run the pipeline.
func WithShell(shell string) Option {
	return func(s *Sorter) {
		if shell != "" {
			s.shell = shell
		}
	}
}

// WithSortCommand sets the sort executable.
func WithSortCommand(cmd string) Option {
	return func(s *Sorter) {
		if cmd != "" {
			s.sort = cmd
		}
	}
}

// New creates a shell sorter.
func New(opts ...Option) *Sorter {
	s := &Sorter{shell: DefaultShell, sort: DefaultSortCommand}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sort writes req.Input sorted by req.Column to req.Output.
func (s *Sorter) Sort(ctx context.Context, req driven.SortRequest) error {
	if req.Column < 1 {
		return fmt.Errorf("%w: sort column must be 1-based, got %d", domain.ErrInvalidInput, req.Column)
	}
	gz, err := textio.IsGzip(req.Input)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, req.Input, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(req.Output), ".sort-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnwritable, filepath.Dir(req.Output), err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	script := s.Command(req, gz, tmpPath)
	logger.Debug("running %s", script)

	cmd := exec.CommandContext(ctx, s.shell, "-c", script)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	out, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: sorting %s: %v: %s", domain.ErrBuildTool, req.Input, err, strings.TrimSpace(string(out)))
	}

	if err := os.Rename(tmpPath, req.Output); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Command renders the shell pipeline for a request writing to out.
func (s *Sorter) Command(req driven.SortRequest, gzipped bool, out string) string {
	delim := req.Delimiter
	if delim == 0 {
		delim = domain.DefaultDelimiter
	}
	col := strconv.Itoa(req.Column)

	sortCmd := []string{s.sort, "-s", "-t" + quoteDelimiter(delim), "-k" + col + "," + col}
	if req.Numeric {
		sortCmd = append(sortCmd, "-g")
	}
	if req.Descending {
		sortCmd = append(sortCmd, "-r")
	}
	sortLine := strings.Join(sortCmd, " ")

	in := quote(req.Input)
	cat := func(tail string) string {
		if gzipped {
			return "gzip -dc " + in + " | " + tail
		}
		return tail + " " + in
	}

	if !req.Header {
		if gzipped {
			return cat(sortLine) + " > " + quote(out)
		}
		return sortLine + " " + in + " > " + quote(out)
	}
	return "(" + cat("head -n 1") + " && " + cat("tail -n +2") + " | " + sortLine + ") > " + quote(out)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func quoteDelimiter(d rune) string {
	if d == '\t' {
		return `$'\t'`
	}
	return quote(string(d))
}
