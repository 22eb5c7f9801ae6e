// Package native sorts row files in process.
//
// It follows the ordering of a stable "sort -s -t<d> -kN,N [-g] [-r]"
// run under the C locale, for hosts without a shell sort utility.
package native

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/textio"
)

// Ensure Sorter implements the interface.
var _ driven.Sorter = (*Sorter)(nil)

// Sorter loads the whole file and sorts it in memory.
type Sorter struct{}

// New creates an in-process sorter.
func New() *Sorter {
	return &Sorter{}
}

type row struct {
	line string
	key  string
	num  float64
	// class orders numeric keys: 0 not a number, 1 NaN, 2 number.
	class int
}

// Sort writes req.Input sorted by req.Column to req.Output.
func (s *Sorter) Sort(ctx context.Context, req driven.SortRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	r, err := textio.Open(req.Input)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, req.Input, err)
	}
	defer r.Close()

	var header *string
	var rows []row
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", req.Input, err)
		}
		if req.Header && header == nil {
			h := line
			header = &h
			continue
		}
		rows = append(rows, newRow(line, req))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i], rows[j], req.Numeric)
		if req.Descending {
			return c > 0
		}
		return c < 0
	})

	return writeAtomic(req.Output, header, rows)
}

func validate(req driven.SortRequest) error {
	if req.Column < 1 {
		return fmt.Errorf("%w: sort column must be 1-based, got %d", domain.ErrInvalidInput, req.Column)
	}
	if req.Input == "" || req.Output == "" {
		return fmt.Errorf("%w: sort input and output are required", domain.ErrInvalidInput)
	}
	if filepath.Clean(req.Input) == filepath.Clean(req.Output) {
		return fmt.Errorf("%w: sort output must differ from input", domain.ErrInvalidInput)
	}
	return nil
}

func newRow(line string, req driven.SortRequest) row {
	delim := req.Delimiter
	if delim == 0 {
		delim = domain.DefaultDelimiter
	}
	fields := strings.Split(line, string(delim))
	key := ""
	if req.Column <= len(fields) {
		key = fields[req.Column-1]
	}

	rw := row{line: line, key: key}
	if req.Numeric {
		v, err := strconv.ParseFloat(strings.TrimSpace(key), 64)
		switch {
		case err != nil:
			rw.class = 0
		case math.IsNaN(v):
			rw.class = 1
		default:
			rw.class = 2
			rw.num = v
		}
	}
	return rw
}

func compare(a, b row, numeric bool) int {
	if !numeric {
		return strings.Compare(a.key, b.key)
	}
	if a.class != b.class {
		return a.class - b.class
	}
	if a.class != 2 {
		return 0
	}
	switch {
	case a.num < b.num:
		return -1
	case a.num > b.num:
		return 1
	default:
		return 0
	}
}

func writeAtomic(dest string, header *string, rows []row) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".sort-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnwritable, filepath.Dir(dest), err)
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if header != nil {
		bw.WriteString(*header)
		bw.WriteByte('\n')
	}
	for _, rw := range rows {
		bw.WriteString(rw.line)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
