package results

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/logger"
	"github.com/ccms-ucsd/resultview/internal/textio"
)

// KindSortedTabular is the type tag of SortedTabular results.
const KindSortedTabular = "sortedTabular"

// Sort directions accepted by the operator property.
const (
	OperatorAscending  = "ascending"
	OperatorDescending = "descending"
)

// Ensure SortedTabular implements the interfaces.
var (
	_ driven.IterableResult = (*SortedTabular)(nil)
	_ driven.PropertySetter = (*SortedTabular)(nil)
)

// SortedTabular is a tabular result read from a copy of its source file
// sorted by one column. Without a sort column it reads the source as is.
type SortedTabular struct {
	*Tabular

	source    string
	sortBy    string
	ascending bool
	numeric   *bool
}

// NewSortedTabular creates a sorted result over a raw row file.
func NewSortedTabular(env Env, file, outputDir, taskID, block string) (*SortedTabular, error) {
	t := newTabular(env, KindSortedTabular, file, outputDir, taskID, block)
	if err := t.validate(); err != nil {
		return nil, err
	}
	return newSorted(t), nil
}

// NewSortedTabularFrom creates a sorted result over the output of a previous stage.
func NewSortedTabularFrom(env Env, previous driven.Result, outputDir, block string) (*SortedTabular, error) {
	t, err := chainTabular(env, KindSortedTabular, previous, outputDir, block)
	if err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return newSorted(t), nil
}

func newSorted(t *Tabular) *SortedTabular {
	s := &SortedTabular{
		Tabular:   t,
		source:    t.file,
		ascending: true,
	}
	t.owner = s
	t.prepare = s.prepare
	return s
}

// prepare builds the sorted copy if needed and reads from it.
func (s *SortedTabular) prepare() error {
	if err := s.env.Gate.Load(s); err != nil {
		return fmt.Errorf("%w: a valid result file sorted by the specified sort field could not be generated: %w",
			domain.ErrBuildFailed, err)
	}
	s.file = s.SortedFile()
	return nil
}

// Source returns the unsorted input file.
func (s *SortedTabular) Source() string {
	return s.source
}

// SortBy returns the sort column, empty when no sort is configured.
func (s *SortedTabular) SortBy() string {
	return s.sortBy
}

// Ascending reports the sort direction.
func (s *SortedTabular) Ascending() bool {
	return s.ascending
}

// Numeric returns the numeric flag and whether it was set explicitly.
func (s *SortedTabular) Numeric() (bool, bool) {
	if s.numeric == nil {
		return false, false
	}
	return *s.numeric, true
}

// SortedFile returns the path of the sorted copy, or the source itself
// when no sort column is configured. The name is
// <block>_<base>.<column>_<direction>.tsv in the output directory.
func (s *SortedTabular) SortedFile() string {
	if s.sortBy == "" {
		return s.source
	}
	name := blockPrefixed(s.block, baseName(s.source))
	suffix := "." + s.sortBy + "_" + s.operator()
	if !strings.HasSuffix(name, suffix) {
		name += suffix
	}
	return filepath.Join(s.outputDir, name+".tsv")
}

// File returns the sorted copy.
func (s *SortedTabular) File() string {
	return s.SortedFile()
}

func (s *SortedTabular) operator() string {
	if s.ascending {
		return OperatorAscending
	}
	return OperatorDescending
}

// SetSortBy sets the sort column. An empty value disables sorting.
func (s *SortedTabular) SetSortBy(value string) error {
	s.sortBy = value
	return nil
}

// SetOperator sets the sort direction, "ascending" or "descending".
func (s *SortedTabular) SetOperator(value string) error {
	switch strings.ToLower(value) {
	case OperatorAscending:
		s.ascending = true
	case OperatorDescending:
		s.ascending = false
	default:
		return fmt.Errorf("%w: operator %q must be %q or %q",
			domain.ErrInvalidProperty, value, OperatorAscending, OperatorDescending)
	}
	return nil
}

// SetNumeric forces numeric or lexical comparison.
func (s *SortedTabular) SetNumeric(value string) error {
	numeric, err := domain.ParseFlag(value)
	if err != nil {
		return err
	}
	s.numeric = &numeric
	return nil
}

func (s *SortedTabular) properties() propertyTable {
	props := s.Tabular.properties()
	props["sortBy"] = s.SetSortBy
	props["operator"] = s.SetOperator
	props["numeric"] = s.SetNumeric
	return props
}

// SetProperty applies a named property from a specification.
func (s *SortedTabular) SetProperty(name, value string) error {
	return s.properties().apply(s.kind, name, value)
}

// Execute writes the sorted copy. Without a sort column it only checks
// that the source exists.
func (s *SortedTabular) Execute() error {
	if s.sortBy == "" {
		if !s.ResourceExists() {
			return fmt.Errorf("%w: %s", domain.ErrUnreadable, s.source)
		}
		return nil
	}
	if s.env.Sorter == nil {
		return fmt.Errorf("%w: no sorter configured", domain.ErrBuildFailed)
	}

	column, err := s.sortColumn()
	if err != nil {
		return err
	}

	numeric, set := s.Numeric()
	if !set {
		numeric, err = s.sniffNumeric(column)
		if err != nil {
			return err
		}
	}

	req := driven.SortRequest{
		Input:      s.source,
		Output:     s.SortedFile(),
		Column:     column + 1,
		Delimiter:  s.delimiter,
		Header:     true,
		Numeric:    numeric,
		Descending: !s.ascending,
	}
	logger.Debug("sorting %s by %q (column %d, numeric=%t, %s)",
		s.source, s.sortBy, req.Column, numeric, s.operator())
	return s.env.Sorter.Sort(context.Background(), req)
}

// sortColumn returns the 0-based header position of the sort column.
func (s *SortedTabular) sortColumn() (int, error) {
	header, err := textio.ReadHeader(s.source, s.delimiter)
	if err != nil {
		return 0, fmt.Errorf("reading header of %s: %w", s.source, err)
	}
	for i, name := range header {
		if strings.TrimSpace(name) == s.sortBy {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q in header of %s", domain.ErrSortColumn, s.sortBy, s.source)
}

// sniffNumeric decides numeric comparison from the first data row only.
// A file without data rows sorts lexically.
func (s *SortedTabular) sniffNumeric(column int) (bool, error) {
	r, err := textio.Open(s.source)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, s.source, err)
	}
	defer r.Close()

	if _, err := r.ReadLine(); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	line, err := r.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	values := textio.SplitRow(line, s.delimiter)
	if column >= len(values) {
		return false, nil
	}
	_, err = strconv.ParseFloat(strings.TrimSpace(values[column]), 64)
	return err == nil, nil
}

// ResourceExists reports whether the sorted copy exists.
func (s *SortedTabular) ResourceExists() bool {
	return fileExists(s.SortedFile())
}

// ResourceDated reports whether the sorted copy is older than the source.
func (s *SortedTabular) ResourceDated() bool {
	if s.sortBy == "" {
		return false
	}
	return olderThan(s.SortedFile(), s.source)
}

// ResourceName returns the absolute path of the sorted copy.
func (s *SortedTabular) ResourceName() string {
	return absPath(s.SortedFile())
}
