package results

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/logger"
)

// KindSQLite is the type tag of SQLite results.
const KindSQLite = "SQLite"

const (
	// PrimaryKeyColumn is the row id column added to every generated table.
	PrimaryKeyColumn = "ccms_row_id"

	// TableName is the name of the generated table.
	TableName = "Result"

	// MaxRowsPerInsert caps the rows chained into one INSERT statement.
	MaxRowsPerInsert = 500
)

// SQL column types inferred from sample values.
const (
	ColumnInteger = "INTEGER"
	ColumnReal    = "REAL"
	ColumnText    = "TEXT"
)

// Ensure SQLite implements the interfaces.
var (
	_ driven.IterableResult = (*SQLite)(nil)
	_ driven.PropertySetter = (*SQLite)(nil)
)

// SQLite is a tabular result whose rows are written into a database file
// with a single table. It builds a file rather than exposing data, so
// Data and Size are inert.
type SQLite struct {
	*Tabular

	script string
	tempDB string
	db     string
}

// NewSQLite creates a database-building result over a raw row file.
func NewSQLite(env Env, file, outputDir, taskID, block string) (*SQLite, error) {
	t := newTabular(env, KindSQLite, file, outputDir, taskID, block)
	if err := t.validate(); err != nil {
		return nil, err
	}
	return newSQLite(t)
}

// NewSQLiteFrom creates a database-building result over the output of a previous stage.
func NewSQLiteFrom(env Env, previous driven.Result, outputDir, block string) (*SQLite, error) {
	t, err := chainTabular(env, KindSQLite, previous, outputDir, block)
	if err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return newSQLite(t)
}

func newSQLite(t *Tabular) (*SQLite, error) {
	tempDir := t.env.TempDir
	if tempDir == "" {
		tempDir = "temp"
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnwritable, tempDir, err)
	}

	base := blockPrefixed(t.block, bareName(t.file))
	s := &SQLite{
		Tabular: t,
		script:  filepath.Join(tempDir, base+".sql"),
		tempDB:  filepath.Join(tempDir, base+".db"),
		db:      filepath.Join(t.outputDir, base+".db"),
	}
	t.owner = s
	return s, nil
}

// Load reads the header, builds the database if needed, and leaves the
// result loaded.
func (s *SQLite) Load() error {
	if err := s.load(); err != nil {
		return err
	}
	if err := s.env.Gate.Load(s); err != nil {
		return fmt.Errorf("could not parse TSV file [%s] into an SQLite database representation: %w", s.file, err)
	}
	if !s.loaded {
		return s.load()
	}
	return nil
}

// Database returns the final database path.
func (s *SQLite) Database() string {
	return s.db
}

// Script returns the path of the generated SQL script.
func (s *SQLite) Script() string {
	return s.script
}

// Data is inert for database results.
func (s *SQLite) Data() (string, error) {
	return "", nil
}

// Size is inert for database results.
func (s *SQLite) Size() (int64, bool) {
	return 0, true
}

// SetProperty applies a named property from a specification.
func (s *SQLite) SetProperty(name, value string) error {
	return s.properties().apply(s.kind, name, value)
}

// Execute writes every row into a fresh database at the output path.
func (s *SQLite) Execute() error {
	if s.env.Runner == nil {
		return fmt.Errorf("%w: no script runner configured", domain.ErrBuildFailed)
	}

	if err := s.writeScript(); err != nil {
		s.cleanup()
		return err
	}

	// Stale databases from an earlier run must not be appended to.
	if err := removeIfExists(s.db); err != nil {
		s.cleanup()
		return fmt.Errorf("removing old database %s: %w", s.db, err)
	}
	if err := removeIfExists(s.tempDB); err != nil {
		s.cleanup()
		return fmt.Errorf("removing scratch database %s: %w", s.tempDB, err)
	}

	logger.Debug("executing %s into %s", s.script, s.tempDB)
	outcome, err := s.env.Runner.Run(context.Background(), s.script, s.tempDB)
	if err != nil {
		s.cleanup()
		return fmt.Errorf("%w: %w", domain.ErrBuildTool, err)
	}
	output := strings.TrimSpace(outcome.Output)
	benign := outcome.ExitCode == 0 || s.env.Runner.BenignExitCode(outcome.ExitCode)
	if !benign || output != "" || !fileExists(s.tempDB) {
		s.cleanup()
		logger.Error("building %s failed (exit code %d): %s", s.db, outcome.ExitCode, output)
		return fmt.Errorf("%w: exit code %d, output %q", domain.ErrBuildTool, outcome.ExitCode, output)
	}

	if err := copyAtomic(s.tempDB, s.db); err != nil {
		s.cleanup()
		return fmt.Errorf("copying %s to %s: %w", s.tempDB, s.db, err)
	}
	s.cleanup()
	return nil
}

// cleanup removes the script and the scratch database. Failures are ignored.
func (s *SQLite) cleanup() {
	_ = os.Remove(s.script)
	_ = os.Remove(s.tempDB)
}

// writeScript drains the rows into CREATE TABLE and batched INSERT statements.
func (s *SQLite) writeScript() error {
	f, err := os.Create(s.script)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnwritable, s.script, err)
	}
	defer f.Close()
	defer s.Close()

	if !s.loaded {
		if err := s.load(); err != nil {
			return err
		}
	}

	w := bufio.NewWriter(f)
	var columns []string
	id, chunk := 1, 0
	for s.HasNext() {
		hit, err := s.Next()
		if err != nil {
			return err
		}
		switch {
		case id == 1:
			// Attribute columns are fixed by the first row.
			columns = hit.AttributeNames()
			w.WriteString(TableCreation(hit))
			w.WriteString("\nINSERT INTO " + TableName + " SELECT\n")
		case chunk >= MaxRowsPerInsert:
			w.WriteString(";\nINSERT INTO " + TableName + " SELECT\n")
			chunk = 0
		default:
			w.WriteString(" UNION ALL SELECT\n")
		}
		w.WriteString(RowInsertion(hit, id, columns))
		id++
		chunk++
	}
	if err := s.Err(); err != nil {
		return err
	}

	if id == 1 {
		w.WriteString(emptyTableCreation(s.FieldNames(), s.AttributeNames()))
		w.WriteString("\n")
	} else {
		w.WriteString(";\n")
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// ResourceExists reports whether the final database exists.
func (s *SQLite) ResourceExists() bool {
	return fileExists(s.db)
}

// ResourceDated reports whether the database is older than the row file.
func (s *SQLite) ResourceDated() bool {
	return olderThan(s.db, s.file)
}

// ResourceName returns the absolute path of the final database.
func (s *SQLite) ResourceName() string {
	return absPath(s.db)
}

// TableCreation renders the CREATE TABLE statement for a sample hit. Each
// column's type is inferred from the hit's value only.
func TableCreation(hit *domain.Hit) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE " + TableName + "\n(")
	fmt.Fprintf(&b, "'%s' INTEGER PRIMARY KEY ASC", PrimaryKeyColumn)
	for _, e := range hit.Entries() {
		fmt.Fprintf(&b, ",\n'%s' %s", cleanSQL(e.Key), ColumnType(e.Value))
	}
	b.WriteString(");")
	return b.String()
}

// emptyTableCreation declares all columns as TEXT when no row is available.
func emptyTableCreation(fields, attributes []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE " + TableName + "\n(")
	fmt.Fprintf(&b, "'%s' INTEGER PRIMARY KEY ASC", PrimaryKeyColumn)
	for _, name := range append(append([]string(nil), fields...), attributes...) {
		fmt.Fprintf(&b, ",\n'%s' %s", cleanSQL(name), ColumnText)
	}
	b.WriteString(");")
	return b.String()
}

// RowInsertion renders one SELECT row: the id, every field value, then the
// values of the given attributes, all quoted. Missing values render as 'null'.
func RowInsertion(hit *domain.Hit, id int, attributes []string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(id))
	for _, name := range hit.FieldNames() {
		value, ok := hit.FieldValue(name)
		writeSQLValue(&b, value, ok)
	}
	for _, name := range attributes {
		value, ok := hit.Attribute(name)
		writeSQLValue(&b, value, ok)
	}
	return b.String()
}

func writeSQLValue(b *strings.Builder, value string, ok bool) {
	if !ok {
		value = "null"
	}
	fmt.Fprintf(b, ",'%s'", cleanSQL(value))
}

// ColumnType infers the SQL type of a value: INTEGER for 32-bit integers,
// REAL for other numbers, TEXT otherwise.
func ColumnType(value string) string {
	if _, err := strconv.ParseInt(value, 10, 32); err == nil {
		return ColumnInteger
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return ColumnReal
	}
	return ColumnText
}

// cleanSQL replaces single quotes, which would end the quoted literal.
func cleanSQL(s string) string {
	return strings.ReplaceAll(s, "'", "_")
}
