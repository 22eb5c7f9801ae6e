package results

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/logger"
	"github.com/ccms-ucsd/resultview/internal/ondemand"
	"github.com/ccms-ucsd/resultview/internal/processors"
	"github.com/ccms-ucsd/resultview/internal/textio"
)

// KindTabular is the type tag of Tabular results.
const KindTabular = "tabular"

// Ensure Tabular implements the interfaces.
var (
	_ driven.IterableResult = (*Tabular)(nil)
	_ driven.PropertySetter = (*Tabular)(nil)
)

// Tabular is a result backed by a delimited row file with a header line.
type Tabular struct {
	env   Env
	kind  string
	owner driven.Result

	file      string
	outputDir string
	taskID    string
	block     string

	delimiter      rune
	fieldDelimiter rune

	reader     *textio.Reader
	loaded     bool
	fieldNames []string
	row        int
	err        error

	attrNames []string
	attrSeen  map[string]struct{}
	pipeline  *processors.Pipeline
	previous  []driven.Result

	// prepare runs before every load; variants use it to make sure their
	// backing file is built and selected.
	prepare func() error
}

// NewTabular creates a tabular result over a raw row file.
func NewTabular(env Env, file, outputDir, taskID, block string) (*Tabular, error) {
	t := newTabular(env, KindTabular, file, outputDir, taskID, block)
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTabularFrom creates a tabular result over the output of a previous
// stage, building that output first if needed.
func NewTabularFrom(env Env, previous driven.Result, outputDir, block string) (*Tabular, error) {
	t, err := chainTabular(env, KindTabular, previous, outputDir, block)
	if err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func newTabular(env Env, kind, file, outputDir, taskID, block string) *Tabular {
	if env.Gate == nil {
		env.Gate = ondemand.NewLoader()
	}
	t := &Tabular{
		env:            env,
		kind:           kind,
		file:           file,
		outputDir:      outputDir,
		taskID:         taskID,
		block:          block,
		delimiter:      domain.DefaultDelimiter,
		fieldDelimiter: domain.DefaultFieldDelimiter,
		attrSeen:       make(map[string]struct{}),
		pipeline:       processors.NewPipeline(),
	}
	t.owner = t
	return t
}

func chainTabular(env Env, kind string, previous driven.Result, outputDir, block string) (*Tabular, error) {
	if previous == nil {
		return nil, fmt.Errorf("%w: no previous result", domain.ErrSpecification)
	}
	if env.Gate == nil {
		env.Gate = ondemand.NewLoader()
	}
	if err := env.Gate.Load(previous); err != nil {
		return nil, fmt.Errorf("preparing previous %s result: %w", previous.Kind(), err)
	}

	t := newTabular(env, kind, previous.File(), outputDir, previous.TaskID(), block)
	if chained, ok := previous.(driven.IterableResult); ok {
		t.previous = append(t.previous, chained.Previous()...)
	}
	t.previous = append(t.previous, previous)
	return t, nil
}

func (t *Tabular) validate() error {
	if err := checkReadable(t.file); err != nil {
		return err
	}
	if err := checkWritableDir(t.outputDir); err != nil {
		return err
	}
	if t.taskID == "" {
		return fmt.Errorf("%w: task ID is required", domain.ErrInvalidInput)
	}
	return nil
}

// Kind returns the type tag of the result.
func (t *Tabular) Kind() string {
	return t.kind
}

// Load opens the backing file and reads the header line.
func (t *Tabular) Load() error {
	return t.load()
}

func (t *Tabular) load() error {
	if t.prepare != nil {
		if err := t.prepare(); err != nil {
			return err
		}
	}

	_ = t.Close()

	reader, err := textio.Open(t.file)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, t.file, err)
	}

	header, err := reader.ReadLine()
	if err != nil {
		reader.Close()
		if errors.Is(err, io.EOF) {
			return t.malformedHeader()
		}
		return fmt.Errorf("reading header of %s: %w", t.file, err)
	}

	names := textio.SplitRow(header, t.delimiter)
	if !hasNonBlank(names) {
		reader.Close()
		return t.malformedHeader()
	}

	t.reader = reader
	t.fieldNames = names
	t.loaded = true
	t.row = 0
	t.err = nil
	logger.Debug("loaded %s result %s (%d fields)", t.kind, t.file, len(names))
	return nil
}

func (t *Tabular) malformedHeader() error {
	return fmt.Errorf("%w: result file %s must contain a valid header line consisting of one or more non-empty field names",
		domain.ErrMalformedHeader, t.file)
}

// Close releases the read handle and forgets the header.
func (t *Tabular) Close() error {
	var err error
	if t.reader != nil {
		err = t.reader.Close()
		t.reader = nil
	}
	t.fieldNames = nil
	t.loaded = false
	return err
}

// IsLoaded reports whether the header has been read.
func (t *Tabular) IsLoaded() bool {
	return t.loaded
}

// HasNext reports whether another row is available, loading the result if needed.
func (t *Tabular) HasNext() bool {
	if !t.loaded {
		if err := t.load(); err != nil {
			t.err = err
			return false
		}
	}
	return t.reader.Ready()
}

// Next reads the next row and runs the attached processors over it.
func (t *Tabular) Next() (*domain.Hit, error) {
	if !t.HasNext() {
		if t.err != nil {
			return nil, t.err
		}
		return nil, domain.ErrNoMoreHits
	}

	line, err := t.reader.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrNoMoreHits
		}
		return nil, fmt.Errorf("reading %s: %w", t.file, err)
	}
	t.row++

	values := textio.SplitRow(line, t.delimiter)
	hit, err := domain.NewHit(t.fieldNames, values,
		domain.WithDelimiters(t.delimiter, t.fieldDelimiter),
		domain.WithAttributeHook(t.AddAttributeName))
	if err != nil {
		logger.Error("row %d of %s: %v\n%s", t.row, t.file, err, describeRow(t.fieldNames, values))
		return nil, fmt.Errorf("row %d of %s: %w", t.row, t.file, err)
	}

	if err := t.pipeline.Process(hit, t.owner); err != nil {
		return nil, fmt.Errorf("row %d of %s: %w", t.row, t.file, err)
	}
	return hit, nil
}

// Err returns the error that stopped HasNext, if any.
func (t *Tabular) Err() error {
	return t.err
}

// Restart reloads the result and iterates it from the first row.
func (t *Tabular) Restart() (driven.HitIterator, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Data drains the remaining rows into a JSON array and closes the result.
func (t *Tabular) Data() (string, error) {
	defer t.Close()

	var b strings.Builder
	b.WriteString("[")
	id := 0
	for t.HasNext() {
		hit, err := t.Next()
		if err != nil {
			return "", err
		}
		b.WriteString("\n\t")
		b.WriteString(encodeHit(hit, id))
		b.WriteString(",")
		id++
	}
	if t.err != nil {
		return "", t.err
	}

	out := strings.TrimSuffix(b.String(), ",")
	return out + "\n]", nil
}

// Size returns the backing file size once loaded.
func (t *Tabular) Size() (int64, bool) {
	if t.reader == nil {
		return 0, false
	}
	info, err := os.Stat(t.file)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

// File returns the backing file.
func (t *Tabular) File() string {
	return t.file
}

// OutputDirectory returns the directory derived files are written to.
func (t *Tabular) OutputDirectory() string {
	return t.outputDir
}

// TaskID returns the owning task.
func (t *Tabular) TaskID() string {
	return t.taskID
}

// Block returns the block the result was built for.
func (t *Tabular) Block() string {
	return t.block
}

// Previous returns the results this one was derived from, oldest first.
func (t *Tabular) Previous() []driven.Result {
	return append([]driven.Result(nil), t.previous...)
}

// AddProcessor attaches a processor after those already attached.
func (t *Tabular) AddProcessor(p driven.ResultProcessor) {
	t.pipeline.Add(p)
}

// Processors returns the attached processors in order.
func (t *Tabular) Processors() []driven.ResultProcessor {
	return t.pipeline.Processors()
}

// FieldNames returns the header fields, or nil when not loaded.
func (t *Tabular) FieldNames() []string {
	if t.fieldNames == nil {
		return nil
	}
	return append([]string(nil), t.fieldNames...)
}

// AttributeNames returns the attribute names seen so far.
func (t *Tabular) AttributeNames() []string {
	if len(t.attrNames) == 0 {
		return nil
	}
	return append([]string(nil), t.attrNames...)
}

// AddAttributeName records an attribute name once, keeping first-seen order.
func (t *Tabular) AddAttributeName(name string) {
	if _, ok := t.attrSeen[name]; ok {
		return
	}
	t.attrSeen[name] = struct{}{}
	t.attrNames = append(t.attrNames, name)
}

// HeaderLine joins field and attribute names with the row delimiter.
func (t *Tabular) HeaderLine() string {
	names := make([]string, 0, len(t.fieldNames)+len(t.attrNames))
	names = append(names, t.fieldNames...)
	names = append(names, t.attrNames...)
	return strings.Join(names, string(t.delimiter))
}

// Delimiter returns the row delimiter.
func (t *Tabular) Delimiter() rune {
	return t.delimiter
}

// FieldDelimiter returns the multi-value field delimiter.
func (t *Tabular) FieldDelimiter() rune {
	return t.fieldDelimiter
}

// SetDelimiter sets the row delimiter. The value must be one character.
func (t *Tabular) SetDelimiter(value string) error {
	r, err := singleChar(value)
	if err != nil {
		return err
	}
	t.delimiter = r
	return nil
}

// SetFieldDelimiter sets the multi-value field delimiter. The value must be one character.
func (t *Tabular) SetFieldDelimiter(value string) error {
	r, err := singleChar(value)
	if err != nil {
		return err
	}
	t.fieldDelimiter = r
	return nil
}

func (t *Tabular) properties() propertyTable {
	return propertyTable{
		"delimiter":      t.SetDelimiter,
		"fieldDelimiter": t.SetFieldDelimiter,
	}
}

// SetProperty applies a named property from a specification.
func (t *Tabular) SetProperty(name, value string) error {
	return t.properties().apply(t.kind, name, value)
}

// Execute succeeds when the backing file is readable.
func (t *Tabular) Execute() error {
	return checkReadable(t.file)
}

// ResourceExists reports whether the backing file exists.
func (t *Tabular) ResourceExists() bool {
	return fileExists(t.file)
}

// ResourceDated is always false; a raw file has no source to be older than.
func (t *Tabular) ResourceDated() bool {
	return false
}

// ResourceName returns the absolute backing file path.
func (t *Tabular) ResourceName() string {
	return absPath(t.file)
}

func singleChar(value string) (rune, error) {
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("%w: delimiter %q must be exactly one character", domain.ErrInvalidProperty, value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}

func hasNonBlank(names []string) bool {
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			return true
		}
	}
	return false
}

// describeRow lays out a rejected row next to the header for diagnostics.
func describeRow(names, values []string) string {
	var b strings.Builder
	n := max(len(names), len(values))
	for i := 0; i < n; i++ {
		name, value := "<none>", "<none>"
		if i < len(names) {
			name = fmt.Sprintf("%q", names[i])
		}
		if i < len(values) {
			value = fmt.Sprintf("%q", values[i])
		}
		fmt.Fprintf(&b, "\t%d: %s -> %s\n", i+1, name, value)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
