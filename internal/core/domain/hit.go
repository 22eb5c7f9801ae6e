package domain

import (
	"fmt"
	"strings"
)

// Default delimiters of tabular row files.
const (
	DefaultDelimiter      = '\t'
	DefaultFieldDelimiter = '!'
)

// Hit is one row of a tabular result.
//
// Field values come from the row file and keep header order. Attributes
// are added by processors while the row is being iterated and keep the
// order in which they were first set.
type Hit struct {
	fieldNames     []string
	fieldValues    []string
	attrNames      []string
	attrs          map[string]string
	delimiter      rune
	fieldDelimiter rune
	onAttribute    func(name string)
}

// HitOption configures a Hit.
type HitOption func(*Hit)

// WithDelimiters sets the row delimiter and the multi-value field delimiter.
func WithDelimiters(delimiter, fieldDelimiter rune) HitOption {
	return func(h *Hit) {
		h.delimiter = delimiter
		h.fieldDelimiter = fieldDelimiter
	}
}

// WithAttributeHook registers a callback run whenever an attribute is set.
// Owning results use it to track attribute names across rows.
func WithAttributeHook(fn func(name string)) HitOption {
	return func(h *Hit) {
		h.onAttribute = fn
	}
}

// NewHit creates a hit for one row. The row must have one value per field
// name; extra trailing cells on either side are tolerated only when they
// are blank.
func NewHit(fieldNames, fieldValues []string, opts ...HitOption) (*Hit, error) {
	if fieldNames == nil {
		return nil, fmt.Errorf("%w: no field names", ErrNotLoaded)
	}
	if err := CheckRowConsistency(fieldNames, fieldValues); err != nil {
		return nil, err
	}

	h := &Hit{
		fieldNames:     fieldNames,
		fieldValues:    fieldValues,
		attrs:          make(map[string]string),
		delimiter:      DefaultDelimiter,
		fieldDelimiter: DefaultFieldDelimiter,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// CheckRowConsistency reports whether a row can be paired with a header.
// When the lengths differ, the surplus trailing entries of the longer list
// must all be blank.
func CheckRowConsistency(fieldNames, fieldValues []string) error {
	if len(fieldNames) == len(fieldValues) {
		return nil
	}

	longer, shorter := fieldValues, fieldNames
	if len(fieldNames) > len(fieldValues) {
		longer, shorter = fieldNames, fieldValues
	}
	for _, extra := range longer[len(shorter):] {
		if strings.TrimSpace(extra) != "" {
			return fmt.Errorf("%w: the number of items in \"fieldValues\" (%d) must match the number of items in \"fieldNames\" (%d)",
				ErrRowInconsistent, len(fieldValues), len(fieldNames))
		}
	}
	return nil
}

// FieldNames returns the field names of the owning result.
func (h *Hit) FieldNames() []string {
	return append([]string(nil), h.fieldNames...)
}

// FieldValue returns the value of the named field. The second result is
// false when the field does not exist or the row has no cell for it.
func (h *Hit) FieldValue(name string) (string, bool) {
	idx := h.fieldIndex(name)
	if idx < 0 || idx >= len(h.fieldValues) {
		return "", false
	}
	return h.fieldValues[idx], true
}

// FieldValues splits the named field on the field delimiter. Trailing empty
// sub-values are dropped; a value made only of delimiters is returned whole.
func (h *Hit) FieldValues(name string) ([]string, bool) {
	value, ok := h.FieldValue(name)
	if !ok {
		return nil, false
	}
	parts := strings.Split(value, string(h.fieldDelimiter))
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return []string{value}, true
	}
	return parts, true
}

// FirstFieldValue returns the first sub-value of a multi-value field.
func (h *Hit) FirstFieldValue(name string) (string, bool) {
	values, ok := h.FieldValues(name)
	if !ok || len(values) == 0 {
		return h.FieldValue(name)
	}
	return values[0], true
}

// SetFieldValue replaces the value of an existing field.
// Unknown field names are ignored.
func (h *Hit) SetFieldValue(name, value string) {
	idx := h.fieldIndex(name)
	if idx < 0 {
		return
	}
	for len(h.fieldValues) <= idx {
		h.fieldValues = append(h.fieldValues, "")
	}
	h.fieldValues[idx] = value
}

// Attribute returns the value of the named attribute.
func (h *Hit) Attribute(name string) (string, bool) {
	v, ok := h.attrs[name]
	return v, ok
}

// SetAttribute sets an attribute, keeping the position of its first insertion.
func (h *Hit) SetAttribute(name, value string) {
	if _, exists := h.attrs[name]; !exists {
		h.attrNames = append(h.attrNames, name)
	}
	h.attrs[name] = value
	if h.onAttribute != nil {
		h.onAttribute(name)
	}
}

// AttributeNames returns the attribute names in insertion order,
// or nil when the hit has none.
func (h *Hit) AttributeNames() []string {
	if len(h.attrNames) == 0 {
		return nil
	}
	return append([]string(nil), h.attrNames...)
}

// Entry is one key of a hit's serialised form.
// Present is false for fields with no cell in the row.
type Entry struct {
	Key     string
	Value   string
	Present bool
}

// Entries returns fields then attributes in serialisation order.
func (h *Hit) Entries() []Entry {
	entries := make([]Entry, 0, len(h.fieldNames)+len(h.attrNames))
	for _, name := range h.fieldNames {
		v, ok := h.FieldValue(name)
		entries = append(entries, Entry{Key: name, Value: v, Present: ok})
	}
	for _, name := range h.attrNames {
		entries = append(entries, Entry{Key: name, Value: h.attrs[name], Present: true})
	}
	return entries
}

// RowLine renders field values then attribute values joined by the row
// delimiter. Missing cells render as "null".
func (h *Hit) RowLine() string {
	entries := h.Entries()
	values := make([]string, len(entries))
	for i, e := range entries {
		if e.Present {
			values[i] = e.Value
		} else {
			values[i] = "null"
		}
	}
	return strings.Join(values, string(h.delimiter))
}

// HeaderLine renders field names then attribute names joined by the row delimiter.
func (h *Hit) HeaderLine() string {
	names := make([]string, 0, len(h.fieldNames)+len(h.attrNames))
	names = append(names, h.fieldNames...)
	names = append(names, h.attrNames...)
	return strings.Join(names, string(h.delimiter))
}

// String implements fmt.Stringer.
func (h *Hit) String() string {
	return h.RowLine()
}

func (h *Hit) fieldIndex(name string) int {
	for i, n := range h.fieldNames {
		if n == name {
			return i
		}
	}
	return -1
}
