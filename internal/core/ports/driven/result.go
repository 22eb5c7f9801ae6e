package driven

import "github.com/ccms-ucsd/resultview/internal/core/domain"

// OnDemandOperation is a derived resource that is built only when it is
// missing or older than its source.
type OnDemandOperation interface {
	// Execute builds the resource.
	Execute() error

	// ResourceExists reports whether the built resource is present.
	ResourceExists() bool

	// ResourceDated reports whether the resource is older than its source.
	ResourceDated() bool

	// ResourceName identifies the resource, normally an absolute path.
	ResourceName() string
}

// Result is a lazily loaded artifact derived from a workflow output file
// or from a previous result.
type Result interface {
	OnDemandOperation

	// Kind returns the registered type tag of the variant.
	Kind() string

	// Load opens the backing file and reads its schema.
	// Calling Load on a loaded result starts over.
	Load() error

	// Close releases the read handle. Safe to call more than once.
	Close() error

	// IsLoaded reports whether the result holds an open read handle.
	IsLoaded() bool

	// File returns the backing file path.
	File() string

	// OutputDirectory returns the directory derived files are written to.
	OutputDirectory() string

	// TaskID returns the owning task identifier.
	TaskID() string

	// Data renders the result for display. Results that only build files
	// return an empty string.
	Data() (string, error)

	// Size returns the size in bytes of the backing data. The second
	// result is false when the result is not loaded.
	Size() (int64, bool)
}

// HitIterator walks the rows of a result.
type HitIterator interface {
	// HasNext reports whether another row is available, loading the
	// result first if needed. Failures are reported by Err.
	HasNext() bool

	// Next returns the next row with every processor applied.
	Next() (*domain.Hit, error)

	// Err returns the first error met by HasNext.
	Err() error
}

// IterableResult is a result that can be walked row by row.
type IterableResult interface {
	Result
	HitIterator

	// Restart reloads the result and returns an iterator positioned on the
	// first row. It must not be used while another pass over the same
	// result is in flight.
	Restart() (HitIterator, error)

	// AddProcessor attaches a processor, run after those already attached.
	AddProcessor(p ResultProcessor)

	// Processors returns the attached processors in order.
	Processors() []ResultProcessor

	// FieldNames returns the header fields, or nil when not loaded.
	FieldNames() []string

	// AttributeNames returns the attribute names seen so far in first-seen order.
	AttributeNames() []string

	// AddAttributeName records an attribute name.
	AddAttributeName(name string)

	// HeaderLine renders field and attribute names joined by the delimiter.
	HeaderLine() string

	// Previous returns the results this one was derived from, oldest first.
	Previous() []Result
}

// PropertySetter accepts named string properties from a specification.
type PropertySetter interface {
	// SetProperty applies a property value. Unknown names fail with
	// domain.ErrUnknownProperty and rejected values with
	// domain.ErrInvalidProperty.
	SetProperty(name, value string) error
}
