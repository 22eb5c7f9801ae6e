// Package uploadname replaces stored upload file names in hits with the
// names the files were originally uploaded under.
package uploadname

import (
	"fmt"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Name is the type tag of the processor.
const Name = "uploadFilename"

// InternalFilenameAttribute records the stored name of the file.
const InternalFilenameAttribute = "internalFilename"

// Processor rewrites one field or attribute holding a file path.
type Processor struct {
	field string
	names driven.OriginalNameResolver
}

// New creates a processor backed by the given resolver. A nil resolver
// leaves stored names unchanged.
func New(names driven.OriginalNameResolver) *Processor {
	return &Processor{names: names}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Field returns the configured field name.
func (p *Processor) Field() string {
	return p.field
}

// SetProperty accepts the "field" property.
func (p *Processor) SetProperty(name, value string) error {
	switch domain.LowerFirst(name) {
	case "field":
		p.field = value
		return nil
	default:
		return fmt.Errorf("%w: %q on processor %s", domain.ErrUnknownProperty, name, Name)
	}
}

// ProcessHit looks up the original name of the file referenced by the
// configured field, falling back to an attribute of the same name.
func (p *Processor) ProcessHit(hit *domain.Hit, owner driven.Result) error {
	if hit == nil || owner == nil || p.field == "" {
		return nil
	}

	isField := true
	value, ok := hit.FirstFieldValue(p.field)
	if !ok {
		value, ok = hit.Attribute(p.field)
		isField = false
	}
	if !ok {
		return nil
	}

	filename := baseName(value)
	uploadName := filename
	if p.names != nil {
		original, found, err := p.names.OriginalName(owner.TaskID(), filename)
		if err != nil {
			return fmt.Errorf("resolving original name of %q: %w", filename, err)
		}
		if found {
			uploadName = baseName(original)
		}
	}

	if isField {
		hit.SetFieldValue(p.field, uploadName)
	} else {
		hit.SetAttribute(p.field, uploadName)
	}

	if _, set := hit.Attribute(InternalFilenameAttribute); !set {
		hit.SetAttribute(InternalFilenameAttribute, filename)
	}
	return nil
}

// baseName returns the last element of a Unix or Windows path.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
