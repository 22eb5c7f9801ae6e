package processors

import (
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/processors/uploadname"
)

// Dependencies are the collaborators built-in processors may need.
type Dependencies struct {
	// Names resolves original upload names. May be nil.
	Names driven.OriginalNameResolver
}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry, deps Dependencies) {
	r.Register(uploadname.Name, func() (driven.ResultProcessor, error) {
		return uploadname.New(deps.Names), nil
	})
}
