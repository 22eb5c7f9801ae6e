// Package spec selects a specification loader by file extension.
package spec

import (
	"path/filepath"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/adapters/driven/spec/xmlspec"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/spec/yamlspec"
	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.SpecLoader = (*Loader)(nil)

// Loader reads .yaml and .yml documents as YAML and everything else as XML.
type Loader struct {
	xml  *xmlspec.Loader
	yaml *yamlspec.Loader
}

// NewLoader creates a loader for both document formats.
func NewLoader() *Loader {
	return &Loader{
		xml:  xmlspec.New(),
		yaml: yamlspec.New(),
	}
}

// Load reads the document at path.
func (l *Loader) Load(path string) (*domain.SpecNode, error) {
	return l.For(path).Load(path)
}

// For returns the loader used for path.
func (l *Loader) For(path string) driven.SpecLoader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return l.yaml
	default:
		return l.xml
	}
}
