package driven

import "github.com/ccms-ucsd/resultview/internal/core/domain"

// SpecLoader parses a result-view specification document into a tree.
type SpecLoader interface {
	// Load reads the document at path.
	Load(path string) (*domain.SpecNode, error)
}
