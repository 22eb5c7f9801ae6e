package driven

import "github.com/ccms-ucsd/resultview/internal/core/domain"

// ResultProcessor mutates a hit in place while its owning result is iterated.
type ResultProcessor interface {
	// Name returns the processor identifier (e.g., "uploadFilename").
	Name() string

	// ProcessHit updates the hit. The owner gives access to the task ID
	// and attribute registration.
	ProcessHit(hit *domain.Hit, owner Result) error
}
