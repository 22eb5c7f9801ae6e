package processors

import (
	"fmt"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Pipeline runs processors over a hit in attachment order.
type Pipeline struct {
	processors []driven.ResultProcessor
}

// NewPipeline creates a pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.ResultProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process applies every processor to the hit, stopping at the first error.
func (p *Pipeline) Process(hit *domain.Hit, owner driven.Result) error {
	if hit == nil {
		return fmt.Errorf("hit is nil")
	}

	for _, processor := range p.processors {
		if err := processor.ProcessHit(hit, owner); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.ResultProcessor) {
	p.processors = append(p.processors, processor)
}

// Processors returns a copy of the attached processors.
func (p *Pipeline) Processors() []driven.ResultProcessor {
	return append([]driven.ResultProcessor(nil), p.processors...)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
