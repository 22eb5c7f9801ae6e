package processors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
)

func newTestHit(t *testing.T) *domain.Hit {
	t.Helper()
	hit, err := domain.NewHit([]string{"a"}, []string{"1"})
	require.NoError(t, err)
	return hit
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	require.NotNil(t, p)
	assert.Equal(t, 0, p.Len())
}

func TestPipeline_Add(t *testing.T) {
	var log []string
	p := NewPipeline()
	p.Add(&recordingProcessor{name: "one", log: &log})

	assert.Equal(t, 1, p.Len())
	assert.Len(t, p.Processors(), 1)
}

func TestPipeline_Process_NilHit(t *testing.T) {
	err := NewPipeline().Process(nil, nil)
	assert.Error(t, err)
}

func TestPipeline_Process_AttachmentOrder(t *testing.T) {
	var log []string
	p := NewPipeline(
		&recordingProcessor{name: "first", log: &log},
		&recordingProcessor{name: "second", log: &log},
	)
	p.Add(&recordingProcessor{name: "third", log: &log})

	hit := newTestHit(t)
	require.NoError(t, p.Process(hit, nil))

	assert.Equal(t, []string{"first", "second", "third"}, log)
	v, _ := hit.Attribute("last")
	assert.Equal(t, "third", v)
}

func TestPipeline_Process_StopsAtError(t *testing.T) {
	var log []string
	p := NewPipeline(
		&recordingProcessor{name: "broken", log: &log, err: errors.New("boom")},
		&recordingProcessor{name: "after", log: &log},
	)

	err := p.Process(newTestHit(t), nil)

	assert.ErrorContains(t, err, "processor broken: boom")
	assert.Empty(t, log)
}
