package ondemand

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
)

// fakeOperation records Execute calls and toggles existence on success.
type fakeOperation struct {
	name     string
	exists   bool
	dated    bool
	err      error
	produce  bool
	executed int
}

func (f *fakeOperation) Execute() error {
	f.executed++
	if f.err != nil {
		return f.err
	}
	if f.produce {
		f.exists = true
		f.dated = false
	}
	return nil
}

func (f *fakeOperation) ResourceExists() bool { return f.exists }
func (f *fakeOperation) ResourceDated() bool  { return f.dated }
func (f *fakeOperation) ResourceName() string { return f.name }

func TestLoader_SkipsFreshResource(t *testing.T) {
	op := &fakeOperation{name: "/out/a.db", exists: true}

	require.NoError(t, NewLoader().Load(op))
	assert.Equal(t, 0, op.executed)
}

func TestLoader_BuildsMissingResource(t *testing.T) {
	l := NewLoader()
	op := &fakeOperation{name: "/out/a.db", produce: true}

	require.NoError(t, l.Load(op))
	assert.Equal(t, 1, op.executed)
	assert.True(t, l.Built("/out/a.db"))
}

func TestLoader_RebuildsDatedResource(t *testing.T) {
	op := &fakeOperation{name: "/out/a.db", exists: true, dated: true, produce: true}

	require.NoError(t, NewLoader().Load(op))
	assert.Equal(t, 1, op.executed)
}

func TestLoader_ExecutesAtMostOnce(t *testing.T) {
	l := NewLoader()
	op := &fakeOperation{name: "/out/a.db", produce: true}

	require.NoError(t, l.Load(op))
	op.dated = true
	require.NoError(t, l.Load(op))

	assert.Equal(t, 1, op.executed)
}

func TestLoader_FailureIsRecorded(t *testing.T) {
	l := NewLoader()
	op := &fakeOperation{name: "/out/a.db", err: errors.New("sqlite3 exited with 1")}

	err := l.Load(op)
	assert.ErrorIs(t, err, domain.ErrBuildFailed)
	assert.Contains(t, err.Error(), "sqlite3 exited with 1")

	err = l.Load(op)
	assert.ErrorIs(t, err, domain.ErrBuildFailed)
	assert.Equal(t, 1, op.executed)
	assert.False(t, l.Built("/out/a.db"))
}

func TestLoader_ResourceNotProduced(t *testing.T) {
	op := &fakeOperation{name: "/out/a.db"}

	err := NewLoader().Load(op)
	assert.ErrorIs(t, err, domain.ErrBuildFailed)
}

func TestLoader_NilOperation(t *testing.T) {
	err := NewLoader().Load(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
