package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	assert.Equal(t, []string{"SQLite", "SortedTabular", "Tabular"}, r.Names())
	assert.True(t, r.Has("tabular"))
	assert.True(t, r.Has("Tabular"))
	assert.True(t, r.Has("sortedTabular"))
	assert.True(t, r.Has("SQLite"))
	assert.False(t, r.Has("value"))
}

func TestRegistry_NewFromFile(t *testing.T) {
	f := newFixture(t, "data.tsv", scores)
	r := NewRegistry()
	RegisterDefaults(r)

	tests := []struct {
		tag  string
		want string
	}{
		{"tabular", KindTabular},
		{"SortedTabular", KindSortedTabular},
		{"SQLite", KindSQLite},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			res, err := r.NewFromFile(tt.tag, f.env(), f.file, f.out, testTask, "blk")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Kind())
		})
	}
}

func TestRegistry_NewFromFileErrors(t *testing.T) {
	f := newFixture(t, "data.tsv", scores)
	r := NewRegistry()
	RegisterDefaults(r)

	res, err := r.NewFromFile("pepXML", f.env(), f.file, f.out, testTask, "blk")
	assert.ErrorIs(t, err, domain.ErrUnknownType)
	assert.True(t, res == nil)

	res, err = r.NewFromFile("tabular", f.env(), f.file+".missing", f.out, testTask, "blk")
	assert.ErrorIs(t, err, domain.ErrUnreadable)
	assert.True(t, res == nil, "constructor failures must not leak a typed nil")
}

func TestRegistry_NewFromChain(t *testing.T) {
	f := newFixture(t, "data.tsv", scores)
	r := NewRegistry()
	RegisterDefaults(r)
	env := f.env()

	first, err := r.NewFromFile("tabular", env, f.file, f.out, testTask, "blk")
	require.NoError(t, err)
	next, err := r.NewFromChain("sortedTabular", env, first, f.out, "blk")
	require.NoError(t, err)

	chained, ok := next.(driven.IterableResult)
	require.True(t, ok)
	assert.Len(t, chained.Previous(), 1)
}

func TestRegistry_MissingConstructor(t *testing.T) {
	f := newFixture(t, "data.tsv", scores)
	r := NewRegistry()
	r.Register(Kind{
		Name: "fileOnly",
		FromFile: func(env Env, file, outputDir, taskID, block string) (driven.Result, error) {
			return NewEmpty("", outputDir, taskID), nil
		},
	})

	first, err := r.NewFromFile("fileOnly", f.env(), f.file, f.out, testTask, "blk")
	require.NoError(t, err)

	_, err = r.NewFromChain("FileOnly", f.env(), first, f.out, "blk")
	assert.ErrorIs(t, err, domain.ErrSpecification)

	r.Register(Kind{Name: "chainOnly"})
	_, err = r.NewFromFile("chainOnly", f.env(), f.file, f.out, testTask, "blk")
	assert.ErrorIs(t, err, domain.ErrSpecification)
}
