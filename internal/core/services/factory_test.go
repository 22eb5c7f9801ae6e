package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccms-ucsd/resultview/internal/adapters/driven/storage/memory"
	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/processors/uploadname"
	"github.com/ccms-ucsd/resultview/internal/results"
)

const scoresTSV = "name\tscore\nc\t3\na\t1\nb\t2\n"

func TestCreateResult_ValueSource(t *testing.T) {
	env := newTestEnv(t, nil)
	data := domain.NewSpecNode(domain.ElementData).Append(
		domain.NewSpecNode(domain.ElementSource, attr("type", "value"), attr("value", "{greeting}, world")),
	)

	r, err := env.factory.CreateResult(env.request(data, "", map[string]string{"greeting": "hello"}))
	require.NoError(t, err)

	empty, ok := r.(*results.Empty)
	require.True(t, ok)
	assert.True(t, empty.IsLoaded())
	assert.Equal(t, "hello, world", empty.Value())
	out, err := empty.Data()
	require.NoError(t, err)
	assert.Equal(t, `"hello, world"`, out)
}

func TestCreateResult_NoFileWithoutValue(t *testing.T) {
	tests := []struct {
		name   string
		source *domain.SpecNode
	}{
		{name: "file source", source: domain.NewSpecNode(domain.ElementSource, attr("type", "file"))},
		{name: "untyped source", source: domain.NewSpecNode(domain.ElementSource, attr("value", "x"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			data := domain.NewSpecNode(domain.ElementData).Append(tt.source)

			r, err := env.factory.CreateResult(env.request(data, "", nil))
			require.NoError(t, err)
			assert.Equal(t, results.KindEmpty, r.Kind())
			assert.Empty(t, r.(*results.Empty).Value())
		})
	}
}

func TestCreateResult_SingleStage(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "data.tsv", scoresTSV)

	r, err := env.factory.CreateResult(env.request(dataNode(parserNode("tabular")), file, nil))
	require.NoError(t, err)

	assert.True(t, r.IsLoaded())
	assert.Equal(t, results.KindTabular, r.Kind())
	assert.Equal(t, []string{"c", "a", "b"}, values(drainHits(t, r), "name"))
}

func TestCreateResult_AttributesAndParametersAreProperties(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "data.tsv", scoresTSV)
	parser := parserNode("sortedTabular", attr("sortBy", "{column}")).Append(
		domain.NewSpecNode(domain.ElementParameter, attr("name", "operator"), attr("value", "{direction}")),
		domain.NewSpecNode(domain.ElementParameter, attr("name", "ignored")),
	)
	params := map[string]string{"column": "score", "direction": "descending"}

	r, err := env.factory.CreateResult(env.request(dataNode(parser), file, params))
	require.NoError(t, err)

	sorted, ok := r.(*results.SortedTabular)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(env.out, "blk_data.score_descending.tsv"), sorted.File())
	assert.Equal(t, []string{"3", "2", "1"}, values(drainHits(t, r), "score"))
}

func TestCreateResult_ChainWritesIntermediatesToTemp(t *testing.T) {
	var b strings.Builder
	b.WriteString("name\tscore\n")
	for i := 501; i > 0; i-- {
		fmt.Fprintf(&b, "row%d\t%d\n", i, i)
	}
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "psms.tsv", b.String())
	data := dataNode(
		parserNode("sortedTabular", attr("sortBy", "score")),
		parserNode("SQLite"),
	)

	r, err := env.factory.CreateResult(env.request(data, file, nil))
	require.NoError(t, err)

	db, ok := r.(*results.SQLite)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(env.out, "blk_psms.db"), db.Database())
	assert.FileExists(t, db.Database())
	assert.FileExists(t, filepath.Join(env.temp, "blk_psms.score_ascending.tsv"))
	assert.Equal(t, 2, strings.Count(env.runner.script, "INSERT INTO Result SELECT"))

	prev := db.Previous()
	require.Len(t, prev, 1)
	assert.Equal(t, results.KindSortedTabular, prev[0].Kind())
}

func TestCreateResult_Processors(t *testing.T) {
	store := memory.NewUploadStore(
		driven.Upload{TaskID: testTask, SavedAs: "f1.mgf", OriginalName: "spectra.mgf"},
	)
	env := newTestEnv(t, NewUploadNameCache(store))
	file := env.writeFile(t, "data.tsv", "file\tscore\n/data/f1.mgf\t1\nf2.mgf\t2\n")

	parser := parserNode("tabular").Append(processorNode("uploadFilename", attr("field", "file")))
	data := dataNode(parser)
	data.Append(domain.NewSpecNode(domain.ElementProcessors).Append(
		processorNode("UploadFilename", attr("Field", "file")),
	))

	r, err := env.factory.CreateResult(env.request(data, file, nil))
	require.NoError(t, err)

	iterable := r.(driven.IterableResult)
	procs := iterable.Processors()
	require.Len(t, procs, 2)
	assert.Equal(t, "file", procs[0].(*uploadname.Processor).Field())
	assert.Equal(t, "file", procs[1].(*uploadname.Processor).Field())

	hits := drainHits(t, r)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"spectra.mgf", "f2.mgf"}, values(hits, "file"))
	// The second pass finds no entry for the original name and keeps the
	// stored name recorded by the first.
	internal, ok := hits[0].Attribute(uploadname.InternalFilenameAttribute)
	assert.True(t, ok)
	assert.Equal(t, "f1.mgf", internal)
	assert.Equal(t, []string{uploadname.InternalFilenameAttribute}, iterable.AttributeNames())
}

func TestCreateResult_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    *domain.SpecNode
		params  map[string]string
		content string
		wantErr error
	}{
		{
			name:    "missing parser type",
			data:    dataNode(domain.NewSpecNode(domain.ElementParser)),
			wantErr: domain.ErrMissingType,
		},
		{
			name:    "unknown parser type",
			data:    dataNode(parserNode("pepXML")),
			wantErr: domain.ErrUnknownType,
		},
		{
			name:    "unknown property",
			data:    dataNode(parserNode("tabular", attr("colour", "red"))),
			wantErr: domain.ErrUnknownProperty,
		},
		{
			name: "unknown parameter property",
			data: dataNode(parserNode("tabular").Append(
				domain.NewSpecNode(domain.ElementParameter, attr("name", "colour"), attr("value", "red")))),
			wantErr: domain.ErrUnknownProperty,
		},
		{
			name:    "invalid property value",
			data:    dataNode(parserNode("tabular", attr("delimiter", "ab"))),
			wantErr: domain.ErrInvalidProperty,
		},
		{
			name:    "recursive parameter",
			data:    dataNode(parserNode("sortedTabular", attr("sortBy", "{column}"))),
			params:  map[string]string{"column": "{other}"},
			wantErr: domain.ErrRecursiveParameter,
		},
		{
			name:    "no parsers",
			data:    dataNode(),
			wantErr: domain.ErrSpecification,
		},
		{
			name:    "processor without type",
			data:    dataNode(parserNode("tabular").Append(domain.NewSpecNode(domain.ElementProcessor))),
			wantErr: domain.ErrMissingType,
		},
		{
			name:    "unknown processor",
			data:    dataNode(parserNode("tabular").Append(processorNode("spectrumLink"))),
			wantErr: domain.ErrUnknownType,
		},
		{
			name:    "unknown processor property",
			data:    dataNode(parserNode("tabular").Append(processorNode("uploadFilename", attr("column", "x")))),
			wantErr: domain.ErrUnknownProperty,
		},
		{
			name:    "malformed header",
			data:    dataNode(parserNode("tabular")),
			content: "\t\n1\t2\n",
			wantErr: domain.ErrMalformedHeader,
		},
		{
			name:    "unknown sort column",
			data:    dataNode(parserNode("sortedTabular", attr("sortBy", "missing"))),
			wantErr: domain.ErrSortColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			content := tt.content
			if content == "" {
				content = scoresTSV
			}
			file := env.writeFile(t, "data.tsv", content)

			r, err := env.factory.CreateResult(env.request(tt.data, file, tt.params))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, r == nil, "no partial result on failure")
		})
	}
}

func TestCreateResult_ProcessorOnNonIterable(t *testing.T) {
	env := newTestEnv(t, nil)
	env.results.Register(results.Kind{
		Name: "constant",
		FromFile: func(_ results.Env, _, outputDir, taskID, _ string) (driven.Result, error) {
			return results.NewEmpty("x", outputDir, taskID), nil
		},
	})
	file := env.writeFile(t, "data.tsv", scoresTSV)
	data := dataNode(parserNode("constant").Append(processorNode("uploadFilename")))

	r, err := env.factory.CreateResult(env.request(data, file, nil))
	assert.ErrorIs(t, err, domain.ErrNotIterable)
	assert.True(t, r == nil)
}

func TestCreateResult_NilData(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.factory.CreateResult(env.request(nil, "", nil))
	assert.ErrorIs(t, err, domain.ErrSpecification)
}

func TestSourceValue(t *testing.T) {
	tests := []struct {
		name   string
		source *domain.SpecNode
		want   string
	}{
		{name: "nil", source: nil, want: ""},
		{name: "value", source: domain.NewSpecNode("source", attr("type", "VaLuE"), attr("value", "v")), want: "v"},
		{name: "value without value attribute", source: domain.NewSpecNode("source", attr("type", "value")), want: ""},
		{name: "parameterised type", source: domain.NewSpecNode("source", attr("type", "{kind}"), attr("value", "v")), want: "v"},
		{name: "file", source: domain.NewSpecNode("source", attr("type", "file"), attr("value", "v")), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SourceValue(tt.source, map[string]string{"kind": "value"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
