package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccms-ucsd/resultview/internal/adapters/driven/storage/memory"
	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driving"
)

func buildSpec() *domain.SpecNode {
	return specDoc(
		blockNode("psms", dataNode(
			parserNode("sortedTabular", attr("sortBy", "score")),
			parserNode("SQLite"),
		)),
		blockNode("sorted", dataNode(parserNode("sortedTabular", attr("sortBy", "score")))),
		blockNode("plain", dataNode(parserNode("tabular"))),
		blockNode("title", domain.NewSpecNode(domain.ElementData).Append(
			domain.NewSpecNode(domain.ElementSource, attr("type", "value"), attr("value", "Task {task}")),
		)),
		blockNode("broken", dataNode(parserNode("tabular", attr("colour", "red")))),
		domain.NewSpecNode(domain.ElementBlock, attr("id", "nodata")),
	)
}

func TestBuildService_Build(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "psms.tsv", scoresTSV)
	svc := NewBuildService(env.factory)

	report, err := svc.Build(context.Background(), driving.BuildRequest{
		TaskID:  testTask,
		Spec:    buildSpec(),
		TempDir: env.temp,
		Targets: []driving.BlockTarget{
			{Block: "psms", ResultFile: file, OutputDir: env.out},
			{Block: "sorted", ResultFile: file, OutputDir: env.out},
		},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, driving.BuiltResult{
		Block:    "psms",
		Kind:     "SQLite",
		Resource: filepath.Join(env.out, "psms_psms.db"),
	}, report.Results[0])
	assert.Equal(t, "sortedTabular", report.Results[1].Kind)
	assert.FileExists(t, filepath.Join(env.out, "psms_psms.db"))
	assert.FileExists(t, filepath.Join(env.out, "sorted_psms.score_ascending.tsv"))
}

func TestBuildService_BuildCreatesTempDir(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "psms.tsv", scoresTSV)
	temp := filepath.Join(env.dir, "nested", "temp")

	_, err := NewBuildService(env.factory).Build(context.Background(), driving.BuildRequest{
		TaskID:  testTask,
		Spec:    buildSpec(),
		TempDir: temp,
		Targets: []driving.BlockTarget{{Block: "psms", ResultFile: file, OutputDir: env.out}},
	})
	require.NoError(t, err)
	assert.DirExists(t, temp)
}

func TestBuildService_BuildValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "psms.tsv", scoresTSV)
	good := driving.BlockTarget{Block: "psms", ResultFile: file, OutputDir: env.out}

	tests := []struct {
		name    string
		req     driving.BuildRequest
		wantErr error
	}{
		{
			name:    "no task",
			req:     driving.BuildRequest{Spec: buildSpec(), Targets: []driving.BlockTarget{good}},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "no spec",
			req:     driving.BuildRequest{TaskID: testTask, Targets: []driving.BlockTarget{good}},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "no targets",
			req:     driving.BuildRequest{TaskID: testTask, Spec: buildSpec()},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "duplicate block",
			req:     driving.BuildRequest{TaskID: testTask, Spec: buildSpec(), Targets: []driving.BlockTarget{good, good}},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "missing result file",
			req: driving.BuildRequest{TaskID: testTask, Spec: buildSpec(), Targets: []driving.BlockTarget{
				{Block: "psms", ResultFile: filepath.Join(env.dir, "none.tsv"), OutputDir: env.out},
			}},
			wantErr: domain.ErrUnreadable,
		},
		{
			name: "no result file",
			req: driving.BuildRequest{TaskID: testTask, Spec: buildSpec(), Targets: []driving.BlockTarget{
				{Block: "psms", OutputDir: env.out},
			}},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "output dir missing",
			req: driving.BuildRequest{TaskID: testTask, Spec: buildSpec(), Targets: []driving.BlockTarget{
				{Block: "psms", ResultFile: file, OutputDir: filepath.Join(env.dir, "nope")},
			}},
			wantErr: domain.ErrUnwritable,
		},
		{
			name: "output dir is a file",
			req: driving.BuildRequest{TaskID: testTask, Spec: buildSpec(), Targets: []driving.BlockTarget{
				{Block: "psms", ResultFile: file, OutputDir: file},
			}},
			wantErr: domain.ErrUnwritable,
		},
	}

	svc := NewBuildService(env.factory)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.TempDir = env.temp
			report, err := svc.Build(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)
		})
	}
}

func TestBuildService_BuildStopsAtFirstFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "psms.tsv", scoresTSV)

	report, err := NewBuildService(env.factory).Build(context.Background(), driving.BuildRequest{
		TaskID:  testTask,
		Spec:    buildSpec(),
		TempDir: env.temp,
		Targets: []driving.BlockTarget{
			{Block: "plain", ResultFile: file, OutputDir: env.out},
			{Block: "broken", ResultFile: file, OutputDir: env.out},
			{Block: "sorted", ResultFile: file, OutputDir: env.out},
		},
	})

	assert.ErrorIs(t, err, domain.ErrUnknownProperty)
	require.NotNil(t, report)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "plain", report.Results[0].Block)
	assert.NoFileExists(t, filepath.Join(env.out, "sorted_psms.score_ascending.tsv"))
}

func TestBuildService_BuildUnknownBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "psms.tsv", scoresTSV)
	svc := NewBuildService(env.factory)

	for block, wantErr := range map[string]error{
		"missing": domain.ErrNotFound,
		"nodata":  domain.ErrSpecification,
	} {
		t.Run(block, func(t *testing.T) {
			_, err := svc.Build(context.Background(), driving.BuildRequest{
				TaskID:  testTask,
				Spec:    buildSpec(),
				TempDir: env.temp,
				Targets: []driving.BlockTarget{{Block: block, ResultFile: file, OutputDir: env.out}},
			})
			assert.ErrorIs(t, err, wantErr)
		})
	}
}

func TestBuildService_BuildToolFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.factory.runner = nil
	file := env.writeFile(t, "psms.tsv", scoresTSV)

	_, err := NewBuildService(env.factory).Build(context.Background(), driving.BuildRequest{
		TaskID:  testTask,
		Spec:    buildSpec(),
		TempDir: env.temp,
		Targets: []driving.BlockTarget{{Block: "psms", ResultFile: file, OutputDir: env.out}},
	})
	assert.ErrorIs(t, err, domain.ErrBuildFailed)
}

func TestBuildService_Render(t *testing.T) {
	env := newTestEnv(t, nil)
	file := env.writeFile(t, "psms.tsv", scoresTSV)

	data, err := NewBuildService(env.factory).Render(context.Background(), driving.RenderRequest{
		TaskID:  testTask,
		Spec:    buildSpec(),
		TempDir: env.temp,
		Target:  driving.BlockTarget{Block: "sorted", ResultFile: file, OutputDir: env.out},
	})
	require.NoError(t, err)

	parsed, err := oj.ParseString(data)
	require.NoError(t, err)
	rows := parsed.([]any)
	require.Len(t, rows, 3)
	for i, want := range []string{"a", "b", "c"} {
		row := rows[i].(map[string]any)
		assert.Equal(t, want, row["name"])
	}
}

func TestBuildService_RenderValue(t *testing.T) {
	env := newTestEnv(t, nil)

	data, err := NewBuildService(env.factory).Render(context.Background(), driving.RenderRequest{
		TaskID:  testTask,
		Spec:    buildSpec(),
		TempDir: env.temp,
		Params:  map[string]string{"task": "42"},
		Target:  driving.BlockTarget{Block: "title", OutputDir: env.out},
	})
	require.NoError(t, err)
	assert.Equal(t, `"Task 42"`, data)
}

func TestBuildService_RenderCancelled(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuildService(env.factory).Render(ctx, driving.RenderRequest{
		TaskID: testTask,
		Spec:   buildSpec(),
		Target: driving.BlockTarget{Block: "title", OutputDir: env.out},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildService_Describe(t *testing.T) {
	store := memory.NewUploadStore(driven.Upload{TaskID: testTask, SavedAs: "a", OriginalName: "alpha"})
	env := newTestEnv(t, NewUploadNameCache(store))
	file := env.writeFile(t, "psms.tsv", scoresTSV)
	spec := specDoc(blockNode("named", dataNode(
		parserNode("tabular").Append(processorNode("uploadFilename", attr("field", "name"))),
	)))

	summary, err := NewBuildService(env.factory).Describe(context.Background(), driving.RenderRequest{
		TaskID:  testTask,
		Spec:    spec,
		TempDir: env.temp,
		Target:  driving.BlockTarget{Block: "named", ResultFile: file, OutputDir: env.out},
	})
	require.NoError(t, err)

	assert.Equal(t, "named", summary.Block)
	assert.Equal(t, "tabular", summary.Kind)
	assert.Equal(t, file, summary.File)
	assert.Equal(t, []string{"name", "score"}, summary.Fields)
	assert.Equal(t, []string{"internalFilename"}, summary.Attributes)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, int64(len(scoresTSV)), summary.Size)
}

func TestBuildService_DescribeValue(t *testing.T) {
	env := newTestEnv(t, nil)

	summary, err := NewBuildService(env.factory).Describe(context.Background(), driving.RenderRequest{
		TaskID:  testTask,
		Spec:    buildSpec(),
		TempDir: env.temp,
		Params:  map[string]string{"task": "7"},
		Target:  driving.BlockTarget{Block: "title", OutputDir: env.out},
	})
	require.NoError(t, err)

	assert.Equal(t, "empty", summary.Kind)
	assert.Zero(t, summary.Rows)
	assert.Equal(t, int64(len("Task 7")), summary.Size)
	assert.Nil(t, summary.Fields)
}
