package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccms-ucsd/resultview/internal/adapters/driven/sorter/native"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/sqlexec/embedded"
	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/processors"
	"github.com/ccms-ucsd/resultview/internal/results"
)

const testTask = "task-1"

// scriptRecorder keeps the last generated SQL script before running it in process.
type scriptRecorder struct {
	next   driven.ScriptRunner
	script string
}

func (r *scriptRecorder) Run(ctx context.Context, scriptPath, dbPath string) (driven.ScriptOutcome, error) {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return driven.ScriptOutcome{}, err
	}
	r.script = string(data)
	return r.next.Run(ctx, scriptPath, dbPath)
}

func (r *scriptRecorder) BenignExitCode(code int) bool {
	return r.next.BenignExitCode(code)
}

type testEnv struct {
	dir     string
	out     string
	temp    string
	runner  *scriptRecorder
	factory *ResultFactory
	results *results.Registry
}

func newTestEnv(t *testing.T, names driven.OriginalNameResolver) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:     dir,
		out:     filepath.Join(dir, "out"),
		temp:    filepath.Join(dir, "temp"),
		runner:  &scriptRecorder{next: embedded.New()},
		results: results.NewRegistry(),
	}
	require.NoError(t, os.MkdirAll(env.out, 0o755))
	require.NoError(t, os.MkdirAll(env.temp, 0o755))

	results.RegisterDefaults(env.results)
	procs := processors.NewRegistry()
	processors.RegisterDefaults(procs, processors.Dependencies{Names: names})
	env.factory = NewResultFactory(env.results, procs, native.New(), env.runner)
	return env
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) request(data *domain.SpecNode, file string, params map[string]string) CreateRequest {
	return CreateRequest{
		Data:       data,
		ResultFile: file,
		TempDir:    e.temp,
		OutputDir:  e.out,
		TaskID:     testTask,
		Block:      "blk",
		Params:     params,
	}
}

func attr(name, value string) domain.Attr {
	return domain.Attr{Name: name, Value: value}
}

func parserNode(kind string, attrs ...domain.Attr) *domain.SpecNode {
	return domain.NewSpecNode(domain.ElementParser, append([]domain.Attr{attr("type", kind)}, attrs...)...)
}

func processorNode(kind string, attrs ...domain.Attr) *domain.SpecNode {
	return domain.NewSpecNode(domain.ElementProcessor, append([]domain.Attr{attr("type", kind)}, attrs...)...)
}

// dataNode builds a data element reading a file source through the given parsers.
func dataNode(parsers ...*domain.SpecNode) *domain.SpecNode {
	return domain.NewSpecNode(domain.ElementData).Append(
		domain.NewSpecNode(domain.ElementSource, attr("type", "file"), attr("name", "result")),
		domain.NewSpecNode(domain.ElementParsers).Append(parsers...),
	)
}

// specDoc wraps blocks in a view document.
func specDoc(blocks ...*domain.SpecNode) *domain.SpecNode {
	return domain.NewSpecNode(domain.ElementView, attr("id", "view")).Append(blocks...)
}

func blockNode(id string, data *domain.SpecNode) *domain.SpecNode {
	return domain.NewSpecNode(domain.ElementBlock, attr("id", id)).Append(data)
}

func drainHits(t *testing.T, r driven.Result) []*domain.Hit {
	t.Helper()
	it, ok := r.(driven.IterableResult)
	require.True(t, ok, "result is not iterable")
	var hits []*domain.Hit
	for it.HasNext() {
		hit, err := it.Next()
		require.NoError(t, err)
		hits = append(hits, hit)
	}
	require.NoError(t, it.Err())
	return hits
}

func values(hits []*domain.Hit, field string) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		v, _ := h.FieldValue(field)
		out = append(out, v)
	}
	return out
}
