package results

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccms-ucsd/resultview/internal/adapters/driven/sorter/native"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/sqlexec/embedded"
	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/ondemand"
)

const testTask = "task-1"

// fixture is a result file plus writable output and temp directories.
type fixture struct {
	dir    string
	file   string
	out    string
	temp   string
	sorter *countingSorter
	runner *capturingRunner
}

func newFixture(t *testing.T, name, content string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:    dir,
		file:   filepath.Join(dir, name),
		out:    filepath.Join(dir, "out"),
		temp:   filepath.Join(dir, "temp"),
		sorter: &countingSorter{next: native.New()},
		runner: &capturingRunner{next: embedded.New()},
	}
	require.NoError(t, os.WriteFile(f.file, []byte(content), 0o644))
	require.NoError(t, os.MkdirAll(f.out, 0o755))
	return f
}

func (f *fixture) env() Env {
	return Env{
		Gate:    ondemand.NewLoader(),
		Sorter:  f.sorter,
		Runner:  f.runner,
		TempDir: f.temp,
	}
}

type countingSorter struct {
	mu    sync.Mutex
	calls int
	last  driven.SortRequest
	next  driven.Sorter
}

func (s *countingSorter) Sort(ctx context.Context, req driven.SortRequest) error {
	s.mu.Lock()
	s.calls++
	s.last = req
	s.mu.Unlock()
	return s.next.Sort(ctx, req)
}

// capturingRunner records the script before delegating, and can force an outcome.
type capturingRunner struct {
	next   driven.ScriptRunner
	script string
	calls  int

	forceExit   int
	forceOutput string
	benign      bool
}

func (r *capturingRunner) Run(ctx context.Context, scriptPath, dbPath string) (driven.ScriptOutcome, error) {
	r.calls++
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return driven.ScriptOutcome{}, err
	}
	r.script = string(data)

	outcome, err := r.next.Run(ctx, scriptPath, dbPath)
	if err != nil {
		return outcome, err
	}
	if r.forceExit != 0 {
		outcome.ExitCode = r.forceExit
	}
	if r.forceOutput != "" {
		outcome.Output = r.forceOutput
	}
	return outcome, nil
}

func (r *capturingRunner) BenignExitCode(code int) bool {
	return r.benign && code == 2
}

// tagProcessor sets one attribute on every hit.
type tagProcessor struct {
	attr  string
	value string
	seen  []driven.Result
}

func (p *tagProcessor) Name() string { return "tag" }

func (p *tagProcessor) ProcessHit(hit *domain.Hit, owner driven.Result) error {
	p.seen = append(p.seen, owner)
	hit.SetAttribute(p.attr, p.value)
	return nil
}

func drain(t *testing.T, it driven.HitIterator) []*domain.Hit {
	t.Helper()
	var hits []*domain.Hit
	for it.HasNext() {
		hit, err := it.Next()
		require.NoError(t, err)
		hits = append(hits, hit)
	}
	require.NoError(t, it.Err())
	return hits
}

func column(hits []*domain.Hit, name string) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		v, _ := h.FieldValue(name)
		out = append(out, v)
	}
	return out
}
