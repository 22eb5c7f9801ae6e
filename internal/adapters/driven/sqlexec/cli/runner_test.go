package cli

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "script.sql")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNew_DefaultCommand(t *testing.T) {
	assert.Equal(t, DefaultCommand, New("").Command())
	assert.Equal(t, "/opt/sqlite3", New("/opt/sqlite3").Command())
}

func TestBenignExitCode(t *testing.T) {
	r := New("")
	assert.True(t, r.BenignExitCode(2))
	assert.False(t, r.BenignExitCode(0))
	assert.False(t, r.BenignExitCode(1))
}

func TestRun_CreatesDatabase(t *testing.T) {
	if _, err := exec.LookPath(DefaultCommand); err != nil {
		t.Skip("sqlite3 not available")
	}
	dir := t.TempDir()
	script := writeScript(t, dir, "CREATE TABLE Result ('a' TEXT);\nINSERT INTO Result SELECT 'x';\n")
	db := filepath.Join(dir, "out.db")

	outcome, err := New("").Run(context.Background(), script, db)
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.ExitCode)
	assert.Empty(t, outcome.Output)
	assert.FileExists(t, db)
}

func TestRun_ReportsExitCode(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	dir := t.TempDir()
	script := writeScript(t, dir, "SELECT 1;\n")

	outcome, err := New("false").Run(context.Background(), script, filepath.Join(dir, "out.db"))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.ExitCode)
}

func TestRun_MissingTool(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "SELECT 1;\n")

	_, err := New(filepath.Join(dir, "no-such-tool")).Run(context.Background(), script, filepath.Join(dir, "out.db"))
	assert.Error(t, err)
}

func TestRun_MissingScript(t *testing.T) {
	dir := t.TempDir()

	_, err := New("").Run(context.Background(), filepath.Join(dir, "missing.sql"), filepath.Join(dir, "out.db"))
	assert.Error(t, err)
}
