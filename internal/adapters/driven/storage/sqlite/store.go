package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ccms-ucsd/resultview/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "uploads.db"

// Ensure UploadStore implements the interface.
var _ driven.UploadStore = (*UploadStore)(nil)

// UploadStore is the SQLite-backed upload registry.
type UploadStore struct {
	db   *sql.DB
	path string
}

// NewUploadStore opens (creating if needed) the registry in dataDir.
// If dataDir is empty, defaults to ~/.resultview/data/uploads.db.
func NewUploadStore(dataDir string) (*UploadStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".resultview", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &UploadStore{
		db:   db,
		path: dbPath,
	}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *UploadStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *UploadStore) Path() string {
	return s.path
}

// OriginalNames returns stored name -> original name for a task.
func (s *UploadStore) OriginalNames(ctx context.Context, taskID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT saved_as, original_name FROM uploads WHERE task_id = ? ORDER BY saved_as", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying uploads of task %s: %w", taskID, err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var savedAs, original string
		if err := rows.Scan(&savedAs, &original); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		names[savedAs] = original
	}
	return names, rows.Err()
}

// Save records an upload, replacing any entry with the same task and stored name.
func (s *UploadStore) Save(ctx context.Context, upload driven.Upload) error {
	if upload.TaskID == "" || upload.SavedAs == "" {
		return fmt.Errorf("%w: upload needs a task and a stored name", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (task_id, saved_as, original_name)
		VALUES (?, ?, ?)
		ON CONFLICT(task_id, saved_as) DO UPDATE SET
			original_name = excluded.original_name,
			uploaded_at = CURRENT_TIMESTAMP
	`, upload.TaskID, upload.SavedAs, upload.OriginalName)
	if err != nil {
		return fmt.Errorf("saving upload %s: %w", upload.SavedAs, err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *UploadStore) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_uploads.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// apply runs one migration and records its version atomically.
func (s *UploadStore) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}
