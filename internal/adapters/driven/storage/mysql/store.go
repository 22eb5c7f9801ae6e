// Package mysql implements the upload registry over a shared MySQL database,
// the deployment where the web front end records uploads.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// DefaultPort is appended to hosts given without a port.
const DefaultPort = "3306"

// Ensure UploadStore implements the interface.
var _ driven.UploadStore = (*UploadStore)(nil)

// Config holds the connection settings of the registry database.
type Config struct {
	Host     string
	Database string
	User     string
	Password string
}

// DSN renders the driver connection string.
func (c Config) DSN() (string, error) {
	if c.Host == "" || c.Database == "" {
		return "", fmt.Errorf("%w: mysql host and database are required", domain.ErrInvalidInput)
	}

	addr := c.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, DefaultPort)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = c.Database
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// UploadStore reads and writes the uploads table.
type UploadStore struct {
	db *sql.DB
}

// NewUploadStore connects to the registry and checks the connection.
func NewUploadStore(ctx context.Context, cfg Config) (*UploadStore, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Host, err)
	}
	return NewUploadStoreWithDB(db), nil
}

// NewUploadStoreWithDB wraps an open database handle.
func NewUploadStoreWithDB(db *sql.DB) *UploadStore {
	return &UploadStore{db: db}
}

// Close closes the database connection.
func (s *UploadStore) Close() error {
	return s.db.Close()
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
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO uploads (task_id, saved_as, original_name) VALUES (?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE original_name = VALUES(original_name)",
		upload.TaskID, upload.SavedAs, upload.OriginalName)
	if err != nil {
		return fmt.Errorf("saving upload %s: %w", upload.SavedAs, err)
	}
	return nil
}
