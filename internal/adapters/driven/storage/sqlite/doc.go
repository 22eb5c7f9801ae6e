// Package sqlite provides a SQLite-based implementation of the upload registry.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. The registry maps the files a task stored on disk to the names the
// user uploaded them under:
//
//   - UploadStore: the uploads table, queried per task
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.resultview/data/uploads.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
