package domain

import "time"

// SortBackend selects how sorted copies of row files are produced.
type SortBackend string

// Available sort backends.
const (
	// SortBackendUnix runs the system sort utility through a shell.
	SortBackendUnix SortBackend = "unix"

	// SortBackendNative sorts in process.
	SortBackendNative SortBackend = "native"
)

// IsValid returns true if the sort backend is recognised.
func (b SortBackend) IsValid() bool {
	return b == SortBackendUnix || b == SortBackendNative
}

// String returns the string representation.
func (b SortBackend) String() string {
	return string(b)
}

// SQLiteBackend selects how generated SQL scripts are executed.
type SQLiteBackend string

// Available SQLite backends.
const (
	// SQLiteBackendCLI pipes scripts into the sqlite3 tool.
	SQLiteBackendCLI SQLiteBackend = "cli"

	// SQLiteBackendEmbedded executes scripts with the built-in driver.
	SQLiteBackendEmbedded SQLiteBackend = "embedded"
)

// IsValid returns true if the SQLite backend is recognised.
func (b SQLiteBackend) IsValid() bool {
	return b == SQLiteBackendCLI || b == SQLiteBackendEmbedded
}

// String returns the string representation.
func (b SQLiteBackend) String() string {
	return string(b)
}

// UploadBackend selects the upload-name registry.
type UploadBackend string

// Available upload registries.
const (
	// UploadBackendNone disables original-name lookups.
	UploadBackendNone UploadBackend = "none"

	// UploadBackendSQLite keeps the registry in a local database file.
	UploadBackendSQLite UploadBackend = "sqlite"

	// UploadBackendMySQL reads the registry of a shared MySQL server.
	UploadBackendMySQL UploadBackend = "mysql"

	// UploadBackendMemory keeps the registry for the lifetime of the process.
	UploadBackendMemory UploadBackend = "memory"
)

// IsValid returns true if the upload backend is recognised.
func (b UploadBackend) IsValid() bool {
	switch b {
	case UploadBackendNone, UploadBackendSQLite, UploadBackendMySQL, UploadBackendMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b UploadBackend) String() string {
	return string(b)
}

// AppSettings is the complete configuration of the tool.
type AppSettings struct {
	Build   BuildSettings
	Sort    SortSettings
	SQLite  SQLiteSettings
	Uploads UploadSettings
	Logging LoggingSettings
	Watch   WatchSettings
}

// BuildSettings configures result construction.
type BuildSettings struct {
	// TempDir receives intermediate artifacts.
	TempDir string
}

// SortSettings configures the sorter.
type SortSettings struct {
	Backend SortBackend
	// Command is the sort executable of the unix backend.
	Command string
}

// SQLiteSettings configures the script runner.
type SQLiteSettings struct {
	Backend SQLiteBackend
	// Command is the sqlite3 executable of the cli backend.
	Command string
}

// UploadSettings configures the upload-name registry.
type UploadSettings struct {
	Backend   UploadBackend
	SQLiteDir string
	MySQL     MySQLSettings
}

// MySQLSettings holds the connection settings of a MySQL registry.
type MySQLSettings struct {
	Host     string
	Database string
	User     string
	Password string
}

// IsConfigured returns true when a host and database are set.
func (m MySQLSettings) IsConfigured() bool {
	return m.Host != "" && m.Database != ""
}

// LoggingSettings configures diagnostics.
type LoggingSettings struct {
	Verbose bool
}

// WatchSettings configures the watch command.
type WatchSettings struct {
	// Interval is the minimum time between two rebuilds.
	Interval time.Duration
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Build: BuildSettings{
			TempDir: "temp",
		},
		Sort: SortSettings{
			Backend: SortBackendUnix,
			Command: "sort",
		},
		SQLite: SQLiteSettings{
			Backend: SQLiteBackendCLI,
			Command: "sqlite3",
		},
		Uploads: UploadSettings{
			Backend: UploadBackendNone,
		},
		Watch: WatchSettings{
			Interval: 500 * time.Millisecond,
		},
	}
}
