package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyBuildTempDir   = "build.temp_dir"
	keySortBackend    = "sort.backend"
	keySortCommand    = "sort.command"
	keySQLiteBackend  = "sqlite.backend"
	keySQLiteCommand  = "sqlite.command"
	keyUploadsBackend = "uploads.backend"
	keyUploadsDir     = "uploads.sqlite_dir"
	keyMySQLHost      = "uploads.mysql.host"
	keyMySQLDatabase  = "uploads.mysql.database"
	keyMySQLUser      = "uploads.mysql.user"
	keyMySQLPassword  = "uploads.mysql.password"
	keyVerbose        = "logging.verbose"
	keyWatchInterval  = "watch.interval_ms"
)

var settingKeys = []string{
	keyBuildTempDir,
	keySortBackend,
	keySortCommand,
	keySQLiteBackend,
	keySQLiteCommand,
	keyUploadsBackend,
	keyUploadsDir,
	keyMySQLHost,
	keyMySQLDatabase,
	keyMySQLUser,
	keyMySQLPassword,
	keyVerbose,
	keyWatchInterval,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Unset or unrecognised
// values fall back to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Build: domain.BuildSettings{
			TempDir: s.getString(keyBuildTempDir, defaults.Build.TempDir),
		},
		Sort: domain.SortSettings{
			Backend: s.getSortBackend(defaults.Sort.Backend),
			Command: s.getString(keySortCommand, defaults.Sort.Command),
		},
		SQLite: domain.SQLiteSettings{
			Backend: s.getSQLiteBackend(defaults.SQLite.Backend),
			Command: s.getString(keySQLiteCommand, defaults.SQLite.Command),
		},
		Uploads: domain.UploadSettings{
			Backend:   s.getUploadBackend(defaults.Uploads.Backend),
			SQLiteDir: s.configStore.GetString(keyUploadsDir), // empty selects the store's default location
			MySQL: domain.MySQLSettings{
				Host:     s.configStore.GetString(keyMySQLHost),
				Database: s.configStore.GetString(keyMySQLDatabase),
				User:     s.configStore.GetString(keyMySQLUser),
				Password: s.configStore.GetString(keyMySQLPassword),
			},
		},
		Logging: domain.LoggingSettings{
			Verbose: s.getBool(keyVerbose, defaults.Logging.Verbose),
		},
		Watch: domain.WatchSettings{
			Interval: s.getMillis(keyWatchInterval, defaults.Watch.Interval),
		},
	}
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyBuildTempDir, settings.Build.TempDir},
		{keySortBackend, settings.Sort.Backend.String()},
		{keySortCommand, settings.Sort.Command},
		{keySQLiteBackend, settings.SQLite.Backend.String()},
		{keySQLiteCommand, settings.SQLite.Command},
		{keyUploadsBackend, settings.Uploads.Backend.String()},
		{keyUploadsDir, settings.Uploads.SQLiteDir},
		{keyMySQLHost, settings.Uploads.MySQL.Host},
		{keyMySQLDatabase, settings.Uploads.MySQL.Database},
		{keyMySQLUser, settings.Uploads.MySQL.User},
		{keyVerbose, settings.Logging.Verbose},
		{keyWatchInterval, int(settings.Watch.Interval / time.Millisecond)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Only overwrite the password when one is given.
	if settings.Uploads.MySQL.Password != "" {
		if err := s.configStore.Set(keyMySQLPassword, settings.Uploads.MySQL.Password); err != nil {
			return fmt.Errorf("save %s: %w", keyMySQLPassword, err)
		}
	}
	return nil
}

// Set parses and stores one setting.
func (s *SettingsService) Set(key, value string) error {
	var parsed any = value
	switch key {
	case keySortBackend:
		if !domain.SortBackend(value).IsValid() {
			return fmt.Errorf("%w: sort backend %q must be %q or %q",
				domain.ErrInvalidInput, value, domain.SortBackendUnix, domain.SortBackendNative)
		}
	case keySQLiteBackend:
		if !domain.SQLiteBackend(value).IsValid() {
			return fmt.Errorf("%w: sqlite backend %q must be %q or %q",
				domain.ErrInvalidInput, value, domain.SQLiteBackendCLI, domain.SQLiteBackendEmbedded)
		}
	case keyUploadsBackend:
		if !domain.UploadBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown uploads backend %q", domain.ErrInvalidInput, value)
		}
	case keyVerbose:
		b, err := domain.ParseFlag(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		parsed = b
	case keyWatchInterval:
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return fmt.Errorf("%w: %s must be a positive number of milliseconds", domain.ErrInvalidInput, key)
		}
		parsed = ms
	case keyBuildTempDir, keySortCommand, keySQLiteCommand, keyUploadsDir,
		keyMySQLHost, keyMySQLDatabase, keyMySQLUser, keyMySQLPassword:
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the recognised setting keys in display order.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// Validate checks that stored values are recognised and that the selected
// upload registry has what it needs.
func (s *SettingsService) Validate() error {
	checks := []struct {
		key   string
		valid func(string) bool
	}{
		{keySortBackend, func(v string) bool { return domain.SortBackend(v).IsValid() }},
		{keySQLiteBackend, func(v string) bool { return domain.SQLiteBackend(v).IsValid() }},
		{keyUploadsBackend, func(v string) bool { return domain.UploadBackend(v).IsValid() }},
	}
	for _, c := range checks {
		if v := s.configStore.GetString(c.key); v != "" && !c.valid(v) {
			return fmt.Errorf("%w: %s has unknown value %q", domain.ErrInvalidInput, c.key, v)
		}
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.Uploads.Backend == domain.UploadBackendMySQL && !settings.Uploads.MySQL.IsConfigured() {
		return fmt.Errorf("%w: uploads backend mysql requires %s and %s",
			domain.ErrInvalidInput, keyMySQLHost, keyMySQLDatabase)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * time.Millisecond
}

func (s *SettingsService) getSortBackend(defaultVal domain.SortBackend) domain.SortBackend {
	backend := domain.SortBackend(s.configStore.GetString(keySortBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getSQLiteBackend(defaultVal domain.SQLiteBackend) domain.SQLiteBackend {
	backend := domain.SQLiteBackend(s.configStore.GetString(keySQLiteBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getUploadBackend(defaultVal domain.UploadBackend) domain.UploadBackend {
	backend := domain.UploadBackend(s.configStore.GetString(keyUploadsBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
