package driving

import "github.com/ccms-ucsd/resultview/internal/core/domain"

// SettingsService reads and updates the tool configuration.
type SettingsService interface {
	// Get returns the current settings, with defaults for unset keys.
	Get() (*domain.AppSettings, error)

	// Save persists every setting.
	Save(settings *domain.AppSettings) error

	// Set parses and stores one setting given in its textual form.
	Set(key, value string) error

	// Keys returns the recognised setting keys in display order.
	Keys() []string

	// Validate checks that the stored settings can be wired.
	Validate() error
}
