package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the configuration stored in config.toml.

Settings select the sort and SQLite backends, the temporary directory
and the registry used to look up original upload names.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting and save it immediately.

Keys use dot notation, for example:
  resultview settings set sort.backend native
  resultview settings set uploads.backend sqlite
  resultview settings set watch.interval_ms 1000`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Build]")
	cmd.Printf("  Temp directory: %s\n", settings.Build.TempDir)
	cmd.Println()

	cmd.Println("[Sort]")
	cmd.Printf("  Backend: %s\n", settings.Sort.Backend)
	if settings.Sort.Backend == domain.SortBackendUnix {
		cmd.Printf("  Command: %s\n", settings.Sort.Command)
	}
	cmd.Println()

	cmd.Println("[SQLite]")
	cmd.Printf("  Backend: %s\n", settings.SQLite.Backend)
	if settings.SQLite.Backend == domain.SQLiteBackendCLI {
		cmd.Printf("  Command: %s\n", settings.SQLite.Command)
	}
	cmd.Println()

	cmd.Println("[Uploads]")
	cmd.Printf("  Backend: %s\n", settings.Uploads.Backend)
	switch settings.Uploads.Backend {
	case domain.UploadBackendSQLite:
		dir := settings.Uploads.SQLiteDir
		if dir == "" {
			dir = "(default)"
		}
		cmd.Printf("  Directory: %s\n", dir)
	case domain.UploadBackendMySQL:
		mysql := settings.Uploads.MySQL
		cmd.Printf("  Host: %s\n", mysql.Host)
		cmd.Printf("  Database: %s\n", mysql.Database)
		cmd.Printf("  User: %s\n", mysql.User)
		if mysql.Password != "" {
			cmd.Printf("  Password: %s\n", maskSecret(mysql.Password))
		} else {
			cmd.Printf("  Password: (not set)\n")
		}
	}
	cmd.Println()

	cmd.Println("[Watch]")
	cmd.Printf("  Interval: %s\n", settings.Watch.Interval)
	cmd.Println()

	cmd.Printf("Verbose logging: %t\n", settings.Logging.Verbose)

	if err := settingsService.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("%s updated\n", key)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// maskSecret hides all but the ends of a secret.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
