// Package cli provides the cobra commands of the resultview tool.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driving"
	"github.com/ccms-ucsd/resultview/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services used by the commands. Set by SetServices or the bootstrap hook.
var (
	resultBuilder   driving.ResultBuilder
	settingsService driving.SettingsService
	specLoader      driven.SpecLoader
)

// Services holds the collaborators the commands run against.
type Services struct {
	Builder  driving.ResultBuilder
	Settings driving.SettingsService
	Specs    driven.SpecLoader

	// Close releases resources such as database connections. May be nil.
	Close func() error
}

// Bootstrap builds the services from the configuration directory.
type Bootstrap func(configDir string) (*Services, error)

var (
	bootstrap     Bootstrap
	closeServices func() error
)

// annotationNoServices marks commands that run without services.
const annotationNoServices = "no-services"

var rootCmd = &cobra.Command{
	Use:   "resultview",
	Short: "Build and inspect result views of workflow output",
	Long: `resultview turns the tabular output of workflow tasks into the artifacts
a result view reads: sorted copies of row files, SQLite databases and JSON data.

What is built for each block is described by a result specification
document written as XML or YAML.`,
	SilenceUsage:       true,
	PersistentPreRunE:  prepare,
	PersistentPostRunE: finish,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print progress and diagnostic output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.resultview)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices installs the services directly, bypassing the bootstrap hook.
func SetServices(s Services) {
	resultBuilder = s.Builder
	settingsService = s.Settings
	specLoader = s.Specs
	closeServices = s.Close
}

// SetBootstrap installs the hook that builds services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if cmd.Annotations[annotationNoServices] != "" {
		return nil
	}

	if resultBuilder == nil && bootstrap != nil {
		services, err := bootstrap(configDir)
		if err != nil {
			return fmt.Errorf("initialising: %w", err)
		}
		SetServices(*services)
	}

	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("reading settings: %w", err)
		}
		if settings.Logging.Verbose {
			logger.SetVerbose(true)
		}
	}
	return nil
}

func finish(_ *cobra.Command, _ []string) error {
	return release()
}

func release() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

func requireBuilder() error {
	if resultBuilder == nil {
		return errors.New("result builder not configured")
	}
	if specLoader == nil {
		return errors.New("specification loader not configured")
	}
	return nil
}
