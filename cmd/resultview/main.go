// Command resultview builds result view artifacts from workflow output.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ccms-ucsd/resultview/internal/adapters/driven/config/file"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/sorter/native"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/sorter/unix"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/spec"
	sqlcli "github.com/ccms-ucsd/resultview/internal/adapters/driven/sqlexec/cli"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/sqlexec/embedded"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/storage/memory"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/storage/mysql"
	"github.com/ccms-ucsd/resultview/internal/adapters/driven/storage/sqlite"
	"github.com/ccms-ucsd/resultview/internal/adapters/driving/cli"
	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/core/services"
	"github.com/ccms-ucsd/resultview/internal/processors"
	"github.com/ccms-ucsd/resultview/internal/results"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(wire)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// wire builds the services from the settings stored in configDir,
// ~/.resultview when empty.
func wire(configDir string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	if err := settingsService.Validate(); err != nil {
		return nil, err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	uploads, closeUploads, err := openUploads(settings.Uploads)
	if err != nil {
		return nil, err
	}
	var names driven.OriginalNameResolver
	if uploads != nil {
		names = services.NewUploadNameCache(uploads)
	}

	resultRegistry := results.NewRegistry()
	results.RegisterDefaults(resultRegistry)
	processorRegistry := processors.NewRegistry()
	processors.RegisterDefaults(processorRegistry, processors.Dependencies{Names: names})

	factory := services.NewResultFactory(
		resultRegistry,
		processorRegistry,
		newSorter(settings.Sort),
		newRunner(settings.SQLite),
	)

	return &cli.Services{
		Builder:  services.NewBuildService(factory),
		Settings: settingsService,
		Specs:    spec.NewLoader(),
		Close:    closeUploads,
	}, nil
}

func newSorter(s domain.SortSettings) driven.Sorter {
	if s.Backend == domain.SortBackendNative {
		return native.New()
	}
	return unix.New(unix.WithSortCommand(s.Command))
}

func newRunner(s domain.SQLiteSettings) driven.ScriptRunner {
	if s.Backend == domain.SQLiteBackendEmbedded {
		return embedded.New()
	}
	return sqlcli.New(s.Command)
}

// openUploads opens the configured upload registry. The returned store is
// nil when no registry is configured.
func openUploads(s domain.UploadSettings) (driven.UploadStore, func() error, error) {
	noop := func() error { return nil }

	switch s.Backend {
	case domain.UploadBackendSQLite:
		store, err := sqlite.NewUploadStore(s.SQLiteDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening upload registry: %w", err)
		}
		return store, store.Close, nil
	case domain.UploadBackendMySQL:
		store, err := mysql.NewUploadStore(context.Background(), mysql.Config{
			Host:     s.MySQL.Host,
			Database: s.MySQL.Database,
			User:     s.MySQL.User,
			Password: s.MySQL.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening upload registry: %w", err)
		}
		return store, store.Close, nil
	case domain.UploadBackendMemory:
		return memory.NewUploadStore(), noop, nil
	case domain.UploadBackendNone, "":
		return nil, noop, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown upload backend %q", domain.ErrInvalidInput, s.Backend)
	}
}
