// Package ondemand builds derived resources only when they are missing or
// stale, and at most once per Loader.
package ondemand

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/logger"
)

// Loader gates the execution of on-demand operations. One Loader is
// shared by everything built during a pipeline run.
type Loader struct {
	group singleflight.Group

	mu   sync.Mutex
	done map[string]error
}

// NewLoader creates a Loader with an empty build record.
func NewLoader() *Loader {
	return &Loader{done: make(map[string]error)}
}

// Load makes sure the resource of op is available. The operation is
// skipped when its resource exists and is not older than its source;
// otherwise it is executed unless this Loader already executed it, in
// which case the recorded outcome is returned again.
func (l *Loader) Load(op driven.OnDemandOperation) error {
	if op == nil {
		return fmt.Errorf("%w: nil operation", domain.ErrInvalidInput)
	}

	name := op.ResourceName()
	_, err, _ := l.group.Do(name, func() (any, error) {
		l.mu.Lock()
		prev, built := l.done[name]
		l.mu.Unlock()
		if built {
			return nil, prev
		}

		if op.ResourceExists() && !op.ResourceDated() {
			logger.Debug("resource %s is up to date", name)
			return nil, nil
		}

		logger.Debug("building resource %s", name)
		execErr := op.Execute()
		if execErr == nil && !op.ResourceExists() {
			execErr = fmt.Errorf("%w: %s was not produced", domain.ErrBuildFailed, name)
		}

		l.mu.Lock()
		l.done[name] = execErr
		l.mu.Unlock()
		return nil, execErr
	})
	if err != nil && !errors.Is(err, domain.ErrBuildFailed) {
		return fmt.Errorf("%w: %s: %w", domain.ErrBuildFailed, name, err)
	}
	return err
}

// Built reports whether this Loader executed the named resource successfully.
func (l *Loader) Built(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	err, ok := l.done[name]
	return ok && err == nil
}
