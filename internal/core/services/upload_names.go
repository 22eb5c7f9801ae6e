package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
	"github.com/ccms-ucsd/resultview/internal/logger"
)

// Ensure UploadNameCache implements the interface.
var _ driven.OriginalNameResolver = (*UploadNameCache)(nil)

// UploadNameCache answers original-name lookups from an upload store,
// loading each task's names once and keeping them for the life of the cache.
type UploadNameCache struct {
	store driven.UploadStore

	mu    sync.Mutex
	tasks map[string]map[string]string
}

// NewUploadNameCache creates a cache over store. A nil store finds nothing.
func NewUploadNameCache(store driven.UploadStore) *UploadNameCache {
	return &UploadNameCache{
		store: store,
		tasks: make(map[string]map[string]string),
	}
}

// OriginalName returns the original name of a stored file of a task.
func (c *UploadNameCache) OriginalName(taskID, savedAs string) (string, bool, error) {
	if c.store == nil {
		return "", false, nil
	}
	names, err := c.names(taskID)
	if err != nil {
		return "", false, err
	}
	original, ok := names[savedAs]
	return original, ok, nil
}

// Cached reports whether the names of a task have been loaded.
func (c *UploadNameCache) Cached(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tasks[taskID]
	return ok
}

func (c *UploadNameCache) names(taskID string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if names, ok := c.tasks[taskID]; ok {
		return names, nil
	}
	names, err := c.store.OriginalNames(context.Background(), taskID)
	if err != nil {
		return nil, fmt.Errorf("loading upload names of task %s: %w", taskID, err)
	}
	if names == nil {
		names = map[string]string{}
	}
	c.tasks[taskID] = names
	logger.Debug("cached %d upload name(s) for task %s", len(names), taskID)
	return names, nil
}
