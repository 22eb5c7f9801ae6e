// Package memory provides in-memory implementations of the driven storage ports.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure UploadStore implements the interface.
var _ driven.UploadStore = (*UploadStore)(nil)

// UploadStore is an in-memory implementation of driven.UploadStore.
type UploadStore struct {
	mu      sync.RWMutex
	uploads map[string]map[string]string
	queries int
}

// NewUploadStore creates a new in-memory upload store.
func NewUploadStore(uploads ...driven.Upload) *UploadStore {
	s := &UploadStore{
		uploads: make(map[string]map[string]string),
	}
	for _, u := range uploads {
		_ = s.Save(context.Background(), u)
	}
	return s
}

// Save records an upload, replacing an entry with the same task and stored name.
func (s *UploadStore) Save(_ context.Context, upload driven.Upload) error {
	if upload.TaskID == "" || upload.SavedAs == "" {
		return fmt.Errorf("%w: upload needs a task ID and a stored name", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	names, ok := s.uploads[upload.TaskID]
	if !ok {
		names = make(map[string]string)
		s.uploads[upload.TaskID] = names
	}
	names[upload.SavedAs] = upload.OriginalName
	return nil
}

// OriginalNames returns a copy of the stored name -> original name map of a task.
func (s *UploadStore) OriginalNames(_ context.Context, taskID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	out := make(map[string]string, len(s.uploads[taskID]))
	for savedAs, original := range s.uploads[taskID] {
		out[savedAs] = original
	}
	return out, nil
}

// Queries returns how many times OriginalNames was called.
func (s *UploadStore) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}
