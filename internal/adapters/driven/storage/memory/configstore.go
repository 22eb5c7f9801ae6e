package memory

import (
	"sort"
	"sync"

	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory driven.ConfigStore. Nothing is persisted;
// Save and Load only count calls.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
	setErr error
	saves  int
	loads  int
}

// NewConfigStore creates a config store holding the given values.
func NewConfigStore(values map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// FailSets makes every later Set return err. A nil err restores normal behaviour.
func (s *ConfigStore) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	slice, _ := val.([]string)
	return slice
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

// Save counts the call.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

// Load counts the call.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return nil
}

// Path returns an empty string; the store has no backing file.
func (s *ConfigStore) Path() string {
	return ""
}

// Keys returns the stored keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how often Save and Load were called.
func (s *ConfigStore) Calls() (saves, loads int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves, s.loads
}
