package file

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/ccms-ucsd/resultview/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFileName is the name of the configuration file inside the config directory.
const ConfigFileName = "config.toml"

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
//
// Keys are addressed in dot notation: "sort.backend" is the backend key of
// the [sort] table. Values are written back as nested tables.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.resultview/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, ConfigFileName),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultDir returns ~/.resultview.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".resultview"), nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer configuration value. Whole floats are accepted.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	}
	return 0
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice retrieves a string slice configuration value.
// Non-string items are skipped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}

	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// Keys returns every configured key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a configuration value and persists immediately.
// The value is not kept when it cannot be written.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if existed {
			s.data[key] = previous
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	tree, err := nestMap(s.data)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0o600)
}

// Load reads configuration from the TOML file. A missing file yields an
// empty configuration.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.data = flattenMap(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenMap converts nested tables to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}
	return result
}

// nestMap is the inverse of flattenMap. A key that is both a value and a
// table prefix ("a" and "a.b") cannot be represented.
func nestMap(flat map[string]any) (map[string]any, error) {
	root := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		table := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := table[part]
			if !ok {
				child := make(map[string]any)
				table[part] = child
				table = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config key %q conflicts with value %q", key, part)
			}
			table = child
		}

		leaf := parts[len(parts)-1]
		if _, ok := table[leaf].(map[string]any); ok {
			return nil, fmt.Errorf("config key %q conflicts with a table of the same name", key)
		}
		table[leaf] = value
	}
	return root, nil
}
