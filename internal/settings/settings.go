// Package settings persists user-facing UI state as a JSON object of
// named sections (wallpapers, fetch, panels, ...).
//
// Values are kept as loosely typed JSON so that unknown keys written by
// other versions survive a load/save round trip. Typed accessors apply
// defaults when a key is missing or holds the wrong type.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Store is a JSON-file backed settings store.
type Store struct {
	mu     sync.RWMutex
	saveMu sync.Mutex
	path   string
	data   map[string]any
}

// Open creates a store for path and loads it.
// A missing, unreadable or non-object file yields an empty store.
func Open(path string) *Store {
	s := &Store{path: path}
	s.Load()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load (re)reads the settings file, discarding in-memory changes.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]any)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil || parsed == nil {
		return
	}
	s.data = parsed
}

// Save writes the settings to disk atomically.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// Section returns a handle on the named section.
// The section is created (or replaced, if it is not an object) on first access.
func (s *Store) Section(name string) *Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sectionLocked(name)
	return &Section{store: s, name: name}
}

// Snapshot returns a deep copy of the whole settings object.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.Marshal(s.data)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func (s *Store) sectionLocked(name string) map[string]any {
	if m, ok := s.data[name].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	s.data[name] = m
	return m
}

// Section is a named object inside the settings file.
type Section struct {
	store *Store
	name  string
}

// Name returns the section name.
func (sec *Section) Name() string {
	return sec.name
}

// Get returns the raw value for key.
func (sec *Section) Get(key string) (any, bool) {
	sec.store.mu.Lock()
	defer sec.store.mu.Unlock()
	v, ok := sec.store.sectionLocked(sec.name)[key]
	return v, ok
}

// Has reports whether key is present.
func (sec *Section) Has(key string) bool {
	_, ok := sec.Get(key)
	return ok
}

// Set stores value under key. Call Store.Save to persist.
func (sec *Section) Set(key string, value any) {
	sec.store.mu.Lock()
	defer sec.store.mu.Unlock()
	sec.store.sectionLocked(sec.name)[key] = value
}

// SetDefault stores value only if key is absent. Returns true if it was set.
func (sec *Section) SetDefault(key string, value any) bool {
	sec.store.mu.Lock()
	defer sec.store.mu.Unlock()
	m := sec.store.sectionLocked(sec.name)
	if _, ok := m[key]; ok {
		return false
	}
	m[key] = value
	return true
}

// Delete removes key. Returns true if it existed.
func (sec *Section) Delete(key string) bool {
	sec.store.mu.Lock()
	defer sec.store.mu.Unlock()
	m := sec.store.sectionLocked(sec.name)
	if _, ok := m[key]; !ok {
		return false
	}
	delete(m, key)
	return true
}

// String returns key as a string, or def if missing or not a string.
func (sec *Section) String(key, def string) string {
	v, ok := sec.Get(key)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return def
	}
}

// Int returns key as an int, or def if it cannot be interpreted as one.
func (sec *Section) Int(key string, def int) int {
	v, ok := sec.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return def
		}
		return i
	default:
		return def
	}
}

// Bool returns key as a bool, or def if missing or not a bool.
func (sec *Section) Bool(key string, def bool) bool {
	v, ok := sec.Get(key)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// StringSlice returns the string elements of a list value.
// Non-string elements are skipped. ok is false if key is missing or not a list.
func (sec *Section) StringSlice(key string) (values []string, ok bool) {
	v, found := sec.Get(key)
	if !found {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, isStr := item.(string); isStr {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// StringMap returns the string entries of an object value.
// Non-string values are skipped. A missing or non-object value yields an empty map.
func (sec *Section) StringMap(key string) map[string]string {
	out := make(map[string]string)
	v, ok := sec.Get(key)
	if !ok {
		return out
	}
	switch m := v.(type) {
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	case map[string]any:
		for k, val := range m {
			if s, isStr := val.(string); isStr {
				out[k] = s
			}
		}
	}
	return out
}
