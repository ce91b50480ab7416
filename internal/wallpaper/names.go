package wallpaper

import (
	"strings"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/settings"
)

// NameStore keeps display-name overrides keyed by resolved wallpaper path.
type NameStore struct {
	store   *settings.Store
	section *settings.Section
}

// NewNameStore creates a NameStore over the wallpapers section.
func NewNameStore(store *settings.Store, section *settings.Section) *NameStore {
	return &NameStore{store: store, section: section}
}

func nameKey(path string) string {
	return cache.ResolvePath(config.ExpandPath(path))
}

// CleanName collapses runs of whitespace and trims the result.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Get returns the override for path, or fallback when there is none.
func (n *NameStore) Get(path, fallback string) string {
	if v := CleanName(n.section.StringMap(keyNameOverrides)[nameKey(path)]); v != "" {
		return v
	}
	return fallback
}

// Set stores name for path and returns the cleaned value.
// An empty name removes the override.
func (n *NameStore) Set(path, name string) (string, error) {
	overrides := n.section.StringMap(keyNameOverrides)
	key := nameKey(path)

	cleaned := CleanName(name)
	if cleaned != "" {
		overrides[key] = cleaned
	} else {
		delete(overrides, key)
	}
	n.section.Set(keyNameOverrides, overrides)
	return cleaned, n.store.Save()
}

// Remove drops the override for path, if any.
func (n *NameStore) Remove(path string) error {
	return n.removeKey(nameKey(path))
}

// removeKey drops an override by its resolved key. Deletes use it because
// the key can no longer be resolved once the file is gone.
func (n *NameStore) removeKey(key string) error {
	overrides := n.section.StringMap(keyNameOverrides)
	if _, ok := overrides[key]; !ok {
		return nil
	}
	delete(overrides, key)
	n.section.Set(keyNameOverrides, overrides)
	return n.store.Save()
}
