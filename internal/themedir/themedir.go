// Package themedir scans theme directories such as /usr/share/themes.
package themedir

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is a theme directory.
type Entry struct {
	Name string
	Path string
}

// Scan lists subdirectories of dirs accepted by accept. Later dirs override
// earlier ones with the same name, so callers pass system dirs before user
// dirs. Missing or unreadable dirs are skipped. The result is sorted
// case-insensitively.
func Scan(dirs []string, accept func(dir string) bool) []Entry {
	found := make(map[string]Entry)
	for _, folder := range dirs {
		entries, err := os.ReadDir(folder)
		if err != nil {
			continue
		}
		for _, e := range entries {
			dir := filepath.Join(folder, e.Name())
			if !IsDir(dir) {
				continue
			}
			if accept != nil && !accept(dir) {
				continue
			}
			found[e.Name()] = Entry{Name: e.Name(), Path: dir}
		}
	}

	out := make([]Entry, 0, len(found))
	for _, t := range found {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Find returns the entry named name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// HasAny reports whether any of the named children exist under dir.
func HasAny(dir string, children ...string) bool {
	for _, c := range children {
		if _, err := os.Stat(filepath.Join(dir, c)); err == nil {
			return true
		}
	}
	return false
}

// IsDir reports whether path is a directory, following symlinks.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsDarkName reports whether a theme name advertises a dark variant.
func IsDarkName(name string) bool {
	return strings.Contains(strings.ToLower(name), "dark")
}
