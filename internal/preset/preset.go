// Package preset lists and installs the fetch, panel and menu presets kept
// under the data directory's library tree.
package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Preset kinds.
const (
	KindFetch  = "fetch"
	KindPanels = "panels"
	KindMenu   = "menu"
)

// Kinds lists the preset kinds.
var Kinds = []string{KindFetch, KindPanels, KindMenu}

// Errors.
var (
	ErrUnsafeEngine  = errors.New("invalid engine name")
	ErrUnknownKind   = errors.New("unknown preset kind")
	ErrUnknownEngine = errors.New("engine not supported")
	ErrNotFound      = errors.New("preset not found")
	ErrNotFetch      = errors.New("only fetch presets can be shown")
)

// Preset is one preset file.
type Preset struct {
	Kind   string `json:"kind" yaml:"kind"`
	Engine string `json:"engine" yaml:"engine"`
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
}

// ID returns "kind/engine/name".
func (p Preset) ID() string {
	return p.Kind + "/" + p.Engine + "/" + p.Name
}

// ParseID splits an ID produced by Preset.ID.
func ParseID(id string) (kind, engine, name string, err error) {
	parts := strings.SplitN(id, "/", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed preset id %q", id)
	}
	return parts[0], parts[1], parts[2], nil
}

// SafeEngineName reports whether engine can be used as a single directory
// name below the library root.
func SafeEngineName(engine string) bool {
	if engine == "" || engine == "." || engine == ".." {
		return false
	}
	if filepath.IsAbs(engine) || strings.ContainsAny(engine, `/\`) {
		return false
	}
	return filepath.Base(engine) == engine
}

// IsKind reports whether kind is a preset kind.
func IsKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Extensions returns the file extensions recognised for a kind and engine.
// Unsupported combinations yield nil.
func Extensions(kind, engine string) map[string]bool {
	switch kind {
	case KindFetch:
		if engine == "fastfetch" {
			return map[string]bool{".json": true, ".jsonc": true}
		}
		return map[string]bool{".conf": true}
	case KindPanels:
		switch engine {
		case "polybar":
			return map[string]bool{".ini": true, ".conf": true}
		case "tint2":
			return map[string]bool{".tint2rc": true, ".conf": true}
		}
	case KindMenu:
		if engine == "jgmenu" {
			return map[string]bool{".jgmenurc": true, ".conf": true, ".csv": true}
		}
	}
	return nil
}

// listDir returns the presets of engine found in dir, sorted by lowercase
// file name. Any read error yields an empty list.
func listDir(dir, kind, engine string) []Preset {
	exts := Extensions(kind, engine)
	if len(exts) == 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var presets []Preset
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !exts[ext] {
			continue
		}
		presets = append(presets, Preset{
			Kind:   kind,
			Engine: engine,
			Name:   strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:   path,
		})
	}
	return presets
}
