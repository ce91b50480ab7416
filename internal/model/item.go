// Package model defines the listing rows shared by every appearance service.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kinds of item.
const (
	KindWallpaper   = "wallpaper"
	KindGtkTheme    = "gtk"
	KindWindowTheme = "window"
	KindIconTheme   = "icons"
	KindCursorTheme = "cursors"
	KindPreset      = "preset"
)

// Kinds lists every item kind in display order.
var Kinds = []string{KindWallpaper, KindGtkTheme, KindWindowTheme, KindIconTheme, KindCursorTheme, KindPreset}

// Item is one selectable entry: a wallpaper file, a theme or a preset.
type Item struct {
	Kind    string `json:"kind" yaml:"kind"`
	Name    string `json:"name" yaml:"name"`                           // Identifier passed to apply
	Display string `json:"display,omitempty" yaml:"display,omitempty"` // Human label, defaults to Name
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`

	Current   bool     `json:"current,omitempty" yaml:"current,omitempty"`
	Dark      bool     `json:"dark,omitempty" yaml:"dark,omitempty"`
	Colorized bool     `json:"colorized,omitempty" yaml:"colorized,omitempty"`
	Colors    []string `json:"colors,omitempty" yaml:"colors,omitempty"`

	ModTime int64 `json:"mod_time,omitempty" yaml:"mod_time,omitempty"` // Unix seconds
	Size    int64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// Validation errors.
var (
	ErrEmptyKind = errors.New("kind cannot be empty")
	ErrEmptyName = errors.New("name cannot be empty")
)

// Validate checks that the item has the required fields.
func (i *Item) Validate() error {
	if i.Kind == "" {
		return ErrEmptyKind
	}
	if i.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// Title returns Display, falling back to Name.
func (i *Item) Title() string {
	if i.Display != "" {
		return i.Display
	}
	return i.Name
}

// ModTimeTime returns ModTime as a time.Time.
func (i *Item) ModTimeTime() time.Time {
	return time.Unix(i.ModTime, 0)
}

// RelativeTime returns a short age such as "5m ago" or "3d ago".
func (i *Item) RelativeTime() string {
	if i.ModTime == 0 {
		return "unknown"
	}
	diff := time.Now().Unix() - i.ModTime

	if diff < 0 {
		return "in the future"
	}
	if diff < 60 {
		return "just now"
	}
	if diff < 3600 {
		return fmt.Sprintf("%dm ago", diff/60)
	}
	if diff < 86400 {
		return fmt.Sprintf("%dh ago", diff/3600)
	}
	return fmt.Sprintf("%dd ago", diff/86400)
}

// Matches reports whether term occurs case-insensitively in the name or title.
func (i *Item) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(i.Name), term) ||
		strings.Contains(strings.ToLower(i.Title()), term)
}

// Clone creates a deep copy of the item.
func (i *Item) Clone() *Item {
	clone := *i
	if i.Colors != nil {
		clone.Colors = append([]string(nil), i.Colors...)
	}
	return &clone
}

// IsKind reports whether s names a known kind.
func IsKind(s string) bool {
	for _, k := range Kinds {
		if k == s {
			return true
		}
	}
	return false
}

// Result describes a completed change.
type Result struct {
	Kind     string `json:"kind" yaml:"kind"`
	Value    string `json:"value" yaml:"value"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
	Message  string `json:"message" yaml:"message"`
}
