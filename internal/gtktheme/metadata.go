package gtktheme

import (
	"os"
	"path/filepath"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/colors"
	"github.com/archcrafter/loom/internal/themedir"
)

// Metadata is what loom knows about a theme's look.
type Metadata struct {
	Colors     map[string]string `json:"colors"`
	Background string            `json:"background,omitempty"`
	Foreground string            `json:"foreground,omitempty"`
	Accent     string            `json:"accent,omitempty"`
	Dark       bool              `json:"dark"`
}

// Swatches returns the background, foreground and accent colours that are set.
func (m Metadata) Swatches() []string {
	var out []string
	for _, c := range []string{m.Background, m.Foreground, m.Accent} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

var (
	backgroundNames = []string{"theme_bg_color", "window_bg_color", "bg_color", "theme_base_color", "base_color"}
	foregroundNames = []string{"theme_fg_color", "window_fg_color", "fg_color", "theme_text_color", "text_color"}
	accentNames     = []string{"theme_selected_bg_color", "accent_bg_color", "accent_color", "selected_bg_color"}
)

// cssCandidates are the stylesheets read for metadata, in preference order.
var cssCandidates = []string{
	filepath.Join("gtk-3.0", "gtk.css"),
	filepath.Join("gtk-4.0", "gtk.css"),
}

// Metadata returns the theme's palette, cached by Signature.
func (s *Service) Metadata(t Theme) Metadata {
	key := cache.HashString(Signature(t))
	meta, _ := s.metadata.GetOrCompute(key, func() (Metadata, error) {
		return ParseMetadata(t), nil
	})
	return meta
}

// ParseMetadata reads the theme's stylesheet with imports inlined and
// derives its named colours. Unreadable themes yield metadata with only
// the name-based dark flag.
func ParseMetadata(t Theme) Metadata {
	meta := Metadata{Colors: map[string]string{}}

	for _, rel := range cssCandidates {
		path := filepath.Join(t.Path, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		css := ProcessImports(string(data), filepath.Dir(path), nil)
		meta.Colors = ResolveColors(DefineColors(css))
		break
	}

	meta.Background = firstColor(meta.Colors, backgroundNames)
	meta.Foreground = firstColor(meta.Colors, foregroundNames)
	meta.Accent = firstColor(meta.Colors, accentNames)
	meta.Dark = themedir.IsDarkName(t.Name) || (meta.Background != "" && !colors.IsLight(meta.Background))
	return meta
}

func firstColor(m map[string]string, names []string) string {
	for _, n := range names {
		if c, ok := m[n]; ok {
			return c
		}
	}
	return ""
}
