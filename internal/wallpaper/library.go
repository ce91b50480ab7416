package wallpaper

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/core"
	"github.com/archcrafter/loom/internal/model"
)

// Entry is a discovered wallpaper file.
type Entry struct {
	Name string // Path relative to its search dir, or colorized/<file>
	Path string
}

// CustomDirs returns the configured custom directories with ~ expanded and
// duplicates removed. Entries that are not absolute paths are ignored; the
// library directory is used when nothing valid remains.
func (s *Service) CustomDirs() []string {
	values, _ := s.section.StringSlice(keyCustomDirs)

	var result []string
	seen := make(map[string]bool)
	for _, v := range values {
		p := config.ExpandPath(strings.TrimSpace(v))
		if p == "" || !filepath.IsAbs(p) {
			continue
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		result = append(result, p)
	}
	if len(result) == 0 {
		result = []string{s.libraryDir}
	}
	return result
}

// SetCustomDir makes dir the custom source, keeping the colorized directory
// alongside it, and switches the source to custom.
func (s *Service) SetCustomDir(dir string) error {
	p := filepath.Clean(config.ExpandPath(dir))
	dirs := []string{p}
	if cache.ResolvePath(p) != cache.ResolvePath(s.colorizedDir) {
		dirs = append(dirs, s.colorizedDir)
	}
	s.section.Set(keyCustomDirs, toAny(dirs))
	s.section.Set(keySource, SourceCustom)
	return s.save()
}

// SearchDirs returns the existing directories to scan: the system or custom
// dirs depending on the source, plus the colorized dir.
func (s *Service) SearchDirs() []string {
	var dirs []string
	if s.Source() == SourceSystem {
		dirs = append(dirs, s.systemDirs...)
	} else {
		dirs = append(dirs, s.CustomDirs()...)
	}
	dirs = append(dirs, s.colorizedDir)

	var unique []string
	seen := make(map[string]bool)
	for _, d := range dirs {
		if seen[d] {
			continue
		}
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
	}
	return unique
}

// IsSupported reports whether path has a wallpaper extension.
func IsSupported(path string) bool {
	return SupportedExts[strings.ToLower(filepath.Ext(path))]
}

// List scans the search dirs recursively. Files reachable from more than one
// dir are listed once, under the name from the last dir that found them.
// The result is sorted by lowercase name.
func (s *Service) List() []Entry {
	found := make(map[string]Entry)
	colorizedResolved := cache.ResolvePath(s.colorizedDir)

	for _, folder := range s.SearchDirs() {
		isColorizedDir := cache.ResolvePath(folder) == colorizedResolved

		// WalkDir does not follow a symlinked root
		root := folder
		if resolved, err := filepath.EvalSymlinks(folder); err == nil {
			root = resolved
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !IsSupported(path) {
				return nil
			}
			if !isRegularFile(path, d) {
				return nil
			}

			name, relErr := filepath.Rel(root, path)
			if relErr != nil {
				name = filepath.Base(path)
			} else {
				path = filepath.Join(folder, name)
			}
			if isColorizedDir {
				name = "colorized/" + filepath.Base(path)
			}
			found[cache.ResolvePath(path)] = Entry{Name: filepath.ToSlash(name), Path: path}
			return nil
		})
	}

	entries := make([]Entry, 0, len(found))
	for _, e := range found {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].Path < entries[j].Path
	})
	return entries
}

func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsColorizedPath reports whether path lives under the colorized dir.
func (s *Service) IsColorizedPath(path string) bool {
	resolved := cache.ResolvePath(path)
	base := cache.ResolvePath(s.colorizedDir)
	return resolved == base || strings.HasPrefix(resolved, base+string(filepath.Separator))
}

// DisplayName returns the override for path, or fallback.
func (s *Service) DisplayName(path, fallback string) string {
	return s.names.Get(path, fallback)
}

// SetDisplayName stores a display name override. An empty name clears it.
func (s *Service) SetDisplayName(path, name string) (string, error) {
	return s.names.Set(path, name)
}

// ClearDisplayName removes the override for path.
func (s *Service) ClearDisplayName(path string) error {
	return s.names.Remove(path)
}

// ComposeDisplayName returns the label for e, suffixed with " (Colorized)"
// for colorized variants.
func (s *Service) ComposeDisplayName(e Entry) string {
	colorized := s.IsColorizedPath(e.Path) || strings.HasPrefix(strings.ToLower(e.Name), "colorized/")
	base := s.DisplayName(e.Path, filepath.Base(e.Name))
	if colorized && !strings.Contains(strings.ToLower(base), "(colorized)") {
		return base + " (Colorized)"
	}
	return base
}

// Item converts e into a listing row.
func (s *Service) Item(e Entry) model.Item {
	item := model.Item{
		Kind:      model.KindWallpaper,
		Name:      e.Name,
		Display:   s.ComposeDisplayName(e),
		Path:      e.Path,
		Colorized: s.IsColorizedPath(e.Path) || strings.HasPrefix(strings.ToLower(e.Name), "colorized/"),
	}
	if info, err := os.Stat(e.Path); err == nil {
		item.ModTime = info.ModTime().Unix()
		item.Size = info.Size()
	}
	return item
}

// QueryOptions narrows and orders a listing.
type QueryOptions struct {
	Search       string // Case-insensitive match on name or display name
	SortMode     string // Empty uses the stored sort mode
	WithPalettes bool   // Attach cached-or-computed palettes
	Filter       *core.FilterExpr
}

// Query lists wallpapers as items, filtered and sorted.
func (s *Service) Query(opts QueryOptions) []model.Item {
	entries := s.List()
	current := s.Current()

	items := make([]model.Item, 0, len(entries))
	for _, e := range entries {
		item := s.Item(e)
		item.Current = current != "" && cache.ResolvePath(e.Path) == cache.ResolvePath(current)
		if opts.WithPalettes {
			item.Colors = s.Palette(e.Path, s.paletteSize)
		}
		items = append(items, item)
	}

	items = core.Search(items, opts.Search)
	items = core.FilterWithExpr(items, opts.Filter)

	mode := opts.SortMode
	if mode == "" {
		mode = s.SortMode()
	}
	core.Sort(items, core.SortOptionsForMode(mode))
	return items
}
