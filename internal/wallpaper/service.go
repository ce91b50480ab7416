// Package wallpaper manages the wallpaper library: discovery, display
// names, palettes, colorized variants, thumbnails and applying via nitrogen.
package wallpaper

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/colors"
	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/core"
	"github.com/archcrafter/loom/internal/settings"
	"github.com/archcrafter/loom/internal/sysexec"
)

// SectionName is the settings section holding wallpaper state.
const SectionName = "wallpapers"

// Settings keys.
const (
	keySource         = "source"
	keyFillMode       = "fill_mode"
	keyViewMode       = "view_mode"
	keyCustomDirs     = "custom_dirs"
	keySortMode       = "sort_mode"
	keyThumbSize      = "thumb_size"
	keyStrength       = "colorize_strength"
	keyTagColor       = "colorized_tag_color"
	keyBadgeColor     = "colorized_badge_color"
	keyNameOverrides  = "name_overrides"
	keyRecentSwatches = "colorize_recent"
	keyLastApplied    = "last_applied"
)

// Sources.
const (
	SourceCustom = "custom"
	SourceSystem = "system"
)

// View modes.
const (
	ViewGrid = "grid"
	ViewList = "list"
)

// Fill modes understood by nitrogen.
const (
	FillZoom     = "zoom-fill"
	FillCentered = "centered"
	FillScaled   = "scaled"
	FillTiled    = "tiled"
	FillAuto     = "auto"
)

// FillModes lists the valid fill modes.
var FillModes = []string{FillZoom, FillCentered, FillScaled, FillTiled, FillAuto}

// Limits and defaults.
const (
	ThumbSizeMin     = 160
	ThumbSizeMax     = 320
	ThumbSizeDefault = 220

	StrengthMin     = 10
	StrengthMax     = 100
	StrengthDefault = 65

	DefaultBadgeColor = "#1482C8"

	recentSwatchLimit = 24
	recentSwatchCap   = 36
)

// SupportedExts are the image extensions considered wallpapers.
var SupportedExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".bmp": true,
}

// Errors.
var (
	ErrNotFound      = errors.New("wallpaper not found")
	ErrNotAFile      = errors.New("target is not a file")
	ErrMagickMissing = errors.New("ImageMagick is required for colorize (magick/convert not found)")
)

// Options configures a Service.
type Options struct {
	DataDir           string   // Holds library/ and the legacy cache/ tree
	CacheDir          string   // Holds the palette cache and thumbnails
	SystemDirs        []string // System wallpaper directories
	PaletteSize       int
	ThumbnailMaxFiles int
	FlushThreshold    int
	NitrogenConfig    string // nitrogen's bg-saved.cfg, read when nothing was applied yet
	Runner            sysexec.Runner
	Logger            *slog.Logger
}

// Service manages wallpapers.
type Service struct {
	settings *settings.Store
	section  *settings.Section
	names    *NameStore
	runner   sysexec.Runner
	logger   *slog.Logger

	libraryDir   string
	colorizedDir string
	legacyDir    string
	thumbDir     string
	systemDirs   []string
	nitrogenCfg  string

	paletteSize int
	thumbMax    int
	palettes    *cache.SignatureCache[[]string]

	askpassCandidates []string
	getenv            func(string) string
}

// New creates the service, preparing directories and settings defaults.
func New(store *settings.Store, opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Runner == nil {
		opts.Runner = sysexec.NewExecRunner()
	}
	if opts.PaletteSize <= 0 {
		opts.PaletteSize = config.DefaultPaletteSize
	}
	if opts.ThumbnailMaxFiles <= 0 {
		opts.ThumbnailMaxFiles = config.DefaultThumbnailMaxFiles
	}

	library := filepath.Join(opts.DataDir, "library", "wallpapers")
	s := &Service{
		settings:          store,
		section:           store.Section(SectionName),
		runner:            opts.Runner,
		logger:            opts.Logger,
		libraryDir:        library,
		colorizedDir:      filepath.Join(library, "colorized"),
		legacyDir:         filepath.Join(opts.DataDir, "cache", "wallpaper_variants"),
		thumbDir:          filepath.Join(opts.CacheDir, "thumbnails"),
		systemDirs:        config.ExpandPaths(opts.SystemDirs),
		nitrogenCfg:       config.ExpandPath(opts.NitrogenConfig),
		paletteSize:       opts.PaletteSize,
		thumbMax:          opts.ThumbnailMaxFiles,
		askpassCandidates: append([]string(nil), AskpassCandidates...),
		getenv:            os.Getenv,
	}
	s.palettes = cache.New(
		filepath.Join(opts.CacheDir, "palette_cache.json"),
		cache.WithThreshold[[]string](opts.FlushThreshold),
		cache.WithLogger[[]string](opts.Logger),
		cache.WithValidator(validPalette),
	)

	for _, dir := range []string{s.libraryDir, s.colorizedDir, s.thumbDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	s.importLegacyVariants()
	s.names = NewNameStore(store, s.section)
	if err := s.ensureDefaults(); err != nil {
		return nil, err
	}

	s.palettes.Load()
	if _, err := s.PruneThumbnails(s.thumbMax); err != nil {
		s.logger.Debug("thumbnail prune failed", "error", err)
	}
	return s, nil
}

func validPalette(v []string) bool {
	if len(v) == 0 {
		return false
	}
	for _, c := range v {
		if _, ok := colors.Normalize(c); !ok {
			return false
		}
	}
	return true
}

// LibraryDir returns the user wallpaper library directory.
func (s *Service) LibraryDir() string { return s.libraryDir }

// ColorizedDir returns the directory colorized variants are written to.
func (s *Service) ColorizedDir() string { return s.colorizedDir }

// ThumbnailDir returns the thumbnail cache directory.
func (s *Service) ThumbnailDir() string { return s.thumbDir }

// SystemDirs returns the configured system wallpaper directories.
func (s *Service) SystemDirs() []string { return append([]string(nil), s.systemDirs...) }

// importLegacyVariants copies variants from the old cache location into the
// colorized directory, never overwriting.
func (s *Service) importLegacyVariants() {
	entries, err := os.ReadDir(s.legacyDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !SupportedExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		dst := filepath.Join(s.colorizedDir, e.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := copyFile(filepath.Join(s.legacyDir, e.Name()), dst); err != nil {
			s.logger.Debug("failed to import legacy variant", "file", e.Name(), "error", err)
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func (s *Service) ensureDefaults() error {
	sec := s.section
	sec.SetDefault(keySource, SourceCustom)
	sec.SetDefault(keyFillMode, FillZoom)
	sec.SetDefault(keyViewMode, ViewGrid)
	sec.SetDefault(keyCustomDirs, []any{s.libraryDir, s.colorizedDir})
	sec.SetDefault(keySortMode, core.ModeNameAsc)
	sec.SetDefault(keyThumbSize, ThumbSizeDefault)
	sec.SetDefault(keyStrength, StrengthDefault)
	sec.SetDefault(keyTagColor, DefaultBadgeColor)
	sec.SetDefault(keyBadgeColor, DefaultBadgeColor)
	sec.SetDefault(keyNameOverrides, map[string]any{})

	dirs, _ := sec.StringSlice(keyCustomDirs)
	found := false
	for _, d := range dirs {
		if d == s.colorizedDir {
			found = true
			break
		}
	}
	if !found {
		dirs = append(dirs, s.colorizedDir)
	}
	sec.Set(keyCustomDirs, toAny(dirs))

	return s.save()
}

func (s *Service) save() error {
	if err := s.settings.Save(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func oneOf(value string, valid []string) bool {
	for _, v := range valid {
		if v == value {
			return true
		}
	}
	return false
}

// Source returns "custom" or "system".
func (s *Service) Source() string {
	if s.section.String(keySource, SourceCustom) == SourceSystem {
		return SourceSystem
	}
	return SourceCustom
}

// SetSource stores the source. Anything but "system" means custom.
func (s *Service) SetSource(source string) error {
	if source != SourceSystem {
		source = SourceCustom
	}
	s.section.Set(keySource, source)
	return s.save()
}

// FillMode returns the nitrogen fill mode.
func (s *Service) FillMode() string {
	mode := s.section.String(keyFillMode, FillZoom)
	if !oneOf(mode, FillModes) {
		return FillZoom
	}
	return mode
}

// SetFillMode stores mode, falling back to zoom-fill when invalid.
func (s *Service) SetFillMode(mode string) error {
	if !oneOf(mode, FillModes) {
		mode = FillZoom
	}
	s.section.Set(keyFillMode, mode)
	return s.save()
}

// ViewMode returns "grid" or "list".
func (s *Service) ViewMode() string {
	if s.section.String(keyViewMode, ViewGrid) == ViewList {
		return ViewList
	}
	return ViewGrid
}

// SetViewMode stores the view mode. Anything but "list" means grid.
func (s *Service) SetViewMode(mode string) error {
	if mode != ViewList {
		mode = ViewGrid
	}
	s.section.Set(keyViewMode, mode)
	return s.save()
}

// SortMode returns the listing sort mode.
func (s *Service) SortMode() string {
	mode := s.section.String(keySortMode, core.ModeNameAsc)
	if !oneOf(mode, core.SortModes) {
		return core.ModeNameAsc
	}
	return mode
}

// SetSortMode stores mode, falling back to name_asc when invalid.
func (s *Service) SetSortMode(mode string) error {
	if !oneOf(mode, core.SortModes) {
		mode = core.ModeNameAsc
	}
	s.section.Set(keySortMode, mode)
	return s.save()
}

// ThumbSize returns the thumbnail edge in pixels, clamped to [160, 320].
func (s *Service) ThumbSize() int {
	return clampInt(s.section.Int(keyThumbSize, ThumbSizeDefault), ThumbSizeMin, ThumbSizeMax)
}

// SetThumbSize stores size clamped to [160, 320].
func (s *Service) SetThumbSize(size int) error {
	s.section.Set(keyThumbSize, clampInt(size, ThumbSizeMin, ThumbSizeMax))
	return s.save()
}

// ColorizeStrength returns the colorize strength, clamped to [10, 100].
func (s *Service) ColorizeStrength() int {
	return clampInt(s.section.Int(keyStrength, StrengthDefault), StrengthMin, StrengthMax)
}

// SetColorizeStrength stores value clamped to [10, 100].
func (s *Service) SetColorizeStrength(value int) error {
	s.section.Set(keyStrength, clampInt(value, StrengthMin, StrengthMax))
	return s.save()
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// BadgeCSS returns the background and text colours for the colorized badge.
// The badge colour wins over the older tag colour setting.
func (s *Service) BadgeCSS() (background, text string) {
	raw := s.section.String(keyBadgeColor, "")
	if strings.TrimSpace(raw) == "" {
		raw = s.section.String(keyTagColor, DefaultBadgeColor)
	}
	return colors.BadgeColors(raw)
}

// SetBadgeColor stores the badge colour. Invalid colours are rejected.
func (s *Service) SetBadgeColor(hex string) error {
	normalized, ok := colors.Normalize(hex)
	if !ok {
		return fmt.Errorf("invalid colour %q", hex)
	}
	s.section.Set(keyBadgeColor, strings.ToUpper(normalized))
	return s.save()
}

// Close flushes pending palette cache writes.
func (s *Service) Close() error {
	return s.palettes.Flush()
}
