// Package gtktheme discovers GTK themes, applies them through gsettings,
// extracts their palettes and renders preview screenshots.
package gtktheme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/gsettings"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/sysexec"
	"github.com/archcrafter/loom/internal/themedir"
)

// Errors.
var (
	ErrNotFound        = errors.New("theme not found")
	ErrRendererMissing = errors.New("preview renderer not found")
	ErrUnknownVariant  = errors.New("unknown preview variant")
	ErrRenderNoOutput  = errors.New("renderer produced no output")
)

// Theme is an installed GTK theme.
type Theme = themedir.Entry

// Options configures a Service.
type Options struct {
	SystemDirs        []string
	UserDirs          []string
	CacheDir          string
	Renderer          string // Preview helper binary; empty looks up loom-preview
	RenderTimeout     time.Duration
	RenderConcurrency int
	Sizes             map[string]Size // Preview sizes by variant
	FlushThreshold    int
	Runner            sysexec.Runner
	Settings          *gsettings.Client
	Logger            *slog.Logger
}

// Service manages GTK themes.
type Service struct {
	systemDirs []string
	userDirs   []string
	previewDir string
	renderer   string
	timeout    time.Duration
	sizes      map[string]Size

	runner   sysexec.Runner
	settings *gsettings.Client
	logger   *slog.Logger

	metadata *cache.SignatureCache[Metadata]
	renders  singleflight.Group
	sem      *semaphore.Weighted
}

// New creates the service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Runner == nil {
		opts.Runner = sysexec.NewExecRunner()
	}
	if opts.Settings == nil {
		opts.Settings = gsettings.New(opts.Runner, nil, opts.Logger)
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = config.DefaultConfig().RenderTimeoutDuration()
	}
	if opts.RenderConcurrency <= 0 {
		opts.RenderConcurrency = config.DefaultRenderConcurrency
	}

	sizes := DefaultSizes()
	for variant, size := range opts.Sizes {
		if size.Width > 0 && size.Height > 0 {
			sizes[variant] = size
		}
	}

	s := &Service{
		systemDirs: config.ExpandPaths(opts.SystemDirs),
		userDirs:   config.ExpandPaths(opts.UserDirs),
		previewDir: filepath.Join(opts.CacheDir, "gtk_previews"),
		renderer:   config.ExpandPath(opts.Renderer),
		timeout:    opts.RenderTimeout,
		sizes:      sizes,
		runner:     opts.Runner,
		settings:   opts.Settings,
		logger:     opts.Logger,
		sem:        semaphore.NewWeighted(int64(opts.RenderConcurrency)),
	}
	s.metadata = cache.New(
		filepath.Join(opts.CacheDir, "gtk_metadata.json"),
		cache.WithThreshold[Metadata](opts.FlushThreshold),
		cache.WithLogger[Metadata](opts.Logger),
	)
	s.metadata.Load()
	return s
}

// Close flushes the metadata cache.
func (s *Service) Close() error {
	return s.metadata.Flush()
}

// MetadataCache exposes the metadata cache for stats and clearing.
func (s *Service) MetadataCache() *cache.SignatureCache[Metadata] {
	return s.metadata
}

// List returns themes with gtk-3.0 or gtk-2.0 assets. User themes
// override system themes of the same name.
func (s *Service) List() []Theme {
	dirs := append(append([]string(nil), s.systemDirs...), s.userDirs...)
	return themedir.Scan(dirs, func(dir string) bool {
		return themedir.HasAny(dir, "gtk-3.0", "gtk-2.0")
	})
}

// Lookup finds an installed theme by exact name.
func (s *Service) Lookup(name string) (Theme, error) {
	if t, ok := themedir.Find(s.List(), name); ok {
		return t, nil
	}
	return Theme{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Current returns the active GTK theme, empty if unknown.
func (s *Service) Current(ctx context.Context) string {
	v, err := s.settings.Get(ctx, gsettings.KeyGtkTheme)
	if err != nil {
		s.logger.Debug("failed to read gtk theme", "error", err)
		return ""
	}
	return v
}

// Apply activates an installed theme.
func (s *Service) Apply(ctx context.Context, name string) (model.Result, error) {
	if _, err := s.Lookup(name); err != nil {
		return model.Result{}, err
	}
	previous := s.Current(ctx)
	if err := s.settings.Set(ctx, gsettings.KeyGtkTheme, name); err != nil {
		return model.Result{}, fmt.Errorf("failed to apply GTK theme: %w", err)
	}
	s.logger.Info("applied gtk theme", "theme", name)
	return model.Result{
		Kind:     model.KindGtkTheme,
		Value:    name,
		Previous: previous,
		Message:  "Applied GTK theme: " + name,
	}, nil
}

// Signature identifies the state of a theme's files. It changes whenever
// gtk.css, the theme directory or index.theme changes.
func Signature(t Theme) string {
	parts := []string{
		t.Name,
		cache.FileSignature(filepath.Join(t.Path, "gtk-3.0", "gtk.css")).String(),
		cache.FileSignature(t.Path).String(),
		cache.FileSignature(filepath.Join(t.Path, "index.theme")).String(),
	}
	return strings.Join(parts, "|")
}

// Items lists themes as rows with palette and dark flag attached.
func (s *Service) Items(ctx context.Context) []model.Item {
	current := s.Current(ctx)
	themes := s.List()
	items := make([]model.Item, 0, len(themes))
	for _, t := range themes {
		meta := s.Metadata(t)
		item := model.Item{
			Kind:    model.KindGtkTheme,
			Name:    t.Name,
			Path:    t.Path,
			Current: t.Name == current,
			Dark:    meta.Dark,
			Colors:  meta.Swatches(),
		}
		if info, err := os.Stat(t.Path); err == nil {
			item.ModTime = info.ModTime().Unix()
		}
		items = append(items, item)
	}
	return items
}
