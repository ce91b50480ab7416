// Package icontheme lists icon and cursor themes and applies them via gsettings.
package icontheme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/gsettings"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/themedir"
)

// Errors.
var (
	ErrNotFound    = errors.New("theme not found")
	ErrUnknownKind = errors.New("not an icon or cursor kind")
)

// Theme is an installed icon or cursor theme.
type Theme = themedir.Entry

// Options configures a Service.
type Options struct {
	SystemDirs []string
	UserDirs   []string
	Settings   *gsettings.Client
	Logger     *slog.Logger
}

// Service manages icon and cursor themes.
type Service struct {
	dirs     []string
	settings *gsettings.Client
	logger   *slog.Logger
}

// New creates the service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		dirs:     append(config.ExpandPaths(opts.SystemDirs), config.ExpandPaths(opts.UserDirs)...),
		settings: opts.Settings,
		logger:   opts.Logger,
	}
}

// gsettingsKey maps an item kind to its interface key.
func gsettingsKey(kind string) (string, error) {
	switch kind {
	case model.KindIconTheme:
		return gsettings.KeyIconTheme, nil
	case model.KindCursorTheme:
		return gsettings.KeyCursorTheme, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func label(kind string) string {
	if kind == model.KindCursorTheme {
		return "cursor theme"
	}
	return "icon theme"
}

// List returns themes of kind. Icon themes need an index.theme; cursor
// themes also need a cursors directory.
func (s *Service) List(kind string) ([]Theme, error) {
	if _, err := gsettingsKey(kind); err != nil {
		return nil, err
	}
	requireCursors := kind == model.KindCursorTheme
	return themedir.Scan(s.dirs, func(dir string) bool {
		if !themedir.HasAny(dir, "index.theme") {
			return false
		}
		return !requireCursors || themedir.IsDir(filepath.Join(dir, "cursors"))
	}), nil
}

// Current returns the active theme of kind, empty if unknown.
func (s *Service) Current(ctx context.Context, kind string) string {
	key, err := gsettingsKey(kind)
	if err != nil || s.settings == nil {
		return ""
	}
	v, err := s.settings.Get(ctx, key)
	if err != nil {
		s.logger.Debug("failed to read theme setting", "key", key, "error", err)
		return ""
	}
	return v
}

// Apply activates an installed theme of kind.
func (s *Service) Apply(ctx context.Context, kind, name string) (model.Result, error) {
	key, err := gsettingsKey(kind)
	if err != nil {
		return model.Result{}, err
	}
	themes, _ := s.List(kind)
	if _, ok := themedir.Find(themes, name); !ok {
		return model.Result{}, fmt.Errorf("%w: %s %s", ErrNotFound, label(kind), name)
	}
	if s.settings == nil {
		return model.Result{}, gsettings.ErrUnavailable
	}

	previous := s.Current(ctx, kind)
	if err := s.settings.Set(ctx, key, name); err != nil {
		return model.Result{}, fmt.Errorf("failed to apply %s: %w", label(kind), err)
	}
	s.logger.Info("applied "+label(kind), "theme", name)
	return model.Result{
		Kind:     kind,
		Value:    name,
		Previous: previous,
		Message:  fmt.Sprintf("Applied %s: %s", label(kind), name),
	}, nil
}

// Items lists themes of kind as rows, using index.theme for display names.
func (s *Service) Items(ctx context.Context, kind string) ([]model.Item, error) {
	themes, err := s.List(kind)
	if err != nil {
		return nil, err
	}
	current := s.Current(ctx, kind)

	items := make([]model.Item, 0, len(themes))
	for _, t := range themes {
		info, err := ReadIndex(filepath.Join(t.Path, "index.theme"))
		if err != nil {
			s.logger.Debug("unreadable index.theme", "theme", t.Name, "error", err)
		}
		item := model.Item{
			Kind:    kind,
			Name:    t.Name,
			Path:    t.Path,
			Comment: info.Comment,
			Current: t.Name == current,
			Dark:    themedir.IsDarkName(t.Name),
		}
		if info.Name != "" && info.Name != t.Name {
			item.Display = info.Name
		}
		items = append(items, item)
	}
	return items, nil
}
