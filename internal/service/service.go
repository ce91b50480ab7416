// Package service wires the appearance services together and adds the
// cross-cutting apply behaviour: journaling, undo and notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/gsettings"
	"github.com/archcrafter/loom/internal/gtktheme"
	"github.com/archcrafter/loom/internal/icontheme"
	"github.com/archcrafter/loom/internal/journal"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/notify"
	"github.com/archcrafter/loom/internal/preset"
	"github.com/archcrafter/loom/internal/settings"
	"github.com/archcrafter/loom/internal/sysexec"
	"github.com/archcrafter/loom/internal/wallpaper"
	"github.com/archcrafter/loom/internal/windowtheme"
)

// DefaultNitrogenConfig is nitrogen's saved-background file.
const DefaultNitrogenConfig = "~/.config/nitrogen/bg-saved.cfg"

// ErrUnknownKind is returned for kinds no service handles.
var ErrUnknownKind = errors.New("unknown kind")

// Options configures a Container. Empty paths use the XDG defaults.
type Options struct {
	Config         *config.Config
	DataDir        string
	CacheDir       string
	SettingsPath   string
	JournalPath    string
	NitrogenConfig string
	ConfigHome     string
	Runner         sysexec.Runner
	Portal         gsettings.SettingsReader // Read fallback when gsettings is missing
	Sender         notify.Sender            // nil disables notifications
	Logger         *slog.Logger
}

// Container holds every service.
type Container struct {
	Config     *config.Config
	Settings   *settings.Store
	Wallpapers *wallpaper.Service
	GTK        *gtktheme.Service
	Windows    *windowtheme.Service
	Icons      *icontheme.Service
	Presets    *preset.Service
	Journal    *journal.Journal
	Notifier   *notify.Notifier
	Tools      sysexec.Tools

	runner sysexec.Runner
	logger *slog.Logger
}

// New builds the container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Runner == nil {
		opts.Runner = sysexec.NewExecRunner()
	}
	if opts.DataDir == "" {
		opts.DataDir = config.DataPath()
	}
	if opts.CacheDir == "" {
		opts.CacheDir = config.CachePath()
	}
	if opts.SettingsPath == "" {
		opts.SettingsPath = filepath.Join(opts.DataDir, "settings.json")
	}
	if opts.JournalPath == "" {
		opts.JournalPath = filepath.Join(opts.DataDir, "history.jsonl")
	}
	if opts.NitrogenConfig == "" {
		opts.NitrogenConfig = DefaultNitrogenConfig
	}
	cfg := opts.Config

	store := settings.Open(opts.SettingsPath)
	gs := gsettings.New(opts.Runner, opts.Portal, opts.Logger)

	walls, err := wallpaper.New(store, wallpaper.Options{
		DataDir:           opts.DataDir,
		CacheDir:          opts.CacheDir,
		SystemDirs:        cfg.Wallpaper.SystemDirs,
		PaletteSize:       cfg.Wallpaper.PaletteSize,
		ThumbnailMaxFiles: cfg.Wallpaper.ThumbnailMaxFiles,
		FlushThreshold:    cfg.Cache.FlushThreshold,
		NitrogenConfig:    opts.NitrogenConfig,
		Runner:            opts.Runner,
		Logger:            opts.Logger.With("service", "wallpaper"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize wallpapers: %w", err)
	}

	hist, err := journal.Open(opts.JournalPath)
	if err != nil {
		_ = walls.Close()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	notifier := notify.New(opts.Sender, opts.Logger.With("service", "notify"))
	notifier.SetEnabled(cfg.Notify.Enabled)
	notifier.SetMinInterval(cfg.NotifyIntervalDuration())

	c := &Container{
		Config:     cfg,
		Settings:   store,
		Wallpapers: walls,
		GTK: gtktheme.New(gtktheme.Options{
			SystemDirs:        cfg.GTK.SystemDirs,
			UserDirs:          cfg.GTK.UserDirs,
			CacheDir:          opts.CacheDir,
			Renderer:          cfg.GTK.PreviewRenderer,
			RenderTimeout:     cfg.RenderTimeoutDuration(),
			RenderConcurrency: cfg.GTK.RenderConcurrency,
			Sizes: map[string]gtktheme.Size{
				gtktheme.VariantCard:  {Width: cfg.GTK.CardWidth, Height: cfg.GTK.CardHeight},
				gtktheme.VariantPanel: {Width: cfg.GTK.PanelWidth, Height: cfg.GTK.PanelHeight},
			},
			FlushThreshold: cfg.Cache.FlushThreshold,
			Runner:         opts.Runner,
			Settings:       gs,
			Logger:         opts.Logger.With("service", "gtk"),
		}),
		Windows: windowtheme.New(windowtheme.Options{
			SystemDirs: cfg.GTK.SystemDirs,
			UserDirs:   cfg.GTK.UserDirs,
			RCXML:      cfg.Openbox.RCXML,
			Runner:     opts.Runner,
			Logger:     opts.Logger.With("service", "window"),
		}),
		Icons: icontheme.New(icontheme.Options{
			SystemDirs: cfg.Icons.SystemDirs,
			UserDirs:   cfg.Icons.UserDirs,
			Settings:   gs,
			Logger:     opts.Logger.With("service", "icons"),
		}),
		Presets: preset.New(store, preset.Options{
			DataDir:    opts.DataDir,
			ConfigHome: opts.ConfigHome,
			PolybarBar: cfg.Panels.PolybarBar,
			Runner:     opts.Runner,
			Logger:     opts.Logger.With("service", "preset"),
		}),
		Journal:  hist,
		Notifier: notifier,
		Tools:    sysexec.DetectTools(opts.Runner),
		runner:   opts.Runner,
		logger:   opts.Logger,
	}
	return c, nil
}

// AsMap returns the services keyed by name.
func (c *Container) AsMap() map[string]any {
	return map[string]any{
		"settings":       c.Settings,
		"wallpapers":     c.Wallpapers,
		"gtk_themes":     c.GTK,
		"window_themes":  c.Windows,
		"icon_themes":    c.Icons,
		"presets":        c.Presets,
		"journal":        c.Journal,
		"notifier":       c.Notifier,
		"external_tools": c.Tools,
	}
}

// Runner returns the subprocess runner shared by the services.
func (c *Container) Runner() sysexec.Runner {
	return c.runner
}

// Close flushes caches and releases the journal.
func (c *Container) Close() error {
	return errors.Join(
		c.Wallpapers.Close(),
		c.GTK.Close(),
		c.Journal.Close(),
	)
}

// apply dispatches a change without journaling it.
func (c *Container) apply(ctx context.Context, kind, value string) (model.Result, error) {
	switch kind {
	case model.KindWallpaper:
		return c.Wallpapers.Apply(ctx, value)
	case model.KindGtkTheme:
		return c.GTK.Apply(ctx, value)
	case model.KindWindowTheme:
		return c.Windows.Apply(ctx, value)
	case model.KindIconTheme, model.KindCursorTheme:
		return c.Icons.Apply(ctx, kind, value)
	case model.KindPreset:
		kindName, engine, name, err := preset.ParseID(value)
		if err != nil {
			return model.Result{}, err
		}
		p, err := c.Presets.Find(kindName, engine, name)
		if err != nil {
			return model.Result{}, err
		}
		return c.Presets.Install(ctx, p)
	}
	return model.Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Apply performs a change, records it in the history and announces it.
func (c *Container) Apply(ctx context.Context, kind, value string) (model.Result, error) {
	res, err := c.apply(ctx, kind, value)
	if err != nil {
		c.Notifier.Failed(ctx, kind, err)
		return res, err
	}
	if _, err := c.Journal.Record(res.Kind, res.Value, res.Previous); err != nil {
		c.logger.Warn("failed to record history", "kind", kind, "error", err)
	}
	c.Notifier.Applied(ctx, kind, res.Value)
	return res, nil
}

// Undo reverts the newest change that has not been undone yet.
func (c *Container) Undo(ctx context.Context) (model.Result, error) {
	entries, err := c.Journal.Load()
	if err != nil {
		return model.Result{}, err
	}
	target, err := journal.Undoable(entries)
	if err != nil {
		return model.Result{}, err
	}

	var res model.Result
	if target.Kind == model.KindPreset {
		res, err = c.Presets.Revert(ctx, target.Value)
	} else {
		res, err = c.apply(ctx, target.Kind, target.Previous)
	}
	if err != nil {
		c.Notifier.Failed(ctx, target.Kind, err)
		return res, fmt.Errorf("failed to undo %s: %w", target.Kind, err)
	}

	if _, err := c.Journal.RecordUndo(target); err != nil {
		c.logger.Warn("failed to record undo", "id", target.ID, "error", err)
	}
	c.Notifier.Applied(ctx, target.Kind, target.Previous)
	res.Message = "Undone: " + res.Message
	return res, nil
}

// Current returns the active value of kind.
func (c *Container) Current(ctx context.Context, kind string) (string, error) {
	switch kind {
	case model.KindWallpaper:
		return c.Wallpapers.Current(), nil
	case model.KindGtkTheme:
		return c.GTK.Current(ctx), nil
	case model.KindWindowTheme:
		return c.Windows.Current(), nil
	case model.KindIconTheme, model.KindCursorTheme:
		return c.Icons.Current(ctx, kind), nil
	case model.KindPreset:
		return c.Presets.FetchSection().String("default_preset", ""), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Items lists the rows of kind.
func (c *Container) Items(ctx context.Context, kind string) ([]model.Item, error) {
	switch kind {
	case model.KindWallpaper:
		return c.Wallpapers.Query(wallpaper.QueryOptions{}), nil
	case model.KindGtkTheme:
		return c.GTK.Items(ctx), nil
	case model.KindWindowTheme:
		return c.Windows.Items(), nil
	case model.KindIconTheme, model.KindCursorTheme:
		return c.Icons.Items(ctx, kind)
	case model.KindPreset:
		var items []model.Item
		for _, k := range preset.Kinds {
			items = append(items, c.Presets.Items(k)...)
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Palette returns up to count colours extracted from the wallpaper at path.
func (c *Container) Palette(path string, count int) []string {
	return c.Wallpapers.Palette(path, count)
}

// Status is a snapshot of the active appearance.
type Status struct {
	Wallpaper   string `json:"wallpaper" yaml:"wallpaper"`
	GTK         string `json:"gtk" yaml:"gtk"`
	Window      string `json:"window" yaml:"window"`
	Icons       string `json:"icons" yaml:"icons"`
	Cursors     string `json:"cursors" yaml:"cursors"`
	FetchPreset string `json:"fetch_preset,omitempty" yaml:"fetch_preset,omitempty"`
}

// Status reads the active value of every kind.
func (c *Container) Status(ctx context.Context) Status {
	return Status{
		Wallpaper:   c.Wallpapers.Current(),
		GTK:         c.GTK.Current(ctx),
		Window:      c.Windows.Current(),
		Icons:       c.Icons.Current(ctx, model.KindIconTheme),
		Cursors:     c.Icons.Current(ctx, model.KindCursorTheme),
		FetchPreset: c.Presets.FetchSection().String("default_preset", ""),
	}
}
