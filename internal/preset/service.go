package preset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/settings"
	"github.com/archcrafter/loom/internal/sysexec"
)

// FetchSectionName is the settings section holding fetch state.
const FetchSectionName = "fetch"

// DefaultFetchEngine is used when the fetch section names none.
const DefaultFetchEngine = "fastfetch"

// Options configures a Service.
type Options struct {
	DataDir    string // Presets live in <DataDir>/library/<kind>/<engine>
	ConfigHome string // Install targets are resolved below it; empty = XDG config home
	PolybarBar string
	Runner     sysexec.Runner
	Logger     *slog.Logger
}

// Service lists, installs and runs presets.
type Service struct {
	settings   *settings.Store
	root       string
	configHome string
	polybarBar string
	runner     sysexec.Runner
	logger     *slog.Logger
}

// New creates the service.
func New(store *settings.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Runner == nil {
		opts.Runner = sysexec.NewExecRunner()
	}
	if opts.ConfigHome == "" {
		opts.ConfigHome = config.ConfigHome()
	}
	if opts.PolybarBar == "" {
		opts.PolybarBar = config.DefaultPolybarBar
	}
	return &Service{
		settings:   store,
		root:       filepath.Join(opts.DataDir, "library"),
		configHome: config.ExpandPath(opts.ConfigHome),
		polybarBar: opts.PolybarBar,
		runner:     opts.Runner,
		logger:     opts.Logger,
	}
}

// Dir returns the library directory for kind and engine.
func (s *Service) Dir(kind, engine string) (string, error) {
	if !IsKind(kind) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !SafeEngineName(engine) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEngine, engine)
	}
	return filepath.Join(s.root, kind, engine), nil
}

// List returns the presets for kind and engine. Invalid names and
// unreadable directories yield an empty list.
func (s *Service) List(kind, engine string) []Preset {
	dir, err := s.Dir(kind, engine)
	if err != nil {
		s.logger.Debug("rejected preset listing", "kind", kind, "engine", engine, "error", err)
		return nil
	}
	return listDir(dir, kind, engine)
}

// Engines returns the engine directories present for kind.
func (s *Service) Engines(kind string) []string {
	if !IsKind(kind) {
		return nil
	}
	entries, err := os.ReadDir(filepath.Join(s.root, kind))
	if err != nil {
		return nil
	}
	var engines []string
	for _, e := range entries {
		if e.IsDir() && SafeEngineName(e.Name()) {
			engines = append(engines, e.Name())
		}
	}
	sort.Strings(engines)
	return engines
}

// Find looks up a preset by name.
func (s *Service) Find(kind, engine, name string) (Preset, error) {
	for _, p := range s.List(kind, engine) {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s/%s/%s", ErrNotFound, kind, engine, name)
}

// FetchSection returns the fetch settings section with defaults filled in.
func (s *Service) FetchSection() *settings.Section {
	sec := s.settings.Section(FetchSectionName)
	sec.SetDefault("engine", DefaultFetchEngine)
	sec.SetDefault("preset_dirs", []any{})
	sec.SetDefault("default_preset", "")
	sec.SetDefault("search_text", "")
	sec.SetDefault("auto_refresh", true)
	return sec
}

// Target returns the config file a preset is installed to.
func (s *Service) Target(p Preset) (string, error) {
	if !SafeEngineName(p.Engine) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEngine, p.Engine)
	}
	ext := strings.ToLower(filepath.Ext(p.Path))
	switch p.Kind {
	case KindFetch:
		if p.Engine == "fastfetch" {
			return filepath.Join(s.configHome, "fastfetch", "config.jsonc"), nil
		}
		return filepath.Join(s.configHome, p.Engine, "config.conf"), nil
	case KindPanels:
		switch p.Engine {
		case "polybar":
			return filepath.Join(s.configHome, "polybar", "config.ini"), nil
		case "tint2":
			return filepath.Join(s.configHome, "tint2", "tint2rc"), nil
		}
	case KindMenu:
		if p.Engine == "jgmenu" {
			if ext == ".csv" {
				return filepath.Join(s.configHome, "jgmenu", "prepend.csv"), nil
			}
			return filepath.Join(s.configHome, "jgmenu", "jgmenurc"), nil
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	return "", fmt.Errorf("%w: %s %s", ErrUnknownEngine, p.Kind, p.Engine)
}

// Install copies the preset over the engine's config, keeping the old file
// as <target>.bak, and restarts a running panel. For fetch presets the
// fetch section records the engine and preset.
func (s *Service) Install(ctx context.Context, p Preset) (model.Result, error) {
	target, err := s.Target(p)
	if err != nil {
		return model.Result{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return model.Result{}, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}

	backup := ""
	if _, err := os.Stat(target); err == nil {
		backup = target + ".bak"
		if err := copyFile(target, backup); err != nil {
			return model.Result{}, fmt.Errorf("failed to back up %s: %w", target, err)
		}
	}
	if err := copyFile(p.Path, target); err != nil {
		return model.Result{}, fmt.Errorf("failed to install preset: %w", err)
	}
	s.logger.Info("installed preset", "preset", p.ID(), "target", target)

	if p.Kind == KindFetch {
		sec := s.FetchSection()
		sec.Set("engine", p.Engine)
		sec.Set("default_preset", p.Name)
		if err := s.settings.Save(); err != nil {
			s.logger.Warn("failed to save fetch settings", "error", err)
		}
	}
	if p.Kind == KindPanels {
		s.restartPanel(ctx, p.Engine)
	}

	return model.Result{
		Kind:     model.KindPreset,
		Value:    p.ID(),
		Previous: backup,
		Message:  fmt.Sprintf("Installed %s preset: %s", p.Engine, p.Name),
	}, nil
}

// Revert restores the config a preset install replaced. Without a backup
// the installed file is removed.
func (s *Service) Revert(ctx context.Context, id string) (model.Result, error) {
	kind, engine, name, err := ParseID(id)
	if err != nil {
		return model.Result{}, err
	}
	p, err := s.Find(kind, engine, name)
	if err != nil {
		return model.Result{}, err
	}
	target, err := s.Target(p)
	if err != nil {
		return model.Result{}, err
	}

	backup := target + ".bak"
	if _, err := os.Stat(backup); err == nil {
		if err := os.Rename(backup, target); err != nil {
			return model.Result{}, fmt.Errorf("failed to restore %s: %w", target, err)
		}
	} else if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return model.Result{}, fmt.Errorf("failed to remove %s: %w", target, err)
	}
	if kind == KindPanels {
		s.restartPanel(ctx, engine)
	}
	return model.Result{
		Kind:    model.KindPreset,
		Value:   id,
		Message: fmt.Sprintf("Restored %s config", engine),
	}, nil
}

// restartPanel relaunches polybar or tint2 when one is running.
// Failures are logged only; the preset itself is already in place.
func (s *Service) restartPanel(ctx context.Context, engine string) {
	if engine != "polybar" && engine != "tint2" {
		return
	}
	if !sysexec.IsRunning(ctx, s.runner, engine) {
		return
	}
	if _, err := s.runner.Run(ctx, "pkill", "-x", engine); err != nil {
		s.logger.Warn("failed to stop panel", "panel", engine, "error", err)
		return
	}
	var args []string
	if engine == "polybar" {
		args = []string{s.polybarBar}
	}
	if err := s.runner.Start(engine, args...); err != nil {
		s.logger.Warn("failed to restart panel", "panel", engine, "error", err)
	}
}

// Show runs a fetch engine with the preset and returns its output.
func (s *Service) Show(ctx context.Context, p Preset) (string, error) {
	if p.Kind != KindFetch {
		return "", ErrNotFetch
	}
	if _, err := s.runner.LookPath(p.Engine); err != nil {
		return "", &sysexec.ToolError{Tool: p.Engine, Err: sysexec.ErrToolMissing}
	}

	args := []string{"--config", p.Path}
	if p.Engine == "fastfetch" {
		args = append(args, "--pipe")
	}
	out, err := s.runner.Run(ctx, p.Engine, args...)
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", p.Engine, err)
	}
	return string(out), nil
}

// Items lists the presets of every engine of kind as rows.
func (s *Service) Items(kind string) []model.Item {
	var items []model.Item
	current := ""
	if kind == KindFetch {
		current = s.FetchSection().String("default_preset", "")
	}
	for _, engine := range s.Engines(kind) {
		for _, p := range s.List(kind, engine) {
			items = append(items, model.Item{
				Kind:    model.KindPreset,
				Name:    p.ID(),
				Display: p.Name,
				Path:    p.Path,
				Comment: engine,
				Current: current != "" && p.Name == current,
			})
		}
	}
	return items
}

// copyFile writes src to dst through a temp file in dst's directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".preset-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, dst)
}
