// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultThumbnailMaxFiles = 5000
	DefaultPaletteSize       = 5
	DefaultFlushThreshold    = 24
	DefaultRenderTimeout     = "20s"
	DefaultRenderConcurrency = 2
	DefaultCardWidth         = 320
	DefaultCardHeight        = 150
	DefaultPanelWidth        = 640
	DefaultPanelHeight       = 420
	DefaultNotifyInterval    = "5s"
	DefaultSwatchCount       = 5
	DefaultPolybarBar        = "main"
)

// Config represents the loom configuration.
type Config struct {
	Wallpaper WallpaperConfig `toml:"wallpaper"`
	GTK       GTKConfig       `toml:"gtk"`
	Icons     IconsConfig     `toml:"icons"`
	Openbox   OpenboxConfig   `toml:"openbox"`
	Panels    PanelsConfig    `toml:"panels"`
	Cache     CacheConfig     `toml:"cache"`
	Notify    NotifyConfig    `toml:"notify"`
	TUI       TUIConfig       `toml:"tui"`
}

// WallpaperConfig holds wallpaper discovery settings.
type WallpaperConfig struct {
	SystemDirs        []string `toml:"system_dirs"`
	ThumbnailMaxFiles int      `toml:"thumbnail_max_files"`
	PaletteSize       int      `toml:"palette_size"`
}

// GTKConfig holds GTK theme discovery and preview settings.
type GTKConfig struct {
	SystemDirs        []string `toml:"system_dirs"`
	UserDirs          []string `toml:"user_dirs"`
	PreviewRenderer   string   `toml:"preview_renderer"` // Empty = auto-detect loom-preview
	RenderTimeout     string   `toml:"render_timeout"`
	RenderConcurrency int      `toml:"render_concurrency"`
	CardWidth         int      `toml:"card_width"`
	CardHeight        int      `toml:"card_height"`
	PanelWidth        int      `toml:"panel_width"`
	PanelHeight       int      `toml:"panel_height"`
}

// IconsConfig holds icon and cursor theme discovery settings.
type IconsConfig struct {
	SystemDirs []string `toml:"system_dirs"`
	UserDirs   []string `toml:"user_dirs"`
}

// OpenboxConfig holds window manager settings.
type OpenboxConfig struct {
	RCXML string `toml:"rc_xml"`
}

// PanelsConfig holds panel restart settings.
type PanelsConfig struct {
	PolybarBar string `toml:"polybar_bar"` // Bar name passed to polybar on restart
}

// CacheConfig holds derived-asset cache settings.
type CacheConfig struct {
	FlushThreshold int `toml:"flush_threshold"` // Writes buffered before an on-disk flush
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Enabled     bool   `toml:"enabled"`
	MinInterval string `toml:"min_interval"`
}

// TUIConfig holds TUI-specific settings.
type TUIConfig struct {
	ShowHelp    bool `toml:"show_help"`
	SwatchCount int  `toml:"swatch_count"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Wallpaper: WallpaperConfig{
			SystemDirs:        []string{"/usr/share/backgrounds", "/usr/share/wallpapers"},
			ThumbnailMaxFiles: DefaultThumbnailMaxFiles,
			PaletteSize:       DefaultPaletteSize,
		},
		GTK: GTKConfig{
			SystemDirs:        []string{"/usr/share/themes"},
			UserDirs:          []string{"~/.themes", "~/.local/share/themes"},
			RenderTimeout:     DefaultRenderTimeout,
			RenderConcurrency: DefaultRenderConcurrency,
			CardWidth:         DefaultCardWidth,
			CardHeight:        DefaultCardHeight,
			PanelWidth:        DefaultPanelWidth,
			PanelHeight:       DefaultPanelHeight,
		},
		Icons: IconsConfig{
			SystemDirs: []string{"/usr/share/icons"},
			UserDirs:   []string{"~/.icons", "~/.local/share/icons"},
		},
		Openbox: OpenboxConfig{
			RCXML: "~/.config/openbox/rc.xml",
		},
		Panels: PanelsConfig{
			PolybarBar: DefaultPolybarBar,
		},
		Cache: CacheConfig{
			FlushThreshold: DefaultFlushThreshold,
		},
		Notify: NotifyConfig{
			Enabled:     true,
			MinInterval: DefaultNotifyInterval,
		},
		TUI: TUIConfig{
			ShowHelp:    true,
			SwatchCount: DefaultSwatchCount,
		},
	}
}

// ConfigHome returns XDG_CONFIG_HOME, falling back to ~/.config.
func ConfigHome() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return configHome
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	configHome := ConfigHome()
	if configHome == "" {
		return ""
	}
	return filepath.Join(configHome, "loom", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "loom")
}

// CachePath returns the path to the derived-asset cache directory.
// Uses XDG_CACHE_HOME if set, otherwise ~/.cache.
func CachePath() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, "loom")
}

// SettingsPath returns the path to the user settings JSON file.
func SettingsPath() string {
	return filepath.Join(DataPath(), "settings.json")
}

// JournalPath returns the path to the apply history file.
func JournalPath() string {
	return filepath.Join(DataPath(), "history.jsonl")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	return cfg, nil
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Wallpaper.ThumbnailMaxFiles <= 0 {
		c.Wallpaper.ThumbnailMaxFiles = def.Wallpaper.ThumbnailMaxFiles
	}
	if c.Wallpaper.PaletteSize <= 0 {
		c.Wallpaper.PaletteSize = def.Wallpaper.PaletteSize
	}
	if c.GTK.RenderConcurrency <= 0 {
		c.GTK.RenderConcurrency = def.GTK.RenderConcurrency
	}
	if c.GTK.CardWidth <= 0 || c.GTK.CardHeight <= 0 {
		c.GTK.CardWidth, c.GTK.CardHeight = def.GTK.CardWidth, def.GTK.CardHeight
	}
	if c.GTK.PanelWidth <= 0 || c.GTK.PanelHeight <= 0 {
		c.GTK.PanelWidth, c.GTK.PanelHeight = def.GTK.PanelWidth, def.GTK.PanelHeight
	}
	if c.Cache.FlushThreshold <= 0 {
		c.Cache.FlushThreshold = def.Cache.FlushThreshold
	}
	if c.Panels.PolybarBar == "" {
		c.Panels.PolybarBar = def.Panels.PolybarBar
	}
	if c.TUI.SwatchCount <= 0 {
		c.TUI.SwatchCount = def.TUI.SwatchCount
	}
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RenderTimeoutDuration parses the preview render timeout.
// Invalid values fall back to DefaultRenderTimeout.
func (c *Config) RenderTimeoutDuration() time.Duration {
	return parseDuration(c.GTK.RenderTimeout, DefaultRenderTimeout)
}

// NotifyIntervalDuration parses the minimum interval between duplicate notifications.
func (c *Config) NotifyIntervalDuration() time.Duration {
	return parseDuration(c.Notify.MinInterval, DefaultNotifyInterval)
}

func parseDuration(value, fallback string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// ExpandPaths expands every path in the list.
func ExpandPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, ExpandPath(p))
		}
	}
	return out
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}
