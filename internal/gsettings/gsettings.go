// Package gsettings reads and writes the org.gnome.desktop.interface keys
// that select GTK, icon and cursor themes.
package gsettings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archcrafter/loom/internal/sysexec"
)

// Schema is the settings schema holding the appearance keys.
const Schema = "org.gnome.desktop.interface"

// Well-known keys.
const (
	KeyGtkTheme    = "gtk-theme"
	KeyIconTheme   = "icon-theme"
	KeyCursorTheme = "cursor-theme"
)

// ErrUnavailable is returned when neither the gsettings CLI nor the portal can answer.
var ErrUnavailable = errors.New("gsettings unavailable")

// SettingsReader reads a single setting by namespace and key.
type SettingsReader interface {
	Read(ctx context.Context, namespace, key string) (any, error)
}

// Client talks to gsettings, falling back to a SettingsReader for reads.
type Client struct {
	runner   sysexec.Runner
	fallback SettingsReader
	logger   *slog.Logger
}

// New creates a Client. fallback may be nil.
func New(runner sysexec.Runner, fallback SettingsReader, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{runner: runner, fallback: fallback, logger: logger}
}

func (c *Client) hasCLI() bool {
	_, err := c.runner.LookPath("gsettings")
	return err == nil
}

// Get returns the current value of key, unquoted. An empty string means unset.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.hasCLI() {
		out, err := c.runner.Run(ctx, "gsettings", "get", Schema, key)
		if err == nil {
			return Unquote(string(out)), nil
		}
		c.logger.Debug("gsettings get failed", "key", key, "error", err)
		if c.fallback == nil {
			return "", err
		}
	}

	if c.fallback == nil {
		return "", ErrUnavailable
	}
	v, err := c.fallback.Read(ctx, Schema, key)
	if err != nil {
		return "", fmt.Errorf("read %s via portal: %w", key, err)
	}
	s, _ := v.(string)
	return Unquote(s), nil
}

// Set writes key. Writing requires the gsettings CLI.
func (c *Client) Set(ctx context.Context, key, value string) error {
	if !c.hasCLI() {
		return &sysexec.ToolError{Tool: "gsettings", Args: []string{"set", Schema, key, value}, Err: sysexec.ErrToolMissing}
	}
	if _, err := c.runner.Run(ctx, "gsettings", "set", Schema, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Unquote strips whitespace and the single quotes gsettings wraps strings in.
func Unquote(value string) string {
	return strings.Trim(strings.TrimSpace(value), "'")
}
