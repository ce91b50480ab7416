package sysexec

import (
	"context"
	"sort"
)

// Tool keys reported by DetectTools.
const (
	ToolNitrogen  = "nitrogen"
	ToolMagick    = "magick_or_convert"
	ToolGsettings = "gsettings"
	ToolOpenbox   = "openbox"
	ToolXdgOpen   = "xdg-open"
	ToolPgrep     = "pgrep"
	ToolSudo      = "sudo"
	ToolPolybar   = "polybar"
	ToolTint2     = "tint2"
	ToolJgmenu    = "jgmenu"
	ToolFastfetch = "fastfetch"
	ToolNeofetch  = "neofetch"
)

var plainTools = []string{
	ToolNitrogen, ToolGsettings, ToolOpenbox, ToolXdgOpen, ToolPgrep, ToolSudo,
	ToolPolybar, ToolTint2, ToolJgmenu, ToolFastfetch, ToolNeofetch,
}

// Tools maps a tool key to its resolved path. Missing tools map to "".
type Tools map[string]string

// Has reports whether the tool was found.
func (t Tools) Has(key string) bool {
	return t[key] != ""
}

// Names returns the tool keys in sorted order.
func (t Tools) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DetectTools resolves every known tool on PATH. ImageMagick 7's magick
// binary is preferred over the legacy convert.
func DetectTools(r Runner) Tools {
	tools := make(Tools, len(plainTools)+1)
	for _, name := range plainTools {
		path, _ := r.LookPath(name)
		tools[name] = path
	}
	tools[ToolMagick] = MagickBinary(r)
	return tools
}

// MagickBinary returns the path of magick or convert, or "" if neither exists.
func MagickBinary(r Runner) string {
	for _, name := range []string{"magick", "convert"} {
		if path, err := r.LookPath(name); err == nil && path != "" {
			return path
		}
	}
	return ""
}

// IsRunning reports whether a process with exactly this name is running.
func IsRunning(ctx context.Context, r Runner, name string) bool {
	_, err := r.Run(ctx, "pgrep", "-x", name)
	return err == nil
}

// Open hands path to the desktop's default handler.
func Open(r Runner, path string) error {
	return r.Start("xdg-open", path)
}
