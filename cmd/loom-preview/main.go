// Package main is loom-preview, a helper that renders a mock GTK 3 window in
// a given theme offscreen and saves it as a PNG.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v3"
)

const appID = "io.github.archcrafter.loom.preview"

const (
	minWidth       = 220
	minHeight      = 180
	maxAttempts    = 25
	captureEveryMs = 70
	exitFailed     = 2
)

var errNotDrawn = errors.New("window not drawn yet")

func main() {
	theme := flag.String("theme", "", "GTK theme name")
	output := flag.String("output", "", "PNG output path")
	width := flag.Int("width", 900, "Preview width")
	height := flag.Int("height", 560, "Preview height")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *theme == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: loom-preview --theme NAME --output FILE [--width N] [--height N]")
		os.Exit(exitFailed)
	}
	if err := os.MkdirAll(filepath.Dir(*output), 0755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(exitFailed)
	}

	// Must be set before GTK initializes. GTK 3 resolves it against
	// <theme>/gtk-3.0/gtk.css, the same directory themes are listed by.
	os.Setenv("GTK_THEME", *theme)

	w, h := max(minWidth, *width), max(minHeight, *height)
	saved := false

	app := gtk.NewApplication(appID, gio.ApplicationNonUnique)
	app.ConnectActivate(func() {
		win := gtk.NewOffscreenWindow()
		win.SetDefaultSize(w, h)
		win.SetSizeRequest(w, h)
		win.Add(buildPreview())
		win.ShowAll()
		// Offscreen windows don't keep the application alive on their own
		app.AddWindow(&win.Window)

		attempt := 0
		glib.TimeoutAdd(captureEveryMs, func() bool {
			attempt++
			err := capture(win, *output)
			if err == nil {
				saved = true
				app.Quit()
				return false
			}
			if errors.Is(err, errNotDrawn) && attempt < maxAttempts {
				return true
			}
			logger.Error("failed to capture preview", "theme", *theme, "attempt", attempt, "error", err)
			app.Quit()
			return false
		})
	})

	app.Run([]string{os.Args[0]})

	if _, err := os.Stat(*output); !saved || err != nil {
		os.Exit(exitFailed)
	}
}

// capture drains pending events, then writes the window's pixbuf to path.
func capture(win *gtk.OffscreenWindow, path string) error {
	for gtk.EventsPending() {
		gtk.MainIterationDo(false)
	}

	pixbuf := win.Pixbuf()
	if pixbuf == nil {
		return errNotDrawn
	}
	if err := pixbuf.Savev(path, "png", []string{"compression"}, []string{"3"}); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
