package main

import (
	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/tui"
)

var tuiOpts struct {
	noWatch bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI browser",
	Long: `Launch the interactive terminal user interface.

The TUI provides:
  - Tabs for wallpapers, GTK, Openbox, icon and cursor themes and presets
  - Search and filter expressions (name~arc,dark=true)
  - Palette swatches for wallpapers
  - Apply and undo without leaving the list
  - Live updates when wallpapers are added

Key bindings:
  j/k, ↑/↓    Navigate list
  tab         Next tab
  enter       Apply selection
  i           Details and palette
  u           Undo last change
  c           Copy path to clipboard
  /           Search or filter
  r           Refresh
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiOpts.noWatch, "no-watch", false,
		"Do not watch wallpaper directories for changes")
}

func runTUI(cmd *cobra.Command, args []string) error {
	c := getContainer()

	var watchDirs []string
	if !tuiOpts.noWatch {
		watchDirs = c.Wallpapers.SearchDirs()
	}

	return tui.Run(tui.RunOptions{
		Config:    getConfig(),
		Backend:   c,
		WatchDirs: watchDirs,
		Logger:    logger.With("component", "tui"),
	})
}
