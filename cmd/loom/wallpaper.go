package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/sysexec"
	"github.com/archcrafter/loom/internal/wallpaper"
	"github.com/archcrafter/loom/internal/watch"
)

var wallpaperOpts struct {
	list     listOptions
	sort     string
	palettes bool

	count int
	json  bool

	mode   string
	colors []string

	strength int
	apply    bool

	size  int
	prune bool
}

var wallpaperCmd = &cobra.Command{
	Use:     "wallpaper",
	Aliases: []string{"wp"},
	Short:   "Browse, apply and colorize wallpapers",
}

var wallpaperListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallpapers in the search directories",
	Long: `List wallpapers found in the current search directories.

Examples:
  # Newest first, with palettes
  loom wallpaper list --sort newest --palettes

  # Only colorized variants as JSON
  loom wallpaper list --filter colorized=true --format json

  # Pick one with a launcher and apply it
  loom wallpaper list --format paths | fuzzel -d | xargs loom wallpaper apply`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items := getContainer().Wallpapers.Query(wallpaper.QueryOptions{
			SortMode:     wallpaperOpts.sort,
			WithPalettes: wallpaperOpts.palettes,
		})
		return writeItems(items, &wallpaperOpts.list)
	},
}

var wallpaperApplyCmd = &cobra.Command{
	Use:   "apply <path>",
	Short: "Set the wallpaper with nitrogen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := absPath(args[0])
		if err != nil {
			return err
		}
		res, err := getContainer().Apply(cmd.Context(), model.KindWallpaper, path)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var wallpaperPaletteCmd = &cobra.Command{
	Use:   "palette <path>",
	Short: "Print the dominant colours of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := absPath(args[0])
		if err != nil {
			return err
		}
		return printColors(getContainer().Palette(path, wallpaperOpts.count))
	},
}

var wallpaperSuggestCmd = &cobra.Command{
	Use:   "suggest [path]",
	Short: "Suggest colorize swatches from an image or base colours",
	Long: `Suggest colours for colorizing.

The base colours come from --color flags, or from the palette of the given
image. "similar" varies hue, saturation and value slightly around the base;
"theory" adds analogous, complementary, triadic and monochrome companions.

Examples:
  loom wallpaper suggest ~/walls/forest.jpg
  loom wallpaper suggest --mode theory --color '#bf616a'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getContainer().Wallpapers

		base := wallpaperOpts.colors
		if len(base) == 0 && len(args) == 1 {
			path, err := absPath(args[0])
			if err != nil {
				return err
			}
			base = w.Palette(path, 0)
		}

		switch wallpaperOpts.mode {
		case "similar":
			return printColors(w.Similar(base))
		case "theory":
			return printColors(w.Theory(base))
		}
		return fmt.Errorf("unknown mode %q (similar, theory)", wallpaperOpts.mode)
	},
}

var wallpaperColorizeCmd = &cobra.Command{
	Use:   "colorize <path> <color>",
	Short: "Create a tinted copy of a wallpaper",
	Long: `Create a tinted copy of a wallpaper with ImageMagick.

The copy is written to the colorized library and reused when the same
image, colour and strength are requested again.

Examples:
  loom wallpaper colorize ~/walls/forest.jpg '#5e81ac'
  loom wallpaper colorize ~/walls/forest.jpg 88c0d0 --strength 40 --apply`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getContainer()
		src, err := absPath(args[0])
		if err != nil {
			return err
		}

		strength := wallpaperOpts.strength
		if strength <= 0 {
			strength = c.Wallpapers.ColorizeStrength()
		}

		out, err := c.Wallpapers.Colorize(cmd.Context(), src, args[1], strength)
		if err != nil {
			return err
		}
		fmt.Println(out)

		if wallpaperOpts.apply {
			res, err := c.Apply(cmd.Context(), model.KindWallpaper, out)
			if err != nil {
				return err
			}
			printResult(res)
		}
		return nil
	},
}

var wallpaperRenameCmd = &cobra.Command{
	Use:   "rename <path> [name]",
	Short: "Set or clear the display name of a wallpaper",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getContainer().Wallpapers
		path, err := absPath(args[0])
		if err != nil {
			return err
		}

		if len(args) == 1 || strings.TrimSpace(args[1]) == "" {
			if err := w.ClearDisplayName(path); err != nil {
				return err
			}
			fmt.Println("Cleared name of " + filepath.Base(path))
			return nil
		}

		name, err := w.SetDisplayName(path, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Renamed %s to %q\n", filepath.Base(path), name)
		return nil
	},
}

var wallpaperDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a wallpaper file",
	Long: `Delete a wallpaper file.

System wallpapers and files the current user cannot remove are deleted
through sudo with the graphical askpass helper named by SUDO_ASKPASS.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := absPath(args[0])
		if err != nil {
			return err
		}
		res, err := getContainer().Wallpapers.Delete(cmd.Context(), path)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var wallpaperThumbsCmd = &cobra.Command{
	Use:   "thumbs [path...]",
	Short: "Print (and create) thumbnails, or prune the thumbnail cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getContainer().Wallpapers

		if wallpaperOpts.prune {
			removed, err := w.PruneThumbnails(getConfig().Wallpaper.ThumbnailMaxFiles)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d thumbnails\n", removed)
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("specify at least one image or --prune")
		}
		for _, arg := range args {
			path, err := absPath(arg)
			if err != nil {
				return err
			}
			thumb, err := w.Thumbnail(path, wallpaperOpts.size)
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
			fmt.Println(thumb)
		}
		return nil
	},
}

var wallpaperWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Precompute palettes and thumbnails for every wallpaper",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		stats, err := getContainer().Wallpapers.Warm(cmd.Context(), wallpaperOpts.size)
		fmt.Printf("Files: %d, palettes: %d, thumbnails: %d, failed: %d (%s)\n",
			stats.Files, stats.Palettes, stats.Thumbnails, stats.Failed,
			time.Since(start).Round(time.Millisecond))
		return err
	},
}

var wallpaperWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the search directories and warm new wallpapers",
	Long: `Watch the wallpaper search directories and compute the palette and
thumbnail of every new or changed image. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getContainer().Wallpapers
		size := wallpaperOpts.size
		if size <= 0 {
			size = w.ThumbSize()
		}

		watcher, err := watch.New(watch.Options{
			Dirs:   w.SearchDirs(),
			Accept: wallpaper.IsSupported,
			OnChange: func(paths []string) {
				var palettes, thumbs, failed atomic.Int64
				for _, p := range paths {
					w.WarmFile(p, size, &palettes, &thumbs, &failed)
				}
				if err := w.PaletteCache().Flush(); err != nil {
					logger.Warn("failed to flush palette cache", "error", err)
				}
				fmt.Printf("Warmed %d files (palettes: %d, thumbnails: %d, failed: %d)\n",
					len(paths), palettes.Load(), thumbs.Load(), failed.Load())
			},
			Logger: logger.With("component", "watch"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "Watching %s\n", strings.Join(w.SearchDirs(), ", "))
		return watcher.Run(ctx)
	},
}

var wallpaperSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Show or change wallpaper settings",
	Long: `Show or change wallpaper settings.

Keys:
  source     custom or system
  fill       zoom-fill, centered, scaled, tiled or auto
  view       grid or list
  sort       name_asc, name_desc, newest or oldest
  thumbs     thumbnail size, 160-320
  strength   colorize strength, 10-100
  dir        custom wallpaper directory

Without a value the current setting is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWallpaperSet,
}

var wallpaperBadgeCmd = &cobra.Command{
	Use:   "badge [color]",
	Short: "Show or set the colorized badge colour",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getContainer().Wallpapers
		if len(args) == 1 {
			if err := w.SetBadgeColor(args[0]); err != nil {
				return err
			}
		}
		bg, text := w.BadgeCSS()
		fmt.Printf("background: %s\ncolor: %s\n", bg, text)
		return nil
	},
}

var wallpaperRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently used colorize swatches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printColors(getContainer().Wallpapers.RecentSwatches())
	},
}

var wallpaperOpenCmd = &cobra.Command{
	Use:   "open [path]",
	Short: "Open a wallpaper, or the library directory, with xdg-open",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getContainer()
		target := c.Wallpapers.LibraryDir()
		if len(args) == 1 {
			var err error
			if target, err = absPath(args[0]); err != nil {
				return err
			}
		}
		return sysexec.Open(c.Runner(), target)
	},
}

func init() {
	rootCmd.AddCommand(wallpaperCmd)
	wallpaperCmd.AddCommand(
		wallpaperListCmd, wallpaperApplyCmd, wallpaperPaletteCmd, wallpaperSuggestCmd,
		wallpaperColorizeCmd, wallpaperRenameCmd, wallpaperDeleteCmd, wallpaperThumbsCmd,
		wallpaperWarmCmd, wallpaperWatchCmd, wallpaperSetCmd, wallpaperBadgeCmd,
		wallpaperRecentCmd, wallpaperOpenCmd,
	)

	addListFlags(wallpaperListCmd, &wallpaperOpts.list)
	wallpaperListCmd.Flags().StringVar(&wallpaperOpts.sort, "sort", "",
		"Sort mode (name_asc, name_desc, newest, oldest; default: saved setting)")
	wallpaperListCmd.Flags().BoolVar(&wallpaperOpts.palettes, "palettes", false,
		"Extract palettes (cached) for every wallpaper")

	for _, c := range []*cobra.Command{wallpaperPaletteCmd, wallpaperSuggestCmd, wallpaperRecentCmd} {
		c.Flags().BoolVar(&wallpaperOpts.json, "json", false, "Output as a JSON array")
	}
	wallpaperPaletteCmd.Flags().IntVarP(&wallpaperOpts.count, "count", "n", config.DefaultPaletteSize,
		"Number of colours")

	wallpaperSuggestCmd.Flags().StringVar(&wallpaperOpts.mode, "mode", "similar",
		"Suggestion mode (similar, theory)")
	wallpaperSuggestCmd.Flags().StringSliceVar(&wallpaperOpts.colors, "color", nil,
		"Base colour (repeatable)")

	wallpaperColorizeCmd.Flags().IntVar(&wallpaperOpts.strength, "strength", 0,
		"Colorize strength 10-100 (default: saved setting)")
	wallpaperColorizeCmd.Flags().BoolVar(&wallpaperOpts.apply, "apply", false,
		"Apply the colorized wallpaper")

	for _, c := range []*cobra.Command{wallpaperThumbsCmd, wallpaperWarmCmd, wallpaperWatchCmd} {
		c.Flags().IntVar(&wallpaperOpts.size, "size", 0,
			"Thumbnail size in pixels (default: saved setting)")
	}
	wallpaperThumbsCmd.Flags().BoolVar(&wallpaperOpts.prune, "prune", false,
		"Remove the oldest thumbnails beyond the configured maximum")
}

func runWallpaperSet(cmd *cobra.Command, args []string) error {
	w := getContainer().Wallpapers
	key := args[0]

	if len(args) == 1 {
		var value string
		switch key {
		case "source":
			value = w.Source()
		case "fill":
			value = w.FillMode()
		case "view":
			value = w.ViewMode()
		case "sort":
			value = w.SortMode()
		case "thumbs":
			value = strconv.Itoa(w.ThumbSize())
		case "strength":
			value = strconv.Itoa(w.ColorizeStrength())
		case "dir":
			value = strings.Join(w.CustomDirs(), "\n")
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
		fmt.Println(value)
		return nil
	}

	value := args[1]
	switch key {
	case "source":
		return w.SetSource(value)
	case "fill":
		return w.SetFillMode(value)
	case "view":
		return w.SetViewMode(value)
	case "sort":
		return w.SetSortMode(value)
	case "thumbs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", value, err)
		}
		return w.SetThumbSize(n)
	case "strength":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid strength %q: %w", value, err)
		}
		return w.SetColorizeStrength(n)
	case "dir":
		dir, err := absPath(value)
		if err != nil {
			return err
		}
		return w.SetCustomDir(dir)
	}
	return fmt.Errorf("unknown setting %q", key)
}

// absPath expands ~ and makes path absolute.
func absPath(path string) (string, error) {
	return filepath.Abs(config.ExpandPath(path))
}

func printColors(colors []string) error {
	if wallpaperOpts.json {
		if colors == nil {
			colors = []string{}
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(colors)
	}
	for _, c := range colors {
		fmt.Println(c)
	}
	return nil
}
