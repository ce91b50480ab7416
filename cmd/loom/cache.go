package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear derived-asset caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache sizes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getContainer()

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CACHE\tENTRIES\tSIZE\tPATH")

		palettes := c.Wallpapers.PaletteCache()
		fmt.Fprintf(tw, "palettes\t%d\t%s\t%s\n", palettes.Len(), fileSize(palettes.Path()), palettes.Path())

		meta := c.GTK.MetadataCache()
		fmt.Fprintf(tw, "gtk metadata\t%d\t%s\t%s\n", meta.Len(), fileSize(meta.Path()), meta.Path())

		for _, d := range []struct{ name, dir string }{
			{"thumbnails", c.Wallpapers.ThumbnailDir()},
			{"gtk previews", c.GTK.PreviewDir()},
		} {
			n, size := dirUsage(d.dir)
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", d.name, n, humanize.Bytes(uint64(size)), d.dir)
		}
		return tw.Flush()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached palettes, metadata, thumbnails and previews",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getContainer()
		err := errors.Join(
			c.Wallpapers.PaletteCache().Clear(),
			c.GTK.MetadataCache().Clear(),
			clearDir(c.Wallpapers.ThumbnailDir()),
			clearDir(c.GTK.PreviewDir()),
		)
		if err != nil {
			return err
		}
		fmt.Println("Caches cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return humanize.Bytes(uint64(info.Size()))
}

// dirUsage counts the regular files directly in dir and their total size.
func dirUsage(dir string) (int, int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	var n int
	var size int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		n++
		size += info.Size()
	}
	return n, size
}

// clearDir removes everything inside dir, keeping dir itself.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var errs []error
	for _, e := range entries {
		errs = append(errs, os.RemoveAll(filepath.Join(dir, e.Name())))
	}
	return errors.Join(errs...)
}
