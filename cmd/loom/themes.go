package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/adapter/output"
	"github.com/archcrafter/loom/internal/gtktheme"
	"github.com/archcrafter/loom/internal/model"
)

var gtkOpts struct {
	variant string
	format  string
}

// newThemeCommand builds the list, current and apply subcommands shared by
// every theme kind.
func newThemeCommand(kind, use, short string, aliases ...string) *cobra.Command {
	var opts listOptions

	parent := &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   short,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List installed themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := getContainer().Items(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return writeItems(items, &opts)
		},
	}
	addListFlags(list, &opts)

	current := &cobra.Command{
		Use:   "current",
		Short: "Print the active theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := getContainer().Current(cmd.Context(), kind)
			if err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("no %s theme is set", use)
			}
			fmt.Println(name)
			return nil
		},
	}

	apply := &cobra.Command{
		Use:   "apply <name>",
		Short: "Switch to a theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := getContainer().Apply(cmd.Context(), kind, args[0])
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}

	parent.AddCommand(list, current, apply)
	return parent
}

var gtkCmd = newThemeCommand(model.KindGtkTheme, "gtk", "Browse and apply GTK themes")

var gtkInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show the colours a GTK theme defines",
	Long: `Show the colours a GTK theme defines.

The theme's gtk.css is read with its @import rules inlined; named colours,
the background, foreground and accent, and whether the theme is dark are
reported. Results are cached until the theme changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := getContainer().GTK
		t, err := g.Lookup(args[0])
		if err != nil {
			return err
		}
		meta := g.Metadata(t)

		switch output.FormatType(gtkOpts.format) {
		case output.FormatJSON:
			return output.WriteJSON(os.Stdout, meta)
		case output.FormatYAML:
			return output.WriteYAML(os.Stdout, meta)
		}

		fmt.Printf("Name:       %s\n", t.Name)
		fmt.Printf("Path:       %s\n", t.Path)
		fmt.Printf("Dark:       %t\n", meta.Dark)
		fmt.Printf("Background: %s\n", meta.Background)
		fmt.Printf("Foreground: %s\n", meta.Foreground)
		fmt.Printf("Accent:     %s\n", meta.Accent)
		fmt.Printf("Colours:    %d defined\n", len(meta.Colors))
		return nil
	},
}

var gtkPreviewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Render (or reuse) a preview image of a GTK theme",
	Long: `Render a PNG preview of a GTK theme with the loom-preview helper and
print its path. Previews are cached and re-rendered only when the theme
changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := getContainer().GTK.RenderPreview(cmd.Context(), args[0], gtkOpts.variant)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var gtkWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Render previews for every installed GTK theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := getContainer().GTK.WarmPreviews(cmd.Context(), gtkOpts.variant)
		fmt.Printf("Themes: %d, rendered: %d, failed: %d\n", stats.Themes, stats.Rendered, stats.Failed)
		return err
	},
}

func init() {
	rootCmd.AddCommand(
		gtkCmd,
		newThemeCommand(model.KindWindowTheme, "window", "Browse and apply Openbox themes", "openbox"),
		newThemeCommand(model.KindIconTheme, "icons", "Browse and apply icon themes"),
		newThemeCommand(model.KindCursorTheme, "cursors", "Browse and apply cursor themes"),
	)

	gtkCmd.AddCommand(gtkInfoCmd, gtkPreviewCmd, gtkWarmCmd)

	gtkInfoCmd.Flags().StringVarP(&gtkOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
	for _, c := range []*cobra.Command{gtkPreviewCmd, gtkWarmCmd} {
		c.Flags().StringVar(&gtkOpts.variant, "variant", gtktheme.VariantCard,
			"Preview variant (card, panel)")
	}
}
