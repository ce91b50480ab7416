package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/adapter/output"
	"github.com/archcrafter/loom/internal/gsettings"
)

var statusOpts struct {
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active wallpaper, themes and fetch preset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := getContainer().Status(cmd.Context())

		switch output.FormatType(statusOpts.format) {
		case output.FormatJSON:
			return output.WriteJSON(os.Stdout, st)
		case output.FormatYAML:
			return output.WriteYAML(os.Stdout, st)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Wallpaper:\t%s\n", orNone(st.Wallpaper))
		fmt.Fprintf(tw, "GTK theme:\t%s\n", orNone(st.GTK))
		fmt.Fprintf(tw, "Openbox theme:\t%s\n", orNone(st.Window))
		fmt.Fprintf(tw, "Icon theme:\t%s\n", orNone(st.Icons))
		fmt.Fprintf(tw, "Cursor theme:\t%s\n", orNone(st.Cursors))
		fmt.Fprintf(tw, "Fetch preset:\t%s\n", orNone(st.FetchPreset))

		if portal, err := gsettings.NewPortal(); err == nil {
			if scheme, err := gsettings.ColorScheme(cmd.Context(), portal); err == nil {
				fmt.Fprintf(tw, "Colour scheme:\t%s\n", scheme)
			}
		}
		return tw.Flush()
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show which external tools were found",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tools := getContainer().Tools

		switch output.FormatType(statusOpts.format) {
		case output.FormatJSON:
			return output.WriteJSON(os.Stdout, tools)
		case output.FormatYAML:
			return output.WriteYAML(os.Stdout, tools)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, name := range tools.Names() {
			fmt.Fprintf(tw, "%s\t%s\n", name, orNone(tools[name]))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, toolsCmd)

	for _, c := range []*cobra.Command{statusCmd, toolsCmd} {
		c.Flags().StringVarP(&statusOpts.format, "format", "f", "plain",
			"Output format (plain, json, yaml)")
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
