package main

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/adapter/output"
	"github.com/archcrafter/loom/internal/journal"
)

var historyOpts struct {
	format string
	kind   string
	limit  int
	keep   int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show applied changes, newest first",
	Long: `Show the history of applied changes, newest first.

Examples:
  # Last ten wallpaper changes
  loom history --kind wallpaper -n 10

  # Keep only the newest 200 entries
  loom history --keep 200`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the newest change that has not been undone",
	Long: `Revert the newest change that has not been undone.

Themes and wallpapers are switched back to their previous value; presets
restore the configuration that was backed up on install. Running undo
again walks further back through the history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := getContainer().Undo(cmd.Context())
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd, undoCmd)

	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
	historyCmd.Flags().StringVar(&historyOpts.kind, "kind", "",
		"Only show changes of this kind")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Maximum number of entries (0=unlimited)")
	historyCmd.Flags().IntVar(&historyOpts.keep, "keep", 0,
		"Prune the history to the newest N entries instead of listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	j := getContainer().Journal

	if historyOpts.keep > 0 {
		removed, err := j.Prune(historyOpts.keep)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries\n", removed)
		return nil
	}

	entries, err := j.Load()
	if err != nil {
		return err
	}

	var shown []journal.Entry
	for _, e := range slices.Backward(entries) {
		if historyOpts.kind != "" && e.Kind != historyOpts.kind {
			continue
		}
		shown = append(shown, e)
		if historyOpts.limit > 0 && len(shown) >= historyOpts.limit {
			break
		}
	}

	switch output.FormatType(historyOpts.format) {
	case output.FormatJSON:
		if shown == nil {
			shown = []journal.Entry{}
		}
		return output.WriteJSON(os.Stdout, shown)
	case output.FormatYAML:
		return output.WriteYAML(os.Stdout, shown)
	}

	if len(shown) == 0 {
		fmt.Println("No changes recorded")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tKIND\tVALUE\tPREVIOUS\t")
	for _, e := range shown {
		kind := e.Kind
		if e.Undoes != "" {
			kind += " (undo)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", humanize.Time(e.Time()), kind, e.Value, e.Previous)
	}
	return tw.Flush()
}
