package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/adapter/output"
	"github.com/archcrafter/loom/internal/core"
	"github.com/archcrafter/loom/internal/model"
)

// listOptions are the output flags shared by every list subcommand.
type listOptions struct {
	format   string
	filter   string
	search   string
	template string
	index    bool
	noHeader bool
	limit    int
}

func addListFlags(cmd *cobra.Command, opts *listOptions) {
	cmd.Flags().StringVarP(&opts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, dmenu, names, paths)")
	cmd.Flags().StringVar(&opts.filter, "filter", "",
		"Filter expression (e.g. name~arc,dark=true, size>2MB, modified<7d)")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "",
		"Case-insensitive search in name and title")
	cmd.Flags().StringVar(&opts.template, "template", "",
		"Custom Go template for plain or dmenu output")
	cmd.Flags().BoolVar(&opts.index, "index", false,
		"Prefix rows with a 1-based index")
	cmd.Flags().BoolVar(&opts.noHeader, "no-header", false,
		"Omit the plain table header")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0,
		"Maximum number of rows (0=unlimited)")
}

// filterItems applies the search term, filter expression and limit.
func filterItems(items []model.Item, opts *listOptions) ([]model.Item, error) {
	items = core.Search(items, opts.search)

	if opts.filter != "" {
		expr, err := core.ParseFilter(opts.filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
		items = core.FilterWithExpr(items, expr)
	}

	return core.Filter(items, core.FilterOptions{Limit: opts.limit}), nil
}

// writeItems filters items and writes them to stdout in the chosen format.
func writeItems(items []model.Item, opts *listOptions) error {
	items, err := filterItems(items, opts)
	if err != nil {
		return err
	}

	fopts := output.DefaultFormatterOptions()
	fopts.Template = opts.template
	fopts.ShowIndex = opts.index
	fopts.NoHeader = opts.noHeader

	return output.NewFormatter(output.FormatType(opts.format), fopts).Format(os.Stdout, items)
}

// printResult reports the outcome of an apply-style operation.
func printResult(res model.Result) {
	fmt.Println(res.Message)
}
