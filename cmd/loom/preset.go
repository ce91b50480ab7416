package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/preset"
)

var presetOpts struct {
	list listOptions
	kind string
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Install fetch, panel and menu presets",
	Long: `Install fetch, panel and menu presets.

Presets live under ~/.local/share/loom/library/<kind>/<engine>/ and are
addressed as kind/engine/name, for example fetch/fastfetch/minimal or
panels/polybar/nord.`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := getContainer().Presets
		kinds := preset.Kinds
		if presetOpts.kind != "" {
			kinds = []string{presetOpts.kind}
		}

		var items []model.Item
		for _, k := range kinds {
			if !preset.IsKind(k) {
				return fmt.Errorf("%w: %q", preset.ErrUnknownKind, k)
			}
			items = append(items, p.Items(k)...)
		}
		return writeItems(items, &presetOpts.list)
	},
}

var presetInstallCmd = &cobra.Command{
	Use:   "install <kind/engine/name>",
	Short: "Install a preset as the engine's configuration",
	Long: `Install a preset as the engine's configuration.

An existing configuration is kept as a .bak file and restored by
"loom undo". Running polybar and tint2 instances are restarted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := getContainer().Apply(cmd.Context(), model.KindPreset, args[0])
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <fetch/engine/name>",
	Short: "Run a fetch engine with a preset and print its output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := getContainer().Presets
		kind, engine, name, err := preset.ParseID(args[0])
		if err != nil {
			return err
		}
		p, err := svc.Find(kind, engine, name)
		if err != nil {
			return err
		}
		out, err := svc.Show(cmd.Context(), p)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd, presetInstallCmd, presetShowCmd)

	addListFlags(presetListCmd, &presetOpts.list)
	presetListCmd.Flags().StringVarP(&presetOpts.kind, "kind", "k", "",
		"Only list presets of this kind (fetch, panels, menu)")
}
