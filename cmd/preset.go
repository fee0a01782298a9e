package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matt-g-everett/ledmotion/library"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	presetName string
	presetOut  string
	presetOpts library.PresetOptions
)

var presetCmd = &cobra.Command{
	Use:   "preset <kind> <target>...",
	Short: "Generate a timeline file from a built-in effect",
	Long:  "Generate a timeline file from a built-in effect. Kinds: " + strings.Join(library.Presets(), ", "),
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if presetOut != "" {
			f, err := os.Create(presetOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return writePreset(out, args[0], presetName, args[1:], presetOpts)
	},
}

func init() {
	presetCmd.Flags().StringVar(&presetName, "name", "", "timeline name (default the kind)")
	presetCmd.Flags().StringVarP(&presetOut, "out", "o", "", "file to write (default stdout)")
	presetCmd.Flags().Float64Var(&presetOpts.Period, "period", 4, "cycle length in seconds")
	presetCmd.Flags().IntVar(&presetOpts.Steps, "steps", 8, "random changes per target")
	presetCmd.Flags().Int64Var(&presetOpts.Seed, "seed", 0, "random seed (0 for a fresh one)")
	rootCmd.AddCommand(presetCmd)
}

func writePreset(out io.Writer, kind, name string, targets []string, opts library.PresetOptions) error {
	if name == "" {
		name = kind
	}
	tl, err := library.NewPreset(kind, name, targets, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(tl)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = out.Write(data)
	return err
}
