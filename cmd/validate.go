package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/matt-g-everett/ledmotion/host"
	"github.com/matt-g-everett/ledmotion/library"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check that timeline files parse and fit the configured strip",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validate(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validate(out io.Writer, files []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := newApp(cfg, zap.NewNop(), host.NewManual(time.Now()), nil)
	if err != nil {
		return err
	}

	failed := 0
	for _, file := range files {
		tl, err := library.ReadFile(file)
		if err == nil {
			err = a.lib.Add(tl)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%s, %gs)\n", file, tl.Name(), tl.Duration())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d timelines failed", failed, len(files))
	}
	return nil
}
