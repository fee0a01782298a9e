package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-g-everett/ledmotion/host"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var playTimes int

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play one timeline file on the strip and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(args[0], playTimes)
	},
}

func init() {
	playCmd.Flags().IntVarP(&playTimes, "times", "n", 1, "number of times to play")
	rootCmd.AddCommand(playCmd)
}

func play(path string, times int) error {
	if times < 1 {
		return fmt.Errorf("times must be at least 1, got %d", times)
	}
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	client, err := connect(cfg.Mqtt, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	loop := host.NewLoop(16)
	a, err := newApp(cfg, log, loop, client)
	if err != nil {
		return err
	}

	loop.Post(func() {
		tl, err := a.lib.LoadFile(path)
		if err != nil {
			cancel(err)
			return
		}
		a.streamer.Run(loop)

		played := 0
		var next func(error)
		next = func(err error) {
			played++
			switch {
			case err != nil:
				cancel(err)
			case played < times:
				if err := a.lib.Play(tl.Name(), next); err != nil {
					cancel(err)
				}
			default:
				// Flush the final frame before exiting.
				a.streamer.SendFrame()
				cancel(nil)
			}
		}
		log.Info("playing", zap.String("timeline", tl.Name()), zap.Int("times", times))
		if err := a.lib.Play(tl.Name(), next); err != nil {
			cancel(err)
		}
	})

	_ = loop.Run(ctx)
	if err := context.Cause(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
