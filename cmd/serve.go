package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matt-g-everett/ledmotion/api"
	"github.com/matt-g-everett/ledmotion/host"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream to the strip and serve the control API",
	Long: `Connects to the MQTT broker, loads the timeline directory and serves the
HTTP control API with a websocket preview of every frame sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connect(cfg.Mqtt, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	loop := host.NewLoop(64)
	hub := api.NewHub(log.Named("preview"))
	a, err := newApp(cfg, log, loop, client, hub)
	if err != nil {
		return err
	}

	go hub.Run(ctx)

	loop.Post(func() {
		if _, err := a.lib.LoadDir(cfg.Timelines.Dir); err != nil {
			log.Warn("loading timelines", zap.String("dir", cfg.Timelines.Dir), zap.Error(err))
		}
		a.streamer.Run(loop)
	})
	if cfg.Timelines.Watch {
		go func() {
			if err := a.lib.Watch(ctx, cfg.Timelines.Dir, loop.Post); err != nil {
				log.Warn("watching timelines", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(loop, a.lib, hub, log.Named("api")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	err = loop.Run(ctx)
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdown)
	log.Info("stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
