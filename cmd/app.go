package cmd

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledmotion/config"
	"github.com/matt-g-everett/ledmotion/engine"
	"github.com/matt-g-everett/ledmotion/host"
	"github.com/matt-g-everett/ledmotion/library"
	"github.com/matt-g-everett/ledmotion/scope"
	"github.com/matt-g-everett/ledmotion/stream"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// app is the assembled runtime. Everything but the client lives on one
// host goroutine.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	strip    *stream.Strip
	engine   *engine.Engine
	lib      *library.Library
	streamer *stream.Streamer
}

// buildStrip lays out the strip described by cfg.
func buildStrip(cfg config.Strip) (*stream.Strip, error) {
	strip, err := stream.NewStrip(cfg.Pixels)
	if err != nil {
		return nil, err
	}
	if cfg.Background != "" {
		c, err := colorful.Hex(cfg.Background)
		if err != nil {
			return nil, fmt.Errorf("strip background: %w", err)
		}
		strip.SetBackground(c)
	}
	for _, s := range cfg.Segments {
		seg, err := strip.AddSegment(s.Name, s.Start, s.Length)
		if err != nil {
			return nil, err
		}
		if s.Gradient != "" {
			g, err := stream.LookupGradient(s.Gradient)
			if err != nil {
				return nil, fmt.Errorf("segment %q: %w", s.Name, err)
			}
			seg.SetGradient(g)
		}
	}
	return strip, nil
}

// newApp wires a strip, engine and library onto h. With a nil client frames
// and rules go nowhere and declarative playback is off.
func newApp(cfg *config.Config, log *zap.Logger, h host.Scheduler, client stream.Publisher, sinks ...stream.FrameSink) (*app, error) {
	strip, err := buildStrip(cfg.Strip)
	if err != nil {
		return nil, err
	}

	ecfg := engine.Config{
		TickHz: cfg.Engine.TickHz,
		Logger: log.Named("engine"),
	}
	if client != nil {
		sinks = append(sinks, stream.NewMQTTFrames(client, cfg.Mqtt.Topics.Stream, cfg.Mqtt.FrameQos))
		if cfg.Engine.AllowDeclarative {
			ecfg.AllowDeclarative = true
			ecfg.Rules = stream.NewMQTTRules(client, cfg.Mqtt.Topics.Rules)
			animations := stream.NewMQTTAnimations(client, cfg.Mqtt.Topics.Animations)
			for _, seg := range strip.Segments() {
				seg.SetPublisher(animations)
			}
		}
	}

	a := new(app)
	a.cfg = cfg
	a.log = log
	a.strip = strip
	a.engine = engine.New(h, ecfg)
	a.lib = library.New(a.engine, scope.New(nil, map[string]interface{}{"strip": strip}), log.Named("library"))
	a.streamer = stream.NewStreamer(strip, cfg.Strip.FrameRate, log.Named("stream"), sinks...)
	return a, nil
}

// connect opens the MQTT connection the way ledrx expects.
func connect(cfg config.Mqtt, log *zap.Logger) (mqtt.Client, error) {
	mqtt.ERROR = zap.NewStdLog(log.Named("mqtt"))

	options := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Info("mqtt connected", zap.String("broker", cfg.URL))
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connecting to %s: timed out", cfg.URL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.URL, err)
	}
	return client, nil
}
