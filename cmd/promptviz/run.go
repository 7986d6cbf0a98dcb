package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-promptviz/internal/app"
	"github.com/coreman2200/funtimes-promptviz/internal/config"
	"github.com/coreman2200/funtimes-promptviz/internal/devbroker"
	"github.com/coreman2200/funtimes-promptviz/internal/led"
	"github.com/coreman2200/funtimes-promptviz/internal/metrics"
	"github.com/coreman2200/funtimes-promptviz/internal/render"
	"github.com/coreman2200/funtimes-promptviz/internal/ws"
)

const shutdownTimeout = 3 * time.Second

func newVisualizerCmd(o *rootOptions, program, short string) *cobra.Command {
	var (
		strip     string
		pixels    int
		devBroker string
	)
	cmd := &cobra.Command{
		Use:   program,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load(cmd, program)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strip") {
				cfg.Strip.Driver = strip
			}
			if cmd.Flags().Changed("pixels") {
				cfg.Strip.Pixels = pixels
			}
			log, err := o.logger(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if devBroker != "" {
				b, err := devbroker.New(devbroker.Options{WSAddr: devBroker}, log)
				if err != nil {
					return err
				}
				if err := b.Start(); err != nil {
					return err
				}
				defer b.Close()
				cfg.MQTT.Broker = "ws://" + loopback(devBroker)
				cfg.MQTT.Username, cfg.MQTT.Password = "", ""
			}
			return runVisualizer(ctx, program, cfg, log)
		},
	}
	cmd.Flags().StringVar(&strip, "strip", "", "LED strip output: none, screen or spi")
	cmd.Flags().IntVar(&pixels, "pixels", 0, "number of LEDs on the strip")
	cmd.Flags().StringVar(&devBroker, "dev-broker", "", "start an in-process broker on this websocket address and use it")
	return cmd
}

// loopback turns a listen address like ":1882" into one a local client can dial.
func loopback(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func runVisualizer(ctx context.Context, program string, cfg *config.Config, log zerolog.Logger) error {
	scene, err := app.NewScene(program, cfg)
	if err != nil {
		return err
	}
	m := metrics.New(scene.Name())

	hub := ws.NewHub(cfg.FPS, log)
	hub.SetMaxRate(cfg.HTTP.MaxRate)
	hub.OnClients = m.SetClients
	defer hub.Close()
	drivers := []render.Driver{hub}

	strip, err := led.Open(led.Options{
		Driver:        cfg.Strip.Driver,
		Port:          cfg.Strip.Port,
		Pixels:        cfg.Strip.Pixels,
		FreqKHz:       cfg.Strip.FreqKHz,
		MaxBrightness: cfg.Strip.MaxBrightness,
	}, log)
	if err != nil {
		return fmt.Errorf("open strip: %w", err)
	}
	if strip != nil {
		defer func() {
			if err := strip.Close(); err != nil {
				log.Warn().Err(err).Msg("strip close")
			}
		}()
		drivers = append(drivers, strip)
	}

	core, err := app.NewCore(app.Options{
		Config:  cfg,
		Scene:   scene,
		Drivers: drivers,
		Metrics: m,
		Log:     log,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
	}
	srv := &http.Server{
		Handler:           ws.Routes(hub, m.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Str("scene", scene.Name()).Msg("preview listening")

	runErr := core.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("bye")
	return runErr
}
