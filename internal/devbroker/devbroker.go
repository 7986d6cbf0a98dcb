// Package devbroker runs an in-process MQTT broker with TCP and websocket
// listeners, for running the visualizers without an external broker.
package devbroker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/rs/zerolog"
)

type Options struct {
	TCPAddr string // e.g. ":1883"; empty disables the TCP listener
	WSAddr  string // e.g. ":1882"; empty disables the websocket listener
}

type Broker struct {
	opts   Options
	server *mqtt.Server
	log    zerolog.Logger

	mu      sync.Mutex
	running bool
}

func New(opts Options, log zerolog.Logger) (*Broker, error) {
	if opts.TCPAddr == "" && opts.WSAddr == "" {
		return nil, errors.New("devbroker: no listener configured")
	}
	log = log.With().Str("component", "devbroker").Logger()

	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewJSONHandler(log, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
	// mochi requires an auth hook; the dev broker accepts everyone.
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("add allow hook: %w", err)
	}

	if opts.TCPAddr != "" {
		if err := server.AddListener(listeners.NewTCP(listeners.Config{ID: "tcp", Address: opts.TCPAddr})); err != nil {
			return nil, fmt.Errorf("add tcp listener: %w", err)
		}
	}
	if opts.WSAddr != "" {
		if err := server.AddListener(listeners.NewWebsocket(listeners.Config{ID: "ws", Address: opts.WSAddr})); err != nil {
			return nil, fmt.Errorf("add websocket listener: %w", err)
		}
	}

	return &Broker{opts: opts, server: server, log: log}, nil
}

// Start begins serving; listeners run in their own goroutines.
func (b *Broker) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return errors.New("devbroker: already running")
	}
	if err := b.server.Serve(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	b.running = true
	b.log.Info().Str("tcp", b.opts.TCPAddr).Str("ws", b.opts.WSAddr).Msg("broker listening")
	return nil
}

// Publish injects a message as if a client had sent it.
func (b *Broker) Publish(topic string, payload []byte) error {
	return b.server.Publish(topic, payload, false, 0)
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return nil
	}
	b.running = false
	return b.server.Close()
}
