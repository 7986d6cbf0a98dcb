// Package app ties one visualizer together: the MQTT connection, the scene
// state store and the fixed-rate render loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-promptviz/internal/config"
	"github.com/coreman2200/funtimes-promptviz/internal/metrics"
	"github.com/coreman2200/funtimes-promptviz/internal/model"
	"github.com/coreman2200/funtimes-promptviz/internal/mqttconn"
	"github.com/coreman2200/funtimes-promptviz/internal/payload"
	"github.com/coreman2200/funtimes-promptviz/internal/render"
	"github.com/coreman2200/funtimes-promptviz/internal/render/scenes/rgbled"
	"github.com/coreman2200/funtimes-promptviz/internal/render/scenes/windmill"
)

const eventBuffer = 256

type Options struct {
	Config  *config.Config
	Scene   render.Scene
	Drivers []render.Driver
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// Core is the application context. Everything the loop mutates lives here
// and is only touched from the loop goroutine.
type Core struct {
	Cfg     *config.Config
	Scene   render.Scene
	Eng     *render.Engine
	Conn    *mqttconn.Client
	Metrics *metrics.Metrics
	Status  model.ConnectionStatus

	events     chan mqttconn.Event
	log        zerolog.Logger
	tick       uint64
	driverFail bool
}

func NewCore(opts Options) (*Core, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is nil")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}
	eng, err := render.NewEngine(opts.Scene, opts.Drivers...)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(opts.Scene.Name())
	}
	log := opts.Log.With().Str("scene", opts.Scene.Name()).Logger()

	events := make(chan mqttconn.Event, eventBuffer)
	mq := opts.Config.MQTT
	conn := mqttconn.New(mqttconn.Options{
		Broker:   mq.Broker,
		Username: mq.Username,
		Password: mq.Password,
		Topic:    mq.Topic,
		ClientID: mq.ClientID,
		Retry:    true,
	}, events, log)

	return &Core{
		Cfg:     opts.Config,
		Scene:   opts.Scene,
		Eng:     eng,
		Conn:    conn,
		Metrics: m,
		events:  events,
		log:     log,
	}, nil
}

// NewScene builds the scene for a program from its config.
func NewScene(program string, cfg *config.Config) (render.Scene, error) {
	switch program {
	case config.ProgramWindmills:
		units := cfg.Windmill.Units
		if len(units) == 0 {
			return windmill.New(windmill.DefaultUnits)
		}
		specs := make([]windmill.UnitSpec, len(units))
		for i, u := range units {
			specs[i] = windmill.UnitSpec{
				Key:   u.Key,
				Label: u.Label,
				X:     u.X,
				Y:     u.Y,
				Color: color.NRGBA{R: u.Color[0], G: u.Color[1], B: u.Color[2], A: 255},
			}
		}
		return windmill.New(specs)
	case config.ProgramLED:
		return rgbled.New(cfg.Strip.Pixels)
	default:
		return nil, fmt.Errorf("unknown program %q", program)
	}
}

// Events is the send side of the loop's event channel. The MQTT client
// writes to it; tests may too.
func (c *Core) Events() chan<- mqttconn.Event { return c.events }

func (c *Core) Tick() uint64 { return c.tick }

// Run connects and drives Step at the configured rate until ctx ends.
func (c *Core) Run(ctx context.Context) error {
	c.Conn.Connect(ctx)
	defer c.Conn.Close()

	ticker := time.NewTicker(time.Second / time.Duration(max(1, c.Cfg.FPS)))
	defer ticker.Stop()
	c.log.Info().Int("fps", c.Cfg.FPS).Msg("render loop started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Uint64("tick", c.tick).Msg("render loop stopped")
			return nil
		case <-ticker.C:
			c.Step()
		}
	}
}

// Step runs one tick: count it, apply the events queued so far, advance the
// animation, then render and write the frame.
func (c *Core) Step() render.Frame {
	c.tick++
	c.drain()
	c.Scene.Advance()

	start := time.Now()
	f, err := c.Eng.RenderOnce(c.tick, c.HUD())
	c.Metrics.Frame(c.tick, time.Since(start), err)
	switch {
	case err != nil && !c.driverFail:
		c.log.Warn().Err(err).Msg("frame write failed")
		c.driverFail = true
	case err == nil && c.driverFail:
		c.log.Info().Msg("frame writes recovered")
		c.driverFail = false
	}
	return f
}

// drain handles only the events queued when the tick began; later arrivals
// wait for the next tick.
func (c *Core) drain() {
	for n := len(c.events); n > 0; n-- {
		c.handle(<-c.events)
	}
}

func (c *Core) handle(ev mqttconn.Event) {
	switch ev.Kind {
	case mqttconn.Connected:
		c.Status.SetConnected(true)
		c.Metrics.Connection(ev.Kind.String(), true)
	case mqttconn.Disconnected:
		c.Status.SetConnected(false)
		c.Metrics.Connection(ev.Kind.String(), false)
	case mqttconn.MessageReceived:
		st, err := c.Scene.Apply(ev.Payload)
		c.Metrics.Message(st.String())
		switch st {
		case payload.Decoded:
			c.Status.MarkMessage(c.tick)
		case payload.Rejected:
			c.Status.MarkMessage(c.tick)
			c.log.Debug().Err(err).Str("topic", ev.Topic).Msg("payload ignored")
		case payload.Malformed:
			c.log.Warn().Err(err).Str("topic", ev.Topic).Msg("error parsing message")
		}
	}
}

// HUD reports the connection state as of the current tick.
func (c *Core) HUD() render.HUD {
	return render.HUD{
		Title:               c.Scene.Title(),
		Enabled:             c.Conn.Enabled(),
		Connected:           c.Status.Connected,
		Broker:              c.Conn.Broker(),
		Topic:               c.Conn.Topic(),
		SecondsSinceMessage: c.Status.SecondsSinceMessage(c.tick, c.Cfg.FPS),
	}
}
