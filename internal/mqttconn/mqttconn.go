// Package mqttconn is the connection manager. It owns the MQTT client and
// turns its callbacks into typed events on a single-consumer channel.
package mqttconn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrDisabled = errors.New("mqtt: no broker configured")
	ErrClosed   = errors.New("mqtt: client closed")
)

type EventKind int

const (
	Connected EventKind = iota
	MessageReceived
	Disconnected
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case MessageReceived:
		return "message"
	case Disconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one connection lifecycle signal or inbound message.
type Event struct {
	Kind    EventKind
	Topic   string
	Payload []byte
	Err     error
}

type Options struct {
	Broker   string // ws://, wss://, tcp:// or ssl:// URL; empty disables MQTT
	Username string
	Password string
	Topic    string
	ClientID string
	QoS      byte

	// Retry keeps retrying the initial connect in the background.
	Retry          bool
	ConnectTimeout time.Duration
}

type Client struct {
	opts   Options
	events chan<- Event
	log    zerolog.Logger

	mu     sync.Mutex
	client mqtt.Client
	done   chan struct{}
	closed bool
}

func New(opts Options, events chan<- Event, log zerolog.Logger) *Client {
	if opts.ClientID == "" {
		opts.ClientID = "promptviz-" + uuid.NewString()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	return &Client{
		opts:   opts,
		events: events,
		log:    log.With().Str("component", "mqtt").Str("broker", opts.Broker).Logger(),
		done:   make(chan struct{}),
	}
}

func (c *Client) Enabled() bool  { return c.opts.Broker != "" }
func (c *Client) Broker() string { return c.opts.Broker }
func (c *Client) Topic() string  { return c.opts.Topic }

// ValidateBroker checks that raw is a URL paho can dial.
func ValidateBroker(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse broker url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "tcp", "ssl", "tls", "mqtt", "mqtts":
	default:
		return fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("broker url %q has no host", raw)
	}
	return nil
}

func (c *Client) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.opts.Broker)
	if c.opts.Username != "" {
		opts.SetUsername(c.opts.Username)
	}
	if c.opts.Password != "" {
		opts.SetPassword(c.opts.Password)
	}
	opts.SetClientID(c.opts.ClientID)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(c.opts.Retry)
	opts.SetConnectTimeout(c.opts.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		c.log.Debug().Msg("reconnecting")
	})
	return opts
}

// Connect starts connecting in the background and returns immediately.
// Success is reported as a Connected event, failure as Disconnected.
// Reconnection is left to the client library.
func (c *Client) Connect(ctx context.Context) {
	if !c.Enabled() {
		c.log.Warn().Msg("no MQTT broker configured; live updates disabled")
		return
	}
	cl, err := c.start()
	if err != nil {
		c.log.Debug().Err(err).Msg("connect skipped")
		return
	}
	tok := cl.Connect()
	go func() {
		select {
		case <-tok.Done():
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
		if err := tok.Error(); err != nil {
			c.log.Error().Err(err).Msg("MQTT connection error")
			c.emit(Event{Kind: Disconnected, Err: err})
		}
	}()
}

// ConnectWait connects and blocks until the session is up or ctx ends.
func (c *Client) ConnectWait(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	cl, err := c.start()
	if err != nil {
		return err
	}
	tok := cl.Connect()
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("connect %s: %w", c.opts.Broker, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) start() (mqtt.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.client == nil {
		c.client = mqtt.NewClient(c.clientOptions())
	}
	return c.client, nil
}

func (c *Client) onConnect(cl mqtt.Client) {
	c.log.Info().Msg("connected to MQTT broker")
	c.emit(Event{Kind: Connected})
	if c.opts.Topic == "" || c.events == nil {
		return
	}
	tok := cl.Subscribe(c.opts.Topic, c.opts.QoS, c.onMessage)
	go func() {
		<-tok.Done()
		if err := tok.Error(); err != nil {
			c.log.Error().Err(err).Str("topic", c.opts.Topic).Msg("subscribe failed")
			return
		}
		c.log.Info().Str("topic", c.opts.Topic).Msg("subscribed")
	}()
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.log.Warn().Err(err).Msg("MQTT connection closed")
	c.emit(Event{Kind: Disconnected, Err: err})
}

func (c *Client) onMessage(_ mqtt.Client, m mqtt.Message) {
	p := make([]byte, len(m.Payload()))
	copy(p, m.Payload())
	c.emit(Event{Kind: MessageReceived, Topic: m.Topic(), Payload: p})
}

// emit blocks until the consumer takes the event so no message is dropped,
// unless the client is closing.
func (c *Client) emit(ev Event) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Publish sends one message and waits for the client to hand it off.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	c.mu.Lock()
	cl := c.client
	c.mu.Unlock()
	if cl == nil || !cl.IsConnected() {
		return errors.New("mqtt: not connected")
	}
	tok := cl.Publish(topic, c.opts.QoS, retained, payload)
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects and releases any callback blocked on the event channel.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	cl := c.client
	c.mu.Unlock()

	if cl != nil {
		cl.Disconnect(250)
	}
}
