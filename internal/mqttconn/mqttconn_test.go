package mqttconn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-promptviz/internal/devbroker"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func startBroker(t *testing.T) (*devbroker.Broker, string) {
	t.Helper()
	addr := freeAddr(t)
	b, err := devbroker.New(devbroker.Options{WSAddr: addr}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Start())
	t.Cleanup(func() { _ = b.Close() })
	return b, "ws://" + addr
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestValidateBroker(t *testing.T) {
	assert.NoError(t, ValidateBroker("wss://ide-education.cloud.shiftr.io"))
	assert.NoError(t, ValidateBroker("tcp://localhost:1883"))
	assert.Error(t, ValidateBroker("http://localhost"))
	assert.Error(t, ValidateBroker("ws://"))
	assert.Error(t, ValidateBroker("::nope"))
}

func TestDisabledClientIsNoOp(t *testing.T) {
	events := make(chan Event, 1)
	c := New(Options{Topic: "Light"}, events, zerolog.Nop())
	assert.False(t, c.Enabled())
	c.Connect(context.Background())
	assert.ErrorIs(t, c.ConnectWait(context.Background()), ErrDisabled)
	assert.Empty(t, events)
	c.Close()
}

func TestClientIDDefaults(t *testing.T) {
	c := New(Options{}, nil, zerolog.Nop())
	assert.Contains(t, c.opts.ClientID, "promptviz-")
}

func TestSubscribeOverWebsocket(t *testing.T) {
	b, url := startBroker(t)

	events := make(chan Event, 16)
	c := New(Options{Broker: url, Topic: "wind", Retry: true}, events, zerolog.Nop())
	t.Cleanup(c.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Connect(ctx)

	ev := next(t, events)
	require.Equal(t, Connected, ev.Kind)

	// the subscription is acknowledged asynchronously; publish until it lands
	var got Event
	require.Eventually(t, func() bool {
		_ = b.Publish("wind", []byte(`{"speed_reg":0.3}`))
		select {
		case got = <-events:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, MessageReceived, got.Kind)
	assert.Equal(t, "wind", got.Topic)
	assert.JSONEq(t, `{"speed_reg":0.3}`, string(got.Payload))
}

func TestMessagesArriveInOrder(t *testing.T) {
	b, url := startBroker(t)

	events := make(chan Event, 64)
	c := New(Options{Broker: url, Topic: "Light"}, events, zerolog.Nop())
	t.Cleanup(c.Close)
	require.NoError(t, c.ConnectWait(context.Background()))
	require.Equal(t, Connected, next(t, events).Kind)

	// wait for the subscription with a marker message
	require.Eventually(t, func() bool {
		_ = b.Publish("Light", []byte(`"marker"`))
		select {
		case <-events:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish("Light", []byte{byte('0' + i)}))
	}
	for i := 0; i < 5; {
		ev := next(t, events)
		require.Equal(t, MessageReceived, ev.Kind)
		if string(ev.Payload) == `"marker"` {
			continue
		}
		assert.Equal(t, []byte{byte('0' + i)}, ev.Payload)
		i++
	}
}

func TestPublishRoundTrip(t *testing.T) {
	_, url := startBroker(t)

	events := make(chan Event, 16)
	sub := New(Options{Broker: url, Topic: "wind"}, events, zerolog.Nop())
	t.Cleanup(sub.Close)
	require.NoError(t, sub.ConnectWait(context.Background()))
	require.Equal(t, Connected, next(t, events).Kind)

	pub := New(Options{Broker: url}, nil, zerolog.Nop())
	t.Cleanup(pub.Close)
	assert.Error(t, pub.Publish(context.Background(), "wind", []byte("x"), false), "not connected yet")
	require.NoError(t, pub.ConnectWait(context.Background()))

	require.Eventually(t, func() bool {
		if err := pub.Publish(context.Background(), "wind", []byte(`{"speed_old":1}`), false); err != nil {
			return false
		}
		select {
		case ev := <-events:
			return ev.Kind == MessageReceived && string(ev.Payload) == `{"speed_old":1}`
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
}

func TestUnreachableBrokerReportsDisconnected(t *testing.T) {
	events := make(chan Event, 4)
	c := New(Options{Broker: "ws://" + freeAddr(t), Topic: "wind", ConnectTimeout: time.Second}, events, zerolog.Nop())
	t.Cleanup(c.Close)
	c.Connect(context.Background())

	ev := next(t, events)
	assert.Equal(t, Disconnected, ev.Kind)
	assert.Error(t, ev.Err)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(Options{Broker: "ws://127.0.0.1:1"}, nil, zerolog.Nop())
	c.Close()
	c.Close()
	assert.ErrorIs(t, c.ConnectWait(context.Background()), ErrClosed)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "message", MessageReceived.String())
	assert.Equal(t, "disconnected", Disconnected.String())
}
