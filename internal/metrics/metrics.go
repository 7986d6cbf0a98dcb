// Package metrics exposes the visualizer's Prometheus metrics on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	messages      *prometheus.CounterVec
	connEvents    *prometheus.CounterVec
	connected     prometheus.Gauge
	frames        prometheus.Counter
	frameDuration prometheus.Histogram
	driverErrors  prometheus.Counter
	wsClients     prometheus.Gauge
	tick          prometheus.Gauge
}

// New builds the metric set for one scene. The scene name is attached to
// every series as a constant label.
func New(scene string) *Metrics {
	constLabels := prometheus.Labels{"scene": scene}
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "promptviz_messages_total",
			Help:        "MQTT messages consumed, by decode result",
			ConstLabels: constLabels,
		}, []string{"result"}),
		connEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "promptviz_connection_events_total",
			Help:        "Connection lifecycle events",
			ConstLabels: constLabels,
		}, []string{"event"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "promptviz_mqtt_connected",
			Help:        "1 while the MQTT session is up",
			ConstLabels: constLabels,
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "promptviz_frames_total",
			Help:        "Frames rendered",
			ConstLabels: constLabels,
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "promptviz_frame_duration_seconds",
			Help:        "Time spent rendering and writing one frame",
			ConstLabels: constLabels,
			Buckets:     []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		driverErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "promptviz_driver_errors_total",
			Help:        "Frame writes that failed on at least one output",
			ConstLabels: constLabels,
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "promptviz_ws_clients",
			Help:        "Connected websocket viewers",
			ConstLabels: constLabels,
		}),
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "promptviz_tick",
			Help:        "Current frame counter",
			ConstLabels: constLabels,
		}),
	}
	m.reg.MustRegister(
		m.messages, m.connEvents, m.connected, m.frames,
		m.frameDuration, m.driverErrors, m.wsClients, m.tick,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Message(result string) {
	m.messages.WithLabelValues(result).Inc()
}

// Messages returns the counter for one decode result.
func (m *Metrics) Messages(result string) prometheus.Counter {
	return m.messages.WithLabelValues(result)
}

func (m *Metrics) Connection(event string, up bool) {
	m.connEvents.WithLabelValues(event).Inc()
	if up {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

func (m *Metrics) Frame(tick uint64, took time.Duration, err error) {
	m.frames.Inc()
	m.tick.Set(float64(tick))
	m.frameDuration.Observe(took.Seconds())
	if err != nil {
		m.driverErrors.Inc()
	}
}

func (m *Metrics) SetClients(n int) { m.wsClients.Set(float64(n)) }
