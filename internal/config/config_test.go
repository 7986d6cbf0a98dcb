package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	w := Default(ProgramWindmills)
	assert.Equal(t, 60, w.FPS)
	assert.Equal(t, "wss://ide-education.cloud.shiftr.io", w.MQTT.Broker)
	assert.Equal(t, "wind", w.MQTT.Topic)
	assert.Empty(t, w.MQTT.Password)
	require.Len(t, w.Windmill.Units, 3)
	assert.Equal(t, "para", w.Windmill.Units[0].Key)
	assert.Equal(t, [3]uint8{180, 255, 180}, w.Windmill.Units[2].Color)
	require.NoError(t, w.Validate())

	l := Default(ProgramLED)
	assert.Empty(t, l.MQTT.Broker)
	assert.Equal(t, "Light", l.MQTT.Topic)
	assert.Empty(t, l.Windmill.Units)
	require.NoError(t, l.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fps: 30
mqtt:
  broker: ws://localhost:1882
strip:
  driver: screen
  pixels: 8
`), 0600))

	c, err := Load(path, ProgramLED)
	require.NoError(t, err)
	assert.Equal(t, 30, c.FPS)
	assert.Equal(t, "ws://localhost:1882", c.MQTT.Broker)
	assert.Equal(t, "Light", c.MQTT.Topic, "untouched fields keep defaults")
	assert.Equal(t, "screen", c.Strip.Driver)
	assert.Equal(t, 8, c.Strip.Pixels)
	assert.Equal(t, 2500, c.Strip.FreqKHz)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), ProgramLED)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fps: [1"), 0600))
	_, err = Load(path, ProgramLED)
	assert.Error(t, err)

	c, err := Load("", ProgramWindmills)
	require.NoError(t, err)
	assert.Equal(t, Default(ProgramWindmills), c)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := Default(ProgramWindmills)
	want.MQTT.Password = "secret"
	require.NoError(t, Save(path, want))

	got, err := Load(path, ProgramLED)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PROMPTVIZ_MQTT_BROKER":   "tcp://broker:1883",
		"PROMPTVIZ_MQTT_PASSWORD": "pw",
		"PROMPTVIZ_HTTP_ADDR":     ":9090",
	}
	c := Default(ProgramWindmills)
	c.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "tcp://broker:1883", c.MQTT.Broker)
	assert.Equal(t, "ide-education", c.MQTT.Username)
	assert.Equal(t, "pw", c.MQTT.Password)
	assert.Equal(t, "wind", c.MQTT.Topic)
	assert.Equal(t, ":9090", c.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fps zero", func(c *Config) { c.FPS = 0 }},
		{"fps too high", func(c *Config) { c.FPS = 1000 }},
		{"bad scheme", func(c *Config) { c.MQTT.Broker = "http://x" }},
		{"no topic", func(c *Config) { c.MQTT.Topic = "" }},
		{"bad driver", func(c *Config) { c.Strip.Driver = "dmx" }},
		{"no pixels", func(c *Config) { c.Strip.Pixels = 0 }},
		{"spi without freq", func(c *Config) { c.Strip.Driver = "spi"; c.Strip.FreqKHz = 0 }},
		{"empty key", func(c *Config) { c.Windmill.Units[0].Key = "" }},
		{"duplicate key", func(c *Config) { c.Windmill.Units[1].Key = "para" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default(ProgramWindmills)
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestRedacted(t *testing.T) {
	c := Default(ProgramWindmills)
	c.MQTT.Password = "secret"
	r := c.Redacted()
	assert.Equal(t, "***", r.MQTT.Password)
	assert.Equal(t, "secret", c.MQTT.Password)

	b, err := r.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.Contains(t, string(b), "ide-education")
}
