package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-promptviz/internal/mqttconn"
)

const (
	ProgramWindmills = "windmills"
	ProgramLED       = "led"
)

type MQTT struct {
	Broker   string `yaml:"broker"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id,omitempty"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
	// MaxRate caps websocket broadcasts per second; 0 sends every frame.
	MaxRate int `yaml:"max_rate,omitempty"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

type Strip struct {
	Driver        string `yaml:"driver"` // none | screen | spi
	Port          string `yaml:"port,omitempty"`
	Pixels        int    `yaml:"pixels"`
	FreqKHz       int    `yaml:"freq_khz"`
	MaxBrightness uint8  `yaml:"max_brightness"`
}

type Unit struct {
	Key   string   `yaml:"key"`
	Label string   `yaml:"label"`
	X     float64  `yaml:"x"`
	Y     float64  `yaml:"y"`
	Color [3]uint8 `yaml:"color,flow"`
}

type Windmill struct {
	Units []Unit `yaml:"units"`
}

type Config struct {
	FPS      int      `yaml:"fps"`
	MQTT     MQTT     `yaml:"mqtt"`
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Strip    Strip    `yaml:"strip"`
	Windmill Windmill `yaml:"windmill,omitempty"`
}

// Default returns the built-in settings for a program. The windmill broker
// is the public education broker; its password must come from the
// environment or a flag.
func Default(program string) *Config {
	c := &Config{
		FPS:  60,
		HTTP: HTTP{Addr: ":8080"},
		Log:  Log{Level: "info", Format: "console"},
		Strip: Strip{
			Driver:        "none",
			Pixels:        1,
			FreqKHz:       2500,
			MaxBrightness: 200,
		},
	}
	switch program {
	case ProgramWindmills:
		c.MQTT = MQTT{
			Broker:   "wss://ide-education.cloud.shiftr.io",
			Username: "ide-education",
			Topic:    "wind",
		}
		c.Windmill.Units = []Unit{
			{Key: "para", Label: "Para", X: 200, Y: 200, Color: [3]uint8{255, 180, 120}},
			{Key: "reg", Label: "Reg", X: 400, Y: 200, Color: [3]uint8{120, 220, 255}},
			{Key: "old", Label: "Old", X: 600, Y: 200, Color: [3]uint8{180, 255, 180}},
		}
	case ProgramLED:
		c.MQTT = MQTT{Topic: "Light"}
	}
	return c
}

// Load reads path over the program defaults. A missing path is not an error
// when path is empty.
func Load(path, program string) (*Config, error) {
	c := Default(program)
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := c.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

func (c *Config) YAML() ([]byte, error) { return yaml.Marshal(c) }

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.Windmill.Units = append([]Unit(nil), c.Windmill.Units...)
	if out.MQTT.Password != "" {
		out.MQTT.Password = "***"
	}
	return &out
}

// ApplyEnv overrides MQTT and HTTP settings from PROMPTVIZ_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.MQTT.Broker, "PROMPTVIZ_MQTT_BROKER")
	set(&c.MQTT.Username, "PROMPTVIZ_MQTT_USERNAME")
	set(&c.MQTT.Password, "PROMPTVIZ_MQTT_PASSWORD")
	set(&c.MQTT.Topic, "PROMPTVIZ_MQTT_TOPIC")
	set(&c.HTTP.Addr, "PROMPTVIZ_HTTP_ADDR")
}

func (c *Config) Validate() error {
	var errs []error
	if c.FPS < 1 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps must be in 1..240, got %d", c.FPS))
	}
	if c.MQTT.Broker != "" {
		if err := mqttconn.ValidateBroker(c.MQTT.Broker); err != nil {
			errs = append(errs, err)
		}
		if c.MQTT.Topic == "" {
			errs = append(errs, errors.New("mqtt.topic is required when a broker is set"))
		}
	}
	switch c.Strip.Driver {
	case "", "none", "screen", "spi":
	default:
		errs = append(errs, fmt.Errorf("unknown strip driver %q", c.Strip.Driver))
	}
	if c.Strip.Pixels < 1 {
		errs = append(errs, fmt.Errorf("strip.pixels must be positive, got %d", c.Strip.Pixels))
	}
	if c.Strip.Driver == "spi" && c.Strip.FreqKHz <= 0 {
		errs = append(errs, errors.New("strip.freq_khz must be positive"))
	}
	seen := map[string]bool{}
	for i, u := range c.Windmill.Units {
		switch {
		case u.Key == "":
			errs = append(errs, fmt.Errorf("windmill.units[%d]: key is required", i))
		case seen[u.Key]:
			errs = append(errs, fmt.Errorf("windmill.units[%d]: duplicate key %q", i, u.Key))
		}
		seen[u.Key] = true
	}
	return errors.Join(errs...)
}
