package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-promptviz/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	addr       string
	fps        int
	broker     string
	topic      string
	username   string
	password   string
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "promptviz",
		Short: "Live MQTT visualizers: windmills and an RGB LED",
		Long: `promptviz subscribes to an MQTT topic and renders the received state at a
fixed frame rate. Frames stream to a browser preview over a websocket and,
for the LED visualizer, to a physical LED strip.

Settings come from a YAML file (--config), PROMPTVIZ_* environment variables
and flags, in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "path to a YAML config file")
	f.StringVar(&o.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	f.StringVar(&o.logFormat, "log-format", "", "log format: console or json")
	f.StringVar(&o.addr, "addr", "", "HTTP listen address for the preview (default :8080)")
	f.IntVar(&o.fps, "fps", 0, "frames per second (default 60)")
	f.StringVar(&o.broker, "broker", "", "MQTT broker URL (ws://, wss://, tcp://, ssl://)")
	f.StringVar(&o.topic, "topic", "", "MQTT topic to subscribe or publish to")
	f.StringVar(&o.username, "username", "", "MQTT username")
	f.StringVar(&o.password, "password", "", "MQTT password")

	cmd.AddCommand(
		newVisualizerCmd(o, config.ProgramWindmills, "Three windmills whose speed and direction follow MQTT messages"),
		newVisualizerCmd(o, config.ProgramLED, "An RGB LED whose color and brightness follow MQTT messages"),
		newBrokerCmd(o),
		newPublishCmd(o),
		newConfigCmd(o),
	)
	return cmd
}

// load resolves the effective config for program: defaults, then the file,
// then the environment, then any flag the user set.
func (o *rootOptions) load(cmd *cobra.Command, program string) (*config.Config, error) {
	cfg, err := config.Load(o.configPath, program)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if changed("addr") {
		cfg.HTTP.Addr = o.addr
	}
	if changed("fps") {
		cfg.FPS = o.fps
	}
	if changed("broker") {
		cfg.MQTT.Broker = o.broker
	}
	if changed("topic") {
		cfg.MQTT.Topic = o.topic
	}
	if changed("username") {
		cfg.MQTT.Username = o.username
	}
	if changed("password") {
		cfg.MQTT.Password = o.password
	}
	return cfg, nil
}

// logger builds the process logger on the command's stderr.
func (o *rootOptions) logger(cmd *cobra.Command, cfg *config.Config) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if cfg.Log.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level: %w", err)
		}
		lvl = l
	}

	zerolog.TimeFieldFormat = time.RFC3339
	var w io.Writer
	switch cfg.Log.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}
	case "json":
		w = cmd.ErrOrStderr()
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
