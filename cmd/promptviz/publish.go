package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-promptviz/internal/config"
	"github.com/coreman2200/funtimes-promptviz/internal/mqttconn"
)

func newPublishCmd(o *rootOptions) *cobra.Command {
	var (
		program  string
		retained bool
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "publish PAYLOAD",
		Short: "Publish one message to a visualizer's topic",
		Example: `  promptviz publish --broker ws://localhost:1882 '{"speed_para":1,"dir_para":-1}'
  promptviz publish --for led --broker ws://localhost:1882 '{"led":[255,0,0,200]}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd, program)
			if err != nil {
				return err
			}
			log, err := o.logger(cmd, cfg)
			if err != nil {
				return err
			}
			if cfg.MQTT.Broker == "" {
				return mqttconn.ErrDisabled
			}
			if err := mqttconn.ValidateBroker(cfg.MQTT.Broker); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c := mqttconn.New(mqttconn.Options{
				Broker:         cfg.MQTT.Broker,
				Username:       cfg.MQTT.Username,
				Password:       cfg.MQTT.Password,
				ConnectTimeout: timeout,
			}, nil, log)
			defer c.Close()

			if err := c.ConnectWait(ctx); err != nil {
				return err
			}
			if err := c.Publish(ctx, cfg.MQTT.Topic, []byte(args[0]), retained); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d bytes to %s\n", len(args[0]), cfg.MQTT.Topic)
			return nil
		},
	}
	cmd.Flags().StringVar(&program, "for", config.ProgramWindmills, "which visualizer's defaults to use: windmills or led")
	cmd.Flags().BoolVar(&retained, "retain", false, "set the retained flag")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "connect and publish timeout")
	return cmd
}
