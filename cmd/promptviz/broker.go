package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-promptviz/internal/config"
	"github.com/coreman2200/funtimes-promptviz/internal/devbroker"
)

func newBrokerCmd(o *rootOptions) *cobra.Command {
	var opts devbroker.Options
	cmd := &cobra.Command{
		Use:   "broker",
		Short: "Run a local MQTT broker for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load(cmd, config.ProgramWindmills)
			if err != nil {
				return err
			}
			log, err := o.logger(cmd, cfg)
			if err != nil {
				return err
			}
			b, err := devbroker.New(opts, log)
			if err != nil {
				return err
			}
			if err := b.Start(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return b.Close()
		},
	}
	cmd.Flags().StringVar(&opts.TCPAddr, "tcp", ":1883", "TCP listen address; empty disables")
	cmd.Flags().StringVar(&opts.WSAddr, "ws", ":1882", "websocket listen address; empty disables")
	return cmd
}
