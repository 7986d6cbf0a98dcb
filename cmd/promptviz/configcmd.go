package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-promptviz/internal/config"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "config {windmills|led}",
		Short:     "Print or save the effective configuration",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{config.ProgramWindmills, config.ProgramLED},
		RunE: func(cmd *cobra.Command, args []string) error {
			program := args[0]
			if program != config.ProgramWindmills && program != config.ProgramLED {
				return fmt.Errorf("unknown visualizer %q", program)
			}
			cfg, err := o.load(cmd, program)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if out != "" {
				if err := config.Save(out, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
				return nil
			}
			b, err := cfg.Redacted().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the config to this file instead of stdout")
	return cmd
}
