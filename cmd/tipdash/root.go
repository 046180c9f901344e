package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/tipcache/internal/config"
)

var version = "dev"

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "tipdash",
		Short: "Hover tooltip data layer for the home dashboard",
		Long: `tipdash exercises the dashboard's tooltip layer outside the browser.

"serve" runs a fixture backend that speaks the dashboard's envelope format.
"hover" replays pointer movements over a list of items and prints every
tooltip the controller shows, together with request statistics.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default "+config.DefaultPath()+")")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newHoverCommand(opts))

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
