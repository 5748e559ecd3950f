package main

import (
	"github.com/bastiangx/rootsearch/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Global flag values.
var (
	flagConfig string
	flagDebug  bool
)

// appConfig is loaded once by PersistentPreRunE for every subcommand.
var (
	appConfig  *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           AppName,
	Short:         "Prefix search over launcher items, ranked by use",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagDebug {
			log.SetLevel(log.DebugLevel)
			log.SetReportTimestamp(true)
		} else {
			log.SetLevel(log.WarnLevel)
		}

		cfg, path, err := config.LoadConfigWithPriority(flagConfig)
		if err != nil {
			return err
		}
		appConfig, configPath = cfg, path
		log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(path))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.toml (default: $XDG_CONFIG_HOME/rootsearch/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "toggle debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cliCmd)
	rootCmd.AddCommand(versionCmd)
}
