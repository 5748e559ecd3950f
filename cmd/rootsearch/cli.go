package main

import (
	"os"

	"github.com/bastiangx/rootsearch/internal/cli"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var flagLimit int

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Interactive search prompt, for testing and debugging",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := openApp(ctx, appConfig)
		defer a.Close()

		limit := appConfig.CLI.DefaultLimit
		if cmd.Flags().Changed("limit") && flagLimit > 0 {
			limit = flagLimit
		}
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "limit", limit, "minQuery", appConfig.Search.MinQuery, "maxQuery", appConfig.Search.MaxQuery)

		h := cli.NewInputHandler(a.manager, a.ranker, appConfig.Ranking.ItemType, limit,
			appConfig.Search.MinQuery, appConfig.Search.MaxQuery, os.Stdin, os.Stderr)
		return h.Start(ctx)
	},
}

func init() {
	cliCmd.Flags().IntVar(&flagLimit, "limit", 0, "number of results to show (default from config)")
}
