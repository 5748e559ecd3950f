/*
rootsearch indexes launcher items (apps, commands, anything a catalog lists)
and answers prefix searches over them, ranked by how often each item is opened.

Usage:

	rootsearch serve [-d] [--config path]
	rootsearch cli [-d] [--limit n]
	rootsearch version

serve speaks msgpack over stdin/stdout (see pkg/server). cli is an
interactive prompt for trying queries by hand.

Config lives in $XDG_CONFIG_HOME/rootsearch/config.toml and is created with
defaults on first run.
*/
package main

import (
	"os"

	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "rootsearch"
	gh      = "https://github.com/bastiangx/rootsearch"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
