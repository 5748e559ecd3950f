package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bastiangx/rootsearch/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve msgpack requests over stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a := openApp(ctx, appConfig)
		var closeOnce sync.Once
		shutdown := func() {
			closeOnce.Do(func() {
				if err := a.Close(); err != nil {
					log.Errorf("Closing: %v", err)
				}
			})
		}
		defer shutdown()

		sigHandler(a, shutdown)
		showStartupInfo(a)

		srv := server.NewServer(a.manager, a.ranker, a.cfg, os.Stdin, os.Stdout)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	},
}

// sigHandler exits cleanly on interrupt and reloads the catalog on SIGHUP.
func sigHandler(a *app, shutdown func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range c {
			if sig == syscall.SIGHUP {
				log.Info("SIGHUP: reloading catalog")
				_ = a.catalog.Reload()
				continue
			}
			fmt.Fprintf(os.Stderr, "\nExiting...\n")
			shutdown()
			os.Exit(0)
		}
	}()
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(a *app) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	stats := a.manager.Stats()
	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("catalog: ( %s ) items: %d", a.catalog.Path(), stats["items"])
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
