package main

import (
	"context"
	"errors"

	"github.com/bastiangx/rootsearch/internal/logger"
	"github.com/bastiangx/rootsearch/pkg/config"
	"github.com/bastiangx/rootsearch/pkg/providers"
	"github.com/bastiangx/rootsearch/pkg/ranking"
	"github.com/bastiangx/rootsearch/pkg/ranking/badgerstore"
	"github.com/bastiangx/rootsearch/pkg/root"
	"github.com/bastiangx/rootsearch/pkg/root/sqlitestore"
	"github.com/charmbracelet/log"
)

// app holds every long lived component, built explicitly from config.
type app struct {
	cfg     *config.Config
	catalog *providers.Catalog
	manager *root.Manager
	ranker  *ranking.Service
}

// openApp wires stores, providers and services. A store that cannot be
// opened is replaced by an in-memory one so search keeps working.
func openApp(ctx context.Context, cfg *config.Config) *app {
	var meta root.MetadataStore
	if s, err := sqlitestore.Open(cfg.Metadata.DBPath); err != nil {
		log.Warnf("Failed to open metadata db %s: %v. Aliases and open counts will not persist.", cfg.Metadata.DBPath, err)
		meta = root.NewMemoryMetadataStore()
	} else {
		meta = s
	}

	manager := root.NewManager(
		root.WithMetadataStore(meta),
		root.WithResultLimit(cfg.Search.Limit),
		root.WithFuzzyFallback(cfg.Search.FuzzyFallback),
		root.WithLogger(componentLogger("root")),
	)

	catalog := providers.NewCatalog(cfg.Catalog.Path)
	manager.AddProvider(catalog)
	manager.ReloadProviders()
	_ = manager.LoadMetadata(ctx)

	var frec ranking.Store
	if s, err := badgerstore.Open(cfg.Ranking.DataDir, cfg.Ranking.InMemory); err != nil {
		log.Warnf("Failed to open frecency db %s: %v. Visits will not persist.", cfg.Ranking.DataDir, err)
	} else {
		frec = s
	}
	ranker := ranking.NewService(frec, ranking.WithLogger(componentLogger("ranking")))
	_ = ranker.LoadRecords(ctx, cfg.Ranking.ItemType)

	log.Debug("App ready", "items", len(manager.Items()), "catalog", catalog.Path())
	return &app{cfg: cfg, catalog: catalog, manager: manager, ranker: ranker}
}

func (a *app) Close() error {
	return errors.Join(a.manager.Close(), a.ranker.Close())
}

// componentLogger follows the global level; --debug adds caller and timestamps.
func componentLogger(prefix string) *log.Logger {
	return logger.NewWithConfig(prefix, log.GetLevel(), flagDebug, flagDebug, log.TextFormatter)
}
