package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kofflo/chamannas/internal/availability/cache"
	"github.com/kofflo/chamannas/internal/config"
	"github.com/kofflo/chamannas/internal/fetch"
	"github.com/kofflo/chamannas/internal/huts"
	"github.com/kofflo/chamannas/internal/model"
)

// app bundles everything a command needs once the configuration, the
// catalog and the cache are loaded.
type app struct {
	cfg     *config.Config
	catalog *huts.Catalog
	model   *model.Model
	log     zerolog.Logger
}

// setup loads the configuration and wires catalog, store, fetcher,
// cache and model. A corrupt results file is recovered by starting from
// an empty dictionary; it never blocks startup.
func setup(cmd *cobra.Command) (*app, error) {
	dataDirFlag, _ := cmd.Flags().GetString("data-dir")
	dataDir := config.ResolveDataDir(dataDirFlag)

	cfg, warnings, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}

	if err := config.InitLogger(cfg.Logging); err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		config.SetLogLevel("debug")
	}
	log := config.GetLogger()
	for _, w := range warnings {
		log.Warn().Str("component", "config").Msg(w)
	}

	catalog, err := huts.LoadCatalog(cfg.HutsFile())
	if err != nil {
		return nil, fmt.Errorf("loading huts catalog: %w", err)
	}
	for _, w := range catalog.Warnings() {
		log.Warn().Str("component", "huts").Msg(w)
	}

	store, err := cache.Load(cfg.ResultsFile())
	if err != nil {
		if !errors.Is(err, cache.ErrCorruptCache) {
			return nil, err
		}
		log.Warn().Str("component", "cache").Err(err).Msg("results cache unreadable, starting empty")
	}

	ttlDays := cache.TTLDaysFromEnv(cfg.ResultsCacheExpiration)
	if flagTTL, _ := cmd.Flags().GetInt("cache-ttl"); flagTTL != 0 {
		ttlDays = flagTTL
	}

	fetcher := fetch.NewClient(
		cfg.BaseURL,
		cfg.MaxNights,
		cfg.RoomBasicTypes,
		catalog,
		fetch.WithLogger(log.With().Str("component", "fetch").Logger()),
	)
	resultCache := cache.New(
		store,
		fetcher,
		ttlDays,
		cache.WithLogger(log.With().Str("component", "cache").Logger()),
	)

	return &app{
		cfg:     cfg,
		catalog: catalog,
		model:   model.New(catalog, resultCache, cfg.Preferences, log.With().Str("component", "model").Logger()),
		log:     log,
	}, nil
}

// persist flushes the results dictionary and the preferences back to
// the data directory. Failures are logged, never fatal: losing a cache
// write must not block shutdown.
func (a *app) persist() {
	if err := a.model.Cache().Store().Save(a.cfg.ResultsFile()); err != nil {
		a.log.Error().Err(err).Msg("saving results cache failed")
	}
	a.cfg.Preferences = a.model.Preferences()
	if err := a.cfg.SavePreferences(); err != nil {
		a.log.Error().Err(err).Msg("saving preferences failed")
	}
}
