package cmd

import (
	"errors"
	"fmt"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
	"github.com/medsim/medsim/internal/game"
)

// app is everything a command needs, built from the layered config
type app struct {
	cfg     *internal.Config
	db      *internal.StateDB
	client  *api.Client
	cache   *internal.CacheManager
	catalog *internal.Catalog
	store   *game.Store
}

// loadConfig reads the config file and env, then applies the global flags
func loadConfig() (*internal.Config, error) {
	path := configPath
	if path == "" {
		path = internal.DefaultConfigPath()
	}
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if apiHost != "" {
		cfg.APIHost = apiHost
	}
	if locale != "" {
		cfg.Locale = locale
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// openApp opens the state database and wires the client and store
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := internal.OpenStateDB(cfg.StateDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	client := api.NewFromConfig(cfg, db.Credentials())
	cache := internal.NewCacheManager(cfg.CacheDir(), cfg.APIHost)
	catalog := internal.NewCatalog(cfg.Locale)
	store := game.NewStore(client,
		game.WithCatalog(catalog),
		game.WithCache(cache),
		game.WithOutbox(db.Outbox()),
	)

	return &app{
		cfg:     cfg,
		db:      db,
		client:  client,
		cache:   cache,
		catalog: catalog,
		store:   store,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		internal.LogWarn("Failed to close state database: %v", err)
	}
}

// explain turns an operation error into what the user should read: the
// login hint for auth failures, the store's localized text otherwise
func (a *app) explain(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, api.ErrLoginRequired) {
		return errors.New(a.catalog.Text(internal.TextLoginRequired))
	}
	if api.IsAuthFailure(err) {
		return fmt.Errorf("%s %s", a.catalog.Text(internal.TextAuthFailed), a.catalog.Text(internal.TextLoginRequired))
	}
	if text := a.store.Snapshot().Error; text != "" {
		return fmt.Errorf("%s (%w)", text, err)
	}
	return err
}
