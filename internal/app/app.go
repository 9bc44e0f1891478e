// Package app wires configuration into the cache, record store and platform
// clients shared by every command.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"spotiscience/internal/cache"
	"spotiscience/internal/config"
	"spotiscience/internal/models"
	"spotiscience/internal/repositories"
	"spotiscience/internal/services"
)

// App holds the long-lived dependencies built from a Config
type App struct {
	Config      *config.Config
	Cache       cache.Cache
	Records     repositories.RecordRepository
	Database    *models.Database // nil unless STORE_DRIVER=mongo
	Acquisition *services.AcquisitionService

	closers []func() error
}

// New builds the cache, record store and acquisition service. The caller
// must Close the returned App.
func New(ctx context.Context, cfg *config.Config, opts ...services.AcquisitionOption) (*App, error) {
	a := &App{Config: cfg}

	c, err := newCache(cfg)
	if err != nil {
		return nil, err
	}
	a.Cache = c
	a.closers = append(a.closers, c.Close)

	records, err := a.newRecords(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Records = repositories.NewCachedRecordRepository(records, c)

	streaming := services.NewCachedStreamingClient(services.NewSpotifyService(services.SpotifyOptions{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		APIURL:       cfg.SpotifyAPIURL,
		TokenURL:     cfg.SpotifyTokenURL,
		Timeout:      cfg.RequestTimeout,
	}), c)
	if !cfg.IsEnabled("spotify") {
		slog.Warn("Spotify credentials not set; acquisition calls will fail")
	}

	var lyrics services.LyricsClient
	if cfg.IsEnabled("genius") {
		lyrics = services.NewGeniusService(services.GeniusOptions{
			AccessToken: cfg.GeniusAccessToken,
			APIURL:      cfg.GeniusAPIURL,
			Timeout:     cfg.RequestTimeout,
		})
	}

	opts = append([]services.AcquisitionOption{services.WithThrottle(cfg.RequestInterval)}, opts...)
	a.Acquisition = services.NewAcquisitionService(streaming, lyrics, opts...)

	slog.Info("Application wired",
		"store", cfg.StoreDriver,
		"valkey", cfg.ValkeyURL != "",
		"providers", cfg.EnabledProviders())
	return a, nil
}

func newCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.ValkeyURL == "" {
		return cache.NewMemoryCache(cfg.L1CacheItems), nil
	}
	c, err := cache.NewValkeyMultiLevelCache(cfg.ValkeyURL, cfg.L1CacheItems)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return c, nil
}

func (a *App) newRecords(ctx context.Context, cfg *config.Config) (repositories.RecordRepository, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case config.StoreMongo:
		db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.Database = db
		a.closers = append(a.closers, func() error { return db.Close(context.Background()) })

		if err := db.CreateIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return repositories.NewMongoRecordRepository(db), nil

	default:
		records, closeFn, err := repositories.NewSQLiteRecordRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closeFn)
		return records, nil
	}
}

// Close releases everything New opened, newest first
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
