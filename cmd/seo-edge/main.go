package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commercekit/seo-edge/internal/config"
	"github.com/commercekit/seo-edge/internal/origin"
	"github.com/commercekit/seo-edge/internal/server"
	"github.com/commercekit/seo-edge/pkg/cache"
	"github.com/commercekit/seo-edge/pkg/locale"
	"github.com/commercekit/seo-edge/pkg/logging"
	"github.com/commercekit/seo-edge/pkg/redirect"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		l := logging.NewLogger("main")
		l.Fatal().Err(err).Msg("configuration error")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("main")

	c := cache.New(cache.Config{
		MaxSize:            cfg.Cache.MaxSize,
		DefaultTTL:         cfg.Cache.DefaultTTL,
		SweepInterval:      cfg.Cache.SweepInterval,
		DetailedLogging:    cfg.Cache.DetailedLogging,
		MetricsEnabled:     cfg.Cache.MetricsEnabled,
		CompressionEnabled: cfg.Cache.CompressionEnabled,
	})

	var snapshots *cache.SnapshotStore
	if cfg.Cache.SnapshotRedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Cache.SnapshotRedisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn().Err(err).Msg("snapshot Redis unreachable, continuing without persistence")
		} else {
			snapshots = cache.NewSnapshotStore(redisClient, "")
			if entries, err := snapshots.Load(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("loading cache snapshot failed")
			} else if entries != nil {
				n := c.Import(entries)
				logger.Info().Int("entries", n).Msg("cache snapshot restored")
			}
		}
	}

	normalizer := redirect.NewNormalizer(redirect.Policy{
		EnforceHTTPS:         cfg.Normalize.EnforceHTTPS,
		RemoveWWW:            cfg.Normalize.RemoveWWW,
		EnforceLowercase:     cfg.Normalize.EnforceLowercase,
		RemoveIndexFiles:     cfg.Normalize.RemoveIndexFiles,
		RemoveTrailingSlash:  cfg.Normalize.RemoveTrailingSlash,
		EnforceTrailingSlash: cfg.Normalize.EnforceTrailingSlash,
		RemoveQueryParams:    cfg.Normalize.RemoveQueryParams,
		SortQueryParams:      cfg.Normalize.SortQueryParams,
	})
	resolver := redirect.NewResolver(normalizer, c)

	validator := redirect.NewValidator(redirect.SecurityPolicy{
		AllowedProtocols:          cfg.Security.AllowedProtocols,
		BlockedPaths:              cfg.Security.BlockedPaths,
		MaxURLLength:              cfg.Security.MaxURLLength,
		AllowedFileExtensions:     cfg.Security.AllowedFileExtensions,
		SanitizeSpecialChars:      cfg.Security.SanitizeSpecialChars,
		PreventDirectoryTraversal: cfg.Security.PreventDirectoryTraversal,
	})

	registry, err := locale.NewRegistry(locale.Config{
		BaseURL:        cfg.BaseURL,
		DefaultLocale:  cfg.Locale.DefaultLocale,
		EnabledLocales: cfg.Locale.EnabledLocales,
		Cache:          c,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid locale configuration")
	}

	fetcher := origin.New(cfg.OriginURL)

	srv := server.New(server.Deps{
		Cache:     c,
		Resolver:  resolver,
		Registry:  registry,
		Fetcher:   fetcher,
		Validator: validator,
		BaseURL:   cfg.BaseURL,
	})

	edge := &http.Server{Addr: cfg.ListenAddr, Handler: srv.EdgeHandler()}
	admin := &http.Server{Addr: cfg.AdminAddr, Handler: srv.AdminHandler()}

	go func() {
		logger.Info().Str("addr", cfg.AdminAddr).Msg("admin server listening")
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("admin server failed")
		}
	}()
	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("origin", cfg.OriginURL).
			Msg("edge server listening")
		if err := edge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("edge server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := edge.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("edge server shutdown error")
	}
	if err := admin.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown error")
	}

	if snapshots != nil {
		if err := snapshots.Save(ctx, c.Export()); err != nil {
			logger.Warn().Err(err).Msg("saving cache snapshot failed")
		} else {
			logger.Info().Msg("cache snapshot saved")
		}
	}

	// Stops the sweeper and drains the invalidation queue.
	c.Shutdown()
	logger.Info().Msg("shutdown complete")
}
