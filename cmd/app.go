package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/ncstream/internal/config"
	"github.com/llehouerou/ncstream/internal/errmsg"
	"github.com/llehouerou/ncstream/internal/logging"
	"github.com/llehouerou/ncstream/internal/netease"
)

// app holds what every command needs: configuration, the root logger and
// the song URL resolver.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	closeLog func() error
	client   *netease.Client
	cache    *netease.Cache
	resolver *netease.Resolver
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// newApp loads configuration and wires logging and resolution. terminal is
// set when a full-screen UI will own the terminal.
func newApp(ctx context.Context, terminal bool, useCache bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, errors.New(errmsg.Format(errmsg.OpLoadConfig, err))
	}

	logCfg := cfg.GetLogConfig()
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	logger, closeLog, err := logging.New(logging.OptionsFrom(logCfg, terminal))
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, closeLog: closeLog}

	nc := cfg.GetNeteaseConfig()
	a.client = netease.NewClient(nc.BaseURL, nc.Bitrate, time.Duration(nc.TimeoutSeconds)*time.Second)

	if useCache && cfg.CacheEnabled() {
		a.cache = openCache(ctx, time.Duration(nc.CacheTTLMinutes)*time.Minute, logger)
	}
	a.resolver = netease.NewResolver(a.client, a.cache, a.client.Bitrate(), logger)

	logger.Debug().
		Str("version", version).
		Str("base_url", nc.BaseURL).
		Bool("cache", a.cache != nil).
		Msg("Starting ncstream")
	return a, nil
}

// openCache opens the URL cache, or returns nil when it is unavailable.
// Resolution works without it.
func openCache(ctx context.Context, ttl time.Duration, logger zerolog.Logger) *netease.Cache {
	path, err := netease.DefaultCachePath()
	if err != nil {
		logger.Warn().Err(err).Msg("URL cache disabled")
		return nil
	}
	cache, err := netease.OpenCache(ctx, path, ttl)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("URL cache disabled")
		return nil
	}
	return cache
}

func (a *app) close() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close url cache: %w", err))
		}
	}
	if err := a.closeLog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
