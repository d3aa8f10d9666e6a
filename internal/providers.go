package internal

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/registry"
	"github.com/guyueqh/sentinel/internal/telegram"
	"github.com/guyueqh/sentinel/pkg/futures"
)

const (
	telegramHTTPTimeout = 10 * time.Second
	defaultRegistryPath = "data/models.json"
	defaultCacheDir     = "data/cache"
)

// provideFuturesClient provides futures market data client
func provideFuturesClient(conf *config.Config, logger *zap.Logger) *futures.Client {
	cacheDir := conf.Data.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	return futures.NewClient(logger, futures.Options{
		CacheDir:    cacheDir,
		MinInterval: time.Duration(conf.Data.MinIntervalMillis) * time.Millisecond,
		MaxJitter:   time.Duration(conf.Data.MaxJitterMillis) * time.Millisecond,
		Timeout:     time.Duration(conf.Data.TimeoutSeconds) * time.Second,
	})
}

// provideRegistry provides AI model registry
func provideRegistry(logger *zap.Logger, conf *config.Config) (*registry.Registry, error) {
	path := conf.Registry.Path
	if path == "" {
		path = defaultRegistryPath
	}
	return registry.New(logger, path)
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}
