package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"time"

	"go.uber.org/zap"

	"metasearch/api"
	"metasearch/cache"
	"metasearch/config"
	"metasearch/dispatch"
	"metasearch/engine"
	"metasearch/metrics"
	"metasearch/rank"
	"metasearch/search"
	"metasearch/snippet"
)

func main() {
	// =========
	// Profiling
	// =========
	go func() {
		http.ListenAndServe(":6060", nil)
	}()

	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	engineCfg, err := config.LoadEngines(cfg.EnginesPath)
	if err != nil {
		log.Fatalf("Failed to load engines config: %v", err)
	}
	spamDomains := config.LoadDomains(cfg.SpamDomainsPath)

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// HTTP
	// =========
	httpClient, err := engine.NewHTTPClient(cfg.SocksProxyURL, 30*time.Second)
	if err != nil {
		logger.Fatal("failed to create http client", zap.Error(err))
	}

	// =========
	// Engine adapters
	// =========
	adapters := buildAdapters(engineCfg, httpClient, logger)
	if len(adapters) == 0 {
		logger.Fatal("no engines enabled")
	}

	// =========
	// Dispatcher
	// =========
	engineTimeouts := make(map[string]time.Duration)
	for name, settings := range engineCfg.Engines {
		if settings.Timeout > 0 {
			engineTimeouts[name] = settings.Timeout.Std()
		}
	}
	dispatcher := dispatch.New(adapters, dispatch.Options{
		PerEngineTimeout: engineCfg.PerEngineTimeout.Std(),
		TotalBudget:      engineCfg.TotalBudget.Std(),
		EngineTimeouts:   engineTimeouts,
	}, logger)

	// =========
	// Ranker
	// =========
	weights := make(map[string]float64, len(adapters))
	for _, adapter := range adapters {
		weights[adapter.Name()] = adapter.Weight()
	}
	ranker := rank.New(weights, rank.NewSpamFilter(spamDomains, engineCfg.SpamKeywords))

	// =========
	// Result cache
	// =========
	store, err := cache.Open(cfg.CachePath, cache.DefaultTTL)
	if err != nil {
		logger.Fatal("failed to open result cache", zap.Error(err))
	}
	defer store.Close()

	// =========
	// Search service
	// =========
	registry := metrics.NewRegistry()
	opts := search.Options{
		Store:    store,
		Registry: registry,
		PageSize: engineCfg.PageSize,
	}
	if engineCfg.Snippets {
		opts.Snippets = snippet.NewLoader(httpClient, logger)
	}
	service := search.NewService(dispatcher, ranker, opts, logger)

	// =========
	// API server
	// =========
	server := api.NewServer(service, registry, strconv.Itoa(cfg.AppPort), logger)
	if err := server.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildAdapters constructs every enabled engine, each wrapped with its
// rate limiter and circuit breaker.
func buildAdapters(engineCfg *config.Engines, httpClient *http.Client, logger *zap.Logger) []engine.Adapter {
	var adapters []engine.Adapter

	add := func(name string, build func(config.EngineSettings) engine.Adapter) {
		if !engineCfg.IsEnabled(name) {
			logger.Info("engine disabled", zap.String("engine", name))
			return
		}
		settings := engineCfg.Settings(name)
		adapter := build(settings)
		adapter = engine.NewRateLimited(adapter, settings.RateLimit, settings.Burst)
		adapter = engine.NewBreaker(adapter, logger)
		adapters = append(adapters, adapter)
	}

	add("duckduckgo", func(s config.EngineSettings) engine.Adapter {
		return engine.NewDuckDuckGo(s.URL, httpClient, s.Weight)
	})
	add("mojeek", func(s config.EngineSettings) engine.Adapter {
		return engine.NewMojeek(s.URL, httpClient, s.Weight)
	})
	add("alexandria", func(s config.EngineSettings) engine.Adapter {
		return engine.NewAlexandria(s.URL, httpClient, s.Weight)
	})
	// SearXNG has no public default endpoint, so it only joins when an
	// instance URL is configured.
	if engineCfg.Settings("searxng").URL != "" {
		add("searxng", func(s config.EngineSettings) engine.Adapter {
			return engine.NewSearXNG(s.URL, httpClient, s.Weight)
		})
	}

	return adapters
}
