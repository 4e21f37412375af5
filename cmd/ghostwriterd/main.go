package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkwell-ai/ghostwriter/internal/api"
	"github.com/inkwell-ai/ghostwriter/internal/cache"
	"github.com/inkwell-ai/ghostwriter/internal/config"
	"github.com/inkwell-ai/ghostwriter/internal/engine"
	"github.com/inkwell-ai/ghostwriter/internal/language"
	"github.com/inkwell-ai/ghostwriter/internal/provider"
	"github.com/inkwell-ai/ghostwriter/internal/store"
	"github.com/inkwell-ai/ghostwriter/internal/trigger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Ghostwriter...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/ghostwriter.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Initialize provider router
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey, Model: pc.Model,
		}
		switch pc.Type {
		case "openai":
			router.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			router.Register(provider.NewAnthropicProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}

	// Initialize PostgreSQL-backed settings store
	var (
		pgStore  *store.Store
		siteGate trigger.SiteGate
	)
	if cfg.Database.PostgresDSN != "" {
		ps, pgErr := store.New(cfg.Database.PostgresDSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if sErr := ps.EnsureSchema(context.Background()); sErr != nil {
				logger.Fatal("schema bootstrap failed", zap.Error(sErr))
			}
			pgStore = ps
			siteGate = ps.Gate(logger)
		}
	}

	// Trigger policy: persisted value wins over config defaults
	policy := cfg.Policy()
	if pgStore != nil {
		if saved, ok, pErr := pgStore.LoadPolicy(context.Background()); pErr != nil {
			logger.Warn("persisted policy unreadable", zap.Error(pErr))
		} else if ok {
			policy = saved
		}
	}

	var summarizer provider.Summarizer
	if cfg.Engine.Summarize {
		summarizer = provider.NewLLMSummarizer(router)
	}

	eng := engine.New(router, language.NewDetector(), summarizer, siteGate, policy, engine.Options{
		DefaultLanguage: cfg.Engine.DefaultLanguage,
		CacheCapacity:   cfg.Engine.CacheCapacity,
		LowConfidence:   cfg.Engine.LowConfidence,
	}, logger)

	// Shared cache tier + settings change notifications over Redis
	var notifier *store.Notifier
	if cfg.Database.RedisURL != "" {
		ttl := time.Duration(cfg.Engine.CacheTTLSeconds) * time.Second
		shared, cErr := cache.NewShared(cfg.Database.RedisURL, ttl, logger)
		if cErr != nil {
			logger.Warn("Redis unavailable, running without shared cache", zap.Error(cErr))
		} else {
			eng.SetShared(shared)
			defer shared.Close()
		}

		n, nErr := store.NewNotifier(cfg.Database.RedisURL, logger)
		if nErr != nil {
			logger.Warn("settings notifications unavailable", zap.Error(nErr))
		} else {
			notifier = n
			defer n.Close()
			watchCtx, watchCancel := context.WithCancel(context.Background())
			defer watchCancel()
			n.Watch(watchCtx, func(change store.SettingsChange) {
				if change.Policy != nil {
					eng.UpdatePolicy(*change.Policy)
				}
				if change.CacheCapacity > 0 {
					eng.SetCacheCapacity(change.CacheCapacity)
				}
			})
		}
	}

	handler := api.NewHandler(eng, pgStore, notifier, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	if pgStore != nil {
		pgStore.Close()
	}
}
