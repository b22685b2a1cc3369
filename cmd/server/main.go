package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bulkbazaar/wholesaleapi/internal/api"
	"github.com/bulkbazaar/wholesaleapi/internal/cache"
	"github.com/bulkbazaar/wholesaleapi/internal/config"
	"github.com/bulkbazaar/wholesaleapi/internal/notify"
	"github.com/bulkbazaar/wholesaleapi/internal/repository/postgres"
	"github.com/bulkbazaar/wholesaleapi/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	// Pricing cache. A missing Redis degrades to uncached lookups rather
	// than blocking startup.
	var pricingCache cache.PricingCache
	redisCache := cache.NewRedisPricingCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Warn("Redis unavailable, pricing cache disabled", zap.Error(err))
		pricingCache = cache.NoopPricingCache{}
	} else {
		pricingCache = redisCache
		defer redisCache.Close()
	}
	cancelPing()

	charges, err := service.NewChargePolicy(cfg.Charges)
	if err != nil {
		logger.Fatal("Invalid charge configuration", zap.Error(err))
	}

	notifier := notify.NewWebhookClient(logger)

	router := api.NewRouter(cfg, repos, pricingCache, notifier, charges, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		zapCfg := zap.NewProductionConfig()
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, err
		}
		return zapCfg.Build()
	}
	return zap.NewDevelopment()
}
