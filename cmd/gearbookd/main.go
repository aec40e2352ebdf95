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

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"equipment-booking-backend/config"
	"equipment-booking-backend/internal/api"
	"equipment-booking-backend/internal/db"
	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/logging"
	"equipment-booking-backend/internal/metrics"
	"equipment-booking-backend/internal/mw"
	"equipment-booking-backend/internal/persist"
	"equipment-booking-backend/internal/store"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath), zap.String("storage", cfg.Storage.Driver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}

	m := metrics.New()

	var writer *persist.Writer
	if cfg.Persistence.Async {
		writer = persist.NewWriter(backend, cfg.Persistence.QueueSize, logger)
		writer.OnError(func(key string, err error) {
			m.ObservePersistError(key, err)
		})
		writer.Start()
		backend = writer
		logger.Info("write-behind persistence enabled", zap.Int("queue_size", cfg.Persistence.QueueSize))
	}

	inv, err := inventory.New(ctx, backend, logger, inventory.Options{
		OrphanPolicy:       inventory.OrphanPolicy(cfg.Inventory.OrphanPolicy),
		MaxDepth:           cfg.Inventory.MaxDepth,
		AllowDoubleBooking: cfg.Inventory.AllowDoubleBooking,
		OnPersistError:     m.ObservePersistError,
	})
	if err != nil {
		logger.Fatal("failed to load inventory", zap.Error(err))
	}
	if err := m.WatchInventory(inv); err != nil {
		logger.Fatal("failed to register inventory metrics", zap.Error(err))
	}

	// Clients idle for ten minutes lose their limiter; stops with ctx.
	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go limiter.PruneEvery(ctx, time.Minute, 10*time.Minute)

	handler := api.NewHandler(inv, m, logger, int64(cfg.Server.MaxUploadMB)<<20)
	router := api.NewRouter(handler, api.RouterConfig{
		CacheTTL: time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		Limiter:  limiter,
		Metrics:  m.Handler(),
	}, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
	}
	if writer != nil {
		if err := writer.Close(shutdownCtx); err != nil {
			logger.Error("pending writes were not flushed", zap.Error(err))
		}
	}

	logger.Info("server gracefully stopped")
}

// openStore builds the persistence backend named by storage.driver.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Storage.Driver {
	case store.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		return store.NewMemoryStore(nil), nil
	case store.DriverSQLite, store.DriverPostgres:
		gormDB, err := db.Init(cfg.Storage.Driver, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(gormDB), nil
	case store.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store.NewRedisStore(client, cfg.Storage.Redis.Prefix), nil
	case store.DriverS3:
		return store.NewS3Store(ctx, store.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			PathStyle: cfg.Storage.S3.PathStyle,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
