package main

import (
	"context"
	"database/sql"
	"delivery-eta-service/internal/adapters/cache"
	"delivery-eta-service/internal/adapters/repositories"
	"delivery-eta-service/internal/api"
	"delivery-eta-service/internal/api/handlers"
	"delivery-eta-service/internal/config"
	"delivery-eta-service/internal/platform/db"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"delivery-eta-service/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (SQL store, Redis cache) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	conn, dialect, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	// SQLite runs are local: initialize schema and seed demo shops on startup.
	// PostgreSQL is provisioned with cmd/dbtool.
	if dialect == repositories.DialectSQLite {
		if err := initAndSeed(conn, dialect, cfg.SeedPath); err != nil {
			return err
		}
	}

	store := repositories.NewSQLRuleStore(conn, dialect)

	var (
		snapshotCache ports.SnapshotCache
		invalidator   handlers.SnapshotInvalidator
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer rdb.Close()

		rc := cache.NewRedisSnapshotCache(rdb, cfg.SnapshotTTL)
		snapshotCache, invalidator = rc, rc
		logger.Info("snapshot cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.SnapshotTTL))
	}

	loader := services.NewSnapshotLoader(store, snapshotCache, logger)
	router := api.NewRouter(api.RouterOptions{
		Snapshots:       loader,
		Invalidator:     invalidator,
		Logger:          logger,
		StorefrontRPS:   cfg.StorefrontRPS,
		StorefrontBurst: cfg.StorefrontBurst,
		AllowedOrigins:  cfg.AllowedOrigins,
		CartConcurrency: cfg.CartConcurrency,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", dialect.String()))
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(cfg config.Config) (*sql.DB, repositories.Dialect, error) {
	if cfg.UsePostgres() {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, repositories.DialectPostgres, err
	}

	conn, err := db.OpenSQLite(cfg.DBPath)
	return conn, repositories.DialectSQLite, err
}

func initAndSeed(conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(conn, dialect, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
