package main

import (
	"database/sql"
	"delivery-eta-service/internal/adapters/repositories"
	"delivery-eta-service/internal/config"
	"delivery-eta-service/internal/platform/db"
	"delivery-eta-service/internal/platform/obs"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbtool provisions the PostgreSQL rule store: schema plus seed shops.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	logger, err := obs.NewLogger(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/shops.json")
	if err := initAndSeed(conn, seedPath, logger); err != nil {
		logger.Fatal("init and seed", zap.Error(err))
	}
}

func initAndSeed(conn *sql.DB, seedPath string, logger *zap.Logger) error {
	logger.Info("initializing database schema")
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	logger.Info("schema ready")

	logger.Info("seeding database", zap.String("seed_path", seedPath))
	if err := repositories.SeedFromJSON(conn, repositories.DialectPostgres, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	logger.Info("seeding complete")

	return nil
}
