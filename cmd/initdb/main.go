package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hostel/api/internal/config"
	"hostel/api/internal/crypto"
	"hostel/api/internal/db"
	"hostel/api/internal/logging"
	"hostel/api/internal/repository"
)

// initdb applies the schema and seeds the default admin account.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, "hostel-initdb")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}
	logger.Info("schema applied")

	email := getenv("SEED_ADMIN_EMAIL", "admin@hostel.com")
	password := getenv("SEED_ADMIN_PASSWORD", "admin123")
	hash, err := crypto.HashPassword(password)
	if err != nil {
		logger.Fatal("password hash failed", zap.Error(err))
	}

	store := repository.NewStore(pool)
	id, err := store.CreateAdmin(ctx, "Administrator", email, hash)
	switch {
	case repository.IsUniqueViolation(err):
		logger.Info("admin already exists", zap.String("email", email))
	case err != nil:
		logger.Fatal("seed admin failed", zap.Error(err))
	default:
		logger.Info("admin seeded", zap.Int64("admin_id", id), zap.String("email", email))
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
