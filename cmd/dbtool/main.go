package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/orsreshef/travel-route-planner/internal/config"
	"github.com/orsreshef/travel-route-planner/internal/platform/db"
	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
)

// dbtool creates the geocode cache schema ahead of the first server start,
// against Postgres when DATABASE_URL is set and the SQLite file otherwise.
func main() {
	hasDotEnv := config.LoadDotEnv()

	logger, err := obs.NewLogger(config.Get("LOG_LEVEL", "info"), config.Get("APP_ENV", "development"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if !hasDotEnv {
		logger.Info("no .env file found (using environment variables)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("initializing database schema...")
	conn, dialect, err := db.OpenFromEnv(ctx, config.Get("DATABASE_URL", ""), config.Get("DB_PATH", "data/app.db"))
	if err != nil {
		logger.Fatal("schema initialization failed", zap.Error(err))
	}
	defer conn.Close()

	logger.Info("schema ready", zap.String("dialect", string(dialect)))
}
