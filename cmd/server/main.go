package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orsreshef/travel-route-planner/internal/adapters/cache"
	"github.com/orsreshef/travel-route-planner/internal/adapters/countries"
	"github.com/orsreshef/travel-route-planner/internal/adapters/ratelimit"
	"github.com/orsreshef/travel-route-planner/internal/adapters/repositories"
	"github.com/orsreshef/travel-route-planner/internal/adapters/routing"
	"github.com/orsreshef/travel-route-planner/internal/api"
	"github.com/orsreshef/travel-route-planner/internal/config"
	"github.com/orsreshef/travel-route-planner/internal/platform/db"
	"github.com/orsreshef/travel-route-planner/internal/platform/metrics"
	"github.com/orsreshef/travel-route-planner/internal/platform/obs"
	"github.com/orsreshef/travel-route-planner/internal/ports"
	"github.com/orsreshef/travel-route-planner/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (database, Redis, openrouteservice) behind ports and starts the HTTP server.
func main() {
	hasDotEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if !hasDotEnv {
		logger.Info("no .env file found (using environment variables)")
	}

	ctx := context.Background()

	conn, dialect, err := db.OpenFromEnv(ctx, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	limiter, closeLimiter := rateLimiter(cfg, logger)
	defer closeLimiter()

	// Geocoding shares the limiter with directions; both spend the same API key.
	ors, err := routing.NewORSClient(cfg.ORSAPIKey,
		routing.WithBaseURL(cfg.ORSBaseURL),
		routing.WithLimiter(limiter),
	)
	if err != nil {
		logger.Fatal("create routing client", zap.Error(err))
	}

	// Geocoding goes through a persistent cache; start locations repeat a lot.
	geocoder := cache.NewCachedGeocoder(ors, geocodeCache(conn, dialect), logger)
	capitals := countries.NewClient(cfg.CountriesBaseURL)

	recorder := metrics.New()
	controller := services.NewController(ors, limiter,
		services.WithLogger(logger),
		services.WithRecorder(recorder),
	)
	planner := services.NewPlanner(geocoder, capitals, controller, cfg.Planner, logger)

	router := api.NewRouter(planner, recorder.Handler(), logger)

	// Each plan may take several sequential provider calls, so the write
	// timeout must outlast the request timeout.
	logger.Info("server listening",
		zap.String("addr", ":"+cfg.Port),
		zap.String("db", string(dialect)),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withTimeout(router, cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func geocodeCache(conn *sql.DB, dialect repositories.Dialect) ports.GeocodeCache {
	if dialect == repositories.DialectPostgres {
		return cache.NewSQLGeocodeCache(conn)
	}
	return cache.NewSqliteGeocodeCache(conn)
}

// rateLimiter shares the provider quota through Redis when REDIS_URL is set,
// so several replicas stay under one API key's limit.
func rateLimiter(cfg config.Config, logger *zap.Logger) (ports.RateLimiter, func()) {
	if cfg.RedisURL == "" {
		return ratelimit.NewLocalLimiter(cfg.ORSRequestsPerMinute, 1), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("parse REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opts)
	logger.Info("using shared rate limiter", zap.String("redis", opts.Addr))
	return ratelimit.NewRedisLimiter(client, cfg.ORSRequestsPerMinute, time.Minute, logger), func() { _ = client.Close() }
}

// withTimeout bounds every request. The planner observes the deadline and
// reports it as a cancelled search.
func withTimeout(next http.Handler, d time.Duration) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
