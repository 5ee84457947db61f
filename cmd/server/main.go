package main // Entry point package

import (
	"context" // Context for the background sync scheduler
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/quota-sentry/internal/config"     // Internal config loader
	"github.com/iliyamo/quota-sentry/internal/database"   // MySQL connection and schema bootstrap
	"github.com/iliyamo/quota-sentry/internal/handler"    // HTTP handlers
	"github.com/iliyamo/quota-sentry/internal/queue"      // RabbitMQ consumer for lock events
	"github.com/iliyamo/quota-sentry/internal/repository" // User stores
	"github.com/iliyamo/quota-sentry/internal/router"     // Internal router setup
	"github.com/iliyamo/quota-sentry/internal/service"    // Quota, sync and admin services
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment variables win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	// The two interchangeable stores: MySQL is primary, the in-memory
	// document store is secondary. The hour-window router decides which
	// one serves live traffic at any given instant.
	stores := service.StoreSet{
		Primary:   repository.NewUserMySQLRepo(db),
		Secondary: repository.NewUserMemoryRepo(),
	}
	storeRouter := service.NewStoreRouter(cfg.StartHour, cfg.EndHour)

	quotaSvc := service.NewQuotaService(cfg.MaxRequests, storeRouter, stores)
	syncSvc := service.NewSyncService(storeRouter, stores, cfg.SyncInitialDelay, cfg.SyncInterval)
	adminSvc := service.NewAdminService(stores, repository.NewInitialDataRepo(db))

	// Redis is optional: without it the rate limiter and the response
	// cache disable themselves and requests pass straight through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and response caching disabled")
	}

	// Background workers: the reconciliation scheduler and the consumer
	// that turns quota.locked events into an audit log.
	go syncSvc.Run(context.Background())
	go func() {
		if err := queue.StartLockedConsumer(); err != nil {
			log.Printf("locked-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterQuota(e, handler.NewQuotaHandler(quotaSvc), handler.NewUserHandler(quotaSvc),
		config.LoadRateLimitConfig(), config.LoadCacheConfig(), rdb)
	router.RegisterAdmin(e, handler.NewAuthHandler(cfg), handler.NewAdminHandler(adminSvc, syncSvc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
