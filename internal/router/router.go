package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/quota-sentry/internal/config"
	"github.com/iliyamo/quota-sentry/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/quota-sentry/internal/middleware" // import middleware for JWT authentication, rate limiting and caching
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check,
// which load balancers or monitoring systems can use to verify that the
// service is up and running.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterQuota wires the public quota and user endpoints under /v1.
// The token bucket throttles every public route; the response cache
// only covers the quota listing, which is the one endpoint worth
// caching (it is read-heavy and served from the active store).
func RegisterQuota(e *echo.Echo, q *handler.QuotaHandler, u *handler.UserHandler,
	rlCfg config.RateLimitConfig, cacheCfg config.CacheConfig, rdb *redis.Client) {

	g := e.Group("/v1")
	g.Use(middleware.NewTokenBucket(rlCfg, rdb))

	// Consuming quota is a PUT: the call mutates the user's counter (or
	// locks the record) and is deliberately not idempotent.
	g.PUT("/quota/consume/:id", q.Consume)
	g.GET("/quota", q.List, middleware.NewRedisCache(cacheCfg, rdb))

	// User CRUD, all served by the currently active store.
	g.POST("/users", u.Create)
	g.GET("/users/:id", u.Get)
	g.PUT("/users/:id", u.Update)
	g.DELETE("/users/:id", u.Delete)
}

// RegisterAdmin wires the admin login plus the JWT-protected
// administrative surface. Admin endpoints can wipe and re-seed both
// stores, dump their contents and trigger a sync run, so they all sit
// behind JWTAuth and the ADMIN role check.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, adm *handler.AdminHandler, jwtSecret string) {
	e.POST("/v1/auth/login", a.Login)

	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))
	g.DELETE("/data", adm.Wipe)
	g.PUT("/seed", adm.Seed)
	g.GET("/data", adm.Dump)
	g.GET("/data/:store", adm.DumpStore)
	g.POST("/sync", adm.SyncNow)
}
