package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the sync scheduling durations
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for the
// quota ceiling and the router's hour window, durations for the sync
// schedule.
type Config struct {
	Env               string        // application environment (e.g. "dev", "prod")
	Port              string        // HTTP port to listen on
	DBUser            string        // database username
	DBPass            string        // database password (optional)
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name
	JWTSecret         string        // secret used to sign admin JWTs
	AdminPasswordHash string        // bcrypt hash of the admin password
	AccessTTLMin      int           // admin access token time-to-live in minutes
	MaxRequests       int           // quota ceiling before a user is locked
	StartHour         int           // first UTC hour (inclusive) the primary store is active
	EndHour           int           // first UTC hour (exclusive) after the primary window
	SyncInitialDelay  time.Duration // delay before the first sync run
	SyncInterval      time.Duration // fixed period between sync runs
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
//
// MY_SQL_DB_START_HOUR and MY_SQL_DB_END_HOUR form a half-open
// [start, end) window of UTC hours. An inverted window is accepted:
// the primary store then simply never becomes active, which mirrors
// what the routing rule does with it, but it is worth a warning since
// it is usually a misconfiguration.
func Load() Config {
	cfg := Config{
		Env:               must("APP_ENV"),              // environment (dev/test/prod)
		Port:              must("APP_PORT"),             // port to bind the HTTP server
		DBUser:            must("DB_USER"),              // database user
		DBPass:            os.Getenv("DB_PASS"),         // database password (empty allowed)
		DBHost:            must("DB_HOST"),              // database host
		DBPort:            must("DB_PORT"),              // database port
		DBName:            must("DB_NAME"),              // database name
		JWTSecret:         must("JWT_SECRET"),           // secret used for signing admin JWTs
		AdminPasswordHash: must("ADMIN_PASSWORD_HASH"),  // bcrypt hash checked on admin login
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
		MaxRequests:       mustInt("MAX_ALLOWED_REQUESTS"),
		StartHour:         mustInt("MY_SQL_DB_START_HOUR"),
		EndHour:           mustInt("MY_SQL_DB_END_HOUR"),
		SyncInitialDelay:  envDur("SYNC_INITIAL_DELAY", time.Minute),
		SyncInterval:      envDur("SYNC_INTERVAL", 10*time.Minute),
	}
	if cfg.MaxRequests < 1 {
		log.Fatalf("MAX_ALLOWED_REQUESTS must be positive, got %d", cfg.MaxRequests)
	}
	if cfg.StartHour < 0 || cfg.StartHour > 23 || cfg.EndHour < 0 || cfg.EndHour > 23 {
		log.Fatalf("MY_SQL_DB_START_HOUR/MY_SQL_DB_END_HOUR must be within 0-23, got %d and %d",
			cfg.StartHour, cfg.EndHour)
	}
	if cfg.StartHour >= cfg.EndHour {
		log.Printf("warning: MY_SQL_DB_START_HOUR %d >= MY_SQL_DB_END_HOUR %d, the secondary store will always be active",
			cfg.StartHour, cfg.EndHour)
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// Helper functions shared with ratelimit.go and cache.go.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
