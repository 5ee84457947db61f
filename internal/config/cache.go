package config

import (
	"time"
)

// CacheConfig defines settings for the quota listing response cache.
// When Enabled is false or no Redis client is configured, caching will
// be disabled. TTL defines the lifetime of cache entries; it should
// stay short since the listing is served from whichever store is
// currently active and the staleness window adds up with the sync
// period. MaxBodyBytes caps the size of responses worth caching.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getenv("CACHE_ENABLED", "true") == "true",
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}
