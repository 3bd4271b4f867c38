package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreBadger = "badger"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for the HTTP API

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Persistence
	StoreBackend string // "badger" | "redis" | "memory"
	BadgerDir    string // data directory for the embedded store

	// Redis (only read when StoreBackend == "redis")
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Catalog
	CatalogBaseURL      string        // TMDB-compatible API root
	CatalogImageBase    string        // poster URL prefix returned to clients
	CatalogToken        string        // optional bearer seed, stored on first start
	CatalogTimeout      time.Duration // per-call HTTP timeout
	CatalogRatePerSec   float64       // outbound requests per second
	CatalogBurst        int           // outbound burst
	BreakerFailureRatio float64       // trip when failures/requests >= ratio
	BreakerMinRequests  int           // minimum requests in the window before tripping
	BreakerOpenTimeout  time.Duration // open -> half-open delay

	// Swipe queue
	QueuePages         int           // concurrent discover pages per refill
	QueueMaxPage       int           // highest random page
	QueueMinVoteCount  int           // vote_count.gte filter
	QueueCap           int           // survivors kept per refill
	QueueLowWatermark  int           // background refill below this
	QueueRefillTimeout time.Duration // hard limit for one refill batch

	// Recommendations
	RecMinFlips int // gating threshold
	RecPages    int // concurrent discover pages per refresh
	RecMaxPage  int // highest random page
	RecLimit    int // ranked items returned
	RecTopK     int // genres used to narrow the query

	IntentFile string // optional category->keyword YAML override

	GenreReloadInterval time.Duration // periodic genre taxonomy reload
	WarmInterval        time.Duration // idle queue top-up interval

	// Access restrictions
	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict access to metrics/reload endpoints
	TrustProxy     bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins    []string // allowed browser origins
	APIRateLimit   int      // requests per IP per APIRateWindow
	APIRateWindow  time.Duration
	MetricsEnabled bool
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MOVIEFLIP_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MOVIEFLIP_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("MOVIEFLIP_REQUEST_TIMEOUT", 20*time.Second),

		// Logging
		LogLevel:  getenv("MOVIEFLIP_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MOVIEFLIP_PRETTY_LOG", true),

		// Persistence
		StoreBackend: strings.ToLower(getenv("MOVIEFLIP_STORE", StoreBadger)),
		BadgerDir:    getenv("MOVIEFLIP_BADGER_DIR", "/app/data"),

		// Catalog
		CatalogBaseURL:      getenv("MOVIEFLIP_TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		CatalogImageBase:    getenv("MOVIEFLIP_TMDB_IMAGE_BASE", "https://image.tmdb.org/t/p/w500"),
		CatalogToken:        getenv("MOVIEFLIP_TMDB_TOKEN", ""),
		CatalogTimeout:      mustDuration("MOVIEFLIP_TMDB_TIMEOUT", 8*time.Second),
		CatalogRatePerSec:   mustFloat("MOVIEFLIP_TMDB_RATE", 20),
		CatalogBurst:        getenvInt("MOVIEFLIP_TMDB_BURST", 10),
		BreakerFailureRatio: mustFloat("MOVIEFLIP_BREAKER_FAILURE_RATIO", 0.6),
		BreakerMinRequests:  getenvInt("MOVIEFLIP_BREAKER_MIN_REQUESTS", 10),
		BreakerOpenTimeout:  mustDuration("MOVIEFLIP_BREAKER_OPEN_TIMEOUT", 30*time.Second),

		// Swipe queue
		QueuePages:         getenvInt("MOVIEFLIP_QUEUE_PAGES", 3),
		QueueMaxPage:       getenvInt("MOVIEFLIP_QUEUE_MAX_PAGE", 60),
		QueueMinVoteCount:  getenvInt("MOVIEFLIP_QUEUE_MIN_VOTES", 80),
		QueueCap:           getenvInt("MOVIEFLIP_QUEUE_CAP", 30),
		QueueLowWatermark:  getenvInt("MOVIEFLIP_QUEUE_LOW_WATERMARK", 8),
		QueueRefillTimeout: mustDuration("MOVIEFLIP_QUEUE_REFILL_TIMEOUT", 15*time.Second),

		// Recommendations
		RecMinFlips: getenvInt("MOVIEFLIP_REC_MIN_FLIPS", 10),
		RecPages:    getenvInt("MOVIEFLIP_REC_PAGES", 2),
		RecMaxPage:  getenvInt("MOVIEFLIP_REC_MAX_PAGE", 70),
		RecLimit:    getenvInt("MOVIEFLIP_REC_LIMIT", 12),
		RecTopK:     getenvInt("MOVIEFLIP_REC_TOP_GENRES", 3),

		IntentFile: getenv("MOVIEFLIP_INTENT_FILE", ""),

		GenreReloadInterval: mustDuration("MOVIEFLIP_GENRE_RELOAD_INTERVAL", 24*time.Hour),
		WarmInterval:        mustDuration("MOVIEFLIP_WARM_INTERVAL", time.Minute),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("MOVIEFLIP_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("MOVIEFLIP_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("MOVIEFLIP_TRUST_PROXY", false),
		CORSOrigins:    splitAndTrim(getenv("MOVIEFLIP_CORS_ORIGINS", "*")),
		APIRateLimit:   getenvInt("MOVIEFLIP_API_RATE_LIMIT", 120),
		APIRateWindow:  mustDuration("MOVIEFLIP_API_RATE_WINDOW", time.Minute),
		MetricsEnabled: mustBool("MOVIEFLIP_METRICS", true),
	}

	switch cfg.StoreBackend {
	case StoreBadger, StoreMemory:
	case StoreRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: unknown MOVIEFLIP_STORE %q (want badger, redis or memory)", cfg.StoreBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.CatalogToken != "" {
			cfgCopy.CatalogToken = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("MOVIEFLIP_REDIS_ADDR")
	cfg.RedisUser = getenv("MOVIEFLIP_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("MOVIEFLIP_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("MOVIEFLIP_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("MOVIEFLIP_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MOVIEFLIP_REDIS_PASSWORD is required when MOVIEFLIP_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
