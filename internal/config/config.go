package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string

	LedgerURL            string
	LedgerTimeoutSeconds int
	LedgerRetries        int
	LedgerRetryBackoffMS int
	LedgerPollIntervalMS int

	PolicyBundlePath string

	DefaultLatitude  float64
	DefaultLongitude float64

	VerifyCacheTTLSeconds int

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LedgerURL:              os.Getenv("LEDGER_URL"),
		LedgerTimeoutSeconds:   envIntDefault("LEDGER_TIMEOUT_SECONDS", 30),
		LedgerRetries:          envIntDefault("LEDGER_RETRIES", 2),
		LedgerRetryBackoffMS:   envIntDefault("LEDGER_RETRY_BACKOFF_MS", 250),
		LedgerPollIntervalMS:   envIntDefault("LEDGER_POLL_INTERVAL_MS", 500),
		PolicyBundlePath:       os.Getenv("POLICY_BUNDLE_PATH"),
		DefaultLatitude:        envFloatDefault("DEFAULT_LATITUDE", 0),
		DefaultLongitude:       envFloatDefault("DEFAULT_LONGITUDE", 0),
		VerifyCacheTTLSeconds:  envIntDefault("VERIFY_CACHE_TTL_SECONDS", 30),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
	}
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

func (c Config) LedgerTimeout() time.Duration {
	if c.LedgerTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LedgerTimeoutSeconds) * time.Second
}

func (c Config) LedgerRetryBackoff() time.Duration {
	if c.LedgerRetryBackoffMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.LedgerRetryBackoffMS) * time.Millisecond
}

func (c Config) LedgerPollInterval() time.Duration {
	if c.LedgerPollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.LedgerPollIntervalMS) * time.Millisecond
}

func (c Config) VerifyCacheTTL() time.Duration {
	if c.VerifyCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.VerifyCacheTTLSeconds) * time.Second
}
