// Package config loads runtime configuration from environment variables,
// with a .env file honored when present.
package config

import (
    "os"
    "path/filepath"
    "strconv"
    "time"

    "github.com/joho/godotenv"
)

// Config holds every runtime setting of the reservation server. All
// values have working defaults; nothing is mandatory, so a bare
// `go run ./cmd/server` starts a usable server on :9090.
type Config struct {
    Env     string // application environment (e.g. "dev", "prod")
    Addr    string // TCP listen address for the line protocol
    OpsAddr string // HTTP listen address for the ops sidecar; empty disables it
    DataDir string // directory holding the flat persistence files

    LogLevel string // zap level name: debug, info, warn, error

    RabbitURL string // AMQP broker URL; empty disables event publishing

    RedisAddr     string // redis address for connection rate limiting; empty disables it
    RedisPassword string
    RedisDB       int

    MaxConns  int             // hard cap on concurrently served connections
    RateLimit RateLimitConfig // per-IP token bucket settings
}

// RateLimitConfig tunes the per-IP connection token bucket. The limiter
// only engages when a redis client is configured.
type RateLimitConfig struct {
    Capacity       int           // bucket size, also the burst allowance
    RefillTokens   int           // tokens added per interval
    RefillInterval time.Duration // refill cadence
    TTL            time.Duration // idle bucket expiry in redis
    KeyPrefix      string        // redis key namespace
}

// UsersFile returns the path of the flat users file inside DataDir.
func (c Config) UsersFile() string { return filepath.Join(c.DataDir, "users.txt") }

// ReservationsFile returns the path of the flat reservations file.
func (c Config) ReservationsFile() string { return filepath.Join(c.DataDir, "reservations.txt") }

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when it exists; real environment
// variables win over it.
func Load() Config {
    _ = godotenv.Load()

    return Config{
        Env:           getEnv("APP_ENV", "dev"),
        Addr:          getEnv("APP_ADDR", ":9090"),
        OpsAddr:       getEnv("OPS_ADDR", ":8085"),
        DataDir:       getEnv("DATA_DIR", "./data"),
        LogLevel:      getEnv("LOG_LEVEL", "info"),
        RabbitURL:     os.Getenv("RABBITMQ_URL"),
        RedisAddr:     os.Getenv("REDIS_ADDR"),
        RedisPassword: os.Getenv("REDIS_PASSWORD"),
        RedisDB:       getEnvAsInt("REDIS_DB", 0),
        MaxConns:      getEnvAsInt("MAX_CONNS", 256),
        RateLimit: RateLimitConfig{
            Capacity:       getEnvAsInt("CONN_RATE_CAPACITY", 20),
            RefillTokens:   getEnvAsInt("CONN_RATE_REFILL_TOKENS", 5),
            RefillInterval: getEnvAsDuration("CONN_RATE_REFILL_INTERVAL", time.Second),
            TTL:            getEnvAsDuration("CONN_RATE_TTL", 10*time.Minute),
            KeyPrefix:      getEnv("CONN_RATE_KEY_PREFIX", "resv:connrate"),
        },
    }
}

// getEnv returns the variable's value or the fallback when unset or empty.
func getEnv(key, fallback string) string {
    if v, ok := os.LookupEnv(key); ok && v != "" {
        return v
    }
    return fallback
}

// getEnvAsInt is getEnv for integers; unparseable values fall back too.
func getEnvAsInt(key string, fallback int) int {
    v := os.Getenv(key)
    if v == "" {
        return fallback
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return fallback
    }
    return n
}

// getEnvAsDuration is getEnv for time.Duration values like "500ms" or "2s".
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" {
        return fallback
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        return fallback
    }
    return d
}
