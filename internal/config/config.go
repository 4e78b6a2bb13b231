package config

import (
    "log"
    "os"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable; required values are enforced by must() at startup.
type Config struct {
    Env           string // application environment (e.g. "dev", "prod")
    Port          string // HTTP port to listen on
    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    JWTSecret     string // secret used to verify access tokens
    VAPIDPublic   string // VAPID public key for Web Push
    VAPIDPrivate  string // VAPID private key for Web Push
    VAPIDSubject  string // VAPID subject (mailto: or https: URL)
    PushTTLSec    int    // push message TTL handed to the push service, in seconds
    PushTimeoutMS int    // per-delivery timeout for push sends, in milliseconds
}

// Load reads configuration from environment variables. Missing required
// variables cause the process to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        DBUser:        must("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"), // empty allowed
        DBHost:        must("DB_HOST"),
        DBPort:        must("DB_PORT"),
        DBName:        must("DB_NAME"),
        JWTSecret:     must("JWT_SECRET"),
        VAPIDPublic:   os.Getenv("VAPID_PUBLIC_KEY"),
        VAPIDPrivate:  os.Getenv("VAPID_PRIVATE_KEY"),
        VAPIDSubject:  envStr("VAPID_SUBJECT", "mailto:ops@courtside.example"),
        PushTTLSec:    envInt("PUSH_TTL_SECONDS", 3600),
        PushTimeoutMS: envInt("PUSH_TIMEOUT_MS", 5000),
    }
}

// must retrieves a required environment variable or exits the process.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
