// Package config loads server settings from flags, falling back to the
// environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	HTTPAddr string
	Store    string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	LockBackend string
	RedisAddr   string

	JWTSecret        string
	GoogleClientID   string
	LoginRedirectURL string
	CookieDomain     string
	CookieSameSite   http.SameSite

	VoteRateLimit float64
	VoteRateBurst int

	LogLevel slog.Level
}

// Load reads a .env file when present, then parses args with defaults taken
// from the environment.
func Load(args []string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return Parse(args, os.Getenv)
}

// loadDotEnv tolerates a missing file but not a malformed one.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func Parse(args []string, getenv func(string) string) (Config, error) {
	var cfg Config
	var sameSite, logLevel, rateLimit, rateBurst string

	fs := flag.NewFlagSet("timedpoll", flag.ContinueOnError)
	fs.StringVar(&cfg.HTTPAddr, "addr", envOr(getenv, "HTTP_ADDR", "0.0.0.0:8080"), "HTTP listen address")
	fs.StringVar(&cfg.Store, "store", envOr(getenv, "STORE", StorePostgres), "Storage backend (postgres or memory)")
	fs.StringVar(&cfg.DBHost, "db-host", getenv("POSTGRES_HOST"), "Database host")
	fs.StringVar(&cfg.DBPort, "db-port", envOr(getenv, "POSTGRES_PORT", "5432"), "Database port")
	fs.StringVar(&cfg.DBUser, "db-user", getenv("POSTGRES_USER"), "Database user")
	fs.StringVar(&cfg.DBPass, "db-pass", getenv("POSTGRES_PASSWORD"), "Database password")
	fs.StringVar(&cfg.DBName, "db-name", getenv("POSTGRES_DB"), "Database name")
	fs.StringVar(&cfg.LockBackend, "lock", envOr(getenv, "LOCK_BACKEND", LockLocal), "Vote lock backend (local or redis)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", getenv("REDIS_ADDR"), "Redis address for the redis lock backend")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", getenv("JWT_SECRET"), "Secret for signing access tokens (prefer env)")
	fs.StringVar(&cfg.GoogleClientID, "google-client-id", getenv("GOOGLE_CLIENT_ID"), "Google OAuth client id")
	fs.StringVar(&cfg.LoginRedirectURL, "login-redirect", envOr(getenv, "LOGIN_REDIRECT_URL", "/"), "Redirect after login")
	fs.StringVar(&cfg.CookieDomain, "cookie-domain", getenv("COOKIE_DOMAIN"), "Domain of auth cookies")
	fs.StringVar(&sameSite, "cookie-samesite", envOr(getenv, "COOKIE_SAMESITE", "lax"), "SameSite of auth cookies (lax, strict, none)")
	fs.StringVar(&rateLimit, "vote-rate", envOr(getenv, "VOTE_RATE_LIMIT", "5"), "Vote requests per second per user")
	fs.StringVar(&rateBurst, "vote-burst", envOr(getenv, "VOTE_RATE_BURST", "10"), "Vote request burst per user")
	fs.StringVar(&logLevel, "log-level", envOr(getenv, "LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.CookieSameSite, err = parseSameSite(sameSite); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", logLevel)
	}
	if cfg.VoteRateLimit, err = strconv.ParseFloat(rateLimit, 64); err != nil || cfg.VoteRateLimit <= 0 {
		return Config{}, fmt.Errorf("invalid vote rate limit %q", rateLimit)
	}
	if cfg.VoteRateBurst, err = strconv.Atoi(rateBurst); err != nil || cfg.VoteRateBurst < 1 {
		return Config{}, fmt.Errorf("invalid vote rate burst %q", rateBurst)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt secret required (use -jwt-secret or JWT_SECRET env)")
	}

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("postgres store requires POSTGRES_HOST, POSTGRES_USER and POSTGRES_DB")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.LockBackend {
	case LockLocal:
	case LockRedis:
		if c.RedisAddr == "" {
			return errors.New("redis lock backend requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.LockBackend)
	}

	return nil
}

// DatabaseURL builds the lib/pq connection string.
func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid cookie samesite %q", s)
	}
}
