package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port int
	Env  string

	// DevTrainerHeader accepts X-Trainer-Id in place of a bearer token.
	// Only honored while Auth0 is not configured.
	DevTrainerHeader bool

	// CORS
	AllowedOrigins []string

	// Extraction backend
	BackendHost          string
	BackendWebsocketHost string
	BackendTimeout       time.Duration

	// Auth0
	Auth0Domain      string
	Auth0ClientID    string
	Auth0CallbackURL string

	// Optional stores. Empty means in-memory.
	RedisURL    string
	PostgresURL string

	// Object storage holding unlabeled sprite captures
	GCSBucket     string
	SignedURLTTL  time.Duration
	SpriteBaseURL string

	CacheTTL        time.Duration
	DefaultPageSize int

	// Extraction worker pool
	WorkerCount int
	QueueSize   int

	missing []string
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists. Backend and auth settings are required, but their
// absence is reported through Missing rather than failing startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "production"),

		DevTrainerHeader: getEnvBool("AUTH_DEV_HEADER", false),

		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		RedisURL:    getEnv("REDIS_URL", ""),
		PostgresURL: getEnv("POSTGRES_URL", ""),

		GCSBucket:     getEnv("GCS_BUCKET", "poke_battle_logger_templates"),
		SignedURLTTL:  getEnvDuration("SIGNED_URL_TTL", time.Hour),
		SpriteBaseURL: getEnv("SPRITE_BASE_URL", "https://img.pokemondb.net/sprites/scarlet-violet/normal"),

		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 6),

		WorkerCount: getEnvInt("WORKER_COUNT", 2),
		QueueSize:   getEnvInt("QUEUE_SIZE", 64),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.BackendHost = strings.TrimRight(cfg.required("BACKEND_HOST"), "/")
	cfg.BackendWebsocketHost = strings.TrimRight(cfg.required("BACKEND_WEBSOCKET_HOST"), "/")
	cfg.Auth0Domain = cfg.required("AUTH0_DOMAIN")
	cfg.Auth0ClientID = cfg.required("AUTH0_CLIENT_ID")
	cfg.Auth0CallbackURL = cfg.required("AUTH0_CALLBACK_URL")

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 6
	}

	return cfg, nil
}

// Missing lists required variables that were not set.
func (c *Config) Missing() []string {
	return c.missing
}

// IsDevelopment selects development logging.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) required(key string) string {
	value := os.Getenv(key)
	if value == "" {
		c.missing = append(c.missing, key)
	}
	return value
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
