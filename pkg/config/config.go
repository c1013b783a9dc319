package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StoreDriver selects where post aggregates and users live.
type StoreDriver string

const (
	StoreMongo  StoreDriver = "mongo"
	StoreMemory StoreDriver = "memory"
)

// devJWTSecret signs tokens when JWT_SECRET is unset. It is refused in production.
const devJWTSecret = "supersecretjwtkey"

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:80",
	"http://localhost",
	"http://frontend-container",
}

type Config struct {
	Port                    string
	Env                     string
	StoreDriver             StoreDriver
	MongoURI                string
	MongoDatabase           string
	PostgresURL             string
	JWTSecret               string
	JWTExpiry               time.Duration
	FirebaseCredentialsPath string
	AllowedOrigins          []string
	RateLimitRPS            float64
	RateLimitBurst          int
	MutationMaxAttempts     int
	LogLevel                slog.Level
}

// Load reads the configuration from the environment, loading a .env file first if one exists.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		StoreDriver:             StoreDriver(strings.ToLower(getEnv("STORE_DRIVER", string(StoreMongo)))),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "board-service"),
		PostgresURL:             getEnv("POSTGRES_CONN_STR", ""),
		JWTSecret:               getEnv("JWT_SECRET", devJWTSecret),
		JWTExpiry:               getDuration("JWT_EXPIRY", 72*time.Hour),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		AllowedOrigins:          getList("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		RateLimitRPS:            getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:          getInt("RATE_LIMIT_BURST", 20),
		MutationMaxAttempts:     getInt("MUTATION_MAX_ATTEMPTS", 5),
		LogLevel:                getLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only acceptable in development.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getLevel(key string, defaultValue slog.Level) slog.Level {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return defaultValue
	}
	return level
}
