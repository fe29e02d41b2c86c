package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/conecta4/server/internal/domain"
)

type Config struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
	FrontendURL    string

	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int

	RedisURL      string
	RedisPassword string
	RedisEnabled  bool
	RoundCacheTTL time.Duration

	DefaultRows    int
	DefaultColumns int

	FinishedRoundRetention time.Duration
	CleanupInterval        time.Duration
}

func LoadConfig() (*Config, error) {
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:5173")

	// Frontend URL first, then whatever ALLOWED_ORIGINS adds
	allowedOrigins := []string{frontendURL}
	for _, origin := range strings.Split(GetEnv("ALLOWED_ORIGINS", ""), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" && trimmed != frontendURL {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}

	cfg := &Config{
		Port:           GetEnv("PORT", "8080"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		AllowedOrigins: allowedOrigins,
		FrontendURL:    frontendURL,

		DatabaseURL:          GetEnv("DATABASE_URL", ""),
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),

		RedisURL:      GetEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisEnabled:  GetEnvAsBool("REDIS_ENABLED", true),
		RoundCacheTTL: GetEnvAsMinutes("ROUND_CACHE_TTL_MINUTES", 60),

		DefaultRows:    GetEnvAsInt("DEFAULT_ROWS", 6),
		DefaultColumns: GetEnvAsInt("DEFAULT_COLUMNS", 7),

		FinishedRoundRetention: GetEnvAsMinutes("FINISHED_ROUND_RETENTION_MINUTES", 60),
		CleanupInterval:        GetEnvAsMinutes("CLEANUP_INTERVAL_MINUTES", 10),
	}

	if err := domain.ValidateDimensions(cfg.DefaultRows, cfg.DefaultColumns); err != nil {
		return nil, fmt.Errorf("DEFAULT_ROWS/DEFAULT_COLUMNS: %w", err)
	}
	if cfg.CleanupInterval <= 0 {
		return nil, fmt.Errorf("CLEANUP_INTERVAL_MINUTES must be positive")
	}

	return cfg, nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("component", "config").Str("key", key).Str("value", valueStr).
			Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("component", "config").Str("key", key).Str("value", valueStr).
			Bool("default", defaultValue).Msg("invalid boolean, using default")
		return defaultValue
	}
	return value
}

func GetEnvAsMinutes(key string, defaultMinutes int) time.Duration {
	return time.Duration(GetEnvAsInt(key, defaultMinutes)) * time.Minute
}
