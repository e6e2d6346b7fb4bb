package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Engine    EngineConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// EngineConfig holds ranking engine tuning parameters.
// Changing the experiment-facing parameters here does not affect variant
// assignment; bucketing is a frozen hash (see services.AssignVariant).
type EngineConfig struct {
	// SignalReadTimeoutMs bounds every read against the aggregate store.
	// On timeout the affected signal falls back to its neutral default.
	SignalReadTimeoutMs int

	// PreferenceWindowDays is the interaction lookback window for
	// per-user tag preferences.
	PreferenceWindowDays int

	// QualityCacheTTLSeconds is how long per-tag quality snapshots are
	// kept in Redis before recomputation.
	QualityCacheTTLSeconds int

	// MaxScoringConcurrency bounds the per-request scoring fan-out.
	MaxScoringConcurrency int

	// SynonymsPath optionally points to a JSON file that extends the
	// compiled-in synonym table.
	SynonymsPath string

	// RankingExperimentID gates which ranking formula a user sees.
	RankingExperimentID string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "ranking_engine"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", ""),
			APIKey: getEnv("TYPESENSE_API_KEY", ""),
		},
		Engine: EngineConfig{
			SignalReadTimeoutMs:    getEnvAsInt("ENGINE_SIGNAL_READ_TIMEOUT_MS", 500),
			PreferenceWindowDays:   getEnvAsInt("ENGINE_PREFERENCE_WINDOW_DAYS", 30),
			QualityCacheTTLSeconds: getEnvAsInt("ENGINE_QUALITY_CACHE_TTL_SECONDS", 300),
			MaxScoringConcurrency:  getEnvAsInt("ENGINE_MAX_SCORING_CONCURRENCY", 8),
			SynonymsPath:           getEnv("ENGINE_SYNONYMS_PATH", ""),
			RankingExperimentID:    getEnv("ENGINE_RANKING_EXPERIMENT_ID", "ranking_formula_v1"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "ranking-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
