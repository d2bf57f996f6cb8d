package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Data source selection for the resource adapters.
const (
	DataSourceLive    = "live"
	DataSourceFixture = "fixture"
)

// BackendConfig holds the hosted backend connection settings.
type BackendConfig struct {
	URL          string
	APIKey       string
	Timeout      time.Duration
	SignedURLTTL time.Duration
}

// DataConfig selects between the live backend and canned fixture data.
type DataConfig struct {
	Source       string
	FixtureDelay time.Duration
}

// RolesConfig carries the deployment's permitted role lists. Empty means
// the default sets apply; invitations historically accept a broader set
// than memberships.
type RolesConfig struct {
	Invite []string
	Member []string
}

// ServerConfig holds the stub server settings.
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds session-token signing configuration (used by the stub).
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Prefix string
}

// Config holds all configuration.
type Config struct {
	ServiceName string
	Backend     BackendConfig
	Data        DataConfig
	Roles       RolesConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Load loads configuration from a .env file and environment variables.
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		Backend: BackendConfig{
			URL:          getEnv("BACKEND_URL", "http://localhost:8090"),
			APIKey:       getEnv("BACKEND_API_KEY", ""),
			Timeout:      getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
			SignedURLTTL: getEnvAsDuration("SIGNED_URL_TTL", 24*time.Hour),
		},
		Data: DataConfig{
			Source:       getEnv("DATA_SOURCE", DataSourceLive),
			FixtureDelay: getEnvAsDuration("FIXTURE_DELAY", 200*time.Millisecond),
		},
		Roles: RolesConfig{
			Invite: getEnvAsList("INVITE_ROLES"),
			Member: getEnvAsList("MEMBER_ROLES"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8090"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
	}

	if config.Data.Source != DataSourceLive && config.Data.Source != DataSourceFixture {
		return nil, fmt.Errorf("invalid DATA_SOURCE %q: must be %q or %q",
			config.Data.Source, DataSourceLive, DataSourceFixture)
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("backend_url", c.Backend.URL),
		zap.String("data_source", c.Data.Source),
		zap.String("server_port", c.Server.Port),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as comma-separated lists
func getEnvAsList(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
