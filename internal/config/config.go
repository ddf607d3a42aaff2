package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Chat       ChatConfig
	OpenAI     OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// ChatConfig holds conversation flow configuration
type ChatConfig struct {
	// RevealThreshold is the match count at or below which listings are
	// attached to a turn response without an explicit request.
	RevealThreshold int
	// MaxReveal caps how many listings a single response attaches.
	MaxReveal int
	// DetailContextLimit is the match count below which per-listing detail
	// is embedded in the responder prompt.
	DetailContextLimit int
	// SessionTTL is how long an idle session survives before cleanup.
	SessionTTL time.Duration
	// SnapshotLimit caps the listings snapshot size fetched per session.
	SnapshotLimit int
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey         string
	APIBase        string
	ExtractorModel string // model for preference extraction
	ResponderModel string // model for conversational replies
	ExtractorTemp  float64
	ResponderTemp  float64
	ChatMaxTokens  int
	Timeout        int
	Enabled        bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "dash"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Chat: ChatConfig{
			RevealThreshold:    getEnvAsInt("CHAT_REVEAL_THRESHOLD", 5),
			MaxReveal:          getEnvAsInt("CHAT_MAX_REVEAL", 5),
			DetailContextLimit: getEnvAsInt("CHAT_DETAIL_CONTEXT_LIMIT", 15),
			SessionTTL:         time.Duration(getEnvAsInt("CHAT_SESSION_TTL_MINUTES", 120)) * time.Minute,
			SnapshotLimit:      getEnvAsInt("CHAT_SNAPSHOT_LIMIT", 10000),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			APIBase:        getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ExtractorModel: getEnv("OPENAI_EXTRACTOR_MODEL", "gpt-4o-mini"),
			ResponderModel: getEnv("OPENAI_RESPONDER_MODEL", "gpt-4o-mini"),
			ExtractorTemp:  getEnvAsFloat("OPENAI_EXTRACTOR_TEMPERATURE", 0),
			ResponderTemp:  getEnvAsFloat("OPENAI_RESPONDER_TEMPERATURE", 0.7),
			ChatMaxTokens:  getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			Timeout:        getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:        getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
