// Package config loads server settings from the environment (and an
// optional .env file) and builds the process logger.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Log        LogConfig
	Authority  AuthorityConfig
	Kafka      KafkaConfig
	Telegram   TelegramConfig
	Summarizer SummarizerConfig
}

type ServerConfig struct {
	Port               int
	CORSOrigins        []string
	LoginRatePerMinute int
	ReadTimeout        int
	WriteTimeout       int
	IdleTimeout        int
}

type DatabaseConfig struct {
	// Path is a SQLite file, ":memory:", or "memory" for the map-backed store.
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthorityConfig seeds the central administrator account on first start.
type AuthorityConfig struct {
	Username string
	Password string
	Name     string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type TelegramConfig struct {
	APIBase string
}

type SummarizerConfig struct {
	Endpoint string
	Model    string
	APIKey   string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
			LoginRatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
			ReadTimeout:        getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:       getEnvAsInt("SERVER_WRITE_TIMEOUT", 90),
			IdleTimeout:        getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "supply.db"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Authority: AuthorityConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", "admin"),
			Name:     getEnv("ADMIN_NAME", "Bosh Administrator"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "requisitions"),
		},
		Telegram: TelegramConfig{
			APIBase: getEnv("TELEGRAM_API_BASE", "https://api.telegram.org"),
		},
		Summarizer: SummarizerConfig{
			Endpoint: getEnv("SUMMARIZER_ENDPOINT", "https://generativelanguage.googleapis.com"),
			Model:    getEnv("SUMMARIZER_MODEL", "gemini-2.5-flash"),
			APIKey:   getEnv("SUMMARIZER_API_KEY", ""),
		},
	}
}

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(c LogConfig) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
