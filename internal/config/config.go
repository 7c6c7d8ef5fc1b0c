package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Answer  AnswerConfig
	Chat    ChatConfig
}

type AppConfig struct {
	Port               string
	ClientURL          string
	Environment        string
	LogFilePath        string
	StreamLogFilePath  string
	CorsAllowedOrigins string
	RedisURL           string
}

type StorageConfig struct {
	// "memory" or "redis"
	Backend string
	// Retention for the memory backend; external policy, not this app's.
	Retention time.Duration
}

type AnswerConfig struct {
	BaseURL       string
	APIKey        string
	StreamTimeout time.Duration
}

type ChatConfig struct {
	// IANA name for recency-bucket cutoffs, e.g. "Asia/Jakarta".
	GroupingTimezone string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			StreamLogFilePath:  getEnv("STREAM_LOG_FILE_PATH", "logs/stream.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "memory"),
			Retention: getEnvAsDuration("CONVERSATION_RETENTION", 0),
		},
		Answer: AnswerConfig{
			BaseURL:       getEnv("ANSWER_SERVICE_URL", "http://localhost:8000"),
			APIKey:        getEnv("ANSWER_SERVICE_API_KEY", ""),
			StreamTimeout: getEnvAsDuration("STREAM_TIMEOUT", 120*time.Second),
		},
		Chat: ChatConfig{
			GroupingTimezone: getEnv("GROUPING_TIMEZONE", "Asia/Jakarta"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	// Bare numbers are seconds.
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
