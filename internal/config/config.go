package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel  string
	LogFormat string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Revision model
	RevisionModelStore string
	RevisionModelPath  string
	RevisionModelKey   string

	// AI tutor
	TutorProvider   string
	TutorAPIKey     string
	TutorBaseURL    string
	TutorModel      string
	TutorMaxRetries int
	TutorRetryDelay time.Duration

	// Quizzes
	QuizCatalogOwnerID string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Reminders
	ReminderPollInterval time.Duration

	// Rate limiting
	AuthRequestsPerMinute int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	env := getEnvOrDefault("ENV", "development")
	defaultFormat := "text"
	if env == "production" {
		defaultFormat = "json"
	}

	tutorProvider := getEnvOrDefault("TUTOR_PROVIDER", "openai")
	defaultTutorModel := "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"
	if tutorProvider == "gemini" {
		defaultTutorModel = "gemini-1.5-flash"
	}

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   env,
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", defaultFormat),
		DatabaseURL:           mustGetEnv("DATABASE_URL"),
		RedisURL:              mustGetEnv("REDIS_URL"),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		RevisionModelStore:    getEnvOrDefault("REVISION_MODEL_STORE", "file"),
		RevisionModelPath:     getEnvOrDefault("REVISION_MODEL_PATH", "./data/revision_model.json"),
		RevisionModelKey:      getEnvOrDefault("REVISION_MODEL_KEY", "revision:model"),
		TutorProvider:         tutorProvider,
		TutorAPIKey:           getEnvOrDefault("TUTOR_API_KEY", ""),
		TutorBaseURL:          getEnvOrDefault("TUTOR_BASE_URL", "https://api.together.xyz/v1"),
		TutorModel:            getEnvOrDefault("TUTOR_MODEL", defaultTutorModel),
		TutorMaxRetries:       getEnvAsIntOrDefault("TUTOR_MAX_RETRIES", 3),
		TutorRetryDelay:       getEnvAsDurationOrDefault("TUTOR_RETRY_DELAY", 2*time.Second),
		QuizCatalogOwnerID:    getEnvOrDefault("QUIZ_CATALOG_OWNER_ID", ""),
		SMTPHost:              getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:              getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:              getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:              getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:              getEnvOrDefault("SMTP_FROM", "noreply@smartstudy.app"),
		ReminderPollInterval:  getEnvAsDurationOrDefault("REMINDER_POLL_INTERVAL", time.Hour),
		AuthRequestsPerMinute: getEnvAsIntOrDefault("AUTH_REQUESTS_PER_MINUTE", 20),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
