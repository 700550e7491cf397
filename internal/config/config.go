package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Pipeline PipelineConfig
	Dispatch DispatchConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	// Single-reviewer credentials: the analyst logs in with this email
	// and a password matching the stored bcrypt hash.
	AnalystEmail        string
	AnalystPasswordHash string
}

type PipelineConfig struct {
	// ConfigPath points at the pipeline configuration document
	// (sessionNumber / operationMode / developmentSystemEndpoint).
	ConfigPath string
	// DataDir holds the outcomes/ and plots/ working directories.
	DataDir string
	// Threshold seeds the document's sessionNumber when the document
	// does not exist yet.
	Threshold            int
	PollInterval         time.Duration
	RetryBackoff         time.Duration
	DecisionMode         string // "file" (human reviewer) or "auto"
	AutoSeed             int64
	AutoApproveBalancing float64
	AutoApproveCoverage  float64
	SingleShot           bool
	TrainRatio           float64
	ValidationRatio      float64
	TestRatio            float64
	BalanceTolerance     float64
}

type DispatchConfig struct {
	// Endpoint seeds the document's developmentSystemEndpoint when the
	// document does not exist yet.
	Endpoint string
	Timeout  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/segregation.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Segregation System"),
		},
		Auth: AuthConfig{
			AnalystEmail:        getEnv("ANALYST_EMAIL", "analyst@localhost"),
			AnalystPasswordHash: getEnv("ANALYST_PASSWORD_HASH", ""),
		},
		Pipeline: PipelineConfig{
			ConfigPath:           getEnv("PIPELINE_CONFIG_PATH", "data/segregation_config.json"),
			DataDir:              getEnv("PIPELINE_DATA_DIR", "data"),
			Threshold:            getEnvAsInt("PIPELINE_SESSION_THRESHOLD", 50),
			PollInterval:         getEnvAsDuration("PIPELINE_POLL_INTERVAL", 10*time.Second),
			RetryBackoff:         getEnvAsDuration("PIPELINE_RETRY_BACKOFF", 5*time.Second),
			DecisionMode:         getEnv("PIPELINE_DECISION_MODE", "file"),
			AutoSeed:             int64(getEnvAsInt("PIPELINE_AUTO_SEED", 42)),
			AutoApproveBalancing: getEnvAsFloat("PIPELINE_AUTO_APPROVE_BALANCING", 0.73),
			AutoApproveCoverage:  getEnvAsFloat("PIPELINE_AUTO_APPROVE_COVERAGE", 0.53),
			SingleShot:           getEnv("PIPELINE_SINGLE_SHOT", "false") == "true",
			TrainRatio:           getEnvAsFloat("PIPELINE_TRAIN_RATIO", 0.70),
			ValidationRatio:      getEnvAsFloat("PIPELINE_VALIDATION_RATIO", 0.15),
			TestRatio:            getEnvAsFloat("PIPELINE_TEST_RATIO", 0.15),
			BalanceTolerance:     getEnvAsFloat("PIPELINE_BALANCE_TOLERANCE", 0.20),
		},
		Dispatch: DispatchConfig{
			Endpoint: getEnv("DISPATCH_ENDPOINT", "http://localhost:8000/api/learning-sets"),
			Timeout:  getEnvAsDuration("DISPATCH_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
