package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env when GO_ENV is unset or "development".
// A missing .env file is not an error.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV    string
	LOG_LEVEL string
	LOG_FILE  string
	// Database
	DATABASE_URL       string
	GAOKAO_SQLITE_PATH string
	CHUNK_SIZE         int
	// Fetching
	MAX_RETRIES             int
	REQUEST_DELAY_MS        int
	REQUEST_TIMEOUT_SECONDS int
	DATA_DIR                string
	SOURCES_FILE            string
	VALIDATE_CHECKPOINTS    bool
	// Redis failure sink
	REDIS_URL string
	// Export upload
	EXPORT_BUCKET     string
	EXPORT_REGION     string
	EXPORT_ENDPOINT   string
	EXPORT_ACCESS_KEY string
	EXPORT_SECRET_KEY string
}

func Get() (*EnvironmentVariable, error) {
	envVariables := &EnvironmentVariable{
		GO_ENV:    os.Getenv("GO_ENV"),
		LOG_LEVEL: getString("LOG_LEVEL", "info"),
		LOG_FILE:  os.Getenv("LOG_FILE"),
		// Database
		DATABASE_URL:       os.Getenv("DATABASE_URL"),
		GAOKAO_SQLITE_PATH: getString("GAOKAO_SQLITE_PATH", "gaokao_data.db"),
		CHUNK_SIZE:         getInt("CHUNK_SIZE", 3000),
		// Fetching
		MAX_RETRIES:             getInt("MAX_RETRIES", 3),
		REQUEST_DELAY_MS:        getInt("REQUEST_DELAY_MS", 1000),
		REQUEST_TIMEOUT_SECONDS: getInt("REQUEST_TIMEOUT_SECONDS", 30),
		DATA_DIR:                getString("DATA_DIR", "data"),
		SOURCES_FILE:            getString("SOURCES_FILE", "sources.json5"),
		VALIDATE_CHECKPOINTS:    getBool("VALIDATE_CHECKPOINTS", false),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Export
		EXPORT_BUCKET:     os.Getenv("EXPORT_BUCKET"),
		EXPORT_REGION:     getString("EXPORT_REGION", "us-east-1"),
		EXPORT_ENDPOINT:   os.Getenv("EXPORT_ENDPOINT"),
		EXPORT_ACCESS_KEY: os.Getenv("EXPORT_ACCESS_KEY"),
		EXPORT_SECRET_KEY: os.Getenv("EXPORT_SECRET_KEY"),
	}

	return envVariables, nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getInt falls back on missing, malformed and non-positive values.
func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return b
}
