package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// a missing .env is fine, the environment may already be set
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV string
	PORT   int
	// Database Configuration
	DB_DRIVER    string // postgres (GORM), pq (raw SQL) or sqlite
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	SQLITE_PATH  string
	// Redis Configuration
	REDIS_URL string
	// HTTP
	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int // per client per minute
	SEARCH_RATE_LIMIT   int // search session requests per client per minute
	// Logging
	LOG_LEVEL string
	// Background jobs
	CRON_ENABLED bool
	// Search sessions
	SEARCH_SESSION_TTL time.Duration
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbDriver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if dbDriver == "" {
		dbDriver = "postgres"
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "ratings.db"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	rateLimit := intEnv("RATE_LIMIT_REQUESTS", 100)
	searchRateLimit := intEnv("SEARCH_RATE_LIMIT", 600)

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	cronEnabled := true
	if v, err := strconv.ParseBool(os.Getenv("CRON_ENABLED")); err == nil {
		cronEnabled = v
	}

	sessionTTL, err := time.ParseDuration(os.Getenv("SEARCH_SESSION_TTL"))
	if err != nil || sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		PORT:         port,
		DB_DRIVER:    dbDriver,
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		SQLITE_PATH:  sqlitePath,
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// HTTP
		ALLOWED_ORIGINS:     allowedOrigins,
		RATE_LIMIT_REQUESTS: rateLimit,
		SEARCH_RATE_LIMIT:   searchRateLimit,
		LOG_LEVEL:           logLevel,
		CRON_ENABLED:        cronEnabled,
		// Search
		SEARCH_SESSION_TTL: sessionTTL,
	}

	return envVariables, nil
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
