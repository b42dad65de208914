package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type envConfig struct {
	APP_PORT      string
	LOG_FILE_PATH string
	LOG_LEVEL     string
	REPORTS_FILE  string

	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration

	ES_URL   string
	ES_SNIFF bool

	GCP_PROJECT_ID string

	EXPORT_ROW_WINDOW        int
	EXPORT_PROGRESS_INTERVAL int
}

// DefaultEnvConfig holds the configuration loaded by LoadEnvConfig.
var DefaultEnvConfig = envConfig{
	APP_PORT:                 "8080",
	LOG_LEVEL:                "info",
	REPORTS_FILE:             "reports.yaml",
	DB_HOST:                  "localhost",
	DB_PORT:                  5432,
	DB_SSL_MODE:              "disable",
	DB_MAX_OPEN_CONNS:        10,
	DB_MAX_IDLE_CONNS:        5,
	DB_CONN_MAX_LIFETIME:     5 * time.Minute,
	EXPORT_ROW_WINDOW:        100,
	EXPORT_PROGRESS_INTERVAL: 1000,
}

// LoadEnvConfig reads .env, if present, then the process environment into
// DefaultEnvConfig. Variables already set in the environment win over .env.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultEnvConfig
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("APP_PORT", &cfg.APP_PORT)
	str("LOG_FILE_PATH", &cfg.LOG_FILE_PATH)
	str("LOG_LEVEL", &cfg.LOG_LEVEL)
	str("REPORTS_FILE", &cfg.REPORTS_FILE)
	str("DB_HOST", &cfg.DB_HOST)
	num("DB_PORT", &cfg.DB_PORT)
	str("DB_USER", &cfg.DB_USER)
	str("DB_PASSWORD", &cfg.DB_PASSWORD)
	str("DB_NAME", &cfg.DB_NAME)
	str("DB_SSL_MODE", &cfg.DB_SSL_MODE)
	num("DB_MAX_OPEN_CONNS", &cfg.DB_MAX_OPEN_CONNS)
	num("DB_MAX_IDLE_CONNS", &cfg.DB_MAX_IDLE_CONNS)
	if v, ok := os.LookupEnv("DB_CONN_MAX_LIFETIME"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err))
		} else {
			cfg.DB_CONN_MAX_LIFETIME = d
		}
	}
	str("ES_URL", &cfg.ES_URL)
	if v, ok := os.LookupEnv("ES_SNIFF"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ES_SNIFF: %w", err))
		} else {
			cfg.ES_SNIFF = b
		}
	}
	str("GCP_PROJECT_ID", &cfg.GCP_PROJECT_ID)
	num("EXPORT_ROW_WINDOW", &cfg.EXPORT_ROW_WINDOW)
	num("EXPORT_PROGRESS_INTERVAL", &cfg.EXPORT_PROGRESS_INTERVAL)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	DefaultEnvConfig = cfg
	return nil
}
