package utils

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	AppEnv  string `yaml:"APP_ENV" envconfig:"APP_ENV"`
	AppPort string `yaml:"APP_PORT" envconfig:"APP_PORT"`

	// Database configuration
	DBUser     string `yaml:"DB_USER" envconfig:"DB_USER"`
	DBName     string `yaml:"DB_NAME" envconfig:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD" envconfig:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT" envconfig:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST" envconfig:"DB_HOST"`
	DBSSLMode  string `yaml:"DB_SSL_MODE" envconfig:"DB_SSL_MODE"`
	DBTimeZone string `yaml:"DB_TIME_ZONE" envconfig:"DB_TIME_ZONE"`

	// JWT
	JWTSecret     string `yaml:"JWT_SECRET" envconfig:"JWT_SECRET"`
	JWTIssuer     string `yaml:"JWT_ISSUER" envconfig:"JWT_ISSUER"`
	JWTTTLMinutes int    `yaml:"JWT_TTL_MINUTES" envconfig:"JWT_TTL_MINUTES"`

	// Accounts created as superusers at startup when missing
	Superusers        []string `yaml:"SUPERUSERS" envconfig:"SUPERUSERS"`
	SuperuserPassword string   `yaml:"SUPERUSER_PASSWORD" envconfig:"SUPERUSER_PASSWORD"`

	// HTTP
	CORSAllowOrigins       string `yaml:"CORS_ALLOW_ORIGINS" envconfig:"CORS_ALLOW_ORIGINS"`
	AccessLogPath          string `yaml:"ACCESS_LOG_PATH" envconfig:"ACCESS_LOG_PATH"`
	RateLimitMax           int    `yaml:"RATE_LIMIT_MAX" envconfig:"RATE_LIMIT_MAX"`
	RateLimitWindowSeconds int    `yaml:"RATE_LIMIT_WINDOW_SECONDS" envconfig:"RATE_LIMIT_WINDOW_SECONDS"`

	// AWS S3 configuration
	AWSS3Bucket   string `yaml:"AWS_S3_BUCKET" envconfig:"AWS_S3_BUCKET"`
	AWSS3Region   string `yaml:"AWS_S3_REGION" envconfig:"AWS_S3_REGION"`
	AWSS3Endpoint string `yaml:"AWS_S3_ENDPOINT" envconfig:"AWS_S3_ENDPOINT"`
	AWSAccessKey  string `yaml:"AWS_ACCESS_KEY" envconfig:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `yaml:"AWS_SECRET_KEY" envconfig:"AWS_SECRET_KEY"`
	MaxImageBytes int    `yaml:"MAX_IMAGE_BYTES" envconfig:"MAX_IMAGE_BYTES"`

	// Save count reconciliation, standard 5-field cron spec. Empty disables it.
	SaveCountReconcileSchedule string `yaml:"SAVE_COUNT_RECONCILE_SCHEDULE" envconfig:"SAVE_COUNT_RECONCILE_SCHEDULE"`
}

func defaultConfig() Config {
	return Config{
		AppEnv:                     "development",
		AppPort:                    "8080",
		DBPort:                     "5432",
		DBSSLMode:                  "disable",
		DBTimeZone:                 "UTC",
		JWTIssuer:                  "RECIPE-VAULT",
		JWTTTLMinutes:              60 * 24 * 7,
		CORSAllowOrigins:           "http://localhost:3000",
		AccessLogPath:              "./logs/app.log",
		RateLimitMax:               10,
		RateLimitWindowSeconds:     1,
		MaxImageBytes:              5 << 20,
		SaveCountReconcileSchedule: "0 3 * * *",
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (if it exists), then .env and process environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	_ = godotenv.Load()
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if len(cfg.Superusers) > 0 && len(cfg.SuperuserPassword) < 8 {
		return nil, errors.New("SUPERUSER_PASSWORD of at least 8 characters is required when SUPERUSERS is set")
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBPort,
		c.DBSSLMode,
		c.DBTimeZone,
	)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}
