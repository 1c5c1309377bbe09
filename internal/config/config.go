// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"restaurant_pos_backend/pkg/utils"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port string

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBSchemaPath string

	JWTSecret string
	JWTTTL    time.Duration
	OTPTTL    time.Duration

	CORSAllowedOrigins []string

	// RabbitMQURL is optional; without it events and OTPs are only logged.
	RabbitMQURL string

	LogLevel  string
	LogFormat string
}

const devJWTSecret = "dev-only-jwt-secret-change-me"

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               utils.Getenv("PORT", "8080"),
		DBHost:             utils.Getenv("DB_HOST", "localhost"),
		DBPort:             utils.Getenv("DB_PORT", "5432"),
		DBUser:             utils.Getenv("DB_USER", "pos_user"),
		DBPassword:         utils.Getenv("DB_PASSWORD", "pos_password"),
		DBName:             utils.Getenv("DB_NAME", "restaurant_pos"),
		DBSSLMode:          utils.Getenv("DB_SSLMODE", "disable"),
		DBSchemaPath:       utils.Getenv("DB_SCHEMA_PATH", ""),
		JWTSecret:          utils.Getenv("JWT_SECRET", devJWTSecret),
		JWTTTL:             utils.GetenvDuration("JWT_TTL", 12*time.Hour),
		OTPTTL:             utils.GetenvDuration("OTP_TTL", 10*time.Minute),
		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		RabbitMQURL:        utils.Getenv("RABBITMQ_URL", ""),
		LogLevel:           utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:          utils.Getenv("LOG_FORMAT", "console"),
	}

	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.JWTTTL)
	}
	if cfg.OTPTTL <= 0 {
		return nil, fmt.Errorf("OTP_TTL must be positive, got %s", cfg.OTPTTL)
	}
	if cfg.JWTSecret == devJWTSecret {
		utils.LogWarn("JWT_SECRET not set, using the development secret")
	}
	return cfg, nil
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
