package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Events   EventsConfig
	Seed     SeedConfig
	Login    LoginConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// AuthConfig holds token signing parameters. Tokens carry only the user ID;
// permissions are re-read from the store on every request.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// EventsConfig holds configuration for the KurrentDB (EventStoreDB) bus.
type EventsConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

// SeedConfig controls the startup seed of the default administrator and the
// optional demo fixtures.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	DemoData      bool
}

// LoginConfig bounds login attempts per client IP.
type LoginConfig struct {
	RatePerSecond int
	Burst         int
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "dispatch"),
			Password: getEnv("DB_PASSWORD", "dispatch"),
			Database: getEnv("DB_NAME", "dispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			TokenTTL:  time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		},
		Events: EventsConfig{
			Enabled:  getEnvBool("EVENTS_ENABLED", false),
			Host:     getEnv("KURRENTDB_HOST", "localhost"),
			Port:     getEnvInt("KURRENTDB_PORT", 2113),
			Insecure: getEnvBool("KURRENTDB_INSECURE", true),
			Username: getEnv("KURRENTDB_USERNAME", ""),
			Password: getEnv("KURRENTDB_PASSWORD", ""),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@paramedia.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
			DemoData:      getEnvBool("SEED_DEMO_DATA", false),
		},
		Login: LoginConfig{
			RatePerSecond: getEnvInt("LOGIN_RATE_LIMIT", 5),
			Burst:         getEnvInt("LOGIN_RATE_BURST", 10),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
