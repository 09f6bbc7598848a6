// internal/config/config.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"novapay-wallet/pkg/db" // connection configs
)

// Supported values for STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// AdminConfig holds the admin credential policy. Both fields must be set for
// the admin surface to be enabled.
type AdminConfig struct {
	PasswordHash string // bcrypt hash of the admin password
	JWTSecret    string
	TokenTTL     time.Duration
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	LogLevel   string
	LogFormat  string

	StorageDriver string
	SQLitePath    string
	DB            db.Config
	Redis         db.RedisConfig

	RabbitMQURL string
	Admin       AdminConfig

	// StrictStorage makes a corrupt accounts blob an error instead of an empty mapping.
	StrictStorage bool
	// LegacyAccountPolicy restores overwrite-on-register and auto-register-on-login.
	LegacyAccountPolicy bool
}

var envKeys = []string{
	"SERVER_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"STORAGE_DRIVER", "SQLITE_PATH",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
	"RABBITMQ_URL",
	"ADMIN_PASSWORD_HASH", "ADMIN_JWT_SECRET", "ADMIN_TOKEN_TTL",
	"STRICT_STORAGE", "LEGACY_ACCOUNT_POLICY",
}

// LoadConfig loads configuration from environment variables, after merging an
// optional .env file from the working directory.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORAGE_DRIVER", StorageSQLite)
	v.SetDefault("SQLITE_PATH", "novapay.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "novapay")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ADMIN_TOKEN_TTL", "1h")
	v.SetDefault("STRICT_STORAGE", false)
	v.SetDefault("LEGACY_ACCOUNT_POLICY", false)

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER")))
	switch driver {
	case StorageMemory, StorageSQLite, StoragePostgres, StorageRedis:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", driver)
	}

	dbPort, err := parseInt(v.GetString("DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisDB, err := parseInt(v.GetString("REDIS_DB"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	tokenTTL, err := time.ParseDuration(v.GetString("ADMIN_TOKEN_TTL"))
	if err != nil || tokenTTL <= 0 {
		return nil, fmt.Errorf("invalid ADMIN_TOKEN_TTL %q", v.GetString("ADMIN_TOKEN_TTL"))
	}

	return &AppConfig{
		ServerPort:    v.GetString("SERVER_PORT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		StorageDriver: driver,
		SQLitePath:    v.GetString("SQLITE_PATH"),
		DB: db.Config{
			Host:     v.GetString("DB_HOST"),
			Port:     dbPort,
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: db.RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RabbitMQURL: strings.TrimSpace(v.GetString("RABBITMQ_URL")),
		Admin: AdminConfig{
			PasswordHash: strings.TrimSpace(v.GetString("ADMIN_PASSWORD_HASH")),
			JWTSecret:    v.GetString("ADMIN_JWT_SECRET"),
			TokenTTL:     tokenTTL,
		},
		StrictStorage:       v.GetBool("STRICT_STORAGE"),
		LegacyAccountPolicy: v.GetBool("LEGACY_ACCOUNT_POLICY"),
	}, nil
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}
