package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Helper function to get environment variable with fallback default value
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get environment variable as integer with fallback
func GetEnvAsInt(key string, fallback int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func GetEnvAsFloat(key string, fallback float64) float64 {
	valueStr := GetEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func GetEnvAsBool(key string, fallback bool) bool {
	valueStr := GetEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func GetEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Params   string
	MaxConns int
	MaxIdle  int
}

// DSN format: user:password@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.User, c.Password, c.Host, c.Port, c.Name, c.Params)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type Config struct {
	App struct {
		Env      string
		Port     string
		Timezone string
	}
	Database DatabaseConfig
	Redis    RedisConfig

	Security struct {
		JWTSecret       string
		JWTTTL          time.Duration
		QREncryptionKey string
	}

	// Scan verification policy
	Scan struct {
		RateWindowMinutes int
		RateMaxScans      int
		MaxSpeedKmh       float64
		LockTTL           time.Duration
		CheckinWindow     string // "HH:MM-HH:MM", both ends inclusive
		CheckoutWindow    string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.App.Env = GetEnv("APP_ENV", "development")
	cfg.App.Port = GetEnv("APP_PORT", "3000")
	cfg.App.Timezone = GetEnv("APP_TIMEZONE", "Local")

	cfg.Database.Host = GetEnv("DB_HOST", "127.0.0.1")
	cfg.Database.Port = GetEnvAsInt("DB_PORT", 3306)
	cfg.Database.User = GetEnv("DB_USER", "root")
	cfg.Database.Password = GetEnv("DB_PASSWORD", "")
	cfg.Database.Name = GetEnv("DB_NAME", "kiosk_attendance")
	cfg.Database.Params = GetEnv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local")
	cfg.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", 20)
	cfg.Database.MaxIdle = GetEnvAsInt("DB_MAX_IDLE", 5)

	cfg.Redis.Enabled = GetEnvAsBool("REDIS_ENABLED", false)
	cfg.Redis.Addr = GetEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = GetEnvAsInt("REDIS_DB", 0)

	cfg.Security.JWTSecret = GetEnv("JWT_SECRET", "")
	cfg.Security.JWTTTL = GetEnvAsDuration("JWT_TTL", 24*time.Hour)
	cfg.Security.QREncryptionKey = GetEnv("QR_ENCRYPTION_KEY", "")

	cfg.Scan.RateWindowMinutes = GetEnvAsInt("SCAN_RATE_WINDOW_MINUTES", 5)
	cfg.Scan.RateMaxScans = GetEnvAsInt("SCAN_RATE_MAX", 2)
	cfg.Scan.MaxSpeedKmh = GetEnvAsFloat("SCAN_MAX_SPEED_KMH", 150)
	cfg.Scan.LockTTL = GetEnvAsDuration("SCAN_LOCK_TTL", 10*time.Second)
	cfg.Scan.CheckinWindow = GetEnv("SCAN_CHECKIN_WINDOW", "06:00-08:59")
	cfg.Scan.CheckoutWindow = GetEnv("SCAN_CHECKOUT_WINDOW", "20:45-21:10")

	cfg.Log.Level = GetEnv("LOG_LEVEL", "info")
	cfg.Log.Format = GetEnv("LOG_FORMAT", "json")

	if cfg.App.Env == "production" {
		if cfg.Security.QREncryptionKey == "" {
			return nil, fmt.Errorf("QR_ENCRYPTION_KEY is required in production")
		}
		if cfg.Security.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	if cfg.Security.QREncryptionKey == "" {
		cfg.Security.QREncryptionKey = "development-only-qr-key"
	}
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = "development-only-jwt-secret"
	}

	return cfg, nil
}

// Location resolves App.Timezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
