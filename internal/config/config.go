package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the fallback signing secret used outside production.
// It is public and therefore insecure; never rely on it in a deployment.
const DevJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Env      string // APP_ENV, e.g. "development" or "production"
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Driver       string // "sqlite3" or "mysql"
	Path         string // SQLite file path or MySQL DSN
	MaxOpenConns int
}

// HTTPConfig contains HTTP API server settings.
type HTTPConfig struct {
	Address string // listen address (e.g., ":3000")
}

// GRPCConfig contains gRPC health server settings.
type GRPCConfig struct {
	Address        string        // empty disables the gRPC listener
	HealthInterval time.Duration // how often DB reachability is re-checked
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret         string        // JWT signing secret
	TokenTTL          time.Duration // access token lifetime
	BcryptCost        int
	PasswordMinLength int
	// InsecureSecret is set when JWTSecret fell back to DevJWTSecret.
	InsecureSecret bool
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load loads configuration from environment variables with sensible defaults.
// JWT_SECRET is required.
func Load() (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses DevJWTSecret when JWT_SECRET is unset.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DevJWTSecret
		cfg.Auth.InsecureSecret = true
	}
	return cfg, nil
}

// LoadForEnv reads an optional .env file, then picks Load in production and
// LoadWithDefaults otherwise.
func LoadForEnv(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		// godotenv.Load never overrides variables already set in the process.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if strings.EqualFold(getEnv("APP_ENV", ""), "production") {
		return Load()
	}
	return LoadWithDefaults()
}

func fromEnv() (*Config, error) {
	maxConns, err := getEnvInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cost, err := getEnvInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}
	minLen, err := getEnvInt("PASSWORD_MIN_LENGTH", 6)
	if err != nil {
		return nil, err
	}
	ttl, err := getEnvDuration("TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	healthEvery, err := getEnvDuration("HEALTH_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "sqlite3"),
			Path:         getEnv("DB_PATH", getEnv("DATABASE_URL", "app.db")),
			MaxOpenConns: maxConns,
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":3000"),
		},
		GRPC: GRPCConfig{
			Address:        getEnv("GRPC_ADDRESS", ":50051"),
			HealthInterval: healthEvery,
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			TokenTTL:          ttl,
			BcryptCost:        cost,
			PasswordMinLength: minLen,
		},
	}
	switch cfg.Database.Driver {
	case "sqlite3", "mysql":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want sqlite3 or mysql", cfg.Database.Driver)
	}
	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// getEnvDuration accepts Go durations ("90m") or plain seconds ("3600").
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	db := c.Database.Path
	if c.Database.Driver == "mysql" {
		db = "*** (masked) ***"
	}
	return fmt.Sprintf("Config{Env: %s, DB: %s %s, HTTP: %s, gRPC: %s, Auth: *** (masked) ***, TokenTTL: %s}",
		c.Env, c.Database.Driver, db, c.HTTP.Address, c.GRPC.Address, c.Auth.TokenTTL)
}
