package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "HTTP_ADDRESS",
		"GRPC_ADDRESS", "HEALTH_INTERVAL", "JWT_SECRET", "TOKEN_TTL", "BCRYPT_COST", "PASSWORD_MIN_LENGTH"} {
		// t.Setenv registers restoration; Unsetenv then removes the key for this test.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.HTTP.Address == "" || cfg.Database.Path == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if !cfg.Auth.InsecureSecret || cfg.Auth.JWTSecret != DevJWTSecret {
		t.Fatalf("expected insecure dev secret fallback: %+v", cfg.Auth)
	}
	if cfg.Auth.TokenTTL != time.Hour || cfg.Auth.BcryptCost != 10 || cfg.Auth.PasswordMinLength != 6 {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Env != "development" || cfg.IsProduction() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("HTTP_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	// When set, it should succeed
	t.Setenv("JWT_SECRET", "x")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
	if cfg.Auth.InsecureSecret {
		t.Fatalf("explicit secret must not be flagged insecure")
	}
}

func TestLoad_ParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("HEALTH_INTERVAL", "30")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("PASSWORD_MIN_LENGTH", "0")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "root:pw@tcp(db:3306)/task_manager")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.GRPC.HealthInterval != 30*time.Second {
		t.Fatalf("durations not parsed: %+v", cfg)
	}
	if cfg.Auth.BcryptCost != 12 || cfg.Auth.PasswordMinLength != 0 {
		t.Fatalf("ints not parsed: %+v", cfg.Auth)
	}
	if cfg.Database.Path != "root:pw@tcp(db:3306)/task_manager" {
		t.Fatalf("DATABASE_URL not used: %q", cfg.Database.Path)
	}
	if s := cfg.String(); strings.Contains(s, "pw@") || strings.Contains(s, "x}") {
		t.Fatalf("String leaks secrets: %s", s)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("BCRYPT_COST", "ten")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric BCRYPT_COST")
	}
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestLoadForEnv_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	if _, err := LoadForEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error in production without JWT_SECRET")
	}
}

func TestLoadForEnv_ReadsDotenv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("JWT_SECRET=from-file\nHTTP_ADDRESS=:4000\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("HTTP_ADDRESS")
	})
	cfg, err := LoadForEnv(path)
	if err != nil {
		t.Fatalf("LoadForEnv: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-file" || cfg.HTTP.Address != ":4000" || cfg.Auth.InsecureSecret {
		t.Fatalf("dotenv values not applied: %+v", cfg)
	}
}
