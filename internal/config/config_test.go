package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "CORS_ALLOWED_ORIGINS", "SESSION_SECRET", "SESSION_STORE",
		"SESSION_REDIS_URL", "SESSION_TTL_MINUTES", "COOKIE_SECURE", "DB_DRIVER", "DB_DSN",
		"DB_QUERY_TIMEOUT_SECONDS", "DB_AUTO_MIGRATE", "BCRYPT_COST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "debug" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.SessionStore != SessionStoreMemory || cfg.DBDriver != DBDriverSQLite {
		t.Fatalf("unexpected backend defaults: %+v", cfg)
	}
	if cfg.CookieSecure {
		t.Fatal("cookie must not be Secure by default in debug mode")
	}
	if cfg.SessionTTL() != 12*time.Hour {
		t.Fatalf("unexpected session ttl: %v", cfg.SessionTTL())
	}
	if !cfg.DBAutoMigrate {
		t.Fatal("expected auto migrate by default")
	}
}

func TestLoadReleaseRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("GIN_MODE", "release")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when SESSION_SECRET is not set in release mode")
	}

	t.Setenv("SESSION_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with secret: %v", err)
	}
	if !cfg.CookieSecure {
		t.Fatal("release mode must default to Secure cookies")
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("SESSION_STORE", "filesystem")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown session store")
	}

	t.Setenv("SESSION_STORE", "")
	t.Setenv("DB_DRIVER", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown db driver")
	}
}

func TestStringMasksSecret(t *testing.T) {
	cfg := &Config{SessionSecret: "top-secret", SessionStore: SessionStoreRedis}
	if s := cfg.String(); strings.Contains(s, "top-secret") {
		t.Fatalf("secret leaked in String(): %s", s)
	}
}
