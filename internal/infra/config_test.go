package infra

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

var serverEnv = []string{
	"APP_ENV", "PORT", "DATABASE_URL", "DB_AUTO_MIGRATE", "AUTH_JWT_SECRET", "AUTH_JWKS_URL", "GEOIP_DB_PATH",
	"DEFAULT_LOCALE", "CORS_ALLOWED_ORIGINS", "COOKIE_SECURE", "COOKIE_DOMAIN", "LOGIN_RATE_PER_MINUTE", "TRUST_PROXY_HEADERS",
	"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT", "AUTH_PROVIDER_TIMEOUT",
	"ADMIN_EMAILS", "ADMIN_ROLES", "ADMIN_DASHBOARD_PATH",
}

// unsetEnv removes keys for the duration of the test; t.Setenv restores them.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, group := range [][]string{ProviderURLEnv, ServiceKeyEnv, AnonKeyEnv} {
		unsetEnv(t, group...)
	}
	unsetEnv(t, serverEnv...)
}

func TestLoadProviderConfigAlternateNames(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://project.example.co/")
	t.Setenv("SERVICE_ROLE_KEY", "svc")
	t.Setenv("SUPABASE_SERVICE_KEY", "  ")

	cfg, err := LoadProviderConfig()
	if err != nil {
		t.Fatalf("LoadProviderConfig() error = %v", err)
	}
	if cfg.URL != "https://project.example.co" {
		t.Fatalf("URL = %q", cfg.URL)
	}
	if cfg.ServiceKey != "svc" {
		t.Fatalf("ServiceKey = %q", cfg.ServiceKey)
	}
}

func TestLoadProviderConfigPrefersFirstName(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SUPABASE_URL", "https://primary.example.co")
	t.Setenv("AUTH_PROVIDER_URL", "https://secondary.example.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "primary")
	t.Setenv("SERVICE_ROLE_KEY", "secondary")

	cfg, err := LoadProviderConfig()
	if err != nil {
		t.Fatalf("LoadProviderConfig() error = %v", err)
	}
	if cfg.URL != "https://primary.example.co" || cfg.ServiceKey != "primary" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadProviderConfigMissing(t *testing.T) {
	clearProviderEnv(t)
	_, err := LoadProviderConfig()
	if !errors.Is(err, ErrMissingValue) {
		t.Fatalf("expected ErrMissingValue, got %v", err)
	}
	for _, name := range []string{"SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q should mention %s", err, name)
		}
	}
}

func TestLoadProviderConfigInvalidURL(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SUPABASE_URL", "not a url")
	t.Setenv("SERVICE_ROLE_KEY", "svc")
	if _, err := LoadProviderConfig(); err == nil {
		t.Fatalf("expected invalid url error")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SUPABASE_URL", "https://project.example.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "svc")
	t.Setenv("DATABASE_URL", "postgres://localhost/mediahub")
	t.Setenv("ADMIN_EMAILS", "boss@example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AppEnv != "development" || cfg.Port != "8080" {
		t.Fatalf("unexpected defaults: env=%q port=%q", cfg.AppEnv, cfg.Port)
	}
	if cfg.Admin.Emails != "boss@example.com" || cfg.Admin.Roles != "admin" || cfg.Admin.DashboardPath != "/admin" {
		t.Fatalf("unexpected admin defaults: %+v", cfg.Admin)
	}
	if cfg.HTTPIdleTimeout != 60*time.Second {
		t.Fatalf("HTTPIdleTimeout = %v", cfg.HTTPIdleTimeout)
	}
	if cfg.Provider.ServiceKey != "svc" {
		t.Fatalf("provider not resolved: %+v", cfg.Provider)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SUPABASE_URL", "https://project.example.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "svc")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}
