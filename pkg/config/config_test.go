package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Backend.BaseURL != "http://backend.test/api" {
		t.Fatalf("unexpected backend url %q", cfg.Backend.BaseURL)
	}
	if got := cfg.Backend.Timeout; got != 10*time.Second {
		t.Fatalf("expected default backend timeout 10s, got %v", got)
	}
	if got := cfg.Session.TTL; got != 2*time.Hour {
		t.Fatalf("expected session ttl 2h, got %v", got)
	}
	if cfg.Images.PlaceholderHost != "https://placehold.co" {
		t.Fatalf("unexpected placeholder host %q", cfg.Images.PlaceholderHost)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsRelativeBackendURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendBaseURL, "/api")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative backend url to be rejected")
	}
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvBackendTimeout, "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected zero timeout to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8091")
	t.Setenv(EnvBackendBaseURL, "http://backend.test/api")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvSessionTTL, "2h")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}

func TestLoad_GatewayDefaults(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAllowedOrigins, "https://mates.example,https://admin.mates.example")
	t.Setenv(EnvAuthRateLimitLoginMail, "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://admin.mates.example" {
		t.Fatalf("unexpected origins %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.AuthRateLimit.LoginEmailLimit != 7 || cfg.AuthRateLimit.LoginWindow != time.Minute {
		t.Fatalf("unexpected login rate limit %+v", cfg.AuthRateLimit)
	}
	if cfg.Shoppers.SweepInterval != 5*time.Minute || cfg.Shoppers.MaxIdle != time.Hour {
		t.Fatalf("unexpected shopper sweep settings %+v", cfg.Shoppers)
	}
}

func TestLoad_RejectsNonPositiveSweep(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvShoppersMaxIdle, "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected zero idle window to be rejected")
	}
}
