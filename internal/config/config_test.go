package config

import (
	"strings"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	orig := GetEnv
	GetEnv = func(key string) string {
		if key == "HOME" {
			return "/home/tester"
		}
		return ""
	}
	defer func() { GetEnv = orig }()

	cfg := NewConfig()

	if cfg.APIURL != "http://127.0.0.1:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %v, want no timeout", cfg.Timeout)
	}
	if cfg.Store != StoreFile {
		t.Errorf("Store = %q", cfg.Store)
	}
	if cfg.StorePath != "/home/tester/.askme/storage.json" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ASKME_API_URL", "https://askme.example.com")
	t.Setenv("ASKME_TIMEOUT", "30s")
	t.Setenv("ASKME_STORE", "sqlite")
	t.Setenv("ASKME_PLAIN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIURL != "https://askme.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %q", cfg.Store)
	}
	if !cfg.Plain {
		t.Error("Plain should be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty url", func(c *Config) { c.APIURL = "" }, "cannot be empty"},
		{"relative url", func(c *Config) { c.APIURL = "/api" }, "not an absolute URL"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "negative"},
		{"unknown store", func(c *Config) { c.Store = "localStorage" }, "unknown store"},
		{"memory store", func(c *Config) { c.Store = StoreMemory; c.StorePath = "" }, ""},
		{"redis without url", func(c *Config) { c.Store = StoreRedis; c.RedisURL = "" }, "redis URL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadServerRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := LoadServer(); err == nil {
		t.Fatal("expected an error without GEMINI_API_KEY")
	}
}

func TestLoadServer(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer failed: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitRequests != 5 || cfg.RateLimitWindow != 10*time.Second {
		t.Errorf("rate limit = %d per %v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should default to false")
	}
}
