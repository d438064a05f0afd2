package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// Default Config Tests
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Presence.SweepInterval.Duration != 30*time.Second {
		t.Errorf("Presence.SweepInterval = %v, want 30s", cfg.Presence.SweepInterval)
	}
	if len(cfg.Geo.Providers) != 2 || cfg.Geo.Providers[0] != "ip-api" {
		t.Errorf("Geo.Providers = %v, want [ip-api ipapi.co]", cfg.Geo.Providers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate, got %v", err)
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"server": {"port": 9000, "static_dir": "/srv/www"},
		"presence": {"sweep_interval": "5s"},
		"geo": {"providers": ["ipapi.co"], "timeout": 2}
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.StaticDir != "/srv/www" {
		t.Errorf("Server.StaticDir = %q", cfg.Server.StaticDir)
	}
	if cfg.Presence.SweepInterval.Duration != 5*time.Second {
		t.Errorf("SweepInterval = %v, want 5s", cfg.Presence.SweepInterval)
	}
	if cfg.Geo.Timeout.Duration != 2*time.Second {
		t.Errorf("Geo.Timeout = %v, want 2s", cfg.Geo.Timeout)
	}
	// untouched sections keep defaults
	if cfg.Presence.WriteTimeout.Duration != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want default 10s", cfg.Presence.WriteTimeout)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0600)

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on invalid JSON")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4242")
	t.Setenv("STATIC_DIR", "/tmp/public")
	t.Setenv("GEOIP_CITY_DB", "/data/city.mmdb")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 4242 {
		t.Errorf("Server.Port = %d, want 4242", cfg.Server.Port)
	}
	if cfg.Server.StaticDir != "/tmp/public" {
		t.Errorf("StaticDir = %q", cfg.Server.StaticDir)
	}
	if cfg.Geo.CityDatabase != "/data/city.mmdb" {
		t.Errorf("CityDatabase = %q", cfg.Geo.CityDatabase)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidPortEnv(t *testing.T) {
	t.Setenv("PORT", "eighty")

	if _, err := Load(""); err == nil {
		t.Error("Load() should reject a non-numeric PORT")
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"negative max connections", func(c *Config) { c.Server.MaxConnections = -1 }},
		{"zero sweep", func(c *Config) { c.Presence.SweepInterval = Duration{} }},
		{"zero write timeout", func(c *Config) { c.Presence.WriteTimeout = Duration{} }},
		{"zero geo timeout", func(c *Config) { c.Geo.Timeout = Duration{} }},
		{"unknown provider", func(c *Config) { c.Geo.Providers = []string{"geo-magic"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

// =============================================================================
// Save / Duration Tests
// =============================================================================

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Server.Port = 8181

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", loaded.Server.Port)
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Duration{90 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"1m30s"` {
		t.Errorf("Marshal = %s, want \"1m30s\"", data)
	}
}

func TestDuration_UnmarshalJSON_Invalid(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("expected error for unparseable duration")
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Error("expected error for boolean duration")
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	if got := cfg.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("Addr() = %q", got)
	}
}
