// Package config handles viewerscope configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Presence PresenceConfig `json:"presence"`
	Geo      GeoConfig      `json:"geo"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	StaticDir      string   `json:"static_dir"`      // empty disables static serving
	MaxConnections int      `json:"max_connections"` // 0 = unlimited
	ReadTimeout    Duration `json:"read_timeout"`
	WriteTimeout   Duration `json:"write_timeout"`
}

// PresenceConfig for the connection registry and liveness sweep
type PresenceConfig struct {
	SweepInterval   Duration `json:"sweep_interval"`
	WriteTimeout    Duration `json:"write_timeout"`
	MaxMessageBytes int64    `json:"max_message_bytes"`
}

// GeoConfig for IP location resolution
type GeoConfig struct {
	CityDatabase       string   `json:"city_database"` // MaxMind .mmdb, optional
	ASNDatabase        string   `json:"asn_database"`  // MaxMind ASN .mmdb, optional
	Providers          []string `json:"providers"`     // upstream HTTP providers, in order
	Timeout            Duration `json:"timeout"`
	CacheTTL           Duration `json:"cache_ttl"`
	CachePurgeInterval Duration `json:"cache_purge_interval"`
}

// LoggingConfig for the process logger
type LoggingConfig struct {
	Level string `json:"level"`
}

// Duration is a time.Duration that reads and writes as "30s" in JSON
type Duration struct {
	time.Duration
}

// MarshalJSON renders the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "30s" style strings or integer seconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		d.Duration = parsed
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds: %s", data)
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         3000,
			Host:         "",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{15 * time.Second},
		},
		Presence: PresenceConfig{
			SweepInterval:   Duration{30 * time.Second},
			WriteTimeout:    Duration{10 * time.Second},
			MaxMessageBytes: 4096,
		},
		Geo: GeoConfig{
			Providers:          []string{"ip-api", "ipapi.co"},
			Timeout:            Duration{3 * time.Second},
			CacheTTL:           Duration{6 * time.Hour},
			CachePurgeInterval: Duration{10 * time.Minute},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads config from file, falling back to defaults, then applies env overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	if dir := os.Getenv("STATIC_DIR"); dir != "" {
		c.Server.StaticDir = dir
	}
	if db := os.Getenv("GEOIP_CITY_DB"); db != "" {
		c.Geo.CityDatabase = db
	}
	if db := os.Getenv("GEOIP_ASN_DB"); db != "" {
		c.Geo.ASNDatabase = db
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must be >= 0")
	}
	if c.Presence.SweepInterval.Duration <= 0 {
		return fmt.Errorf("presence.sweep_interval must be positive")
	}
	if c.Presence.WriteTimeout.Duration <= 0 {
		return fmt.Errorf("presence.write_timeout must be positive")
	}
	if c.Geo.Timeout.Duration <= 0 {
		return fmt.Errorf("geo.timeout must be positive")
	}
	for _, p := range c.Geo.Providers {
		switch p {
		case "ip-api", "ipapi.co":
		default:
			return fmt.Errorf("unknown geo provider %q", p)
		}
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
