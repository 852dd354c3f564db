// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers a .env file, an optional YAML file and SKILLHUB_* env vars on top.
//   - Errors are wrapped with this package's sentinels.
package config

import (
	"time"
)

// KV backend names accepted by KVBackend.
const (
	BackendAuto   = ""
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BaseURL is the public URL used for absolute links in the feed.
	BaseURL string `koanf:"base_url"`

	// SiteTitle names the catalog in the feed and landing page.
	SiteTitle string `koanf:"site_title"`

	// SkillsDir is the catalog root: one directory per skill.
	SkillsDir string `koanf:"skills_dir"`

	// AdminSecret guards admin routes. Empty disables admin login.
	AdminSecret string `koanf:"admin_secret"`

	// TokenTTL bounds the lifetime of issued admin tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// KVBackend picks the key-value store: redis, sqlite, memory or none.
	// Empty selects redis when a redis address or URL is set, none otherwise.
	KVBackend string `koanf:"kv_backend"`

	// RedisURL takes precedence over RedisAddr/RedisPassword/RedisDB.
	RedisURL      string `koanf:"redis_url"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// ScanCount is the COUNT hint per scan page.
	ScanCount int `koanf:"scan_count"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":8080",
		BaseURL:   "http://localhost:8080",
		SiteTitle: "Skills Hub",
		SkillsDir: "skills",
		TokenTTL:  12 * time.Hour,
		KVBackend: BackendAuto,
		ScanCount: 100,
	}
}

// Backend resolves the effective KV backend name.
func (c *Config) Backend() string {
	if c.KVBackend != BackendAuto {
		return c.KVBackend
	}
	if c.RedisURL != "" || c.RedisAddr != "" {
		return BackendRedis
	}
	return BackendNone
}
