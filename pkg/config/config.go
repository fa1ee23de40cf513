package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/store"
)

// Defaults.
const (
	DefaultPort              = 4280
	DefaultAdminPort         = 4290
	DefaultHost              = "0.0.0.0"
	DefaultJournalMaxEntries = 1000
	DefaultNearMisses        = 3
	DefaultMaxBodySize       = 10 << 20
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Admin   AdminConfig   `koanf:"admin"`
	Engine  EngineConfig  `koanf:"engine"`
	Store   StoreConfig   `koanf:"store"`
	Journal JournalConfig `koanf:"journal"`
	Log     LogConfig     `koanf:"log"`

	// Seed is a seed file path or glob applied at startup.
	Seed string `koanf:"seed"`
}

// ServerConfig configures the mock traffic listener.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// AdminConfig configures the admin API listener.
type AdminConfig struct {
	Port        int      `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is requests per second per client. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// Metrics serves GET /metrics on the admin listener. Defaults to true.
	Metrics *bool `koanf:"metrics"`
}

// EngineConfig tunes request matching.
type EngineConfig struct {
	MaxBodySize int64 `koanf:"max_body_size"`
	NearMisses  *int  `koanf:"near_misses"`
}

// StoreConfig selects where stubs are kept.
type StoreConfig struct {
	Backend string `koanf:"backend"`
	DataDir string `koanf:"data_dir"`
}

// JournalConfig bounds the request journal.
type JournalConfig struct {
	MaxEntries int `koanf:"max_entries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// envOverrides maps environment variables onto config keys.
var envOverrides = map[string]string{
	"STUBD_HOST":                "server.host",
	"STUBD_PORT":                "server.port",
	"STUBD_ADMIN_PORT":          "admin.port",
	"STUBD_ADMIN_RATE_LIMIT":    "admin.rate_limit",
	"STUBD_ADMIN_METRICS":       "admin.metrics",
	"STUBD_STORE":               "store.backend",
	"STUBD_DATA_DIR":            "store.data_dir",
	"STUBD_JOURNAL_MAX_ENTRIES": "journal.max_entries",
	"STUBD_LOG_LEVEL":           "log.level",
	"STUBD_LOG_FORMAT":          "log.format",
	"STUBD_SEED":                "seed",
	"STUBD_MAX_BODY_SIZE":       "engine.max_body_size",
	"STUBD_NEAR_MISSES":         "engine.near_misses",
}

// listEnvOverrides are comma-separated lists.
var listEnvOverrides = map[string]string{
	"STUBD_CORS_ORIGINS": "admin.cors_origins",
}

// ConfigFileEnv names the environment variable holding a config file path.
const ConfigFileEnv = "STUBD_CONFIG"

// Load reads configFile (or the discovered default), applies environment
// overrides and defaults, and validates the result.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnv)
	}
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	for envKey, configKey := range envOverrides {
		if val := os.Getenv(envKey); val != "" {
			if err := k.Set(configKey, val); err != nil {
				return nil, fmt.Errorf("error setting %s from env: %w", envKey, err)
			}
		}
	}
	for envKey, configKey := range listEnvOverrides {
		if val := os.Getenv(envKey); val != "" {
			if err := k.Set(configKey, splitList(val)); err != nil {
				return nil, fmt.Errorf("error setting %s from env: %w", envKey, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = DefaultAdminPort
	}
	if cfg.Admin.Metrics == nil {
		enabled := true
		cfg.Admin.Metrics = &enabled
	}
	if cfg.Engine.MaxBodySize == 0 {
		cfg.Engine.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Engine.NearMisses == nil {
		n := DefaultNearMisses
		cfg.Engine.NearMisses = &n
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = string(store.BackendMemory)
	}
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = store.DefaultDataDir()
	}
	if cfg.Journal.MaxEntries == 0 {
		cfg.Journal.MaxEntries = DefaultJournalMaxEntries
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Validate checks the configuration, reporting every problem at once.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1-65535, got %d", cfg.Server.Port))
	}
	if cfg.Admin.Port < 1 || cfg.Admin.Port > 65535 {
		errs = append(errs, fmt.Errorf("admin.port must be between 1-65535, got %d", cfg.Admin.Port))
	}
	if cfg.Server.Port == cfg.Admin.Port {
		errs = append(errs, fmt.Errorf("server.port and admin.port must differ, both are %d", cfg.Server.Port))
	}
	if cfg.Admin.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("admin.rate_limit must not be negative, got %g", cfg.Admin.RateLimit))
	}
	if cfg.Admin.RateBurst < 0 {
		errs = append(errs, fmt.Errorf("admin.rate_burst must not be negative, got %d", cfg.Admin.RateBurst))
	}
	if cfg.Engine.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("engine.max_body_size must not be negative, got %d", cfg.Engine.MaxBodySize))
	}
	if cfg.Engine.NearMisses != nil && *cfg.Engine.NearMisses < 0 {
		errs = append(errs, fmt.Errorf("engine.near_misses must not be negative, got %d", *cfg.Engine.NearMisses))
	}
	switch store.Backend(cfg.Store.Backend) {
	case store.BackendMemory, store.BackendFile:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be 'memory' or 'file', got %q", cfg.Store.Backend))
	}
	if cfg.Journal.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("journal.max_entries must not be negative, got %d", cfg.Journal.MaxEntries))
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error: %w", err))
	}
	if _, err := logging.ParseFormat(cfg.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format must be 'text' or 'json': %w", err))
	}

	return errors.Join(errs...)
}

// ServerAddr returns the traffic listen address.
func (cfg *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
}

// MetricsEnabled reports whether the admin API serves metrics.
func (cfg *Config) MetricsEnabled() bool {
	return cfg.Admin.Metrics == nil || *cfg.Admin.Metrics
}

// AdminAddr returns the admin listen address.
func (cfg *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Admin.Port)
}

func findConfigFile() string {
	for _, name := range []string{"stubd.yaml", "stubd.yml"} {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
