package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// GateConfig holds the recognized invocation-gate options. Immutable per
// gate instance once loaded.
type GateConfig struct {
	HourlyLimit int           `yaml:"hourly_limit"`
	DailyLimit  int           `yaml:"daily_limit"`
	DefaultTTL  time.Duration `yaml:"default_ttl"`
	StrictMode  bool          `yaml:"strict_mode"`
	Timeout     time.Duration `yaml:"timeout"` // raw completion call timeout
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Capacity        int           `yaml:"capacity"`
	JanitorInterval time.Duration `yaml:"janitor_interval"` // 0 disables the sweep
	Redis           RedisConfig   `yaml:"redis"`
}

// RedisConfig configures the optional Redis-backed cache level.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Config is the complete configuration of the extraction layer.
type Config struct {
	Gate  GateConfig  `yaml:"gate"`
	Cache CacheConfig `yaml:"cache"`
}

// Default returns the configuration used when nothing is supplied.
func Default() *Config {
	return &Config{
		Gate: GateConfig{
			HourlyLimit: 30,
			DailyLimit:  200,
			DefaultTTL:  time.Hour,
			StrictMode:  false,
			Timeout:     60 * time.Second,
		},
		Cache: CacheConfig{
			Capacity:        1000,
			JanitorInterval: 5 * time.Minute,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "souschef:response:",
			},
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides recognized options from SOUSCHEF_* variables.
func applyEnv(cfg *Config) {
	if v, ok := lookupInt("SOUSCHEF_HOURLY_LIMIT"); ok {
		cfg.Gate.HourlyLimit = v
	}
	if v, ok := lookupInt("SOUSCHEF_DAILY_LIMIT"); ok {
		cfg.Gate.DailyLimit = v
	}
	if v, ok := lookupDuration("SOUSCHEF_DEFAULT_TTL"); ok {
		cfg.Gate.DefaultTTL = v
	}
	if v, ok := lookupBool("SOUSCHEF_STRICT_MODE"); ok {
		cfg.Gate.StrictMode = v
	}
	if v, ok := lookupDuration("SOUSCHEF_TIMEOUT"); ok {
		cfg.Gate.Timeout = v
	}
	if v, ok := lookupBool("SOUSCHEF_REDIS_ENABLED"); ok {
		cfg.Cache.Redis.Enabled = v
	}
	if v := os.Getenv("SOUSCHEF_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("SOUSCHEF_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
}

// Validate rejects configurations the gate cannot run with.
func (c *Config) Validate() error {
	if c.Gate.HourlyLimit < 0 || c.Gate.DailyLimit < 0 {
		return fmt.Errorf("quota limits must be >= 0")
	}
	if c.Gate.DefaultTTL <= 0 {
		return fmt.Errorf("default_ttl must be positive")
	}
	if c.Gate.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive")
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis enabled but no addr configured")
	}
	return nil
}

func lookupInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func lookupDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
