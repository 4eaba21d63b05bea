// Package config loads the monitor's settings once at startup.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tweet-monitor/pkg/log"
)

// Config is the immutable runtime configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Processing ProcessingConfig `yaml:"processing"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	ServiceName string `yaml:"service_name"`
	BodyLimit   int    `yaml:"body_limit_bytes"`
}

// AuthConfig holds the shared secret. An empty APIKey disables
// authentication.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ProcessingConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

// StorageConfig enables the daily JSON file store when Dir is set.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// RedisConfig enables the Redis store when Addr is set.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	Retention time.Duration `yaml:"retention"`
}

// NATSConfig enables the NATS publisher when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Token   string `yaml:"token"`
}

// Addr returns host:port for the listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// APIKeyConfigured reports whether a non-empty secret is present.
func (c *Config) APIKeyConfigured() bool {
	return c.Auth.APIKey != ""
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			ServiceName: "TwitterAPI Monitor",
			BodyLimit:   4 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "twitter_monitor.log",
		},
		Processing: ProcessingConfig{
			Timeout:  10 * time.Second,
			DedupTTL: 10 * time.Minute,
		},
		Storage: StorageConfig{Dir: "data"},
		Redis: RedisConfig{
			KeyPrefix: "tweet-monitor",
			Retention: 7 * 24 * time.Hour,
		},
		NATS: NATSConfig{Subject: "tweets.received"},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and the environment, each
// layer overriding the previous one.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnv(&cfg, os.LookupEnv)
	return &cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			log.GlobalWarn("invalid integer in environment, using default", "key", key, "value", v, "default", *dst)
			return
		}
		*dst = n
	}
	dur := func(key string, unit time.Duration, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.GlobalWarn("invalid duration in environment, using default", "key", key, "value", v, "default", dst.String())
			return
		}
		*dst = time.Duration(n) * unit
	}

	str("TWITTER_API_KEY", &cfg.Auth.APIKey)
	str("HOST", &cfg.Server.Host)
	num("PORT", &cfg.Server.Port)
	str("SERVICE_NAME", &cfg.Server.ServiceName)
	num("BODY_LIMIT_BYTES", &cfg.Server.BodyLimit)

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.File)

	dur("PROCESSOR_TIMEOUT_SECONDS", time.Second, &cfg.Processing.Timeout)
	dur("DEDUP_TTL_MINUTES", time.Minute, &cfg.Processing.DedupTTL)

	str("TWEETS_DIR", &cfg.Storage.Dir)

	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	num("REDIS_DB", &cfg.Redis.DB)
	str("REDIS_KEY_PREFIX", &cfg.Redis.KeyPrefix)
	dur("REDIS_RETENTION_HOURS", time.Hour, &cfg.Redis.Retention)

	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT", &cfg.NATS.Subject)
	str("NATS_TOKEN", &cfg.NATS.Token)
}
