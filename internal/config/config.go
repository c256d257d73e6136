// Package config loads the YAML configuration used by the serve and notify
// commands. Environment variables take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitual/internal/constants"
)

var ErrMissingJWTSecret = errors.New("jwt_secret is required to serve the HTTP API")

type PushConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ReminderConfig struct {
	DedupeTTL time.Duration `yaml:"dedupe_ttl"`
}

type Config struct {
	Listen       string         `yaml:"listen"`
	JWTSecret    string         `yaml:"jwt_secret"`
	CronSecret   string         `yaml:"cron_secret"`
	DBConnection string         `yaml:"db_connection"`
	Push         PushConfig     `yaml:"push"`
	Redis        RedisConfig    `yaml:"redis"`
	Reminder     ReminderConfig `yaml:"reminder"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		Listen:   constants.DefaultListenAddr,
		Reminder: ReminderConfig{DedupeTTL: constants.DefaultDedupeTTL},
	}
}

// Load reads path (when non-empty and present), applies environment
// overrides and fills defaults. A missing file is not an error when
// required is false.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case os.IsNotExist(err) && !required:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := OverrideFromEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Listen == "" {
		cfg.Listen = constants.DefaultListenAddr
	}
	if cfg.Reminder.DedupeTTL <= 0 {
		cfg.Reminder.DedupeTTL = constants.DefaultDedupeTTL
	}
	return cfg, nil
}

// OverrideFromEnv applies HABITUAL_* environment variables.
func OverrideFromEnv(cfg *Config) error {
	if v := os.Getenv("HABITUAL_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("HABITUAL_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("HABITUAL_CRON_SECRET"); v != "" {
		cfg.CronSecret = v
	}
	if v := os.Getenv("HABITUAL_DB_CONNECTION"); v != "" {
		cfg.DBConnection = v
	}
	if v := os.Getenv("HABITUAL_PUSH_ENDPOINT"); v != "" {
		cfg.Push.Endpoint = v
	}
	if v := os.Getenv("HABITUAL_PUSH_API_KEY"); v != "" {
		cfg.Push.APIKey = v
	}
	if v := os.Getenv("HABITUAL_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("HABITUAL_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("HABITUAL_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HABITUAL_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("HABITUAL_DEDUPE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HABITUAL_DEDUPE_TTL: %w", err)
		}
		cfg.Reminder.DedupeTTL = ttl
	}
	return nil
}

// ValidateForServe checks the settings the HTTP API cannot run without.
func (c *Config) ValidateForServe() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
