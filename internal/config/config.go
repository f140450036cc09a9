// Package config loads the hub configuration from YAML with environment
// overrides for deployment secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/technosupport/ts-media-hub/internal/engines"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	SigningKey string `yaml:"signing_key"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type NATSConfig struct {
	URL             string `yaml:"url"`
	Subject         string `yaml:"subject"`
	PublishRetryMax int    `yaml:"publish_retry_max"`
}

type EntitiesConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Auth     AuthConfig              `yaml:"auth"`
	Redis    RedisConfig             `yaml:"redis"`
	NATS     NATSConfig              `yaml:"nats"`
	Entities EntitiesConfig          `yaml:"entities"`
	Cameras  []*engines.CameraConfig `yaml:"cameras"`
}

// Load reads the YAML file at path and applies env overrides. Redis and
// NATS are optional; empty addresses disable them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("MEDIAHUB_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("JWT_SIGNING_KEY"); v != "" {
		cfg.Auth.SigningKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("ENTITIES_URL"); v != "" {
		cfg.Entities.URL = v
	}
	if v := os.Getenv("ENTITIES_TOKEN"); v != "" {
		cfg.Entities.Token = v
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Auth.SigningKey == "" {
		cfg.Auth.SigningKey = "dev-secret-do-not-use-in-prod"
	}
	if len(cfg.Cameras) == 0 {
		return nil, fmt.Errorf("config: no cameras defined")
	}
	return &cfg, nil
}
