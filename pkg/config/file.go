package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/sessionshard/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of a session handler.
type Config struct {
	// SavePath lists endpoints as URLs (see ParseSavePath).
	SavePath string `mapstructure:"save_path" yaml:"save_path,omitempty" json:"save_path,omitempty"`

	// Endpoints lists endpoints in structured form. They follow the SavePath ones.
	Endpoints []EndpointSpec `mapstructure:"endpoints" yaml:"endpoints,omitempty" json:"endpoints,omitempty"`

	// MaxLifetime is the TTL of every written session.
	MaxLifetime time.Duration `mapstructure:"max_lifetime" yaml:"max_lifetime,omitempty" json:"max_lifetime,omitempty"`

	LogLevel string     `mapstructure:"log_level" yaml:"log_level,omitempty" json:"log_level,omitempty"`
	Listen   string     `mapstructure:"listen" yaml:"listen,omitempty" json:"listen,omitempty"`
	Lock     LockConfig `mapstructure:"lock" yaml:"lock,omitempty" json:"lock,omitempty"`
}

// LockConfig enables distributed session locking when Addr is set.
type LockConfig struct {
	Addr   string        `mapstructure:"addr" yaml:"addr,omitempty" json:"addr,omitempty"`
	Prefix string        `mapstructure:"prefix" yaml:"prefix,omitempty" json:"prefix,omitempty"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// Default returns the configuration used for every key a file leaves unset.
func Default() Config {
	return Config{
		MaxLifetime: domain.DefaultMaxLifetime,
		LogLevel:    "info",
		Listen:      ":8080",
		Lock: LockConfig{
			Prefix: "sessionshard:",
			TTL:    30 * time.Second,
		},
	}
}

// Load reads a YAML or JSON (by extension) configuration file over Default.
// Durations accept Go duration strings ("24m") or plain seconds (1440).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// Parse decodes configuration bytes over Default.
func Parse(data []byte, isJSON bool) (Config, error) {
	var raw map[string]any
	if isJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("%w: failed to parse config json: %w", domain.ErrConfig, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("%w: failed to parse config yaml: %w", domain.ErrConfig, err)
		}
	}

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return cfg, nil
}

// ResolveEndpoints returns the SavePath endpoints followed by the structured ones.
func (c Config) ResolveEndpoints() ([]domain.Endpoint, error) {
	var endpoints []domain.Endpoint

	if strings.TrimSpace(c.SavePath) != "" {
		parsed, err := ParseSavePath(c.SavePath)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, parsed...)
	}

	for i, spec := range c.Endpoints {
		ep, err := spec.Endpoint()
		if err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		endpoints = append(endpoints, ep)
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: neither save_path nor endpoints configured", domain.ErrConfig)
	}
	return endpoints, nil
}

// Validate checks the settings that do not depend on the endpoints.
func (c Config) Validate() error {
	if c.MaxLifetime < time.Second {
		return fmt.Errorf("%w: max_lifetime must be at least one second, got %s", domain.ErrConfig, c.MaxLifetime)
	}
	if c.Lock.Addr != "" && c.Lock.TTL <= 0 {
		return fmt.Errorf("%w: lock.ttl must be positive", domain.ErrConfig)
	}
	return nil
}
