// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	Settings SettingsConfig `yaml:"settings"`
	Requests RequestsConfig `yaml:"requests"`
}

// ServerConfig represents the HTTP server configuration.
type ServerConfig struct {
	Addr        string   `yaml:"addr" default:":8520"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
	SearchLimit  int    `yaml:"search_limit" default:"50" validate:"gte=1,lte=50"`
}

// SettingsConfig represents the settings store configuration.
type SettingsConfig struct {
	Path string `yaml:"path" default:"spotlink.db"`
}

// RequestsConfig holds the default filter settings applied when the host
// omits them from an enqueue request.
type RequestsConfig struct {
	MaxLengthMinutes float64 `yaml:"max_length_minutes" validate:"gte=0"`
	FilterExplicit   bool    `yaml:"filter_explicit"`
	AllowDuplicates  bool    `yaml:"allow_duplicates"`
}

// MaxLength returns the request default maximum length as a duration.
func (c RequestsConfig) MaxLength() time.Duration {
	return time.Duration(c.MaxLengthMinutes * float64(time.Minute))
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides sensitive fields with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
