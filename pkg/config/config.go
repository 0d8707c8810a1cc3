// Package config loads devchat configuration from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/devchat/pkg/completion"
	"github.com/papercomputeco/devchat/pkg/session"
)

// Environment variables that override file values.
const (
	EnvAPIKey       = "OPENROUTER_API_KEY"
	EnvLegacyAPIKey = "VITE_OPENROUTER_API_KEY"
	EnvModel        = "DEVCHAT_MODEL"
)

// Config is the full devchat configuration.
type Config struct {
	Debug      bool       `toml:"debug"`
	OpenRouter OpenRouter `toml:"openrouter"`
	Chat       Chat       `toml:"chat"`
	Server     Server     `toml:"server"`
}

// OpenRouter configures the chat-completion endpoint.
type OpenRouter struct {
	APIKey         string `toml:"api_key"`
	APIURL         string `toml:"api_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Chat configures conversation behaviour.
type Chat struct {
	// ImageDelay is a Go duration string ("1500ms", "0s").
	ImageDelay string `toml:"image_delay"`
	Greeting   string `toml:"greeting"`
}

// Server configures the HTTP API.
type Server struct {
	Listen string `toml:"listen"`

	// DBPath is the transcript database. Empty keeps transcripts in memory.
	DBPath string `toml:"db_path"`

	// RateLimit is the sustained number of submissions per second per session.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OpenRouter: OpenRouter{
			APIURL:         completion.DefaultAPIURL,
			Model:          completion.DefaultModel,
			Referer:        completion.DefaultReferer,
			Title:          completion.DefaultTitle,
			TimeoutSeconds: int(completion.DefaultTimeout / time.Second),
		},
		Chat: Chat{
			ImageDelay: session.DefaultImageDelay.String(),
		},
		Server: Server{
			Listen:    ":8080",
			RateLimit: 1,
			RateBurst: 3,
		},
	}
}

// DefaultPath returns ~/.devchat/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".devchat", "config.toml")
	}
	return filepath.Join(home, ".devchat", "config.toml")
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		c.OpenRouter.APIKey = key
	} else if key := strings.TrimSpace(os.Getenv(EnvLegacyAPIKey)); key != "" {
		c.OpenRouter.APIKey = key
	}
	if model := strings.TrimSpace(os.Getenv(EnvModel)); model != "" {
		c.OpenRouter.Model = model
	}
}

// Validate checks value formats. A missing credential is not a format
// problem; see CheckCredential.
func (c Config) Validate() error {
	if _, err := c.parseImageDelay(); err != nil {
		return err
	}
	if c.OpenRouter.TimeoutSeconds < 0 {
		return errors.New("openrouter.timeout_seconds must not be negative")
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New("server.rate_limit and server.rate_burst must not be negative")
	}
	return nil
}

// CheckCredential reports a missing API key as a ConfigurationError so it can
// be surfaced at startup rather than on the first chat message.
func (c Config) CheckCredential() error {
	if strings.TrimSpace(c.OpenRouter.APIKey) == "" {
		return &completion.ConfigurationError{
			Reason: fmt.Sprintf("no API key configured (set %s or openrouter.api_key)", EnvAPIKey),
		}
	}
	return nil
}

// ImageDelay returns the parsed image delay. Validate guarantees it parses.
func (c Config) ImageDelay() time.Duration {
	d, _ := c.parseImageDelay()
	return d
}

func (c Config) parseImageDelay() (time.Duration, error) {
	if strings.TrimSpace(c.Chat.ImageDelay) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Chat.ImageDelay)
	if err != nil {
		return 0, fmt.Errorf("chat.image_delay: %w", err)
	}
	if d < 0 {
		return 0, errors.New("chat.image_delay must not be negative")
	}
	return d, nil
}

// Completion returns the completion client configuration.
func (c Config) Completion() completion.Config {
	return completion.Config{
		APIKey:  c.OpenRouter.APIKey,
		APIURL:  c.OpenRouter.APIURL,
		Model:   c.OpenRouter.Model,
		Referer: c.OpenRouter.Referer,
		Title:   c.OpenRouter.Title,
		Timeout: time.Duration(c.OpenRouter.TimeoutSeconds) * time.Second,
	}
}
