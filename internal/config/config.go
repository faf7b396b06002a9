// Package config loads process configuration from EDLOOKUP_* variables.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is shared by the web, cli and mcp binaries. Flags seed their
// defaults from it.
type Config struct {
	Port      int    `env:"EDLOOKUP_PORT" envDefault:"8080"`
	TCPPort   string `env:"EDLOOKUP_TCP_PORT" envDefault:"9000"`
	Store     string `env:"EDLOOKUP_STORE" envDefault:"yaml"`
	// StorePath is empty unless set; see DefaultStorePath.
	StorePath string `env:"EDLOOKUP_STORE_PATH"`
	Layout    string `env:"EDLOOKUP_LAYOUT"`
	BaseURL   string `env:"EDLOOKUP_BASE_URL" envDefault:"http://localhost:8080/"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// DefaultStorePath is the file a store of the given kind uses when no path
// is set. The memory store has none.
func DefaultStorePath(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "yaml", "yml":
		return "edlookup.yaml"
	case "sqlite":
		return "edlookup.db"
	}
	return ""
}

// StoreFile returns StorePath, or the default file for Store.
func (c Config) StoreFile() string {
	if c.StorePath != "" {
		return c.StorePath
	}
	return DefaultStorePath(c.Store)
}

// ParsedBaseURL returns BaseURL as a URL.
func (c Config) ParsedBaseURL() (*url.URL, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse EDLOOKUP_BASE_URL: %w", err)
	}
	return u, nil
}
