package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the client.
//
// CallTimeout bounds every call to the remote auth and profile services;
// an expired call is reported as a network failure.
type Config struct {
	ServerEndpointAddr string
	CallTimeout        time.Duration
	DatabasePath       string
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.CallTimeout = 5 * time.Second
	c.DatabasePath = "desk.db"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the JSON file and flags
// found in os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("config flags: %w", err)
	}
	if cfg.CallTimeout <= 0 {
		return nil, fmt.Errorf("call timeout must be positive, got %s", cfg.CallTimeout)
	}
	return cfg, nil
}
