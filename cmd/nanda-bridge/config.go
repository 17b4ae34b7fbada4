package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the TOML configuration for the CLI. Timeouts are in seconds.
type fileConfig struct {
	Python                string `toml:"python"`
	Script                string `toml:"script"`
	CommandTimeoutSeconds int    `toml:"command_timeout"`
	InitTimeoutSeconds    int    `toml:"init_timeout"`

	Server serverConfig `toml:"server"`
}

// serverConfig configures the serve subcommand.
type serverConfig struct {
	AnthropicKey string `toml:"anthropic_key"`
	Domain       string `toml:"domain"`
	AgentID      string `toml:"agent_id"`
	Port         int    `toml:"port"`
	APIPort      int    `toml:"api_port"`
	Registry     string `toml:"registry"`
}

// loadConfig reads a TOML config file. A missing path yields defaults.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}

	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
