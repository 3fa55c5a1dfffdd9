package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds everything the runtime needs to reach its collaborators.
// Values come from the config file, the PARTYROUND_* environment, and
// flags, in rising priority.
type Config struct {
	ConfigPath    string `yaml:"-"`
	ServerURL     string `yaml:"server_url"`
	ContentURL    string `yaml:"content_url"`
	ContentAPIKey string `yaml:"content_api_key"`
	NATSURL       string `yaml:"nats_url"`
	Token         string `yaml:"token"`
	RoundTimerSec int    `yaml:"round_timer_sec"`
	DataDir       string `yaml:"data_dir"`
	LogLevel      string `yaml:"log_level"`
}

func defaultConfig() *Config {
	dataDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".partyround")
	}
	return &Config{
		ServerURL:     "ws://localhost:8080/ws",
		ContentURL:    "http://localhost:8080/api",
		RoundTimerSec: 30,
		DataDir:       dataDir,
		LogLevel:      "info",
	}
}

func (c *Config) validate() error {
	if c.RoundTimerSec <= 0 {
		return fmt.Errorf("invalid round timer: %d", c.RoundTimerSec)
	}
	if c.ContentURL == "" {
		return fmt.Errorf("content URL is required")
	}
	return nil
}

// loadFile merges a yaml config file into c. A missing file at the
// default path is fine; an explicitly given path must exist.
func (c *Config) loadFile() error {
	path := c.ConfigPath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(c.DataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	fileCfg := *c
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*c = fileCfg
	return nil
}
