package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file. Environment variables in
// the file body are expanded before parsing so secrets stay out of
// version control.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = "media"
	}

	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = 1 * time.Second
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 10 * time.Second
	}

	if cfg.Chunking.CoarseMaxLen == 0 {
		cfg.Chunking.CoarseMaxLen = 4000
	}
	if cfg.Chunking.FineMaxLen == 0 {
		cfg.Chunking.FineMaxLen = 500
	}

	if len(cfg.Providers.Synthesis.Order) == 0 {
		cfg.Providers.Synthesis.Order = []string{"elevenlabs", "openai"}
	}
	if cfg.Providers.Synthesis.Timeout == 0 {
		cfg.Providers.Synthesis.Timeout = 60 * time.Second
	}
	if len(cfg.Providers.Generation.Order) == 0 {
		cfg.Providers.Generation.Order = []string{"openai", "openrouter"}
	}
	if cfg.Providers.Generation.Timeout == 0 {
		cfg.Providers.Generation.Timeout = 120 * time.Second
	}
	if len(cfg.Providers.Scrape.Order) == 0 {
		cfg.Providers.Scrape.Order = []string{"readability", "goquery"}
	}
	if cfg.Providers.Scrape.Timeout == 0 {
		cfg.Providers.Scrape.Timeout = 30 * time.Second
	}
}
