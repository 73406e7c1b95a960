package config

import (
	"time"

	redisclient "github.com/castforge/castforge/internal/infra/redis"
	"github.com/castforge/castforge/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Logging   LoggingConfig      `yaml:"logging"`
	Media     MediaConfig        `yaml:"media"`
	Database  postgres.Config    `yaml:"database"`
	Redis     redisclient.Config `yaml:"redis"`
	Providers ProvidersConfig    `yaml:"providers"`
	Retry     RetryConfig        `yaml:"retry"`
	Chunking  ChunkingConfig     `yaml:"chunking"`
	Audio     AudioConfig        `yaml:"audio"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MediaConfig locates the artifact store on disk.
type MediaConfig struct {
	Dir string `yaml:"dir"`
	// Retention prunes completed episodes and their artifacts after
	// this window. Zero disables pruning.
	Retention time.Duration `yaml:"retention"`
}

// ProvidersConfig holds credentials, models, and per-capability chain
// ordering. Secrets are injected via ${ENV} expansion in the yaml.
type ProvidersConfig struct {
	ElevenLabsAPIKey string `yaml:"elevenlabs_api_key"`
	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenRouterAPIKey string `yaml:"openrouter_api_key"`
	OpenAIModel      string `yaml:"openai_model"`
	OpenRouterModel  string `yaml:"openrouter_model"`

	Synthesis  CapabilityConfig `yaml:"synthesis"`
	Generation CapabilityConfig `yaml:"generation"`
	Scrape     CapabilityConfig `yaml:"scrape"`
}

// CapabilityConfig is the per-capability chain configuration.
type CapabilityConfig struct {
	// Order is the fixed default provider ordering for the chain.
	Order []string `yaml:"order"`
	// Timeout applies per provider invocation.
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig maps onto the resilience retry policy.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	Backoff    *bool         `yaml:"exponential_backoff"` // nil means enabled
}

// BackoffEnabled resolves the tri-state yaml flag.
func (r RetryConfig) BackoffEnabled() bool {
	return r.Backoff == nil || *r.Backoff
}

// ChunkingConfig holds the chunk planner bounds.
type ChunkingConfig struct {
	CoarseMaxLen int `yaml:"coarse_max_len"`
	FineMaxLen   int `yaml:"fine_max_len"`
}

// AudioConfig holds the enhancement pass settings.
type AudioConfig struct {
	FFmpegBinary string `yaml:"ffmpeg_binary"`
	FilterGraph  string `yaml:"filter_graph"`
	Enhance      *bool  `yaml:"enhance"` // nil means enabled
}

// EnhanceEnabled resolves the tri-state yaml flag.
func (a AudioConfig) EnhanceEnabled() bool {
	return a.Enhance == nil || *a.Enhance
}
