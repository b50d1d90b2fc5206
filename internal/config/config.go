// Package config loads futurecast configuration from
// .futurecast/config.yaml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all futurecast configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Generation client configuration
	LLM LLMConfig `yaml:"llm"`

	// Pipeline behavior
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Run persistence
	Store StoreConfig `yaml:"store"`

	// Query endpoint
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the generation client.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`

	// MaxRetries bounds the 429 backoff loop. Zero preserves the
	// fail-fast no-retry behavior.
	MaxRetries int `yaml:"max_retries"`

	// RequestSpacing is the minimum interval between API requests.
	RequestSpacing string `yaml:"request_spacing"`
}

// PipelineConfig configures the run orchestrator.
type PipelineConfig struct {
	// ScenarioCount is the number of scenarios requested per run.
	ScenarioCount int `yaml:"scenario_count"`

	// MaxInFlight caps concurrent generation calls for one run.
	// 1 processes everything sequentially.
	MaxInFlight int `yaml:"max_in_flight"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	// DocsDir receives the rendered Markdown documents.
	DocsDir string `yaml:"docs_dir"`

	// DatabasePath is the SQLite run index location.
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig configures the query endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "futurecast",
		Version: "0.1.0",

		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			BaseURL:        "https://api.openai.com/v1",
			Timeout:        "120s",
			MaxRetries:     0,
			RequestSpacing: "100ms",
		},

		Pipeline: PipelineConfig{
			ScenarioCount: 2,
			MaxInFlight:   1,
		},

		Store: StoreConfig{
			DocsDir:      "logs",
			DatabasePath: filepath.Join(".futurecast", "runs.db"),
		},

		Server: ServerConfig{
			Addr: ":3003",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("FUTURECAST_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("FUTURECAST_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("FUTURECAST_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if addr := os.Getenv("FUTURECAST_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if dir := os.Getenv("FUTURECAST_DOCS_DIR"); dir != "" {
		c.Store.DocsDir = dir
	}
	if path := os.Getenv("FUTURECAST_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if n := os.Getenv("FUTURECAST_MAX_IN_FLIGHT"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			c.Pipeline.MaxInFlight = v
		}
	}
}

// GetLLMTimeout returns the generation client timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetRequestSpacing returns the minimum API request interval.
func (c *Config) GetRequestSpacing() time.Duration {
	d, err := time.ParseDuration(c.LLM.RequestSpacing)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY or FUTURECAST_API_KEY)")
	}
	if c.Pipeline.ScenarioCount < 1 {
		return fmt.Errorf("pipeline.scenario_count must be at least 1, got %d", c.Pipeline.ScenarioCount)
	}
	if c.Pipeline.MaxInFlight < 1 {
		return fmt.Errorf("pipeline.max_in_flight must be at least 1, got %d", c.Pipeline.MaxInFlight)
	}
	return nil
}
