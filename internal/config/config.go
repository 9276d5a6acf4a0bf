// Package config loads datapilot configuration from a YAML file with
// environment overrides. Everything has a working default so the binary
// runs with no config at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all datapilot configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
	Documents DocumentsConfig `yaml:"documents"`
	Execution ExecutionConfig `yaml:"execution"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig configures the optional language-model collaborator.
type LLMConfig struct {
	// Provider selects the client: "openai", "gemini", or "" to disable.
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// DatabaseConfig configures the read-only SQL tool.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DocumentsConfig configures the document corpus.
type DocumentsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// ExecutionConfig bounds approved command execution.
type ExecutionConfig struct {
	Timeout        string `yaml:"timeout"`
	MaxOutputBytes int    `yaml:"max_output_bytes"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Timeout: "60s",
		},
		Database: DatabaseConfig{
			Path: "datapilot.db",
		},
		Documents: DocumentsConfig{
			Dir: "documents",
		},
		Execution: ExecutionConfig{
			Timeout:        "30s",
			MaxOutputBytes: 1 << 20,
		},
	}
}

// Load reads the config file at path, if it exists, and applies environment
// overrides. A missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err != nil && os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file for the values
// people most often need to change per shell.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATAPILOT_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DATAPILOT_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("DATAPILOT_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DATAPILOT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DATAPILOT_DOCS_DIR"); v != "" {
		cfg.Documents.Dir = v
	}
}

// LLMTimeout parses the LLM timeout, falling back to one minute.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, time.Minute)
}

// ExecutionTimeout parses the execution timeout, falling back to 30s.
func (c *Config) ExecutionTimeout() time.Duration {
	return parseDuration(c.Execution.Timeout, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
