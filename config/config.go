package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a flow runtime.
type Config struct {
	Router   RouterConfig   `yaml:"router" json:"router"`
	Debugger DebuggerConfig `yaml:"debugger" json:"debugger"`
	Trace    TraceConfig    `yaml:"trace" json:"trace"`
	Flow     FlowConfig     `yaml:"flow" json:"flow"`
}

// DefaultConfig returns a Config with defaults for all sections.
func DefaultConfig() Config {
	return Config{
		Router:   DefaultRouterConfig(),
		Debugger: DefaultDebuggerConfig(),
		Trace:    DefaultTraceConfig(),
		Flow:     DefaultFlowConfig(),
	}
}

// Merge applies non-zero values from source into c, section by section.
func (c *Config) Merge(source *Config) {
	c.Router.Merge(&source.Router)
	c.Debugger.Merge(&source.Debugger)
	c.Trace.Merge(&source.Trace)
	c.Flow.Merge(&source.Flow)
}

// Parse expands ${VAR} references in data, decodes it as YAML and merges the
// result over defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var loaded Config
	if err := yaml.Unmarshal([]byte(expanded), &loaded); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Merge(&loaded)
	return &cfg, nil
}

// Load reads a YAML config file and merges it over defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// LoadAndValidate loads config and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
