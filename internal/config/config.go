package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models riskline.yml.
type Config struct {
	Scan struct {
		Collection string `yaml:"collection"`
		PrePass    bool   `yaml:"pre_pass"`
	} `yaml:"scan"`
	Rules struct {
		Disabled []string `yaml:"disabled"`
	} `yaml:"rules"`
	Annotators struct {
		Disabled []string `yaml:"disabled"`
	} `yaml:"annotators"`
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "riskline.yml")
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns a default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the zero-value config: everything enabled, no filter.
func Default() *Config {
	return &Config{}
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	for _, name := range c.Rules.Disabled {
		if name == "" {
			return fmt.Errorf("config.rules.disabled contains an empty name")
		}
	}
	for _, name := range c.Annotators.Disabled {
		if name == "" {
			return fmt.Errorf("config.annotators.disabled contains an empty name")
		}
	}
	return nil
}

// DisabledRules returns the disabled rule names as a set.
func (c *Config) DisabledRules() map[string]bool {
	return toSet(c.Rules.Disabled)
}

// DisabledAnnotators returns the disabled annotator names as a set.
func (c *Config) DisabledAnnotators() map[string]bool {
	return toSet(c.Annotators.Disabled)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
