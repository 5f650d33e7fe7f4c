// Package config loads planlog settings from YAML.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/juliosaraiva/planlog/internal/report"
)

//go:embed default.yaml
var defaultYAML []byte

// Config holds all planlog settings.
type Config struct {
	Log LogConfig `yaml:"log"`

	// Workers bounds how many runs are parsed at once. 0 means one per CPU.
	Workers int `yaml:"workers"`

	// Format forces a log parser by name; empty auto-detects.
	Format string `yaml:"format"`

	LogFile        string `yaml:"log_file"`
	PropertiesFile string `yaml:"properties_file"`

	InfoAttributes  []string `yaml:"info_attributes"`
	ErrorAttributes []string `yaml:"error_attributes"`

	Report ReportConfig `yaml:"report"`
}

// LogConfig selects the zap logger level and encoder.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReportConfig lists the attributes shown by `planlog report`.
type ReportConfig struct {
	Mode       string             `yaml:"mode"`
	Attributes []report.Attribute `yaml:"attributes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		panic(fmt.Sprintf("load default.yaml: %v", err))
	}
	return &c
}

// Load reads path and overlays it on the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, c.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.LogFile == "" || c.PropertiesFile == "" {
		return fmt.Errorf("log_file and properties_file must not be empty")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format %q: want console or json", c.Log.Format)
	}
	if _, err := report.ParseMode(c.Report.Mode); err != nil {
		return err
	}
	for _, a := range c.Report.Attributes {
		if a.Name == "" {
			return fmt.Errorf("report attribute without name")
		}
	}
	return nil
}

// WorkerCount resolves Workers to a positive number.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
