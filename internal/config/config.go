// Package config loads qroute run configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"qroute/internal/logging"
	"qroute/internal/topology"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "qroute.yaml"

// Config is the run configuration. Zero fields in a file keep the defaults.
type Config struct {
	Topology string `yaml:"topology"`
	Qubits   int    `yaml:"qubits,omitempty"`
	Rows     int    `yaml:"rows,omitempty"`
	Cols     int    `yaml:"cols,omitempty"`
	Shots    int    `yaml:"shots,omitempty"`
	Workers  int    `yaml:"workers,omitempty"`
	Seed     uint64 `yaml:"seed,omitempty"`
	MaxDepth int    `yaml:"max_depth,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
	Store    string `yaml:"store,omitempty"`
}

func Default() *Config {
	return &Config{
		Topology: "ibmq53",
		Qubits:   8,
		Rows:     3,
		Cols:     3,
		Shots:    1024,
		LogLevel: "info",
	}
}

// Load reads path over the defaults. A missing DefaultFile is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Topology {
	case "":
		return fmt.Errorf("topology is required")
	case "chain", "ring", "alltoall":
		if c.Qubits <= 0 || c.Qubits > 64 {
			return fmt.Errorf("qubits must be in 1..64, got %d", c.Qubits)
		}
	case "grid":
		if c.Rows <= 0 || c.Cols <= 0 || c.Rows*c.Cols > 64 {
			return fmt.Errorf("grid %dx%d must have between 1 and 64 qubits", c.Rows, c.Cols)
		}
	}
	if c.Shots <= 0 {
		return fmt.Errorf("shots must be positive, got %d", c.Shots)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// TopologySpec converts the topology fields for topology.Spec.Build.
func (c *Config) TopologySpec() topology.Spec {
	return topology.Spec{Name: c.Topology, Qubits: c.Qubits, Rows: c.Rows, Cols: c.Cols}
}

// BuildTopology constructs the configured coupling graph.
func (c *Config) BuildTopology() (*topology.Graph, error) {
	return c.TopologySpec().Build()
}
