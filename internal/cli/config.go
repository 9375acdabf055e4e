package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds defaults read from a YAML file. Flags given on the command
// line override them.
type Config struct {
	FailFast  bool   `yaml:"fail_fast"`
	Memoize   bool   `yaml:"memoize"`
	DB        string `yaml:"db"`
	GraphsDir string `yaml:"graphs_dir"`
}

// LoadConfig reads a config file. Unknown keys are rejected; an empty file
// yields the zero config.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
