package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config mirrors the persistent flags; explicit flags win over it.
type Config struct {
	Input       string   `yaml:"input"`
	EnvColumn   string   `yaml:"env_column"`
	GenColumn   string   `yaml:"gen_column"`
	RepColumn   string   `yaml:"rep_column"`
	BlockColumn string   `yaml:"block_column"`
	Traits      []string `yaml:"traits"`
	Digits      int      `yaml:"digits"`
	Output      string   `yaml:"output"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// apply copies config values into every flag the command line left at
// its default.
func (c *Config) apply(cmd *cobra.Command) {
	set := func(name string, fn func()) {
		if !cmd.Flags().Changed(name) {
			fn()
		}
	}
	if c.Input != "" {
		set("input", func() { inputPath = c.Input })
	}
	if c.EnvColumn != "" {
		set("env", func() { envColumn = c.EnvColumn })
	}
	if c.GenColumn != "" {
		set("gen", func() { genColumn = c.GenColumn })
	}
	if c.RepColumn != "" {
		set("rep", func() { repColumn = c.RepColumn })
	}
	if c.BlockColumn != "" {
		set("block", func() { blockCol = c.BlockColumn })
	}
	if c.Traits != nil {
		set("traits", func() { traitList = c.Traits })
	}
	if c.Digits != 0 {
		set("digits", func() { digits = c.Digits })
	}
	if c.Output != "" {
		set("output", func() { outputPath = c.Output })
	}
}
