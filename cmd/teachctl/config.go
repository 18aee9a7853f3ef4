package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/teachability"
)

// fileConfig is the YAML configuration file layout.
type fileConfig struct {
	teachability.Config `yaml:",inline"`

	Scale     string         `yaml:"scale"`
	Index     bool           `yaml:"index"`
	LogFormat string         `yaml:"log_format"`
	Store     storeConfig    `yaml:"store"`
	Embedder  embedderConfig `yaml:"embedder"`
	Analyzer  analyzerConfig `yaml:"analyzer"`
}

type storeConfig struct {
	// Kind is sqlite (default) or postgres.
	Kind  string `yaml:"kind"`
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type embedderConfig struct {
	// Kind is lexical (default), ollama, openai or onnx.
	Kind       string `yaml:"kind"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	Cache      bool   `yaml:"cache"`

	// ONNX only.
	ModelPath         string `yaml:"model_path"`
	TokenizerPath     string `yaml:"tokenizer_path"`
	SharedLibraryPath string `yaml:"shared_library_path"`
}

type analyzerConfig struct {
	// Kind is rules (default), model or hybrid.
	Kind  string `yaml:"kind"`
	Model string `yaml:"model"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Config:    teachability.DefaultConfig(),
		Scale:     "similarity",
		LogFormat: "console",
		Store:     storeConfig{Kind: "sqlite"},
		Embedder:  embedderConfig{Kind: "lexical"},
		Analyzer:  analyzerConfig{Kind: "rules"},
	}
}

// loadConfig reads the optional YAML file, then applies flags the user set.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (fileConfig, error) {
	cfg := defaultFileConfig()

	if opts.configPath != "" {
		data, err := os.ReadFile(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", opts.configPath, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.PathToDBDir = opts.dir
	}
	if flags.Changed("threshold") {
		cfg.RecallThreshold = opts.threshold
	}
	if flags.Changed("scale") {
		cfg.Scale = opts.scale
	}
	if flags.Changed("verbosity") {
		cfg.Verbosity = opts.verbosity
	}
	if flags.Changed("embedder") {
		cfg.Embedder.Kind = opts.embedder
	}
	if flags.Changed("index") {
		cfg.Index = opts.index
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}

	scale, err := memory.ParseScale(cfg.Scale)
	if err != nil {
		return cfg, err
	}
	cfg.Config.Scale = scale
	return cfg, nil
}
