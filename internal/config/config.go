package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the report defaults that can be set from a config file.
// Everything here can also be set (and overridden) on the command line.
type Config struct {
	// Output is the default report destination path.
	Output  string  `yaml:"output,omitempty"`
	History History `yaml:"history"`
}

// History configures the optional run-history database.
type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

var defaultConfig = Config{
	Output: "peepdrive.txt",
	History: History{
		Path: "/var/lib/peepdrive/history.db",
	},
}

// Load reads the config file at path, or probes the default locations when
// path is empty. A missing config file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		candidates := []string{
			"/etc/peepdrive/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/peepdrive/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	var cfg Config
	if path == "" {
		cfg = defaultConfig
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			cfg = defaultConfig
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		}
	}

	// Apply defaults for missing values
	if cfg.Output == "" {
		cfg.Output = defaultConfig.Output
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultConfig.History.Path
	}

	return &cfg, nil
}
