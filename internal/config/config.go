// Package config reads the optional .lineage.yaml project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = ".lineage.yaml"

// Config holds project settings. Command-line flags override every field.
type Config struct {
	DB         string   `yaml:"db"`
	Sources    []string `yaml:"sources"`
	Format     string   `yaml:"format"`
	ScriptsDir string   `yaml:"scripts_dir"`
	Deps       Deps     `yaml:"deps"`
}

// Deps configures `lineage deps`.
type Deps struct {
	TargetDir string        `yaml:"target_dir"`
	Debounce  time.Duration `yaml:"debounce"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		DB:      ".lineage/lineage.db",
		Sources: []string{"."},
		Format:  "json",
		Deps: Deps{
			TargetDir: "build",
			Debounce:  500 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	switch c.Format {
	case "json", "text", "":
	default:
		return fmt.Errorf("format must be json or text, got %q", c.Format)
	}
	if c.Deps.Debounce < 0 {
		return fmt.Errorf("deps.debounce must not be negative")
	}
	return nil
}
