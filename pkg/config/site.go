package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pages-reporter/pkg/core"
)

// SiteConfig is the optional reporter.yaml shipped next to the action.
type SiteConfig struct {
	Template string   `yaml:"template"` // Landing page template, relative to the action path
	Exclude  []string `yaml:"exclude"`  // Glob patterns skipped when copying report trees
}

// LoadSite loads a site configuration file.
func LoadSite(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("parse %s", path)).WithCause(err)
	}

	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("invalid exclude pattern %q in %s", pattern, path))
		}
	}

	return &cfg, nil
}

// LoadSiteFromDir looks for reporter.yaml or reporter.yml in the directory.
func LoadSiteFromDir(dir string) (*SiteConfig, error) {
	// Try reporter.yaml first
	configPath := filepath.Join(dir, "reporter.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return LoadSite(configPath)
	}

	configPath = filepath.Join(dir, "reporter.yml")
	if _, err := os.Stat(configPath); err == nil {
		return LoadSite(configPath)
	}

	// No site file, defaults apply
	return &SiteConfig{}, nil
}
