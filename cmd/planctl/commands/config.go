package commands

import (
	"fmt"
	"os"

	"github.com/plannerd/taskplanner/internal/config"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional YAML file set by the root --config flag.
var ConfigFile string

// fileConfig is the YAML override shape. Only set fields replace the
// environment values.
type fileConfig struct {
	DatabaseURL string `yaml:"database_url"`
	CalDAV      struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Calendar string `yaml:"calendar"`
	} `yaml:"caldav"`
}

// loadConfig reads the environment configuration and applies YAML overrides
// when --config was given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if ConfigFile == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var overrides fileConfig
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.CalDAV.URL != "" {
		cfg.CalDAVURL = overrides.CalDAV.URL
	}
	if overrides.CalDAV.Username != "" {
		cfg.CalDAVUsername = overrides.CalDAV.Username
	}
	if overrides.CalDAV.Password != "" {
		cfg.CalDAVPassword = overrides.CalDAV.Password
	}
	if overrides.CalDAV.Calendar != "" {
		cfg.CalDAVCalendar = overrides.CalDAV.Calendar
	}

	return cfg, nil
}
