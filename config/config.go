package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MSTRCTL_MSTR_PASSWORD
const EnvPrefix = "MSTRCTL"

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Environment overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mstrctl"))
		}

		// Check /etc
		v.AddConfigPath("/etc/mstrctl/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// MicroStrategy defaults
	v.SetDefault("mstr.url", "http://localhost/MicroStrategy/asp/TaskProc.aspx")
	v.SetDefault("mstr.timeout", "30s")
	// Keys must be known to viper for AutomaticEnv to apply on Unmarshal
	v.SetDefault("mstr.project_source", "")
	v.SetDefault("mstr.project", "")
	v.SetDefault("mstr.username", "")
	v.SetDefault("mstr.password", "")

	// Report window defaults
	v.SetDefault("report.max_rows", 100000)
	v.SetDefault("report.max_cols", 10)

	// Output defaults
	v.SetDefault("output.format", "table")
	v.SetDefault("output.color", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.MSTR.URL == "" {
		return fmt.Errorf("mstr.url is required")
	}

	if cfg.MSTR.ProjectSource == "" {
		return fmt.Errorf("mstr.project_source is required")
	}

	if cfg.MSTR.Project == "" {
		return fmt.Errorf("mstr.project is required")
	}

	if cfg.MSTR.Username == "" {
		return fmt.Errorf("mstr.username is required")
	}

	if cfg.MSTR.Password == "" {
		return fmt.Errorf("mstr.password is required (or set %s_MSTR_PASSWORD)", EnvPrefix)
	}

	if cfg.MSTR.Timeout < 0 {
		return fmt.Errorf("mstr.timeout must not be negative")
	}

	if cfg.Report.MaxRows < 0 || cfg.Report.MaxCols < 0 {
		return fmt.Errorf("report.max_rows and report.max_cols must not be negative")
	}

	for name, preset := range cfg.Reports {
		if preset.ID == "" {
			return fmt.Errorf("reports.%s.id is required", name)
		}
		for i, prompt := range preset.ElementPrompts {
			if prompt.Attribute == "" {
				return fmt.Errorf("reports.%s.element_prompts[%d].attribute is required", name, i)
			}
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	if !ValidOutputFormat(cfg.Output.Format) {
		return fmt.Errorf("invalid output.format: %s (must be one of %s)", cfg.Output.Format, strings.Join(OutputFormats, ", "))
	}

	return nil
}

// OutputFormats lists the supported output formats
var OutputFormats = []string{"table", "tsv", "json", "yaml"}

// ValidOutputFormat reports whether format is a supported output format
func ValidOutputFormat(format string) bool {
	for _, f := range OutputFormats {
		if f == format {
			return true
		}
	}
	return false
}
