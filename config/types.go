package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	MSTR    MSTRConfig              `mapstructure:"mstr"`
	Report  ReportConfig            `mapstructure:"report"`
	Reports map[string]ReportPreset `mapstructure:"reports"`
	Filters FilterConfig            `mapstructure:"filters"`
	Output  OutputConfig            `mapstructure:"output"`
	Logging LoggingConfig           `mapstructure:"logging"`
}

// MSTRConfig holds the task service endpoint and login details
type MSTRConfig struct {
	URL           string        `mapstructure:"url"`
	ProjectSource string        `mapstructure:"project_source"`
	Project       string        `mapstructure:"project"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ReportConfig contains the default execution window
type ReportConfig struct {
	MaxRows int `mapstructure:"max_rows"`
	MaxCols int `mapstructure:"max_cols"`
}

// ReportPreset names a report together with its prompt answers
type ReportPreset struct {
	ID             string          `mapstructure:"id"`
	ValuePrompts   []string        `mapstructure:"value_prompts"`
	ElementPrompts []ElementPrompt `mapstructure:"element_prompts"`
	Filter         string          `mapstructure:"filter"`
}

// ElementPrompt answers an element prompt of a preset. Kept as a list so
// attribute ids keep their case and their order.
type ElementPrompt struct {
	Attribute string   `mapstructure:"attribute"`
	Values    []string `mapstructure:"values"`
}

// FilterConfig maps filter names to row filter expressions
type FilterConfig map[string]string

// OutputConfig controls how results are rendered
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
