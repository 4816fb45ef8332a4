package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		MSTR: MSTRConfig{
			URL:           "http://bi.example.com/MicroStrategy/asp/TaskProc.aspx",
			ProjectSource: "iserver",
			Project:       "Sales",
			Username:      "reporter",
			Password:      "secret",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "Valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "Missing URL",
			mutate:  func(c *Config) { c.MSTR.URL = "" },
			wantErr: "mstr.url is required",
		},
		{
			name:    "Missing project source",
			mutate:  func(c *Config) { c.MSTR.ProjectSource = "" },
			wantErr: "mstr.project_source is required",
		},
		{
			name:    "Missing project",
			mutate:  func(c *Config) { c.MSTR.Project = "" },
			wantErr: "mstr.project is required",
		},
		{
			name:    "Missing username",
			mutate:  func(c *Config) { c.MSTR.Username = "" },
			wantErr: "mstr.username is required",
		},
		{
			name:    "Missing password",
			mutate:  func(c *Config) { c.MSTR.Password = "" },
			wantErr: "mstr.password is required",
		},
		{
			name:    "Negative window",
			mutate:  func(c *Config) { c.Report.MaxRows = -1 },
			wantErr: "must not be negative",
		},
		{
			name: "Preset without id",
			mutate: func(c *Config) {
				c.Reports = map[string]ReportPreset{"daily": {}}
			},
			wantErr: "reports.daily.id is required",
		},
		{
			name: "Element prompt without attribute",
			mutate: func(c *Config) {
				c.Reports = map[string]ReportPreset{"daily": {
					ID:             "R1",
					ElementPrompts: []ElementPrompt{{Values: []string{"x"}}},
				}}
			},
			wantErr: "reports.daily.element_prompts[0].attribute is required",
		},
		{
			name:    "Invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level: verbose",
		},
		{
			name:    "Invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format: xml",
		},
		{
			name:    "Invalid output format",
			mutate:  func(c *Config) { c.Output.Format = "csv" },
			wantErr: "invalid output.format: csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want message containing %q", err, tt.wantErr)
			}
		})
	}
}

const sampleConfig = `
mstr:
  url: https://bi.example.com/MicroStrategy/asp/TaskProc.aspx
  project_source: iserver
  project: Sales
  username: reporter
  password: from-file
  timeout: 1m

reports:
  daily:
    id: 5E7B1C2A11D5C0E1C000E7AB3D6C4F4F
    value_prompts: ["2024"]
    element_prompts:
      - attribute: 8D679D3711D3E4981000E787EC6DE8A4
        values: ["h1", "h2"]
    filter: big

filters:
  big: num("Revenue") > 1000

logging:
  level: debug
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://bi.example.com/MicroStrategy/asp/TaskProc.aspx", cfg.MSTR.URL)
	assert.Equal(t, "from-file", cfg.MSTR.Password)
	assert.Equal(t, time.Minute, cfg.MSTR.Timeout)

	// Defaults
	assert.Equal(t, 100000, cfg.Report.MaxRows)
	assert.Equal(t, 10, cfg.Report.MaxCols)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)

	preset, ok := cfg.Reports["daily"]
	require.True(t, ok)
	assert.Equal(t, "5E7B1C2A11D5C0E1C000E7AB3D6C4F4F", preset.ID)
	assert.Equal(t, []string{"2024"}, preset.ValuePrompts)
	require.Len(t, preset.ElementPrompts, 1)
	assert.Equal(t, "8D679D3711D3E4981000E787EC6DE8A4", preset.ElementPrompts[0].Attribute)
	assert.Equal(t, []string{"h1", "h2"}, preset.ElementPrompts[0].Values)
	assert.Equal(t, `num("Revenue") > 1000`, cfg.Filters["big"])
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MSTRCTL_MSTR_PASSWORD", "from-env")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.MSTR.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidOutputFormat(t *testing.T) {
	for _, f := range OutputFormats {
		assert.True(t, ValidOutputFormat(f), f)
	}
	assert.False(t, ValidOutputFormat("csv"))
}
