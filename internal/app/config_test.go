package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	config := DefaultConfig()
	assert.NoError(t, config.Validate())
}

func TestLoadConfig_EmptyPathReturnsDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider: anthropic
model: claude-3-5-sonnet-20241022
total_ideas: 100
request_timeout: 90s
tournament:
  group_size: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "anthropic", config.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", config.Model)
	assert.Equal(t, 100, config.TotalIdeas)
	assert.Equal(t, 90*time.Second, config.RequestTimeout)
	assert.Equal(t, 8, config.Tournament.GroupSize)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultConfig().OutputDir, config.OutputDir)
	assert.Equal(t, DefaultConfig().Tournament.MaxRetries, config.Tournament.MaxRetries)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))

	_, err := LoadConfig(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "mistral" },
			wantErr: "configuration validation failed",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Model = "" },
			wantErr: "configuration validation failed",
		},
		{
			name:    "malformed host",
			mutate:  func(c *Config) { c.Host = "not a url" },
			wantErr: "configuration validation failed",
		},
		{
			name:    "missing output dir",
			mutate:  func(c *Config) { c.OutputDir = "" },
			wantErr: "configuration validation failed",
		},
		{
			name: "generation and replay are mutually exclusive",
			mutate: func(c *Config) {
				c.TotalIdeas = 10
				c.IdeasFromLog = "out/ideas.log"
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "some idea source is required",
			mutate: func(c *Config) {
				c.TotalIdeas = 0
				c.IdeasFromLog = ""
			},
			wantErr: "either total_ideas or ideas_from_log",
		},
		{
			name: "replay alone is fine",
			mutate: func(c *Config) {
				c.TotalIdeas = 0
				c.IdeasFromLog = "out/ideas.log"
			},
		},
		{
			name:    "too many transport retries",
			mutate:  func(c *Config) { c.TransportRetries = 11 },
			wantErr: "configuration validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)

			err := config.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
