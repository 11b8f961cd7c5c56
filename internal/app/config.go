// Package app wires configuration, generation, judging, and ranking into a
// complete run.
package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"storyrank/infrastructure/oracle"
	"storyrank/internal/generate"
	"storyrank/internal/tournament"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config is the full configuration of one generate-and-rank run.
// Values come from an optional YAML file, overridden by CLI flags.
type Config struct {
	// Provider selects the judge backend.
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic google"`

	// Host overrides the provider's default endpoint; point it at a local
	// Ollama server's OpenAI-compatible API, e.g. http://127.0.0.1:11434/v1.
	Host string `yaml:"host" validate:"omitempty,url"`

	// Model is the judge and generation model identifier.
	Model string `yaml:"model" validate:"required"`

	// APIKey authenticates against hosted providers. Empty is accepted for
	// local OpenAI-compatible endpoints.
	APIKey string `yaml:"api_key"`

	// OutputDir receives the run's append-only logs.
	OutputDir string `yaml:"output_dir" validate:"required"`

	// TotalIdeas is how many candidates to generate. Mutually exclusive
	// with IdeasFromLog.
	TotalIdeas int `yaml:"total_ideas" validate:"min=0"`

	// IdeasFromLog seeds the tournament from an existing idea source log
	// instead of live generation.
	IdeasFromLog string `yaml:"ideas_from_log"`

	// RequestsPerSecond rate-limits judge traffic. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`

	// Burst is the rate limiter burst size when limiting is enabled.
	Burst int `yaml:"burst" validate:"min=0"`

	// RequestTimeout bounds each judge request. Zero disables the timeout.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"min=0"`

	// TransportRetries retries transient transport failures below the
	// oracle. Zero leaves transport failures fatal, the reference behavior.
	TransportRetries int `yaml:"transport_retries" validate:"min=0,max=10"`

	// Generation configures the idea generator.
	Generation generate.Config `yaml:"generation"`

	// Oracle configures the judge persona and sampling.
	Oracle oracle.Config `yaml:"oracle"`

	// Tournament configures group size, retries, and concurrency.
	Tournament tournament.Config `yaml:"tournament"`
}

// DefaultConfig returns a run configured for a local Ollama judge.
func DefaultConfig() Config {
	return Config{
		Provider:   "openai",
		Host:       "http://127.0.0.1:11434/v1",
		Model:      "wizardlm-uncensored",
		OutputDir:  "out",
		TotalIdeas: 500,
		Generation: generate.DefaultConfig(),
		Oracle:     oracle.DefaultConfig(),
		Tournament: tournament.DefaultConfig(),
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	// #nosec G304 - path comes from the --config flag
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if c.TotalIdeas > 0 && c.IdeasFromLog != "" {
		return errors.New("total_ideas and ideas_from_log are mutually exclusive")
	}
	if c.TotalIdeas == 0 && c.IdeasFromLog == "" {
		return errors.New("either total_ideas or ideas_from_log must be set")
	}
	return nil
}
