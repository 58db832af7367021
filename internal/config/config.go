// Package config handles configuration loading and validation for codeloop.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hay-kot/criterio"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderLWAgent = "lwagent"
	ProviderMock    = "mock"
)

// DefaultPromptTemplate asks for a stock comparison around the operator input.
const DefaultPromptTemplate = "%s. Compare returns of these stocks on a single plot from 2024-01-01 to YTD"

// Providers lists every supported completion provider.
var Providers = []string{ProviderOpenAI, ProviderGemini, ProviderLWAgent, ProviderMock}

// Config holds the application configuration.
type Config struct {
	Provider       string        `koanf:"provider" yaml:"provider"`
	Model          string        `koanf:"model" yaml:"model,omitempty"`
	APIKey         string        `koanf:"api_key" yaml:"api_key,omitempty"`
	BaseURL        string        `koanf:"base_url" yaml:"base_url,omitempty"`
	SystemPrompt   string        `koanf:"system_prompt" yaml:"system_prompt,omitempty"`
	MockResponse   string        `koanf:"mock_response" yaml:"mock_response,omitempty"`
	// PromptTemplate wraps the operator input, %s marks where it goes. Empty sends the input as is.
	PromptTemplate string        `koanf:"prompt_template" yaml:"prompt_template"`
	Timeout        time.Duration `koanf:"timeout" yaml:"timeout"`
	FailFast       bool          `koanf:"fail_fast" yaml:"fail_fast"`
	Sandbox        SandboxConfig `koanf:"sandbox" yaml:"sandbox"`
	Log            LogConfig     `koanf:"log" yaml:"log"`
}

// SandboxConfig controls how code blocks are executed.
type SandboxConfig struct {
	// WorkDir is where shell scripts run and artifacts are collected.
	WorkDir string `koanf:"work_dir" yaml:"work_dir"`
	// DefaultLanguage is used for fences without a language tag.
	DefaultLanguage string `koanf:"default_language" yaml:"default_language"`
	// PythonCommand runs python blocks with a local interpreter instead of Starlark.
	PythonCommand string        `koanf:"python_command" yaml:"python_command,omitempty"`
	MaxSteps      uint64        `koanf:"max_steps" yaml:"max_steps"`
	BlockTimeout  time.Duration `koanf:"block_timeout" yaml:"block_timeout"`
	Shell         bool          `koanf:"shell" yaml:"shell"`
	Go            bool          `koanf:"go" yaml:"go"`
	Artifacts     []string      `koanf:"artifacts" yaml:"artifacts"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
	File  string `koanf:"file" yaml:"file,omitempty"`
}

// Overrides are values set on the command line. Empty fields are ignored.
type Overrides struct {
	Provider string
	Model    string
	Timeout  time.Duration
	FailFast bool
	LogLevel string
	LogFile  string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:       ProviderOpenAI,
		PromptTemplate: DefaultPromptTemplate,
		Timeout:        10 * time.Minute,
		Sandbox: SandboxConfig{
			WorkDir:         "coding",
			DefaultLanguage: "python",
			MaxSteps:        10_000_000,
			BlockTimeout:    60 * time.Second,
			Shell:           true,
			Go:              true,
			Artifacts:       []string{"**/*.png", "**/*.jpg", "**/*.svg", "**/*.csv"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load layers defaults, the YAML file at configPath (when it exists) and
// command line overrides, then validates the result.
func Load(configPath string, ov Overrides) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), koanfyaml.Parser()); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.apply(ov)
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// apply copies non-empty overrides onto the config.
func (c *Config) apply(ov Overrides) {
	if ov.Provider != "" {
		c.Provider = ov.Provider
	}
	if ov.Model != "" {
		c.Model = ov.Model
	}
	if ov.Timeout != 0 {
		c.Timeout = ov.Timeout
	}
	if ov.FailFast {
		c.FailFast = true
	}
	if ov.LogLevel != "" {
		c.Log.Level = ov.LogLevel
	}
	if ov.LogFile != "" {
		c.Log.File = ov.LogFile
	}
}

// applyEnv fills the API key from the provider's conventional variable.
func (c *Config) applyEnv() {
	if c.APIKey != "" {
		return
	}
	switch c.Provider {
	case ProviderOpenAI:
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks the configuration for errors using criterio.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if !slices.Contains(Providers, c.Provider) {
		errs = errs.Append("provider", fmt.Errorf("unknown provider %q, expected one of %s", c.Provider, strings.Join(Providers, ", ")))
	}
	if c.Timeout <= 0 {
		errs = errs.Append("timeout", fmt.Errorf("must be positive, got %s", c.Timeout))
	}
	if c.Sandbox.WorkDir == "" {
		errs = errs.Append("sandbox.work_dir", fmt.Errorf("cannot be empty"))
	}
	if c.Sandbox.DefaultLanguage == "" {
		errs = errs.Append("sandbox.default_language", fmt.Errorf("cannot be empty"))
	}
	if c.Sandbox.BlockTimeout <= 0 {
		errs = errs.Append("sandbox.block_timeout", fmt.Errorf("must be positive, got %s", c.Sandbox.BlockTimeout))
	}
	if c.PromptTemplate != "" && strings.Count(c.PromptTemplate, "%s") != 1 {
		errs = errs.Append("prompt_template", fmt.Errorf("must contain exactly one %%s placeholder"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = errs.Append("log.level", err)
	}

	return errs.ToError()
}

// FormatPrompt substitutes input into the prompt template.
func (c *Config) FormatPrompt(input string) string {
	if c.PromptTemplate == "" {
		return input
	}
	return strings.Replace(c.PromptTemplate, "%s", input, 1)
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
