package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codeloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", Overrides{Provider: ProviderMock})
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, defaults.Timeout, cfg.Timeout)
	assert.Equal(t, defaults.Sandbox, cfg.Sandbox)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultPromptTemplate, cfg.PromptTemplate)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), Overrides{Provider: ProviderMock})
	require.NoError(t, err)
	assert.Equal(t, "coding", cfg.Sandbox.WorkDir)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
provider: gemini
model: gemini-2.5-pro
api_key: secret
timeout: 90s
fail_fast: true
sandbox:
  work_dir: /tmp/work
  block_timeout: 5s
  shell: false
  artifacts:
    - "*.txt"
log:
  level: debug
`)

	cfg, err := Load(path, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "/tmp/work", cfg.Sandbox.WorkDir)
	assert.Equal(t, 5*time.Second, cfg.Sandbox.BlockTimeout)
	assert.False(t, cfg.Sandbox.Shell)
	assert.True(t, cfg.Sandbox.Go, "unset keys keep their defaults")
	assert.Equal(t, "python", cfg.Sandbox.DefaultLanguage)
	assert.Equal(t, []string{"*.txt"}, cfg.Sandbox.Artifacts)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_OverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, "provider: openai\napi_key: k\nmodel: gpt-4o\n")

	cfg, err := Load(path, Overrides{
		Provider: ProviderMock,
		Model:    "m",
		Timeout:  time.Minute,
		FailFast: true,
		LogLevel: "warn",
		LogFile:  "/tmp/codeloop.log",
	})
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, "m", cfg.Model)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/codeloop.log", cfg.Log.File)
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load("", Overrides{Provider: ProviderGemini})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "provider: [unclosed\n")

	_, err := Load(path, Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.Provider = "anthropic-ish" },
			fields: []string{"provider"},
		},
		{
			name:   "non-positive timeout",
			mutate: func(c *Config) { c.Timeout = 0 },
			fields: []string{"timeout"},
		},
		{
			name: "sandbox fields",
			mutate: func(c *Config) {
				c.Sandbox.WorkDir = ""
				c.Sandbox.DefaultLanguage = ""
				c.Sandbox.BlockTimeout = -time.Second
			},
			fields: []string{"sandbox.work_dir", "sandbox.default_language", "sandbox.block_timeout"},
		},
		{
			name:   "prompt template without placeholder",
			mutate: func(c *Config) { c.PromptTemplate = "compare stocks" },
			fields: []string{"prompt_template"},
		},
		{
			name:   "prompt template with two placeholders",
			mutate: func(c *Config) { c.PromptTemplate = "%s vs %s" },
			fields: []string{"prompt_template"},
		},
		{
			name:   "empty prompt template",
			mutate: func(c *Config) { c.PromptTemplate = "" },
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Log.Level = "loud" },
			fields: []string{"log.level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			got := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestLoad_ValidationErrorIsWrapped(t *testing.T) {
	_, err := Load("", Overrides{Provider: "nope"})

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestFormatPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		input    string
		want     string
	}{
		{
			name:     "default",
			template: DefaultPromptTemplate,
			input:    "META and TESLA",
			want:     "META and TESLA. Compare returns of these stocks on a single plot from 2024-01-01 to YTD",
		},
		{name: "empty template", template: "", input: "plot a sine wave", want: "plot a sine wave"},
		{name: "verbs in input are literal", template: "task: %s", input: "print 100%d", want: "task: print 100%d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PromptTemplate = tt.template
			assert.Equal(t, tt.want, cfg.FormatPrompt(tt.input))
		})
	}
}

func TestLoad_PromptTemplateFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "prompt_template: \"Analyse %s\"\n"), Overrides{Provider: ProviderMock})
	require.NoError(t, err)
	assert.Equal(t, "Analyse GOOG", cfg.FormatPrompt("GOOG"))

	cfg, err = Load(writeConfig(t, "prompt_template: \"\"\n"), Overrides{Provider: ProviderMock})
	require.NoError(t, err)
	assert.Equal(t, "GOOG", cfg.FormatPrompt("GOOG"))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 10m0s")
	assert.NotContains(t, string(data), "api_key")

	cfg2, err := Load(writeConfig(t, string(data)), Overrides{})
	require.NoError(t, err)
	assert.Equal(t, cfg, *cfg2)
}
