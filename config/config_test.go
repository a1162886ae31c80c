package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(key, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	return Load(func(o *Options) { o.SkipDotenv = true })
}

func TestLoadMissingCredentialFailsFast(t *testing.T) {
	_, err := loadClean(t, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadClean(t, map[string]string{"OPENAI_API_KEY": "sk-test"})

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 0.0, cfg.Temperature)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 25, cfg.MaxModelCalls)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestLoadEnvOverrides(t *testing.T) {
	cfg, err := loadClean(t, map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant",
		"LOOM_PROVIDER":     "anthropic",
		"LOOM_MODEL":        "claude-3-5-sonnet-20241022",
		"LOOM_TEMPERATURE":  "0.7",
		"LOOM_LOG_LEVEL":    "debug",
	})

	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadUnknownProvider(t *testing.T) {
	_, err := loadClean(t, map[string]string{
		"OPENAI_API_KEY": "sk-test",
		"LOOM_PROVIDER":  "cohere",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestLoadTemperatureOutOfRange(t *testing.T) {
	_, err := loadClean(t, map[string]string{
		"OPENAI_API_KEY":   "sk-test",
		"LOOM_TEMPERATURE": "2.5",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature")
}

func TestCredentialFor(t *testing.T) {
	cfg := &Config{Provider: ProviderOpenAI, OpenAIAPIKey: "sk-open", GoogleAPIKey: "g-key"}

	key, err := cfg.CredentialFor(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-open", key)

	key, err = cfg.CredentialFor(ProviderGoogleAI)
	require.NoError(t, err)
	assert.Equal(t, "g-key", key)

	_, err = cfg.CredentialFor(ProviderAnthropic)
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = cfg.CredentialFor("cohere")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRedacted(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-secret", Model: "gpt-4o-mini"}
	red := cfg.Redacted()

	assert.Equal(t, "***", red.OpenAIAPIKey)
	assert.Empty(t, red.AnthropicAPIKey)
	assert.Equal(t, "gpt-4o-mini", red.Model)
	// Original untouched.
	assert.Equal(t, "sk-secret", cfg.OpenAIAPIKey)
}
