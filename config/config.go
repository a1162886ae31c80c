// Package config loads runtime configuration for loom programs: provider
// credentials, model tuning parameters and logging settings. Values come from
// an optional .env file, the process environment (LOOM_ prefixed keys plus
// the conventional provider credential variables) and an optional loom.yaml
// file. Loading fails fast when the selected provider's credential is absent
// so no client is ever constructed without one.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sentinel errors returned by Load and Validate.
var (
	// ErrMissingCredential indicates the selected provider has no API key
	// configured. Returned before any network client is constructed.
	ErrMissingCredential = errors.New("missing provider credential")
	// ErrUnknownProvider indicates a provider name outside openai,
	// anthropic and googleai.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Provider names accepted in Config.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogleAI  = "googleai"
)

// Config holds the resolved runtime configuration.
type Config struct {
	// Provider selects the hosted model backend: openai, anthropic or googleai.
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Credentials per provider. Only the selected provider's key is required.
	OpenAIAPIKey    string `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key"`
	GoogleAPIKey    string `mapstructure:"google_api_key" yaml:"google_api_key"`

	// Model tuning.
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	// RequestTimeout bounds a single model call.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// MaxModelCalls caps model calls per run; 0 means unlimited.
	MaxModelCalls int `mapstructure:"max_model_calls" yaml:"max_model_calls"`

	// Logging.
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// OutputDir is where example programs write generated artifacts.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// Options configure Load.
type Options struct {
	// EnvPrefix is the environment variable prefix, default "LOOM".
	EnvPrefix string
	// ConfigFile is an explicit config file path; when empty loom.yaml is
	// probed in the working directory.
	ConfigFile string
	// DotenvPaths are probed in order for a .env file; the first hit wins.
	DotenvPaths []string
	// SkipDotenv disables .env probing entirely (tests).
	SkipDotenv bool
}

// Load resolves configuration from .env, environment and optional YAML file,
// applies defaults, unmarshals and validates. The returned error is
// ErrMissingCredential-wrapped when the selected provider has no key; that
// check runs before any provider client could be built.
func Load(optFns ...func(o *Options)) (*Config, error) {
	opts := Options{
		EnvPrefix:   "LOOM",
		DotenvPaths: []string{".env", "../.env", "../../.env"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if !opts.SkipDotenv {
		loadDotenv(opts.DotenvPaths)
	}

	v := viper.New()
	v.SetEnvPrefix(opts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindCredentials(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("loom")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load that panics on error. Intended for example main functions.
func MustLoad(optFns ...func(o *Options)) *Config {
	cfg, err := Load(optFns...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// loadDotenv probes the candidate paths and loads the first .env found.
// Existing environment variables always win over file contents.
func loadDotenv(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tokens", 0)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("max_model_calls", 25)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_dir", "output")
}

// bindCredentials maps the conventional provider variables so users do not
// have to duplicate keys under the LOOM_ prefix.
func bindCredentials(v *viper.Viper) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		v.SetDefault("openai_api_key", key)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		v.SetDefault("anthropic_api_key", key)
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		v.SetDefault("google_api_key", key)
	}
}

// Validate checks provider, credential presence and parameter ranges.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogleAI:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	if _, err := c.CredentialFor(c.Provider); err != nil {
		return err
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.MaxModelCalls < 0 {
		return fmt.Errorf("max_model_calls must not be negative, got %d", c.MaxModelCalls)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %v", c.RequestTimeout)
	}

	return nil
}

// CredentialFor returns the API key configured for the named provider.
func (c *Config) CredentialFor(provider string) (string, error) {
	var key string
	switch provider {
	case ProviderOpenAI:
		key = c.OpenAIAPIKey
	case ProviderAnthropic:
		key = c.AnthropicAPIKey
	case ProviderGoogleAI:
		key = c.GoogleAPIKey
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	if key == "" {
		return "", fmt.Errorf("%w: provider %s", ErrMissingCredential, provider)
	}

	return key, nil
}

// Redacted returns a copy with credentials replaced by a fixed marker, for
// printing resolved config without leaking keys.
func (c *Config) Redacted() Config {
	out := *c
	if out.OpenAIAPIKey != "" {
		out.OpenAIAPIKey = "***"
	}
	if out.AnthropicAPIKey != "" {
		out.AnthropicAPIKey = "***"
	}
	if out.GoogleAPIKey != "" {
		out.GoogleAPIKey = "***"
	}
	return out
}
