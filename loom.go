// Package loom is a small toolkit for building LLM applications: prompt
// templates, hosted model adapters, typed output parsing, chain and graph
// composition, tool-calling agents and declarative YAML pipelines.
//
// Most applications start here:
//  1. Load configuration with config.Load (credentials, model, logging)
//  2. Construct a provider model via NewModel
//  3. Compose prompt -> model -> parser steps with the chain package
//  4. Invoke with a context carrying a core.Run for logging and budgets
//
// The sub-packages stay decoupled; this package only provides the wiring
// helpers that map resolved configuration onto concrete implementations.
package loom

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/loomkit/loom/config"
	"github.com/loomkit/loom/core"
	"github.com/loomkit/loom/logging"
	"github.com/loomkit/loom/model"
	"github.com/loomkit/loom/model/anthropic"
	"github.com/loomkit/loom/model/googleai"
	"github.com/loomkit/loom/model/openai"
)

// Version of the loom module.
const Version = "0.1.0"

// NewModel constructs the provider model selected by cfg. The credential for
// the selected provider must be present; config.Load guarantees that, so this
// only fails for hand-built configs or client construction errors.
func NewModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	key, err := cfg.CredentialFor(cfg.Provider)
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = key
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.MaxTokens)
			}
		}), nil

	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = key
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
		}), nil

	case config.ProviderGoogleAI:
		return googleai.NewModel(ctx, func(o *googleai.Options) {
			o.APIKey = key
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		})

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

// NewLogger builds the structured logger described by cfg: an slog-backed
// LoomLogger honoring the configured level and json/text format. Its model,
// chain and tool helpers are picked up automatically by the steps that log
// those events. Callers standardized on zap can pass
// logging.NewZapLogger(cfg.LogLevel, cfg.LogFormat) to NewRun instead.
func NewLogger(cfg *config.Config) *logging.LoomLogger {
	return logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, false)
}

// NewRun creates a run wired with cfg's model call budget and the given
// logger, with logging lifecycle callbacks attached. Attach it to a context
// via core.WithRun before invoking chains.
func NewRun(cfg *config.Config, logger logging.Logger, optFns ...func(o *core.RunOptions)) *core.Run {
	return core.NewRun(append([]func(o *core.RunOptions){func(o *core.RunOptions) {
		o.Logger = logger
		o.Callbacks = core.LogCallbacks{Logger: logger}
		o.MaxModelCalls = cfg.MaxModelCalls
	}}, optFns...)...)
}
