// Package googleai provides a model wrapper for the Google Gemini API via
// the google.golang.org/genai SDK.
package googleai

import (
	"context"
	"fmt"

	"github.com/loomkit/loom/core"
	"github.com/loomkit/loom/model"
	"google.golang.org/genai"
)

// Options configures the Google AI model adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	APIKey      string
}

// Model wraps the Gemini generate-content API behind the generic
// model.Model interface. Generation is non-streaming: a single final
// response is emitted per request.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.0,
	}
}

// NewModel creates a new Google AI model. Client construction performs no
// network I/O but validates the configuration.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := &genai.ClientConfig{}
	if opts.APIKey != "" {
		cfg.APIKey = opts.APIKey
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Google AI model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model. System messages become the system
// instruction; a JSON response format request switches the response MIME
// type so the model emits machine-parseable output.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if req.Stream {
			errCh <- fmt.Errorf("streaming not supported by the googleai adapter")
			return
		}

		contents, system := buildContents(req.Messages)
		config := m.buildConfig(req, system)

		resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
		if err != nil {
			errCh <- fmt.Errorf("googleai api error: %w", err)
			return
		}

		msg := core.AssistantMessage(resp.Text())

		var usage *model.TokenUsage
		if resp.UsageMetadata != nil {
			usage = &model.TokenUsage{
				PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
				CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
			}
		}

		out <- model.Response{
			Partial:      false,
			Message:      msg,
			FinishReason: "stop",
			Usage:        usage,
		}
	}()

	return out, errCh
}

// buildContents converts normalized messages to genai contents and collects
// system text separately.
func buildContents(messages []core.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system string

	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += msg.Content
		case core.RoleAssistant:
			if msg.Content != "" {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
			}
		default:
			// User and tool results are both presented as user turns.
			if msg.Content != "" {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
			}
		}
	}

	return contents, system
}

func (m *Model) buildConfig(req model.Request, system string) *genai.GenerateContentConfig {
	temperature := float32(m.opts.Temperature)
	if req.Temperature != nil {
		temperature = float32(*req.Temperature)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	} else if m.opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(m.opts.MaxTokens)
	}

	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if req.ResponseFormat != nil {
		config.ResponseMIMEType = "application/json"
	}

	return config
}

// Info returns metadata describing this Google AI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:              m.opts.Model,
		Provider:          "googleai",
		SupportsStreaming: false,
		SupportsTools:     false,
	}
}
