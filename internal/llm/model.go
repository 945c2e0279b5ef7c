// Package llm wraps the completion collaborator behind langchaingo.
package llm

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mgersbach/studymate/internal/config"
)

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
	maxTokens int
}

// NewModel creates an LLM model based on configuration. A non-empty apiKey
// overrides the configured credential, letting each request carry its own
// key instead of relying on process-wide state.
func NewModel(ctx context.Context, cfg config.Config, apiKey string) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		key := apiKey
		if key == "" {
			key = cfg.OpenAIAPIKey
		}
		if key == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(key),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		key := apiKey
		if key == "" {
			key = cfg.AnthropicAPIKey
		}
		if key == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(key),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		model, err = bedrock.New(
			bedrock.WithModel(cfg.LLMModel),
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
		maxTokens: cfg.LLMMaxTokens,
	}, nil
}

// Generate produces a completion for a single user-role prompt at the given
// temperature. Exactly the first candidate's text is returned.
func (m *Model) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(m.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// GenerateStream produces a completion while forwarding chunks to fn as they
// arrive. The full text is also returned once the stream finishes.
func (m *Model) GenerateStream(ctx context.Context, prompt string, temperature float64, fn func(chunk string)) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(m.maxTokens),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			fn(string(chunk))
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generate stream: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}
