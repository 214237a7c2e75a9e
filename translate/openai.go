package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// translateSystemMessage instructs the model to translate line by line
// without commentary, so the batched runs can be spliced back positionally.
const translateSystemMessage = `You are a translation engine for image-generation prompts. ` +
	`Translate each input line into the requested language as short comma-separated tags. ` +
	`Output exactly one translated line per input line, in the same order. ` +
	`Do not add explanations, numbering, or extra lines.`

// OpenAITranslator implements Translator against an OpenAI-compatible chat
// completion endpoint.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// OpenAITranslatorConfig configures the translator client.
type OpenAITranslatorConfig struct {
	// APIKey authenticates against the endpoint.
	APIKey string

	// BaseURL overrides the endpoint, for self-hosted compatible servers.
	// Empty uses the library default.
	BaseURL string

	// Model is the chat model used for translation.
	// Default: gpt-4o-mini
	Model string
}

// NewOpenAITranslator creates an OpenAITranslator.
func NewOpenAITranslator(cfg OpenAITranslatorConfig) (*OpenAITranslator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("translate: API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Translate issues one chat completion translating text into targetLocale.
func (t *OpenAITranslator) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: translateSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Target language: %s\n\n%s", targetLocale, text)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("translate: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translate: empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
