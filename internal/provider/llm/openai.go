package llm

import (
	"context"
	"fmt"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// OpenAI generates scripts through the OpenAI chat completions API.
type OpenAI struct {
	client  oai.Client
	apiKey  string
	model   string
	timeout time.Duration
}

// NewOpenAI creates the provider. An empty API key leaves it
// configured but unavailable.
func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAI{
		client:  oai.NewClient(option.WithAPIKey(apiKey)),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
	}
}

func (p *OpenAI) Name() string           { return "openai" }
func (p *OpenAI) Available() bool        { return p.apiKey != "" }
func (p *OpenAI) Timeout() time.Duration { return p.timeout }

// Generate runs one chat completion and returns the text content.
func (p *OpenAI) Generate(ctx context.Context, prompt Prompt) (string, error) {
	var messages []oai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		messages = append(messages, oai.SystemMessage(prompt.System))
	}
	messages = append(messages, oai.UserMessage(prompt.User))

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if prompt.Temperature != 0 {
		params.Temperature = param.NewOpt(prompt.Temperature)
	}
	if prompt.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(prompt.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned empty choices")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("openai returned empty content")
	}
	return content, nil
}
