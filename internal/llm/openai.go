package llm

import (
	"context"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"

	perrors "github.com/sheetpilot/sheetpilot/internal/errors"
)

const systemPrompt = "You are a spreadsheet assistant. Respond with JSON exactly as instructed."

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a client for the given key and model.
func NewOpenAI(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAIFromEnv reads OPENAI_API_KEY from the environment. Returns nil
// when the key is not set; callers treat a nil client as "no LLM configured".
func NewOpenAIFromEnv(model string) *OpenAIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil
	}
	return NewOpenAI(apiKey, model)
}

// Complete sends one prompt and returns the raw completion text.
// Temperature is pinned to zero; classification must be reproducible.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		slog.Error("chat completion failed", "model", c.model, "error", err)
		return "", perrors.NewProvider("openai", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("chat completion returned no choices", "model", c.model)
		return "", perrors.NewProvider("openai", nil)
	}
	return resp.Choices[0].Message.Content, nil
}
