package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAITutor talks to any OpenAI-compatible chat completion API, such as
// Together AI.
type OpenAITutor struct {
	client *openai.Client
	model  string
}

func NewOpenAITutor(apiKey, baseURL, model string) *OpenAITutor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAITutor{client: openai.NewClientWithConfig(cfg), model: model}
}

func (t *OpenAITutor) Name() string { return "openai:" + t.model }

func (t *OpenAITutor) Answer(ctx context.Context, question string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: tutorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "For GATE preparation: " + question},
		},
		MaxTokens:   tutorMaxTokens,
		Temperature: tutorTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
