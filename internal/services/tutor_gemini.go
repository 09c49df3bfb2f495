package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiTutor struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

func NewGeminiTutor(ctx context.Context, apiKey, modelName string) (*GeminiTutor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(tutorTemperature)
	model.SetMaxOutputTokens(tutorMaxTokens)
	model.SystemInstruction = genai.NewUserContent(genai.Text(tutorSystemPrompt))

	return &GeminiTutor{client: client, model: model, modelName: modelName}, nil
}

func (t *GeminiTutor) Close() {
	t.client.Close()
}

func (t *GeminiTutor) Name() string { return "gemini:" + t.modelName }

func (t *GeminiTutor) Answer(ctx context.Context, question string) (string, error) {
	resp, err := t.model.GenerateContent(ctx, genai.Text("For GATE preparation: "+question))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return extractText(resp), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
