package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spacesedan/sentiment-api/internal/models"
)

const (
	openAIRequestTimeout = 60 * time.Second // Timeout for individual OpenAI API requests

	sentimentSystemPrompt = `You are a sentiment classifier. Classify the sentiment of the user's text as "positive", "negative" or "neutral". ` +
		`Reply with a JSON object {"label": <label>, "score": <confidence between 0 and 1>} and nothing else.`
)

// OpenAIClient classifies text with a chat completion model.
type OpenAIClient struct {
	Client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{
		Timeout: openAIRequestTimeout,
	}

	slog.Info("[OpenAIClient] OpenAI client initialized with custom HTTP timeout",
		slog.Duration("timeout", openAIRequestTimeout),
		slog.String("model", model))

	return &OpenAIClient{
		Client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (o *OpenAIClient) Classify(ctx context.Context, text string) ([]models.Prediction, error) {
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sentimentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	content := resp.Choices[0].Message.Content
	var classification models.OpenAIClassification
	if err := json.Unmarshal([]byte(content), &classification); err != nil {
		slog.ErrorContext(ctx, "[OpenAIClient] Failed to unmarshal classification",
			slog.String("error", err.Error()),
			getPreview([]byte(content)))
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	label := strings.TrimSpace(classification.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: empty label", ErrUnexpectedResponse)
	}

	return []models.Prediction{{
		Label: label,
		Score: clamp(classification.Score, 0, 1),
	}}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
