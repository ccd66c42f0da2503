package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/omarwdev/visiontext/internal/models"
)

// GeminiProvider implements Provider on top of Google's Gemini models.
type GeminiProvider struct {
	client      *googleai.GoogleAI
	model       string
	temperature float64
	timeout     time.Duration
}

// NewGeminiProvider creates a Gemini-backed provider. Every Generate call
// carries its own deadline so a stalled upstream cannot hold a request forever.
func NewGeminiProvider(ctx context.Context, apiKey, model string, temperature float64, timeout time.Duration) (*GeminiProvider, error) {
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

// Model returns the configured model identifier.
func (g *GeminiProvider) Model() string {
	return g.model
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt,
		llms.WithModel(g.model),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %v", models.ErrUnavailable, err)
	}
	if response == "" {
		return "", fmt.Errorf("%w: gemini returned empty response", models.ErrUnavailable)
	}

	return response, nil
}
