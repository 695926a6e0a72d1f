package llmservice

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"fitcoach/internal/config"
)

// Gemini generates answers with a hosted Gemini model.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiFactory returns a Factory backed by one shared Gemini API client. The
// factory probes each model name before handing out a generator.
func NewGeminiFactory(ctx context.Context, apiKey string, cfg *config.LLMConfig) (Factory, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	return func(ctx context.Context, model string) (Generator, error) {
		if _, err := client.Models.Get(ctx, model, nil); err != nil {
			return nil, err
		}
		return &Gemini{client: client, model: model, config: genConfig}, nil
	}, nil
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		g.config,
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
