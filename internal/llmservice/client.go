package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoModelAvailable is returned when none of the configured model names can be used.
var ErrNoModelAvailable = errors.New("no generative model available")

// Generator produces a text completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Factory initializes a generator for one model name. It should fail fast when
// the model cannot be used with the current credential.
type Factory func(ctx context.Context, model string) (Generator, error)

// FirstAvailable tries each model in order and returns the first generator that
// initializes. Every failure is logged; if all fail the error wraps
// ErrNoModelAvailable and lists each model with its reason.
func FirstAvailable(ctx context.Context, modelNames []string, factory Factory) (Generator, error) {
	if len(modelNames) == 0 {
		return nil, fmt.Errorf("%w: no model names configured", ErrNoModelAvailable)
	}
	var reasons []string
	for _, name := range modelNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gen, err := factory(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("model", name).Msg("Model unavailable, trying next")
			reasons = append(reasons, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		log.Info().Str("model", name).Msg("Using generative model")
		return gen, nil
	}
	return nil, fmt.Errorf("%w: tried %s", ErrNoModelAvailable, strings.Join(reasons, "; "))
}

// call llm
func GenerateContent(ctx context.Context, gen Generator, prompt string) (string, error) {
	log.Debug().Str("model", gen.Model()).Int("prompt_len", len(prompt)).Msg("Generating content")
	text, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generation with %s failed: %w", gen.Model(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty answer", gen.Model())
	}
	return text, nil
}
