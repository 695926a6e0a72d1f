package llmservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	model string
	reply string
	err   error
}

func (s *stubGenerator) Model() string { return s.model }

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	return s.reply, s.err
}

func factoryFor(available map[string]bool, tried *[]string) Factory {
	return func(_ context.Context, model string) (Generator, error) {
		*tried = append(*tried, model)
		if !available[model] {
			return nil, errors.New("model not found")
		}
		return &stubGenerator{model: model, reply: "ok"}, nil
	}
}

func TestFirstAvailable_FallsBackInOrder(t *testing.T) {
	var tried []string
	gen, err := FirstAvailable(context.Background(),
		[]string{"gemini-1.5-flash", "gemini-1.5-pro", "models/gemini-1.5-flash"},
		factoryFor(map[string]bool{"gemini-1.5-pro": true, "models/gemini-1.5-flash": true}, &tried))
	require.NoError(t, err)
	require.Equal(t, "gemini-1.5-pro", gen.Model())
	require.Equal(t, []string{"gemini-1.5-flash", "gemini-1.5-pro"}, tried)
}

func TestFirstAvailable_FirstWins(t *testing.T) {
	var tried []string
	gen, err := FirstAvailable(context.Background(), []string{"a", "b"},
		factoryFor(map[string]bool{"a": true, "b": true}, &tried))
	require.NoError(t, err)
	require.Equal(t, "a", gen.Model())
	require.Len(t, tried, 1)
}

func TestFirstAvailable_NoneAvailable(t *testing.T) {
	var tried []string
	_, err := FirstAvailable(context.Background(), []string{"a", "b"}, factoryFor(nil, &tried))
	require.ErrorIs(t, err, ErrNoModelAvailable)
	require.Contains(t, err.Error(), "a: model not found")
	require.Contains(t, err.Error(), "b: model not found")
	require.Equal(t, []string{"a", "b"}, tried)

	_, err = FirstAvailable(context.Background(), nil, factoryFor(nil, &tried))
	require.ErrorIs(t, err, ErrNoModelAvailable)
}

func TestFirstAvailable_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var tried []string
	_, err := FirstAvailable(ctx, []string{"a"}, factoryFor(map[string]bool{"a": true}, &tried))
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, tried)
}

func TestGenerateContent(t *testing.T) {
	ctx := context.Background()
	text, err := GenerateContent(ctx, &stubGenerator{model: "m", reply: "  Squat deep.\n"}, "prompt")
	require.NoError(t, err)
	require.Equal(t, "Squat deep.", text)

	_, err = GenerateContent(ctx, &stubGenerator{model: "m", reply: "   "}, "prompt")
	require.Error(t, err)

	boom := errors.New("quota exceeded")
	_, err = GenerateContent(ctx, &stubGenerator{model: "m", err: boom}, "prompt")
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "m")
}
