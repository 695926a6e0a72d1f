package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"fitcoach/internal/config"
	"fitcoach/internal/ingest"
	"fitcoach/internal/llmservice"
	"fitcoach/internal/rag"
)

func TestTroubleshooting(t *testing.T) {
	hint := troubleshooting(fmt.Errorf("wrapped: %w", config.ErrMissingCredential), "GOOGLE_API_KEY")
	require.Contains(t, hint, "Troubleshooting steps:")
	require.Contains(t, hint, "1. Set GOOGLE_API_KEY")

	require.Contains(t, troubleshooting(fmt.Errorf("%w: %q", ingest.ErrNoDocuments, "data"), "GOOGLE_API_KEY"), "data/")
	require.Contains(t, troubleshooting(rag.ErrIndexNotFound, "GOOGLE_API_KEY"), "fitcoach ingest")
	require.Empty(t, troubleshooting(errors.New("something else"), "GOOGLE_API_KEY"))
}

func TestTroubleshooting_UsesConfiguredKeyVariable(t *testing.T) {
	hint := troubleshooting(config.ErrMissingCredential, "GEMINI_KEY")
	require.Contains(t, hint, "1. Set GEMINI_KEY")
	require.NotContains(t, hint, "GOOGLE_API_KEY")

	hint = troubleshooting(fmt.Errorf("%w: tried a", llmservice.ErrNoModelAvailable), "GEMINI_KEY")
	require.Contains(t, hint, "Check that GEMINI_KEY is valid")
}

func TestRedacted(t *testing.T) {
	cfg := config.Default()
	cfg.RAG.EncryptionKey = "0123456789abcdef0123456789abcdef"
	out := redacted(cfg)
	require.Equal(t, "***", out.RAG.EncryptionKey)
	require.Equal(t, "0123456789abcdef0123456789abcdef", cfg.RAG.EncryptionKey)
}
