package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, "vectorstore", cfg.IndexDir)
	require.Equal(t, 1000, cfg.RAG.ChunkSize)
	require.Equal(t, 200, cfg.RAG.ChunkOverlap)
	require.Equal(t, 3, cfg.RAG.TopK)
	require.Equal(t, "GOOGLE_API_KEY", cfg.LLM.APIKeyEnv)
	require.Equal(t, []string{"gemini-1.5-flash", "gemini-1.5-pro", "models/gemini-1.5-flash"}, cfg.LLM.Models)
	require.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-6)
	require.Equal(t, int32(1024), cfg.LLM.MaxOutputTokens)
}

func TestLoadConfig_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: pdfs
rag:
  top_k: 5
llm:
  models: [gemini-2.0-flash]
server:
  addr: ":9000"
  session_ttl: 30m
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "pdfs", cfg.DataDir)
	require.Equal(t, 5, cfg.RAG.TopK)
	require.Equal(t, 1000, cfg.RAG.ChunkSize)
	require.Equal(t, []string{"gemini-2.0-flash"}, cfg.LLM.Models)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	require.Equal(t, "all-minilm", cfg.EmbedLLM.Model)
}

func TestLoadConfig_RejectsOverlapNotBelowSize(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_size: 100
  chunk_overlap: 100
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "rag: [unclosed")
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestCredential(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKeyEnv = "FITCOACH_TEST_API_KEY"

	t.Setenv("FITCOACH_TEST_API_KEY", "")
	_, err := cfg.Credential()
	require.True(t, errors.Is(err, ErrMissingCredential))
	require.Contains(t, err.Error(), "FITCOACH_TEST_API_KEY")

	t.Setenv("FITCOACH_TEST_API_KEY", "  secret ")
	key, err := cfg.Credential()
	require.NoError(t, err)
	require.Equal(t, "secret", key)
}

func TestLoadConfig_ExplicitZeroValuesKept(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_overlap: 0
llm:
  temperature: 0
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.RAG.ChunkOverlap)
	require.Equal(t, 1000, cfg.RAG.ChunkSize)
	require.Zero(t, cfg.LLM.Temperature)
	require.Equal(t, int32(1024), cfg.LLM.MaxOutputTokens)
	require.Equal(t, "GOOGLE_API_KEY", cfg.LLM.APIKeyEnv)
}

func TestLoadConfig_RejectsUnusableZeroValues(t *testing.T) {
	for name, body := range map[string]string{
		"top_k":       "rag:\n  top_k: 0\n",
		"models":      "llm:\n  models: []\n",
		"max_tokens":  "llm:\n  max_output_tokens: 0\n",
		"temperature": "llm:\n  temperature: -1\n",
		"data_dir":    "data_dir: \"\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}
