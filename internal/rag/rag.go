package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/prompts"

	"fitcoach/internal/chromemdb"
	"fitcoach/internal/config"
	"fitcoach/internal/embedding"
	"fitcoach/internal/llmservice"
	"fitcoach/internal/models"
)

var (
	ErrIndexNotFound     = errors.New("no vector index found, run `fitcoach ingest` first")
	ErrEmbeddingMismatch = errors.New("index was built with a different embedding model, re-run `fitcoach ingest`")
	ErrEmptyQuestion     = errors.New("question must not be empty")
)

// Deps builds the external services the engine needs. They are only called once
// the index and credential checks pass.
type Deps struct {
	LoadEmbedder func(ctx context.Context) (*embedding.Provider, error)
	NewFactory   func(ctx context.Context, apiKey string) (llmservice.Factory, error)
}

// DefaultDeps connects to the configured Ollama embedder and the Gemini API.
func DefaultDeps(cfg *config.Config) Deps {
	return Deps{
		LoadEmbedder: func(ctx context.Context) (*embedding.Provider, error) {
			return embedding.NewOllamaProvider(ctx, &cfg.EmbedLLM)
		},
		NewFactory: func(ctx context.Context, apiKey string) (llmservice.Factory, error) {
			return llmservice.NewGeminiFactory(ctx, apiKey, &cfg.LLM)
		},
	}
}

type RAG struct {
	cfg       *config.Config
	db        *chromemdb.VectorDBManager
	manifest  *models.Manifest
	embedder  *embedding.Provider
	generator llmservice.Generator
	prompt    prompts.PromptTemplate
}

// New loads the persisted index and selects a generative model. Nothing is
// loaded when the index or the credential is missing.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*RAG, error) {
	if err := chromemdb.Exists(cfg.IndexDir); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrIndexNotFound, err)
	}
	apiKey, err := cfg.Credential()
	if err != nil {
		return nil, err
	}

	embedder, err := deps.LoadEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	db, manifest, err := chromemdb.Load(cfg.IndexDir, cfg.RAG.EncryptionKey, embedder.EmbeddingFunc())
	if err != nil {
		return nil, err
	}
	if err := checkManifest(manifest, embedder); err != nil {
		return nil, err
	}
	log.Info().
		Str("index", cfg.IndexDir).
		Int("chunks", db.Count()).
		Str("embedding_model", manifest.EmbeddingModel).
		Msg("Vector index loaded")

	factory, err := deps.NewFactory(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	generator, err := llmservice.FirstAvailable(ctx, cfg.LLM.Models, factory)
	if err != nil {
		return nil, err
	}

	return &RAG{
		cfg:       cfg,
		db:        db,
		manifest:  manifest,
		embedder:  embedder,
		generator: generator,
		prompt:    prompts.NewPromptTemplate(models.AnswerPromptTemplate, []string{"context", "question"}),
	}, nil
}

func checkManifest(manifest *models.Manifest, embedder *embedding.Provider) error {
	if manifest.EmbeddingModel != "" && manifest.EmbeddingModel != embedder.Model() {
		return fmt.Errorf("%w: index uses %q, configured model is %q", ErrEmbeddingMismatch, manifest.EmbeddingModel, embedder.Model())
	}
	if manifest.Dimension != 0 && manifest.Dimension != embedder.Dimension() {
		return fmt.Errorf("%w: index dimension %d, model dimension %d", ErrEmbeddingMismatch, manifest.Dimension, embedder.Dimension())
	}
	return nil
}

// Model is the name of the generative model in use.
func (r *RAG) Model() string { return r.generator.Model() }

func (r *RAG) Manifest() models.Manifest { return *r.manifest }

// Retrieve returns the topK chunks most similar to the question, best first.
func (r *RAG) Retrieve(ctx context.Context, question string, topK int) ([]models.SearchResult, error) {
	q, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	return r.db.Search(ctx, q, topK)
}

// BuildPrompt fills the answer template with the retrieved chunks in rank order.
func (r *RAG) BuildPrompt(question string, results []models.SearchResult) (string, error) {
	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = res.Content
	}
	return r.prompt.Format(map[string]any{
		"context":  strings.Join(parts, models.ContextSeparator),
		"question": question,
	})
}

// Answer retrieves context for the question and asks the model to answer from it.
func (r *RAG) Answer(ctx context.Context, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	results, err := r.Retrieve(ctx, question, r.cfg.RAG.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	log.Debug().Str("question", question).Int("results", len(results)).Msg("Retrieved context")

	prompt, err := r.BuildPrompt(question, results)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	content, err := llmservice.GenerateContent(ctx, r.generator, prompt)
	if err != nil {
		return nil, err
	}
	return &models.Answer{
		Query:   question,
		Content: content,
		Model:   r.generator.Model(),
		Sources: results,
	}, nil
}
