package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"fitcoach/internal/config"
	"fitcoach/internal/models"
)

// ErrProviderUnavailable means the embedding model could not be loaded or reached.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

const probeText = "embedding dimension probe"

// Provider wraps a fixed embedding model and returns L2-normalized vectors of a
// constant dimension.
type Provider struct {
	embedder embeddings.Embedder
	model    string
	dim      int
}

// NewOllamaProvider connects to a local Ollama runtime. Small sentence models
// such as all-minilm run on CPU.
func NewOllamaProvider(ctx context.Context, cfg *config.EmbedConfig) (*Provider, error) {
	log.Debug().Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("Initializing embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return NewProvider(ctx, embedder, cfg.Model)
}

// NewProvider wraps any langchaingo embedder. The model is probed once to learn
// its output dimension.
func NewProvider(ctx context.Context, embedder embeddings.Embedder, model string) (*Provider, error) {
	vec, err := embedder.EmbedQuery(ctx, probeText)
	if err != nil {
		return nil, fmt.Errorf("%w: model %q: %v", ErrProviderUnavailable, model, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: model %q returned an empty vector", ErrProviderUnavailable, model)
	}
	log.Info().Str("model", model).Int("dimension", len(vec)).Msg("Embedding model loaded")
	return &Provider{embedder: embedder, model: model, dim: len(vec)}, nil
}

func (p *Provider) Model() string { return p.model }

func (p *Provider) Dimension() int { return p.dim }

// Embed returns one normalized vector per text, in input order.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		if out[i], err = p.check(v); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return p.check(v)
}

// EmbeddingFunc adapts the provider for chromem-go collections.
func (p *Provider) EmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return p.EmbedQuery(ctx, text)
	}
}

func (p *Provider) check(v []float32) ([]float32, error) {
	if len(v) != p.dim {
		return nil, fmt.Errorf("embedding dimension %d, expected %d", len(v), p.dim)
	}
	return Normalize(v)
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("cannot normalize vector with norm %v", norm)
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// GenerateEmbedding embeds chunks in batches of batchSize and pairs each chunk
// with its vector.
func GenerateEmbedding(ctx context.Context, p *Provider, chunks []models.Chunk, batchSize int) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = len(chunks)
	}

	chunkEmbeddings := make([]models.ChunkEmbedding, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		vectors, err := p.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		for i, c := range chunks[start:end] {
			chunkEmbeddings = append(chunkEmbeddings, models.ChunkEmbedding{Chunk: c, Embedding: vectors[i]})
		}
		log.Debug().Int("done", end).Int("total", len(chunks)).Msg("Embedded chunks")
	}
	return chunkEmbeddings, nil
}
