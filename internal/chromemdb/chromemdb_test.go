package chromemdb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"fitcoach/internal/embedding"
	"fitcoach/internal/embedding/embeddingtest"
	"fitcoach/internal/helper"
	"fitcoach/internal/models"
)

func testChunks() []models.Chunk {
	texts := []string{
		"progressive overload builds muscle over time",
		"eat enough protein every day for recovery",
		"sleep eight hours to recover from training",
		"deadlift with a neutral spine",
	}
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			ID:         helper.ChunkUUID("guide.pdf", i+1, 1),
			Content:    text,
			Source:     "guide.pdf",
			PageNumber: i + 1,
			ChunkID:    1,
		}
	}
	return chunks
}

func buildIndex(t *testing.T, dir string) (*VectorDBManager, *embedding.Provider) {
	t.Helper()
	ctx := context.Background()
	p, err := embedding.NewProvider(ctx, embeddingtest.New(512), "fake")
	require.NoError(t, err)

	embedded, err := embedding.GenerateEmbedding(ctx, p, testChunks(), 0)
	require.NoError(t, err)

	m := NewVectorDBManager(dir, false, "", p.EmbeddingFunc())
	_, err = m.GetOrCreateCollection(models.CollectionName)
	require.NoError(t, err)
	require.NoError(t, m.CreateDocs(ctx, embedded))
	return m, p
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, p := buildIndex(t, dir)
	require.Equal(t, 4, m.Count())

	require.NoError(t, m.Save(models.Manifest{EmbeddingModel: p.Model(), Dimension: p.Dimension()}))
	require.NoError(t, Exists(dir))

	loaded, manifest, err := Load(dir, "", p.EmbeddingFunc())
	require.NoError(t, err)
	require.Equal(t, 4, loaded.Count())
	require.Equal(t, 4, manifest.ChunkCount)
	require.Equal(t, "fake", manifest.EmbeddingModel)
	require.Equal(t, 512, manifest.Dimension)
	require.Equal(t, models.CollectionName, manifest.Collection)
	require.False(t, manifest.CreatedAt.IsZero())

	q, err := p.EmbedQuery(ctx, "how much protein should I eat")
	require.NoError(t, err)
	results, err := loaded.Search(ctx, q, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "eat enough protein every day for recovery", results[0].Content)
	require.Equal(t, "guide.pdf", results[0].Source)
	require.Equal(t, 2, results[0].PageNumber)
	require.Equal(t, 1, results[0].ChunkID)
	require.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
	require.GreaterOrEqual(t, results[1].Similarity, results[2].Similarity)
}

func TestSearch_ClampsTopK(t *testing.T) {
	ctx := context.Background()
	m, p := buildIndex(t, t.TempDir())
	q, err := p.EmbedQuery(ctx, "muscle")
	require.NoError(t, err)

	results, err := m.Search(ctx, q, 10)
	require.NoError(t, err)
	require.Len(t, results, 4)

	_, err = m.Search(ctx, nil, 3)
	require.Error(t, err)
}

func TestSave_OverwritesPreviousIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(IndexPath(dir), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(ManifestPath(dir), []byte("{}"), 0o644))

	m, p := buildIndex(t, dir)
	require.NoError(t, m.Save(models.Manifest{EmbeddingModel: p.Model(), Dimension: p.Dimension()}))

	manifest, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, 4, manifest.ChunkCount)

	_, _, err = Load(dir, "", p.EmbeddingFunc())
	require.NoError(t, err)
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Load(dir, "", nil)
	require.ErrorIs(t, err, ErrIndexNotFound)

	require.NoError(t, os.WriteFile(IndexPath(dir), []byte("x"), 0o644))
	err = Exists(dir)
	require.ErrorIs(t, err, ErrIndexNotFound)
	require.Contains(t, err.Error(), models.ManifestFileName)
}

func TestMetadataRoundTrip(t *testing.T) {
	c := models.Chunk{ID: "id", Content: "text", Source: "a.pdf", PageNumber: 7, ChunkID: 3}
	require.Equal(t, c, ParseMetadata(c.ID, c.Content, CreateMetadata(c)))
}
