package chromemdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"fitcoach/internal/helper"
	"fitcoach/internal/models"
)

// ErrIndexNotFound is returned by Load when the index directory lacks either file.
var ErrIndexNotFound = errors.New("vector index not found")

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embed         chromem.EmbeddingFunc
	dbPath        string
	compress      bool
	encryptionKey string
}

// NewVectorDBManager initializes an empty in-memory database that Save writes to dbPath.
func NewVectorDBManager(dbPath string, compress bool, encryptionKey string, embed chromem.EmbeddingFunc) *VectorDBManager {
	return &VectorDBManager{
		db:            chromem.NewDB(),
		embed:         embed,
		dbPath:        dbPath,
		compress:      compress,
		encryptionKey: encryptionKey,
	}
}

// IndexPath is the file holding the exported collection.
func IndexPath(dbPath string) string { return filepath.Join(dbPath, models.IndexFileName) }

// ManifestPath is the file holding the index manifest.
func ManifestPath(dbPath string) string { return filepath.Join(dbPath, models.ManifestFileName) }

// Exists reports ErrIndexNotFound unless both index files are present in dbPath.
func Exists(dbPath string) error {
	for _, p := range []string{IndexPath(dbPath), ManifestPath(dbPath)} {
		if !helper.FileExists(p) {
			return fmt.Errorf("%w: %s is missing", ErrIndexNotFound, p)
		}
	}
	return nil
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection(collectionName string) (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(collectionName, nil, m.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.collection = c
	return c, nil
}

// CreateDocs adds embedded chunks to the current collection.
func (m *VectorDBManager) CreateDocs(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if m.collection == nil {
		return fmt.Errorf("collection is required")
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Metadata:  CreateMetadata(c.Chunk),
			Embedding: c.Embedding,
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Count returns the number of chunks in the current collection.
func (m *VectorDBManager) Count() int {
	if m.collection == nil {
		return 0
	}
	return m.collection.Count()
}

// Search returns the topK chunks most similar to the query embedding, best first.
// topK is clamped to the collection size.
func (m *VectorDBManager) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]models.SearchResult, error) {
	if m.collection == nil {
		return nil, fmt.Errorf("collection is required")
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	topK = min(topK, m.collection.Count())
	if topK <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]models.SearchResult, len(results))
	for i, r := range results {
		out[i] = models.SearchResult{Chunk: ParseMetadata(r.ID, r.Content, r.Metadata), Similarity: r.Similarity}
	}
	return out, nil
}

// Save replaces any index in dbPath with the current collection and manifest.
func (m *VectorDBManager) Save(manifest models.Manifest) error {
	if m.collection == nil {
		return fmt.Errorf("collection is required")
	}
	if err := helper.CreateFolder(m.dbPath); err != nil {
		return err
	}
	for _, p := range []string{IndexPath(m.dbPath), ManifestPath(m.dbPath)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove previous index file: %w", err)
		}
	}

	log.Debug().
		Str("collection", m.collection.Name).
		Str("file", IndexPath(m.dbPath)).
		Bool("compress", m.compress).
		Msg("Exporting collection")
	if err := m.db.ExportToFile(IndexPath(m.dbPath), m.compress, m.encryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}

	manifest.Collection = m.collection.Name
	manifest.ChunkCount = m.collection.Count()
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(ManifestPath(m.dbPath), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load imports the index saved in dbPath and selects its collection.
func Load(dbPath, encryptionKey string, embed chromem.EmbeddingFunc) (*VectorDBManager, *models.Manifest, error) {
	if err := Exists(dbPath); err != nil {
		return nil, nil, err
	}
	manifest, err := ReadManifest(dbPath)
	if err != nil {
		return nil, nil, err
	}

	m := NewVectorDBManager(dbPath, false, encryptionKey, embed)
	if err := m.db.ImportFromFile(IndexPath(dbPath), encryptionKey, manifest.Collection); err != nil {
		return nil, nil, fmt.Errorf("failed to import database: %w", err)
	}
	c := m.db.GetCollection(manifest.Collection, embed)
	if c == nil {
		return nil, nil, fmt.Errorf("collection %q missing from %s", manifest.Collection, IndexPath(dbPath))
	}
	m.collection = c

	if got := c.Count(); got != manifest.ChunkCount {
		log.Warn().Int("manifest", manifest.ChunkCount).Int("index", got).Msg("Index chunk count differs from manifest")
	}
	return m, manifest, nil
}

// ReadManifest decodes the manifest file in dbPath.
func ReadManifest(dbPath string) (*models.Manifest, error) {
	data, err := os.ReadFile(ManifestPath(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var manifest models.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if manifest.Collection == "" {
		manifest.Collection = models.CollectionName
	}
	return &manifest, nil
}

// CreateMetadata returns the provenance stored with each chunk.
func CreateMetadata(c models.Chunk) map[string]string {
	return map[string]string{
		models.MetaSource:  c.Source,
		models.MetaPage:    strconv.Itoa(c.PageNumber),
		models.MetaChunkID: strconv.Itoa(c.ChunkID),
	}
}

// ParseMetadata is the inverse of CreateMetadata.
func ParseMetadata(id, content string, meta map[string]string) models.Chunk {
	page, _ := strconv.Atoi(meta[models.MetaPage])
	chunkID, _ := strconv.Atoi(meta[models.MetaChunkID])
	return models.Chunk{
		ID:         id,
		Content:    content,
		Source:     meta[models.MetaSource],
		PageNumber: page,
		ChunkID:    chunkID,
	}
}
