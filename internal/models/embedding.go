package models

import "time"

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	PageNumber int    `json:"page"`
	ChunkID    int    `json:"chunk_id"`
}

// Page is the text of one PDF page.
type Page struct {
	Source string
	Number int
	Text   string
}

type Document struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
	Chunks    int    `json:"chunks"`
}

// Manifest is persisted beside the index and records how it was built.
type Manifest struct {
	EmbeddingModel string     `json:"embedding_model"`
	Dimension      int        `json:"dimension"`
	ChunkCount     int        `json:"chunk_count"`
	Collection     string     `json:"collection"`
	Documents      []Document `json:"documents"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Answer struct {
	Query   string         `json:"query"`
	Content string         `json:"answer"`
	Model   string         `json:"model"`
	Sources []SearchResult `json:"sources,omitempty"`
}

// SearchResult is a retrieved chunk and its cosine similarity to the query.
type SearchResult struct {
	Chunk
	Similarity float32 `json:"similarity"`
}

type ChatMessage struct {
	Role    string
	Content string
	At      time.Time
}

// ChunkEmbedding pairs a chunk with its embedding vector
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}
