// Package embeddingtest provides a deterministic bag-of-words embedder for tests.
package embeddingtest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
)

var _ embeddings.Embedder = (*Fake)(nil)

// Fake hashes lowercase words into Dim buckets. Texts sharing words get similar
// vectors, which is enough to exercise retrieval.
type Fake struct {
	Dim int
	Err error

	mu    sync.Mutex
	calls int
}

func New(dim int) *Fake { return &Fake{Dim: dim} }

func (f *Fake) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *Fake) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

// Calls reports how many embed requests were made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) vector(text string) []float32 {
	v := make([]float32, f.Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%uint32(f.Dim)]++
	}
	if len(words) == 0 {
		v[0] = 1
	}
	return v
}
