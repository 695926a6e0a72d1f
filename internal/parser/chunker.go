package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"

	"fitcoach/internal/helper"
	"fitcoach/internal/models"
)

const (
	defaultChunkSize    = 1000 // characters
	defaultChunkOverlap = 200  // characters
)

// Splitter turns page text into overlapping chunks, trying paragraph, line,
// word and finally character boundaries.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = defaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 5
		}
	}
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(models.ChunkSeparators),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
		),
	}
}

// Split chunks every page independently so each chunk keeps its source and
// page number. Blank pages produce no chunks.
func (s *Splitter) Split(pages []models.Page) ([]models.Chunk, error) {
	docs := make([]schema.Document, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: p.Text,
			Metadata: map[string]any{
				models.MetaSource: p.Source,
				models.MetaPage:   p.Number,
			},
		})
	}
	if len(docs) == 0 {
		return nil, nil
	}

	splits, err := textsplitter.SplitDocuments(s.splitter, docs)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(splits))
	var lastKey string
	chunkID := 0
	for _, d := range splits {
		if strings.TrimSpace(d.PageContent) == "" {
			continue
		}
		source, _ := d.Metadata[models.MetaSource].(string)
		page, _ := d.Metadata[models.MetaPage].(int)
		key := source + "#" + strconv.Itoa(page)
		if key != lastKey {
			lastKey = key
			chunkID = 0
		}
		chunkID++
		chunks = append(chunks, models.Chunk{
			ID:         helper.ChunkUUID(source, page, chunkID),
			Content:    d.PageContent,
			Source:     source,
			PageNumber: page,
			ChunkID:    chunkID,
		})
	}
	return chunks, nil
}
