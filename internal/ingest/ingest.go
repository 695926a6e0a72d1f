package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"fitcoach/internal/chromemdb"
	"fitcoach/internal/config"
	"fitcoach/internal/embedding"
	"fitcoach/internal/helper"
	"fitcoach/internal/models"
	"fitcoach/internal/parser"
)

var (
	ErrDataDirNotFound = errors.New("data directory not found")
	ErrNoDocuments     = errors.New("no documents found")
)

// PageReader extracts the pages of one PDF file.
type PageReader func(path string) ([]models.Page, error)

// ProviderLoader builds the embedding provider. It is called only once the
// documents have been parsed and chunked.
type ProviderLoader func(ctx context.Context) (*embedding.Provider, error)

// Report summarises an ingestion run.
type Report struct {
	Documents []models.Document `json:"documents"`
	Pages     int               `json:"pages"`
	Chunks    []models.Chunk    `json:"-"`
	IndexDir  string            `json:"index_dir,omitempty"`
	Missing   []string          `json:"missing,omitempty"`
	DryRun    bool              `json:"dry_run"`
}

func (r *Report) ChunkCount() int { return len(r.Chunks) }

type Pipeline struct {
	cfg          *config.Config
	loadProvider ProviderLoader
	readPages    PageReader
	splitter     *parser.Splitter
}

func NewPipeline(cfg *config.Config, loadProvider ProviderLoader) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		loadProvider: loadProvider,
		readPages:    parser.ReadPages,
		splitter:     parser.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
	}
}

// WithPageReader replaces the PDF reader.
func (p *Pipeline) WithPageReader(r PageReader) *Pipeline {
	p.readPages = r
	return p
}

// Run ingests every PDF in the data directory and writes the index to the index
// directory, replacing what was there. With dryRun nothing is embedded or written.
func (p *Pipeline) Run(ctx context.Context, dryRun bool) (*Report, error) {
	dataDir := p.cfg.DataDir
	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrDataDirNotFound, dataDir)
	}

	names, err := parser.ListPDFs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", dataDir, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no PDF files in %q", ErrNoDocuments, dataDir)
	}
	log.Info().Int("files", len(names)).Str("dir", dataDir).Msg("Found PDF files to process")

	report := &Report{DryRun: dryRun}
	var pages []models.Page
	for _, name := range names {
		path := filepath.Join(dataDir, name)
		docPages, err := p.readPages(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		log.Info().Str("file", name).Int("pages", len(docPages)).Msg("Loaded document")
		pages = append(pages, docPages...)
		report.Documents = append(report.Documents, models.Document{Path: path, Name: name, PageCount: len(docPages)})
		report.Pages += len(docPages)
	}

	chunks, err := p.splitter.Split(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to split documents: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %d PDF files", ErrNoDocuments, len(names))
	}
	report.Chunks = chunks
	countChunks(report)
	log.Info().Int("pages", report.Pages).Int("chunks", len(chunks)).Msg("Split documents into chunks")

	if dryRun {
		return report, nil
	}

	provider, err := p.loadProvider(ctx)
	if err != nil {
		return nil, err
	}
	embedded, err := embedding.GenerateEmbedding(ctx, provider, chunks, p.cfg.EmbedLLM.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	db := chromemdb.NewVectorDBManager(p.cfg.IndexDir, p.cfg.RAG.Compress, p.cfg.RAG.EncryptionKey, provider.EmbeddingFunc())
	if _, err := db.GetOrCreateCollection(models.CollectionName); err != nil {
		return nil, err
	}
	log.Info().Int("documents", len(embedded)).Msg("Adding documents to vector database")
	if err := db.CreateDocs(ctx, embedded); err != nil {
		return nil, err
	}
	err = db.Save(models.Manifest{
		EmbeddingModel: provider.Model(),
		Dimension:      provider.Dimension(),
		Documents:      report.Documents,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", p.cfg.IndexDir).Msg("Vector index saved")

	report.IndexDir = p.cfg.IndexDir
	report.Missing = verifyOutput(p.cfg.IndexDir)
	return report, nil
}

func countChunks(report *Report) {
	perSource := make(map[string]int, len(report.Documents))
	for _, c := range report.Chunks {
		perSource[c.Source]++
	}
	for i := range report.Documents {
		report.Documents[i].Chunks = perSource[report.Documents[i].Name]
	}
}

// verifyOutput warns about expected index files that are not on disk.
func verifyOutput(dir string) []string {
	var missing []string
	for _, path := range []string{chromemdb.IndexPath(dir), chromemdb.ManifestPath(dir)} {
		if helper.FileExists(path) {
			log.Info().Str("file", path).Msg("Index file created")
			continue
		}
		log.Warn().Str("file", path).Msg("Expected index file not found")
		missing = append(missing, path)
	}
	return missing
}
