package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fitcoach/internal/embedding"
	"fitcoach/internal/helper"
	"fitcoach/internal/ingest"
)

var dryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index from the PDFs in the data directory",
	Long: `Reads every .pdf file in the data directory, splits the pages into
overlapping chunks, embeds them with the local embedding model and writes the
index to the index directory, replacing any previous index.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and chunk only, do not embed or write the index")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(cfg, func(ctx context.Context) (*embedding.Provider, error) {
		return embedding.NewOllamaProvider(ctx, &cfg.EmbedLLM)
	})
	report, err := pipeline.Run(cmd.Context(), dryRun)
	if err != nil {
		return err
	}

	if report.DryRun {
		log.Info().Msg("Dry run, nothing written")
		helper.PrettyPrint(report)
		return nil
	}
	if len(report.Missing) > 0 {
		log.Warn().Strs("missing", report.Missing).Msg("Index written but some files are missing")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d documents (%d pages) into %s\n",
		report.ChunkCount(), len(report.Documents), report.Pages, report.IndexDir)
	return nil
}
