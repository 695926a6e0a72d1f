package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fitcoach/internal/rag"
)

var (
	askJSON    bool
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", true, "print the retrieved source chunks")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := rag.New(cmd.Context(), cfg, rag.DefaultDeps(cfg))
	if err != nil {
		return err
	}

	answer, err := engine.Answer(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("error processing query: %w", err)
	}

	out := cmd.OutOrStdout()
	if askJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Fprintf(out, "%s\n\n", answer.Query)

	if askSources {
		log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		for _, s := range answer.Sources {
			fmt.Fprintf(out, "[%s p.%d, %.2f] %s\n\n", s.Source, s.PageNumber, s.Similarity, s.Content)
		}
	}

	log.Info().Str("model", answer.Model).Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Fprintf(out, "%s\n\n", answer.Content)
	return nil
}
