package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fitcoach/internal/config"
	"fitcoach/internal/embedding"
	"fitcoach/internal/ingest"
	"fitcoach/internal/llmservice"
	"fitcoach/internal/rag"
)

var (
	configPath string
	// apiKeyEnv names the credential variable in troubleshooting output.
	apiKeyEnv = config.Default().LLM.APIKeyEnv
)

var rootCmd = &cobra.Command{
	Use:   "fitcoach",
	Short: "Fitness question answering over your own PDF library",
	Long: `fitcoach indexes the PDF files in the data directory into a local vector
index and answers fitness, muscle building and nutrition questions from them
with a hosted Gemini model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "path to config.yaml")
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("fitcoach failed")
		if hint := troubleshooting(err, apiKeyEnv); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies its log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown log level, using debug")
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	apiKeyEnv = cfg.LLM.APIKeyEnv
	log.Debug().Interface("config", redacted(cfg)).Msg("Loaded config")
	return cfg, nil
}

func redacted(cfg *config.Config) config.Config {
	out := *cfg
	if out.RAG.EncryptionKey != "" {
		out.RAG.EncryptionKey = "***"
	}
	return out
}

// troubleshooting returns remediation steps for the startup failures a user can fix.
func troubleshooting(err error, keyEnv string) string {
	var steps []string
	switch {
	case errors.Is(err, ingest.ErrDataDirNotFound), errors.Is(err, ingest.ErrNoDocuments):
		steps = append(steps, "Make sure PDF files are in the 'data/' directory (or set data_dir in the config)")
	case errors.Is(err, config.ErrMissingCredential):
		steps = append(steps, "Set "+keyEnv+" in your environment or in a .env file")
	case errors.Is(err, rag.ErrIndexNotFound), errors.Is(err, rag.ErrEmbeddingMismatch):
		steps = append(steps, "Build the vector index first: fitcoach ingest")
	case errors.Is(err, embedding.ErrProviderUnavailable):
		steps = append(steps, "Start Ollama and pull the embedding model, e.g. ollama pull all-minilm")
	case errors.Is(err, llmservice.ErrNoModelAvailable):
		steps = append(steps,
			"Check that "+keyEnv+" is valid",
			"Check llm.models in the config lists models your key can use")
	default:
		return ""
	}
	var b strings.Builder
	b.WriteString("\nTroubleshooting steps:\n")
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}
