package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned when the hosted LLM credential is not set.
var ErrMissingCredential = errors.New("missing LLM credential")

const (
	DefaultConfigPath = "./configs/config.yaml"
	DefaultEnvFile    = ".env"

	defaultDataDir        = "data"
	defaultIndexDir       = "vectorstore"
	defaultLogLevel       = "debug"
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 200
	defaultTopK           = 3
	defaultEmbedURL       = "http://localhost:11434"
	defaultEmbedModel     = "all-minilm"
	defaultEmbedBatchSize = 32
	defaultAPIKeyEnv      = "GOOGLE_API_KEY"
	defaultTemperature    = 0.3
	defaultMaxTokens      = 1024
	defaultAddr           = ":8501"
	defaultMaxSessions    = 1024
	defaultSessionTTL     = 12 * time.Hour
)

var defaultModels = []string{"gemini-1.5-flash", "gemini-1.5-pro", "models/gemini-1.5-flash"}

type Config struct {
	DataDir  string `yaml:"data_dir"`
	IndexDir string `yaml:"index_dir"`
	LogLevel string `yaml:"log_level"`

	EmbedLLM EmbedConfig  `yaml:"embed_llm"`
	RAG      RAGConfig    `yaml:"rag"`
	LLM      LLMConfig    `yaml:"llm"`
	Server   ServerConfig `yaml:"server"`
}

// EmbedConfig points at the local embedding runtime.
type EmbedConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

type RAGConfig struct {
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	TopK          int    `yaml:"top_k"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
}

// LLMConfig configures the hosted generative model. Models is tried in order.
// BaseURL overrides the Gemini API endpoint and is normally empty.
type LLMConfig struct {
	BaseURL         string   `yaml:"base_url"`
	APIKeyEnv       string   `yaml:"api_key_env"`
	Models          []string `yaml:"models"`
	Temperature     float32  `yaml:"temperature"`
	MaxOutputTokens int32    `yaml:"max_output_tokens"`
}

type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	MaxSessions int           `yaml:"max_sessions"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads the YAML file at path over the defaults, so keys absent from
// the file keep their default and present keys win, zero values included. A
// missing file is not an error. The .env file in the working directory, if any,
// is loaded into the process environment without overriding variables that are
// already set.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.DataDir = defaultDataDir
	cfg.IndexDir = defaultIndexDir
	cfg.LogLevel = defaultLogLevel
	cfg.EmbedLLM = EmbedConfig{
		BaseURL:   defaultEmbedURL,
		Model:     defaultEmbedModel,
		BatchSize: defaultEmbedBatchSize,
	}
	cfg.RAG = RAGConfig{
		ChunkSize:    defaultChunkSize,
		ChunkOverlap: defaultChunkOverlap,
		TopK:         defaultTopK,
	}
	cfg.LLM = LLMConfig{
		APIKeyEnv:       defaultAPIKeyEnv,
		Models:          append([]string(nil), defaultModels...),
		Temperature:     defaultTemperature,
		MaxOutputTokens: defaultMaxTokens,
	}
	cfg.Server = ServerConfig{
		Addr:        defaultAddr,
		MaxSessions: defaultMaxSessions,
		SessionTTL:  defaultSessionTTL,
	}
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.DataDir == "" || c.IndexDir == "" {
		return fmt.Errorf("data_dir and index_dir must be set")
	}
	if c.EmbedLLM.Model == "" || c.EmbedLLM.BatchSize <= 0 {
		return fmt.Errorf("embed_llm.model must be set and embed_llm.batch_size must be positive")
	}
	if k := len(c.RAG.EncryptionKey); k != 0 && k != 32 {
		return fmt.Errorf("rag.encryption_key must be 32 bytes, got %d", k)
	}
	if c.LLM.APIKeyEnv == "" {
		return fmt.Errorf("llm.api_key_env must be set")
	}
	if len(c.LLM.Models) == 0 {
		return fmt.Errorf("llm.models must list at least one model")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("llm.max_output_tokens must be positive, got %d", c.LLM.MaxOutputTokens)
	}
	if c.Server.MaxSessions <= 0 || c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.max_sessions and server.session_ttl must be positive")
	}
	for _, m := range c.LLM.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("llm.models must not contain empty names")
		}
	}
	return nil
}

// Credential returns the hosted LLM API key from the configured environment
// variable, or an error naming that variable.
func (c *Config) Credential() (string, error) {
	key := strings.TrimSpace(os.Getenv(c.LLM.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("%w: %s is not set, add it to your environment or %s", ErrMissingCredential, c.LLM.APIKeyEnv, DefaultEnvFile)
	}
	return key, nil
}
