package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

// Secrets are never stored in the config file; they are injected from the
// process environment by ApplyEnv.
const (
	EnvLLMAPIKey      = "LLM_API_KEY"
	EnvVectorDBURL    = "VECTOR_DB_URL"
	EnvVectorDBAPIKey = "VECTOR_DB_API_KEY"
	EnvPostgresDSN    = "POSTGRES_DSN"
)

type Config struct {
	Port        int               `json:"port"`
	LogConfig   logger.LogConfig  `json:"log_config"`
	AI          AIConfig          `json:"ai"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	FileStore   FileStoreConfig   `json:"file_store"`
	Ingest      IngestConfig      `json:"ingest"`
	Retrieval   RetrievalConfig   `json:"retrieval"`
}

type AIConfig struct {
	Provider       string                 `json:"provider"`
	ChatModel      string                 `json:"chat_model"`
	EmbedModel     string                 `json:"embed_model"`
	TimeoutSeconds int                    `json:"timeout_seconds"`
	Data           map[string]interface{} `json:"data"`
}

type VectorStoreConfig struct {
	Type       string                 `json:"type"`
	Collection string                 `json:"collection"`
	Dimension  int                    `json:"dimension"`
	Data       map[string]interface{} `json:"data"`
}

type FileStoreConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type IngestConfig struct {
	ChunkSize       int    `json:"chunk_size"`
	ChunkOverlap    int    `json:"chunk_overlap"`
	StagingDir      string `json:"staging_dir"`
	StagingTTLHours int    `json:"staging_ttl_hours"`
}

type RetrievalConfig struct {
	TopK      int     `json:"top_k"`
	FetchK    int     `json:"fetch_k"`
	MMRLambda float64 `json:"mmr_lambda"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "mistral"
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "mistral-large-latest"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "mistral-embed"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.Data == nil {
		cfg.AI.Data = map[string]interface{}{}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "chromem"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "pdf_store"
	}
	if cfg.VectorStore.Dimension == 0 {
		cfg.VectorStore.Dimension = 1024
	}
	if cfg.VectorStore.Data == nil {
		cfg.VectorStore.Data = map[string]interface{}{}
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.Data == nil {
		cfg.FileStore.Data = map[string]interface{}{"dir": "./data/uploads"}
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	if cfg.Ingest.StagingDir == "" {
		cfg.Ingest.StagingDir = "./data/staging"
	}
	if cfg.Ingest.StagingTTLHours == 0 {
		cfg.Ingest.StagingTTLHours = 24
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.FetchK == 0 {
		cfg.Retrieval.FetchK = cfg.Retrieval.TopK * 5
	}
	if cfg.Retrieval.FetchK < cfg.Retrieval.TopK {
		return fmt.Errorf("retrieval.fetch_k must be at least retrieval.top_k")
	}
	if cfg.Retrieval.MMRLambda == 0 {
		cfg.Retrieval.MMRLambda = 0.5
	}
	if cfg.Retrieval.MMRLambda < 0 || cfg.Retrieval.MMRLambda > 1 {
		return fmt.Errorf("retrieval.mmr_lambda must be within [0, 1]")
	}
	return nil
}

// ApplyEnv injects environment-provided secrets into the provider and store
// config maps. Missing values are left unset; the affected client fails on
// first use rather than at startup.
func (cfg *Config) ApplyEnv() {
	if key := os.Getenv(EnvLLMAPIKey); key != "" {
		cfg.AI.Data["api_key"] = key
	}
	if url := os.Getenv(EnvVectorDBURL); url != "" {
		cfg.VectorStore.Data["url"] = url
	}
	if key := os.Getenv(EnvVectorDBAPIKey); key != "" {
		cfg.VectorStore.Data["api_key"] = key
	}
	if dsn := os.Getenv(EnvPostgresDSN); dsn != "" {
		cfg.VectorStore.Data["dsn"] = dsn
	}
}
