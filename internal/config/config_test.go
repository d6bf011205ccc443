package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "mistral", cfg.AI.Provider)
	require.Equal(t, "mistral-embed", cfg.AI.EmbedModel)
	require.Equal(t, "pdf_store", cfg.VectorStore.Collection)
	require.Equal(t, 1000, cfg.Ingest.ChunkSize)
	require.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	require.Equal(t, 4, cfg.Retrieval.TopK)
	require.Equal(t, 20, cfg.Retrieval.FetchK)
	require.InDelta(t, 0.5, cfg.Retrieval.MMRLambda, 1e-9)
}

func TestLoad_RejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	_, err := Load(writeConfig(t, `{"ingest":{"chunk_size":100,"chunk_overlap":100}}`))
	require.Error(t, err)
}

func TestLoad_RejectsFetchKBelowTopK(t *testing.T) {
	_, err := Load(writeConfig(t, `{"retrieval":{"top_k":8,"fetch_k":4}}`))
	require.Error(t, err)
}

func TestApplyEnv_InjectsSecrets(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	t.Setenv(EnvLLMAPIKey, "test-llm-key")
	t.Setenv(EnvVectorDBURL, "https://qdrant.example.com")
	t.Setenv(EnvVectorDBAPIKey, "test-db-key")
	cfg.ApplyEnv()

	require.Equal(t, "test-llm-key", cfg.AI.Data["api_key"])
	require.Equal(t, "https://qdrant.example.com", cfg.VectorStore.Data["url"])
	require.Equal(t, "test-db-key", cfg.VectorStore.Data["api_key"])
}

func TestApplyEnv_LeavesUnsetSecretsAlone(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	t.Setenv(EnvLLMAPIKey, "")
	cfg.ApplyEnv()
	_, ok := cfg.AI.Data["api_key"]
	require.False(t, ok)
}
