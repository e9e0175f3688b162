package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: openai
  model: gpt-4o-mini
rag:
  top_k: 3
`
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 8000, cfg.RAG.MaxContextChars)
	assert.Equal(t, 25, cfg.RAG.MaxQuestions)
	assert.Equal(t, "memory", cfg.RAG.IndexBackend)
}

func TestLoadConfigKeyFromEnv(t *testing.T) {
	t.Setenv("DOCQA_LLM_KEY", "env-secret")

	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("llm:\n  provider: openai\n"), 0o644))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.LLM.Key)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
