package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig points at one model endpoint, either for embeddings or for
// answer generation.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// RAGConfig tunes the retrieval pipeline.
type RAGConfig struct {
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	TopK            int    `yaml:"top_k"`
	MaxContextChars int    `yaml:"max_context_chars"`
	MaxQuestions    int    `yaml:"max_questions"`
	MaxRetries      int    `yaml:"max_retries"`
	RetryDelayMS    int    `yaml:"retry_delay_ms"`
	QuestionDelayMS int    `yaml:"question_delay_ms"`
	IndexBackend    string `yaml:"index_backend"` // "memory" or "chromem"
}

// DatabaseConfig configures the optional query/answer audit store.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Key     string `yaml:"key"`
	Debug   bool   `yaml:"debug"`
}

type Config struct {
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	LLM      LLMConfig      `yaml:"llm"`
	RAG      RAGConfig      `yaml:"rag"`
	Database DatabaseConfig `yaml:"database"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with working settings and lets secrets
// come from the environment instead of the config file.
func (c *Config) ApplyDefaults() {
	if c.LLM.Key == "" {
		c.LLM.Key = os.Getenv("DOCQA_LLM_KEY")
	}
	if c.EmbedLLM.Key == "" {
		c.EmbedLLM.Key = os.Getenv("DOCQA_EMBED_KEY")
	}
	if c.Database.DSN == "" {
		c.Database.DSN = os.Getenv("DOCQA_DB_DSN")
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 1000
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 200
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.MaxContextChars == 0 {
		c.RAG.MaxContextChars = 8000
	}
	if c.RAG.MaxQuestions == 0 {
		c.RAG.MaxQuestions = 25
	}
	if c.RAG.MaxRetries == 0 {
		c.RAG.MaxRetries = 2
	}
	if c.RAG.RetryDelayMS == 0 {
		c.RAG.RetryDelayMS = 1000
	}
	if c.RAG.QuestionDelayMS == 0 {
		c.RAG.QuestionDelayMS = 3000
	}
	if c.RAG.IndexBackend == "" {
		c.RAG.IndexBackend = "memory"
	}
}
