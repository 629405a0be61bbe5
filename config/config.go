package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Store struct {
		Backend    string `yaml:"backend"` // qdrant, pgvector or memory
		Collection string `yaml:"collection"`
	} `yaml:"store"`
	Qdrant struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
	} `yaml:"qdrant"`
	Postgres struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"postgres"`
	Embeddings struct {
		Provider string `yaml:"provider"` // ollama or openai
	} `yaml:"embeddings"`
	Ollama struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		EmbeddingModel string  `yaml:"embedding_model"`
		Temperature    float64 `yaml:"temperature"`
	} `yaml:"ollama"`
	OpenAI struct {
		BaseURL        string `yaml:"base_url"`
		APIKeyEnv      string `yaml:"api_key_env"`
		EmbeddingModel string `yaml:"embedding_model"`
	} `yaml:"openai"`
	Processing struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processing"`
	Retrieval struct {
		TopK       int    `yaml:"top_k"`
		SearchType string `yaml:"search_type"` // similarity or mmr
		Prompt     string `yaml:"prompt"`
	} `yaml:"retrieval"`
	Paths struct {
		DocumentsDir  string `yaml:"documents_dir"`
		TelemetryFile string `yaml:"telemetry_file"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".lectern", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".lectern")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields so a partial config file still yields a
// runnable configuration.
func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "qdrant"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "cs_textbooks"
	}
	if c.Qdrant.URL == "" {
		c.Qdrant.URL = "http://localhost:6333"
	}
	if c.Postgres.ConnectionString == "" {
		c.Postgres.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	}
	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "ollama"
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.2"
	}
	if c.Ollama.EmbeddingModel == "" {
		c.Ollama.EmbeddingModel = "nomic-embed-text"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.APIKeyEnv == "" {
		c.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Processing.ChunkSize == 0 {
		c.Processing.ChunkSize = 1000
	}
	if c.Processing.ChunkOverlap == 0 {
		c.Processing.ChunkOverlap = 200
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.SearchType == "" {
		c.Retrieval.SearchType = "similarity"
	}
	if c.Retrieval.Prompt == "" {
		c.Retrieval.Prompt = "expert"
	}
	if c.Paths.DocumentsDir == "" {
		c.Paths.DocumentsDir = "documents"
	}
	if c.Paths.TelemetryFile == "" {
		c.Paths.TelemetryFile = filepath.Join(os.Getenv("HOME"), ".lectern", "feedback_data.json")
	}
}
