package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Store.Backend != "qdrant" {
		t.Fatalf("default backend = %q", cfg.Store.Backend)
	}
	if cfg.Processing.ChunkSize != 1000 || cfg.Processing.ChunkOverlap != 200 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Processing)
	}
	if cfg.Retrieval.TopK != 3 || cfg.Retrieval.SearchType != "similarity" || cfg.Retrieval.Prompt != "expert" {
		t.Fatalf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Ollama.Temperature != 0 {
		t.Fatalf("temperature default should be 0, got %f", cfg.Ollama.Temperature)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Store.Backend = "memory"
	cfg.Processing.ChunkSize = 500
	cfg.applyDefaults()

	if cfg.Store.Backend != "memory" {
		t.Fatalf("explicit backend overwritten: %q", cfg.Store.Backend)
	}
	if cfg.Processing.ChunkSize != 500 {
		t.Fatalf("explicit chunk size overwritten: %d", cfg.Processing.ChunkSize)
	}
	if cfg.Processing.ChunkOverlap != 200 {
		t.Fatalf("unset overlap should default: %d", cfg.Processing.ChunkOverlap)
	}
}
