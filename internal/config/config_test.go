package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		Chat: ChatConfig{Models: []string{"gpt-4o-mini"}},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingEmbeddingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_MissingChatModels(t *testing.T) {
	cfg := validConfig()
	cfg.Chat.Models = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty chat model list")
	}
}

func TestValidate_OverlapNotSmallerThanChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.ChunkOverlap = cfg.Ingest.ChunkSize
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= chunk size")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Storage.MaxUploadMB != 50 {
		t.Errorf("MaxUploadMB = %d, want 50", cfg.Storage.MaxUploadMB)
	}
	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("ChunkSize = %d, want 1000", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("ChunkOverlap = %d, want 200", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Chat.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.Chat.TopK)
	}
	if cfg.Chat.HistoryMessages != 6 {
		t.Errorf("HistoryMessages = %d, want 6", cfg.Chat.HistoryMessages)
	}
	if cfg.Embedding.BatchSize != 16 {
		t.Errorf("BatchSize = %d, want 16", cfg.Embedding.BatchSize)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("CAMPUSKB_TEST_KEY", "secret")
	defer os.Unsetenv("CAMPUSKB_TEST_KEY")

	in := []byte("api_key: ${CAMPUSKB_TEST_KEY}\nbase_url: ${CAMPUSKB_TEST_URL:-http://localhost}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nbase_url: http://localhost\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("ENV")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	os.Setenv("ENV", "prod")
	defer os.Unsetenv("ENV")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
