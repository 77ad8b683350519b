package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/formfill/internal/config"
)

const baseConfig = `
log_level = "debug"
version = "0.1.0"

[agent]
name = "test-agent"

[agent.provider]
name = "ollama"

[agent.model]
name = "llama3.1:8b"

[embedding]
base_url = "http://localhost:11434/v1"
model = "nomic-embed-text"
cache_size = 128

[index]
storage_dir = "./storage"
top_k = 3
chunker = "simple"

[extraction]
max_document_size = "10MB"

[documents]
provider = "local"
root = "./docs"

[workflow]
run_timeout = "600s"
max_concurrency = 4
`

const overlayConfig = `
[index]
top_k = 8

[workflow]
run_timeout = "30s"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644))
}

// workspace switches into a fresh directory and names a completion model,
// so tests do not depend on go-agents defaults.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.EnvCompletionModel, "test-model")
	return dir
}

func TestLoad(t *testing.T) {
	dir := workspace(t)
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Setenv(config.EnvCompletionModel, "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Index.TopK)
	assert.Equal(t, config.ChunkerSimple, cfg.Index.Chunker)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 128, cfg.Embedding.CacheSize)
	assert.Equal(t, int64(10*1024*1024), cfg.Extraction.MaxDocumentSizeBytes())
	assert.Equal(t, "./docs", cfg.Documents.Root)
	assert.Equal(t, 4, cfg.Workflow.MaxConcurrency)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "test-agent", cfg.Agent.Name)
	assert.Equal(t, "llama3.1:8b", cfg.Agent.Model.Name)
}

func TestLoadWithOverlay(t *testing.T) {
	dir := workspace(t)
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	t.Setenv(config.EnvFormfillEnv, "staging")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Index.TopK, "top_k from overlay")
	assert.Equal(t, 30*time.Second, cfg.Workflow.RunTimeoutDuration(), "run timeout from overlay")
	assert.Equal(t, 4, cfg.Workflow.MaxConcurrency, "max_concurrency from base")
}

func TestLoadNoConfigFile(t *testing.T) {
	workspace(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 600*time.Second, cfg.Workflow.RunTimeoutDuration())
	assert.Equal(t, 5, cfg.Index.TopK)
	assert.Equal(t, "./storage", cfg.Index.StorageDir)
	assert.Equal(t, "local", cfg.Documents.Provider)
	assert.False(t, cfg.Tracing.Enabled)
	require.NotNil(t, cfg.Agent.Provider)
	assert.NotEmpty(t, cfg.Agent.Name)
	assert.Equal(t, "test-model", cfg.Agent.Model.Name)
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := workspace(t)
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)

	t.Setenv(config.EnvCompletionAPIKey, "completion-key")
	t.Setenv(config.EnvCompletionModel, "gpt-4o-mini")
	t.Setenv("FORMFILL_INDEX_API_KEY", "index-key")
	t.Setenv("FORMFILL_EMBEDDING_MODEL", "text-embedding-3-large")
	t.Setenv("FORMFILL_STORAGE_DIR", "/tmp/formfill-index")
	t.Setenv("FORMFILL_LOG_LEVEL", "warn")
	t.Setenv("FORMFILL_RUN_TIMEOUT", "90s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "completion-key", cfg.Agent.Provider.Options["token"])
	assert.Equal(t, "gpt-4o-mini", cfg.Agent.Model.Name)
	assert.Equal(t, "index-key", cfg.Embedding.APIKey)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	assert.Equal(t, "/tmp/formfill-index", cfg.Index.StorageDir)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	assert.Equal(t, 90*time.Second, cfg.Workflow.RunTimeoutDuration())
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed toml", `log_level = `, "parse config"},
		{"bad log level", `log_level = "loud"`, "log_level"},
		{"bad run timeout", "[workflow]\nrun_timeout = \"soon\"", "run_timeout"},
		{"bad chunker", "[index]\nchunker = \"sentences\"", "chunker"},
		{"overlap exceeds size", "[index]\nchunk_size = 10\nchunk_overlap = 10", "chunk_overlap"},
		{"bad document size", "[extraction]\nmax_document_size = \"huge\"", "max_document_size"},
		{"unknown prompt stage", "[prompts]\nenhance = \"x\"", "prompts"},
		{"azure without connection", "[documents]\nprovider = \"azure\"", "connection_string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := workspace(t)
			writeConfig(t, dir, config.BaseConfigFile, tt.content)

			_, err := config.Load()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadInvalidCompletionAgent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "blank model",
			content: "[agent.model]\nname = \" \"",
			env:     map[string]string{config.EnvCompletionModel: ""},
			wantErr: "completion model name required",
		},
		{
			name:    "relative base url",
			env:     map[string]string{config.EnvCompletionBaseURL: "localhost/v1"},
			wantErr: "base_url",
		},
		{
			name:    "azure without deployment",
			env:     map[string]string{config.EnvCompletionProvider: "azure"},
			wantErr: "deployment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := workspace(t)
			if tt.content != "" {
				writeConfig(t, dir, config.BaseConfigFile, tt.content)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
			assert.ErrorContains(t, err, "agent")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestAzureCompletionAgent(t *testing.T) {
	workspace(t)
	t.Setenv(config.EnvCompletionProvider, "azure")
	t.Setenv(config.EnvCompletionBaseURL, "https://example.openai.azure.com")
	t.Setenv(config.EnvCompletionDeployment, "gpt-4o")
	t.Setenv(config.EnvCompletionAPIVersion, "2024-10-21")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Agent.Provider.Options["deployment"])
}

func TestEnvDefault(t *testing.T) {
	workspace(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env())
}
