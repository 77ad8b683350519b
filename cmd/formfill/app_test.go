package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/formfill/internal/config"
	"github.com/JaimeStill/formfill/internal/driver"
	"github.com/JaimeStill/formfill/pkg/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Documents: storage.Config{Provider: storage.ProviderLocal, Root: t.TempDir()},
		Index: config.IndexConfig{
			StorageDir:   t.TempDir(),
			TopK:         5,
			Chunker:      config.ChunkerSimple,
			ChunkSize:    256,
			ChunkOverlap: 32,
		},
		Extraction: config.ExtractionConfig{MaxDocumentSize: "1MB", Concurrency: 2},
		Workflow:   config.WorkflowConfig{RunTimeout: "1m", MaxConcurrency: 2},
		LogLevel:   "error",
		Version:    "0.1.0",
	}
}

func TestFillRequiresStart(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { app.Shutdown(time.Second) })

	reviewer := driver.ReviewerFunc(func(context.Context, string, string) (string, error) {
		t.Fatal("reviewer called before start")
		return "", nil
	})

	_, err = app.Fill(context.Background(), "resume.md", "form.md", reviewer)
	assert.ErrorIs(t, err, errNotReady)
}

func TestStartAndSave(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(cfg)
	require.NoError(t, err)

	require.NoError(t, app.Start())
	assert.True(t, app.infra.Lifecycle.Ready())

	require.NoError(t, app.Save(context.Background(), "results/filled.md", "Name: Jane Doe"))

	data, err := os.ReadFile(filepath.Join(cfg.Documents.Root, "results", "filled.md"))
	require.NoError(t, err)
	assert.Equal(t, "Name: Jane Doe", string(data))

	require.NoError(t, app.Shutdown(5*time.Second))
}
