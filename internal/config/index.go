package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvIndexStorageDir   = "FORMFILL_STORAGE_DIR"
	EnvIndexTopK         = "FORMFILL_INDEX_TOP_K"
	EnvIndexChunker      = "FORMFILL_INDEX_CHUNKER"
	EnvIndexChunkSize    = "FORMFILL_INDEX_CHUNK_SIZE"
	EnvIndexChunkOverlap = "FORMFILL_INDEX_CHUNK_OVERLAP"
)

// Chunker modes.
const (
	ChunkerTiktoken = "tiktoken"
	ChunkerSimple   = "simple"
)

// IndexConfig controls how the resume knowledge index is persisted and queried.
type IndexConfig struct {
	StorageDir   string `toml:"storage_dir"`
	TopK         int    `toml:"top_k"`
	Chunker      string `toml:"chunker"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *IndexConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *IndexConfig) Merge(overlay *IndexConfig) {
	if overlay.StorageDir != "" {
		c.StorageDir = overlay.StorageDir
	}
	if overlay.TopK != 0 {
		c.TopK = overlay.TopK
	}
	if overlay.Chunker != "" {
		c.Chunker = overlay.Chunker
	}
	if overlay.ChunkSize != 0 {
		c.ChunkSize = overlay.ChunkSize
	}
	if overlay.ChunkOverlap != 0 {
		c.ChunkOverlap = overlay.ChunkOverlap
	}
}

func (c *IndexConfig) loadDefaults() {
	if c.StorageDir == "" {
		c.StorageDir = "./storage"
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.Chunker == "" {
		c.Chunker = ChunkerTiktoken
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 512
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 64
	}
}

func (c *IndexConfig) loadEnv() {
	if v := os.Getenv(EnvIndexStorageDir); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv(EnvIndexChunker); v != "" {
		c.Chunker = v
	}

	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(EnvIndexTopK, &c.TopK)
	setInt(EnvIndexChunkSize, &c.ChunkSize)
	setInt(EnvIndexChunkOverlap, &c.ChunkOverlap)
}

func (c *IndexConfig) validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("invalid top_k: %d", c.TopK)
	}
	if c.Chunker != ChunkerTiktoken && c.Chunker != ChunkerSimple {
		return fmt.Errorf("invalid chunker: %q", c.Chunker)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("invalid chunk_size: %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size): %d", c.ChunkOverlap)
	}
	return nil
}
