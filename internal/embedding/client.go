package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const lruTTL = 30 * time.Minute

// Options configure a Client.
type Options struct {
	BaseURL   string
	Model     string
	APIKey    string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// Client calls an OpenAI-compatible embeddings endpoint.
type Client struct {
	opts   Options
	http   *http.Client
	lru    *LocalLRU
	cache  Cache
	logger *slog.Logger
}

// NewClient creates a Client. cache is an optional second-level cache.
func NewClient(opts Options, cache Cache, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}

	return &Client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		lru:    NewLocalLRU(opts.CacheSize),
		cache:  cache,
		logger: logger.With("system", "embedding"),
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns vectors for texts, serving repeats from cache and sending
// the rest in one request.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missing []string
		slots   []int
	)

	for i, text := range texts {
		if v, ok := c.lookup(ctx, MakeKey(c.opts.Model, text)); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	start := time.Now()
	vectors, err := c.request(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	for j, v := range vectors {
		out[slots[j]] = v
		key := MakeKey(c.opts.Model, missing[j])
		c.lru.Set(ctx, key, v, lruTTL)
		if c.cache != nil {
			c.cache.Set(ctx, key, v, c.opts.CacheTTL)
		}
	}

	c.logger.DebugContext(ctx, "embedded texts",
		"model", c.opts.Model,
		"requested", len(missing),
		"cached", len(texts)-len(missing),
		"duration", time.Since(start),
	)

	return out, nil
}

func (c *Client) lookup(ctx context.Context, key string) ([]float32, bool) {
	if v, ok := c.lru.Get(ctx, key); ok {
		return v, true
	}
	if c.cache == nil {
		return nil, false
	}
	if v, ok := c.cache.Get(ctx, key); ok {
		c.lru.Set(ctx, key, v, lruTTL)
		return v, true
	}
	return nil, false
}

func (c *Client) request(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.opts.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimSuffix(c.opts.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(er.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(er.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		vectors[d.Index] = v
	}

	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	return vectors, nil
}
