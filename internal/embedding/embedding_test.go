package embedding_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/formfill/internal/embedding"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// embeddingServer answers with a 2-d vector derived from each input's length.
func embeddingServer(t *testing.T, calls *atomic.Int32, inputs *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer index-key", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		assert.Equal(t, "test-embed", req.Model)

		calls.Add(1)
		inputs.Add(int32(len(req.Input)))

		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, item{Index: i, Embedding: []float64{float64(len(req.Input[i])), 1}})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newClient(url string, cache embedding.Cache) *embedding.Client {
	return embedding.NewClient(embedding.Options{
		BaseURL: url + "/v1",
		Model:   "test-embed",
		APIKey:  "index-key",
	}, cache, discardLogger())
}

func TestClientEmbedOrdersByIndex(t *testing.T) {
	var calls, inputs atomic.Int32
	srv := embeddingServer(t, &calls, &inputs)
	defer srv.Close()

	vecs, err := newClient(srv.URL, nil).Embed(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 1}, vecs[0])
	assert.Equal(t, []float32{3, 1}, vecs[1])
}

func TestClientServesRepeatsFromLRU(t *testing.T) {
	var calls, inputs atomic.Int32
	srv := embeddingServer(t, &calls, &inputs)
	defer srv.Close()

	c := newClient(srv.URL, nil)
	ctx := context.Background()

	_, err := c.Embed(ctx, []string{"jane", "doe"})
	require.NoError(t, err)

	vecs, err := c.Embed(ctx, []string{"doe", "email"})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, vecs[0])
	assert.Equal(t, []float32{5, 1}, vecs[1])

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(3), inputs.Load(), "cached text should not be re-sent")
}

func TestClientUsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := embedding.NewRedisCache(embedding.RedisOptions{Addr: mr.Addr()})
	defer cache.Close()
	require.NoError(t, cache.Ping(context.Background()))

	var calls, inputs atomic.Int32
	srv := embeddingServer(t, &calls, &inputs)
	defer srv.Close()

	ctx := context.Background()
	_, err := newClient(srv.URL, cache).Embed(ctx, []string{"resume"})
	require.NoError(t, err)
	assert.True(t, mr.Exists(embedding.MakeKey("test-embed", "resume")))

	// a fresh client has an empty LRU and must fall back to redis
	vecs, err := newClient(srv.URL, cache).Embed(ctx, []string{"resume"})
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 1}, vecs[0])
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil).Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, embedding.ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "status 401")
}

func TestLocalLRUEvictsOldest(t *testing.T) {
	ctx := context.Background()
	lru := embedding.NewLocalLRU(2)

	lru.Set(ctx, "a", []float32{1}, time.Minute)
	lru.Set(ctx, "b", []float32{2}, time.Minute)
	_, _ = lru.Get(ctx, "a")
	lru.Set(ctx, "c", []float32{3}, time.Minute)

	_, ok := lru.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = lru.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, lru.Len())
}

func TestLocalLRUExpires(t *testing.T) {
	ctx := context.Background()
	lru := embedding.NewLocalLRU(4)

	lru.Set(ctx, "a", []float32{1}, -time.Second)
	_, ok := lru.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, lru.Len())
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	got, err := embedding.DecodeVector(embedding.EncodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = embedding.DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, embedding.Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, embedding.Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, embedding.Cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, embedding.Cosine([]float32{0, 0}, []float32{1, 2}))
}
