package embedding

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores vectors by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, v []float32, ttl time.Duration)
}

// MakeKey derives the cache key for text embedded with model.
func MakeKey(model, text string) string {
	h := sha256.Sum256([]byte(model + "|" + text))
	return "formfill:emb:" + hex.EncodeToString(h[:])
}

// LocalLRU is an in-process LRU with per-entry TTL.
type LocalLRU struct {
	mu    sync.Mutex
	cap   int
	order *list.List
	items map[string]*list.Element
}

type lruEntry struct {
	key string
	vec []float32
	exp time.Time
}

// NewLocalLRU creates an LRU holding at most capacity entries.
func NewLocalLRU(capacity int) *LocalLRU {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LocalLRU{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

func (l *LocalLRU) Get(_ context.Context, key string) ([]float32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.items[key]
	if !ok {
		return nil, false
	}

	ent := el.Value.(lruEntry)
	if !ent.exp.After(time.Now()) {
		l.order.Remove(el)
		delete(l.items, key)
		return nil, false
	}

	l.order.MoveToFront(el)
	return ent.vec, true
}

func (l *LocalLRU) Set(_ context.Context, key string, v []float32, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent := lruEntry{key: key, vec: v, exp: time.Now().Add(ttl)}
	if el, ok := l.items[key]; ok {
		el.Value = ent
		l.order.MoveToFront(el)
		return
	}

	l.items[key] = l.order.PushFront(ent)
	if l.order.Len() > l.cap {
		oldest := l.order.Back()
		delete(l.items, oldest.Value.(lruEntry).key)
		l.order.Remove(oldest)
	}
}

// Len reports the number of cached entries, including expired ones not yet evicted.
func (l *LocalLRU) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

// RedisCache shares vectors across runs and processes.
type RedisCache struct {
	client *redis.Client
}

// RedisOptions selects the redis server.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache creates a cache client. It does not contact the server; call Ping.
func NewRedisCache(opts RedisOptions) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// Ping verifies the server is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the client's connections.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	v, err := DecodeVector(b)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (r *RedisCache) Set(ctx context.Context, key string, v []float32, ttl time.Duration) {
	_ = r.client.Set(ctx, key, EncodeVector(v), ttl).Err()
}
