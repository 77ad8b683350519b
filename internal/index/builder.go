package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/formfill/internal/completion"
	"github.com/JaimeStill/formfill/internal/embedding"
	"github.com/JaimeStill/formfill/internal/extraction"
	"github.com/JaimeStill/formfill/internal/prompts"
)

const (
	embedBatchSize   = 64
	embedConcurrency = 4
)

// Options configure a VectorBuilder.
type Options struct {
	StorageDir   string
	TopK         int
	Chunker      string
	ChunkSize    int
	ChunkOverlap int
}

// VectorBuilder builds sqlite-backed vector indexes.
type VectorBuilder struct {
	opts      Options
	chunker   *Chunker
	embedder  embedding.Embedder
	completer completion.Completer
	prompts   *prompts.Library
	logger    *slog.Logger
}

// NewBuilder creates a VectorBuilder.
func NewBuilder(
	opts Options,
	embedder embedding.Embedder,
	completer completion.Completer,
	lib *prompts.Library,
	logger *slog.Logger,
) *VectorBuilder {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	logger = logger.With("system", "index")

	return &VectorBuilder{
		opts:      opts,
		chunker:   NewChunker(opts.Chunker, opts.ChunkSize, opts.ChunkOverlap, logger),
		embedder:  embedder,
		completer: completer,
		prompts:   lib,
		logger:    logger,
	}
}

// Build removes any index left under the storage directory, then chunks,
// embeds, and persists docs. The storage directory stays locked until the
// returned Index is closed.
func (b *VectorBuilder) Build(ctx context.Context, docs []extraction.Document) (Index, error) {
	lock := flock.New(filepath.Clean(b.opts.StorageDir) + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock: %w", ErrIndexFailed, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrIndexLocked, b.opts.StorageDir)
	}

	idx, err := b.build(ctx, docs)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}

	idx.lock = lock
	return idx, nil
}

func (b *VectorBuilder) build(ctx context.Context, docs []extraction.Document) (*VectorIndex, error) {
	if err := os.RemoveAll(b.opts.StorageDir); err != nil {
		return nil, fmt.Errorf("remove previous index: %w", err)
	}
	if err := os.MkdirAll(b.opts.StorageDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	var chunks []chunk
	for _, doc := range docs {
		for i, text := range b.chunker.Chunk(doc.Text) {
			chunks = append(chunks, chunk{
				Source:   doc.Source,
				Page:     doc.Page,
				Position: i,
				Text:     text,
			})
		}
	}

	if err := b.embed(ctx, chunks); err != nil {
		return nil, err
	}

	st, err := openStore(ctx, b.opts.StorageDir)
	if err != nil {
		return nil, err
	}

	if err := st.insert(ctx, chunks); err != nil {
		st.close()
		return nil, err
	}

	b.logger.InfoContext(ctx, "index built",
		"dir", b.opts.StorageDir,
		"documents", len(docs),
		"chunks", len(chunks),
		"tokenizer", b.chunker.Mode(),
	)

	return &VectorIndex{
		store:     st,
		topK:      b.opts.TopK,
		embedder:  b.embedder,
		completer: b.completer,
		prompts:   b.prompts,
		logger:    b.logger,
	}, nil
}

func (b *VectorBuilder) embed(ctx context.Context, chunks []chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for batch := range slices.Chunk(chunks, embedBatchSize) {
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}

			vecs, err := b.embedder.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks: %w", err)
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vecs), len(batch))
			}

			for i := range batch {
				batch[i].vec = vecs[i]
			}
			return nil
		})
	}

	return g.Wait()
}

// VectorIndex ranks stored chunks by cosine similarity to the question and
// answers from the top matches.
type VectorIndex struct {
	store     *store
	topK      int
	embedder  embedding.Embedder
	completer completion.Completer
	prompts   *prompts.Library
	logger    *slog.Logger

	lock      *flock.Flock
	closeOnce sync.Once
	closeErr  error
}

// Query answers question from the most similar chunks.
func (x *VectorIndex) Query(ctx context.Context, question string) (string, error) {
	matches, err := x.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	answer, err := x.completer.Complete(ctx, x.prompts.Answer(question, matches))
	if err != nil {
		return "", fmt.Errorf("%w: answer: %w", ErrIndexFailed, err)
	}
	return answer, nil
}

// Retrieve returns the text of the top-k chunks most similar to question,
// best match first.
func (x *VectorIndex) Retrieve(ctx context.Context, question string) ([]string, error) {
	vecs, err := x.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", ErrIndexFailed, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: embed question: got %d vectors", ErrIndexFailed, len(vecs))
	}

	rows, err := x.store.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}

	type scored struct {
		text  string
		score float64
	}
	ranked := make([]scored, len(rows))
	for i, r := range rows {
		ranked[i] = scored{text: r.Text, score: embedding.Cosine(vecs[0], r.vec)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	n := min(x.topK, len(ranked))
	out := make([]string, n)
	for i := range n {
		out[i] = ranked[i].text
	}

	x.logger.DebugContext(ctx, "retrieved chunks", "candidates", len(rows), "returned", n)
	return out, nil
}

// Len reports the number of stored chunks.
func (x *VectorIndex) Len(ctx context.Context) (int, error) {
	return x.store.count(ctx)
}

// Close closes the database and releases the storage directory lock.
func (x *VectorIndex) Close() error {
	x.closeOnce.Do(func() {
		x.closeErr = x.store.close()
		if x.lock != nil {
			if err := x.lock.Unlock(); err != nil && x.closeErr == nil {
				x.closeErr = err
			}
		}
	})
	return x.closeErr
}
