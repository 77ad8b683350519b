// Package index builds the per-run knowledge index over the extracted
// resume and answers questions from it. The index is persisted as a
// sqlite database under the storage directory, which is wiped and rebuilt
// on every Build.
package index

import (
	"context"
	"errors"

	"github.com/JaimeStill/formfill/internal/extraction"
)

// Errors returned by Build and Query.
var (
	ErrIndexFailed = errors.New("index failed")
	ErrIndexLocked = errors.New("storage directory is locked by another run")
)

// Builder creates a fresh Index from extracted documents.
type Builder interface {
	Build(ctx context.Context, docs []extraction.Document) (Index, error)
}

// Index answers natural-language questions from the indexed documents.
// Query is safe for concurrent use.
type Index interface {
	Query(ctx context.Context, question string) (string, error)
	Close() error
}
