package index

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer modes.
const (
	ModeTiktoken = "tiktoken"
	ModeSimple   = "simple"
)

const encodingName = "cl100k_base"

var (
	tkm     *tiktoken.Tiktoken
	tkmErr  error
	tkmOnce sync.Once
)

func tokenizer() (*tiktoken.Tiktoken, error) {
	tkmOnce.Do(func() {
		tkm, tkmErr = tiktoken.GetEncoding(encodingName)
	})
	return tkm, tkmErr
}

// Chunker splits text into overlapping windows of at most Size tokens.
type Chunker struct {
	mode    string
	size    int
	overlap int
	tkm     *tiktoken.Tiktoken
}

// NewChunker creates a Chunker. The tiktoken mode falls back to word
// tokens when the encoding cannot be loaded.
func NewChunker(mode string, size, overlap int, logger *slog.Logger) *Chunker {
	size = max(size, 1)
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	c := &Chunker{mode: ModeSimple, size: size, overlap: overlap}
	if mode == ModeTiktoken {
		t, err := tokenizer()
		if err != nil {
			logger.Warn("tiktoken encoding unavailable, using word chunks",
				"encoding", encodingName,
				"error", err,
			)
		} else {
			c.mode, c.tkm = ModeTiktoken, t
		}
	}
	return c
}

// Mode reports the tokenizer in use.
func (c *Chunker) Mode() string {
	return c.mode
}

// Chunk returns the windows covering text. Blank text yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if c.mode == ModeTiktoken {
		tokens := c.tkm.Encode(text, nil, nil)
		return windows(tokens, c.size, c.overlap, func(t []int) string {
			return strings.TrimSpace(c.tkm.Decode(t))
		})
	}

	words := strings.Fields(text)
	return windows(words, c.size, c.overlap, func(w []string) string {
		return strings.Join(w, " ")
	})
}

func windows[T any](tokens []T, size, overlap int, join func([]T) string) []string {
	step := size - overlap
	var chunks []string

	for start := 0; start < len(tokens); start += step {
		end := min(start+size, len(tokens))
		if s := join(tokens[start:end]); s != "" {
			chunks = append(chunks, s)
		}
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
