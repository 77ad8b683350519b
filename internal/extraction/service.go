package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"github.com/JaimeStill/document-context/pkg/image"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/formfill/internal/completion"
	"github.com/JaimeStill/formfill/pkg/formatting"
	"github.com/JaimeStill/formfill/pkg/storage"
)

const (
	kindText = "text"
	kindPDF  = "pdf"

	sourcePDF = "source.pdf"
)

var textExtensions = []string{".txt", ".md", ".markdown"}

// Options bound extraction work.
type Options struct {
	MaxDocumentSize int64
	Concurrency     int
}

// Service is the Extractor backed by document storage and a vision model.
type Service struct {
	store  storage.System
	vision completion.VisionCompleter
	opts   Options
	logger *slog.Logger
}

// New creates a Service. vision may be nil when only text sources are used.
func New(store storage.System, vision completion.VisionCompleter, opts Options, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		vision: vision,
		opts:   opts,
		logger: logger.With("system", "extraction"),
	}
}

// Extract downloads ref and returns its text, one Document per page.
func (s *Service) Extract(ctx context.Context, ref string, in Instructions) ([]Document, error) {
	data, err := s.download(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, ref, err)
	}

	var docs []Document
	switch kind := detectKind(ref, data); kind {
	case kindText:
		docs = []Document{{Source: ref, Page: 1, Text: string(data)}}
	case kindPDF:
		docs, err = s.extractPDF(ctx, ref, data, in)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, ref, err)
	}

	s.logger.InfoContext(ctx, "document extracted",
		"ref", ref,
		"pages", len(docs),
		"size", formatting.FormatBytes(int64(len(data)), 1),
	)

	return docs, nil
}

func (s *Service) download(ctx context.Context, ref string) ([]byte, error) {
	rc, err := s.store.Download(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := io.Reader(rc)
	if s.opts.MaxDocumentSize > 0 {
		r = io.LimitReader(rc, s.opts.MaxDocumentSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if s.opts.MaxDocumentSize > 0 && int64(len(data)) > s.opts.MaxDocumentSize {
		return nil, fmt.Errorf("%w: limit %s",
			ErrDocumentTooLarge,
			formatting.FormatBytes(s.opts.MaxDocumentSize, 0),
		)
	}

	return data, nil
}

func (s *Service) extractPDF(ctx context.Context, ref string, data []byte, in Instructions) ([]Document, error) {
	if s.vision == nil {
		return nil, fmt.Errorf("%w: no vision model configured for pdf", ErrUnsupportedFormat)
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "formfill-extract-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, sourcePDF)
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer pdfDoc.Close()

	renderer, err := image.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	pages, err := pdfDoc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	s.logger.DebugContext(ctx, "transcribing pdf", "ref", ref, "pages", count)

	prompt := Prompt(in)
	docs := make([]Document, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount(len(pages)))

	for i, page := range pages {
		pageNum := i + 1
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			img, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", pageNum, err)
			}

			dataURI, err := encoding.EncodeImageDataURI(img, document.PNG)
			if err != nil {
				return fmt.Errorf("encode page %d: %w", pageNum, err)
			}

			text, err := s.vision.Vision(gctx, prompt, []string{dataURI})
			if err != nil {
				return fmt.Errorf("transcribe page %d: %w", pageNum, err)
			}

			docs[i] = Document{Source: ref, Page: pageNum, Text: strings.TrimSpace(text)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

func (s *Service) workerCount(pages int) int {
	limit := s.opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return max(min(limit, pages), 1)
}

// Prompt builds the page transcription prompt for in.
func Prompt(in Instructions) string {
	var sb strings.Builder
	sb.WriteString("Transcribe the content of this document page as markdown.")
	if in.ContentGuideline != "" {
		sb.WriteString("\n\n")
		sb.WriteString(in.ContentGuideline)
	}
	if in.Formatting != "" {
		sb.WriteString("\n\n")
		sb.WriteString(in.Formatting)
	}
	return sb.String()
}

func detectKind(ref string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(ref))
	for _, t := range textExtensions {
		if ext == t {
			return kindText
		}
	}
	if ext == ".pdf" {
		return kindPDF
	}

	switch ct := http.DetectContentType(data); {
	case ct == "application/pdf":
		return kindPDF
	case strings.HasPrefix(ct, "text/plain"):
		return kindText
	default:
		return ct
	}
}
