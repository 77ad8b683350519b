// Package storage resolves document references for the form filler. Keys
// address files under a local root directory or blobs in an Azure Blob
// Storage container.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/formfill/pkg/lifecycle"
)

// System reads source documents and writes filled forms.
type System interface {
	// Start registers a startup hook that prepares the backing store.
	Start(lc *lifecycle.Coordinator) error
	// Download returns a stream for the document at key. The caller must close the reader.
	// Returns ErrNotFound if the document does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Upload streams data to key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}

// New creates the storage system named by cfg.Provider.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocal(cfg.Root, logger), nil
	case ProviderAzure:
		return NewAzure(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

type local struct {
	root   string
	logger *slog.Logger
}

// NewLocal creates a filesystem-backed System. Relative keys resolve
// against root; absolute keys are used as given.
func NewLocal(root string, logger *slog.Logger) System {
	return &local{
		root:   root,
		logger: logger.With("system", "storage", "provider", ProviderLocal),
	}
}

func (l *local) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func(context.Context) error {
		if err := os.MkdirAll(l.root, 0755); err != nil {
			return fmt.Errorf("create storage root %s: %w", l.root, err)
		}
		l.logger.Info("storage root ready", "root", l.root)
		return nil
	})
	return nil
}

func (l *local) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	f, err := os.Open(l.resolve(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}

	return f, nil
}

func (l *local) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if key == "" {
		return ErrEmptyKey
	}

	path := l.resolve(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (l *local) resolve(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(l.root, key)
}

type azure struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// NewAzure creates a blob-backed System. It validates the connection string
// and creates the client but does not contact the service until Start.
func NewAzure(cfg *Config, logger *slog.Logger) (System, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		logger:    logger.With("system", "storage", "provider", ProviderAzure),
	}, nil
}

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func(ctx context.Context) error {
		_, err := a.client.CreateContainer(ctx, a.container, nil)
		if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return fmt.Errorf("initialize container %s: %w", a.container, err)
		}

		a.logger.Info("storage container ready", "container", a.container)
		return nil
	})

	return nil
}

func (a *azure) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("download blob %s: %w", key, err)
	}

	return resp.Body, nil
}

func (a *azure) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	if _, err := a.client.UploadStream(ctx, a.container, key, reader, opts); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	return nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
