package blob

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/storage"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/httpclient"
)

// Storage implements storage.Storage against an HTTP blob gateway
// (e.g. an S3-compatible proxy or an internal media service). Calls go
// through a circuit breaker so a dead gateway fails fast instead of tying
// up request goroutines.
type Storage struct {
	client    *httpclient.CircuitBreakerClient
	baseURL   string
	publicURL string
	logger    *slog.Logger
}

// Config holds blob gateway settings.
type Config struct {
	// BaseURL is the gateway endpoint uploads are written to.
	BaseURL string

	// PublicURL is the prefix of publicly served object URLs. Defaults
	// to BaseURL.
	PublicURL string
}

// New creates a blob storage backend using the shared HTTP client stack.
func New(cfg Config, logger *slog.Logger) *Storage {
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.BaseURL
	}

	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(
		client,
		httpclient.DefaultCircuitBreakerConfig("blob-storage"),
		logger,
	)

	return &Storage{
		client:    cb,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Upload writes the object to the gateway under its key.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	url := s.objectURL(s.baseURL, input.Key)

	resp, err := s.client.Put(ctx, url, input.ContentType, input.Data)
	if err != nil {
		return nil, fmt.Errorf("blob upload %s: %w", input.Key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, "blob-storage")
	}

	s.logger.DebugContext(ctx, "uploaded object",
		slog.String("key", input.Key),
		slog.Int64("size", input.Size),
	)

	return &storage.UploadResult{
		Key: input.Key,
		URL: s.objectURL(s.publicURL, input.Key),
	}, nil
}

// Delete removes the object by key. A missing object is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(s.baseURL, key), http.NoBody)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("blob delete %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return httpclient.ParseResponseError(resp, "blob-storage")
	}

	return nil
}

// GetURL returns the public URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	return s.objectURL(s.publicURL, key), nil
}

func (s *Storage) objectURL(base, key string) string {
	return base + "/" + strings.TrimLeft(key, "/")
}
