// Package imagefetch resolves stored signature image references to bytes.
package imagefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veridoc/internal/port"
)

const maxImageBytes = 10 << 20 // 10 MiB

// Fetcher resolves s3:// URIs through object storage and http(s) URLs
// through a plain HTTP client.
type Fetcher struct {
	storage port.ObjectStorage
	client  *http.Client
}

// NewFetcher creates a Fetcher backed by the given object storage.
func NewFetcher(storage port.ObjectStorage) *Fetcher {
	return &Fetcher{
		storage: storage,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns the image bytes and a best-effort content type for ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		return f.fetchS3(ctx, ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.fetchHTTP(ctx, ref)
	default:
		return nil, "", fmt.Errorf("unsupported image reference %q", ref)
	}
}

func (f *Fetcher) fetchS3(ctx context.Context, ref string) ([]byte, string, error) {
	trimmed := strings.TrimPrefix(ref, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return nil, "", fmt.Errorf("malformed s3 reference %q", ref)
	}
	data, err := f.storage.Download(ctx, bucket, key)
	if err != nil {
		return nil, "", fmt.Errorf("downloading %s: %w", ref, err)
	}
	return data, contentTypeForKey(key), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", ref, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: status %d", ref, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", ref, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeForKey(ref)
	}
	return data, contentType, nil
}

func contentTypeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	default:
		return "image/png"
	}
}
