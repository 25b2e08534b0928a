// Package fetch retrieves fragment source documents.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	DefaultTimeout = 60 * time.Second
	// DefaultMaxBytes caps a single fragment download.
	DefaultMaxBytes = 256 << 20
)

// ErrFileDisabled is returned for file:// URLs when local reads are off.
var ErrFileDisabled = errors.New("file:// sources are disabled")

// Config holds configuration for the Fetcher.
type Config struct {
	Timeout    time.Duration
	MaxBytes   int64
	HTTPClient *http.Client
	// AllowFile enables file:// URLs. Only local callers set it.
	AllowFile bool
	Logger    *slog.Logger
}

// Fetcher downloads fragment sources over HTTP(S) and, when allowed, reads
// file:// URLs. It does not retry; the caller decides how to recover.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	allowFile bool
	logger    *slog.Logger
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Fetcher{
		client:    cfg.HTTPClient,
		maxBytes:  cfg.MaxBytes,
		allowFile: cfg.AllowFile,
		logger:    cfg.Logger,
	}
}

// Fetch returns the bytes behind rawURL. Non-2xx responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return f.get(ctx, rawURL)
	case "file":
		if !f.allowFile {
			return nil, ErrFileDisabled
		}
		return f.readFile(u.Path)
	case "":
		return nil, fmt.Errorf("source URL %q has no scheme", rawURL)
	}
	return nil, fmt.Errorf("unsupported source URL scheme %q", u.Scheme)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: larger than %d bytes", rawURL, f.maxBytes)
	}

	f.logger.Debug("fetched fragment source", "url", rawURL, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
