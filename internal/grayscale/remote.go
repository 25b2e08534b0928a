package grayscale

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultCacheSize       = 32
	DefaultMaxConcurrent   = 2
	DefaultShrinkThreshold = 8 << 20
	DefaultTimeout         = 120 * time.Second
	DefaultMaxRetries      = 3

	// UploadField is the multipart field carrying the document.
	UploadField = "file"
)

// ErrBadResponse is returned when the service answers with something that
// is not a PDF.
var ErrBadResponse = errors.New("grayscale service returned a non-PDF response")

// ClientConfig holds configuration for the remote conversion client.
type ClientConfig struct {
	URL    string
	APIKey string
	// SameOrigin suppresses the API key header when the service sits behind
	// the same gateway as the caller.
	SameOrigin      bool
	Timeout         time.Duration
	MaxConcurrent   int
	CacheSize       int
	ShrinkThreshold int // bytes; documents above this go through the shrink pass
	ShrinkTarget    int // bytes; resaved documents above this are rebuilt
	MaxRetries      uint
	RetryDelay      time.Duration
	Shrinker        Shrinker
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// Client converts documents through a remote service. The cache and the
// concurrency cap are shared by every caller of one Client.
type Client struct {
	url        string
	apiKey     string
	sameOrigin bool
	threshold  int
	target     int
	maxRetries uint
	retryDelay time.Duration
	shrinker   Shrinker
	client     *http.Client
	logger     *slog.Logger

	sem   *semaphore.Weighted
	cache *cache
}

// NewClient creates a remote conversion client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.ShrinkThreshold == 0 {
		cfg.ShrinkThreshold = DefaultShrinkThreshold
	}
	if cfg.ShrinkTarget == 0 {
		cfg.ShrinkTarget = cfg.ShrinkThreshold
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Shrinker == nil {
		cfg.Shrinker = PDFShrinker{}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		sameOrigin: cfg.SameOrigin,
		threshold:  cfg.ShrinkThreshold,
		target:     cfg.ShrinkTarget,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		shrinker:   cfg.Shrinker,
		client:     cfg.HTTPClient,
		logger:     cfg.Logger,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		cache:      newCache(cfg.CacheSize),
	}
}

// Stats reports cache statistics.
func (c *Client) Stats() CacheStats {
	return c.cache.stats()
}

// ToGrayscale implements Converter. Results are cached by input
// fingerprint; at most MaxConcurrent uploads run at once and waiters are
// served in arrival order.
func (c *Client) ToGrayscale(ctx context.Context, pdf []byte) ([]byte, error) {
	if c.url == "" {
		return nil, errors.New("grayscale service URL not configured")
	}
	key := FingerprintOf(pdf)
	if out, ok := c.cache.get(key); ok {
		c.logger.Debug("grayscale cache hit", "size", key.Size)
		return out, nil
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	payload := c.shrink(pdf)

	start := time.Now()
	out, err := retry.DoWithData(
		func() ([]byte, error) {
			return c.upload(ctx, payload)
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("grayscale upload failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	c.cache.put(key, out)
	c.logger.Info("grayscale conversion done",
		"input_bytes", len(pdf),
		"sent_bytes", len(payload),
		"output_bytes", len(out),
		"duration", time.Since(start))
	return out, nil
}

func (c *Client) upload(ctx context.Context, pdf []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(UploadField, "fragment.pdf")
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create form file: %w", err))
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to write form file: %w", err))
	}
	if err := mw.Close(); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to close multipart body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/pdf")
	if c.apiKey != "" && !c.sameOrigin {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("grayscale service error (status %d): %s", resp.StatusCode, truncate(respBody, 200))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}
	if !bytes.HasPrefix(respBody, []byte("%PDF")) {
		return nil, retry.Unrecoverable(ErrBadResponse)
	}
	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
