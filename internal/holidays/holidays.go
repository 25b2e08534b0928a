// Package holidays fetches public and school holidays from an
// OpenHolidays-style API and flattens them into per-day entries.
package holidays

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jackzampolin/booklet/internal/dates"
)

const (
	DefaultBaseURL   = "https://openholidaysapi.org"
	DefaultLanguage  = "DE"
	DefaultRateLimit = 5.0
	DefaultTimeout   = 15 * time.Second

	// PublicFallback and SchoolFallback label events without a name in the
	// requested language.
	PublicFallback = "Feiertag"
	SchoolFallback = "Schulferien"

	// maxEventDays bounds the expansion of a single event.
	maxEventDays = 366
)

// ClientConfig holds configuration for the holiday client.
type ClientConfig struct {
	BaseURL    string
	Language   string
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	MaxRetries uint
	RetryDelay time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client queries the holiday service.
type Client struct {
	baseURL    string
	language   string
	maxRetries uint
	retryDelay time.Duration
	limiter    *rate.Limiter
	client     *http.Client
	logger     *slog.Logger
}

// Query selects the region and date range to fetch.
type Query struct {
	Country     string
	Subdivision string
	From        time.Time
	To          time.Time
}

// NewClient creates a holiday client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		language:   strings.ToUpper(cfg.Language),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		client:     cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

// Holidays fetches public and school holidays for q concurrently. Multi-day
// events are expanded to one entry per day. School holidays come first so
// that a public holiday inside a vacation keeps its own name when merged.
func (c *Client) Holidays(ctx context.Context, q Query) ([]dates.Entry, error) {
	if q.Country == "" {
		return nil, errors.New("country is required")
	}

	var public, school []dates.Entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		public, err = c.fetch(gctx, "/PublicHolidays", PublicFallback, q)
		return err
	})
	g.Go(func() error {
		var err error
		school, err = c.fetch(gctx, "/SchoolHolidays", SchoolFallback, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched holidays",
		"country", q.Country,
		"subdivision", q.Subdivision,
		"public", len(public),
		"school", len(school))
	return append(school, public...), nil
}

func (c *Client) fetch(ctx context.Context, path, fallback string, q Query) ([]dates.Entry, error) {
	params := url.Values{}
	params.Set("countryIsoCode", strings.ToUpper(q.Country))
	params.Set("languageIsoCode", c.language)
	params.Set("validFrom", dates.Key(q.From))
	params.Set("validTo", dates.Key(q.To))
	if q.Subdivision != "" {
		params.Set("subdivisionCode", strings.ToUpper(q.Subdivision))
	}
	endpoint := c.baseURL + path + "?" + params.Encode()

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, retry.Unrecoverable(err)
			}
			return c.get(ctx, endpoint)
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	return c.parse(body, fallback)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("holiday service error (status %d)", resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}
	return body, nil
}

// parse flattens the service's event list into per-day entries.
func (c *Client) parse(body []byte, fallback string) ([]dates.Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON in holiday response")
	}
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, errors.New("holiday response is not a list")
	}

	var entries []dates.Entry
	result.ForEach(func(_, event gjson.Result) bool {
		start, err := dates.ParseDay(event.Get("startDate").String())
		if err != nil {
			c.logger.Warn("skipping holiday with invalid start date", "start", event.Get("startDate").String())
			return true
		}
		end := start
		if raw := event.Get("endDate").String(); raw != "" {
			if e, err := dates.ParseDay(raw); err == nil && !e.Before(start) {
				end = e
			}
		}
		name := localizedName(event.Get("name"), c.language, fallback)
		for day, i := start, 0; !day.After(end) && i < maxEventDays; day, i = day.AddDate(0, 0, 1), i+1 {
			entries = append(entries, dates.Entry{Date: dates.Key(day), Name: name})
		}
		return true
	})
	return entries, nil
}

// localizedName picks the text for language from a [{language,text}] list.
func localizedName(names gjson.Result, language, fallback string) string {
	name := fallback
	names.ForEach(func(_, n gjson.Result) bool {
		if strings.EqualFold(n.Get("language").String(), language) {
			if text := strings.TrimSpace(n.Get("text").String()); text != "" {
				name = text
				return false
			}
		}
		return true
	})
	return name
}
