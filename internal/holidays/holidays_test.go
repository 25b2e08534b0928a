package holidays

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/booklet/internal/dates"
)

const publicJSON = `[
  {"id":"1","startDate":"2026-10-03","endDate":"2026-10-03","type":"Public",
   "name":[{"language":"EN","text":"German Unity Day"},{"language":"DE","text":"Tag der Deutschen Einheit"}]},
  {"id":"2","startDate":"2026-12-25","endDate":"2026-12-25","type":"Public",
   "name":[{"language":"EN","text":"Christmas Day"}]}
]`

const schoolJSON = `[
  {"id":"3","startDate":"2026-10-01","endDate":"2026-10-04","type":"School",
   "name":[{"language":"DE","text":"Herbstferien"}]},
  {"id":"4","startDate":"broken","endDate":"2026-10-04","type":"School","name":[]}
]`

func holidayServer(t *testing.T, public, school string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("countryIsoCode") != "DE" {
			t.Errorf("countryIsoCode = %q", q.Get("countryIsoCode"))
		}
		if q.Get("subdivisionCode") != "DE-BY" {
			t.Errorf("subdivisionCode = %q", q.Get("subdivisionCode"))
		}
		if q.Get("languageIsoCode") != "DE" {
			t.Errorf("languageIsoCode = %q", q.Get("languageIsoCode"))
		}
		if q.Get("validFrom") != "2026-09-01" || q.Get("validTo") != "2027-08-31" {
			t.Errorf("range = %s..%s", q.Get("validFrom"), q.Get("validTo"))
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		switch r.URL.Path {
		case "/PublicHolidays":
			w.Write([]byte(public))
		case "/SchoolHolidays":
			w.Write([]byte(school))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func testQuery() Query {
	return Query{
		Country:     "de",
		Subdivision: "de-by",
		From:        time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2027, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestClientHolidays(t *testing.T) {
	server, _ := holidayServer(t, publicJSON, schoolJSON, http.StatusOK)
	c := NewClient(ClientConfig{BaseURL: server.URL, RateLimit: 100})

	entries, err := c.Holidays(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Holidays() error = %v", err)
	}

	merged := dates.Merge(entries, nil)
	want := map[string]string{
		"2026-10-01": "Herbstferien",
		"2026-10-02": "Herbstferien",
		"2026-10-03": "Tag der Deutschen Einheit",
		"2026-10-04": "Herbstferien",
		"2026-12-25": PublicFallback,
	}
	if len(merged) != len(want) {
		t.Fatalf("merged = %v, want %v", merged, want)
	}
	for k, v := range want {
		if merged[k] != v {
			t.Errorf("merged[%s] = %q, want %q", k, merged[k], v)
		}
	}
}

func TestClientHolidaysServerError(t *testing.T) {
	server, calls := holidayServer(t, "", "", http.StatusServiceUnavailable)
	c := NewClient(ClientConfig{BaseURL: server.URL, RateLimit: 100, MaxRetries: 2, RetryDelay: time.Millisecond})

	entries, err := c.Holidays(context.Background(), testQuery())
	if err == nil {
		t.Fatal("Holidays() succeeded against a failing service")
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
	if calls.Load() < 2 {
		t.Errorf("service called %d times, want retries", calls.Load())
	}
}

func TestClientHolidaysBadJSON(t *testing.T) {
	server, _ := holidayServer(t, `{"not":"a list"}`, `[]`, http.StatusOK)
	c := NewClient(ClientConfig{BaseURL: server.URL, RateLimit: 100})
	if _, err := c.Holidays(context.Background(), testQuery()); err == nil {
		t.Error("Holidays() accepted a non-list response")
	}
}

func TestClientRequiresCountry(t *testing.T) {
	c := NewClient(ClientConfig{})
	if _, err := c.Holidays(context.Background(), Query{}); err == nil {
		t.Error("Holidays() accepted an empty country")
	}
}

func TestLocalizedNameFallback(t *testing.T) {
	c := NewClient(ClientConfig{Language: "de"})
	entries, err := c.parse([]byte(`[{"startDate":"2026-01-01","endDate":"2026-01-01","name":[{"language":"DE","text":"  "}]}]`), SchoolFallback)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != SchoolFallback {
		t.Errorf("entries = %v", entries)
	}
}
