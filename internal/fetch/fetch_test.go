package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFetchHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.pdf":
			w.Write([]byte("%PDF-1.4 cover"))
		case "/big.pdf":
			w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := New(Config{MaxBytes: 32})
	ctx := context.Background()

	got, err := f.Fetch(ctx, server.URL+"/cover.pdf")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "%PDF-1.4 cover" {
		t.Errorf("Fetch() = %q", got)
	}

	if _, err := f.Fetch(ctx, server.URL+"/missing.pdf"); err == nil {
		t.Error("Fetch() succeeded on 404")
	}
	if _, err := f.Fetch(ctx, server.URL+"/big.pdf"); err == nil {
		t.Error("Fetch() accepted an oversized body")
	}
}

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 local"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(Config{AllowFile: true}).Fetch(context.Background(), "file://"+path)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "%PDF-1.4 local" {
		t.Errorf("Fetch() = %q", got)
	}
}

func TestFetchFileDisabledByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, u := range []string{"file://" + path, "file:///definitely/not/here.pdf"} {
		got, err := New(Config{}).Fetch(context.Background(), u)
		if !errors.Is(err, ErrFileDisabled) {
			t.Errorf("Fetch(%q) error = %v, want ErrFileDisabled", u, err)
		}
		if got != nil {
			t.Errorf("Fetch(%q) returned %d bytes", u, len(got))
		}
		if err != nil && strings.Contains(err.Error(), "/") {
			t.Errorf("error leaks the path: %v", err)
		}
	}
}

func TestFetchRejectsBadURLs(t *testing.T) {
	f := New(Config{AllowFile: true})
	for _, u := range []string{"cover.pdf", "ftp://example.com/a.pdf", "file:///definitely/not/here.pdf"} {
		if _, err := f.Fetch(context.Background(), u); err == nil {
			t.Errorf("Fetch(%q) succeeded", u)
		}
	}
}
