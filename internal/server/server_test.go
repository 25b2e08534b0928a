package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/booklet/internal/config"
	"github.com/jackzampolin/booklet/internal/home"
	"github.com/jackzampolin/booklet/internal/server/endpoints"
	"github.com/jackzampolin/booklet/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, testutil.ServerConfig, *config.Manager) {
	t.Helper()
	cfg := testutil.NewServerConfig(t)
	cfg.Logger = testutil.Logger()

	if err := config.WriteDefault(cfg.ConfigFile); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	mgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatal(err)
	}

	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		ConfigManager: mgr,
		Home:          h,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, cfg, mgr
}

func start(t *testing.T, srv *Server, cfg testutil.ServerConfig) *testutil.StartServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		starter.Stop()
		t.Fatalf("server did not start: %v", err)
	}
	return starter
}

func TestServer_Lifecycle(t *testing.T) {
	srv, cfg, _ := newTestServer(t)
	if srv.Addr() != cfg.Host+":"+cfg.Port {
		t.Errorf("Addr() = %s", srv.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		cancel()
		t.Fatalf("server did not start: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}
	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should fail while running")
	}

	client := testutil.HTTPClient()

	t.Run("ready", func(t *testing.T) {
		resp, err := client.Get(cfg.URL() + "/ready")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("estimate without cover", func(t *testing.T) {
		body := `{"book":{"period":{"start":"2026-01-01"}},"fragments":[{"id":"notes","type":"notes","url":"file:///nonexistent.pdf"}]}`
		resp, err := client.Post(cfg.URL()+"/estimate", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := client.Get(cfg.URL() + "/metrics")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var m endpoints.MetricsResponse
		if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
			t.Fatal(err)
		}
		if m.Total != 1 || m.Summary.Errors["cover_not_found"] != 1 {
			t.Errorf("metrics = total %d, errors %v", m.Total, m.Summary.Errors)
		}
	})

	cancel()
	if err := testutil.WaitForShutdown(done, 35*time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
	if srv.Services() != nil {
		t.Error("services kept after shutdown")
	}
}

func TestServer_RequireInit(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.httpServer.Handler

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/ready", http.StatusServiceUnavailable},
		{"GET", "/metrics", http.StatusServiceUnavailable},
		{"POST", "/assemble", http.StatusServiceUnavailable},
		{"POST", "/estimate", http.StatusServiceUnavailable},
		{"GET", "/assemble", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_ReloadRebuildsServices(t *testing.T) {
	srv, cfg, mgr := newTestServer(t)
	starter := start(t, srv, cfg)
	t.Cleanup(starter.Stop)

	before := srv.Services()
	mgr.WatchConfig()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(cfg.ConfigFile, []byte("engine:\n  preview_weeks: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s := srv.Services(); s != nil && s != before {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	after := srv.Services()
	if after == before {
		t.Fatal("services not rebuilt after config change")
	}
	if after.Metrics != srv.Metrics() {
		t.Error("metrics recorder replaced on reload")
	}
	if got := after.Engine.Settings().PreviewWeeks; got != 2 {
		t.Errorf("PreviewWeeks = %d, want 2", got)
	}
}
