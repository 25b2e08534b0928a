package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-booklet")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-booklet" {
			t.Errorf("expected path /tmp/test-booklet, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-booklet")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"OutputPath", dir.OutputPath(), "/tmp/test-booklet/output"},
		{"AssetsPath", dir.AssetsPath(), "/tmp/test-booklet/assets"},
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-booklet/config.yaml"},
		{"OutputFile", dir.OutputFile("planner-2026", false), "/tmp/test-booklet/output/planner-2026.pdf"},
		{"OutputFile strips dirs and extension", dir.OutputFile("../x/planner.pdf", false), "/tmp/test-booklet/output/planner.pdf"},
		{"OutputFile preview", dir.OutputFile("planner", true), "/tmp/test-booklet/output/planner-preview.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	// Use a temp directory
	tmpDir := t.TempDir()
	bookletDir := filepath.Join(tmpDir, "booklet-test")

	dir, err := New(bookletDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory shouldn't exist yet
	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	// Create it
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	// Now it should exist
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	for _, p := range []string{dir.OutputPath(), dir.AssetsPath()} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			t.Errorf("%s should exist after EnsureExists", p)
		}
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	// Config doesn't exist
	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	// Create a config file
	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("log_level: info\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Now it should exist
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}

func TestDir_WriteOutput(t *testing.T) {
	dir, _ := New(filepath.Join(t.TempDir(), "fresh"))

	path, err := dir.WriteOutput("planner", false, []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("unexpected content %q", data)
	}
}
