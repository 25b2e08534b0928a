package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDirName is the default name for the booklet home directory.
	DefaultDirName = ".booklet"

	// OutputDirName is the subdirectory for assembled booklets.
	OutputDirName = "output"

	// AssetsDirName is the subdirectory for watermark images and templates.
	AssetsDirName = "assets"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the booklet home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.booklet).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// OutputPath returns the path to the output directory.
func (d *Dir) OutputPath() string {
	return filepath.Join(d.path, OutputDirName)
}

// AssetsPath returns the path to the assets directory.
func (d *Dir) AssetsPath() string {
	return filepath.Join(d.path, AssetsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// OutputFile returns the path a booklet is written to. Preview builds get
// their own suffix so they never overwrite the print file.
func (d *Dir) OutputFile(name string, preview bool) string {
	name = strings.TrimSuffix(filepath.Base(name), ".pdf")
	if preview {
		name += "-preview"
	}
	return filepath.Join(d.OutputPath(), name+".pdf")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.OutputPath(), d.AssetsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// WriteOutput stores an assembled booklet and returns its path.
func (d *Dir) WriteOutput(name string, preview bool, data []byte) (string, error) {
	if err := os.MkdirAll(d.OutputPath(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := d.OutputFile(name, preview)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write booklet: %w", err)
	}
	return path, nil
}
