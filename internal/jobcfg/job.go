// Package jobcfg loads booklet job files (book details, fragments and build
// options) and resolves their options against the configured defaults. The
// same job shape is the request body of the assemble and estimate endpoints.
package jobcfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/booklet/internal/booklet"
)

// ErrNoFragments is returned for a job without fragments.
var ErrNoFragments = errors.New("job has no fragments")

// Job is one booklet order.
type Job struct {
	Book      booklet.BookDetails          `json:"book" yaml:"book"`
	Fragments []booklet.Fragment           `json:"fragments" yaml:"fragments"`
	Options   *OptionsSpec                 `json:"options,omitempty" yaml:"options,omitempty"`
	ColorMap  map[string]booklet.ColorMode `json:"color_map,omitempty" yaml:"color_map,omitempty"`
}

// OptionsSpec holds per-job overrides. Unset fields keep the configured
// defaults.
type OptionsSpec struct {
	Preview     bool   `json:"preview,omitempty" yaml:"preview,omitempty"`
	PageNumbers *bool  `json:"page_numbers,omitempty" yaml:"page_numbers,omitempty"`
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty"`
	Converter   string `json:"converter,omitempty" yaml:"converter,omitempty"`
	// Watermark is the image itself (base64 in JSON).
	Watermark []byte `json:"watermark,omitempty" yaml:"-"`
	// WatermarkPath is read by Load, relative to the job file.
	WatermarkPath string `json:"-" yaml:"watermark_path,omitempty"`
}

// Load reads a job file. Files ending in .json are decoded as JSON,
// anything else as YAML. Fragment URLs without a scheme and the watermark
// path are resolved relative to the file's directory.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var job *Job
	if strings.EqualFold(filepath.Ext(path), ".json") {
		job, err = DecodeJSON(data)
	} else {
		job, err = DecodeYAML(data)
	}
	if err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve job directory: %w", err)
	}
	job.resolvePaths(dir)

	if job.Options != nil && job.Options.WatermarkPath != "" {
		img, err := os.ReadFile(job.Options.WatermarkPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read watermark: %w", err)
		}
		job.Options.Watermark = img
	}
	return job, nil
}

// DecodeJSON parses a JSON job.
func DecodeJSON(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, job.Validate()
}

// DecodeYAML parses a YAML job.
func DecodeYAML(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, job.Validate()
}

// Validate checks what the engine cannot report per fragment.
func (j *Job) Validate() error {
	if len(j.Fragments) == 0 {
		return ErrNoFragments
	}
	for i, f := range j.Fragments {
		if f.ID == "" {
			return fmt.Errorf("fragment %d has no id", i)
		}
		if f.Type == "" {
			return fmt.Errorf("fragment %s has no type", f.ID)
		}
		switch f.Color {
		case "", booklet.Color, booklet.Grayscale:
		default:
			return fmt.Errorf("fragment %s: unknown color mode %q", f.ID, f.Color)
		}
	}
	return nil
}

// Preview reports whether the job asks for a preview build.
func (j *Job) Preview() bool {
	return j.Options != nil && j.Options.Preview
}

// Inline reads file:// fragment sources into Data so the job can be sent
// to a server that cannot see the local filesystem.
func (j *Job) Inline() error {
	for i := range j.Fragments {
		f := &j.Fragments[i]
		if len(f.Data) > 0 || !strings.HasPrefix(f.URL, "file://") {
			continue
		}
		u, err := url.Parse(f.URL)
		if err != nil {
			return fmt.Errorf("fragment %s: invalid url: %w", f.ID, err)
		}
		data, err := os.ReadFile(filepath.FromSlash(u.Path))
		if err != nil {
			return fmt.Errorf("fragment %s: %w", f.ID, err)
		}
		f.Data = data
		f.URL = ""
	}
	return nil
}

func (j *Job) resolvePaths(dir string) {
	for i := range j.Fragments {
		u := j.Fragments[i].URL
		if u == "" || strings.Contains(u, "://") {
			continue
		}
		p := u
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		j.Fragments[i].URL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
	}
	if j.Options != nil && j.Options.WatermarkPath != "" && !filepath.IsAbs(j.Options.WatermarkPath) {
		j.Options.WatermarkPath = filepath.Join(dir, j.Options.WatermarkPath)
	}
}
