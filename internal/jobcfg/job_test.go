package jobcfg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/booklet/internal/booklet"
	"github.com/jackzampolin/booklet/internal/config"
	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

const yamlJob = `
book:
  title: Mein Planer
  country: DE
  subdivision: DE-BY
  period:
    start: 2026-08-01
    end: 2027-07-31
  add_holidays: true
  custom_dates:
    - date: 2026-09-14
      name: Geburtstag
fragments:
  - id: cover
    type: cover
    url: templates/cover.pdf
  - id: planner
    type: planner
    index: 1
    url: https://cdn.example/planner.pdf
    color: grayscale
  - id: notes
    type: notes
    index: 2
    url: /srv/notes.pdf
    converter: remote
options:
  page_numbers: false
  compression: max
  watermark_path: mark.png
color_map:
  notes: grayscale
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mark.png", "png")
	path := writeFile(t, dir, "job.yaml", yamlJob)

	job, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if job.Book.Title != "Mein Planer" || job.Book.Subdivision != "DE-BY" || !job.Book.AddHolidays {
		t.Errorf("book = %+v", job.Book)
	}
	if job.Book.Period.Start.String() != "2026-08-01" || job.Book.Period.End == nil || job.Book.Period.End.String() != "2027-07-31" {
		t.Errorf("period = %v", job.Book.Period)
	}
	if len(job.Book.CustomDates) != 1 || job.Book.CustomDates[0].Date != "2026-09-14" {
		t.Errorf("custom dates = %v", job.Book.CustomDates)
	}

	if len(job.Fragments) != 3 {
		t.Fatalf("fragments = %d, want 3", len(job.Fragments))
	}
	wantCover := "file://" + filepath.ToSlash(filepath.Join(dir, "templates", "cover.pdf"))
	if job.Fragments[0].URL != wantCover {
		t.Errorf("relative url = %s, want %s", job.Fragments[0].URL, wantCover)
	}
	if job.Fragments[1].URL != "https://cdn.example/planner.pdf" || job.Fragments[1].Color != booklet.Grayscale {
		t.Errorf("planner fragment = %+v", job.Fragments[1])
	}
	if job.Fragments[2].URL != "file:///srv/notes.pdf" || job.Fragments[2].Converter != "remote" {
		t.Errorf("notes fragment = %+v", job.Fragments[2])
	}

	if job.Options == nil || string(job.Options.Watermark) != "png" {
		t.Fatalf("watermark not loaded: %+v", job.Options)
	}
	if job.ColorMap["notes"] != booklet.Grayscale {
		t.Errorf("color map = %v", job.ColorMap)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "job.json", `{
  "book": {"title": "T", "country": "AT", "period": {"start": "2026-01-01"}},
  "fragments": [{"id": "cover", "type": "cover", "data": "RkFLRQ=="}],
  "options": {"preview": true, "watermark": "cG5n"}
}`)

	job, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(job.Fragments[0].Data) != "FAKE" {
		t.Errorf("data = %q", job.Fragments[0].Data)
	}
	if !job.Preview() || string(job.Options.Watermark) != "png" {
		t.Errorf("options = %+v", job.Options)
	}
	if job.Book.Period.End != nil {
		t.Errorf("end = %v, want nil", job.Book.Period.End)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"bad yaml", "job.yaml", "book: [", "failed to decode job"},
		{"bad date", "job.yaml", "book:\n  period:\n    start: 01.08.2026\nfragments:\n  - {id: a, type: cover}\n", "failed to decode job"},
		{"no fragments", "job.json", `{"book": {"title": "x"}}`, ErrNoFragments.Error()},
		{"missing id", "job.yaml", "fragments:\n  - type: cover\n", "has no id"},
		{"missing type", "job.yaml", "fragments:\n  - id: c\n", "has no type"},
		{"bad color", "job.yaml", "fragments:\n  - {id: c, type: cover, color: sepia}\n", "unknown color mode"},
		{"missing watermark", "job.yaml", "fragments:\n  - {id: c, type: cover}\noptions:\n  watermark_path: nope.png\n", "failed to read watermark"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
	if _, err := DecodeJSON([]byte(`{"fragments": []}`)); !errors.Is(err, ErrNoFragments) {
		t.Errorf("DecodeJSON() error = %v, want ErrNoFragments", err)
	}
}

func TestBuilderOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.PageNumbers = true
	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	off := false
	tests := []struct {
		name string
		spec *OptionsSpec
		want booklet.Options
	}{
		{
			name: "defaults",
			spec: nil,
			want: booklet.Options{PageNumbers: true, Compression: pdfdoc.CompressionStandard, Converter: "local"},
		},
		{
			name: "overrides",
			spec: &OptionsSpec{Preview: true, PageNumbers: &off, Compression: "max", Converter: "remote"},
			want: booklet.Options{Preview: true, Compression: pdfdoc.CompressionMax, Converter: "remote"},
		},
		{
			name: "empty spec keeps defaults",
			spec: &OptionsSpec{},
			want: booklet.Options{PageNumbers: true, Compression: pdfdoc.CompressionStandard, Converter: "local"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Options(tt.spec)
			if err != nil {
				t.Fatalf("Options() error = %v", err)
			}
			if got.Preview != tt.want.Preview || got.PageNumbers != tt.want.PageNumbers ||
				got.Compression != tt.want.Compression || got.Converter != tt.want.Converter {
				t.Errorf("Options() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := b.Options(&OptionsSpec{Compression: "ultra"}); err == nil {
		t.Error("Options() accepted an unknown compression")
	}
	withMark, _ := b.Options(&OptionsSpec{Watermark: []byte("img")})
	if string(withMark.Watermark) != "img" {
		t.Errorf("watermark = %q", withMark.Watermark)
	}
}

func TestNewBuilderRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.Compression = "ultra"
	if _, err := NewBuilder(cfg); err == nil {
		t.Error("NewBuilder() accepted an unknown compression")
	}
}

func TestInline(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cover.pdf", "cover-bytes")
	path := writeFile(t, dir, "job.yaml", `
book:
  period:
    start: 2026-01-01
fragments:
  - id: cover
    type: cover
    url: cover.pdf
  - id: notes
    type: notes
    url: https://cdn.example/notes.pdf
`)

	job, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := job.Inline(); err != nil {
		t.Fatalf("Inline() error = %v", err)
	}

	if string(job.Fragments[0].Data) != "cover-bytes" || job.Fragments[0].URL != "" {
		t.Errorf("cover not inlined: url=%q data=%q", job.Fragments[0].URL, job.Fragments[0].Data)
	}
	if job.Fragments[1].URL != "https://cdn.example/notes.pdf" || job.Fragments[1].Data != nil {
		t.Errorf("remote fragment changed: %+v", job.Fragments[1])
	}

	job.Fragments = append(job.Fragments, booklet.Fragment{ID: "gone", Type: "notes", URL: "file://" + filepath.ToSlash(filepath.Join(dir, "missing.pdf"))})
	if err := job.Inline(); err == nil || !strings.Contains(err.Error(), "gone") {
		t.Errorf("Inline() error = %v, want error naming the fragment", err)
	}
}
