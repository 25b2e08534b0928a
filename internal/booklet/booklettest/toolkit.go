// Package booklettest provides an in-memory Toolkit for exercising the
// booklet engine without real PDF processing.
package booklettest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jackzampolin/booklet/internal/booklet"
	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

const magic = "FAKEPDF"

// Doc encodes a fake source document understood by Toolkit.Open.
func Doc(name string, pages int, fields ...string) []byte {
	return []byte(fmt.Sprintf("%s name=%s pages=%d fields=%s", magic, name, pages, strings.Join(fields, ",")))
}

// Cover returns a four-page cover template with the standard fields.
func Cover() []byte {
	return Doc("cover", 4, "BOOK_TITLE", "FROM_TO")
}

// Planner returns a two-page weekly template with the standard fields.
func Planner() []byte {
	return Doc("planner", 2,
		"DAY_1", "DAY_2", "DAY_3", "DAY_4", "DAY_5",
		"HOLIDAY_1", "HOLIDAY_2", "HOLIDAY_3", "HOLIDAY_4", "HOLIDAY_5")
}

// Page is one page of a fake output.
type Page struct {
	Source    string
	Index     int
	Blank     bool
	Gray      bool
	Flattened bool
	Fields    map[string]string
}

// Document is a parsed fake document.
type Document struct {
	Name      string
	Pages     int
	Fields    []string
	Values    map[string]string
	Gray      bool
	Flattened bool
}

func (d *Document) PageCount() int { return d.Pages }
func (d *Document) FieldNames() []string { return d.Fields }

func (d *Document) SetFields(values map[string]string) error {
	if d.Flattened {
		return errors.New("document is flattened")
	}
	for k, v := range values {
		d.Values[k] = v
	}
	return nil
}

func (d *Document) Flatten() error {
	d.Flattened = true
	return nil
}

func (d *Document) Bytes() ([]byte, error) {
	b := Doc(d.Name, d.Pages, d.Fields...)
	if d.Gray {
		b = append(b, " gray=1"...)
	}
	if d.Flattened {
		b = append(b, " flat=1"...)
	}
	keys := make([]string, 0, len(d.Values))
	for k := range d.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b = append(b, fmt.Sprintf(" v.%s=%s", k, url.QueryEscape(d.Values[k]))...)
	}
	return b, nil
}

// Output records copied pages.
type Output struct {
	Pages []Page
}

func (o *Output) PageCount() int { return len(o.Pages) }

func (o *Output) CopyPages(src booklet.Document, pages ...int) error {
	d, ok := src.(*Document)
	if !ok {
		return fmt.Errorf("unexpected document %T", src)
	}
	for _, p := range pages {
		if p < 0 || p >= d.Pages {
			return fmt.Errorf("page %d out of range", p)
		}
	}
	for _, p := range pages {
		fields := make(map[string]string, len(d.Values))
		for k, v := range d.Values {
			fields[k] = v
		}
		o.Pages = append(o.Pages, Page{Source: d.Name, Index: p, Gray: d.Gray, Flattened: d.Flattened, Fields: fields})
	}
	return nil
}

func (o *Output) AddBlankPages(_ booklet.PageSize, n int) error {
	for i := 0; i < n; i++ {
		o.Pages = append(o.Pages, Page{Source: "blank", Blank: true})
	}
	return nil
}

func (o *Output) Append(other booklet.Output) error {
	p, ok := other.(*Output)
	if !ok {
		return fmt.Errorf("unexpected output %T", other)
	}
	o.Pages = append(o.Pages, p.Pages...)
	return nil
}

func (o *Output) Bytes() ([]byte, error) {
	if len(o.Pages) == 0 {
		return nil, pdfdoc.ErrEmptyOutput
	}
	return Doc("output", len(o.Pages)), nil
}

// Toolkit is an in-memory booklet.Toolkit. It keeps the last output it
// created and the finishing calls it received.
type Toolkit struct {
	mu          sync.Mutex
	Outputs     []*Output
	Numbered    [][2]int
	Watermarked int
	Compressed  []pdfdoc.Compression
}

// Open parses a document produced by Doc.
func (t *Toolkit) Open(data []byte) (booklet.Document, error) {
	s := string(data)
	if !strings.HasPrefix(s, magic) {
		return nil, errors.New("not a fake PDF")
	}
	d := &Document{Values: map[string]string{}}
	for _, tok := range strings.Fields(s[len(magic):]) {
		key, val, _ := strings.Cut(tok, "=")
		switch {
		case key == "name":
			d.Name = val
		case key == "pages":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("bad page count %q", val)
			}
			d.Pages = n
		case key == "fields":
			if val != "" {
				d.Fields = strings.Split(val, ",")
			}
		case key == "gray":
			d.Gray = true
		case key == "flat":
			d.Flattened = true
		case strings.HasPrefix(key, "v."):
			v, err := url.QueryUnescape(val)
			if err != nil {
				return nil, fmt.Errorf("bad field value %q", val)
			}
			d.Values[strings.TrimPrefix(key, "v.")] = v
		}
	}
	return d, nil
}

// NewOutput returns a recording output. The first output created is the
// main document of a build.
func (t *Toolkit) NewOutput() booklet.Output {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := &Output{}
	t.Outputs = append(t.Outputs, o)
	return o
}

// Main returns the first output created.
func (t *Toolkit) Main() *Output {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Outputs) == 0 {
		return nil
	}
	return t.Outputs[0]
}

func (t *Toolkit) Blank(_ booklet.PageSize, n int) ([]byte, error) {
	return Doc("blank", n), nil
}

func (t *Toolkit) NumberPages(data []byte, first, last int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Numbered = append(t.Numbered, [2]int{first, last})
	return data, nil
}

// Watermark fails for the image "bad".
func (t *Toolkit) Watermark(data, image []byte) ([]byte, error) {
	if string(image) == "bad" {
		return nil, errors.New("unsupported image")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Watermarked++
	return data, nil
}

func (t *Toolkit) Compress(data []byte, level pdfdoc.Compression) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Compressed = append(t.Compressed, level)
	return data, nil
}

// Grayscaler marks documents as gray. It fails when Err is set.
type Grayscaler struct {
	mu    sync.Mutex
	Err   error
	Calls []string
}

func (g *Grayscaler) ToGrayscale(_ context.Context, strategy string, pdf []byte) ([]byte, error) {
	g.mu.Lock()
	g.Calls = append(g.Calls, strategy)
	g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return append(append([]byte{}, pdf...), " gray=1"...), nil
}

// Fetcher serves sources from a map keyed by URL.
type Fetcher struct {
	Sources map[string][]byte
}

func (f *Fetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	if b, ok := f.Sources[rawURL]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("fetch %s: status 404", rawURL)
}
