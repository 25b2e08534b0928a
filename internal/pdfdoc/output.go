package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// ErrEmptyOutput is returned when serializing an output with no pages.
var ErrEmptyOutput = errors.New("output has no pages")

// Output accumulates page segments in order. Each segment is a standalone
// PDF; Bytes merges them into one document.
type Output struct {
	segments [][]byte
	pages    int
}

// NewOutput returns an empty output.
func NewOutput() *Output {
	return &Output{}
}

// PageCount returns the number of pages appended so far.
func (o *Output) PageCount() int {
	return o.pages
}

// CopyPages appends the given zero-based pages of src in order.
func (o *Output) CopyPages(src *Document, pages ...int) error {
	if len(pages) == 0 {
		return nil
	}
	nrs := make([]int, len(pages))
	for i, p := range pages {
		if p < 0 || p >= src.PageCount() {
			return fmt.Errorf("page %d out of range (document has %d pages)", p, src.PageCount())
		}
		nrs[i] = p + 1
	}
	ctx, err := pdfcpu.ExtractPages(src.ctx, nrs, false)
	if err != nil {
		return fmt.Errorf("failed to extract pages: %w", err)
	}
	// Filled values live in the widget appearance streams; dropping the
	// AcroForm keeps merged segments from sharing field names.
	if ctx.RootDict != nil {
		ctx.RootDict.Delete("AcroForm")
	}
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return fmt.Errorf("failed to write extracted pages: %w", err)
	}
	o.segments = append(o.segments, buf.Bytes())
	o.pages += len(pages)
	return nil
}

// AddBlankPages appends n empty pages of the given size in points.
func (o *Output) AddBlankPages(width, height float64, n int) error {
	if n <= 0 {
		return nil
	}
	seg, err := Blank(width, height, n)
	if err != nil {
		return err
	}
	o.segments = append(o.segments, seg)
	o.pages += n
	return nil
}

// Append moves all pages of other to the end of o.
func (o *Output) Append(other *Output) {
	o.segments = append(o.segments, other.segments...)
	o.pages += other.pages
}

// Bytes merges all segments into a single document.
func (o *Output) Bytes() ([]byte, error) {
	switch len(o.segments) {
	case 0:
		return nil, ErrEmptyOutput
	case 1:
		return o.segments[0], nil
	}
	readers := make([]io.ReadSeeker, len(o.segments))
	for i, seg := range o.segments {
		readers[i] = bytes.NewReader(seg)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, NewConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge %d segments: %w", len(o.segments), err)
	}
	return out.Bytes(), nil
}

// PageCount reads the page count of serialized PDF bytes.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), NewConfig())
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}
