package booklet

import (
	"context"
	"fmt"

	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

// Document is a loaded fragment source.
type Document interface {
	PageCount() int
	FieldNames() []string
	SetFields(values map[string]string) error
	Flatten() error
	Bytes() ([]byte, error)
}

// Output is a document under construction. Pages are zero-based.
type Output interface {
	PageCount() int
	CopyPages(src Document, pages ...int) error
	AddBlankPages(size PageSize, n int) error
	Append(other Output) error
	Bytes() ([]byte, error)
}

// Toolkit provides the document operations the engine relies on.
type Toolkit interface {
	Open(data []byte) (Document, error)
	NewOutput() Output
	Blank(size PageSize, n int) ([]byte, error)
	NumberPages(data []byte, first, last int) ([]byte, error)
	Watermark(data, image []byte) ([]byte, error)
	Compress(data []byte, level pdfdoc.Compression) ([]byte, error)
}

// Grayscaler converts a PDF using a named strategy; the empty name selects
// the converter's default.
type Grayscaler interface {
	ToGrayscale(ctx context.Context, strategy string, pdf []byte) ([]byte, error)
}

// Fetcher loads fragment sources by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PDFToolkit is the pdfcpu-backed Toolkit.
type PDFToolkit struct{}

func (PDFToolkit) Open(data []byte) (Document, error) {
	d, err := pdfdoc.Open(data)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (PDFToolkit) NewOutput() Output {
	return &pdfOutput{out: pdfdoc.NewOutput()}
}

func (PDFToolkit) Blank(size PageSize, n int) ([]byte, error) {
	return pdfdoc.Blank(size.Width, size.Height, n)
}

func (PDFToolkit) NumberPages(data []byte, first, last int) ([]byte, error) {
	return pdfdoc.NumberPages(data, first, last)
}

func (PDFToolkit) Watermark(data, image []byte) ([]byte, error) {
	return pdfdoc.Watermark(data, image)
}

func (PDFToolkit) Compress(data []byte, level pdfdoc.Compression) ([]byte, error) {
	return pdfdoc.Compress(data, level)
}

type pdfOutput struct {
	out *pdfdoc.Output
}

func (o *pdfOutput) PageCount() int { return o.out.PageCount() }

func (o *pdfOutput) CopyPages(src Document, pages ...int) error {
	d, ok := src.(*pdfdoc.Document)
	if !ok {
		return fmt.Errorf("cannot copy pages from %T", src)
	}
	return o.out.CopyPages(d, pages...)
}

func (o *pdfOutput) AddBlankPages(size PageSize, n int) error {
	return o.out.AddBlankPages(size.Width, size.Height, n)
}

func (o *pdfOutput) Append(other Output) error {
	p, ok := other.(*pdfOutput)
	if !ok {
		return fmt.Errorf("cannot append %T", other)
	}
	o.out.Append(p.out)
	return nil
}

func (o *pdfOutput) Bytes() ([]byte, error) { return o.out.Bytes() }
