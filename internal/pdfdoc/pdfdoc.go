// Package pdfdoc wraps pdfcpu with the handful of document operations the
// booklet engine needs: load, fill and flatten form fields, copy pages,
// create blank pages, merge and post-process the result.
package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// NewConfig returns the pdfcpu configuration used for every operation.
// Fragments come from many authoring tools, so validation is relaxed.
func NewConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Document is a loaded source PDF. Fill and flatten operations replace the
// underlying bytes and re-read the context.
type Document struct {
	data   []byte
	ctx    *model.Context
	fields []string
}

// Open parses and validates data.
func Open(data []byte) (*Document, error) {
	d := &Document{}
	if err := d.load(data); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) load(data []byte) error {
	ctx, err := readContext(data, NewConfig())
	if err != nil {
		return err
	}
	d.data = data
	d.ctx = ctx
	d.fields = fieldNames(ctx)
	return nil
}

func readContext(data []byte, conf *model.Configuration) (*model.Context, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	return ctx, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// FieldNames returns the fully qualified names of the document's form
// fields, or nil when it has no form.
func (d *Document) FieldNames() []string {
	return d.fields
}

// Bytes returns the current serialized document.
func (d *Document) Bytes() ([]byte, error) {
	return d.data, nil
}

// SetFields fills text fields by name. Names not present in the form are
// ignored by pdfcpu.
func (d *Document) SetFields(values map[string]string) error {
	if len(values) == 0 || len(d.fields) == 0 {
		return nil
	}
	payload, err := fillJSON(values)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(d.data), bytes.NewReader(payload), &out, NewConfig()); err != nil {
		return fmt.Errorf("failed to fill form: %w", err)
	}
	return d.load(out.Bytes())
}

// Flatten locks every field so the filled values become static content.
// Pages copied out of a flattened document carry no AcroForm.
func (d *Document) Flatten() error {
	if len(d.fields) == 0 {
		return nil
	}
	var out bytes.Buffer
	if err := api.LockFormFields(bytes.NewReader(d.data), &out, nil, NewConfig()); err != nil {
		return fmt.Errorf("failed to lock form fields: %w", err)
	}
	return d.load(out.Bytes())
}
