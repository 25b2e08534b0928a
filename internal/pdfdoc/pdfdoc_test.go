package pdfdoc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"slices"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/jackzampolin/booklet/internal/testutil"
)

func fixture(n int) []byte {
	return testutil.PDF(n)
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	n, err := PageCount(data)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	return n
}

// streamsContain reports whether any decoded stream of data contains s.
func streamsContain(t *testing.T, data []byte, s string) bool {
	t.Helper()
	ctx, err := readContext(data, NewConfig())
	if err != nil {
		t.Fatalf("readContext() error = %v", err)
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if err := sd.Decode(); err != nil {
			continue
		}
		if bytes.Contains(sd.Content, []byte(s)) {
			return true
		}
	}
	return false
}

// fieldValue returns the V entry of the top-level field named name.
func fieldValue(t *testing.T, ctx *model.Context, name string) string {
	t.Helper()
	root, err := ctx.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	form, err := ctx.DereferenceDict(root["AcroForm"])
	if err != nil || form == nil {
		t.Fatalf("no AcroForm: %v", err)
	}
	fields, err := ctx.DereferenceArray(form["Fields"])
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range fields {
		d, err := ctx.DereferenceDict(o)
		if err != nil || d == nil {
			continue
		}
		if textValue(ctx, d["T"]) == name {
			return textValue(ctx, d["V"])
		}
	}
	return ""
}

func TestOpen(t *testing.T) {
	doc, err := Open(fixture(3))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if doc.PageCount() != 3 {
		t.Errorf("PageCount() = %d, want 3", doc.PageCount())
	}
	if names := doc.FieldNames(); len(names) != 0 {
		t.Errorf("FieldNames() = %v, want none", names)
	}
	// No form: filling and flattening are no-ops.
	if err := doc.SetFields(map[string]string{"BOOK_TITLE": "x"}); err != nil {
		t.Errorf("SetFields() error = %v", err)
	}
	if err := doc.Flatten(); err != nil {
		t.Errorf("Flatten() error = %v", err)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	if _, err := Open([]byte("not a pdf")); err == nil {
		t.Error("Open() accepted garbage")
	}
}

func TestOutputCopyBlankAppend(t *testing.T) {
	src, err := Open(fixture(4))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	out := NewOutput()
	if err := out.CopyPages(src, 0, 1); err != nil {
		t.Fatalf("CopyPages() error = %v", err)
	}
	if err := out.AddBlankPages(600, 850, 3); err != nil {
		t.Fatalf("AddBlankPages() error = %v", err)
	}

	back := NewOutput()
	if err := back.CopyPages(src, 2, 3); err != nil {
		t.Fatalf("CopyPages() error = %v", err)
	}
	out.Append(back)

	if out.PageCount() != 7 {
		t.Errorf("PageCount() = %d, want 7", out.PageCount())
	}

	data, err := out.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	n, err := PageCount(data)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if n != 7 {
		t.Errorf("merged document has %d pages, want 7", n)
	}
}

func TestCopyPagesOutOfRange(t *testing.T) {
	src, err := Open(fixture(2))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	out := NewOutput()
	if err := out.CopyPages(src, 2); err == nil {
		t.Error("CopyPages() accepted an out-of-range page")
	}
	if out.PageCount() != 0 {
		t.Errorf("failed copy mutated output: %d pages", out.PageCount())
	}
}

func TestEmptyOutput(t *testing.T) {
	if _, err := NewOutput().Bytes(); err != ErrEmptyOutput {
		t.Errorf("Bytes() error = %v, want ErrEmptyOutput", err)
	}
}

func TestBlank(t *testing.T) {
	// A4 with 3mm bleed on each side.
	w, h := 612.29, 858.9
	data, err := Blank(w, h, 3)
	if err != nil {
		t.Fatalf("Blank() error = %v", err)
	}
	if n := pageCount(t, data); n != 3 {
		t.Errorf("Blank() has %d pages, want 3", n)
	}
	dims, err := api.PageDims(bytes.NewReader(data), NewConfig())
	if err != nil {
		t.Fatalf("PageDims() error = %v", err)
	}
	for i, d := range dims {
		if math.Abs(d.Width-w) > 0.01 || math.Abs(d.Height-h) > 0.01 {
			t.Errorf("page %d is %.2fx%.2f, want %.2fx%.2f", i+1, d.Width, d.Height, w, h)
		}
	}

	if _, err := Blank(w, h, 0); err == nil {
		t.Error("Blank() accepted zero pages")
	}
}

func TestFormFields(t *testing.T) {
	doc, err := Open(testutil.FormPDF(4, "BOOK_TITLE", "FROM_TO"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	names := doc.FieldNames()
	for _, want := range []string{"BOOK_TITLE", "FROM_TO"} {
		if !slices.Contains(names, want) {
			t.Errorf("FieldNames() = %v, missing %s", names, want)
		}
	}

	err = doc.SetFields(map[string]string{"BOOK_TITLE": "Jahresplaner", "UNKNOWN": "x"})
	if err != nil {
		t.Fatalf("SetFields() error = %v", err)
	}
	if got := fieldValue(t, doc.ctx, "BOOK_TITLE"); got != "Jahresplaner" {
		t.Errorf("BOOK_TITLE = %q after fill", got)
	}
	if err := doc.Flatten(); err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	if doc.PageCount() != 4 {
		t.Errorf("PageCount() = %d after fill, want 4", doc.PageCount())
	}

	out := NewOutput()
	if err := out.CopyPages(doc, 0, 1); err != nil {
		t.Fatalf("CopyPages() error = %v", err)
	}
	if err := out.AddBlankPages(testutil.A4Width, testutil.A4Height, 1); err != nil {
		t.Fatalf("AddBlankPages() error = %v", err)
	}
	data, err := out.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if n := pageCount(t, data); n != 3 {
		t.Errorf("merged document has %d pages, want 3", n)
	}
	if !streamsContain(t, data, "Jahresplaner") {
		t.Error("filled title not rendered in the merged document")
	}
}

func TestNumberPages(t *testing.T) {
	data := fixture(6)
	out, err := NumberPages(data, 3, 4)
	if err != nil {
		t.Fatalf("NumberPages() error = %v", err)
	}
	if bytes.Equal(out, data) {
		t.Error("NumberPages() left the document unchanged")
	}
	if n := pageCount(t, out); n != 6 {
		t.Errorf("numbered document has %d pages, want 6", n)
	}

	// An empty range stamps nothing.
	same, err := NumberPages(data, 3, 2)
	if err != nil || !bytes.Equal(same, data) {
		t.Errorf("NumberPages() with empty range changed the document: %v", err)
	}
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 4)
	}
	img.Set(0, 0, color.Gray{Y: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestWatermark(t *testing.T) {
	data := fixture(2)
	out, err := Watermark(data, pngImage(t))
	if err != nil {
		t.Fatalf("Watermark() error = %v", err)
	}
	if len(out) <= len(data) {
		t.Errorf("watermarked document is %d bytes, input %d", len(out), len(data))
	}
	if n := pageCount(t, out); n != 2 {
		t.Errorf("watermarked document has %d pages, want 2", n)
	}

	if _, err := Watermark(data, []byte("not an image")); err == nil {
		t.Error("Watermark() accepted a non-image")
	}
}

func TestCompressKeepsPages(t *testing.T) {
	data := fixture(4)
	for _, level := range []Compression{CompressionStandard, CompressionMax} {
		t.Run(string(level), func(t *testing.T) {
			out, err := Compress(data, level)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			if n := pageCount(t, out); n != 4 {
				t.Errorf("compressed document has %d pages, want 4", n)
			}
		})
	}
	if _, err := Compress(data, "ultra"); err == nil {
		t.Error("Compress() accepted an unknown preset")
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"none", CompressionNone, false},
		{"standard", CompressionStandard, false},
		{"max", CompressionMax, false},
		{"ultra", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCompression(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestCompressNoneIsIdentity(t *testing.T) {
	data := fixture(1)
	out, err := Compress(data, CompressionNone)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("Compress(none) changed the document")
	}
}

func TestResaveAndRebuildKeepPages(t *testing.T) {
	data := fixture(3)
	for name, fn := range map[string]func([]byte) ([]byte, error){
		"resave":  Resave,
		"rebuild": Rebuild,
	} {
		t.Run(name, func(t *testing.T) {
			out, err := fn(data)
			if err != nil {
				t.Fatalf("%s error = %v", name, err)
			}
			n, err := PageCount(out)
			if err != nil {
				t.Fatalf("PageCount() error = %v", err)
			}
			if n != 3 {
				t.Errorf("%s produced %d pages, want 3", name, n)
			}
		})
	}
}

func TestFillJSON(t *testing.T) {
	b, err := fillJSON(map[string]string{"FROM_TO": "2026", "BOOK_TITLE": "Mein Planer"})
	if err != nil {
		t.Fatalf("fillJSON() error = %v", err)
	}
	want := `{"forms":[{"textfield":[{"name":"BOOK_TITLE","value":"Mein Planer"},{"name":"FROM_TO","value":"2026"}]}]}`
	if string(b) != want {
		t.Errorf("fillJSON() = %s\nwant %s", b, want)
	}
}
