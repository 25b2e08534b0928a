package testutil

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// A4 page size in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Page describes one fixture page. Content is an uncompressed content
// stream; Helvetica is available as /F1.
type Page struct {
	Width   float64
	Height  float64
	Content []byte
	// Fields are single-line text fields placed on this page.
	Fields []string
}

// PDF returns an A4 document with n pages, each labelled with its number.
func PDF(n int) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{
			Width:   A4Width,
			Height:  A4Height,
			Content: []byte(fmt.Sprintf("BT /F1 24 Tf 72 720 Td (Page %d) Tj ET", i+1)),
		}
	}
	return WritePDF(pages)
}

// PDFWithContent returns a single A4 page with the given content stream.
func PDFWithContent(content string) []byte {
	return WritePDF([]Page{{Width: A4Width, Height: A4Height, Content: []byte(content)}})
}

// FormPDF returns an A4 document with n pages whose first page carries a
// text field for each name.
func FormPDF(n int, fields ...string) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Width: A4Width, Height: A4Height}
	}
	if n > 0 {
		pages[0].Fields = fields
	}
	return WritePDF(pages)
}

// WritePDF serializes pages as a minimal PDF 1.4 file with a classic
// cross-reference table. Documents with fields get an AcroForm whose
// default font is Helvetica.
func WritePDF(pages []Page) []byte {
	var objs []string
	alloc := func() int {
		objs = append(objs, "")
		return len(objs)
	}
	ref := func(n int) string { return strconv.Itoa(n) + " 0 R" }

	catalog, tree, font := alloc(), alloc(), alloc()
	objs[font-1] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"

	var kids, fields []string
	for _, p := range pages {
		page, content := alloc(), alloc()
		kids = append(kids, ref(page))

		var annots []string
		for i, name := range p.Fields {
			w := alloc()
			y := p.Height - 100 - float64(i)*40
			objs[w-1] = fmt.Sprintf("<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /F 4 /P %s /Rect [72 %s 400 %s] /DA (/Helv 12 Tf 0 g) >>",
				name, ref(page), num(y), num(y+24))
			annots = append(annots, ref(w))
			fields = append(fields, ref(w))
		}

		dict := fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 %s %s] /Resources << /Font << /F1 %s >> >> /Contents %s",
			ref(tree), num(p.Width), num(p.Height), ref(font), ref(content))
		if len(annots) > 0 {
			dict += " /Annots [" + strings.Join(annots, " ") + "]"
		}
		objs[page-1] = dict + " >>"
		objs[content-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.Content), p.Content)
	}

	objs[tree-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))
	root := "<< /Type /Catalog /Pages " + ref(tree)
	if len(fields) > 0 {
		form := alloc()
		objs[form-1] = fmt.Sprintf("<< /Fields [%s] /DR << /Font << /Helv %s >> >> /DA (/Helv 0 Tf 0 g) >>",
			strings.Join(fields, " "), ref(font))
		root += " /AcroForm " + ref(form)
	}
	objs[catalog-1] = root + " >>"

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %s >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, ref(catalog), xref)
	return buf.Bytes()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
