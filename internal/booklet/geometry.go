package booklet

// PageSize is a page size in PDF points.
type PageSize struct {
	Width  float64
	Height float64
}

// A4 trim size.
var A4 = PageSize{Width: 595.28, Height: 841.89}

// MMToPoints converts millimetres to points.
func MMToPoints(mm float64) float64 {
	return mm * 72 / 25.4
}

// WithBleed grows the page by mm on every edge.
func (s PageSize) WithBleed(mm float64) PageSize {
	b := 2 * MMToPoints(mm)
	return PageSize{Width: s.Width + b, Height: s.Height + b}
}
