package grayscale

import "github.com/jackzampolin/booklet/internal/pdfdoc"

// Shrinker produces smaller renditions of a document before upload.
type Shrinker interface {
	// Resave rewrites the document with compressed object streams.
	Resave(pdf []byte) ([]byte, error)
	// Rebuild copies all pages into a fresh document.
	Rebuild(pdf []byte) ([]byte, error)
}

// PDFShrinker is the pdfcpu-backed Shrinker.
type PDFShrinker struct{}

func (PDFShrinker) Resave(pdf []byte) ([]byte, error) { return pdfdoc.Resave(pdf) }
func (PDFShrinker) Rebuild(pdf []byte) ([]byte, error) { return pdfdoc.Rebuild(pdf) }

// shrink returns the smallest of the original and its shrunk candidates.
// Documents at or below the threshold are sent as-is. Any shrink failure
// falls back to the original.
func (c *Client) shrink(pdf []byte) []byte {
	if len(pdf) <= c.threshold {
		return pdf
	}

	best := pdf
	resaved, err := c.shrinker.Resave(pdf)
	if err != nil {
		c.logger.Warn("shrink pass failed, sending original", "stage", "resave", "error", err)
		return pdf
	}
	if len(resaved) < len(best) {
		best = resaved
	}

	if len(best) > c.target {
		rebuilt, err := c.shrinker.Rebuild(pdf)
		if err != nil {
			c.logger.Warn("shrink pass failed, sending original", "stage", "rebuild", "error", err)
			return pdf
		}
		if len(rebuilt) < len(best) {
			best = rebuilt
		}
	}

	if len(best) < len(pdf) {
		c.logger.Debug("shrunk document before upload", "from", len(pdf), "to", len(best))
	}
	return best
}
