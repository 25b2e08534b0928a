package booklet

import (
	"fmt"

	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

// BookletMultiple is the page multiple required for saddle-stitch binding.
const BookletMultiple = 4

// backCoverPages is the number of pages deferred by the cover handler.
const backCoverPages = 2

// alignmentBlanks returns how many blanks must precede the back cover so
// that the finished booklet is a multiple of four pages.
func alignmentBlanks(pages int) int {
	r := (pages + backCoverPages) % BookletMultiple
	if r == 0 {
		return 0
	}
	return BookletMultiple - r
}

// finalize pads the output and appends the deferred back cover.
func (e *Engine) finalize(b *build) error {
	blanks := alignmentBlanks(b.output.PageCount())
	if blanks > 0 {
		if err := b.output.AddBlankPages(A4.WithBleed(e.settings.BleedMM), blanks); err != nil {
			return fmt.Errorf("failed to add alignment pages: %w", err)
		}
		b.acct.addBlank(blanks)
	}
	if b.back == nil {
		return fmt.Errorf("back cover missing")
	}
	pages := b.back.PageCount()
	if err := b.output.Append(b.back); err != nil {
		return fmt.Errorf("failed to append back cover: %w", err)
	}
	b.acct.add(b.backMode, pages)
	b.logger.Debug("booklet finalized", "alignment_pages", blanks, "pages", b.output.PageCount())
	return nil
}

// finish runs the optional post-processing passes. Each pass that fails is
// logged and skipped.
func (e *Engine) finish(b *build, data []byte) []byte {
	if b.opts.PageNumbers {
		// Covers are never numbered: skip the front cover and, in a full
		// build, the back cover.
		first, last := 3, b.acct.PageCount
		if !b.opts.Preview {
			last -= backCoverPages
		}
		if last >= first {
			if out, err := e.toolkit.NumberPages(data, first, last); err != nil {
				b.logger.Warn("page numbering failed, skipping", "error", err)
			} else {
				data = out
			}
		}
	}
	if len(b.opts.Watermark) > 0 {
		if out, err := e.toolkit.Watermark(data, b.opts.Watermark); err != nil {
			b.logger.Warn("watermark failed, skipping", "error", err)
		} else {
			data = out
		}
	}
	if c := b.opts.Compression; c != "" && c != pdfdoc.CompressionNone {
		if out, err := e.toolkit.Compress(data, b.opts.Compression); err != nil {
			b.logger.Warn("compression failed, keeping uncompressed output", "preset", b.opts.Compression, "error", err)
		} else {
			data = out
		}
	}
	return data
}

// tally simulates page positions without building a document.
type tally struct {
	Accounting
}

// spreads adds n planner spreads, each preceded by an alignment blank when
// the running count is even.
func (t *tally) spreads(mode ColorMode, n int) {
	for i := 0; i < n; i++ {
		if t.PageCount%2 == 0 {
			t.addBlank(1)
		}
		t.add(mode, PlannerPages)
	}
}

// finalize adds the alignment blanks and back cover.
func (t *tally) finalize(backMode ColorMode) {
	t.addBlank(alignmentBlanks(t.PageCount))
	t.add(backMode, backCoverPages)
}
