package booklet

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/booklet/internal/dates"
)

// CoverPages is the page count every cover template must have: front,
// inside front, inside back and back.
const CoverPages = 4

// CoverHandler emits the two front pages and defers the two back pages.
type CoverHandler struct {
	tagHandler
}

// NewCoverHandler creates the cover handler.
func NewCoverHandler(deps Deps) *CoverHandler {
	return &CoverHandler{tagHandler{
		deps:       deps,
		moduleType: TypeCover,
		tags: []TagDefinition{
			{Field: "BOOK_TITLE", Required: true, Value: func(tc *TagContext) string {
				return tc.Book.Title
			}},
			{Field: "FROM_TO", Value: func(tc *TagContext) string {
				p := tc.Book.Period
				if p.Start.IsZero() {
					return ""
				}
				var end *time.Time
				if p.End != nil {
					end = &p.End.Time
				}
				return dates.YearSpan(p.Start.Time, end)
			}},
		},
	}}
}

// Process fills and flattens the cover, copies pages 1-2 into the output
// and returns pages 3-4 as the back cover.
func (h *CoverHandler) Process(ctx context.Context, tc *TagContext, source []byte) (HandlerResult, error) {
	doc, err := h.deps.Toolkit.Open(source)
	if err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, err.Error(), ErrLoad)
	}
	if n := doc.PageCount(); n != CoverPages {
		return HandlerResult{}, fragmentError(tc.Fragment, fmt.Sprintf("got %d pages", n), ErrCoverPageCount)
	}
	if !h.Validate(doc) {
		return HandlerResult{}, fragmentError(tc.Fragment, "cover template", ErrMissingField)
	}
	if err := h.fill(doc, tc); err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, "fill cover", err)
	}
	if tc.Grayscale {
		if doc, err = h.convert(ctx, tc, doc); err != nil {
			return HandlerResult{}, err
		}
	}

	back := h.deps.Toolkit.NewOutput()
	if err := back.CopyPages(doc, 2, 3); err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, "copy back cover", err)
	}
	if err := tc.Output.CopyPages(doc, 0, 1); err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, "copy front cover", err)
	}
	return HandlerResult{PagesAdded: 2, BackCover: back}, nil
}

// CalculatePageCount returns the full cover page count.
func (h *CoverHandler) CalculatePageCount(*TagContext, []byte) (int, error) {
	return CoverPages, nil
}
