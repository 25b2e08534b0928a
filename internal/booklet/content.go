package booklet

import (
	"context"
	"fmt"
)

// ContentHandler copies a content fragment verbatim. It is the registry
// fallback for every type without a dedicated handler.
type ContentHandler struct {
	tagHandler
}

// NewContentHandler creates the content handler.
func NewContentHandler(deps Deps) *ContentHandler {
	return &ContentHandler{tagHandler{deps: deps, moduleType: "content"}}
}

// Process converts the source first when grayscale is requested, then
// copies all pages, or the first PreviewPages in preview mode.
func (h *ContentHandler) Process(ctx context.Context, tc *TagContext, source []byte) (HandlerResult, error) {
	data := source
	if tc.Grayscale {
		gray, err := convertBytes(ctx, h.deps, tc, source)
		if err != nil {
			return HandlerResult{}, err
		}
		data = gray
	}

	doc, err := h.deps.Toolkit.Open(data)
	if err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, err.Error(), ErrLoad)
	}

	n := h.pages(doc.PageCount(), tc.Preview)
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i
	}
	if err := tc.Output.CopyPages(doc, pages...); err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, "copy pages", err)
	}
	return HandlerResult{PagesAdded: n}, nil
}

// CalculatePageCount loads the source only to read its page count.
func (h *ContentHandler) CalculatePageCount(tc *TagContext, source []byte) (int, error) {
	doc, err := h.deps.Toolkit.Open(source)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return h.pages(doc.PageCount(), tc.Preview), nil
}

func (h *ContentHandler) pages(total int, preview bool) int {
	if preview {
		return min(total, h.deps.Settings.PreviewPages)
	}
	return total
}
