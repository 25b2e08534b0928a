package booklet

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// TagContext is the per-invocation view a handler works with. It is built
// by the engine for each fragment and never stored.
type TagContext struct {
	Book      *BookDetails
	Fragment  Fragment
	Output    Output
	Preview   bool
	Grayscale bool
	// Converter is the resolved grayscale strategy for this fragment.
	Converter string
	// Dates is the merged holiday/custom label map, set for planners only.
	Dates map[string]string
	// Week is set while a planner fills one weekly spread.
	Week *WeekContext
}

// WeekContext identifies one planner week.
type WeekContext struct {
	Index int
	Days  [5]time.Time
}

// HandlerResult reports what a handler appended.
type HandlerResult struct {
	PagesAdded int
	// BlankPages is the part of PagesAdded that is alignment blanks.
	BlankPages int
	// BackCover holds pages to append at finalization (cover only).
	BackCover Output
}

// TagDefinition maps a form field to a value computed from the context.
type TagDefinition struct {
	Field    string
	Value    func(tc *TagContext) string
	Required bool
}

// Handler processes one fragment type.
type Handler interface {
	ModuleType() string
	Tags() []TagDefinition
	// Validate reports whether doc carries every required field. Missing
	// optional fields are logged only.
	Validate(doc Document) bool
	Process(ctx context.Context, tc *TagContext, source []byte) (HandlerResult, error)
}

// PageCounter is implemented by handlers that can predict their page
// count without building.
type PageCounter interface {
	CalculatePageCount(tc *TagContext, source []byte) (int, error)
}

// SpreadPlanner is implemented by handlers that lay out dated two-page
// spreads. Estimation simulates the alignment blank before each spread and
// the holiday query covers the planner's window.
type SpreadPlanner interface {
	PageCounter
	Window(book *BookDetails, preview bool) (time.Time, int, error)
}

// Registry maps fragment types to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry creates a registry that resolves unknown types to fallback.
func NewRegistry(fallback Handler) *Registry {
	return &Registry{handlers: make(map[string]Handler), fallback: fallback}
}

// Register adds or replaces the handler for h.ModuleType().
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.ModuleType()] = h
}

// Resolve returns the handler for typ, or the fallback.
func (r *Registry) Resolve(typ string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[typ]; ok {
		return h
	}
	return r.fallback
}

// Types lists the registered fragment types in order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Deps are the collaborators shared by the built-in handlers.
type Deps struct {
	Toolkit    Toolkit
	Grayscaler Grayscaler
	Settings   Settings
	Logger     *slog.Logger
}

// tagHandler implements the tag bookkeeping shared by handlers.
type tagHandler struct {
	deps       Deps
	moduleType string
	tags       []TagDefinition
}

func (h *tagHandler) ModuleType() string {
	return h.moduleType
}

func (h *tagHandler) Tags() []TagDefinition {
	return h.tags
}

func (h *tagHandler) Validate(doc Document) bool {
	present := fieldSet(doc)
	ok := true
	for _, tag := range h.tags {
		if present[tag.Field] {
			continue
		}
		if tag.Required {
			h.deps.Logger.Error("required form field missing", "module", h.moduleType, "field", tag.Field)
			ok = false
			continue
		}
		h.deps.Logger.Warn("optional form field missing", "module", h.moduleType, "field", tag.Field)
	}
	return ok
}

// fill sets every tag the document carries and flattens it.
func (h *tagHandler) fill(doc Document, tc *TagContext) error {
	present := fieldSet(doc)
	values := make(map[string]string, len(h.tags))
	for _, tag := range h.tags {
		if present[tag.Field] {
			values[tag.Field] = tag.Value(tc)
		}
	}
	if err := doc.SetFields(values); err != nil {
		return err
	}
	return doc.Flatten()
}

// convert replaces doc with its grayscale rendition.
func (h *tagHandler) convert(ctx context.Context, tc *TagContext, doc Document) (Document, error) {
	data, err := doc.Bytes()
	if err != nil {
		return nil, fragmentError(tc.Fragment, "serialize before conversion", err)
	}
	gray, err := convertBytes(ctx, h.deps, tc, data)
	if err != nil {
		return nil, err
	}
	out, err := h.deps.Toolkit.Open(gray)
	if err != nil {
		return nil, fragmentError(tc.Fragment, "converted document unreadable", ErrConversion)
	}
	return out, nil
}

func convertBytes(ctx context.Context, deps Deps, tc *TagContext, data []byte) ([]byte, error) {
	if deps.Grayscaler == nil {
		return nil, fragmentError(tc.Fragment, "no grayscale converter configured", ErrConversion)
	}
	gray, err := deps.Grayscaler.ToGrayscale(ctx, tc.Converter, data)
	if err != nil {
		return nil, fragmentError(tc.Fragment, "", fmt.Errorf("%w: %w", ErrConversion, err))
	}
	return gray, nil
}

func fieldSet(doc Document) map[string]bool {
	names := doc.FieldNames()
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
