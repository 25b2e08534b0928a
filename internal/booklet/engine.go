package booklet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/booklet/internal/dates"
	"github.com/jackzampolin/booklet/internal/holidays"
)

// HolidaySource supplies public and school holidays for a region.
type HolidaySource interface {
	Holidays(ctx context.Context, q holidays.Query) ([]dates.Entry, error)
}

// BuildReport summarizes one Assemble or Estimate call.
type BuildReport struct {
	BuildID    string
	Kind       string // "assemble" or "estimate"
	Preview    bool
	Fragments  int
	Accounting Accounting
	Duration   time.Duration
	Err        error
}

// Observer is notified when a call finishes, successfully or not.
type Observer interface {
	BuildFinished(BuildReport)
}

// Config holds the engine's collaborators.
type Config struct {
	Toolkit    Toolkit
	Fetcher    Fetcher
	Grayscaler Grayscaler
	Holidays   HolidaySource
	Observer   Observer
	Settings   Settings
	Logger     *slog.Logger
}

// Engine assembles booklets. It holds no per-call state, so one Engine
// serves concurrent calls.
type Engine struct {
	toolkit  Toolkit
	fetcher  Fetcher
	holidays HolidaySource
	observer Observer
	settings Settings
	logger   *slog.Logger
	registry *Registry
}

// New creates an engine with the cover, planner and content handlers
// registered.
func New(cfg Config) *Engine {
	if cfg.Toolkit == nil {
		cfg.Toolkit = PDFToolkit{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Settings = cfg.Settings.withDefaults()

	deps := Deps{
		Toolkit:    cfg.Toolkit,
		Grayscaler: cfg.Grayscaler,
		Settings:   cfg.Settings,
		Logger:     cfg.Logger,
	}
	content := NewContentHandler(deps)
	registry := NewRegistry(content)
	registry.Register(NewCoverHandler(deps))
	registry.Register(NewPlannerHandler(deps))
	registry.Register(content)

	return &Engine{
		toolkit:  cfg.Toolkit,
		fetcher:  cfg.Fetcher,
		holidays: cfg.Holidays,
		observer: cfg.Observer,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		registry: registry,
	}
}

// Registry exposes the handler registry for custom fragment types.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Settings returns the effective settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// build is the state of one Assemble call.
type build struct {
	id       string
	book     BookDetails
	opts     Options
	logger   *slog.Logger
	output   Output
	back     Output
	backMode ColorMode
	dates    map[string]string
	acct     Accounting
	full     tally
	started  time.Time
	closers  []func()
}

func (b *build) onClose(fn func()) {
	b.closers = append(b.closers, fn)
}

func (b *build) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// Assemble builds the booklet. Any fatal fragment error aborts the call
// and is returned as a *FragmentError.
func (e *Engine) Assemble(ctx context.Context, book BookDetails, fragments []Fragment, opts Options) (res *Result, err error) {
	b := &build{
		id:      uuid.NewString(),
		book:    book,
		opts:    opts,
		output:  e.toolkit.NewOutput(),
		started: time.Now(),
	}
	b.logger = e.logger.With("build_id", b.id)
	b.onClose(func() {
		e.report(BuildReport{
			BuildID:    b.id,
			Kind:       "assemble",
			Preview:    opts.Preview,
			Fragments:  len(fragments),
			Accounting: b.acct,
			Duration:   time.Since(b.started),
			Err:        err,
		})
	})
	b.onClose(func() {
		// Drop page buffers as soon as the call ends.
		b.output, b.back, b.dates = nil, nil, nil
	})
	defer b.close()

	cover, rest, err := splitFragments(fragments)
	if err != nil {
		return nil, err
	}
	b.logger.Info("assembling booklet", "fragments", len(fragments), "preview", opts.Preview)

	if hasType(rest, TypePlanner) {
		b.dates = e.dateLabels(ctx, b.logger, &b.book)
	}

	for _, f := range append([]Fragment{cover}, rest...) {
		if err := e.process(ctx, b, f); err != nil {
			return nil, err
		}
	}

	if !opts.Preview {
		if err := e.finalize(b); err != nil {
			return nil, err
		}
	}

	data, err := b.output.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize booklet: %w", err)
	}
	data = e.finish(b, data)

	b.acct.FullPageCount = b.acct.PageCount
	if opts.Preview {
		b.full.finalize(b.backMode)
		b.acct.FullPageCount = b.full.PageCount
	}

	b.logger.Info("booklet assembled",
		"pages", b.acct.PageCount,
		"b_pages", b.acct.BPages,
		"c_pages", b.acct.CPages,
		"bytes", len(data),
		"duration", time.Since(b.started))
	return &Result{BuildID: b.id, Bytes: data, Accounting: b.acct}, nil
}

func (e *Engine) process(ctx context.Context, b *build, f Fragment) error {
	logger := b.logger.With("fragment", f.ID, "type", f.Type)
	source := e.source(ctx, logger, f)

	h := e.registry.Resolve(f.Type)
	tc := e.tagContext(&b.book, f, b.opts)
	tc.Output = b.output
	if f.Type == TypePlanner {
		tc.Dates = b.dates
	}

	start := time.Now()
	res, err := h.Process(ctx, tc, source)
	if err != nil {
		var fe *FragmentError
		if errors.As(err, &fe) {
			return err
		}
		return fragmentError(f, "process", err)
	}

	b.acct.add(f.Color, res.PagesAdded-res.BlankPages)
	b.acct.addBlank(res.BlankPages)
	if res.BackCover != nil {
		b.back = res.BackCover
		b.backMode = f.Color
	}
	if b.opts.Preview {
		e.projectFull(ctx, b, h, f, source, res)
	}

	logger.Debug("fragment processed",
		"pages_added", res.PagesAdded,
		"alignment_pages", res.BlankPages,
		"output_pages", b.output.PageCount(),
		"duration", time.Since(start))
	return nil
}

// projectFull tracks what the fragment would contribute to a full build.
func (e *Engine) projectFull(ctx context.Context, b *build, h Handler, f Fragment, source []byte, res HandlerResult) {
	full := e.tagContext(&b.book, f, Options{})
	if f.Type == TypeCover {
		b.full.add(f.Color, 2)
		return
	}
	switch pc := h.(type) {
	case SpreadPlanner:
		if n, err := pc.CalculatePageCount(full, source); err == nil {
			b.full.spreads(f.Color, n/PlannerPages)
			return
		}
	case PageCounter:
		if n, err := pc.CalculatePageCount(full, source); err == nil {
			b.full.add(f.Color, n)
			return
		}
	}
	b.full.add(f.Color, res.PagesAdded-res.BlankPages)
	b.full.addBlank(res.BlankPages)
}

func (e *Engine) tagContext(book *BookDetails, f Fragment, opts Options) *TagContext {
	converter := f.Converter
	if converter == "" {
		converter = opts.Converter
	}
	return &TagContext{
		Book:      book,
		Fragment:  f,
		Preview:   opts.Preview,
		Grayscale: f.Color == Grayscale,
		Converter: converter,
	}
}

// source returns the fragment bytes. A failed fetch degrades to one blank
// A4 page; cover and planner templates then fail their page-count check.
func (e *Engine) source(ctx context.Context, logger *slog.Logger, f Fragment) []byte {
	if len(f.Data) > 0 {
		return f.Data
	}
	var err error
	if f.URL == "" {
		err = errors.New("fragment has neither data nor url")
	} else if e.fetcher == nil {
		err = errors.New("no fetcher configured")
	} else {
		var data []byte
		if data, err = e.fetcher.Fetch(ctx, f.URL); err == nil {
			return data
		}
	}
	logger.Warn("fragment source unavailable, using a blank page", "url", f.URL, "error", err)
	blank, err := e.toolkit.Blank(A4, 1)
	if err != nil {
		logger.Error("cannot create blank page", "error", err)
		return nil
	}
	return blank
}

// dateLabels merges fetched holidays with the book's custom dates. A
// holiday fetch failure leaves only the custom dates.
func (e *Engine) dateLabels(ctx context.Context, logger *slog.Logger, book *BookDetails) map[string]string {
	var hols []dates.Entry
	sp, ok := e.registry.Resolve(TypePlanner).(SpreadPlanner)
	if ok && book.AddHolidays && e.holidays != nil {
		if start, weeks, err := sp.Window(book, false); err == nil {
			q := holidays.Query{
				Country:     book.Country,
				Subdivision: book.Subdivision,
				From:        start,
				To:          start.AddDate(0, 0, 7*weeks),
			}
			hols, err = e.holidays.Holidays(ctx, q)
			if err != nil {
				logger.Warn("holiday fetch failed, continuing without holidays", "error", err)
				hols = nil
			}
		}
	}
	for _, d := range dates.Dropped(book.CustomDates) {
		logger.Warn("ignoring custom date", "date", d.Date, "name", d.Name)
	}
	return dates.Merge(hols, book.CustomDates)
}

func (e *Engine) report(r BuildReport) {
	if e.observer != nil {
		e.observer.BuildFinished(r)
	}
}

// splitFragments returns the single cover and the remaining fragments
// stable-sorted by Index. The input slice is not modified.
func splitFragments(fragments []Fragment) (Fragment, []Fragment, error) {
	var covers []Fragment
	rest := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Type == TypeCover {
			covers = append(covers, f)
			continue
		}
		rest = append(rest, f)
	}
	switch len(covers) {
	case 1:
	case 0:
		return Fragment{}, nil, &FragmentError{Type: TypeCover, Err: ErrCoverNotFound}
	default:
		return Fragment{}, nil, &FragmentError{
			FragmentID: covers[1].ID,
			Type:       TypeCover,
			Reason:     fmt.Sprintf("expected one cover, got %d", len(covers)),
			Err:        ErrCoverNotFound,
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Index < rest[j].Index })
	return covers[0], rest, nil
}

func hasType(fragments []Fragment, typ string) bool {
	for _, f := range fragments {
		if f.Type == typ {
			return true
		}
	}
	return false
}
