// Package booklet assembles press-ready booklets from PDF fragments: one
// cover, weekly planner templates and arbitrary content documents. It fills
// form fields, keeps the page count aligned for saddle-stitch binding,
// converts fragments to grayscale on request and reports page accounting.
package booklet

import (
	"time"

	"github.com/jackzampolin/booklet/internal/dates"
	"github.com/jackzampolin/booklet/internal/pdfdoc"
)

// Fragment types with dedicated handlers. Any other type is content.
const (
	TypeCover   = "cover"
	TypePlanner = "planner"
)

// ColorMode selects how a fragment is printed.
type ColorMode string

const (
	Color     ColorMode = "color"
	Grayscale ColorMode = "grayscale"
)

// Period is the date range a planner covers. End is optional.
type Period struct {
	Start dates.Day  `json:"start" yaml:"start"`
	End   *dates.Day `json:"end,omitempty" yaml:"end,omitempty"`
}

// BookDetails is the book-level metadata. The engine never modifies it.
type BookDetails struct {
	Title       string        `json:"title" yaml:"title"`
	Country     string        `json:"country" yaml:"country"`
	Subdivision string        `json:"subdivision,omitempty" yaml:"subdivision,omitempty"`
	Period      Period        `json:"period" yaml:"period"`
	AddHolidays bool          `json:"add_holidays" yaml:"add_holidays"`
	CustomDates []dates.Entry `json:"custom_dates,omitempty" yaml:"custom_dates,omitempty"`
}

// Fragment describes one source document. Data takes precedence over URL.
type Fragment struct {
	ID    string    `json:"id" yaml:"id"`
	Type  string    `json:"type" yaml:"type"`
	Index int       `json:"index" yaml:"index"`
	URL   string    `json:"url,omitempty" yaml:"url,omitempty"`
	Data  []byte    `json:"data,omitempty" yaml:"-"`
	Color ColorMode `json:"color,omitempty" yaml:"color,omitempty"`
	// Converter overrides the grayscale strategy for this fragment.
	Converter string `json:"converter,omitempty" yaml:"converter,omitempty"`
}

// Accounting holds page totals. BPages+CPages always equals PageCount.
type Accounting struct {
	PageCount     int `json:"pageCount"`
	FullPageCount int `json:"fullPageCount"`
	BPages        int `json:"bPages"`
	CPages        int `json:"cPages"`
}

func (a *Accounting) add(mode ColorMode, pages int) {
	if pages <= 0 {
		return
	}
	a.PageCount += pages
	if mode == Grayscale {
		a.BPages += pages
	} else {
		a.CPages += pages
	}
}

func (a *Accounting) addBlank(pages int) {
	a.add(Grayscale, pages)
}

// Result is the outcome of Assemble.
type Result struct {
	BuildID    string
	Bytes      []byte
	Accounting Accounting
}

// Options control a single Assemble call.
type Options struct {
	Preview     bool
	PageNumbers bool
	// Watermark is an image stamped translucently on every page.
	Watermark   []byte
	Compression pdfdoc.Compression
	// Converter is the default grayscale strategy.
	Converter string
}

// Settings are the engine's tunable business constants.
type Settings struct {
	// PlannerLeadIn moves the planner start back so the first spread shows
	// the week before the period begins.
	PlannerLeadIn time.Duration
	PreviewWeeks  int
	PreviewPages  int
	BleedMM       float64
}

// DefaultSettings returns the production defaults.
func DefaultSettings() Settings {
	return Settings{
		PlannerLeadIn: 7 * 24 * time.Hour,
		PreviewWeeks:  4,
		PreviewPages:  5,
		BleedMM:       3,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.PlannerLeadIn == 0 {
		s.PlannerLeadIn = d.PlannerLeadIn
	}
	if s.PreviewWeeks <= 0 {
		s.PreviewWeeks = d.PreviewWeeks
	}
	if s.PreviewPages <= 0 {
		s.PreviewPages = d.PreviewPages
	}
	if s.BleedMM == 0 {
		s.BleedMM = d.BleedMM
	}
	return s
}
