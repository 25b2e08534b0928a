package booklet

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackzampolin/booklet/internal/dates"
)

// PlannerPages is the page count of a weekly spread template.
const PlannerPages = 2

const week = 7 * 24 * time.Hour

// PlannerHandler repeats a two-page weekly template across the book's
// period, one filled spread per week.
type PlannerHandler struct {
	tagHandler
}

// NewPlannerHandler creates the planner handler.
func NewPlannerHandler(deps Deps) *PlannerHandler {
	var tags []TagDefinition
	for i := 0; i < 5; i++ {
		tags = append(tags, TagDefinition{
			Field:    "DAY_" + strconv.Itoa(i+1),
			Required: true,
			Value: func(tc *TagContext) string {
				return dates.FormatDayLabel(tc.Week.Days[i])
			},
		})
	}
	for i := 0; i < 5; i++ {
		tags = append(tags, TagDefinition{
			Field: "HOLIDAY_" + strconv.Itoa(i+1),
			Value: func(tc *TagContext) string {
				return tc.Dates[dates.Key(tc.Week.Days[i])]
			},
		})
	}
	return &PlannerHandler{tagHandler{deps: deps, moduleType: TypePlanner, tags: tags}}
}

// Window returns the first day and the number of weekly spreads for book.
// The period start is moved back by the configured lead-in; a missing end
// means one year after that start.
func (h *PlannerHandler) Window(book *BookDetails, preview bool) (time.Time, int, error) {
	if book.Period.Start.IsZero() {
		return time.Time{}, 0, ErrInvalidPeriod
	}
	start := dates.Truncate(book.Period.Start.Add(-h.deps.Settings.PlannerLeadIn))
	end := start.AddDate(1, 0, 0)
	if book.Period.End != nil {
		end = dates.Truncate(book.Period.End.Time)
	}

	span := end.Sub(start)
	if span < 0 {
		span = -span
	}
	totalWeeks := int(math.Ceil(float64(span) / float64(week)))
	weeks := totalWeeks + 1
	if preview {
		weeks = min(weeks, h.deps.Settings.PreviewWeeks)
	}
	return start, weeks, nil
}

// Process emits one spread per week, inserting an alignment blank before a
// spread whenever the output has an even page count so that every spread
// starts at an odd zero-based position.
func (h *PlannerHandler) Process(ctx context.Context, tc *TagContext, source []byte) (HandlerResult, error) {
	doc, err := h.deps.Toolkit.Open(source)
	if err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, err.Error(), ErrLoad)
	}
	if n := doc.PageCount(); n != PlannerPages {
		return HandlerResult{}, fragmentError(tc.Fragment, fmt.Sprintf("got %d pages", n), ErrPlannerPageCount)
	}
	if !h.Validate(doc) {
		return HandlerResult{}, fragmentError(tc.Fragment, "planner template", ErrMissingField)
	}
	start, weeks, err := h.Window(tc.Book, tc.Preview)
	if err != nil {
		return HandlerResult{}, fragmentError(tc.Fragment, "period start missing", err)
	}

	blank := A4.WithBleed(h.deps.Settings.BleedMM)
	var res HandlerResult
	for i := 0; i < weeks; i++ {
		if tc.Output.PageCount()%2 == 0 {
			if err := tc.Output.AddBlankPages(blank, 1); err != nil {
				return res, fragmentError(tc.Fragment, "add alignment page", err)
			}
			res.BlankPages++
			res.PagesAdded++
		}

		tc.Week = &WeekContext{Index: i, Days: dates.WeekDays(start.AddDate(0, 0, 7*i))}
		spread, err := h.deps.Toolkit.Open(source)
		if err != nil {
			return res, fragmentError(tc.Fragment, err.Error(), ErrLoad)
		}
		if err := h.fill(spread, tc); err != nil {
			return res, fragmentError(tc.Fragment, fmt.Sprintf("fill week %d", i+1), err)
		}
		if tc.Grayscale {
			if spread, err = h.convert(ctx, tc, spread); err != nil {
				return res, err
			}
		}
		if err := tc.Output.CopyPages(spread, 0, 1); err != nil {
			return res, fragmentError(tc.Fragment, fmt.Sprintf("copy week %d", i+1), err)
		}
		res.PagesAdded += PlannerPages
	}
	tc.Week = nil

	h.deps.Logger.Debug("planner spreads added",
		"fragment", tc.Fragment.ID,
		"weeks", weeks,
		"alignment_pages", res.BlankPages,
		"first_week", dates.Key(start))
	return res, nil
}

// CalculatePageCount approximates the planner length as two pages per
// week, ignoring alignment blanks.
func (h *PlannerHandler) CalculatePageCount(tc *TagContext, _ []byte) (int, error) {
	_, weeks, err := h.Window(tc.Book, tc.Preview)
	if err != nil {
		return 0, err
	}
	return weeks * PlannerPages, nil
}
