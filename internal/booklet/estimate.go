package booklet

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Estimate computes the accounting of a full build without assembling it.
// colorMap overrides the colour mode per fragment ID. Spread handlers are
// counted from their approximation plus simulated alignment blanks and are
// never fetched; content sources are loaded only to read their page count.
func (e *Engine) Estimate(ctx context.Context, book BookDetails, fragments []Fragment, colorMap map[string]ColorMode) (acct Accounting, err error) {
	id := uuid.NewString()
	logger := e.logger.With("build_id", id)
	started := time.Now()
	defer func() {
		e.report(BuildReport{
			BuildID:    id,
			Kind:       "estimate",
			Fragments:  len(fragments),
			Accounting: acct,
			Duration:   time.Since(started),
			Err:        err,
		})
	}()

	cover, rest, err := splitFragments(fragments)
	if err != nil {
		return Accounting{}, err
	}
	mode := func(f Fragment) ColorMode {
		if m, ok := colorMap[f.ID]; ok {
			return m
		}
		return f.Color
	}

	var t tally
	t.add(mode(cover), CoverPages-backCoverPages)

	for _, f := range rest {
		tc := e.tagContext(&book, f, Options{})
		h := e.registry.Resolve(f.Type)

		if sp, ok := h.(SpreadPlanner); ok {
			n, err := sp.CalculatePageCount(tc, nil)
			if err != nil {
				return Accounting{}, fragmentError(f, "planner window", err)
			}
			t.spreads(mode(f), n/PlannerPages)
			continue
		}

		source := e.source(ctx, logger.With("fragment", f.ID), f)
		var n int
		if pc, ok := h.(PageCounter); ok {
			n, err = pc.CalculatePageCount(tc, source)
		} else {
			var doc Document
			if doc, err = e.toolkit.Open(source); err == nil {
				n = doc.PageCount()
			}
		}
		if err != nil {
			logger.Warn("cannot count fragment pages, assuming one", "fragment", f.ID, "error", err)
			n, err = 1, nil
		}
		t.add(mode(f), n)
	}

	t.finalize(mode(cover))
	acct = t.Accounting
	acct.FullPageCount = acct.PageCount

	logger.Debug("estimate computed",
		"pages", acct.PageCount,
		"b_pages", acct.BPages,
		"c_pages", acct.CPages)
	return acct, nil
}
