// Package metrics records one entry per assemble or estimate call and
// aggregates them for the /metrics endpoint.
package metrics

import (
	"errors"
	"time"

	"github.com/jackzampolin/booklet/internal/booklet"
)

// Metric is the record of a single build.
type Metric struct {
	BuildID string `json:"build_id"`
	Kind    string `json:"kind"` // "assemble" or "estimate"
	Preview bool   `json:"preview,omitempty"`

	// Input size
	Fragments int `json:"fragments"`

	// Accounting
	PageCount     int `json:"page_count"`
	FullPageCount int `json:"full_page_count"`
	BPages        int `json:"b_pages"`
	CPages        int `json:"c_pages"`

	// Timing
	DurationSeconds float64 `json:"duration_seconds"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
}

// FromReport converts an engine build report into a metric.
func FromReport(r booklet.BuildReport) Metric {
	return Metric{
		BuildID:         r.BuildID,
		Kind:            r.Kind,
		Preview:         r.Preview,
		Fragments:       r.Fragments,
		PageCount:       r.Accounting.PageCount,
		FullPageCount:   r.Accounting.FullPageCount,
		BPages:          r.Accounting.BPages,
		CPages:          r.Accounting.CPages,
		DurationSeconds: r.Duration.Seconds(),
		Success:         r.Err == nil,
		ErrorType:       ErrorType(r.Err),
		CreatedAt:       time.Now(),
	}
}

// ErrorType classifies a build error into a stable label.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, booklet.ErrCoverNotFound):
		return "cover_not_found"
	case errors.Is(err, booklet.ErrCoverPageCount):
		return "cover_page_count"
	case errors.Is(err, booklet.ErrPlannerPageCount):
		return "planner_page_count"
	case errors.Is(err, booklet.ErrMissingField):
		return "missing_field"
	case errors.Is(err, booklet.ErrConversion):
		return "conversion"
	case errors.Is(err, booklet.ErrLoad):
		return "load"
	case errors.Is(err, booklet.ErrInvalidPeriod):
		return "invalid_period"
	default:
		return "internal"
	}
}
