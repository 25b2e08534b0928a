package metrics

import "sort"

// Summary aggregates the metrics matching a filter.
type Summary struct {
	// Basic counts
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	// Pages produced by successful builds
	TotalPages  int `json:"total_pages"`
	TotalBPages int `json:"total_b_pages"`
	TotalCPages int `json:"total_c_pages"`

	// Latency percentiles (seconds)
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyAvg float64 `json:"latency_avg"`
	LatencyMax float64 `json:"latency_max"`

	// Failures by error type
	Errors map[string]int `json:"errors,omitempty"`
}

// Summary returns aggregate statistics for metrics matching the filter.
func (r *Recorder) Summary(f Filter) *Summary {
	return summarize(r.List(f, 0))
}

// ByKind returns a summary per build kind.
func (r *Recorder) ByKind(f Filter) map[string]*Summary {
	byKind := make(map[string][]Metric)
	for _, m := range r.List(f, 0) {
		byKind[m.Kind] = append(byKind[m.Kind], m)
	}
	result := make(map[string]*Summary, len(byKind))
	for kind, metrics := range byKind {
		result[kind] = summarize(metrics)
	}
	return result
}

func summarize(metrics []Metric) *Summary {
	s := &Summary{Count: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	latencies := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		if m.Success {
			s.SuccessCount++
			s.TotalPages += m.PageCount
			s.TotalBPages += m.BPages
			s.TotalCPages += m.CPages
		} else {
			s.ErrorCount++
			if s.Errors == nil {
				s.Errors = make(map[string]int)
			}
			s.Errors[m.ErrorType]++
		}
		latencies = append(latencies, m.DurationSeconds)
	}

	sort.Float64s(latencies)
	var sum float64
	for _, l := range latencies {
		sum += l
	}
	s.LatencyAvg = sum / float64(len(latencies))
	s.LatencyMax = latencies[len(latencies)-1]
	s.LatencyP50 = percentile(latencies, 50)
	s.LatencyP95 = percentile(latencies, 95)
	return s
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// Calculate the index
	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)

	// Interpolate between floor and ceil indices
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
