package metrics

import (
	"sync"
	"time"

	"github.com/jackzampolin/booklet/internal/booklet"
)

// DefaultCapacity bounds the number of metrics kept in memory.
const DefaultCapacity = 1000

// Recorder keeps the most recent build metrics in memory. It implements
// booklet.Observer.
type Recorder struct {
	mu       sync.RWMutex
	metrics  []Metric
	capacity int
	total    int
}

// NewRecorder creates a recorder that keeps at most capacity metrics.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity}
}

// BuildFinished records the report of a finished build.
func (r *Recorder) BuildFinished(report booklet.BuildReport) {
	r.Record(FromReport(report))
}

// Record stores a single metric, evicting the oldest when full.
func (r *Recorder) Record(m Metric) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.metrics) == r.capacity {
		copy(r.metrics, r.metrics[1:])
		r.metrics = r.metrics[:len(r.metrics)-1]
	}
	r.metrics = append(r.metrics, m)
	r.total++
}

// Total returns the number of metrics ever recorded, including evicted ones.
func (r *Recorder) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Filter specifies query filters.
type Filter struct {
	Kind    string
	After   time.Time
	Before  time.Time
	Success *bool // nil = any, true = success only, false = errors only
}

func (f Filter) match(m Metric) bool {
	if f.Kind != "" && m.Kind != f.Kind {
		return false
	}
	if !f.After.IsZero() && !m.CreatedAt.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !m.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}

// List returns matching metrics, newest first. A limit of 0 returns all.
func (r *Recorder) List(f Filter, limit int) []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Metric
	for i := len(r.metrics) - 1; i >= 0; i-- {
		if !f.match(r.metrics[i]) {
			continue
		}
		out = append(out, r.metrics[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
