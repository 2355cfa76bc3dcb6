// Package perf records per-operation latency for the tool orchestration
// layer and computes summary statistics on demand.
package perf

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Well-known operation labels.
const (
	// LabelVoiceInteraction tags end-to-end perceived latency of one
	// voice interaction, from intent received to result acknowledged.
	LabelVoiceInteraction = "voice_interaction"
)

// under500msTarget is the perceived-latency budget for voice interactions.
const under500msTarget = 500 * time.Millisecond

// percentileSampleFloor is the minimum sample count for a nearest-rank
// p95. Below it the maximum is reported instead, a documented
// approximation for low sample counts.
const percentileSampleFloor = 6

// Record is one timed operation. Records are append-only and never
// mutated after insertion.
type Record struct {
	Label      string    `json:"operation"`
	DurationMs float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Summary aggregates the records of one label.
type Summary struct {
	Count    int     `json:"count"`
	MeanMs   float64 `json:"mean_ms"`
	MedianMs float64 `json:"median_ms"`
	P95Ms    float64 `json:"p95_ms"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// Tracker is the process-wide latency log. It is constructed explicitly
// and passed by reference; there is no package-level singleton. Appends
// are safe under concurrent writers from multiple sessions.
type Tracker struct {
	mu      sync.Mutex
	records map[string][]Record

	hist *prometheus.HistogramVec
}

// NewTracker creates a tracker. If reg is non-nil, dispatch durations
// are also observed in a Prometheus histogram registered there.
func NewTracker(reg prometheus.Registerer) *Tracker {
	t := &Tracker{
		records: make(map[string][]Record),
	}
	if reg != nil {
		t.hist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "formfiller",
			Name:      "operation_duration_seconds",
			Help:      "Duration of tool dispatches and interactions.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"})
		reg.MustRegister(t.hist)
	}
	return t
}

// Record appends one latency record under the given label.
func (t *Tracker) Record(label string, d time.Duration) {
	rec := Record{
		Label:      label,
		DurationMs: float64(d) / float64(time.Millisecond),
		Timestamp:  time.Now(),
	}

	t.mu.Lock()
	t.records[label] = append(t.records[label], rec)
	t.mu.Unlock()

	if t.hist != nil {
		t.hist.WithLabelValues(label).Observe(d.Seconds())
	}
}

// Summarize computes a Summary per label from the full record log.
func (t *Tracker) Summarize() map[string]Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Summary, len(t.records))
	for label, recs := range t.records {
		out[label] = summarize(recs)
	}
	return out
}

// SummarizeLabel computes the Summary for one label.
// The second return is false when no records exist for it.
func (t *Tracker) SummarizeLabel(label string) (Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recs, ok := t.records[label]
	if !ok || len(recs) == 0 {
		return Summary{}, false
	}
	return summarize(recs), true
}

// Under500ms returns the fraction of records under 500ms for a label.
// The second return is false when the label has no records.
func (t *Tracker) Under500ms(label string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recs := t.records[label]
	if len(recs) == 0 {
		return 0, false
	}
	target := float64(under500msTarget) / float64(time.Millisecond)
	under := 0
	for _, r := range recs {
		if r.DurationMs < target {
			under++
		}
	}
	return float64(under) / float64(len(recs)), true
}

// Records returns a copy of the record log for one label.
func (t *Tracker) Records(label string) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Record(nil), t.records[label]...)
}

// snapshot copies the whole log. Used by Export.
func (t *Tracker) snapshot() map[string][]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]Record, len(t.records))
	for label, recs := range t.records {
		out[label] = append([]Record(nil), recs...)
	}
	return out
}

func summarize(recs []Record) Summary {
	durations := make([]float64, len(recs))
	var sum float64
	for i, r := range recs {
		durations[i] = r.DurationMs
		sum += r.DurationMs
	}
	sort.Float64s(durations)

	n := len(durations)
	s := Summary{
		Count:  n,
		MeanMs: sum / float64(n),
		MinMs:  durations[0],
		MaxMs:  durations[n-1],
	}

	if n%2 == 1 {
		s.MedianMs = durations[n/2]
	} else {
		s.MedianMs = (durations[n/2-1] + durations[n/2]) / 2
	}

	if n < percentileSampleFloor {
		s.P95Ms = s.MaxMs
	} else {
		// Nearest-rank: ceil(0.95 * n), 1-based.
		rank := (n*95 + 99) / 100
		s.P95Ms = durations[rank-1]
	}
	return s
}
