// ABOUTME: In-memory Prometheus metrics for time source fetches
// ABOUTME: Records per-strategy latency and outcome counts and summarizes them
package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/harperreed/headerclock/internal/timesource"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	fetchTotalName   = "headerclock_fetch_total"
	fetchLatencyName = "headerclock_fetch_duration_seconds"
	outcomeSample    = "sample"
)

// Recorder implements timesource.Observer on a private registry; nothing
// is exposed over the network.
type Recorder struct {
	registry *prometheus.Registry
	fetches  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: fetchTotalName,
		Help: "Fetch attempts by strategy and outcome (sample or fault category).",
	}, []string{"strategy", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    fetchLatencyName,
		Help:    "Wall-clock duration of fetch attempts, failures included.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"strategy"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(fetches, latency)

	return &Recorder{
		registry: reg,
		fetches:  fetches,
		latency:  latency,
	}
}

// ObserveFetch implements timesource.Observer.
func (r *Recorder) ObserveFetch(o timesource.Outcome) {
	outcome := outcomeSample
	if !o.OK {
		outcome = string(o.Fault)
	}
	strategy := string(o.Strategy)
	r.fetches.WithLabelValues(strategy, outcome).Inc()
	r.latency.WithLabelValues(strategy).Observe(o.Elapsed().Seconds())
}

// Count is the number of attempts with one strategy/outcome pair.
type Count struct {
	Strategy string
	Outcome  string
	Value    float64
}

// Counts gathers the outcome counters, sorted by strategy then outcome.
func (r *Recorder) Counts() ([]Count, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var counts []Count
	for _, mf := range families {
		if mf.GetName() != fetchTotalName {
			continue
		}
		for _, m := range mf.GetMetric() {
			c := Count{Value: m.GetCounter().GetValue()}
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "strategy":
					c.Strategy = lp.GetValue()
				case "outcome":
					c.Outcome = lp.GetValue()
				}
			}
			counts = append(counts, c)
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Strategy != counts[j].Strategy {
			return counts[i].Strategy < counts[j].Strategy
		}
		return counts[i].Outcome < counts[j].Outcome
	})
	return counts, nil
}

// WriteSummary prints one line per strategy/outcome pair.
func (r *Recorder) WriteSummary(w io.Writer) error {
	counts, err := r.Counts()
	if err != nil {
		return err
	}
	for _, c := range counts {
		fmt.Fprintf(w, "%s %s=%.0f\n", c.Strategy, c.Outcome, c.Value)
	}
	return nil
}
