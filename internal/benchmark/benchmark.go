// ABOUTME: Latency and reliability comparison of time source strategies
// ABOUTME: Polls every registered strategy round-robin and aggregates per-strategy timings
package benchmark

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/harperreed/headerclock/internal/timesource"
)

const (
	// DefaultIterations is used when Compare is given a non-positive count.
	DefaultIterations = 10

	// minSentinel seeds the running minimum.
	minSentinel = 10 * time.Second
)

// Aggregate holds the running statistics for one strategy.
type Aggregate struct {
	Strategy   timesource.StrategyID
	Min        time.Duration
	Max        time.Duration
	Sum        time.Duration
	Successes  int
	Iterations int

	// SuccessSum covers successful attempts only.
	SuccessSum time.Duration
}

// Mean is Sum divided by the iteration count, failures included.
func (a Aggregate) Mean() time.Duration {
	if a.Iterations == 0 {
		return 0
	}
	return a.Sum / time.Duration(a.Iterations)
}

// SuccessMean is the mean duration of successful attempts.
func (a Aggregate) SuccessMean() time.Duration {
	if a.Successes == 0 {
		return 0
	}
	return a.SuccessSum / time.Duration(a.Successes)
}

func (a *Aggregate) add(elapsed time.Duration, ok bool) {
	if elapsed < a.Min {
		a.Min = elapsed
	}
	if elapsed > a.Max {
		a.Max = elapsed
	}
	a.Sum += elapsed
	if ok {
		a.Successes++
		a.SuccessSum += elapsed
	}
}

// Report is the result of one comparison run, in registration order.
type Report struct {
	Iterations int
	Aggregates []Aggregate
}

// Print writes one summary line per strategy.
func (r Report) Print(w io.Writer) {
	for _, a := range r.Aggregates {
		fmt.Fprintf(w, "%s: sum=%.6fs, avg=%.6fs, min=%.6fs, max=%.6fs, succ=%d/%d\n",
			a.Strategy,
			a.Sum.Seconds(),
			a.Mean().Seconds(),
			a.Min.Seconds(),
			a.Max.Seconds(),
			a.Successes,
			a.Iterations)
	}
}

// Fastest returns the most reliable strategy, breaking ties by the mean of
// successful attempts. Strategies that never succeeded are not considered.
func (r Report) Fastest() (Aggregate, bool) {
	var best Aggregate
	found := false
	for _, a := range r.Aggregates {
		if a.Successes == 0 {
			continue
		}
		if !found || better(a, best) {
			best = a
			found = true
		}
	}
	return best, found
}

// better reports whether a should be recommended over b. Every failed
// attempt is a missed sample in the trigger loop, so reliability wins first.
func better(a, b Aggregate) bool {
	if a.Successes != b.Successes {
		return a.Successes > b.Successes
	}
	return a.SuccessMean() < b.SuccessMean()
}

// Runner compares the strategies in a registry.
type Runner struct {
	registry *timesource.Registry
	invoker  *timesource.Invoker

	// Warmup rounds are executed before measuring and not aggregated.
	Warmup int
}

// NewRunner creates a runner. A nil invoker uses a zero Invoker.
func NewRunner(registry *timesource.Registry, invoker *timesource.Invoker) *Runner {
	if invoker == nil {
		invoker = &timesource.Invoker{}
	}
	return &Runner{
		registry: registry,
		invoker:  invoker,
	}
}

// Compare runs iterations rounds. Each round polls every strategy once in
// registration order, so no strategy is repeated back to back. A failed
// attempt is logged and counted but never stops the run.
func (r *Runner) Compare(ctx context.Context, iterations int) Report {
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	sources := r.registry.Sources()

	for i := 0; i < r.Warmup; i++ {
		for _, src := range sources {
			r.invoker.Fetch(ctx, src)
		}
	}

	aggs := make([]Aggregate, len(sources))
	for j, src := range sources {
		aggs[j] = Aggregate{
			Strategy:   src.ID(),
			Min:        minSentinel,
			Iterations: iterations,
		}
	}

	for i := 0; i < iterations; i++ {
		for j, src := range sources {
			out := r.invoker.Fetch(ctx, src)
			aggs[j].add(out.Elapsed(), out.OK)
			if !out.OK {
				log.Printf("[debug] %s failed on iter #%d", src.ID(), i)
			}
		}
	}

	return Report{Iterations: iterations, Aggregates: aggs}
}
