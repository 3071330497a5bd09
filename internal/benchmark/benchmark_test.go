// ABOUTME: Tests for the strategy comparison harness
// ABOUTME: Uses a fake clock so per-attempt durations are exact
package benchmark

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/headerclock/internal/timesource"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// stubSource takes a fixed amount of fake time per fetch.
type stubSource struct {
	id    timesource.StrategyID
	clock *fakeClock
	cost  time.Duration
	fail  bool
	calls *[]timesource.StrategyID
}

func (s *stubSource) ID() timesource.StrategyID { return s.id }

func (s *stubSource) FetchRaw(ctx context.Context) (string, error) {
	s.clock.advance(s.cost)
	if s.calls != nil {
		*s.calls = append(*s.calls, s.id)
	}
	if s.fail {
		return "", errors.New("connection refused")
	}
	return "Thu, 10 Feb 2022 23:30:00 GMT", nil
}

func newFixture(calls *[]timesource.StrategyID) (*timesource.Registry, *timesource.Invoker) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := timesource.NewRegistry()
	reg.Register(&stubSource{id: "steady", clock: clock, cost: 25 * time.Millisecond, calls: calls})
	reg.Register(&stubSource{id: "broken", clock: clock, cost: 5 * time.Millisecond, fail: true, calls: calls})

	inv := &timesource.Invoker{Now: clock.Now, Logger: log.New(io.Discard, "", 0)}
	return reg, inv
}

func TestCompareAggregates(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	reg, inv := newFixture(nil)
	report := NewRunner(reg, inv).Compare(context.Background(), 3)

	if report.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", report.Iterations)
	}
	if len(report.Aggregates) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(report.Aggregates))
	}

	steady := report.Aggregates[0]
	if steady.Strategy != "steady" {
		t.Errorf("expected steady first, got %s", steady.Strategy)
	}
	if steady.Successes != 3 {
		t.Errorf("expected 3 successes, got %d", steady.Successes)
	}
	if steady.Min != 25*time.Millisecond || steady.Max != 25*time.Millisecond {
		t.Errorf("expected min=max=25ms, got min=%v max=%v", steady.Min, steady.Max)
	}
	if steady.Sum != 75*time.Millisecond {
		t.Errorf("expected sum 75ms, got %v", steady.Sum)
	}
	if steady.Mean() != 25*time.Millisecond {
		t.Errorf("expected mean 25ms, got %v", steady.Mean())
	}

	broken := report.Aggregates[1]
	if broken.Successes != 0 {
		t.Errorf("expected 0 successes, got %d", broken.Successes)
	}
	if broken.Sum != 15*time.Millisecond {
		t.Errorf("failed attempts should still be timed: expected sum 15ms, got %v", broken.Sum)
	}
	if broken.SuccessSum != 0 || steady.SuccessSum != 75*time.Millisecond {
		t.Errorf("success sums must exclude failures: steady=%v broken=%v", steady.SuccessSum, broken.SuccessSum)
	}
}

func TestCompareRoundRobin(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	var calls []timesource.StrategyID
	reg, inv := newFixture(&calls)
	NewRunner(reg, inv).Compare(context.Background(), 3)

	want := []timesource.StrategyID{"steady", "broken", "steady", "broken", "steady", "broken"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
}

func TestCompareLogsFailedIterations(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	reg, inv := newFixture(nil)
	NewRunner(reg, inv).Compare(context.Background(), 2)

	out := buf.String()
	for _, want := range []string{"broken failed on iter #0", "broken failed on iter #1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got %q", want, out)
		}
	}
	if strings.Contains(out, "steady failed") {
		t.Error("steady strategy should not be reported as failed")
	}
}

func TestCompareDefaultIterations(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	reg, inv := newFixture(nil)
	report := NewRunner(reg, inv).Compare(context.Background(), 0)
	if report.Iterations != DefaultIterations {
		t.Errorf("expected %d iterations, got %d", DefaultIterations, report.Iterations)
	}
	if report.Aggregates[0].Successes != DefaultIterations {
		t.Errorf("expected %d successes, got %d", DefaultIterations, report.Aggregates[0].Successes)
	}
}

func TestCompareWarmupExcluded(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	var calls []timesource.StrategyID
	reg, inv := newFixture(&calls)
	runner := NewRunner(reg, inv)
	runner.Warmup = 2
	report := runner.Compare(context.Background(), 3)

	if len(calls) != 10 {
		t.Errorf("expected 10 calls including warmup, got %d", len(calls))
	}
	if report.Aggregates[0].Successes != 3 {
		t.Errorf("warmup should not count: expected 3 successes, got %d", report.Aggregates[0].Successes)
	}
}

func TestDuplicateRegistrationNotReported(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	reg, inv := newFixture(nil)
	clock := &fakeClock{}
	if reg.Register(&stubSource{id: "steady", clock: clock}) {
		t.Fatal("expected duplicate registration to be rejected")
	}

	report := NewRunner(reg, inv).Compare(context.Background(), 1)
	seen := 0
	for _, a := range report.Aggregates {
		if a.Strategy == "steady" {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("expected steady once in the report, got %d", seen)
	}
}

func TestReportPrintAndFastest(t *testing.T) {
	report := Report{
		Iterations: 2,
		Aggregates: []Aggregate{
			{Strategy: "slow", Min: 100 * time.Millisecond, Max: 300 * time.Millisecond, Sum: 400 * time.Millisecond, Successes: 2, Iterations: 2, SuccessSum: 400 * time.Millisecond},
			{Strategy: "dead", Min: time.Millisecond, Max: time.Millisecond, Sum: 2 * time.Millisecond, Successes: 0, Iterations: 2},
			{Strategy: "quick", Min: 10 * time.Millisecond, Max: 30 * time.Millisecond, Sum: 40 * time.Millisecond, Successes: 1, Iterations: 2, SuccessSum: 30 * time.Millisecond},
		},
	}

	var buf bytes.Buffer
	report.Print(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "slow: sum=0.400000s, avg=0.200000s, min=0.100000s, max=0.300000s, succ=2/2" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "dead:") || !strings.HasPrefix(lines[2], "quick:") {
		t.Error("report must keep registration order")
	}

	best, ok := report.Fastest()
	if !ok {
		t.Fatal("expected a fastest strategy")
	}
	if best.Strategy != "slow" {
		t.Errorf("expected the fully reliable strategy to win, got %s", best.Strategy)
	}
}

func TestFastestPrefersReliabilityOverCheapFailures(t *testing.T) {
	report := Report{
		Iterations: 10,
		Aggregates: []Aggregate{
			{Strategy: "flaky", Sum: 109 * time.Millisecond, Successes: 1, Iterations: 10, SuccessSum: 100 * time.Millisecond},
			{Strategy: "reliable", Sum: 500 * time.Millisecond, Successes: 10, Iterations: 10, SuccessSum: 500 * time.Millisecond},
		},
	}

	best, ok := report.Fastest()
	if !ok {
		t.Fatal("expected a fastest strategy")
	}
	if best.Strategy != "reliable" {
		t.Errorf("expected reliable, got %s", best.Strategy)
	}
}

func TestFastestTieBreaksOnSuccessfulMean(t *testing.T) {
	report := Report{
		Iterations: 4,
		Aggregates: []Aggregate{
			// Cheap failures would lower a, but both succeed equally often.
			{Strategy: "a", Sum: 210 * time.Millisecond, Successes: 3, Iterations: 4, SuccessSum: 180 * time.Millisecond},
			{Strategy: "b", Sum: 160 * time.Millisecond, Successes: 3, Iterations: 4, SuccessSum: 150 * time.Millisecond},
		},
	}

	best, _ := report.Fastest()
	if best.Strategy != "b" {
		t.Errorf("expected b (50ms per sample), got %s", best.Strategy)
	}
	if best.SuccessMean() != 50*time.Millisecond {
		t.Errorf("expected 50ms success mean, got %v", best.SuccessMean())
	}
}

func TestFastestNoneSucceeded(t *testing.T) {
	report := Report{Aggregates: []Aggregate{{Strategy: "dead", Iterations: 3}}}
	if _, ok := report.Fastest(); ok {
		t.Error("expected no recommendation when nothing succeeded")
	}
}
