// ABOUTME: Failure-suppressing wrapper around remote time sources
// ABOUTME: Converts every error or panic from a fetch into a no-sample outcome
package timesource

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Observer is told about every attempt made through an Invoker.
type Observer interface {
	ObserveFetch(o Outcome)
}

// Invoker runs fetches and guarantees that nothing escapes to the caller.
// The zero value is ready to use.
type Invoker struct {
	Observer Observer
	Now      func() time.Time
	Logger   *log.Logger // nil uses the standard logger
}

// Fetch asks src for one sample. Any error or panic inside the source or
// the parser becomes a no-sample Outcome with a diagnostic log line.
func (inv *Invoker) Fetch(ctx context.Context, src Source) (out Outcome) {
	out.Started = inv.now()

	defer func() {
		if r := recover(); r != nil {
			out = inv.fail(out, FaultPanic, fmt.Errorf("panic: %v", r))
		}
		inv.observe(out)
	}()

	out.Strategy = src.ID()

	raw, err := src.FetchRaw(ctx)
	if err != nil {
		return inv.fail(out, Classify(err), err)
	}

	instant, err := ParseHeader(raw)
	if err != nil {
		return inv.fail(out, FaultParse, err)
	}

	out.Finished = inv.now()
	out.OK = true
	out.Instant = instant
	return out
}

func (inv *Invoker) fail(out Outcome, fault Fault, err error) Outcome {
	out.Finished = inv.now()
	out.OK = false
	out.Instant = time.Time{}
	out.Fault = fault
	out.Err = err
	inv.logf("[debug] %s failed: %s: %v", out.Strategy, fault, err)
	return out
}

func (inv *Invoker) observe(out Outcome) {
	if inv.Observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			inv.logf("[debug] %s observer panic: %v", out.Strategy, r)
		}
	}()
	inv.Observer.ObserveFetch(out)
}

func (inv *Invoker) now() time.Time {
	if inv.Now != nil {
		return inv.Now()
	}
	return time.Now()
}

func (inv *Invoker) logf(format string, args ...interface{}) {
	if inv.Logger != nil {
		inv.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// FetchInstant is a convenience wrapper using a zero Invoker.
func FetchInstant(ctx context.Context, src Source) Outcome {
	var inv Invoker
	return inv.Fetch(ctx, src)
}
