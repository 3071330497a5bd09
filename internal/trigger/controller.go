// ABOUTME: Precision trigger loop driven by remote time samples
// ABOUTME: Busy-spins on a time source and fires one action when the target is reached
package trigger

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/headerclock/internal/timesource"
)

// State of a trigger run.
type State int

const (
	StateWaiting State = iota
	StateFired
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateFired:
		return "fired"
	}
	return "unknown"
}

// Action is the side effect fired at the target instant.
type Action func()

// ErrAlreadyFired is returned when Run is called on a controller that has
// already fired.
var ErrAlreadyFired = errors.New("trigger already fired")

// Result describes a completed run.
type Result struct {
	RunID    uuid.UUID
	Target   time.Time
	Fired    timesource.Outcome // the sample that satisfied the target
	FiredAt  time.Time          // local wall clock after the action returned
	Attempts int
	Failures int
}

// Controller waits for one target instant on one source.
type Controller struct {
	source  timesource.Source
	invoker *timesource.Invoker
	action  Action
	state   State

	// OnSample, if set, sees every outcome in order, including the firing one.
	OnSample func(timesource.Outcome)
}

// NewController binds a source and an action. A nil invoker uses a zero Invoker.
func NewController(source timesource.Source, invoker *timesource.Invoker, action Action) *Controller {
	if invoker == nil {
		invoker = &timesource.Invoker{}
	}
	if action == nil {
		action = func() {}
	}
	return &Controller{
		source:  source,
		invoker: invoker,
		action:  action,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Run fetches samples back to back, with no delay and no backoff, until one
// is at or past target, then calls the action exactly once and returns.
// Failed fetches count as "not yet". There is no timeout; ctx is only
// checked between attempts so the process can exit cleanly.
func (c *Controller) Run(ctx context.Context, target time.Time) (Result, error) {
	if c.state == StateFired {
		return Result{}, ErrAlreadyFired
	}

	res := Result{
		RunID:  uuid.New(),
		Target: target.UTC(),
	}
	log.Printf("Trigger %s waiting for %s via %s", res.RunID, res.Target.Format(time.RFC3339), c.source.ID())

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out := c.invoker.Fetch(ctx, c.source)
		res.Attempts++
		if !out.OK {
			res.Failures++
		}
		if c.OnSample != nil {
			c.OnSample(out)
		}

		if instant, ok := out.Sample(); ok && !instant.Before(res.Target) {
			res.Fired = out
			break
		}
	}

	c.action()
	c.state = StateFired
	res.FiredAt = time.Now()

	log.Printf("Trigger %s fired on sample %s after %d attempts (%d failed)",
		res.RunID, res.Fired.Instant.Format(time.RFC3339), res.Attempts, res.Failures)
	return res, nil
}
