// ABOUTME: Ordered registry of time sources keyed by strategy
// ABOUTME: Registration is idempotent per strategy and preserves insertion order
package timesource

// Registry holds at most one source per StrategyID. It does not own the
// sources; closing them is the caller's job.
type Registry struct {
	order []Source
	index map[StrategyID]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[StrategyID]struct{})}
}

// Register adds src unless its strategy is already present. It reports
// whether src was added.
func (r *Registry) Register(src Source) bool {
	if r.index == nil {
		r.index = make(map[StrategyID]struct{})
	}
	if _, ok := r.index[src.ID()]; ok {
		return false
	}
	r.index[src.ID()] = struct{}{}
	r.order = append(r.order, src)
	return true
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	return len(r.order)
}
