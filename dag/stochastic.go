package dag

import "github.com/evobayes/phylocore/rng"

// Stochastic is a TypedDagNode[V] whose value is an MCMC sample drawn from
// a Distribution[V].
type Stochastic[V any] struct {
	base

	dist  Distribution[V]
	value V

	// priorOnly, when set, tells callers evaluating the joint density to
	// skip this node's likelihood contribution and only count its prior
	// (mirrors RevBayes's TypedDagNode.h priorOnly flag). It is never read
	// by this package's own invariants.
	priorOnly bool

	snapshot     V
	snapshotKept bool
}

// NewStochastic creates a stochastic node named name, owned by dist, wired
// to dist's current parents, and initialized by drawing from dist.
func NewStochastic[V any](name string, dist Distribution[V], src rng.Source) *Stochastic[V] {
	s := &Stochastic[V]{
		base:  newBase(name),
		dist:  dist,
		value: dist.Simulate(src),
	}
	for _, p := range dist.Parents() {
		_ = addParentEdge(s, p)
	}
	return s
}

// Value returns the node's current sample.
func (s *Stochastic[V]) Value() V { return s.value }

// SetValue installs v as the node's value. When touch is true, the node
// (and its descendants) are marked dirty first, the way a proposal's
// mutation does.
func (s *Stochastic[V]) SetValue(v V, touch bool) {
	if touch {
		s.Touch(s)
	}
	s.value = v
	s.valueChanged = true
}

// GetLnProbability returns the node's log-density under its current
// distribution and value.
func (s *Stochastic[V]) GetLnProbability() float64 {
	return s.dist.LogDensity(s.value)
}

// Redraw replaces the node's value with a fresh simulation from its
// distribution, touching the node first.
func (s *Stochastic[V]) Redraw(src rng.Source) {
	s.Touch(s)
	s.value = s.dist.Simulate(src)
	s.valueChanged = true
}

// PriorOnly reports whether this node's likelihood contribution should be
// skipped when the joint density is evaluated.
func (s *Stochastic[V]) PriorOnly() bool { return s.priorOnly }

// SetPriorOnly sets the prior-only flag (see the field comment).
func (s *Stochastic[V]) SetPriorOnly(v bool) { s.priorOnly = v }

// Distribution returns the node's owning distribution.
func (s *Stochastic[V]) Distribution() Distribution[V] { return s.dist }

// SwapParameter rebinds whichever parameter of the underlying distribution
// equals old to new, and rewires the corresponding parent edge on this
// node. A bare Distribution.SwapParameter only updates the distribution's
// own pointer; edge rewiring on the containing DagNode is this method's
// job, done once here so every concrete distribution doesn't have to
// repeat it.
func (s *Stochastic[V]) SwapParameter(old, new DagNode) error {
	if old == nil || new == nil {
		return ErrNilParameter
	}
	if err := s.dist.SwapParameter(old, new); err != nil {
		return err
	}
	removeParentEdge(s, old)
	_ = addParentEdge(s, new)
	return nil
}

// Touch implements DagNode.
func (s *Stochastic[V]) Touch(affecter DagNode) {
	if s.touched {
		return
	}
	s.touched = true
	s.snapshot = s.value
	s.snapshotKept = true
	for _, c := range s.Children() {
		c.Touch(s)
	}
}

// Keep implements DagNode.
func (s *Stochastic[V]) Keep(affecter DagNode) {
	if !s.touched {
		return
	}
	s.touched = false
	s.valueChanged = false
	s.snapshotKept = false
	for _, c := range s.Children() {
		c.Keep(s)
	}
}

// Restore implements DagNode.
func (s *Stochastic[V]) Restore(affecter DagNode) {
	if !s.touched {
		return
	}
	if s.snapshotKept {
		s.value = s.snapshot
		s.snapshotKept = false
	}
	s.touched = false
	s.valueChanged = false
	for _, c := range s.Children() {
		c.Restore(s)
	}
}
