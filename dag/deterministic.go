package dag

// Deterministic is a TypedDagNode[V] whose value is recomputed on demand
// from a Function[V] whenever any parent is touched.
type Deterministic[V any] struct {
	base

	fn    Function[V]
	value V
	dirty bool

	snapshot     V
	snapshotKept bool
}

// NewDeterministic creates a deterministic node named name, owned by fn,
// wired to fn's current parents, and evaluated once to seed its value.
func NewDeterministic[V any](name string, fn Function[V]) *Deterministic[V] {
	d := &Deterministic[V]{
		base:  newBase(name),
		fn:    fn,
		value: fn.Evaluate(),
	}
	for _, p := range fn.Parents() {
		_ = addParentEdge(d, p)
	}
	return d
}

// Value returns the node's current value, recomputing it first if dirty.
func (d *Deterministic[V]) Value() V {
	if d.dirty {
		d.value = d.fn.Evaluate()
		d.dirty = false
	}
	return d.value
}

// SetValue overrides the computed value directly. This is only meaningful
// for clamped deterministic nodes used in testing; touch is honored the
// same as Stochastic.SetValue.
func (d *Deterministic[V]) SetValue(v V, touch bool) {
	if touch {
		d.Touch(d)
	}
	d.value = v
	d.dirty = false
	d.valueChanged = true
}

// Function returns the node's owning function.
func (d *Deterministic[V]) Function() Function[V] { return d.fn }

// SwapParameter rebinds whichever argument of the underlying function
// equals old to new, and rewires the corresponding parent edge.
func (d *Deterministic[V]) SwapParameter(old, new DagNode) error {
	if old == nil || new == nil {
		return ErrNilParameter
	}
	if err := d.fn.SwapParameter(old, new); err != nil {
		return err
	}
	removeParentEdge(d, old)
	_ = addParentEdge(d, new)
	d.dirty = true
	return nil
}

// Touch implements DagNode.
func (d *Deterministic[V]) Touch(affecter DagNode) {
	if d.touched {
		return
	}
	d.touched = true
	d.dirty = true
	d.snapshot = d.value
	d.snapshotKept = true
	for _, c := range d.Children() {
		c.Touch(d)
	}
}

// Keep implements DagNode.
func (d *Deterministic[V]) Keep(affecter DagNode) {
	if !d.touched {
		return
	}
	d.touched = false
	d.valueChanged = false
	d.snapshotKept = false
	for _, c := range d.Children() {
		c.Keep(d)
	}
}

// Restore implements DagNode.
func (d *Deterministic[V]) Restore(affecter DagNode) {
	if !d.touched {
		return
	}
	if d.snapshotKept {
		d.value = d.snapshot
		d.snapshotKept = false
	}
	d.dirty = false
	d.touched = false
	d.valueChanged = false
	for _, c := range d.Children() {
		c.Restore(d)
	}
}
