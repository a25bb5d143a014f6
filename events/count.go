package events

import "github.com/evobayes/phylocore/dag"

// EventCount is a deterministic dag.Function[int64] that reads the number
// of events currently held by a stochastic OrderedEventTimes node, mirroring
// the original's getNumberOfEvents accessor kept separate from the
// logP/simulate pair (see DESIGN.md).
type EventCount struct {
	parent *dag.Stochastic[*OrderedEventTimes]
}

// NewEventCount wraps parent.
func NewEventCount(parent *dag.Stochastic[*OrderedEventTimes]) *EventCount {
	return &EventCount{parent: parent}
}

// Evaluate returns the current event count as an int64.
func (c *EventCount) Evaluate() int64 { return int64(c.parent.Value().Size()) }

// Parents returns the wrapped node.
func (c *EventCount) Parents() []dag.DagNode { return []dag.DagNode{c.parent} }

// SwapParameter rebinds the wrapped node.
func (c *EventCount) SwapParameter(old, new dag.DagNode) error {
	if c.parent.Name() != old.Name() {
		return dag.ErrParameterNotFound
	}
	np, ok := new.(*dag.Stochastic[*OrderedEventTimes])
	if !ok {
		return dag.ErrParameterNotFound
	}
	c.parent = np
	return nil
}
