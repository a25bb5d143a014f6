package dag

import "github.com/evobayes/phylocore/rng"

// A TypedDagNode carries a value of semantic type V alongside the untyped
// DagNode contract. Supported V in this module: int64 (integer scalar),
// float64 (real scalar), []float64 (real vector / simplex), *tree.Tree,
// ratematrix.RateGenerator, and *chardata.Matrix.
type TypedDagNode[V any] interface {
	DagNode

	// Value returns the node's current sample.
	Value() V

	// SetValue replaces the node's value. When touch is true (the
	// default for an externally driven assignment) the node is touched
	// before the new value is installed, the way a proposal mutates a
	// stochastic node's value.
	SetValue(v V, touch bool)
}

// A Distribution parameterizes a stochastic node of value type V: it
// supplies the log-density of a value, a simulator, and the parameter-swap
// operation moves use when rewiring the graph.
type Distribution[V any] interface {
	// LogDensity returns log P(v | parameters). Values outside the
	// distribution's support return math.Inf(-1), never an error: domain
	// conditions are values, not failures.
	LogDensity(v V) float64

	// Simulate draws a value from the distribution.
	Simulate(src rng.Source) V

	// Parents returns the distribution's current parameter nodes, used
	// by the owning Stochastic node to wire parent edges at construction.
	Parents() []DagNode

	// SwapParameter rebinds whichever internal parameter pointer equals
	// old to new, after a runtime type match. It does not touch graph
	// edges; the caller (the owning Stochastic node) is responsible for
	// that.
	SwapParameter(old, new DagNode) error
}

// A Function computes the value of a deterministic node of value type V
// from its parent nodes.
type Function[V any] interface {
	// Evaluate recomputes the value from the function's current parents.
	Evaluate() V

	// Parents returns the function's current argument nodes.
	Parents() []DagNode

	// SwapParameter rebinds whichever internal argument pointer equals
	// old to new, after a runtime type match.
	SwapParameter(old, new DagNode) error
}
