package events

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/evobayes/phylocore/dag"
	"github.com/evobayes/phylocore/rng"
)

// MarkovTimes is a homogeneous Poisson point process: a marked Poisson
// process with rate Lambda on (0, Age], whose value is an
// *OrderedEventTimes. It satisfies dag.Distribution[*OrderedEventTimes].
//
// Lambda and Age are themselves stochastic nodes, the way js-arias-phygeo's
// own parametric distributions (cats/cats.go) hold their shape parameters
// as *dag.Stochastic[float64] rather than bare floats, so a rate or age
// hyperparameter can be estimated jointly.
type MarkovTimes struct {
	Lambda *dag.Stochastic[float64]
	age    *dag.Stochastic[float64]
}

// NewMarkovTimes builds a MarkovTimes distribution parameterized by rate
// and age nodes.
func NewMarkovTimes(rate, age *dag.Stochastic[float64]) *MarkovTimes {
	return &MarkovTimes{Lambda: rate, age: age}
}

// Parents returns (Lambda, Age) so the owning Stochastic node wires both
// as parent edges.
func (m *MarkovTimes) Parents() []dag.DagNode {
	return []dag.DagNode{m.Lambda, m.age}
}

// SwapParameter rebinds whichever of Lambda/Age equals old.
func (m *MarkovTimes) SwapParameter(old, new dag.DagNode) error {
	np, ok := new.(*dag.Stochastic[float64])
	if !ok {
		return dag.ErrParameterNotFound
	}
	switch old.Name() {
	case m.Lambda.Name():
		m.Lambda = np
	case m.age.Name():
		m.age = np
	default:
		return dag.ErrParameterNotFound
	}
	return nil
}

// LogDensity returns log Poisson(n; λ·A) for a configuration of n ordered
// times, or -Inf if any time falls outside (0, Age] or Age mismatches v's
// own Age: a domain violation is a value, not an error.
func (m *MarkovTimes) LogDensity(v *OrderedEventTimes) float64 {
	a := m.age.Value()
	if v.Age() != a {
		return math.Inf(-1)
	}
	for _, t := range v.Times() {
		if t <= 0 || t > a {
			return math.Inf(-1)
		}
	}
	lambda := m.Lambda.Value()
	if lambda*a == 0 {
		// Poisson(0) puts all its mass on n = 0.
		if v.Size() == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	pois := distuv.Poisson{Lambda: lambda * a}
	return pois.LogProb(float64(v.Size()))
}

// Simulate draws successive gaps from Exponential(λ), stopping as soon as
// cumulative time exceeds Age, and returns the accumulated
// OrderedEventTimes.
func (m *MarkovTimes) Simulate(src rng.Source) *OrderedEventTimes {
	a := m.age.Value()
	lambda := m.Lambda.Value()
	out := NewOrderedEventTimes(a)
	if lambda <= 0 {
		return out
	}
	var cum float64
	for {
		gap := src.ExpFloat64() / lambda
		cum += gap
		if cum > a {
			return out
		}
		// Successive gaps are strictly increasing cumulative sums, so
		// distinctness is guaranteed without a duplicate check.
		_ = out.Insert(cum)
	}
}
