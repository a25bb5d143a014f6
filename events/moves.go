package events

import (
	"math"

	"github.com/evobayes/phylocore/rng"
)

// ProposeEventTime draws a candidate time uniform on (0, age] and returns
// it alongside its proposal density log(1/age) = -log(age), the
// auxiliary a move that adds a new event needs.
func ProposeEventTime(src rng.Source, age float64) (t float64, logDensity float64) {
	t = src.Float64() * age
	if t == 0 {
		t = age // src.Float64() == 0 is the one value outside (0, age]
	}
	return t, -math.Log(age)
}

// PickRandomEvent chooses uniformly among e's current events and returns
// its time alongside the selection's log density -log(n), the auxiliary
// a move that removes or relocates an existing event needs. It fails by
// returning (0, -Inf) when e is empty; callers must check Size() first,
// the same contract OrderedEventTimes.At uses.
func PickRandomEvent(src rng.Source, e *OrderedEventTimes) (t float64, logDensity float64) {
	n := e.Size()
	if n == 0 {
		return 0, math.Inf(-1)
	}
	i := src.Intn(n)
	return e.At(i), -math.Log(float64(n))
}

// AddTime inserts t into e; it fails with ErrDuplicateTime or
// ErrOutOfRange exactly as OrderedEventTimes.Insert does.
func AddTime(e *OrderedEventTimes, t float64) error {
	return e.Insert(t)
}

// RemoveTime deletes t from e; it fails with ErrAbsentTime exactly as
// OrderedEventTimes.Remove does.
func RemoveTime(e *OrderedEventTimes, t float64) error {
	return e.Remove(t)
}
