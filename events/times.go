// Package events implements the event-time building block: a sorted set
// of distinct real-valued event times on (0, age], and the Markov
// (homogeneous Poisson) distribution over such sets used as a
// tree-prior density.
package events

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel validation errors.
var (
	ErrDuplicateTime = errors.New("events: time already present")
	ErrAbsentTime    = errors.New("events: time not present")
	ErrOutOfRange    = errors.New("events: time outside (0, age]")
)

// OrderedEventTimes is a sorted set of distinct event times in (0, age].
// Insertion and removal are O(n); the set is small in every scenario this
// module targets (a handful of events per branch), so a sorted slice is
// simpler and just as fast as a tree.
type OrderedEventTimes struct {
	age   float64
	times []float64
}

// NewOrderedEventTimes creates an empty set on (0, age].
func NewOrderedEventTimes(age float64) *OrderedEventTimes {
	return &OrderedEventTimes{age: age}
}

// Age returns the upper bound of the interval this set is defined over.
func (e *OrderedEventTimes) Age() float64 { return e.age }

// Size returns the number of events currently held.
func (e *OrderedEventTimes) Size() int { return len(e.times) }

// Times returns the event times in ascending order. The returned slice is
// a copy; mutating it does not affect the set.
func (e *OrderedEventTimes) Times() []float64 {
	return append([]float64(nil), e.times...)
}

// Contains reports whether t is currently a member.
func (e *OrderedEventTimes) Contains(t float64) bool {
	_, ok := e.search(t)
	return ok
}

// search returns the insertion index of t, and whether t is already
// present at that index.
func (e *OrderedEventTimes) search(t float64) (int, bool) {
	i := sort.SearchFloat64s(e.times, t)
	return i, i < len(e.times) && e.times[i] == t
}

// Insert adds t to the set. It fails if t is already present (the set's
// distinctness invariant) or lies outside (0, age].
func (e *OrderedEventTimes) Insert(t float64) error {
	if t <= 0 || t > e.age {
		return fmt.Errorf("%w: t=%g, age=%g", ErrOutOfRange, t, e.age)
	}
	i, ok := e.search(t)
	if ok {
		return fmt.Errorf("%w: t=%g", ErrDuplicateTime, t)
	}
	e.times = append(e.times, 0)
	copy(e.times[i+1:], e.times[i:])
	e.times[i] = t
	return nil
}

// Remove deletes t from the set. It fails if t is not present.
func (e *OrderedEventTimes) Remove(t float64) error {
	i, ok := e.search(t)
	if !ok {
		return fmt.Errorf("%w: t=%g", ErrAbsentTime, t)
	}
	e.times = append(e.times[:i], e.times[i+1:]...)
	return nil
}

// At returns the i-th smallest event time.
func (e *OrderedEventTimes) At(i int) float64 { return e.times[i] }

// Clone returns a deep copy, safe to mutate independently.
func (e *OrderedEventTimes) Clone() *OrderedEventTimes {
	return &OrderedEventTimes{age: e.age, times: append([]float64(nil), e.times...)}
}
