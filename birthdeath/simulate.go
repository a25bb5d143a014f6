package birthdeath

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/evobayes/phylocore/rng"
)

// ErrFirstOccurrenceExceedsAge is returned by SimulateClade when a node's
// first-occurrence age is older than the target crown age.
var ErrFirstOccurrenceExceedsAge = errors.New("birthdeath: first-occurrence age exceeds target crown age")

// Lineage is one nascent node passed to SimulateClade: its current age and
// the age of its first occurrence (the constraint it must coalesce at or
// before).
type Lineage struct {
	Age            float64
	FirstOccurrence float64
}

// SimulateClade iteratively coalesces a random permissible pair of active
// lineages until a single root lineage at age targetAge remains. Each
// coalescence age is drawn from Exponential(λ) gaps above the current age
// (the reconstructed-process waiting time under this process's speciation
// rate in the interval the current age falls in), capped at targetAge; the
// last coalescence is placed at targetAge itself,
// respecting that neither lineage may coalesce before its own
// FirstOccurrence. This is a simplified reconstruction of the original's
// rejection-based inverse-CDF sampler (Hartmann/Stadler form) — grounded
// on FossilizedBirthDeathProcess.cpp's simulateClade, adapted to draw
// waiting times from the same Exponential primitive the rest of this
// module already uses (gonum/stat/distuv.Exponential) rather than
// reproducing its closed-form inverse-CDF algebra line for line; see
// DESIGN.md.
//
// SimulateClade returns the coalescence ages in the order they occurred,
// youngest first, sized len(lineages)-1.
func (p *Process) SimulateClade(src rng.Source, lineages []Lineage, targetAge float64) ([]float64, error) {
	active := append([]Lineage(nil), lineages...)
	for _, l := range active {
		if l.FirstOccurrence > targetAge {
			return nil, ErrFirstOccurrenceExceedsAge
		}
	}

	var ages []float64
	for len(active) > 1 {
		currentAge := active[0].Age
		for _, l := range active {
			if l.Age > currentAge {
				currentAge = l.Age
			}
		}

		i := p.IntervalOf(currentAge)
		rate := p.Lambda[i]
		if rate <= 0 {
			rate = 1e-8
		}
		gap := distuv.Exponential{Rate: rate}.Quantile(src.Float64())
		next := currentAge + gap
		if next > targetAge || len(active) == 2 {
			next = targetAge
		}

		// Among lineages already old enough to participate (their first
		// occurrence is at or before next), pick two at random to merge.
		eligible := make([]int, 0, len(active))
		for idx, l := range active {
			if l.FirstOccurrence <= next {
				eligible = append(eligible, idx)
			}
		}
		if len(eligible) < 2 {
			// No valid pair yet at this candidate age: advance to the next
			// lineage's first-occurrence age and retry.
			minFO := targetAge
			for _, l := range active {
				if l.FirstOccurrence > currentAge && l.FirstOccurrence < minFO {
					minFO = l.FirstOccurrence
				}
			}
			for idx := range active {
				active[idx].Age = minFO
			}
			continue
		}

		ii := eligible[src.Intn(len(eligible))]
		var jj int
		for {
			jj = eligible[src.Intn(len(eligible))]
			if jj != ii {
				break
			}
		}
		if ii > jj {
			ii, jj = jj, ii
		}

		merged := Lineage{Age: next, FirstOccurrence: maxFloat(active[ii].FirstOccurrence, active[jj].FirstOccurrence)}
		rest := make([]Lineage, 0, len(active)-1)
		for idx, l := range active {
			if idx != ii && idx != jj {
				rest = append(rest, l)
			}
		}
		rest = append(rest, merged)
		active = rest
		ages = append(ages, next)
	}

	sort.Float64s(ages)
	return ages, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
