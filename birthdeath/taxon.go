package birthdeath

import "math"

// Taxon is one stratigraphic range: a lineage's birth (speciation) age,
// last-appearance age, oldest-fossil age, and whether it descends directly
// from a sampled ancestor (the y_i/d_i/o_i/I_i state vector).
type Taxon struct {
	Birth           float64 // y_i
	Death           float64 // d_i
	OldestFossil    float64 // o_i
	SampledAncestor bool    // I_i
}

// ComputeLnProbabilityTimes returns the fossilized-birth-death range
// process's log-density for taxa, optionally conditioned on survival from
// originAge to the present.
//
// Open Question (a) (the original's `findIndex(di)` typo, using di before
// it is assigned) resolves here implicitly: every interval lookup this
// function performs derives from the taxon's own Birth/Death/OldestFossil
// ages, never from an uninitialized index — see DESIGN.md.
func (p *Process) ComputeLnProbabilityTimes(taxa []Taxon, originAge float64, conditionOnSurvival bool) float64 {
	p.ensurePBoundary()
	var lnProb float64

	for _, tx := range taxa {
		birthInterval := p.IntervalOf(tx.Birth)
		lnProb += p.QTilde(tx.Birth) - p.QTilde(tx.Death)
		lnProb -= math.Log(p.Lambda[birthInterval])

		if !tx.SampledAncestor {
			continue
		}

		if !p.Extended {
			// Analytically integrate out the speciation time between the
			// taxon's birth and its oldest fossil occurrence.
			x := (p.QTilde(tx.Birth) - p.Q(tx.Birth)) - (p.QTilde(tx.OldestFossil) - p.Q(tx.OldestFossil))
			lnProb += math.Log(-math.Expm1(x))
		} else {
			lnProb += math.Log(p.LambdaA[birthInterval]) - math.Log(p.Mu[birthInterval])
		}
	}

	if conditionOnSurvival {
		ps := math.Log(p.PSurvival(originAge, 0))
		if p.OriginConditioned {
			lnProb -= ps
		} else {
			lnProb -= 2 * ps
		}
	}

	return lnProb
}
