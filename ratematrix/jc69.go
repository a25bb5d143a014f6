package ratematrix

import "math"

// JC69 is the Jukes-Cantor (1969) substitution model: a 4-state
// generator with equal exchange rates and equal equilibrium frequencies.
// Its P(t) has a closed form, so it needs no eigendecomposition.
type JC69 struct{}

// Dim returns 4.
func (JC69) Dim() int { return 4 }

// StationaryFrequencies returns (1/4, 1/4, 1/4, 1/4).
func (JC69) StationaryFrequencies() []float64 {
	return []float64{0.25, 0.25, 0.25, 0.25}
}

// TransitionProbability returns the closed-form Jukes-Cantor P(t):
//
//	P_ii(t) = 1/4 + 3/4·e^{-4t/3}
//	P_ij(t) = 1/4 - 1/4·e^{-4t/3}   (i != j)
func (JC69) TransitionProbability(t float64) [][]float64 {
	same := 0.25 + 0.75*math.Exp(-4*t/3)
	diff := 0.25 - 0.25*math.Exp(-4*t/3)
	p := make([][]float64, 4)
	for i := range p {
		p[i] = make([]float64, 4)
		for j := range p[i] {
			if i == j {
				p[i][j] = same
			} else {
				p[i][j] = diff
			}
		}
	}
	return p
}
