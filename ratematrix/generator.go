// Package ratematrix names the boundary interface the pruning kernel and
// transition-probability cache consume a CTMC substitution model through.
// The low-level rate-matrix eigendecomposition that produces P(t) =
// exp(t·R) for an arbitrary generator R is an external collaborator and is
// not implemented here; this package only states the shape every caller
// needs, plus one concrete generator (Jukes-Cantor) with a closed-form
// P(t) that needs no eigendecomposition at all.
package ratematrix

// A RateGenerator supplies the transition-probability matrix for a CTMC
// substitution model over a fixed-size alphabet.
type RateGenerator interface {
	// Dim returns the alphabet size C.
	Dim() int

	// StationaryFrequencies returns the generator's equilibrium
	// distribution π, length Dim().
	StationaryFrequencies() []float64

	// TransitionProbability returns the C×C matrix P(t) = exp(t·R) for
	// the combined branch duration t (already multiplied by clock rate,
	// site-rate, and heterotachy-rate factors by the caller).
	TransitionProbability(t float64) [][]float64
}
