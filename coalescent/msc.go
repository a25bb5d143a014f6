// Package coalescent implements the multispecies-coalescent density with
// an inverse-gamma prior on effective population size, grounded directly
// on MultispeciesCoalescentInverseGammaPrior.cpp's
// computeLnCoalescentProbability and drawNe.
package coalescent

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/evobayes/phylocore/rng"
)

// ErrGeneCountMismatch is returned when a Branch's per-gene slices disagree
// in length with its entering-lineage count K.
var ErrGeneCountMismatch = errors.New("coalescent: len(Times) does not match len(K)")

// Branch holds one species-tree branch's gene-tree coalescence data: for
// each of G genes, the number of lineages entering the branch and the ages
// at which they coalesce inside it (k_g(b), {τ_{g,b,m}}).
type Branch struct {
	K     []int       // entering lineage count per gene
	Times [][]float64 // ascending coalescence ages per gene, relative to the species tree's age scale

	BeginAge float64
	EndAge   float64

	// AddFinalInterval includes the waiting time from the branch's last
	// coalescence (or BeginAge, if none) to EndAge — every branch except
	// the root branch, which has no upper bound.
	AddFinalInterval bool
}

// Validate checks every gene's Times slice is present when K requires it.
func (b Branch) Validate() error {
	if len(b.Times) != len(b.K) {
		return ErrGeneCountMismatch
	}
	return nil
}

// accumulate returns a_b and b_b for one branch.
func (b Branch) accumulate() (a float64, bb float64) {
	for i, k := range b.K {
		if k == 1 {
			continue
		}
		times := b.Times[i]
		n := len(times)
		a += float64(n)

		current := b.BeginAge
		for m, tau := range times {
			dt := tau - current
			current = tau
			j := float64(k - m)
			bb += dt * j * (j - 1)
		}

		if b.AddFinalInterval {
			dt := b.EndAge - current
			j := float64(k - n)
			bb += dt * j * (j - 1)
		}
	}
	return a, bb
}

// LnProbability returns ln p_b, the per-branch multispecies-coalescent
// log-density under an inverse-gamma(shape=alpha, rate=beta) prior on Ne
// (diploid autosomal, ploidy 2):
//
//	a_b·log 2 + α·log β − (α+a_b)·log(β+b_b) + Σ_{i=0}^{a_b-1} log(α+i)
func LnProbability(alpha, beta float64, b Branch) float64 {
	a, bb := b.accumulate()

	var logGammaRatio float64
	for i := 0; i < int(a); i++ {
		logGammaRatio += math.Log(alpha + float64(i))
	}

	return a*math.Ln2 + alpha*math.Log(beta) - (alpha+a)*math.Log(beta+bb) + logGammaRatio
}

// TotalLnProbability sums LnProbability over every species branch: the
// total density sums ln p_b over all species branches.
func TotalLnProbability(alpha, beta float64, branches []Branch) float64 {
	var sum float64
	for _, b := range branches {
		sum += LnProbability(alpha, beta, b)
	}
	return sum
}

// DrawNe samples an effective population size from InverseGamma(alpha,
// beta): gonum's distuv package has no InverseGamma type, so this uses the
// standard reciprocal-of-Gamma construction (1/X where X ~ Gamma(alpha,
// beta)) rather than hand-rolling a dedicated sampler.
//
// The draw goes through src's own uniform, via Gamma.Quantile, the same
// way events/markov.go's Simulate and birthdeath/simulate.go's
// SimulateClade thread src instead of letting gonum reach for its own
// package-level source, so every randomized draw in a run is
// reproducible from one seed.
func DrawNe(src rng.Source, alpha, beta float64) float64 {
	g := distuv.Gamma{Alpha: alpha, Beta: beta}
	return 1 / g.Quantile(src.Float64())
}
