// Package pruning implements the pruning likelihood kernel: Felsenstein's
// post-order algorithm for a CTMC substitution model with site-rate mixture
// categories and optional per-branch heterotachy categories.
//
// The package name continues the js-arias/phygeo pruning package
// (github.com/js-arias/phygeo/pruning), which computes conditional
// likelihoods over a biogeography pixel lattice using the same
// post-order/double-buffer shape; this is a fresh implementation of the
// CTMC/site-pattern domain this module actually needs (see DESIGN.md).
package pruning

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/evobayes/phylocore/chardata"
	"github.com/evobayes/phylocore/pmatrix"
	"github.com/evobayes/phylocore/ratematrix"
	"github.com/evobayes/phylocore/tree"
)

// sanityEpsilon bounds the [0, 1+ε] range every computed partial must lie
// in.
const sanityEpsilon = 1e-11

// Structural validation errors: fatal, never a recoverable likelihood value.
var (
	ErrBadArity          = errors.New("pruning: internal node has a child count other than 1, 2, or 3")
	ErrMixtureLenMismatch = errors.New("pruning: site-rate multiplier length does not match the configured mixture count")
	ErrMissingBranchMixture = errors.New("pruning: heterotachy category count > 1 requires a branch_site_rates_mixture assignment")
)

// Kernel bundles the configuration the pruning recurrence needs: the
// substitution-rate generator, the clock rate, the site-rate mixture
// multipliers, and (optionally) per-branch heterotachy.
type Kernel struct {
	Gen       ratematrix.RateGenerator
	ClockRate float64

	// SiteRateMultipliers holds r_m for each of the M mixture
	// categories; len(SiteRateMultipliers) is M.
	SiteRateMultipliers []float64

	// HeterotachyRates holds h_k for each of the H heterotachy
	// categories. Leave nil (or length 1, value 1) to disable
	// heterotachy.
	HeterotachyRates []float64

	// BranchSiteRatesMixture, when non-nil, assigns each branch (by
	// TopologyNode index) to a heterotachy category index. Required
	// whenever len(HeterotachyRates) > 1. The kernel only checks that it
	// is present; the recurrences average over every heterotachy category
	// and do not read a branch's assigned index.
	BranchSiteRatesMixture []int

	// BranchSiteRates, when non-nil, is an extra per-branch scalar rate
	// multiplier. Its presence forces P(t) to be recomputed directly
	// from Gen using branch start/end ages rather than read from the
	// transition-probability cache; non-finite ages are treated as 0.
	BranchSiteRates []float64

	// Workers bounds the number of goroutines used for the
	// intra-kernel, data-parallel sweep over site patterns. 0 or 1
	// means serial.
	Workers int

	cache    *pmatrix.Cache
	partials *partialCache
	post     []int // post-order node indices, tip-to-root
}

// New builds a Kernel and its caches for a tree with numNodes nodes and a
// character matrix with numPatterns site patterns over an alphabet of
// size C.
func New(gen ratematrix.RateGenerator, clockRate float64, siteRates []float64, numNodes, numPatterns int) (*Kernel, error) {
	if len(siteRates) == 0 {
		siteRates = []float64{1}
	}
	k := &Kernel{
		Gen:                 gen,
		ClockRate:           clockRate,
		SiteRateMultipliers: siteRates,
	}
	k.cache = pmatrix.New(numNodes, len(siteRates), 1, gen.Dim())
	k.partials = newPartialCache(numNodes, len(siteRates), numPatterns, gen.Dim())
	return k, nil
}

func (k *Kernel) numHeterotachy() int {
	if len(k.HeterotachyRates) == 0 {
		return 1
	}
	return len(k.HeterotachyRates)
}

// Touch marks node (and its ancestors) dirty in the partial-likelihood
// cache, the way a branch length or substitution-parameter change
// invalidates exactly the branches on the path from the changed node to
// the root. The transition-probability cache is not marked here: the next
// LogLikelihood refreshes P(t) for every dirty non-root node before
// recomputing its partials.
func (k *Kernel) Touch(t *tree.Tree, node int) {
	k.partials.touch(node, t.Parent, t.IsRoot)
}

// Keep confirms every pending recomputation since the last Keep/Restore,
// in both the partial-likelihood and transition-probability caches.
func (k *Kernel) Keep() {
	k.partials.keep()
	for n := 0; n < k.cache.NumNodes(); n++ {
		k.cache.Keep(n)
	}
}

// Restore reverts every pending recomputation since the last Keep, in
// both caches.
func (k *Kernel) Restore() {
	k.partials.restore()
	for n := 0; n < k.cache.NumNodes(); n++ {
		k.cache.Restore(n)
	}
}

// transitionMatrix returns P(t) for (node, mixture, heterotachy), choosing
// between the cached matrix and a direct recompute from branch ages.
func (k *Kernel) transitionMatrix(t *tree.Tree, node, mixture, het int) [][]float64 {
	if k.BranchSiteRates != nil {
		start := t.Age(t.Parent(node))
		end := t.Age(node)
		if math.IsInf(start, 0) || math.IsNaN(start) {
			start = 0
		}
		if math.IsInf(end, 0) || math.IsNaN(end) {
			end = 0
		}
		hRate := 1.0
		if het < len(k.HeterotachyRates) {
			hRate = k.HeterotachyRates[het]
		}
		tt := (start - end) * k.ClockRate * k.SiteRateMultipliers[mixture] * hRate * k.BranchSiteRates[node]
		return k.Gen.TransitionProbability(tt)
	}
	c := k.cache.Alphabet()
	p := make([][]float64, c)
	for c1 := 0; c1 < c; c1++ {
		p[c1] = make([]float64, c)
		for c2 := 0; c2 < c; c2++ {
			p[c1][c2] = k.cache.Entry(node, mixture, het, c1, c2)
		}
	}
	return p
}

// UpdateBranch recomputes and caches P(t) for node across every (mixture,
// heterotachy) pair from branch start/end ages, the way a branch-length
// or clock-rate proposal refreshes the cache before asking for a new
// log-likelihood.
func (k *Kernel) UpdateBranch(t *tree.Tree, node int) {
	if k.cache.NumHeterotachy() != k.numHeterotachy() {
		k.cache = pmatrix.New(k.cache.NumNodes(), len(k.SiteRateMultipliers), k.numHeterotachy(), k.cache.Alphabet())
	}
	start := t.Age(t.Parent(node))
	end := t.Age(node)
	for m, r := range k.SiteRateMultipliers {
		for het := 0; het < k.numHeterotachy(); het++ {
			hRate := 1.0
			if het < len(k.HeterotachyRates) {
				hRate = k.HeterotachyRates[het]
			}
			tt := (start - end) * k.ClockRate * r * hRate
			k.cache.Update(node, m, het, k.Gen.TransitionProbability(tt))
		}
	}
}

// LogLikelihood computes log P(data | tree, model) by a post-order sweep,
// recomputing only the nodes marked dirty since the last Keep/Restore.
func (k *Kernel) LogLikelihood(t *tree.Tree, data *chardata.Matrix) (float64, error) {
	if k.numHeterotachy() > 1 && k.BranchSiteRatesMixture == nil {
		return 0, ErrMissingBranchMixture
	}
	if k.post == nil {
		k.post = postOrder(t)
	}
	post := k.post

	for _, n := range post {
		if !k.partials.dirty[n] {
			continue
		}
		if !t.IsRoot(n) && k.BranchSiteRates == nil {
			k.UpdateBranch(t, n)
		}
		children := t.Children(n)
		switch len(children) {
		case 0:
			if err := k.computeTip(t, data, n); err != nil {
				return 0, err
			}
		case 1, 2, 3:
			if t.IsRoot(n) {
				k.computeRoot(t, n, children)
			} else {
				if err := k.computeInternal(t, n, children); err != nil {
					return 0, err
				}
			}
		default:
			return 0, fmt.Errorf("%w: node %d has %d children", ErrBadArity, n, len(children))
		}
	}

	return k.siteSum(data, t.Root()), nil
}

// postOrder returns every node index of t in post-order (children before
// parents).
func postOrder(t *tree.Tree) []int {
	order := make([]int, 0, t.NumNodes())
	var visit func(n int)
	visit = func(n int) {
		for _, c := range t.Children(n) {
			visit(c)
		}
		order = append(order, n)
	}
	visit(t.Root())
	return order
}

func (k *Kernel) computeTip(t *tree.Tree, data *chardata.Matrix, n int) error {
	taxon := t.Taxon(n)
	C := k.cache.Alphabet()
	M := len(k.SiteRateMultipliers)
	H := k.numHeterotachy()
	numSites := data.NumSites()

	work := func(site int) error {
		obs, err := data.Observation(taxon, site)
		if err != nil {
			return err
		}

		// weights[c2] is obs.Weight(c2) for every state the ambiguity
		// bitset admits, 0 elsewhere; independent of c1, het, and m, so
		// it is built once per site rather than inside the innermost
		// loop it's consumed by via floats.Dot.
		var weights []float64
		if !obs.Gap && obs.Ambiguous() {
			weights = make([]float64, C)
			for c2 := 0; c2 < C; c2++ {
				if obs.Bits&(1<<uint(c2)) != 0 {
					weights[c2] = obs.Weight(c2)
				}
			}
		}

		for m := 0; m < M; m++ {
			base := k.partials.beginWrite(n, m, site)
			for c1 := 0; c1 < C; c1++ {
				if obs.Gap {
					k.partials.buf[base+c1] = 1
					continue
				}
				var sum float64
				for het := 0; het < H; het++ {
					p := k.transitionMatrix(t, n, m, het)
					if !obs.Ambiguous() {
						sum += p[c1][obs.State]
						continue
					}
					sum += floats.Dot(p[c1], weights)
				}
				v := sum / float64(H)
				if err := checkPartial(v); err != nil {
					return err
				}
				k.partials.buf[base+c1] = v
			}
		}
		return nil
	}

	if err := k.parallelSites(numSites, work); err != nil {
		return err
	}
	k.partials.commitNode(n)
	return nil
}

func (k *Kernel) computeInternal(t *tree.Tree, n int, children []int) error {
	C := k.cache.Alphabet()
	M := len(k.SiteRateMultipliers)
	H := k.numHeterotachy()
	numSites := k.partials.numPatterns

	work := func(site int) error {
		for m := 0; m < M; m++ {
			base := k.partials.beginWrite(n, m, site)

			// product[c2] is the elementwise product, across every
			// child, of that child's partial at state c2; independent
			// of c1 and het, so each (c1, het) pair reduces to a single
			// floats.Dot against this same vector instead of a
			// per-state nested loop.
			product := make([]float64, C)
			for c2 := 0; c2 < C; c2++ {
				prod := 1.0
				for _, ch := range children {
					prod *= k.partials.get(ch, m, site, c2)
				}
				product[c2] = prod
			}

			for c1 := 0; c1 < C; c1++ {
				var sum float64
				for het := 0; het < H; het++ {
					p := k.transitionMatrix(t, n, m, het)
					sum += floats.Dot(p[c1], product)
				}
				v := sum / float64(H)
				if err := checkPartial(v); err != nil {
					return err
				}
				k.partials.buf[base+c1] = v
			}
		}
		return nil
	}

	if err := k.parallelSites(numSites, work); err != nil {
		return err
	}
	k.partials.commitNode(n)
	return nil
}

func (k *Kernel) computeRoot(t *tree.Tree, n int, children []int) {
	C := k.cache.Alphabet()
	M := len(k.SiteRateMultipliers)
	numSites := k.partials.numPatterns
	pi := k.Gen.StationaryFrequencies()

	_ = k.parallelSites(numSites, func(site int) error {
		for m := 0; m < M; m++ {
			base := k.partials.beginWrite(n, m, site)
			for c1 := 0; c1 < C; c1++ {
				v := pi[c1]
				for _, ch := range children {
					v *= k.partials.get(ch, m, site, c1)
				}
				k.partials.buf[base+c1] = v
			}
		}
		return nil
	})
	k.partials.commitNode(n)
}

// siteSum folds the root's partials into the total log-likelihood,
// applying pattern weights; a non-positive or NaN mean partial maps to
// -Inf rather than a math domain error.
func (k *Kernel) siteSum(data *chardata.Matrix, root int) float64 {
	C := k.cache.Alphabet()
	M := len(k.SiteRateMultipliers)
	var total float64
	for site := 0; site < k.partials.numPatterns; site++ {
		var sum float64
		for m := 0; m < M; m++ {
			for c1 := 0; c1 < C; c1++ {
				sum += k.partials.get(root, m, site, c1)
			}
		}
		mean := sum / float64(M)
		var ll float64
		if mean < 0 || math.IsNaN(mean) {
			ll = math.Inf(-1)
		} else {
			ll = math.Log(mean)
		}
		total += ll * data.PatternWeight(site)
	}
	return total
}

// checkPartial enforces the numerical sanity bound: every computed
// partial must lie in [0, 1+ε]; NaN is passed through (it is tolerated
// only as an intermediate and must propagate, not be clipped).
func checkPartial(v float64) error {
	if math.IsNaN(v) {
		return nil
	}
	if v < 0 || v > 1+sanityEpsilon {
		return fmt.Errorf("pruning: partial likelihood %.17g outside [0, 1+%g]", v, sanityEpsilon)
	}
	return nil
}

// parallelSites runs work for every site pattern, fanning out across
// Kernel.Workers goroutines when it is greater than 1. This adapts the
// js-arias/phygeo pruning package's worker-pool shape
// (pruning/downpass.go's buffered work channel + sync.WaitGroup + fan-in)
// to a data-parallel sweep over site patterns instead of biogeography
// pixels, since every site pattern's partial-likelihood slot is disjoint.
func (k *Kernel) parallelSites(numSites int, work func(site int) error) error {
	if k.Workers < 2 || numSites < 2 {
		for s := 0; s < numSites; s++ {
			if err := work(s); err != nil {
				return err
			}
		}
		return nil
	}

	sites := make(chan int, numSites)
	for s := 0; s < numSites; s++ {
		sites <- s
	}
	close(sites)

	var wg sync.WaitGroup
	errs := make(chan error, k.Workers)
	for i := 0; i < k.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range sites {
				if err := work(s); err != nil {
					select {
					case errs <- err:
					default:
					}
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	if err, ok := <-errs; ok {
		return err
	}
	return nil
}
