// Package move implements the Proposal/Move contract and the
// tree-topology composite proposal, grounded on MPQTreeProposal.cpp's
// doProposal/undoProposal/tune structure.
package move

import "github.com/evobayes/phylocore/rng"

// Proposal is the unit of randomized change an MCMC move applies to one or
// more DAG nodes.
type Proposal interface {
	// PrepareProposal runs before DoProposal, giving the proposal a chance
	// to read current state before anything is touched.
	PrepareProposal()

	// DoProposal mutates the target node(s) and returns the log Hastings
	// ratio of the move.
	DoProposal(src rng.Source) float64

	// UndoProposal reverts exactly the last DoProposal call, restoring the
	// snapshot it recorded.
	UndoProposal()

	// CleanProposal releases any scratch state held only for the duration
	// of one proposal/accept-or-reject cycle.
	CleanProposal()

	// Tune adjusts the proposal's step size given a recent acceptance
	// rate, targeting the canonical 0.44 acceptance rate.
	Tune(acceptanceRate float64)

	// Name returns the proposal's display name.
	Name() string
}

// tuningTarget is the acceptance rate every Tune implementation in this
// package targets.
const tuningTarget = 0.44

// tuneFactor applies the shared tuning formula to lambda given an
// observed acceptance rate, clamped to [0, 10000].
func tuneFactor(lambda, rate float64) float64 {
	if rate > tuningTarget {
		lambda *= 1 + (rate-tuningTarget)/0.56
	} else {
		lambda /= 2 - rate/tuningTarget
	}
	if lambda > 10000 {
		lambda = 10000
	}
	if lambda < 0 {
		lambda = 0
	}
	return lambda
}
