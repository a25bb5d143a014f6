package move

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/evobayes/phylocore/dag"
	"github.com/evobayes/phylocore/rng"
	"github.com/evobayes/phylocore/tree"
)

// moveClass selects which of the three move kinds TreeProposal's last
// DoProposal call performed, the way MPQTreeProposal.cpp's last_move field
// does.
type moveClass int

const (
	branchLength moveClass = iota
	treeLength
	rootPosition
)

// TreeProposal is the composite tree-topology proposal: a single proposal
// object that randomly selects one of BRANCH_LENGTH, TREE_LENGTH, or
// ROOT_POSITION on each invocation, grounded on MPQTreeProposal.cpp's
// doProposal/undoProposal dispatch.
//
// Branch-length and tree-length tuning are independent parameters
// (tuning_branch, tuning_tree), mirroring the original's per-scale tuning
// (see SPEC_FULL.md, supplemented feature 4).
type TreeProposal struct {
	Tree *dag.Stochastic[*tree.Tree]

	// Reversible selects the move-class distribution: true picks the
	// reversible regime (TREE_LENGTH 0.1 / BRANCH_LENGTH 0.9, no
	// re-rooting); false picks the non-reversible regime (TREE_LENGTH
	// 0.1 / ROOT_POSITION 0.1 / BRANCH_LENGTH 0.8).
	Reversible bool

	TuningBranch float64
	TuningTree   float64

	last moveClass

	storedBranchIndex  int
	storedBranchLength float64
	storedScalingFactor float64
	storedRootIndex    int

	// acceptRates accumulates observed acceptance outcomes (1 or 0) for
	// the stat.Mean-based tuning diagnostic; see AcceptanceRate.
	acceptRates []float64
}

// NewTreeProposal builds a TreeProposal over t with starting tuning
// parameters tuningBranch and tuningTree.
func NewTreeProposal(t *dag.Stochastic[*tree.Tree], reversible bool, tuningBranch, tuningTree float64) *TreeProposal {
	return &TreeProposal{Tree: t, Reversible: reversible, TuningBranch: tuningBranch, TuningTree: tuningTree}
}

// Name implements Proposal.
func (p *TreeProposal) Name() string { return "TreeProposal" }

// PrepareProposal implements Proposal; this move needs no pre-touch state.
func (p *TreeProposal) PrepareProposal() {}

// CleanProposal implements Proposal; nothing is allocated per-cycle here.
func (p *TreeProposal) CleanProposal() {}

// DoProposal implements Proposal: the move-class selection step,
// dispatching to the matching update* method.
func (p *TreeProposal) DoProposal(src rng.Source) float64 {
	u := src.Float64()
	if p.Reversible {
		if u < 0.1 {
			p.last = treeLength
			return p.updateTreeLength(src)
		}
		p.last = branchLength
		return p.updateBranchLength(src)
	}

	switch {
	case u < 0.1:
		p.last = treeLength
		return p.updateTreeLength(src)
	case u < 0.2:
		p.last = rootPosition
		return p.updateRootPosition(src)
	default:
		p.last = branchLength
		return p.updateBranchLength(src)
	}
}

// updateBranchLength picks a uniformly random non-root node, snapshots
// its branch length, and scales it by exp(tuning_branch·(U(0,1)−0.5)).
func (p *TreeProposal) updateBranchLength(src rng.Source) float64 {
	t := p.Tree.Value()
	p.Tree.Touch(p.Tree)

	indices := t.NonRootIndices()
	idx := indices[src.Intn(len(indices))]

	p.storedBranchIndex = idx
	p.storedBranchLength = t.BranchLength(idx)

	scale := math.Exp(p.TuningBranch * (src.Float64() - 0.5))
	_ = t.ScaleBranchLength(idx, scale)

	return math.Log(scale)
}

// updateTreeLength scales every non-root branch length by
// exp(tuning_tree·(U(0,1)−0.5)); Hastings ratio (N−1)·log(s).
func (p *TreeProposal) updateTreeLength(src rng.Source) float64 {
	t := p.Tree.Value()
	p.Tree.Touch(p.Tree)

	scale := math.Exp(p.TuningTree * (src.Float64() - 0.5))
	p.storedScalingFactor = scale

	ScaleTreeLength(t, scale)

	n := t.NumNodes()
	return float64(n-1) * math.Log(scale)
}

// updateRootPosition snapshots the current root index, picks a uniformly
// random node whose parent is not the root (rejection sampling), and
// re-roots there. Hastings ratio 0.
func (p *TreeProposal) updateRootPosition(src rng.Source) float64 {
	t := p.Tree.Value()
	p.Tree.Touch(p.Tree)

	p.storedRootIndex = t.Root()

	var idx int
	for {
		idx = src.Intn(t.NumNodes())
		if idx == t.Root() {
			continue
		}
		if t.IsRoot(t.Parent(idx)) {
			continue
		}
		break
	}

	_ = t.Reroot(idx)
	return 0
}

// UndoProposal implements Proposal: restores exactly the snapshot
// recorded for the last move class.
func (p *TreeProposal) UndoProposal() {
	t := p.Tree.Value()
	switch p.last {
	case branchLength:
		_ = t.SetBranchLength(p.storedBranchIndex, p.storedBranchLength)
	case treeLength:
		ScaleTreeLength(t, 1/p.storedScalingFactor)
	case rootPosition:
		// Reroot is its own inverse (tree.Reroot's doc comment): rerooting
		// at the pre-move root index exactly undoes the move.
		_ = t.Reroot(p.storedRootIndex)
	}
	p.Tree.Restore(p.Tree)
}

// Tune implements Proposal, applying the shared tuning formula to
// TuningTree after a TREE_LENGTH move and to TuningBranch after any other
// move class (ROOT_POSITION included, though it uses no tuning parameter).
func (p *TreeProposal) Tune(acceptanceRate float64) {
	switch p.last {
	case treeLength:
		p.TuningTree = tuneFactor(p.TuningTree, acceptanceRate)
	default:
		p.TuningBranch = tuneFactor(p.TuningBranch, acceptanceRate)
	}
}

// RecordOutcome appends 1 (accepted) or 0 (rejected) to the proposal's
// running acceptance history, used by AcceptanceRate.
func (p *TreeProposal) RecordOutcome(accepted bool) {
	if accepted {
		p.acceptRates = append(p.acceptRates, 1)
	} else {
		p.acceptRates = append(p.acceptRates, 0)
	}
}

// AcceptanceRate returns the mean of the recorded outcome history, the
// same gonum/stat package diff/speed.go reaches for to summarize a float
// series (there via stat.Quantile); 0 if no outcomes have been recorded.
func (p *TreeProposal) AcceptanceRate() float64 {
	if len(p.acceptRates) == 0 {
		return 0
	}
	return stat.Mean(p.acceptRates, nil)
}

// ScaleTreeLength multiplies every non-root branch length of t by factor:
// the elementwise operation the TREE_LENGTH move (and its undo) performs,
// expressed via gonum/floats the way the rest of this module's inner
// loops do.
func ScaleTreeLength(t *tree.Tree, factor float64) {
	lengths := make([]float64, 0, t.NumNodes()-1)
	indices := t.NonRootIndices()
	for _, i := range indices {
		lengths = append(lengths, t.BranchLength(i))
	}
	floats.Scale(factor, lengths)
	for j, i := range indices {
		_ = t.SetBranchLength(i, lengths[j])
	}
}
