package tree_test

import (
	"math"
	"testing"

	"github.com/evobayes/phylocore/tree"
)

// fourTip builds the small tree the move package's branch-length and
// tree-length proposal tests scale:
//
//	root(4)
//	 ├─ 2 (internal: 0,1)
//	 │   ├─ 0 (tip)
//	 │   └─ 1 (tip)
//	 └─ 3 (tip)
//
// all non-root branch lengths are 1.
func fourTip(t *testing.T) *tree.Tree {
	t.Helper()
	nodes := []tree.TopologyNode{
		{Index: 0, Taxon: "A", Parent: 2, Length: 1},
		{Index: 1, Taxon: "B", Parent: 2, Length: 1},
		{Index: 2, Parent: 4, Children: []int{0, 1}, Length: 1},
		{Index: 3, Taxon: "C", Parent: 4, Length: 1},
		{Index: 4, Parent: -1, Children: []int{2, 3}},
	}
	tr, err := tree.New(nodes, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestNewValidatesSingleRoot(t *testing.T) {
	nodes := []tree.TopologyNode{
		{Index: 0, Parent: -1},
		{Index: 1, Parent: -1},
	}
	if _, err := tree.New(nodes, false); err == nil {
		t.Fatalf("expected error for two roots")
	}
}

func TestNewValidatesAgeOrder(t *testing.T) {
	nodes := []tree.TopologyNode{
		{Index: 0, Age: 5, Parent: 1},
		{Index: 1, Age: 1, Parent: -1, Children: []int{0}},
	}
	if _, err := tree.New(nodes, true); err == nil {
		t.Fatalf("expected age-order error in a time tree")
	}
	if _, err := tree.New(nodes, false); err != nil {
		t.Fatalf("non-time tree should not validate age order: %v", err)
	}
}

func TestTreeLengthAndScale(t *testing.T) {
	tr := fourTip(t)
	if got := tr.TreeLength(); got != 4 {
		t.Fatalf("TreeLength = %v, want 4", got)
	}
	tr.ScaleAllBranchLengths(math.Exp(0.05))
	want := 4 * math.Exp(0.05)
	if got := tr.TreeLength(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("scaled TreeLength = %v, want %v", got, want)
	}
}

func TestRerootIsInvolution(t *testing.T) {
	tr := fourTip(t)
	orig := tr.Root()

	if err := tr.Reroot(0); err != nil {
		t.Fatalf("reroot: %v", err)
	}
	if tr.Root() != 0 {
		t.Fatalf("root = %d, want 0", tr.Root())
	}
	if p := tr.Parent(2); p != 0 {
		t.Fatalf("parent of 2 after reroot = %d, want 0", p)
	}

	if err := tr.Reroot(orig); err != nil {
		t.Fatalf("reroot back: %v", err)
	}
	if tr.Root() != orig {
		t.Fatalf("root = %d, want %d", tr.Root(), orig)
	}
	if p := tr.Parent(0); p != 2 {
		t.Fatalf("parent of 0 after undo = %d, want 2", p)
	}
	if p := tr.Parent(2); p != orig {
		t.Fatalf("parent of 2 after undo = %d, want %d", p, orig)
	}
	children := tr.Children(orig)
	if len(children) != 2 {
		t.Fatalf("root children after undo = %v, want 2 entries", children)
	}
}

// TestRerootPreservesTreeLength checks that reversing edge direction
// carries each edge's length with it: a chain i(5) -> mid(3) -> root
// has TreeLength 8 before and after rerooting at i, and rerooting back
// restores every original branch length exactly.
func TestRerootPreservesTreeLength(t *testing.T) {
	nodes := []tree.TopologyNode{
		{Index: 0, Taxon: "A", Parent: 1, Length: 5},
		{Index: 1, Parent: 2, Children: []int{0}, Length: 3},
		{Index: 2, Parent: -1, Children: []int{1}},
	}
	tr, err := tree.New(nodes, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	orig := tr.Root()
	if got := tr.TreeLength(); got != 8 {
		t.Fatalf("TreeLength before reroot = %v, want 8", got)
	}

	if err := tr.Reroot(0); err != nil {
		t.Fatalf("reroot: %v", err)
	}
	if got := tr.TreeLength(); got != 8 {
		t.Fatalf("TreeLength after reroot = %v, want 8 (edges must keep their lengths)", got)
	}
	if got := tr.BranchLength(1); got != 5 {
		t.Fatalf("branch length of 1 after reroot = %v, want 5 (the old 0-1 edge)", got)
	}
	if got := tr.BranchLength(2); got != 3 {
		t.Fatalf("branch length of 2 after reroot = %v, want 3 (the old 1-2 edge)", got)
	}

	if err := tr.Reroot(orig); err != nil {
		t.Fatalf("reroot back: %v", err)
	}
	if got := tr.BranchLength(0); got != 5 {
		t.Fatalf("branch length of 0 after undo = %v, want 5", got)
	}
	if got := tr.BranchLength(1); got != 3 {
		t.Fatalf("branch length of 1 after undo = %v, want 3", got)
	}
}

func TestNonRootIndices(t *testing.T) {
	tr := fourTip(t)
	idx := tr.NonRootIndices()
	if len(idx) != tr.NumNodes()-1 {
		t.Fatalf("NonRootIndices len = %d, want %d", len(idx), tr.NumNodes()-1)
	}
	for _, i := range idx {
		if i == tr.Root() {
			t.Fatalf("NonRootIndices included the root")
		}
	}
}
