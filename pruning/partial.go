package pruning

// partialCache is the double-buffered site-pattern partial-likelihood
// cache: size 2·numNodes·numMixtures·numPatterns·C, with the same
// active-bit discipline as pmatrix.Cache so an undo is a flip, not a
// recompute.
//
// It also carries the dirty-tracking bits a post-order pruning sweep
// needs: a node's partial is only recomputed if it or a descendant has
// been touched since the last keep.
type partialCache struct {
	numNodes    int
	numMixtures int
	numPatterns int
	alphabet    int

	buf    []float64
	active []bool
	dirty  []bool
}

func newPartialCache(numNodes, numMixtures, numPatterns, alphabet int) *partialCache {
	size := 2 * numNodes * numMixtures * numPatterns * alphabet
	pc := &partialCache{
		numNodes:    numNodes,
		numMixtures: numMixtures,
		numPatterns: numPatterns,
		alphabet:    alphabet,
		buf:         make([]float64, size),
		active:      make([]bool, numNodes),
		dirty:       make([]bool, numNodes),
	}
	for i := range pc.dirty {
		pc.dirty[i] = true // nothing computed yet
	}
	return pc
}

func (pc *partialCache) activeBit(node int) int {
	if pc.active[node] {
		return 1
	}
	return 0
}

func (pc *partialCache) nodeStride() int {
	return pc.numMixtures * pc.numPatterns * pc.alphabet
}

func (pc *partialCache) bufStride() int {
	return pc.numNodes * pc.nodeStride()
}

func (pc *partialCache) offset(activeBit, node, mixture, site, c1 int) int {
	withinNode := (mixture*pc.numPatterns+site)*pc.alphabet + c1
	return activeBit*pc.bufStride() + node*pc.nodeStride() + withinNode
}

// get returns L[node,mixture,site,c1] from node's current active buffer.
func (pc *partialCache) get(node, mixture, site, c1 int) float64 {
	return pc.buf[pc.offset(pc.activeBit(node), node, mixture, site, c1)]
}

// beginWrite returns the inactive buffer's base offset for (node, mixture,
// site), so a caller can write all C entries for that (node, mixture,
// site) triple without re-resolving the offset per state.
func (pc *partialCache) beginWrite(node, mixture, site int) int {
	inactive := 1 - pc.activeBit(node)
	return inactive*pc.bufStride() + node*pc.nodeStride() + (mixture*pc.numPatterns+site)*pc.alphabet
}

// commitNode flips node's active bit after every (mixture, site) slot has
// been written via beginWrite, and marks it pending-confirm.
func (pc *partialCache) commitNode(node int) {
	pc.active[node] = 1-pc.activeBit(node) == 1
	pc.dirty[node] = true
}

// touch marks node, and every ancestor on the path to the root, dirty.
// Idempotent: stops as soon as it reaches a node already dirty, the same
// short-circuit the dag package's Touch uses.
func (pc *partialCache) touch(node int, parentOf func(int) int, isRoot func(int) bool) {
	for n := node; ; {
		if pc.dirty[n] {
			return
		}
		pc.dirty[n] = true
		if isRoot(n) {
			return
		}
		n = parentOf(n)
	}
}

// keep confirms every pending recomputation.
func (pc *partialCache) keep() {
	for i := range pc.dirty {
		pc.dirty[i] = false
	}
}

// restore reverts every pending recomputation's flip and clears dirt.
func (pc *partialCache) restore() {
	for i := range pc.dirty {
		if pc.dirty[i] {
			pc.active[i] = !pc.active[i]
			pc.dirty[i] = false
		}
	}
}
