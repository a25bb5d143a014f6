// Package pmatrix implements the transition-probability cache: a flat
// double buffer of P(t) matrices indexed by (active bit, node, mixture
// category, heterotachy category), with the double-buffer discipline that
// makes undo a flip instead of a copy.
package pmatrix

// Cache holds P(t) matrices for every branch of a tree, every site-rate
// mixture category, and every heterotachy category, double-buffered so a
// rejected proposal can revert to the pre-touch matrices in O(1).
//
// Addressing uses stride "mixture·H + heterotachy_index", so every
// (mixture, heterotachy) pair gets a distinct slot; the original system
// this is modeled on aliases mixture and heterotachy category under an
// inline stride of "mixture + heterotachy_index", which collides for any
// M>1, H>1. See DESIGN.md's Open Questions section.
type Cache struct {
	numNodes       int
	numMixtures    int
	numHeterotachy int
	alphabet       int

	buf    []float64
	active []bool // active[node]: false selects buffer 0, true selects buffer 1
	dirty  []bool // dirty[node]: an Update flipped this node since the last Keep/Restore
}

// New allocates a cache for numNodes branches, numMixtures site-rate
// categories, numHeterotachy per-branch rate categories (pass 1 if
// heterotachy is not used), and an alphabet of size C.
func New(numNodes, numMixtures, numHeterotachy, alphabet int) *Cache {
	if numHeterotachy < 1 {
		numHeterotachy = 1
	}
	size := 2 * numNodes * numMixtures * numHeterotachy * alphabet * alphabet
	return &Cache{
		numNodes:       numNodes,
		numMixtures:    numMixtures,
		numHeterotachy: numHeterotachy,
		alphabet:       alphabet,
		buf:            make([]float64, size),
		active:         make([]bool, numNodes),
		dirty:          make([]bool, numNodes),
	}
}

func (c *Cache) activeBit(node int) int {
	if c.active[node] {
		return 1
	}
	return 0
}

// nodeStride is the number of float64 slots one (active-buffer, node)
// block occupies across every (mixture, heterotachy, c1, c2).
func (c *Cache) nodeStride() int {
	return c.numMixtures * c.numHeterotachy * c.alphabet * c.alphabet
}

func (c *Cache) bufStride() int {
	return c.numNodes * c.nodeStride()
}

// offset returns the flat index of entry (activeBit, node, mixture,
// heterotachy, c1, c2).
func (c *Cache) offset(activeBit, node, mixture, heterotachy, c1, c2 int) int {
	withinNode := (mixture*c.numHeterotachy+heterotachy)*c.alphabet*c.alphabet + c1*c.alphabet + c2
	return activeBit*c.bufStride() + node*c.nodeStride() + withinNode
}

// Entry returns P[c1][c2] for node's current active buffer.
func (c *Cache) Entry(node, mixture, heterotachy, c1, c2 int) float64 {
	return c.buf[c.offset(c.activeBit(node), node, mixture, heterotachy, c1, c2)]
}

// Update stores the transition-probability matrix p for node in the (m,k)
// slot selected by mixture and heterotachy. The first Update of node since
// the last Keep/Restore copies node's current matrices into the inactive
// buffer and flips node's active bit, so the old buffer keeps the
// pre-touch matrices for Restore; later Updates in the same step write
// into the already-flipped buffer.
func (c *Cache) Update(node, mixture, heterotachy int, p [][]float64) {
	if !c.dirty[node] {
		from := c.activeBit(node)*c.bufStride() + node*c.nodeStride()
		to := (1-c.activeBit(node))*c.bufStride() + node*c.nodeStride()
		copy(c.buf[to:to+c.nodeStride()], c.buf[from:from+c.nodeStride()])
		c.active[node] = !c.active[node]
		c.dirty[node] = true
	}
	current := c.activeBit(node)
	for c1 := 0; c1 < c.alphabet; c1++ {
		for c2 := 0; c2 < c.alphabet; c2++ {
			c.buf[c.offset(current, node, mixture, heterotachy, c1, c2)] = p[c1][c2]
		}
	}
}

// Keep confirms the pending flip for node (a no-op on the buffer: the
// flipped bit already points at the freshly computed matrices).
func (c *Cache) Keep(node int) {
	c.dirty[node] = false
}

// Restore reverts the pending flip for node, making the pre-touch matrices
// active again.
func (c *Cache) Restore(node int) {
	if !c.dirty[node] {
		return
	}
	c.active[node] = !c.active[node]
	c.dirty[node] = false
}

// Dirty reports whether node has an unconfirmed Update pending.
func (c *Cache) Dirty(node int) bool { return c.dirty[node] }

// NumMixtures, NumHeterotachy, NumNodes, and Alphabet expose the cache's
// shape.
func (c *Cache) NumMixtures() int    { return c.numMixtures }
func (c *Cache) NumHeterotachy() int { return c.numHeterotachy }
func (c *Cache) NumNodes() int       { return c.numNodes }
func (c *Cache) Alphabet() int       { return c.alphabet }
