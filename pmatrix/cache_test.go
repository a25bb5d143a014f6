package pmatrix_test

import (
	"testing"

	"github.com/evobayes/phylocore/pmatrix"
)

func identity(c int) [][]float64 {
	p := make([][]float64, c)
	for i := range p {
		p[i] = make([]float64, c)
		p[i][i] = 1
	}
	return p
}

func TestUpdateKeepRestore(t *testing.T) {
	c := pmatrix.New(1, 1, 1, 4)
	before := c.Entry(0, 0, 0, 1, 2)

	p := identity(4)
	p[1][2] = 0.75
	c.Update(0, 0, 0, p)
	if got := c.Entry(0, 0, 0, 1, 2); got != 0.75 {
		t.Fatalf("after update, entry = %v, want 0.75", got)
	}

	c.Restore(0)
	if got := c.Entry(0, 0, 0, 1, 2); got != before {
		t.Fatalf("after restore, entry = %v, want %v", got, before)
	}

	c.Update(0, 0, 0, p)
	c.Keep(0)
	if got := c.Entry(0, 0, 0, 1, 2); got != 0.75 {
		t.Fatalf("after keep, entry = %v, want 0.75", got)
	}
	// A Restore after Keep must be a no-op: the flip was already confirmed.
	c.Restore(0)
	if got := c.Entry(0, 0, 0, 1, 2); got != 0.75 {
		t.Fatalf("restore after keep changed entry to %v, want 0.75", got)
	}
}

func TestHeterotachyAddressingIsDistinct(t *testing.T) {
	// M=2 mixtures, H=2 heterotachy categories: every (m,k) pair must
	// resolve to a distinct cache slot.
	c := pmatrix.New(1, 2, 2, 2)
	seen := make(map[float64]bool)
	n := 0.0
	for m := 0; m < 2; m++ {
		for k := 0; k < 2; k++ {
			p := [][]float64{{n, 0}, {0, 0}}
			c.Update(0, m, k, p)
			c.Keep(0)
			n++
		}
	}
	for m := 0; m < 2; m++ {
		for k := 0; k < 2; k++ {
			v := c.Entry(0, m, k, 0, 0)
			if seen[v] {
				t.Fatalf("(m=%d,k=%d) aliases a value already seen: %v", m, k, v)
			}
			seen[v] = true
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct (m,k) values, got %d", len(seen))
	}
}
