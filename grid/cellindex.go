// Package grid implements the linked-cell spatial index (spec.md §3, §4.3,
// component C3): a cubic grid of head/next int32 arrays giving O(1)
// amortized enumeration of same-cell and neighbor-cell particles. It
// generalizes the teacher's 2D slice-of-slices spatial hash
// (systems/spatial.go's SpatialGrid) to the spec's 3D linked-list layout,
// which avoids per-cell slice allocation entirely.
package grid

import "github.com/pthm-cable/reactorcore/pool"

// none is the sentinel for "no particle" in Head/Next.
const none int32 = -1

// CellIndex is a cubic M×M×M grid over [0,L)^3, built fresh every tick
// from the particle pool's active slots.
type CellIndex struct {
	M        int     // cells per axis
	cellSize float64 // L/M
	boxSize  float64

	Head []int32 // Head[cell] = most-recently-inserted active particle, or none
	Next []int32 // Next[i] = previously-inserted particle in the same cell, or none
}

// New builds a cell index sized for a box of side L and a maximum
// interaction radius rMax, clamped to at least one cell per axis
// (spec.md §3 "Cell index"). capacity is the particle pool's N_max, used
// to size Next.
func New(boxSize, rMax float64, capacity int) *CellIndex {
	m := int(boxSize / (3 * rMax))
	if m < 1 {
		m = 1
	}
	idx := &CellIndex{
		M:       m,
		boxSize: boxSize,
		Head:    make([]int32, m*m*m),
		Next:    make([]int32, capacity),
	}
	idx.cellSize = boxSize / float64(m)
	return idx
}

// Resize rebuilds the Head/Next arrays for a new box size or interaction
// radius (e.g. after spec.md §4.9's update_box), preserving capacity.
func (c *CellIndex) Resize(boxSize, rMax float64) {
	capacity := len(c.Next)
	*c = *New(boxSize, rMax, capacity)
}

// cellCoord converts a single axis coordinate into a clamped cell index,
// guarding against float error exactly at the L boundary (spec.md §4.3).
func (c *CellIndex) cellCoord(x float64) int {
	ci := int(x / c.cellSize)
	if ci < 0 {
		ci = 0
	} else if ci >= c.M {
		ci = c.M - 1
	}
	return ci
}

// Linearize maps 3D cell coordinates to a flat cell index.
func (c *CellIndex) Linearize(cx, cy, cz int) int {
	return cx + cy*c.M + cz*c.M*c.M
}

// Build clears Head/Next and reinserts every active particle from p.
// Inactive slots are skipped (spec.md §4.3); the cell assignment places
// the most recently inserted particle at Head[cell], with Next[i]
// linking to the previous occupant.
func (c *CellIndex) Build(p *pool.Pool) {
	for i := range c.Head {
		c.Head[i] = none
	}
	for i := range c.Next {
		c.Next[i] = none
	}

	for i := 0; i < p.Cap(); i++ {
		if !pool.IsActive(p.Type[i]) {
			continue
		}
		cx := c.cellCoord(p.PosX[i])
		cy := c.cellCoord(p.PosY[i])
		cz := c.cellCoord(p.PosZ[i])
		cell := c.Linearize(cx, cy, cz)

		c.Next[i] = c.Head[cell]
		c.Head[cell] = int32(i)
	}
}

// NumCells returns the total number of cells (M^3).
func (c *CellIndex) NumCells() int { return len(c.Head) }

// WrapCoord applies toroidal wrap to a single cell coordinate offset by
// delta, used when scanning the 27-neighbor stencil across a periodic
// boundary.
func (c *CellIndex) WrapCoord(coord, delta int) int {
	return ((coord+delta)%c.M + c.M) % c.M
}
