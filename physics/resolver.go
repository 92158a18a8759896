package physics

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/reactorcore/grid"
	"github.com/pthm-cable/reactorcore/pool"
	"github.com/pthm-cable/reactorcore/reaction"
)

// contactEpsilon floors the squared-distance contact test to avoid a
// division by zero for coincident particles (spec.md §4.4).
const contactEpsilon = 1e-9

// ResolveStats summarizes one pair-resolution pass, useful for telemetry
// and for the testable properties in spec.md §8 (e.g. branching-ratio
// checks on competing channels).
type ResolveStats struct {
	PairsChecked  int
	Collisions    int
	Reactions     int
	ReactionByRow map[int]int
}

// PairResolver distributes cell indices of a CellIndex across a worker
// pool and resolves pairwise contacts (spec.md §4.4, §5, component C4).
// Each worker owns its own *rand.Rand (math/rand.Rand is not safe for
// concurrent use), mirroring the teacher's per-worker scratch buffers in
// game/parallel.go.
type PairResolver struct {
	Mass       float64
	BoltzmannK float64
	Radii      []float64 // indexed by type id

	// Workers is the number of goroutines to fan the cell range across.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// Resolve performs exactly one pass over all unordered active pairs
// within interaction range, applying elastic or reactive impulses
// in-place. It calls p.InvalidateActiveCount() itself at the end of the
// synchronous join, since the parallel cell tasks write p.Type directly
// rather than through the pool's cache-invalidating helpers to avoid a
// race on that cache flag.
func (r PairResolver) Resolve(p *pool.Pool, idx *grid.CellIndex, table *reaction.Table, temperature float64, rngs []*rand.Rand) ResolveStats {
	numCells := idx.NumCells()
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numCells {
		workers = numCells
	}
	if workers < 1 {
		workers = 1
	}
	if len(rngs) < workers {
		panic("physics: PairResolver.Resolve requires one *rand.Rand per worker")
	}

	statsPerWorker := make([]ResolveStats, workers)
	chunk := (numCells + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > numCells {
			end = numCells
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(worker, c0, c1 int) {
			defer wg.Done()
			statsPerWorker[worker] = r.resolveCellRange(p, idx, table, temperature, rngs[worker], c0, c1)
		}(w, start, end)
	}
	wg.Wait()

	total := ResolveStats{ReactionByRow: map[int]int{}}
	for _, s := range statsPerWorker {
		total.PairsChecked += s.PairsChecked
		total.Collisions += s.Collisions
		total.Reactions += s.Reactions
		for row, n := range s.ReactionByRow {
			total.ReactionByRow[row] += n
		}
	}

	p.InvalidateActiveCount()
	return total
}

// resolveCellRange processes cells [c0,c1), scanning each occupant's
// 27-neighbor stencil. Correctness of the lock-free parallelism rests on
// two invariants (spec.md §5): each unordered pair is visited by exactly
// one cell task (the i<j filter plus full 27-neighbor scan guarantees
// this), and the cell index itself is not mutated during resolution, so a
// particle's cell membership — and hence which task may ever touch it —
// is fixed for the duration of the pass.
func (r PairResolver) resolveCellRange(p *pool.Pool, idx *grid.CellIndex, table *reaction.Table, temperature float64, rng *rand.Rand, c0, c1 int) ResolveStats {
	stats := ResolveStats{ReactionByRow: map[int]int{}}
	m := idx.M

	// With fewer than three cells per axis the -1/0/+1 offsets wrap onto
	// the same cells, so only the distinct offsets are scanned.
	lo, hi := -1, 1
	switch m {
	case 1:
		lo, hi = 0, 0
	case 2:
		lo, hi = 0, 1
	}

	for cell := c0; cell < c1; cell++ {
		cx := cell % m
		cy := (cell / m) % m
		cz := cell / (m * m)

		for i := idx.Head[cell]; i != -1; i = idx.Next[i] {
			for ox := lo; ox <= hi; ox++ {
				for oy := lo; oy <= hi; oy++ {
					for oz := lo; oz <= hi; oz++ {
						nCell := idx.Linearize(idx.WrapCoord(cx, ox), idx.WrapCoord(cy, oy), idx.WrapCoord(cz, oz))

						for j := idx.Head[nCell]; j != -1; j = idx.Next[j] {
							if int(i) < int(j) {
								r.resolvePair(p, table, temperature, rng, int(i), int(j), &stats)
							}
						}
					}
				}
			}
		}
	}
	return stats
}

func (r PairResolver) resolvePair(p *pool.Pool, table *reaction.Table, temperature float64, rng *rand.Rand, i, j int, stats *ResolveStats) {
	// Types may have been mutated earlier in this same tick by another
	// pair this particle was part of; the activity guard is checked here,
	// immediately before resolution (spec.md §4.4 edge cases).
	ti, tj := p.Type[i], p.Type[j]
	if !pool.IsActive(ti) || !pool.IsActive(tj) {
		return
	}
	if int(ti) >= len(r.Radii) || int(tj) >= len(r.Radii) {
		return
	}

	stats.PairsChecked++

	l := p.BoxSize()
	dx := minImage(p.PosX[i]-p.PosX[j], l)
	dy := minImage(p.PosY[i]-p.PosY[j], l)
	dz := minImage(p.PosZ[i]-p.PosZ[j], l)
	d2 := dx*dx + dy*dy + dz*dz

	if d2 < contactEpsilon {
		return
	}
	collisionDist := r.Radii[ti] + r.Radii[tj]
	if d2 >= collisionDist*collisionDist {
		return
	}

	dist := math.Sqrt(d2)
	nx, ny, nz := dx/dist, dy/dist, dz/dist

	dvx := p.VelX[i] - p.VelX[j]
	dvy := p.VelY[i] - p.VelY[j]
	dvz := p.VelZ[i] - p.VelZ[j]
	vn := dvx*nx + dvy*ny + dvz*nz

	if vn >= 0 {
		return // separating, not a collision (spec.md §4.4 "Approach test")
	}
	stats.Collisions++

	mu := r.Mass / 2
	ec := 0.5 * mu * vn * vn

	row, ok := r.selectReaction(table, int(ti), int(tj), ec, temperature, rng)
	if !ok {
		// Elastic: exchange the normal velocity component (equal masses).
		p.VelX[i] -= vn * nx
		p.VelY[i] -= vn * ny
		p.VelZ[i] -= vn * nz
		p.VelX[j] += vn * nx
		p.VelY[j] += vn * ny
		p.VelZ[j] += vn * nz
		return
	}

	stats.Reactions++
	stats.ReactionByRow[row.rowIndex]++

	q := row.ER - row.EF
	vn2New := vn*vn + 4*q/r.Mass
	if vn2New < 0 {
		vn2New = 0
	}
	vnNew := math.Sqrt(vn2New)
	j2 := 0.5 * (vnNew - vn)

	p.VelX[i] += j2 * nx
	p.VelY[i] += j2 * ny
	p.VelZ[i] += j2 * nz
	p.VelX[j] -= j2 * nx
	p.VelY[j] -= j2 * ny
	p.VelZ[j] -= j2 * nz

	pi, pj := row.productFor(int(ti), int(tj))
	setType(p, i, pi)
	setType(p, j, pj)
}

func setType(p *pool.Pool, slot, t int) {
	p.Type[slot] = int32(t)
}

type selectedRow struct {
	reaction.TwoBodyRow
	rowIndex int
}

// productFor returns the product type assigned to the particle that
// matched ti (first return) and tj (second return), respecting the row's
// reactant orientation (R0 may equal either ti or tj).
func (s selectedRow) productFor(ti, tj int) (pi, pj int) {
	if s.R0 == ti && s.R1 == tj {
		return s.P0, s.P1
	}
	return s.P1, s.P0
}

// selectReaction gathers every two-body row whose reactant pair matches
// {ti,tj} and whose forward barrier is cleared by the collision energy,
// then samples one by Boltzmann weight exp(-E_f/(k_B*T)) — never
// first-match, per spec.md §4.4/§9: first-match would distort branching
// ratios toward table order.
func (r PairResolver) selectReaction(table *reaction.Table, ti, tj int, ec, temperature float64, rng *rand.Rand) (selectedRow, bool) {
	var candidates []selectedRow
	var weights []float64

	for idx, row := range table.TwoBody {
		if !row.Matches(ti, tj) {
			continue
		}
		if row.EF > ec {
			continue
		}
		candidates = append(candidates, selectedRow{row, idx})
		weights = append(weights, math.Exp(-row.EF/(r.BoltzmannK*temperature)))
	}

	if len(candidates) == 0 {
		return selectedRow{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	cat := distuv.NewCategorical(weights, rng)
	pick := int(cat.Rand())
	return candidates[pick], true
}

// minImage shortens a single-axis displacement across the periodic
// boundary so it lies in [-L/2, L/2]: a component is shifted by ±L only
// when its magnitude exceeds L/2 (spec.md's Minimum-image displacement,
// GLOSSARY).
func minImage(d, l float64) float64 {
	if d > l/2 {
		return d - l
	}
	if d < -l/2 {
		return d + l
	}
	return d
}

// NewWorkerRNGs creates one independent *rand.Rand per worker, seeded
// deterministically from a parent seed so a run is reproducible given the
// same seed and worker count.
func NewWorkerRNGs(workers int, seed int64) []*rand.Rand {
	rngs := make([]*rand.Rand, workers)
	seeder := rand.New(rand.NewSource(seed))
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(seeder.Int63()))
	}
	return rngs
}
