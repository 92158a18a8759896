// Package pool implements the fixed-capacity particle pool (spec.md §3,
// §4.1, component C1): parallel SoA arrays of position/velocity/type with
// active/inactive slot recycling. It is grounded on the teacher's
// mass-conserving particle field (systems/particle_resource.go), which
// already solves "fixed capacity, SoA layout, tag slots free, recycle by
// linear scan" for a different (resource-packet) domain.
package pool

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/reactorcore/config"
)

// Inactive marks a pool slot as free for recycling (spec.md §3).
const Inactive int32 = -1

// Pool is a fixed-capacity collection of particle slots. Position and
// velocity are stored as three parallel float64 slices per axis rather
// than an array-of-structs, for the same cache-locality reason the
// teacher's particle field uses parallel X/Y slices.
type Pool struct {
	PosX, PosY, PosZ []float64
	VelX, VelY, VelZ []float64
	Type             []int32

	maxParticles int
	boxSize      float64

	activeCount      int
	activeCountValid bool
}

// New allocates a pool with the given fixed capacity. All slots start
// inactive; call Init to seed a population.
func New(maxParticles int, boxSize float64) *Pool {
	p := &Pool{
		PosX: make([]float64, maxParticles),
		PosY: make([]float64, maxParticles),
		PosZ: make([]float64, maxParticles),
		VelX: make([]float64, maxParticles),
		VelY: make([]float64, maxParticles),
		VelZ: make([]float64, maxParticles),
		Type: make([]int32, maxParticles),

		maxParticles: maxParticles,
		boxSize:      boxSize,
	}
	for i := range p.Type {
		p.Type[i] = Inactive
	}
	return p
}

// Cap returns the pool's fixed slot capacity (N_max).
func (p *Pool) Cap() int { return p.maxParticles }

// BoxSize returns the current box side length L.
func (p *Pool) BoxSize() float64 { return p.boxSize }

// SetBoxSize updates L without touching particle positions; callers that
// need to rescale positions proportionally (spec.md §4.9 update_box) must
// do so themselves before or after calling this.
func (p *Pool) SetBoxSize(l float64) { p.boxSize = l }

// IsActive reports whether a type id denotes an active slot.
func IsActive(t int32) bool { return t >= 0 }

// Init seeds every slot: positions uniform in [0,L)^3, velocities from an
// isotropic Gaussian with sigma = sqrt(k_B*T/m), then removes the mean
// velocity of the active subset so center-of-mass drift is zero
// (spec.md §4.1). All slots beyond the declared initial populations are
// left inactive.
func (p *Pool) Init(species []config.Substance, mass, boltzmannK, temperature float64, rng *rand.Rand) error {
	for i := range p.Type {
		p.Type[i] = Inactive
		p.PosX[i], p.PosY[i], p.PosZ[i] = 0, 0, 0
		p.VelX[i], p.VelY[i], p.VelZ[i] = 0, 0, 0
	}

	sigma := 0.0
	if mass > 0 && boltzmannK > 0 && temperature > 0 {
		sigma = math.Sqrt(boltzmannK * temperature / mass)
	}
	normal := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}

	slot := 0
	for _, s := range species {
		for k := 0; k < s.InitialCount; k++ {
			if slot >= p.maxParticles {
				break
			}
			p.PosX[slot] = rng.Float64() * p.boxSize
			p.PosY[slot] = rng.Float64() * p.boxSize
			p.PosZ[slot] = rng.Float64() * p.boxSize
			p.VelX[slot] = normal.Rand()
			p.VelY[slot] = normal.Rand()
			p.VelZ[slot] = normal.Rand()
			p.Type[slot] = int32(s.ID)
			slot++
		}
	}

	p.removeMeanVelocity(0, slot)
	p.invalidateActiveCount()
	return nil
}

// removeMeanVelocity subtracts the mean velocity of slots [start,n) so the
// initial population carries zero net momentum.
func (p *Pool) removeMeanVelocity(start, n int) {
	if n-start <= 0 {
		return
	}
	var mx, my, mz float64
	count := 0
	for i := start; i < n; i++ {
		if !IsActive(p.Type[i]) {
			continue
		}
		mx += p.VelX[i]
		my += p.VelY[i]
		mz += p.VelZ[i]
		count++
	}
	if count == 0 {
		return
	}
	mx /= float64(count)
	my /= float64(count)
	mz /= float64(count)
	for i := start; i < n; i++ {
		if !IsActive(p.Type[i]) {
			continue
		}
		p.VelX[i] -= mx
		p.VelY[i] -= my
		p.VelZ[i] -= mz
	}
}

// RecycleSlot returns the smallest index with Type == Inactive, or a
// negative sentinel if the pool is full. No freelist is maintained: a
// linear scan is acceptable because decay rates are small per step and
// the pool size is O(10^4) (spec.md §4.1, §9).
func (p *Pool) RecycleSlot() int {
	for i, t := range p.Type {
		if t == Inactive {
			return i
		}
	}
	return -1
}

// Activate assigns a type to a slot, marking it active, and invalidates
// the cached active count.
func (p *Pool) Activate(i int, t int32) {
	p.Type[i] = t
	p.invalidateActiveCount()
}

// Deactivate frees a slot by convention (spec.md §4.4): its pos/vel
// entries become semantically dead but are left in place.
func (p *Pool) Deactivate(i int) {
	p.Type[i] = Inactive
	p.invalidateActiveCount()
}

func (p *Pool) invalidateActiveCount() { p.activeCountValid = false }

// InvalidateActiveCount marks the cached active count stale. Exported so
// the parallel pair resolver (physics.PairResolver.Resolve), which mutates
// p.Type directly to avoid a data race on the cache flag from concurrent
// cell tasks, can invalidate the cache exactly once after its single-
// threaded join point instead of on every mutation.
func (p *Pool) InvalidateActiveCount() { p.invalidateActiveCount() }

// ActiveCount returns the cached number of active slots, recomputing it
// if a reaction or decay has invalidated the cache since the last call
// (spec.md §3 "Active count N_act is cached...").
func (p *Pool) ActiveCount() int {
	if !p.activeCountValid {
		n := 0
		for _, t := range p.Type {
			if IsActive(t) {
				n++
			}
		}
		p.activeCount = n
		p.activeCountValid = true
	}
	return p.activeCount
}

// CountsBySpecies returns the number of active slots per species id, for
// substanceCount declared species.
func (p *Pool) CountsBySpecies(substanceCount int) []int {
	counts := make([]int, substanceCount)
	for _, t := range p.Type {
		if t >= 0 && int(t) < substanceCount {
			counts[t]++
		}
	}
	return counts
}
