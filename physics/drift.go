// Package physics implements the per-step pipeline described in spec.md
// §4: symplectic drift under periodic boundaries (C2), the parallel pair
// resolver (C4), first-order decay (C5), and the velocity-rescaling
// thermostat (C6). It is grounded on the teacher's physics pass
// (systems/physics.go), its parallel snapshot/chunk worker pool
// (game/parallel.go), and the momentum-conserving organism split
// (systems/splitting.go), generalized from 2D toroidal organisms to a 3D
// reactive hard-sphere gas.
package physics

import (
	"math"

	"github.com/pthm-cable/reactorcore/pool"
)

// Drift advances every slot's position by velocity*dt and wraps it into
// [0,L) per axis (spec.md §4.2). It runs over inactive slots too — their
// data is harmless and skipping them would cost a branch for no benefit,
// matching spec.md's "trivially data-parallel over slots" framing.
func Drift(p *pool.Pool, dt float64) {
	l := p.BoxSize()
	for i := 0; i < p.Cap(); i++ {
		p.PosX[i] = wrap(p.PosX[i]+p.VelX[i]*dt, l)
		p.PosY[i] = wrap(p.PosY[i]+p.VelY[i]*dt, l)
		p.PosZ[i] = wrap(p.PosZ[i]+p.VelZ[i]*dt, l)
	}
}

// wrap returns x mod l in [0,l), matching spec.md §4.2's guarantee that
// the modulo operation never yields a negative result.
func wrap(x, l float64) float64 {
	m := math.Mod(x, l)
	if m < 0 {
		m += l
	}
	return m
}

// RescalePositions multiplies every slot's position by factor, used by
// spec.md §4.9's update_box to keep particles proportionally placed when
// the box size changes.
func RescalePositions(p *pool.Pool, factor float64) {
	for i := 0; i < p.Cap(); i++ {
		p.PosX[i] *= factor
		p.PosY[i] *= factor
		p.PosZ[i] *= factor
	}
}
