package physics

import (
	"math"

	"github.com/pthm-cable/reactorcore/pool"
)

// Thermostat measures and optionally enforces a target kinetic
// temperature over the active subset of a pool (spec.md §4.6, C6),
// grounded on the original engine's apply_thermostat_numba: measure,
// clamp a soft Berendsen-like rescale factor to [0.99,1.01], apply.
type Thermostat struct {
	Mass       float64
	BoltzmannK float64
}

// clampLow and clampHigh bound the per-step rescale factor so the
// thermostat never injects an energy shock large enough to corrupt
// reactive energy bookkeeping (spec.md §4.6, §9).
const (
	clampLow  = 0.99
	clampHigh = 1.01
)

// Measure returns the instantaneous kinetic temperature of the active
// subset, T_inst = m*sum(|v|^2) / (3*N_act*k_B), and the active count.
// Returns (0, 0) if there are no active particles.
func (th Thermostat) Measure(p *pool.Pool) (temperature float64, nActive int) {
	var vSqSum float64
	n := 0
	for i := 0; i < p.Cap(); i++ {
		if !pool.IsActive(p.Type[i]) {
			continue
		}
		vx, vy, vz := p.VelX[i], p.VelY[i], p.VelZ[i]
		vSqSum += vx*vx + vy*vy + vz*vz
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return th.Mass * vSqSum / (3 * float64(n) * th.BoltzmannK), n
}

// Apply measures the instantaneous temperature and, if it is positive,
// rescales every active particle's velocity by a factor clamped to
// [0.99,1.01] toward target (spec.md §4.6). Returns the measured
// temperature before rescaling and the clamped scale factor actually
// applied (1.0 if no rescale occurred).
func (th Thermostat) Apply(p *pool.Pool, target float64) (measured, scale float64) {
	measured, n := th.Measure(p)
	if n == 0 || measured <= 0 {
		return measured, 1.0
	}

	scale = math.Sqrt(target / measured)
	if scale < clampLow {
		scale = clampLow
	} else if scale > clampHigh {
		scale = clampHigh
	}

	th.rescale(p, scale)
	return measured, scale
}

// Retarget applies a single unclamped rescale to exactly match target,
// for use only when the user interactively changes the temperature
// setpoint, so the new thermal state is visible immediately (spec.md
// §4.6).
func (th Thermostat) Retarget(p *pool.Pool, target float64) (measured, scale float64) {
	measured, n := th.Measure(p)
	if n == 0 || measured <= 0 {
		return measured, 1.0
	}
	scale = math.Sqrt(target / measured)
	th.rescale(p, scale)
	return measured, scale
}

func (th Thermostat) rescale(p *pool.Pool, scale float64) {
	for i := 0; i < p.Cap(); i++ {
		if !pool.IsActive(p.Type[i]) {
			continue
		}
		p.VelX[i] *= scale
		p.VelY[i] *= scale
		p.VelZ[i] *= scale
	}
}
