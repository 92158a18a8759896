package physics

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/reactorcore/pool"
	"github.com/pthm-cable/reactorcore/reaction"
)

// DecayStats summarizes one decay pass.
type DecayStats struct {
	Fired   int
	Aborted int // pool exhaustion or endothermic energy shortfall
	ByRow   map[int]int
}

// DecayEngine implements spec.md §4.5's first-order spontaneous
// decomposition (component C5), grounded on the original engine's
// process_1body_reactions (Arrhenius probability per step, slot
// recycling on split) and the teacher's momentum-conserving organism
// split (systems/splitting.go), generalized from a 2D cell-count split to
// an isotropically-sampled 3D fragment pair.
//
// The pass is serial: RecycleSlot's linear scan for a free slot would
// race if two decays ran concurrently and claimed the same slot, and
// serializing is simpler than locking the allocator (spec.md §5).
type DecayEngine struct {
	Mass       float64
	BoltzmannK float64
}

// Step scans every active slot once, rolling an Arrhenius-probability
// Bernoulli trial per applicable one-body row in table order and firing
// (at most) one channel per particle per step.
func (d DecayEngine) Step(p *pool.Pool, table *reaction.Table, temperature, dt float64, rng *rand.Rand) DecayStats {
	stats := DecayStats{ByRow: map[int]int{}}
	if len(table.OneBody) == 0 {
		return stats
	}

	for i := 0; i < p.Cap(); i++ {
		if !pool.IsActive(p.Type[i]) {
			continue
		}

		for rowIdx, row := range table.OneBody {
			if int(p.Type[i]) != row.R {
				continue
			}

			a := row.FrequencyFactor(d.BoltzmannK, d.Mass, temperature)
			k := a * math.Exp(-row.EA/(d.BoltzmannK*temperature))
			prob := k * dt
			if prob > 1.0 {
				prob = 1.0
			}

			if rng.Float64() >= prob {
				continue
			}

			if d.fire(p, row, i, rng, &stats) {
				stats.Fired++
				stats.ByRow[rowIdx]++
				break
			}
			stats.Aborted++
		}
	}

	p.InvalidateActiveCount()
	return stats
}

// fire applies one decay channel to slot i, returning true if it
// actually fired (false if it was aborted without changing state).
func (d DecayEngine) fire(p *pool.Pool, row reaction.OneBodyRow, i int, rng *rand.Rand, stats *DecayStats) bool {
	if row.P1 < 0 {
		// Mass-preserving rename, or annihilation if P0 is also -1.
		p.Type[i] = int32(row.P0)
		return true
	}

	// Two-product split: conserve linear momentum, partition Q into the
	// separation speed along an isotropically sampled direction
	// (spec.md §4.5).
	vx, vy, vz := p.VelX[i], p.VelY[i], p.VelZ[i]
	speedSq := vx*vx + vy*vy + vz*vz
	budget := row.Q/d.Mass + speedSq/4
	if budget < 0 {
		return false // parent too slow for an endothermic split
	}

	slot := p.RecycleSlot()
	if slot < 0 {
		return false // pool exhaustion: decay aborted, no partial state change
	}

	deltaV := math.Sqrt(budget)
	ex, ey, ez := isotropicDirection(rng)

	p.Type[i] = int32(row.P0)
	p.VelX[i] = vx/2 + deltaV*ex
	p.VelY[i] = vy/2 + deltaV*ey
	p.VelZ[i] = vz/2 + deltaV*ez

	p.PosX[slot] = p.PosX[i]
	p.PosY[slot] = p.PosY[i]
	p.PosZ[slot] = p.PosZ[i]
	p.VelX[slot] = vx/2 - deltaV*ex
	p.VelY[slot] = vy/2 - deltaV*ey
	p.VelZ[slot] = vz/2 - deltaV*ez
	p.Type[slot] = int32(row.P1)

	return true
}

// isotropicDirection samples a unit vector uniform on the sphere via
// cos(theta) uniform in [-1,1] and phi uniform in [0,2*pi) — not the
// incorrect "theta uniform, phi uniform" pattern that clusters mass at
// the poles (spec.md §4.5).
func isotropicDirection(rng *rand.Rand) (x, y, z float64) {
	cosTheta := rng.Float64()*2 - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := rng.Float64() * 2 * math.Pi
	return sinTheta * math.Cos(phi), sinTheta * math.Sin(phi), cosTheta
}
