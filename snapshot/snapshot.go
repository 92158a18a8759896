// Package snapshot extracts a tomographic-slab frame from a particle pool
// for the visual client (spec.md §4.8, component C8), grounded on the
// teacher's telemetry.Snapshot/EntityState JSON shape, generalized from a
// top-down 2D organism view to a thin slab cut through a 3D gas.
package snapshot

import (
	"math"

	"github.com/pthm-cable/reactorcore/pool"
)

// Particle is one reported occupant of the slab.
type Particle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Type   int     `json:"type"`
	Energy float64 `json:"energy"`
}

// EnergyStats reports the fixed reference used to normalize per-particle
// kinetic energy, so brightness encodes absolute energy rather than rank
// within the current frame (spec.md §4.8).
type EnergyStats struct {
	Threshold float64 `json:"threshold"`
	RefTemp   float64 `json:"refTemp"`
}

// Frame is the semantic schema spec.md §6 hands to the visual client.
type Frame struct {
	Time               float64     `json:"time"`
	SubstanceCounts    map[int]int `json:"substanceCounts"`
	ActiveCount        int         `json:"activeCount"`
	CurrentTemperature float64     `json:"currentTemperature"`
	EnergyStats        EnergyStats `json:"energyStats"`
	Particles          []Particle  `json:"particles"`
}

// Extractor holds the parameters needed to slice a frame out of a pool:
// the slab thickness and the fixed reference temperature against which
// every frame's energies are normalized, so that two frames taken at
// different instantaneous temperatures remain visually comparable
// (spec.md §4.8).
type Extractor struct {
	Mass       float64
	BoltzmannK float64
	Thickness  float64
	RefTemp    float64
}

// referenceEnergy returns the mean kinetic energy of one degree-of-freedom
// group at RefTemp, i.e. (3/2)*k_B*RefTemp, used both as the normalization
// denominator and as the reported high-energy threshold (spec.md §4.8:
// "a fixed high-energy threshold equal to the mean kinetic energy at the
// reference temperature").
func (e Extractor) referenceEnergy() float64 {
	return 1.5 * e.BoltzmannK * e.RefTemp
}

// Extract builds a Frame from the pool's current state at simulation time
// t and instantaneous temperature currentTemp. Only active particles whose
// z lies within ±h/2 of L/2 are reported (the fixed tomographic slab).
func (e Extractor) Extract(p *pool.Pool, t, currentTemp float64) Frame {
	l := p.BoxSize()
	zMid := l / 2
	halfH := e.Thickness / 2
	refE := e.referenceEnergy()

	frame := Frame{
		Time:               t,
		SubstanceCounts:    map[int]int{},
		CurrentTemperature: currentTemp,
		EnergyStats: EnergyStats{
			Threshold: refE,
			RefTemp:   e.RefTemp,
		},
	}

	for i := 0; i < p.Cap(); i++ {
		ty := p.Type[i]
		if !pool.IsActive(ty) {
			continue
		}
		frame.ActiveCount++
		frame.SubstanceCounts[int(ty)]++

		if math.Abs(p.PosZ[i]-zMid) > halfH {
			continue
		}

		vx, vy, vz := p.VelX[i], p.VelY[i], p.VelZ[i]
		ke := 0.5 * e.Mass * (vx*vx + vy*vy + vz*vz)
		energy := 0.0
		if refE > 0 {
			energy = ke / refE
			if energy > 1 {
				energy = 1
			}
		}

		frame.Particles = append(frame.Particles, Particle{
			X:      p.PosX[i] / l,
			Y:      p.PosY[i] / l,
			Type:   int(ty),
			Energy: energy,
		})
	}

	return frame
}
