package physics

import (
	"math"
	"testing"

	"github.com/pthm-cable/reactorcore/pool"
)

func TestDriftWrapsAcrossPeriodicBoundary(t *testing.T) {
	p := pool.New(1, 10.0)
	p.Type[0] = 0
	p.PosX[0] = 9.5
	p.VelX[0] = 2.0 // would land at 11.5 without wrapping

	Drift(p, 1.0)

	if math.Abs(p.PosX[0]-1.5) > 1e-12 {
		t.Errorf("PosX = %v, want 1.5", p.PosX[0])
	}
}

func TestDriftNeverProducesNegativePosition(t *testing.T) {
	p := pool.New(1, 10.0)
	p.Type[0] = 0
	p.PosX[0] = 0.5
	p.VelX[0] = -3.0

	Drift(p, 1.0)

	if p.PosX[0] < 0 {
		t.Errorf("PosX = %v, want a non-negative wrapped value", p.PosX[0])
	}
}

func TestRescalePositionsScalesAllSlots(t *testing.T) {
	p := pool.New(2, 10.0)
	p.PosX[0], p.PosY[0], p.PosZ[0] = 1, 2, 3
	p.PosX[1], p.PosY[1], p.PosZ[1] = 4, 5, 6

	RescalePositions(p, 2.0)

	if p.PosX[0] != 2 || p.PosY[0] != 4 || p.PosZ[0] != 6 {
		t.Errorf("slot 0 not rescaled correctly: (%v,%v,%v)", p.PosX[0], p.PosY[0], p.PosZ[0])
	}
	if p.PosX[1] != 8 || p.PosY[1] != 10 || p.PosZ[1] != 12 {
		t.Errorf("slot 1 not rescaled correctly: (%v,%v,%v)", p.PosX[1], p.PosY[1], p.PosZ[1])
	}
}
