package physics

import (
	"math"
	"testing"

	"github.com/pthm-cable/reactorcore/pool"
)

func setUniformVelocity(p *pool.Pool, n int, v float64) {
	for i := 0; i < n; i++ {
		p.Type[i] = 0
		p.VelX[i], p.VelY[i], p.VelZ[i] = v, 0, 0
	}
}

func TestMeasureComputesKineticTemperature(t *testing.T) {
	p := pool.New(10, 10.0)
	setUniformVelocity(p, 10, 2.0)

	th := Thermostat{Mass: 1.0, BoltzmannK: 1.0}
	temp, n := th.Measure(p)
	if n != 10 {
		t.Fatalf("n = %d, want 10", n)
	}
	want := 1.0 * 4.0 / 3.0 // m*v^2/(3*k_B)
	if math.Abs(temp-want) > 1e-9 {
		t.Errorf("temperature = %v, want %v", temp, want)
	}
}

func TestApplyClampsRescaleFactor(t *testing.T) {
	p := pool.New(10, 10.0)
	setUniformVelocity(p, 10, 2.0)

	th := Thermostat{Mass: 1.0, BoltzmannK: 1.0}
	measured, scale := th.Apply(p, 1e6) // enormous target, should clamp the scale up
	if measured <= 0 {
		t.Fatalf("measured = %v, want > 0", measured)
	}
	if scale != clampHigh {
		t.Errorf("scale = %v, want clampHigh (%v)", scale, clampHigh)
	}
	if p.VelX[0] != 2.0*clampHigh {
		t.Errorf("VelX[0] = %v, want %v", p.VelX[0], 2.0*clampHigh)
	}
}

func TestRetargetMatchesExactly(t *testing.T) {
	p := pool.New(10, 10.0)
	setUniformVelocity(p, 10, 2.0)

	th := Thermostat{Mass: 1.0, BoltzmannK: 1.0}
	th.Retarget(p, 9.0)

	temp, _ := th.Measure(p)
	if math.Abs(temp-9.0) > 1e-6 {
		t.Errorf("temperature after Retarget = %v, want 9.0", temp)
	}
}

func TestMeasureReturnsZeroWithNoActiveParticles(t *testing.T) {
	p := pool.New(5, 10.0)
	th := Thermostat{Mass: 1.0, BoltzmannK: 1.0}
	temp, n := th.Measure(p)
	if n != 0 || temp != 0 {
		t.Errorf("Measure on empty pool = (%v,%v), want (0,0)", temp, n)
	}
}
