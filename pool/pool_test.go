package pool

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/reactorcore/config"
)

func TestInitSeedsDeclaredCountsAndLeavesRestInactive(t *testing.T) {
	p := New(100, 10.0)
	species := []config.Substance{
		{ID: 0, Label: "A", InitialCount: 10},
		{ID: 1, Label: "B", InitialCount: 5},
	}
	rng := rand.New(rand.NewSource(1))
	if err := p.Init(species, 1.0, 0.1, 300, rng); err != nil {
		t.Fatalf("Init: unexpected error: %v", err)
	}

	if got := p.ActiveCount(); got != 15 {
		t.Fatalf("ActiveCount = %d, want 15", got)
	}
	counts := p.CountsBySpecies(2)
	if counts[0] != 10 || counts[1] != 5 {
		t.Errorf("CountsBySpecies = %v, want [10 5]", counts)
	}
	for i := 15; i < p.Cap(); i++ {
		if IsActive(p.Type[i]) {
			t.Fatalf("slot %d should be inactive, has type %d", i, p.Type[i])
		}
	}
}

func TestInitRemovesMeanVelocity(t *testing.T) {
	p := New(200, 10.0)
	species := []config.Substance{{ID: 0, Label: "A", InitialCount: 200}}
	rng := rand.New(rand.NewSource(2))
	if err := p.Init(species, 1.0, 0.1, 300, rng); err != nil {
		t.Fatalf("Init: unexpected error: %v", err)
	}

	var sx, sy, sz float64
	for i := 0; i < p.Cap(); i++ {
		sx += p.VelX[i]
		sy += p.VelY[i]
		sz += p.VelZ[i]
	}
	const tol = 1e-9
	if abs(sx) > tol || abs(sy) > tol || abs(sz) > tol {
		t.Errorf("mean velocity not removed: sum=(%v,%v,%v)", sx, sy, sz)
	}
}

func TestRecycleSlotReturnsSmallestFreeIndex(t *testing.T) {
	p := New(5, 10.0)
	for i := range p.Type {
		p.Type[i] = 0
	}
	p.Type[2] = Inactive
	p.Type[4] = Inactive

	if got := p.RecycleSlot(); got != 2 {
		t.Fatalf("RecycleSlot = %d, want 2", got)
	}
}

func TestRecycleSlotReturnsNegativeWhenFull(t *testing.T) {
	p := New(3, 10.0)
	for i := range p.Type {
		p.Type[i] = 0
	}
	if got := p.RecycleSlot(); got >= 0 {
		t.Fatalf("RecycleSlot = %d, want a negative sentinel", got)
	}
}

func TestActivateDeactivateInvalidateCache(t *testing.T) {
	p := New(4, 10.0)
	if p.ActiveCount() != 0 {
		t.Fatalf("expected 0 active on a fresh pool")
	}
	p.Activate(0, 0)
	if p.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d after Activate, want 1", p.ActiveCount())
	}
	p.Deactivate(0)
	if p.ActiveCount() != 0 {
		t.Fatalf("ActiveCount = %d after Deactivate, want 0", p.ActiveCount())
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
