package reaction

import (
	"testing"

	"github.com/pthm-cable/reactorcore/config"
)

func labels() map[string]int {
	return map[string]int{"A": 0, "B": 1}
}

func TestCompileTwoInOneOutDerivesReverse(t *testing.T) {
	radii := []float64{0.3, 0.3}
	table, err := Compile([]config.ReactionSpec{
		{Equation: "2A = B", EaForward: 1.0, EaReverse: 2.0},
	}, labels(), 2, radii)
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}

	if len(table.TwoBody) != 1 {
		t.Fatalf("expected 1 two-body row, got %d", len(table.TwoBody))
	}
	row := table.TwoBody[0]
	if row.R0 != 0 || row.R1 != 0 || row.P0 != 1 || row.P1 != -1 {
		t.Errorf("unexpected two-body row: %+v", row)
	}
	if row.EF != 1.0 || row.ER != 2.0 {
		t.Errorf("unexpected barriers: EF=%v ER=%v", row.EF, row.ER)
	}

	if len(table.OneBody) != 1 {
		t.Fatalf("expected 1 derived one-body reverse row, got %d", len(table.OneBody))
	}
	inv := table.OneBody[0]
	if inv.R != 1 || inv.P0 != 0 || inv.P1 != 0 {
		t.Errorf("unexpected derived reverse row: %+v", inv)
	}
	if inv.EA != 2.0 {
		t.Errorf("derived reverse EA = %v, want 2.0 (EaReverse)", inv.EA)
	}
	if inv.Derived == nil {
		t.Fatal("derived reverse row should carry a non-nil Derived rate function")
	}

	a := inv.FrequencyFactor(0.1, 1.0, 300)
	if a <= 0 {
		t.Errorf("derived frequency factor should be positive, got %v", a)
	}
}

func TestCompileTwoInTwoOutMirrorsReverse(t *testing.T) {
	table, err := Compile([]config.ReactionSpec{
		{Equation: "A + B = 2B", EaForward: 0.5, EaReverse: 0.8},
	}, labels(), 2, []float64{0.3, 0.3})
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	if len(table.TwoBody) != 2 {
		t.Fatalf("expected forward + mirrored reverse row, got %d", len(table.TwoBody))
	}
	fwd, rev := table.TwoBody[0], table.TwoBody[1]
	if fwd.R0 != 0 || fwd.R1 != 1 || fwd.P0 != 1 || fwd.P1 != 1 {
		t.Errorf("unexpected forward row: %+v", fwd)
	}
	if rev.R0 != 1 || rev.R1 != 1 || rev.P0 != 0 || rev.P1 != 1 {
		t.Errorf("unexpected reverse row: %+v", rev)
	}
	if rev.EF != fwd.ER || rev.ER != fwd.EF {
		t.Errorf("reverse row should swap EF/ER: fwd=%+v rev=%+v", fwd, rev)
	}
}

func TestCompileOneInOneOutSwapsBarriers(t *testing.T) {
	table, err := Compile([]config.ReactionSpec{
		{Equation: "A = B", EaForward: 0.2, EaReverse: 0.4, FrequencyFactor: 5.0},
	}, labels(), 2, []float64{0.3, 0.3})
	if err != nil {
		t.Fatalf("Compile: unexpected error: %v", err)
	}
	if len(table.OneBody) != 2 {
		t.Fatalf("expected forward + inverse one-body rows, got %d", len(table.OneBody))
	}
	fwd, inv := table.OneBody[0], table.OneBody[1]
	if fwd.R != 0 || fwd.P0 != 1 || fwd.EA != 0.2 {
		t.Errorf("unexpected forward row: %+v", fwd)
	}
	if inv.R != 1 || inv.P0 != 0 || inv.EA != 0.4 {
		t.Errorf("unexpected inverse row: %+v", inv)
	}
}

func TestCompileRejectsOutOfRangeType(t *testing.T) {
	_, err := Compile([]config.ReactionSpec{
		{ReactantTypes: []int{0}, ProductTypes: []int{5}, EaForward: 0.1},
	}, labels(), 2, []float64{0.3, 0.3})
	if err == nil {
		t.Fatal("expected an error for an out-of-range product type id")
	}
}

func TestCompileRejectsNegativeBarrier(t *testing.T) {
	_, err := Compile([]config.ReactionSpec{
		{Equation: "A = B", EaForward: -1},
	}, labels(), 2, []float64{0.3, 0.3})
	if err == nil {
		t.Fatal("expected an error for a negative activation energy")
	}
}
