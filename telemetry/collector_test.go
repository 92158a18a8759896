package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/reactorcore/snapshot"
)

func TestNilCollectorMethodsAreNoOps(t *testing.T) {
	var c *Collector
	c.Observe(snapshot.Frame{}, StepStats{})
	if c.Len() != 0 {
		t.Errorf("Len on nil collector = %d, want 0", c.Len())
	}
	if err := c.WriteCSV(filepath.Join(t.TempDir(), "x.csv")); err != nil {
		t.Errorf("WriteCSV on nil collector: unexpected error: %v", err)
	}
}

func TestObserveAccumulatesRecords(t *testing.T) {
	c := NewCollector(2)
	c.Observe(snapshot.Frame{
		Time:               1.0,
		ActiveCount:        10,
		CurrentTemperature: 300,
		SubstanceCounts:    map[int]int{0: 7, 1: 3},
	}, StepStats{PairsChecked: 5, Collisions: 2, Reactions: 1})

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestWriteCSVProducesExpectedColumns(t *testing.T) {
	c := NewCollector(2)
	c.Observe(snapshot.Frame{
		Time:               1.0,
		ActiveCount:        10,
		CurrentTemperature: 300,
		SubstanceCounts:    map[int]int{0: 7, 1: 3},
	}, StepStats{PairsChecked: 5, Collisions: 2, Reactions: 1, DecaysFired: 1, DecaysAborted: 0})

	path := filepath.Join(t.TempDir(), "diag.csv")
	if err := c.WriteCSV(path); err != nil {
		t.Fatalf("WriteCSV: unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written csv: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "time") || !strings.Contains(content, "substance_counts") {
		t.Errorf("csv missing expected headers: %q", content)
	}
	if !strings.Contains(content, "0:7;1:3") {
		t.Errorf("csv missing formatted substance counts: %q", content)
	}
}

func TestWindowComputesMeansOverTrailingRecords(t *testing.T) {
	c := NewCollector(1)
	for _, temp := range []float64{100, 200, 300} {
		c.Observe(snapshot.Frame{CurrentTemperature: temp, ActiveCount: 10}, StepStats{Reactions: 1})
	}

	w := c.Window(2) // last two: 200, 300
	if w.MeanTemperature != 250 {
		t.Errorf("MeanTemperature = %v, want 250", w.MeanTemperature)
	}
	if w.TotalReactions != 2 {
		t.Errorf("TotalReactions = %d, want 2", w.TotalReactions)
	}
}

func TestHalfLife(t *testing.T) {
	if got := HalfLife(0); got != 0 {
		t.Errorf("HalfLife(0) = %v, want 0", got)
	}
	got := HalfLife(ln2)
	if got < 0.999 || got > 1.001 {
		t.Errorf("HalfLife(ln2) = %v, want ~1.0", got)
	}
}
