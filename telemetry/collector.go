// Package telemetry accumulates per-step diagnostics and optionally dumps
// them to CSV. It is an optional, disabled-by-default aid (spec.md's
// supplemented diagnostics, not a required engine component), grounded on
// the teacher's telemetry.OutputManager (gocsv-based CSV writer) and
// telemetry.Collector (windowed stats accumulation).
package telemetry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/reactorcore/snapshot"
)

// Record is one row of the diagnostics CSV: a snapshot in time plus the
// step counters passed to Observe with it.
type Record struct {
	Time            float64 `csv:"time"`
	ActiveCount     int     `csv:"active_count"`
	Temperature     float64 `csv:"temperature"`
	PairsChecked    int     `csv:"pairs_checked"`
	Collisions      int     `csv:"collisions"`
	Reactions       int     `csv:"reactions"`
	DecaysFired     int     `csv:"decays_fired"`
	DecaysAborted   int     `csv:"decays_aborted"`
	SubstanceCounts string  `csv:"substance_counts"`
}

// StepStats is the subset of engine.StepStats a Collector needs; declared
// independently so this package does not import engine (which imports
// telemetry's sibling packages but never telemetry itself).
type StepStats struct {
	PairsChecked  int
	Collisions    int
	Reactions     int
	DecaysFired   int
	DecaysAborted int
}

// Collector accumulates Records in memory for later CSV export. It is
// safe to leave unused (a nil *Collector's methods are no-ops), mirroring
// the teacher's OutputManager nil-receiver convention for "disabled by
// default" output.
type Collector struct {
	records []Record
}

// NewCollector creates an empty collector.
func NewCollector(substanceCount int) *Collector {
	return &Collector{}
}

// Observe appends one diagnostics row built from a snapshot frame and the
// given step counters. The counters are stored as passed; they are not
// summed across calls.
func (c *Collector) Observe(frame snapshot.Frame, stats StepStats) {
	if c == nil {
		return
	}
	c.records = append(c.records, Record{
		Time:            frame.Time,
		ActiveCount:     frame.ActiveCount,
		Temperature:     frame.CurrentTemperature,
		PairsChecked:    stats.PairsChecked,
		Collisions:      stats.Collisions,
		Reactions:       stats.Reactions,
		DecaysFired:     stats.DecaysFired,
		DecaysAborted:   stats.DecaysAborted,
		SubstanceCounts: formatSubstanceCounts(frame.SubstanceCounts),
	})
}

// formatSubstanceCounts renders a substance-id -> count map as a stable,
// human-readable string ("0:120;1:45"), since gocsv maps one struct field
// to one column and the substance count is not known at compile time.
func formatSubstanceCounts(counts map[int]int) string {
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d:%d", id, counts[id])
	}
	return strings.Join(parts, ";")
}

// WriteCSV writes every accumulated record to path as a single CSV file.
func (c *Collector) WriteCSV(path string) error {
	if c == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("telemetry: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(c.records, f); err != nil {
		return fmt.Errorf("telemetry: writing %s: %w", path, err)
	}
	return nil
}

// Len returns the number of accumulated records.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}
