package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// WindowStats summarizes accumulated Records over a trailing window,
// grounded on the teacher's WindowStats (periodic aggregate logging)
// generalized from population/species counts to reaction throughput.
type WindowStats struct {
	MeanTemperature float64
	MeanActiveCount float64
	TotalReactions  int
	TotalDecays     int
}

// Window computes aggregate statistics over the collector's last n
// records (or all of them if n <= 0 or n exceeds the count).
func (c *Collector) Window(n int) WindowStats {
	if c == nil || len(c.records) == 0 {
		return WindowStats{}
	}
	records := c.records
	if n > 0 && n < len(records) {
		records = records[len(records)-n:]
	}

	temps := make([]float64, len(records))
	actives := make([]float64, len(records))
	var reactions, decays int
	for i, r := range records {
		temps[i] = r.Temperature
		actives[i] = float64(r.ActiveCount)
		reactions += r.Reactions
		decays += r.DecaysFired
	}

	return WindowStats{
		MeanTemperature: stat.Mean(temps, nil),
		MeanActiveCount: stat.Mean(actives, nil),
		TotalReactions:  reactions,
		TotalDecays:     decays,
	}
}

// LogValue implements slog.LogValuer for structured logging, matching the
// teacher's WindowStats.LogValue.
func (w WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean_temperature", w.MeanTemperature),
		slog.Float64("mean_active_count", w.MeanActiveCount),
		slog.Int("total_reactions", w.TotalReactions),
		slog.Int("total_decays", w.TotalDecays),
	)
}

// HalfLife converts a first-order rate constant k (s^-1) to the decay
// half-life ln(2)/k, a supplemented read-only diagnostic for one-body
// reaction rows (spec.md's "half_life_forward"/"half_life_reverse").
func HalfLife(k float64) float64 {
	if k <= 0 {
		return 0
	}
	return ln2 / k
}

const ln2 = 0.6931471805599453
