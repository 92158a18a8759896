// Package main drives the reactive gas engine headlessly from the
// command line, for ad-hoc runs and benchmarking. Grounded on the
// teacher's cmd/optimize/main.go flag-and-load style, scoped down to the
// physics core with no optimizer loop.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/pthm-cable/reactorcore/config"
	"github.com/pthm-cable/reactorcore/engine"
	"github.com/pthm-cable/reactorcore/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	ticks := flag.Int("ticks", 10000, "Number of inner steps to run")
	batch := flag.Int("batch", 10, "Inner steps per batch lock acquisition")
	seed := flag.Int64("seed", 42, "RNG seed")
	csvPath := flag.String("csv", "", "Optional CSV path for per-window diagnostics")
	printJSON := flag.Bool("json", false, "Print the final snapshot frame as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eng, err := engine.New(cfg, *seed)
	if err != nil {
		log.Fatalf("constructing engine: %v", err)
	}

	var collector *telemetry.Collector
	if *csvPath != "" {
		collector = telemetry.NewCollector(len(cfg.Substances))
	}

	start := time.Now()
	for done := 0; done < *ticks; done += *batch {
		n := *batch
		if done+n > *ticks {
			n = *ticks - done
		}
		eng.StepBatch(n)
		if collector != nil {
			s := eng.LastStepStats()
			collector.Observe(eng.Snapshot(), telemetry.StepStats{
				PairsChecked:  s.PairsChecked,
				Collisions:    s.Collisions,
				Reactions:     s.Reactions,
				DecaysFired:   s.DecaysFired,
				DecaysAborted: s.DecaysAborted,
			})
		}
	}
	elapsed := time.Since(start)

	frame := eng.Snapshot()
	fmt.Printf("ran %d steps in %s (%.0f steps/s)\n", *ticks, elapsed, float64(*ticks)/elapsed.Seconds())
	fmt.Printf("time=%.3f activeCount=%d temperature=%.3f\n", frame.Time, frame.ActiveCount, frame.CurrentTemperature)
	for id, n := range frame.SubstanceCounts {
		fmt.Printf("  substance %d: %d\n", id, n)
	}

	if collector != nil {
		slog.Info("stats", "window", collector.Window(0))
		if err := collector.WriteCSV(*csvPath); err != nil {
			log.Fatalf("writing diagnostics csv: %v", err)
		}
	}

	if *printJSON {
		data, err := json.MarshalIndent(frame, "", "  ")
		if err != nil {
			log.Fatalf("marshaling frame: %v", err)
		}
		fmt.Println(string(data))
	}
}
