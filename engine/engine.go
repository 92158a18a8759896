// Package engine owns and orchestrates the full per-step pipeline
// (spec.md §4.9, §5, §6, component C9): the particle pool, cell index,
// reaction tables, thermostat, pair resolver and decay engine, all behind
// a single exclusive lock. It is grounded on the teacher's Game struct in
// main.go (one owner of world state, a tick counter, a paused flag) and
// its background-worker batch loop, generalized from a 30fps render loop
// driving an ECS world to a 30fps outer tick driving a headless physics
// core and exposing its state via Snapshot instead of raylib draw calls.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/reactorcore/config"
	"github.com/pthm-cable/reactorcore/grid"
	"github.com/pthm-cable/reactorcore/physics"
	"github.com/pthm-cable/reactorcore/pool"
	"github.com/pthm-cable/reactorcore/reaction"
	"github.com/pthm-cable/reactorcore/snapshot"
)

// OuterTickRate is the background worker's outer cadence: ~30 outer
// ticks per second (spec.md §5).
const OuterTickRate = time.Second / 30

// Engine is the single owner of all simulation state. Every exported
// method acquires mu, so concurrent callers (a background step loop plus
// external commands) never observe a torn state (spec.md §5).
type Engine struct {
	mu sync.Mutex

	cfg    *config.Config
	labels map[string]int

	pool      *pool.Pool
	cellIndex *grid.CellIndex
	table     *reaction.Table

	thermostat physics.Thermostat
	resolver   physics.PairResolver
	decay      physics.DecayEngine
	extractor  snapshot.Extractor

	rng        *rand.Rand
	workerRNGs []*rand.Rand

	time    float64
	running bool

	lastResolve physics.ResolveStats
	lastDecay   physics.DecayStats
}

// StepStats bundles the diagnostics counters produced by the most recent
// step, for telemetry's optional CSV dump (spec.md §4's supplemented
// diagnostics). Reactions and decays are totals for the step; per-row
// counts are not carried here.
type StepStats struct {
	PairsChecked  int
	Collisions    int
	Reactions     int
	DecaysFired   int
	DecaysAborted int
}

// New constructs an Engine from a configuration, compiling its reaction
// table and seeding its particle pool. Returns an error if the
// configuration is invalid (spec.md §7 "Invalid configuration rejected at
// ingest"); the engine is left unconstructed in that case.
func New(cfg *config.Config, seed int64) (*Engine, error) {
	e := &Engine{}
	if err := e.apply(cfg, seed); err != nil {
		return nil, err
	}
	return e, nil
}

// apply validates and installs cfg as the engine's entire state,
// rebuilding the pool, cell index, reaction table and RNGs from scratch.
// Called with mu held (or before the Engine is shared) by New and Reset.
func (e *Engine) apply(cfg *config.Config, seed int64) error {
	labels := make(map[string]int, len(cfg.Substances))
	radii := make([]float64, len(cfg.Substances))
	for _, s := range cfg.Substances {
		labels[s.Label] = s.ID
		if s.ID < 0 || s.ID >= len(cfg.Substances) {
			slog.Warn("engine: rejecting config", "reason", "substance id out of range", "label", s.Label, "id", s.ID)
			return fmt.Errorf("engine: substance %q has out-of-range id %d", s.Label, s.ID)
		}
		radii[s.ID] = s.Radius
	}

	table, err := reaction.Compile(cfg.Reactions, labels, len(cfg.Substances), radii)
	if err != nil {
		slog.Warn("engine: rejecting config", "reason", "reaction compilation failed", "error", err)
		return fmt.Errorf("engine: compiling reactions: %w", err)
	}
	slog.Debug("engine: compiled reaction table", "two_body_rows", len(table.TwoBody), "one_body_rows", len(table.OneBody))

	rMax := maxRadius(radii)
	p := pool.New(cfg.Pool.MaxParticles, cfg.Physics.BoxSize)

	rng := rand.New(rand.NewSource(seed))
	if err := p.Init(cfg.Substances, cfg.Physics.Mass, cfg.Physics.BoltzmannK, cfg.Thermostat.Target, rng); err != nil {
		return fmt.Errorf("engine: seeding pool: %w", err)
	}

	e.cfg = cfg.Clone()
	e.labels = labels
	e.pool = p
	e.cellIndex = grid.New(cfg.Physics.BoxSize, rMax, cfg.Pool.MaxParticles)
	e.table = table
	e.thermostat = physics.Thermostat{Mass: cfg.Physics.Mass, BoltzmannK: cfg.Physics.BoltzmannK}
	e.resolver = physics.PairResolver{Mass: cfg.Physics.Mass, BoltzmannK: cfg.Physics.BoltzmannK, Radii: radii}
	e.decay = physics.DecayEngine{Mass: cfg.Physics.Mass, BoltzmannK: cfg.Physics.BoltzmannK}
	e.extractor = snapshot.Extractor{
		Mass:       cfg.Physics.Mass,
		BoltzmannK: cfg.Physics.BoltzmannK,
		Thickness:  cfg.Slice.Thickness,
		RefTemp:    cfg.Slice.RefTemp,
	}
	e.rng = rng
	e.workerRNGs = physics.NewWorkerRNGs(8, seed+1)
	e.resolver.Workers = len(e.workerRNGs)
	e.time = 0
	e.running = true

	return nil
}

func maxRadius(radii []float64) float64 {
	m := 0.0
	for _, r := range radii {
		if r > m {
			m = r
		}
	}
	if m <= 0 {
		m = 1
	}
	return m
}

// Step executes one inner tick in the order spec.md §4.9 mandates:
// thermostat, drift, cell rebuild, pair resolution, decay, active-count
// refresh, then advances simulation time by Δt.
func (e *Engine) Step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked()
}

func (e *Engine) stepLocked() {
	if len(e.cfg.Substances) == 0 {
		// No species declared: nothing to drift, collide, or decay.
		// spec.md §7 — misuse, not an error; step is a no-op and time
		// does not advance.
		return
	}

	if e.cfg.Thermostat.Enabled {
		e.thermostat.Apply(e.pool, e.cfg.Thermostat.Target)
	}

	physics.Drift(e.pool, e.cfg.Physics.DT)
	e.cellIndex.Build(e.pool)

	temp, _ := e.thermostat.Measure(e.pool)
	e.lastResolve = e.resolver.Resolve(e.pool, e.cellIndex, e.table, temp, e.workerRNGs)

	temp, _ = e.thermostat.Measure(e.pool)
	e.lastDecay = e.decay.Step(e.pool, e.table, temp, e.cfg.Physics.DT, e.rng)
	if e.lastDecay.Aborted > 0 {
		slog.Debug("engine: decay channel aborted", "count", e.lastDecay.Aborted, "reason", "pool exhaustion or endothermic energy shortfall")
	}

	e.pool.ActiveCount() // refresh the cache now, while still under the lock
	e.time += e.cfg.Physics.DT
}

// StepBatch runs n inner steps under a single lock acquisition, matching
// the worker's "batch of inner steps per outer tick" scheduling model
// (spec.md §5).
func (e *Engine) StepBatch(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < n; i++ {
		e.stepLocked()
	}
}

// Pause clears the run flag the background worker loop observes between
// batches (spec.md §5); it does not interrupt a batch already in flight.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Resume sets the run flag so the worker loop's next check proceeds.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
}

// Running reports the current run flag, for the worker loop to poll
// between batches.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetTemperature retargets the thermostat's setpoint and immediately
// rescales the population to match it exactly (spec.md §4.6's
// unclamped one-shot retarget, invoked only on an interactive change).
// temperature and thermostat_enabled remain mutable even when the
// engine's other properties are locked (spec.md §6), so this method does
// not consult checkMutable.
func (e *Engine) SetTemperature(t float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Thermostat.Target = t
	e.thermostat.Retarget(e.pool, t)
	return nil
}

// SetThermostat toggles the rescale step; when disabled the simulation
// runs adiabatically (spec.md §4.6, §6).
func (e *Engine) SetThermostat(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Thermostat.Enabled = enabled
}

// UpdateBox changes the box side length, proportionally rescaling every
// active particle's position and rebuilding the cell grid (spec.md §4.9).
func (e *Engine) UpdateBox(lNew float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkMutable(); err != nil {
		return err
	}
	lOld := e.pool.BoxSize()
	if lOld <= 0 {
		return fmt.Errorf("engine: cannot rescale from a non-positive box size")
	}
	factor := lNew / lOld
	physics.RescalePositions(e.pool, factor)
	e.pool.SetBoxSize(lNew)
	e.cfg.Physics.BoxSize = lNew
	e.cellIndex.Resize(lNew, maxRadius(e.resolver.Radii))
	e.cellIndex.Build(e.pool)
	return nil
}

// ReloadReactions recompiles the reaction table from specs,
// leaving every other engine parameter untouched. On a compile error the
// engine's existing table is left in place (spec.md §4.7's "no partially
// compiled table").
func (e *Engine) ReloadReactions(specs []config.ReactionSpec) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkMutable(); err != nil {
		return err
	}
	radii := e.resolver.Radii
	table, err := reaction.Compile(specs, e.labels, len(radii), radii)
	if err != nil {
		return fmt.Errorf("engine: reloading reactions: %w", err)
	}
	e.table = table
	e.cfg.Reactions = specs
	return nil
}

// Reset tears down and rebuilds the engine from its current configuration,
// including any changes made through SetTemperature, SetThermostat,
// UpdateBox or ReloadReactions (spec.md §5 "Reset tears down state under
// the lock"). The RNGs are reseeded from seed, so resets with the same
// seed reproduce the same initial state. Time returns to zero and the run
// flag is set.
func (e *Engine) Reset(seed int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(e.cfg, seed)
}

// LockProperties makes UpdateBox and ReloadReactions return an error;
// SetTemperature and SetThermostat stay available (spec.md §6
// "properties_locked").
func (e *Engine) LockProperties() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.PropertiesLocked = true
}

// UnlockProperties restores full mutability.
func (e *Engine) UnlockProperties() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.PropertiesLocked = false
}

// checkMutable returns an error if the engine's properties are locked,
// for operations that fall outside the temperature/thermostat exception.
func (e *Engine) checkMutable() error {
	if e.cfg.PropertiesLocked {
		return fmt.Errorf("engine: properties are locked")
	}
	return nil
}

// Snapshot extracts a read-only Frame of the current state under the
// lock (spec.md §4.8, §5 "the snapshot accessor either copies under the
// lock or produces a deep-copied value for release outside the lock").
func (e *Engine) Snapshot() snapshot.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	temp, _ := e.thermostat.Measure(e.pool)
	return e.extractor.Extract(e.pool, e.time, temp)
}

// LastStepStats returns the diagnostics counters from the most recently
// completed inner step, for telemetry consumers that poll after a batch.
func (e *Engine) LastStepStats() StepStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return StepStats{
		PairsChecked:  e.lastResolve.PairsChecked,
		Collisions:    e.lastResolve.Collisions,
		Reactions:     e.lastResolve.Reactions,
		DecaysFired:   e.lastDecay.Fired,
		DecaysAborted: e.lastDecay.Aborted,
	}
}

// RunLoop is the background worker (spec.md §5): at OuterTickRate cadence,
// it runs one batch of innerStepsPerTick step() calls while Running() is
// true, and returns when ctx is canceled. External commands mutate state
// between batches by taking the same engine lock this loop uses, never
// inside one (spec.md §5 "Inside a batch: none").
func (e *Engine) RunLoop(ctx context.Context, innerStepsPerTick int) {
	ticker := time.NewTicker(OuterTickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.Running() {
				e.StepBatch(innerStepsPerTick)
			}
		}
	}
}

// Config returns a deep copy of the engine's current configuration.
func (e *Engine) Config() *config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Clone()
}
