// Package config provides structured configuration for the reactive gas
// engine. The engine itself is constructed from a Config value held in
// memory; nothing in this package is required at run time, but Load/Init
// are provided as a convenience for CLI tools and tests that want to read
// parameters from a YAML file.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all parameters needed to construct or reconfigure the engine.
type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Thermostat ThermostatConfig `yaml:"thermostat"`
	Slice      SliceConfig      `yaml:"slice"`
	Pool       PoolConfig       `yaml:"pool"`
	Substances []Substance      `yaml:"substances"`
	Reactions  []ReactionSpec   `yaml:"reactions"`

	// PropertiesLocked, when true, restricts mutation to Thermostat.Target
	// and Thermostat.Enabled; the engine's UpdateBox and ReloadReactions
	// are rejected while it is set.
	PropertiesLocked bool `yaml:"properties_locked"`
}

// PhysicsConfig holds the core numerical parameters of the simulation.
type PhysicsConfig struct {
	BoxSize    float64 `yaml:"box_size"`
	Mass       float64 `yaml:"mass"`
	BoltzmannK float64 `yaml:"boltzmann_k"`
	DT         float64 `yaml:"dt"`
}

// ThermostatConfig holds velocity-rescaling thermostat parameters.
type ThermostatConfig struct {
	Target  float64 `yaml:"target"`
	Enabled bool    `yaml:"enabled"`
}

// SliceConfig holds tomographic-slab snapshot parameters.
type SliceConfig struct {
	Thickness float64 `yaml:"thickness"`
	// RefTemp is the fixed reference temperature used to normalize
	// per-particle kinetic energy in snapshots (spec.md §4.8).
	RefTemp float64 `yaml:"ref_temp"`
}

// PoolConfig holds particle-pool sizing parameters.
type PoolConfig struct {
	MaxParticles int `yaml:"max_particles"`
}

// Substance declares one species of particle.
type Substance struct {
	ID           int     `yaml:"id"`
	Label        string  `yaml:"label"`
	ColorHue     float64 `yaml:"color_hue"`
	Radius       float64 `yaml:"radius"`
	InitialCount int     `yaml:"initial_count"`
}

// ReactionSpec is a human-authored reaction entry, as accepted from the
// outside world (spec.md §6 "reactions" field). Equation is parsed by the
// reaction package; ReactantTypes/ProductTypes may be supplied directly
// instead of Equation, and are used only when Equation is empty.
type ReactionSpec struct {
	Equation        string  `yaml:"equation"`
	ReactantTypes   []int   `yaml:"reactant_types"`
	ProductTypes    []int   `yaml:"product_types"`
	EaForward       float64 `yaml:"ea_forward"`
	EaReverse       float64 `yaml:"ea_reverse"`
	FrequencyFactor float64 `yaml:"frequency_factor"`
}

// global holds the package-level configuration singleton, for CLI tools
// that prefer Cfg()-style access over threading a *Config explicitly.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// WriteYAML saves the configuration to path, for experiment reproducibility.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Substances = append([]Substance(nil), c.Substances...)
	cp.Reactions = append([]ReactionSpec(nil), c.Reactions...)
	for i := range cp.Reactions {
		cp.Reactions[i].ReactantTypes = append([]int(nil), c.Reactions[i].ReactantTypes...)
		cp.Reactions[i].ProductTypes = append([]int(nil), c.Reactions[i].ProductTypes...)
	}
	return &cp
}
