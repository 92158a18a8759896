package reaction

import (
	"fmt"
	"math"

	"github.com/pthm-cable/reactorcore/config"
)

// TwoBodyRow is one compiled entry of the two-body reaction table
// (spec.md §3): a reactant type pair, a product type pair (either product
// may be -1, meaning the slot is freed), and the forward/reverse
// activation energies.
type TwoBodyRow struct {
	R0, R1 int
	P0, P1 int
	EF, ER float64
}

// Matches reports whether the unordered pair (ta, tb) matches this row's
// reactant pair.
func (r TwoBodyRow) Matches(ta, tb int) bool {
	return (r.R0 == ta && r.R1 == tb) || (r.R0 == tb && r.R1 == ta)
}

// rateFunc computes a temperature-dependent frequency factor (s^-1), used
// for one-body rows whose A is derived rather than user-supplied
// (spec.md §4.7, collision-theory self-consistency).
type rateFunc func(boltzmannK, mass, temperature float64) float64

// OneBodyRow is one compiled entry of the one-body (first-order decay)
// table (spec.md §3): one reactant type, up to two product types (P1=-1
// if there is only one), an activation energy, a frequency factor, and
// the reaction heat Q (positive = exothermic).
type OneBodyRow struct {
	R      int
	P0, P1 int
	EA     float64
	Q      float64

	// A is the frequency factor for rows with a fixed, user-supplied
	// prefactor. Derived is non-nil instead for rows whose prefactor must
	// be evaluated against the current temperature (the collision-theory
	// reverse of a net-Δn two-body reaction).
	A       float64
	Derived rateFunc
}

// FrequencyFactor returns this row's A, evaluated against the current
// simulation state if derived.
func (r OneBodyRow) FrequencyFactor(boltzmannK, mass, temperature float64) float64 {
	if r.Derived != nil {
		return r.Derived(boltzmannK, mass, temperature)
	}
	return r.A
}

// Table holds the compiled flat reaction tables consumed by the physics
// package's pair resolver (C4) and decay engine (C5).
type Table struct {
	TwoBody []TwoBodyRow
	OneBody []OneBodyRow
}

// ErrInvalidReaction is returned by Compile for any user reaction entry
// that fails validation (spec.md §7 "Invalid configuration").
type ErrInvalidReaction struct {
	Index  int
	Reason string
}

func (e *ErrInvalidReaction) Error() string {
	return fmt.Sprintf("reaction: entry %d invalid: %s", e.Index, e.Reason)
}

// Compile validates and compiles a user reaction list into a Table.
// substanceCount bounds reactant/product type ids (must lie in [0,S)).
// radii is indexed by type id and is used to derive the collision-theory
// frequency factor for net-Δn two-body reverses. The particle mass and
// Boltzmann constant are not inputs here; a derived row receives them
// when OneBodyRow.FrequencyFactor is evaluated.
//
// On any validation failure, Compile returns a non-nil error and a nil
// Table; the caller's existing configuration is left untouched (the
// engine never applies a partially compiled table).
func Compile(specs []config.ReactionSpec, labels map[string]int, substanceCount int, radii []float64) (*Table, error) {
	t := &Table{}

	for i, spec := range specs {
		reactantIDs, productIDs, err := resolveTypes(spec, labels)
		if err != nil {
			return nil, &ErrInvalidReaction{i, err.Error()}
		}

		if len(reactantIDs) < 1 || len(reactantIDs) > 2 {
			return nil, &ErrInvalidReaction{i, "reactant side must have 1 or 2 entries"}
		}
		if len(productIDs) > 2 {
			return nil, &ErrInvalidReaction{i, "product side must have at most 2 entries"}
		}
		if spec.EaForward < 0 || spec.EaReverse < 0 {
			return nil, &ErrInvalidReaction{i, "activation energies must be >= 0"}
		}
		for _, id := range append(append([]int{}, reactantIDs...), productIDs...) {
			if id < 0 || id >= substanceCount {
				return nil, &ErrInvalidReaction{i, fmt.Sprintf("type id %d out of range [0,%d)", id, substanceCount)}
			}
		}

		switch len(reactantIDs) {
		case 2:
			r0, r1 := reactantIDs[0], reactantIDs[1]
			switch len(productIDs) {
			case 2:
				p0, p1 := productIDs[0], productIDs[1]
				t.TwoBody = append(t.TwoBody,
					TwoBodyRow{R0: r0, R1: r1, P0: p0, P1: p1, EF: spec.EaForward, ER: spec.EaReverse},
					TwoBodyRow{R0: p0, R1: p1, P0: r0, P1: r1, EF: spec.EaReverse, ER: spec.EaForward},
				)
			case 1:
				p0 := productIDs[0]
				t.TwoBody = append(t.TwoBody,
					TwoBodyRow{R0: r0, R1: r1, P0: p0, P1: -1, EF: spec.EaForward, ER: spec.EaReverse},
				)
				r := radii[r0] + radii[r1]
				r /= 2 // average collision radius, spec.md §4.7
				t.OneBody = append(t.OneBody, OneBodyRow{
					R: p0, P0: r0, P1: r1,
					EA: spec.EaReverse,
					Q:  spec.EaForward - spec.EaReverse,
					Derived: func(radius float64) rateFunc {
						return func(boltzmannK, mass, temperature float64) float64 {
							return derivedFrequencyFactor(radius, mass, boltzmannK, temperature)
						}
					}(r),
				})
			case 0:
				t.TwoBody = append(t.TwoBody,
					TwoBodyRow{R0: r0, R1: r1, P0: -1, P1: -1, EF: spec.EaForward, ER: spec.EaReverse},
				)
			}
		case 1:
			r := reactantIDs[0]
			p0, p1 := -1, -1
			if len(productIDs) > 0 {
				p0 = productIDs[0]
			}
			if len(productIDs) > 1 {
				p1 = productIDs[1]
			}
			if spec.FrequencyFactor < 0 {
				return nil, &ErrInvalidReaction{i, "frequency_factor must be >= 0"}
			}
			t.OneBody = append(t.OneBody, OneBodyRow{
				R: r, P0: p0, P1: p1,
				EA: spec.EaForward,
				A:  spec.FrequencyFactor,
				Q:  spec.EaReverse - spec.EaForward,
			})

			if len(productIDs) == 1 {
				t.OneBody = append(t.OneBody, OneBodyRow{
					R: p0, P0: r, P1: -1,
					EA: spec.EaReverse,
					A:  spec.FrequencyFactor,
					Q:  spec.EaForward - spec.EaReverse,
				})
			}
		}
	}

	return t, nil
}

// derivedFrequencyFactor implements spec.md §4.7's collision-theory
// self-consistency formula for the first-order reverse of a net-Δn
// two-body reaction: A_rev = σ·v̄_rel/2, σ = π(2r)², v̄_rel = √2·mean
// molecular speed.
func derivedFrequencyFactor(radius, mass, boltzmannK, temperature float64) float64 {
	sigma := math.Pi * (2 * radius) * (2 * radius)
	meanSpeed := math.Sqrt(8 * boltzmannK * temperature / (math.Pi * mass))
	vRel := math.Sqrt2 * meanSpeed
	return sigma * vRel / 2
}

// resolveTypes maps a ReactionSpec's equation (preferred) or explicit
// ReactantTypes/ProductTypes to type ids.
func resolveTypes(spec config.ReactionSpec, labels map[string]int) (reactants, products []int, err error) {
	if spec.Equation != "" {
		reactNames, prodNames, err := ParseEquation(spec.Equation)
		if err != nil {
			return nil, nil, err
		}
		reactants, err = lookupAll(reactNames, labels)
		if err != nil {
			return nil, nil, err
		}
		products, err = lookupAll(prodNames, labels)
		if err != nil {
			return nil, nil, err
		}
		return reactants, products, nil
	}
	return spec.ReactantTypes, spec.ProductTypes, nil
}

func lookupAll(names []string, labels map[string]int) ([]int, error) {
	ids := make([]int, len(names))
	for i, n := range names {
		id, ok := labels[n]
		if !ok {
			return nil, fmt.Errorf("unknown substance label %q", n)
		}
		ids[i] = id
	}
	return ids, nil
}
