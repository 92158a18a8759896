// Package reaction compiles a user-facing reaction list into the flat
// two-body/one-body row tables the physics package consumes (spec.md §3,
// §4.7). It is grounded on the teacher's config-validation style
// (config/config.go) generalized to a small chemical-equation grammar.
package reaction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// separators recognized between the reactant and product sides of an
// equation, tried in order so that the arrow forms are matched before
// the plain "=".
var separators = []string{"⇌", "->", "→", "="}

var termPattern = regexp.MustCompile(`^(\d*)\s*([A-Za-z][A-Za-z0-9_]*)$`)

// ErrBadEquation is returned for any equation string that does not match
// the "<side> <sep> <side>" grammar described in spec.md §4.7.
type ErrBadEquation struct {
	Equation string
	Reason   string
}

func (e *ErrBadEquation) Error() string {
	return fmt.Sprintf("reaction: bad equation %q: %s", e.Equation, e.Reason)
}

// ParseEquation splits a human-authored equation like "2A = B" into the
// expanded (stoichiometry-repeated) reactant and product species labels.
// "A + B -> C + D", "A = B", and "2A ⇌ 2B" are all accepted; "->" , "→"
// and "⇌" are equivalent to "=".
func ParseEquation(eq string) (reactants, products []string, err error) {
	lhs, rhs, ok := splitEquation(eq)
	if !ok {
		return nil, nil, &ErrBadEquation{eq, "missing one of the separators =, ->, →, ⇌"}
	}

	reactants, err = parseSide(lhs)
	if err != nil {
		return nil, nil, &ErrBadEquation{eq, err.Error()}
	}
	products, err = parseSide(rhs)
	if err != nil {
		return nil, nil, &ErrBadEquation{eq, err.Error()}
	}
	return reactants, products, nil
}

func splitEquation(eq string) (lhs, rhs string, ok bool) {
	for _, sep := range separators {
		if idx := strings.Index(eq, sep); idx >= 0 {
			return strings.TrimSpace(eq[:idx]), strings.TrimSpace(eq[idx+len(sep):]), true
		}
	}
	return "", "", false
}

// parseSide expands a "+"-joined term list like "2A + B" into
// ["A", "A", "B"]. An empty (whitespace-only) side yields a nil slice,
// representing zero products (pure annihilation/decay-to-nothing).
func parseSide(side string) ([]string, error) {
	side = strings.TrimSpace(side)
	if side == "" {
		return nil, nil
	}

	var out []string
	for _, rawTerm := range strings.Split(side, "+") {
		term := strings.TrimSpace(rawTerm)
		if term == "" {
			return nil, fmt.Errorf("empty term between '+'")
		}

		m := termPattern.FindStringSubmatch(term)
		if m == nil {
			return nil, fmt.Errorf("term %q is not '[coeff]Name'", term)
		}

		coeff := 1
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("bad coefficient in %q: %w", term, err)
			}
			coeff = n
		}
		if coeff < 1 {
			return nil, fmt.Errorf("coefficient in %q must be >= 1", term)
		}

		for i := 0; i < coeff; i++ {
			out = append(out, m[2])
		}
	}
	return out, nil
}
