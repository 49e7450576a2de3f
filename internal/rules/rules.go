// Package rules decides whether a combination is structurally acceptable as a
// ticket: parity balance, spread across number ranges and residue diversity.
package rules

import "loto-optimizer/internal/combo"

// ModConstraint requires at least MinClasses distinct residues modulo Modulus.
type ModConstraint struct {
	Modulus    int `yaml:"modulus" json:"modulus"`
	MinClasses int `yaml:"min_classes" json:"min_classes"`
}

// Rules is the feasibility configuration of one run.
type Rules struct {
	MinEven    int
	MaxEven    int
	Bins       int
	MaxNumber  int
	MinBinsHit int
	Mod        []ModConstraint
}

// EvenOddOK reports whether the even count lies in [minEven, maxEven].
func EvenOddOK(c combo.Ticket, minEven, maxEven int) bool {
	evens := 0
	for _, x := range c {
		if x%2 == 0 {
			evens++
		}
	}
	return minEven <= evens && evens <= maxEven
}

// RangeSpreadOK splits 1..maxNumber into bins ranges of width
// ceil(maxNumber/bins) and requires the combination to touch minBinsHit of them.
// A non-positive bins count always passes.
func RangeSpreadOK(c combo.Ticket, bins, maxNumber, minBinsHit int) bool {
	if bins <= 0 {
		return true
	}
	width := BinWidth(maxNumber, bins)
	hit := make(map[int]struct{}, bins)
	for _, x := range c {
		hit[(x-1)/width] = struct{}{}
	}
	return len(hit) >= minBinsHit
}

// ModularDiversityOK checks every modular constraint.
func ModularDiversityOK(c combo.Ticket, mods []ModConstraint) bool {
	for _, m := range mods {
		if m.Modulus <= 0 {
			continue
		}
		classes := make(map[int]struct{}, m.Modulus)
		for _, x := range c {
			classes[x%m.Modulus] = struct{}{}
		}
		if len(classes) < m.MinClasses {
			return false
		}
	}
	return true
}

// Valid is the full feasibility predicate.
func Valid(c combo.Ticket, r Rules) bool {
	return EvenOddOK(c, r.MinEven, r.MaxEven) &&
		RangeSpreadOK(c, r.Bins, r.MaxNumber, r.MinBinsHit) &&
		ModularDiversityOK(c, r.Mod)
}

// BinWidth is ceil(maxNumber/bins), never below 1.
func BinWidth(maxNumber, bins int) int {
	if bins <= 0 {
		return maxNumber
	}
	w := (maxNumber + bins - 1) / bins
	if w < 1 {
		w = 1
	}
	return w
}
