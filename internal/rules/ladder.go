package rules

import "loto-optimizer/internal/combo"

// Check is one feasibility predicate bound to a Rules value.
type Check func(c combo.Ticket, r Rules) bool

var (
	parity Check = func(c combo.Ticket, r Rules) bool { return EvenOddOK(c, r.MinEven, r.MaxEven) }
	spread Check = func(c combo.Ticket, r Rules) bool { return RangeSpreadOK(c, r.Bins, r.MaxNumber, r.MinBinsHit) }
	modDiv Check = func(c combo.Ticket, r Rules) bool { return ModularDiversityOK(c, r.Mod) }
)

// Level is one rung of the relaxation ladder used when sampling candidates.
type Level struct {
	Name   string
	Checks []Check
}

// Accept reports whether c passes every check of the level.
func (l Level) Accept(c combo.Ticket, r Rules) bool {
	for _, chk := range l.Checks {
		if !chk(c, r) {
			return false
		}
	}
	return true
}

// Ladder lists the rule sets candidate sampling walks through, strictest
// first. When no candidate survives a rung, the next one is tried; the
// modular-diversity rule is the one given up.
var Ladder = []Level{
	{Name: "full", Checks: []Check{parity, spread, modDiv}},
	{Name: "parity+spread", Checks: []Check{parity, spread}},
}
