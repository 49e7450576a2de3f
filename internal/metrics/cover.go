package metrics

import (
	"slices"

	"loto-optimizer/internal/combo"
)

// CoverSet is a set of t-subsets keyed by their canonical combo key.
type CoverSet map[string]struct{}

// NewCoverSet returns every size-t combination of the pool.
func NewCoverSet(pool []int, t int) CoverSet {
	sorted := slices.Clone(pool)
	slices.Sort(sorted)
	s := make(CoverSet, combo.Binomial(len(sorted), t))
	combo.EachKey(sorted, t, func(k string) {
		s[k] = struct{}{}
	})
	return s
}

// Len is the number of subsets in the set.
func (s CoverSet) Len() int { return len(s) }

// Has reports whether the subset is present.
func (s CoverSet) Has(sub combo.Ticket) bool {
	_, ok := s[sub.Key()]
	return ok
}

// RemoveTicket drops every t-subset of c and returns how many were present.
func (s CoverSet) RemoveTicket(c combo.Ticket, t int) int {
	removed := 0
	combo.EachKey(c, t, func(k string) {
		if _, ok := s[k]; ok {
			delete(s, k)
			removed++
		}
	})
	return removed
}

// CoverageGain counts the t-subsets of c still present in uncovered.
func CoverageGain(c combo.Ticket, t int, uncovered CoverSet) int {
	gain := 0
	combo.EachKey(c, t, func(k string) {
		if _, ok := uncovered[k]; ok {
			gain++
		}
	})
	return gain
}
