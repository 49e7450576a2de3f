package metrics

import (
	"slices"

	"loto-optimizer/internal/combo"
)

// Scorer keeps the objective of a ticket set up to date under single-ticket
// replacements without rescanning the whole set. Per-subset cover counts play
// the role of a dirty cache: a replacement only touches the subsets of the
// outgoing and incoming ticket.
type Scorer struct {
	t          int
	maxNumber  int
	lamOverlap float64
	lamPop     float64

	tickets []combo.Ticket
	counts  map[string]int
	covered int
	overlap int
	pop     []float64
}

// Move is an evaluated, not yet applied, replacement of one ticket.
type Move struct {
	Index  int
	Ticket combo.Ticket
	Value  float64

	covered int
	overlap int
	pop     float64
	outKeys []string
	inKeys  []string
}

// NewScorer indexes the ticket set. The slice is copied.
func NewScorer(tickets []combo.Ticket, t int, lamOverlap, lamPop float64, maxNumber int) *Scorer {
	s := &Scorer{
		t:          t,
		maxNumber:  maxNumber,
		lamOverlap: lamOverlap,
		lamPop:     lamPop,
		tickets:    slices.Clone(tickets),
		counts:     make(map[string]int),
		pop:        make([]float64, len(tickets)),
	}
	for i, tk := range s.tickets {
		combo.EachKey(tk, t, func(k string) {
			if s.counts[k] == 0 {
				s.covered++
			}
			s.counts[k]++
		})
		s.pop[i] = PopularityCost(tk, maxNumber)
	}
	s.overlap = PairwiseOverlap(s.tickets)
	return s
}

// Len is the number of tickets scored.
func (s *Scorer) Len() int { return len(s.tickets) }

// Ticket returns the ticket at index i.
func (s *Scorer) Ticket(i int) combo.Ticket { return s.tickets[i] }

// Tickets returns a copy of the current set.
func (s *Scorer) Tickets() []combo.Ticket { return slices.Clone(s.tickets) }

// Value is the objective of the current set; it equals Objective on Tickets().
func (s *Scorer) Value() float64 {
	return s.value(s.covered, s.overlap, s.pop, -1, 0)
}

// Try evaluates replacing ticket idx with c.
func (s *Scorer) Try(idx int, c combo.Ticket) Move {
	old := s.tickets[idx]
	outSet := make(map[string]struct{})
	combo.EachKey(old, s.t, func(k string) { outSet[k] = struct{}{} })
	inSet := make(map[string]struct{})
	combo.EachKey(c, s.t, func(k string) { inSet[k] = struct{}{} })

	m := Move{Index: idx, Ticket: c, covered: s.covered, overlap: s.overlap}
	for k := range outSet {
		if _, keep := inSet[k]; keep {
			continue
		}
		m.outKeys = append(m.outKeys, k)
		if s.counts[k] == 1 {
			m.covered--
		}
	}
	for k := range inSet {
		if _, had := outSet[k]; had {
			continue
		}
		m.inKeys = append(m.inKeys, k)
		if s.counts[k] == 0 {
			m.covered++
		}
	}
	for j, tk := range s.tickets {
		if j == idx {
			continue
		}
		m.overlap += combo.Intersect(c, tk) - combo.Intersect(old, tk)
	}
	m.pop = PopularityCost(c, s.maxNumber)
	m.Value = s.value(m.covered, m.overlap, s.pop, idx, m.pop)
	return m
}

// Apply commits a move produced by Try on the current state.
func (s *Scorer) Apply(m Move) {
	for _, k := range m.outKeys {
		if s.counts[k]--; s.counts[k] == 0 {
			delete(s.counts, k)
		}
	}
	for _, k := range m.inKeys {
		s.counts[k]++
	}
	s.tickets[m.Index] = m.Ticket
	s.pop[m.Index] = m.pop
	s.covered = m.covered
	s.overlap = m.overlap
}

// value sums popularity in ticket order, substituting pop[swap] with
// swapPop, so the result matches Objective bit for bit.
func (s *Scorer) value(covered, overlap int, pop []float64, swap int, swapPop float64) float64 {
	total := 0.0
	for i, p := range pop {
		if i == swap {
			p = swapPop
		}
		total += p
	}
	return float64(covered) - s.lamOverlap*float64(overlap) - s.lamPop*total
}
