package grasp

import (
	"context"
	"math/rand/v2"
	"slices"

	"loto-optimizer/internal/combo"
	"loto-optimizer/internal/metrics"
	"loto-optimizer/internal/rules"
)

// Improve hill-climbs the ticket set on the global objective. Each iteration
// tries random single-number swaps and keeps the first one that improves the
// objective; when none does, one random ticket is shaken by trying fully
// random feasible replacements. Only strict improvements are accepted, so the
// result never scores below the input. The input slice is not modified.
// Cancelling ctx ends the search after the current iteration.
func Improve(ctx context.Context, rng *rand.Rand, p Problem, tickets []combo.Ticket, gp Params, st *Stats) []combo.Ticket {
	if st == nil {
		st = &Stats{}
	}
	if len(tickets) == 0 {
		return slices.Clone(tickets)
	}
	sc := metrics.NewScorer(tickets, p.T, p.LamOverlap, p.LamPop, p.MaxNumber())
	best := sc.Value()

	for it := 0; it < gp.LocalSearchIters && ctx.Err() == nil; it++ {
		improved := false
		for trial := 0; trial < gp.SwapTrialsPerIter; trial++ {
			idx := rng.IntN(sc.Len())
			cur := sc.Ticket(idx)
			outside := notIn(p.Pool, cur)
			if len(outside) == 0 || len(cur) == 0 {
				continue
			}
			out := cur[rng.IntN(len(cur))]
			in := outside[rng.IntN(len(outside))]
			c := cur.Replace(out, in)
			if !rules.Valid(c, p.Rules) || duplicates(sc, idx, c) {
				continue
			}
			if m := sc.Try(idx, c); m.Value > best {
				sc.Apply(m)
				best = m.Value
				improved = true
				st.Swaps++
				break
			}
		}
		if improved {
			continue
		}

		st.Shakes++
		idx := rng.IntN(sc.Len())
		for tries := 0; tries < shakeAttempts; tries++ {
			c := combo.Sample(rng, p.Pool, p.K)
			if c == nil {
				break
			}
			if !rules.Valid(c, p.Rules) || duplicates(sc, idx, c) {
				continue
			}
			if m := sc.Try(idx, c); m.Value > best {
				sc.Apply(m)
				best = m.Value
				st.ShakesAccepted++
				break
			}
		}
	}
	return sc.Tickets()
}

// notIn lists the pool numbers missing from t, in pool order.
func notIn(pool []int, t combo.Ticket) []int {
	out := make([]int, 0, len(pool))
	for _, n := range pool {
		if !t.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// duplicates reports whether c equals a ticket other than the one at idx.
func duplicates(sc *metrics.Scorer, idx int, c combo.Ticket) bool {
	for j := 0; j < sc.Len(); j++ {
		if j != idx && sc.Ticket(j).Equal(c) {
			return true
		}
	}
	return false
}
