package grasp

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"

	"loto-optimizer/internal/combo"
	"loto-optimizer/internal/metrics"
	"loto-optimizer/internal/rules"
)

type scored struct {
	score  float64
	ticket combo.Ticket
}

// Construct builds up to ticketCount tickets, greedily favouring candidates
// that cover still-uncovered t-subsets, and returns them with the t-subsets
// of the pool left uncovered. It stops early when every t-subset is covered
// or no candidate can be sampled even under relaxed rules. Cancelling ctx
// stops it after the current round with the tickets chosen so far.
func Construct(ctx context.Context, rng *rand.Rand, p Problem, ticketCount int, gp Params, st *Stats) ([]combo.Ticket, metrics.CoverSet) {
	if st == nil {
		st = &Stats{}
	}
	uncovered := metrics.NewCoverSet(p.Pool, p.T)
	seen := make(map[string]struct{})
	var tickets []combo.Ticket

	for len(tickets) < ticketCount && uncovered.Len() > 0 && ctx.Err() == nil {
		cands, level := sampleCandidates(rng, p, gp, seen)
		if len(cands) == 0 {
			break
		}
		if level > 0 {
			st.RelaxedRounds++
		}
		st.Candidates += len(cands)

		ranked := make([]scored, len(cands))
		for i, c := range cands {
			gain := metrics.CoverageGain(c, p.T, uncovered)
			ov := metrics.Overlap(c, tickets)
			pop := metrics.PopularityCost(c, p.MaxNumber())
			ranked[i] = scored{
				score:  float64(gain) - p.LamOverlap*float64(ov) - p.LamPop*pop,
				ticket: c,
			}
		}
		slices.SortStableFunc(ranked, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

		rcl := max(1, int(float64(len(ranked))*gp.RCLFraction))
		rcl = min(rcl, len(ranked))
		pick := ranked[rng.IntN(rcl)]
		chosen := pick.ticket
		st.Picks = append(st.Picks, Pick{
			Rung:       rules.Ladder[level].Name,
			Candidates: len(cands),
			RCL:        rcl,
			Score:      pick.score,
		})

		tickets = append(tickets, chosen)
		seen[chosen.Key()] = struct{}{}
		uncovered.RemoveTicket(chosen, p.T)
		st.Rounds++
	}
	return tickets, uncovered
}

// rung returns the candidate target and the cumulative attempt ceiling of a
// ladder level.
func rung(level int, gp Params) (target, budget int) {
	if level == 0 {
		return gp.SampleCandidates, gp.SampleCandidates * sampleBudget
	}
	return max(relaxedFloor, gp.SampleCandidates/2), gp.SampleCandidates * relaxedBudget
}

// sampleCandidates walks the rule ladder until a rung yields candidates. It
// returns the distinct candidates found, none of them already in seen, and
// the rung index that produced them.
func sampleCandidates(rng *rand.Rand, p Problem, gp Params, seen map[string]struct{}) ([]combo.Ticket, int) {
	tries := 0
	for level, lvl := range rules.Ladder {
		target, budget := rung(level, gp)
		var cands []combo.Ticket
		round := make(map[string]struct{})
		for len(cands) < target && tries < budget {
			tries++
			c := combo.Sample(rng, p.Pool, p.K)
			if c == nil {
				return nil, level
			}
			key := c.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			if _, dup := round[key]; dup {
				continue
			}
			if !lvl.Accept(c, p.Rules) {
				continue
			}
			round[key] = struct{}{}
			cands = append(cands, c)
		}
		if len(cands) > 0 {
			return cands, level
		}
	}
	return nil, len(rules.Ladder) - 1
}

// Backfill tops tickets up to ticketCount with uniformly sampled tickets that
// pass the full rules, skipping duplicates. It gives up after maxAttempts
// samples or when ctx is cancelled, so the result may still be short.
func Backfill(ctx context.Context, rng *rand.Rand, p Problem, tickets []combo.Ticket, ticketCount, maxAttempts int, st *Stats) []combo.Ticket {
	if st == nil {
		st = &Stats{}
	}
	out := slices.Clone(tickets)
	seen := keySet(out)
	for tries := 0; len(out) < ticketCount && tries < maxAttempts; tries++ {
		if tries%cancelCheckEvery == 0 && ctx.Err() != nil {
			break
		}
		st.BackfillAttempts++
		c := combo.Sample(rng, p.Pool, p.K)
		if c == nil {
			break
		}
		key := c.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		if !rules.Valid(c, p.Rules) {
			continue
		}
		out = append(out, c)
		seen[key] = struct{}{}
		st.Backfilled++
	}
	return out
}
