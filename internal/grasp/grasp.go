// Package grasp implements the two phases of the ticket search: a greedy
// randomized construction driven by t-subset coverage, and a first-improvement
// local search with shaking on stagnation.
//
// Nothing here is concurrent. Every random choice is drawn from the *rand.Rand
// handed in by the caller, so a seed fully determines the outcome.
package grasp

import (
	"loto-optimizer/internal/combo"
	"loto-optimizer/internal/rules"
)

// Attempt ceilings. Every sampling loop is bounded by one of these.
const (
	sampleBudget     = 20 // full-rule sampling attempts per requested candidate
	relaxedBudget    = 50 // cumulative attempts per requested candidate once relaxed
	relaxedFloor     = 50 // minimum candidate target on the relaxed rung
	shakeAttempts    = 2000
	BackfillAttempts = 200000

	cancelCheckEvery = 1024 // backfill samples between context checks
)

// Params tunes the search.
type Params struct {
	// SampleCandidates is how many feasible candidates each construction round samples.
	SampleCandidates int `yaml:"sample_candidates" json:"sample_candidates"`
	// RCLFraction is the share of the best-scored candidates kept in the restricted list.
	RCLFraction float64 `yaml:"rcl_fraction" json:"rcl_fraction"`
	// LocalSearchIters is the number of outer local search iterations.
	LocalSearchIters int `yaml:"local_search_iters" json:"local_search_iters"`
	// SwapTrialsPerIter caps single-number swap attempts per iteration.
	SwapTrialsPerIter int `yaml:"swap_trials_per_iter" json:"swap_trials_per_iter"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		SampleCandidates:  600,
		RCLFraction:       0.2,
		LocalSearchIters:  300,
		SwapTrialsPerIter: 40,
	}
}

// Problem is the fixed input shared by both phases. Rules.MaxNumber is the
// size of the universe.
type Problem struct {
	Pool       []int
	K          int
	T          int
	Rules      rules.Rules
	LamOverlap float64
	LamPop     float64
}

// MaxNumber is the largest number of the universe.
func (p Problem) MaxNumber() int { return p.Rules.MaxNumber }

// Stats counts what the phases did.
type Stats struct {
	Rounds           int `json:"rounds"`
	Candidates       int `json:"candidates"`
	RelaxedRounds    int `json:"relaxed_rounds"`
	BackfillAttempts int `json:"backfill_attempts"`
	Backfilled       int `json:"backfilled"`
	Swaps            int `json:"swaps"`
	Shakes           int `json:"shakes"`
	ShakesAccepted   int `json:"shakes_accepted"`

	// Picks holds one entry per construction round, in order.
	Picks []Pick `json:"-"`
}

// Pick describes the ticket chosen in one construction round.
type Pick struct {
	Rung       string  // ladder level the candidates passed
	Candidates int     // candidates sampled this round
	RCL        int     // restricted list size
	Score      float64 // construction score of the chosen ticket
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Rounds += o.Rounds
	s.Candidates += o.Candidates
	s.RelaxedRounds += o.RelaxedRounds
	s.BackfillAttempts += o.BackfillAttempts
	s.Backfilled += o.Backfilled
	s.Swaps += o.Swaps
	s.Shakes += o.Shakes
	s.ShakesAccepted += o.ShakesAccepted
	s.Picks = append(s.Picks, o.Picks...)
}

func keySet(tickets []combo.Ticket) map[string]struct{} {
	seen := make(map[string]struct{}, len(tickets))
	for _, tk := range tickets {
		seen[tk.Key()] = struct{}{}
	}
	return seen
}
