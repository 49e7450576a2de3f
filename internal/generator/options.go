package generator

import (
	"errors"
	"fmt"

	"loto-optimizer/internal/game"
	"loto-optimizer/internal/grasp"
	"loto-optimizer/internal/pool"
	"loto-optimizer/internal/rules"
)

// ErrInvalidOptions is wrapped by every Validate failure.
var ErrInvalidOptions = errors.New("invalid options")

// Stock objective weights and seed.
const (
	DefaultLamOverlap = 0.6
	DefaultLamPop     = 0.8
	DefaultSeed       = 123
)

// Options is everything one run needs. Game supplies the universe, the k
// range and the mod constraints; the remaining fields start from the game's
// defaults (see DefaultOptions) and may be overridden by the caller.
type Options struct {
	Game       game.Spec
	Tickets    int
	K          int
	PoolSize   int
	Bins       int
	MinBinsHit int
	MinEven    int
	MaxEven    int
	T          int
	LamOverlap float64
	LamPop     float64
	Grasp      grasp.Params
	Seed       uint64

	ReweightBias bool
	Bias         pool.Bias

	// Restarts is the number of independent construct+improve runs over the
	// same pool. The best objective wins.
	Restarts int

	// Draws is the history used for bias reweighting. May be nil.
	Draws [][]int
}

// DefaultOptions fills Options from the game's defaults.
func DefaultOptions(spec game.Spec, tickets, k int) Options {
	return Options{
		Game:       spec,
		Tickets:    tickets,
		K:          k,
		PoolSize:   spec.PoolSize,
		Bins:       spec.Bins,
		MinBinsHit: spec.MinBinsHit,
		MinEven:    spec.MinEven,
		MaxEven:    spec.MaxEven,
		T:          spec.TCover,
		LamOverlap: DefaultLamOverlap,
		LamPop:     DefaultLamPop,
		Grasp:      grasp.DefaultParams(),
		Seed:       DefaultSeed,
		Bias:       pool.DefaultBias(),
		Restarts:   1,
	}
}

// Validate checks the options before any search runs.
func (o Options) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
	}
	g := o.Game
	switch {
	case g.MaxNumber < 1:
		return bad("game %q has max_number %d", g.Name, g.MaxNumber)
	case o.K < g.KMin || (g.KMax > 0 && o.K > g.KMax):
		return bad("k=%d outside [%d,%d] for %s", o.K, g.KMin, g.KMax, g.Name)
	case o.K < 1 || o.K > g.MaxNumber:
		return bad("k=%d outside 1..%d", o.K, g.MaxNumber)
	case o.PoolSize < 1:
		return bad("pool_size must be >= 1, got %d", o.PoolSize)
	case o.PoolSize < o.K:
		return bad("pool_size=%d must be >= k=%d", o.PoolSize, o.K)
	case o.Tickets < 1:
		return bad("tickets must be >= 1, got %d", o.Tickets)
	case o.T < 1 || o.T > o.K:
		return bad("t=%d outside 1..k (%d)", o.T, o.K)
	case o.MinEven > o.MaxEven:
		return bad("min_even=%d > max_even=%d", o.MinEven, o.MaxEven)
	case o.Grasp.RCLFraction <= 0 || o.Grasp.RCLFraction > 1:
		return bad("rcl_frac must be in (0,1], got %g", o.Grasp.RCLFraction)
	case o.Grasp.SampleCandidates < 1:
		return bad("sample_candidates must be >= 1, got %d", o.Grasp.SampleCandidates)
	case o.Grasp.LocalSearchIters < 0 || o.Grasp.SwapTrialsPerIter < 0:
		return bad("local search budgets must be >= 0")
	case o.Restarts < 1:
		return bad("restarts must be >= 1, got %d", o.Restarts)
	}
	return nil
}

// Rules returns the feasibility rules the options describe.
func (o Options) Rules() rules.Rules {
	r := o.Game.Rules()
	r.MinEven = o.MinEven
	r.MaxEven = o.MaxEven
	r.Bins = o.Bins
	r.MinBinsHit = o.MinBinsHit
	return r
}

func (o Options) poolConfig() pool.Config {
	return pool.Config{
		MaxNumber:    o.Game.MaxNumber,
		Size:         o.PoolSize,
		Bins:         o.Bins,
		ReweightBias: o.ReweightBias,
		Bias:         o.Bias,
	}
}
