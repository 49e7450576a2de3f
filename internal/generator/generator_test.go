package generator

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loto-optimizer/internal/combo"
	"loto-optimizer/internal/game"
	"loto-optimizer/internal/grasp"
	"loto-optimizer/internal/metrics"
	"loto-optimizer/internal/pool"
	"loto-optimizer/internal/rules"
)

func spec(t *testing.T, name string) game.Spec {
	t.Helper()
	s, err := game.Builtin().Lookup(name)
	require.NoError(t, err)
	return s
}

// fast shrinks the search budgets for test speed.
func fast(o Options) Options {
	o.Grasp = grasp.Params{
		SampleCandidates:  120,
		RCLFraction:       0.2,
		LocalSearchIters:  30,
		SwapTrialsPerIter: 10,
	}
	return o
}

type phaseLog struct {
	mu     sync.Mutex
	phases map[string]int
}

func (p *phaseLog) ObservePhase(phase string, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phases == nil {
		p.phases = map[string]int{}
	}
	p.phases[phase]++
}

func TestLotofacilScenario(t *testing.T) {
	opts := fast(DefaultOptions(spec(t, "lotofacil"), 3, 15))
	require.Equal(t, 22, opts.PoolSize)
	require.Equal(t, 4, opts.T)

	obs := &phaseLog{}
	res, err := New(nil, obs).Generate(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, res.Tickets, 3)
	assert.Zero(t, res.Shortfall)
	assert.Len(t, res.Pool, 22)

	r := opts.Rules()
	seen := map[string]bool{}
	for _, tk := range res.Tickets {
		require.Len(t, tk, 15)
		assert.False(t, seen[tk.Key()], "duplicate ticket %v", tk)
		seen[tk.Key()] = true
		assert.True(t, rules.EvenOddOK(tk, 6, 9), "parity %v", tk)
		assert.True(t, rules.RangeSpreadOK(tk, 5, 25, 4), "spread %v", tk)
		assert.True(t, rules.ModularDiversityOK(tk, r.Mod), "mod %v", tk)
		for _, n := range tk {
			assert.Contains(t, res.Pool, n)
		}
	}

	assert.InDelta(t, metrics.Objective(res.Tickets, 4, opts.LamOverlap, opts.LamPop, 25), res.Objective, 1e-9)
	assert.Equal(t, combo.Binomial(22, 4), res.TotalSubsets)
	assert.Equal(t, metrics.Covered(res.Tickets, 4), res.Covered)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, 1, obs.phases[PhasePool])
	assert.Equal(t, 1, obs.phases[PhaseConstruct])
	assert.Equal(t, 1, obs.phases[PhaseLocalSearch])
}

func TestDeterministic(t *testing.T) {
	opts := fast(DefaultOptions(spec(t, "megasena"), 5, 6))
	g := New(nil, nil)

	a, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, a.Pool, b.Pool)
	assert.Equal(t, a.Tickets, b.Tickets)
	assert.Equal(t, a.Objective, b.Objective)
	assert.NotEqual(t, a.RunID, b.RunID)

	opts.Seed++
	c, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.NotEqual(t, a.Tickets, c.Tickets)
}

func TestDegeneratePool(t *testing.T) {
	opts := fast(DefaultOptions(spec(t, "megasena"), 3, 6))
	opts.PoolSize = 6

	res, err := New(nil, nil).Generate(context.Background(), opts)
	require.NoError(t, err)

	require.LessOrEqual(t, len(res.Tickets), 1)
	assert.Equal(t, 3-len(res.Tickets), res.Shortfall)
	if len(res.Tickets) == 1 {
		assert.Equal(t, res.Pool, []int(res.Tickets[0]))
	}
}

func TestRestartsNeverWorse(t *testing.T) {
	if testing.Short() {
		t.Skip("restarts run the pipeline several times")
	}
	opts := fast(DefaultOptions(spec(t, "quina"), 4, 5))
	g := New(nil, nil)

	single, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)

	opts.Restarts = 3
	multi, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, multi.Objective, single.Objective)
	assert.GreaterOrEqual(t, multi.Restart, 0)
	assert.Less(t, multi.Restart, 3)
	if multi.Restart == 0 {
		assert.Equal(t, single.Tickets, multi.Tickets)
	}

	again, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, multi.Tickets, again.Tickets)
}

func TestBiasReweighting(t *testing.T) {
	opts := fast(DefaultOptions(spec(t, "megasena"), 2, 6))
	opts.ReweightBias = true
	opts.Draws = [][]int{{1, 2, 3, 4, 5, 6}, {1, 12, 23, 34, 45, 56}, {7, 14, 21, 28, 35, 42}}
	g := New(nil, nil)

	res, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, res.Pool, opts.PoolSize)
	assert.Len(t, res.Tickets, 2)

	again, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, res.Pool, again.Pool, "same seed and draws give the same pool")
	assert.Equal(t, pool.Build(newRNG(opts.Seed), opts.poolConfig(), opts.Draws), res.Pool)

	uniform := opts
	uniform.ReweightBias = false
	plain, err := g.Generate(context.Background(), uniform)
	require.NoError(t, err)
	assert.NotEqual(t, plain.Pool, res.Pool, "weighted sampling draws a different pool for the same seed")

	ignored := opts
	ignored.Draws = nil
	noHistory, err := g.Generate(context.Background(), ignored)
	require.NoError(t, err)
	assert.Equal(t, plain.Pool, noHistory.Pool, "reweighting without draws is uniform")
}

// cancelAfter cancels the run once the named phase has been observed.
type cancelAfter struct {
	phase  string
	cancel context.CancelFunc
}

func (c cancelAfter) ObservePhase(phase string, _ time.Duration) {
	if phase == c.phase {
		c.cancel()
	}
}

func TestGenerateStopsWhenCancelled(t *testing.T) {
	opts := fast(DefaultOptions(spec(t, "quina"), 4, 5))
	opts.Restarts = 3

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := New(nil, cancelAfter{phase: PhasePool, cancel: cancel}).Generate(ctx, opts)
	require.NoError(t, err)

	assert.True(t, res.Interrupted)
	assert.Empty(t, res.Tickets)
	assert.Equal(t, 4, res.Shortfall)
	assert.Len(t, res.Pool, opts.PoolSize)
	assert.Zero(t, res.Stats.Rounds)
	assert.Zero(t, res.Stats.BackfillAttempts)
	assert.Zero(t, res.Restart)

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	opts.Restarts = 1
	res, err = New(nil, cancelAfter{phase: PhaseConstruct, cancel: cancel}).Generate(ctx, opts)
	require.NoError(t, err)
	assert.True(t, res.Interrupted)
	assert.Len(t, res.Tickets, 4, "tickets built before the cancel are kept")
	assert.Zero(t, res.Stats.Swaps+res.Stats.Shakes)
}

func TestDebugLogsEachRound(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	opts := fast(DefaultOptions(spec(t, "megasena"), 3, 6))

	res, err := New(log, nil).Generate(context.Background(), opts)
	require.NoError(t, err)

	var chosen, objective int
	for _, e := range hook.AllEntries() {
		switch e.Message {
		case "ticket chosen":
			chosen++
			assert.Equal(t, logrus.DebugLevel, e.Level)
			assert.Equal(t, "full", e.Data["rung"])
			assert.Contains(t, e.Data, "score")
			assert.Equal(t, res.RunID, e.Data["run_id"])
		case "restart objective":
			objective++
			assert.Equal(t, res.Objective, e.Data["after"])
		}
	}
	assert.Equal(t, res.Stats.Rounds, chosen)
	assert.Equal(t, 1, objective)
}

func TestRestartsIndependentOfParallelism(t *testing.T) {
	if testing.Short() {
		t.Skip("restarts run the pipeline several times")
	}
	opts := fast(DefaultOptions(spec(t, "megasena"), 3, 6))
	opts.Restarts = 3
	g := New(nil, nil)

	parallel, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)

	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)
	serial, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, parallel.Tickets, serial.Tickets)
	assert.Equal(t, parallel.Restart, serial.Restart)
	assert.Equal(t, parallel.Stats.Rounds, serial.Stats.Rounds)
}

func TestValidate(t *testing.T) {
	base := DefaultOptions(spec(t, "megasena"), 5, 6)
	require.NoError(t, base.Validate())

	cases := map[string]func(*Options){
		"k below range":   func(o *Options) { o.K = 5 },
		"k above range":   func(o *Options) { o.K = 21 },
		"pool below k":    func(o *Options) { o.PoolSize = 5 },
		"zero pool":       func(o *Options) { o.PoolSize = 0 },
		"zero rcl":        func(o *Options) { o.Grasp.RCLFraction = 0 },
		"rcl above one":   func(o *Options) { o.Grasp.RCLFraction = 1.5 },
		"no tickets":      func(o *Options) { o.Tickets = 0 },
		"t above k":       func(o *Options) { o.T = 7 },
		"t zero":          func(o *Options) { o.T = 0 },
		"parity inverted": func(o *Options) { o.MinEven, o.MaxEven = 4, 2 },
		"no restarts":     func(o *Options) { o.Restarts = 0 },
		"no candidates":   func(o *Options) { o.Grasp.SampleCandidates = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := base
			mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOptions))
		})
	}

	edge := base
	edge.Grasp.RCLFraction = 1
	edge.PoolSize = 6
	assert.NoError(t, edge.Validate())
}

func TestGenerateRejectsInvalid(t *testing.T) {
	opts := DefaultOptions(spec(t, "lotofacil"), 1, 10)
	_, err := New(nil, nil).Generate(context.Background(), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(nil, nil).Generate(ctx, DefaultOptions(spec(t, "lotofacil"), 1, 15))
	assert.ErrorIs(t, err, context.Canceled)
}
