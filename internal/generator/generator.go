// Package generator runs the full ticket pipeline: pool, construction,
// backfill and local search, optionally repeated over independent restarts.
package generator

import (
	"context"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	conc "github.com/sourcegraph/conc/pool"

	"loto-optimizer/internal/combo"
	"loto-optimizer/internal/grasp"
	"loto-optimizer/internal/logging"
	"loto-optimizer/internal/metrics"
	"loto-optimizer/internal/pool"
)

// restartStride separates the construction seeds of consecutive restarts.
const restartStride = 1000

// Phase names passed to the Observer and logged as the "phase" field.
const (
	PhasePool        = "pool"
	PhaseConstruct   = "construct"
	PhaseBackfill    = "backfill"
	PhaseLocalSearch = "local_search"
	PhaseDone        = "done"
)

// Observer receives phase timings.
type Observer interface {
	ObservePhase(phase string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObservePhase(string, time.Duration) {}

// Result is the outcome of one run.
type Result struct {
	RunID        string         `json:"run_id"`
	Game         string         `json:"game"`
	K            int            `json:"k"`
	T            int            `json:"t"`
	LamOverlap   float64        `json:"lam_overlap"`
	LamPop       float64        `json:"lam_pop"`
	Seed         uint64         `json:"seed"`
	Pool         []int          `json:"pool"`
	Tickets      []combo.Ticket `json:"tickets"`
	Requested    int            `json:"requested"`
	Shortfall    int            `json:"shortfall"`
	Objective    float64        `json:"objective"`
	Covered      int            `json:"covered"`
	TotalSubsets int            `json:"total_subsets"`
	Restart      int            `json:"restart"`
	Interrupted  bool           `json:"interrupted,omitempty"`
	Stats        grasp.Stats    `json:"stats"`
	Elapsed      time.Duration  `json:"elapsed_ns"`
}

// Generator runs the pipeline. The zero value is usable: it logs nowhere and
// observes nothing.
type Generator struct {
	Log      logrus.FieldLogger
	Observer Observer
}

// New returns a Generator logging to log and reporting phases to obs. Either
// may be nil.
func New(log logrus.FieldLogger, obs Observer) *Generator {
	return &Generator{Log: log, Observer: obs}
}

type attempt struct {
	restart int
	tickets []combo.Ticket
	value   float64
	stats   grasp.Stats
	skipped bool
}

// Generate validates opts and runs the pipeline. Infeasibility never fails
// the run: a short ticket set is reported through Result.Shortfall.
// Cancelling ctx mid-run stops every phase early; the best tickets found so
// far are returned with Result.Interrupted set.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	runID := uuid.NewString()
	log := g.logger().WithFields(logrus.Fields{
		"run_id":  runID,
		"game":    opts.Game.Name,
		"k":       opts.K,
		"tickets": opts.Tickets,
	})

	t0 := time.Now()
	numbers := pool.Build(newRNG(opts.Seed), opts.poolConfig(), opts.Draws)
	g.observe(PhasePool, t0)
	log.WithFields(logrus.Fields{
		"phase":    PhasePool,
		"size":     len(numbers),
		"draws":    len(opts.Draws),
		"reweight": opts.ReweightBias,
	}).Info("pool built")

	prob := grasp.Problem{
		Pool:       numbers,
		K:          opts.K,
		T:          opts.T,
		Rules:      opts.Rules(),
		LamOverlap: opts.LamOverlap,
		LamPop:     opts.LamPop,
	}

	attempts := make([]attempt, opts.Restarts)
	workers := min(opts.Restarts, runtime.GOMAXPROCS(0))
	p := conc.New().WithMaxGoroutines(workers)
	for r := range opts.Restarts {
		p.Go(func() {
			if r > 0 && ctx.Err() != nil {
				attempts[r] = attempt{restart: r, skipped: true}
				return
			}
			attempts[r] = g.search(ctx, log.WithField("restart", r), prob, opts, r)
		})
	}
	p.Wait()

	best := attempts[0]
	for _, a := range attempts[1:] {
		if !a.skipped && a.value > best.value {
			best = a
		}
	}
	var stats grasp.Stats
	for _, a := range attempts {
		stats.Add(a.stats)
	}

	res := &Result{
		RunID:        runID,
		Game:         opts.Game.Name,
		K:            opts.K,
		T:            opts.T,
		LamOverlap:   opts.LamOverlap,
		LamPop:       opts.LamPop,
		Seed:         opts.Seed,
		Pool:         numbers,
		Tickets:      best.tickets,
		Requested:    opts.Tickets,
		Shortfall:    opts.Tickets - len(best.tickets),
		Objective:    best.value,
		Covered:      metrics.Covered(best.tickets, opts.T),
		TotalSubsets: combo.Binomial(len(numbers), opts.T),
		Restart:      best.restart,
		Stats:        stats,
		Elapsed:      time.Since(start),
		Interrupted:  ctx.Err() != nil,
	}

	done := log.WithFields(logrus.Fields{
		"phase":     PhaseDone,
		"generated": len(res.Tickets),
		"objective": res.Objective,
		"covered":   res.Covered,
		"subsets":   res.TotalSubsets,
		"restart":   res.Restart,
		"elapsed":   res.Elapsed,
	})
	if res.Interrupted {
		done = done.WithField("interrupted", true)
	}
	if res.Shortfall > 0 {
		done.WithField("shortfall", res.Shortfall).Warn("fewer tickets than requested")
	} else {
		done.Info("done")
	}
	return res, nil
}

// search runs construction, backfill and local search for one restart. The
// phases share nothing with other restarts except the read-only problem.
func (g *Generator) search(ctx context.Context, log logrus.FieldLogger, prob grasp.Problem, opts Options, restart int) attempt {
	seed := opts.Seed + uint64(restart)*restartStride
	var st grasp.Stats

	rng := newRNG(seed)
	t0 := time.Now()
	tickets, uncovered := grasp.Construct(ctx, rng, prob, opts.Tickets, opts.Grasp, &st)
	g.observe(PhaseConstruct, t0)
	for i, pk := range st.Picks {
		log.WithFields(logrus.Fields{
			"phase":      PhaseConstruct,
			"round":      i + 1,
			"rung":       pk.Rung,
			"candidates": pk.Candidates,
			"rcl":        pk.RCL,
			"score":      pk.Score,
		}).Debug("ticket chosen")
	}
	log.WithFields(logrus.Fields{
		"phase":     PhaseConstruct,
		"built":     len(tickets),
		"uncovered": uncovered.Len(),
		"relaxed":   st.RelaxedRounds,
	}).Info("construction finished")

	if len(tickets) < opts.Tickets && ctx.Err() == nil {
		t0 = time.Now()
		before := len(tickets)
		tickets = grasp.Backfill(ctx, rng, prob, tickets, opts.Tickets, grasp.BackfillAttempts, &st)
		g.observe(PhaseBackfill, t0)
		log.WithFields(logrus.Fields{
			"phase":    PhaseBackfill,
			"added":    len(tickets) - before,
			"attempts": st.BackfillAttempts,
		}).Info("backfill finished")
	}

	before := metrics.Objective(tickets, prob.T, prob.LamOverlap, prob.LamPop, prob.MaxNumber())
	value := before
	if ctx.Err() == nil {
		t0 = time.Now()
		tickets = grasp.Improve(ctx, newRNG(seed+1), prob, tickets, opts.Grasp, &st)
		g.observe(PhaseLocalSearch, t0)
		value = metrics.Objective(tickets, prob.T, prob.LamOverlap, prob.LamPop, prob.MaxNumber())
	}
	log.WithFields(logrus.Fields{
		"phase":  PhaseLocalSearch,
		"before": before,
		"after":  value,
		"swaps":  st.Swaps,
		"shakes": st.ShakesAccepted,
	}).Debug("restart objective")

	return attempt{restart: restart, tickets: tickets, value: value, stats: st}
}

func (g *Generator) logger() logrus.FieldLogger {
	if g.Log != nil {
		return g.Log
	}
	return logging.Discard()
}

func (g *Generator) observe(phase string, since time.Time) {
	obs := g.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	obs.ObservePhase(phase, time.Since(since))
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
