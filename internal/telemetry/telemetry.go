// Package telemetry exposes generation runs as prometheus metrics, either
// scraped in serve mode or written to a node-exporter textfile after a CLI run.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loto-optimizer/internal/grasp"
)

const namespace = "loto"

// Recorder owns a registry and the run metrics registered on it.
type Recorder struct {
	reg *prometheus.Registry

	runs      *prometheus.CounterVec
	tickets   *prometheus.GaugeVec
	objective *prometheus.GaugeVec
	coverage  *prometheus.GaugeVec
	phases    *prometheus.HistogramVec
	search    *prometheus.CounterVec
}

// NewRecorder creates a Recorder on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Generation runs by game and outcome (complete or short).",
		}, []string{"game", "outcome"}),
		tickets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tickets",
			Help:      "Tickets requested and generated by the last run.",
		}, []string{"game", "kind"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "objective",
			Help:      "Objective score of the last run's ticket set.",
		}, []string{"game"}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coverage_ratio",
			Help:      "Share of the pool's t-subsets covered by the last run.",
		}, []string{"game"}),
		phases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of each generation phase.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"phase"}),
		search: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_events_total",
			Help:      "Search events: candidates, relaxed rounds, swaps, shakes, backfills.",
		}, []string{"game", "event"}),
	}
	r.reg.MustRegister(r.runs, r.tickets, r.objective, r.coverage, r.phases, r.search)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObservePhase records how long a phase took.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phases.WithLabelValues(phase).Observe(d.Seconds())
}

// Run summarizes one generation run.
type Run struct {
	Game      string
	Requested int
	Generated int
	Objective float64
	Covered   int
	Total     int
	Stats     grasp.Stats
}

// ObserveRun records the outcome of a run.
func (r *Recorder) ObserveRun(run Run) {
	outcome := "complete"
	if run.Generated < run.Requested {
		outcome = "short"
	}
	r.runs.WithLabelValues(run.Game, outcome).Inc()
	r.tickets.WithLabelValues(run.Game, "requested").Set(float64(run.Requested))
	r.tickets.WithLabelValues(run.Game, "generated").Set(float64(run.Generated))
	r.objective.WithLabelValues(run.Game).Set(run.Objective)
	if run.Total > 0 {
		r.coverage.WithLabelValues(run.Game).Set(float64(run.Covered) / float64(run.Total))
	}
	st := run.Stats
	for event, n := range map[string]int{
		"candidates":      st.Candidates,
		"relaxed_rounds":  st.RelaxedRounds,
		"backfilled":      st.Backfilled,
		"swaps":           st.Swaps,
		"shakes":          st.Shakes,
		"shakes_accepted": st.ShakesAccepted,
	} {
		r.search.WithLabelValues(run.Game, event).Add(float64(n))
	}
}

// WriteTextfile writes the current metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
