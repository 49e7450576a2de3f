package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loto-optimizer/internal/grasp"
)

func gauge(t *testing.T, r *Recorder, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func TestObserveRun(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(Run{
		Game: "lotofacil", Requested: 5, Generated: 3,
		Objective: 12.5, Covered: 50, Total: 200,
		Stats: grasp.Stats{Candidates: 600, Swaps: 4},
	})

	assert.Equal(t, 1.0, gauge(t, r, "loto_runs_total", map[string]string{"game": "lotofacil", "outcome": "short"}))
	assert.Equal(t, 3.0, gauge(t, r, "loto_tickets", map[string]string{"game": "lotofacil", "kind": "generated"}))
	assert.Equal(t, 12.5, gauge(t, r, "loto_objective", map[string]string{"game": "lotofacil"}))
	assert.Equal(t, 0.25, gauge(t, r, "loto_coverage_ratio", map[string]string{"game": "lotofacil"}))
	assert.Equal(t, 600.0, gauge(t, r, "loto_search_events_total", map[string]string{"game": "lotofacil", "event": "candidates"}))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObservePhase("construct", 20*time.Millisecond)
	r.ObserveRun(Run{Game: "quina", Requested: 2, Generated: 2, Total: 10, Covered: 10})

	path := filepath.Join(t.TempDir(), "loto.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `loto_runs_total{game="quina",outcome="complete"} 1`)
	assert.Contains(t, out, `loto_phase_duration_seconds_count{phase="construct"} 1`)
}
