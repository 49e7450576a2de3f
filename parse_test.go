package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loto-optimizer/internal/game"
	"loto-optimizer/internal/generator"
)

func TestParseRequest(t *testing.T) {
	body := []byte(`{
		"game": "Quina",
		"tickets": 4,
		"k": 6,
		"pool_size": 20,
		"t_cover": 2,
		"lam_pop": 0.5,
		"rcl_frac": 0.3,
		"seed": 7,
		"restarts": 2,
		"reweight_bias": true,
		"draws": [[5, 3, 3, 80], {"numbers": "1 2 77"}, []]
	}`)
	opts, err := parseRequest(body, game.Builtin())
	require.NoError(t, err)

	assert.Equal(t, "quina", opts.Game.Name)
	assert.Equal(t, 4, opts.Tickets)
	assert.Equal(t, 6, opts.K)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 2, opts.T)
	assert.Equal(t, 8, opts.Bins, "unset fields keep the preset")
	assert.Equal(t, generator.DefaultLamOverlap, opts.LamOverlap)
	assert.Equal(t, 0.5, opts.LamPop)
	assert.Equal(t, 0.3, opts.Grasp.RCLFraction)
	assert.EqualValues(t, 7, opts.Seed)
	assert.Equal(t, 2, opts.Restarts)
	assert.True(t, opts.ReweightBias)
	assert.Equal(t, [][]int{{3, 5, 80}, {1, 2, 77}}, opts.Draws)
}

func TestParseRequestDefaultsK(t *testing.T) {
	opts, err := parseRequest([]byte(`{"game":"megasena","tickets":2}`), game.Builtin())
	require.NoError(t, err)
	assert.Equal(t, 6, opts.K)
	assert.Equal(t, 3, opts.T)
	assert.EqualValues(t, generator.DefaultSeed, opts.Seed)
}

func TestParseRequestErrors(t *testing.T) {
	cases := map[string]struct {
		body   string
		status int
	}{
		"not json":       {`{"game":`, http.StatusBadRequest},
		"no game":        {`{"tickets":2}`, http.StatusBadRequest},
		"unknown game":   {`{"game":"keno","tickets":2}`, http.StatusNotFound},
		"no tickets":     {`{"game":"megasena"}`, http.StatusBadRequest},
		"k out of range": {`{"game":"megasena","tickets":2,"k":30}`, http.StatusBadRequest},
		"too many":       {`{"game":"megasena","tickets":100000}`, http.StatusBadRequest},
		"restarts":       {`{"game":"megasena","tickets":2,"restarts":64}`, http.StatusBadRequest},
		"candidates":     {`{"game":"megasena","tickets":2,"sample_candidates":100000}`, http.StatusBadRequest},
		"local iters":    {`{"game":"megasena","tickets":2,"local_iters":1000000}`, http.StatusBadRequest},
		"swap trials":    {`{"game":"megasena","tickets":2,"swap_trials":100000}`, http.StatusBadRequest},
		"subset space":   {`{"game":"quina","k":15,"tickets":1,"pool_size":80,"t_cover":8}`, http.StatusBadRequest},
		"ticket subsets": {`{"game":"lotofacil","k":20,"tickets":1,"pool_size":20,"t_cover":10}`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseRequest([]byte(tc.body), game.Builtin())
			require.Error(t, err)
			assert.Equal(t, tc.status, statusFor(err))
		})
	}
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
}

func TestParseRequestRejectsOversizedSearch(t *testing.T) {
	body := []byte(`{"game":"quina","k":15,"tickets":1,"pool_size":80,"t_cover":8,` +
		`"sample_candidates":100000000,"local_iters":1000000000}`)
	_, err := parseRequest(body, game.Builtin())
	require.ErrorIs(t, err, errBadRequest)

	body = []byte(`{"game":"quina","k":15,"tickets":1,"pool_size":80,"t_cover":8}`)
	_, err = parseRequest(body, game.Builtin())
	require.ErrorIs(t, err, errBadRequest)
	assert.Contains(t, err.Error(), "C(pool=80, t=8)")

	opts, err := parseRequest([]byte(`{"game":"lotofacil","k":15,"tickets":3,"pool_size":25}`), game.Builtin())
	require.NoError(t, err, "the full lotofacil universe stays within bounds")
	assert.Equal(t, 25, opts.PoolSize)
}

func TestRespondCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, payload := respond(ctx, generator.New(nil, nil), nil, game.Builtin(),
		[]byte(`{"game":"megasena","tickets":2}`))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.IsType(t, errorBody{}, payload)
}
