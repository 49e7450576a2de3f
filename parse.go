package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"loto-optimizer/internal/combo"
	"loto-optimizer/internal/game"
	"loto-optimizer/internal/generator"
	"loto-optimizer/internal/history"
	"loto-optimizer/internal/telemetry"
)

// Request ceilings for the HTTP and Lambda surfaces. The subset ceilings
// bound the coverage universe C(pool, t) and the per-ticket C(k, t) that
// construction enumerates for every candidate.
const (
	maxRequestTickets       = 500
	maxRequestRestarts      = 8
	maxRequestCandidates    = 5000
	maxRequestLocalIters    = 5000
	maxRequestSwapTrials    = 500
	maxRequestSubsets       = 5_000_000
	maxRequestTicketSubsets = 10_000
)

var errBadRequest = errors.New("bad request")

// parseRequest turns a JSON generation request into validated options.
// Fields mirror the CLI flags in snake_case; absent fields keep the game's
// defaults. draws is an optional array of draws in any shape the history
// JSON reader accepts.
func parseRequest(body []byte, catalog game.Catalog) (generator.Options, error) {
	if !gjson.ValidBytes(body) {
		return generator.Options{}, fmt.Errorf("%w: invalid JSON", errBadRequest)
	}
	req := gjson.ParseBytes(body)

	name := req.Get("game").String()
	if name == "" {
		return generator.Options{}, fmt.Errorf("%w: missing game", errBadRequest)
	}
	spec, err := catalog.Lookup(name)
	if err != nil {
		return generator.Options{}, err
	}

	k := spec.KMin
	if v := req.Get("k"); v.Exists() {
		k = int(v.Int())
	}
	opts := generator.DefaultOptions(spec, int(req.Get("tickets").Int()), k)

	ints := map[string]*int{
		"pool_size":         &opts.PoolSize,
		"bins":              &opts.Bins,
		"min_bins_hit":      &opts.MinBinsHit,
		"min_even":          &opts.MinEven,
		"max_even":          &opts.MaxEven,
		"t_cover":           &opts.T,
		"sample_candidates": &opts.Grasp.SampleCandidates,
		"local_iters":       &opts.Grasp.LocalSearchIters,
		"swap_trials":       &opts.Grasp.SwapTrialsPerIter,
		"restarts":          &opts.Restarts,
	}
	for key, dst := range ints {
		if v := req.Get(key); v.Exists() {
			*dst = int(v.Int())
		}
	}
	floats := map[string]*float64{
		"lam_overlap":     &opts.LamOverlap,
		"lam_pop":         &opts.LamPop,
		"rcl_frac":        &opts.Grasp.RCLFraction,
		"bias_multiplier": &opts.Bias.Multiplier,
		"bias_clamp":      &opts.Bias.Clamp,
		"bias_floor":      &opts.Bias.Floor,
	}
	for key, dst := range floats {
		if v := req.Get(key); v.Exists() {
			*dst = v.Float()
		}
	}
	if v := req.Get("seed"); v.Exists() {
		opts.Seed = v.Uint()
	}
	opts.ReweightBias = req.Get("reweight_bias").Bool()

	if draws := req.Get("draws"); draws.IsArray() {
		draws.ForEach(func(_, value gjson.Result) bool {
			if d := history.Normalize(history.ParseDraw(value)); len(d) > 0 {
				opts.Draws = append(opts.Draws, d)
			}
			return true
		})
	}

	if err := checkBounds(opts); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

// checkBounds rejects requests whose search would be too large to serve.
func checkBounds(opts generator.Options) error {
	tooLarge := func(what string, limit int) error {
		return fmt.Errorf("%w: %s exceeds %d per request", errBadRequest, what, limit)
	}
	switch {
	case opts.Tickets > maxRequestTickets:
		return tooLarge("tickets", maxRequestTickets)
	case opts.Restarts > maxRequestRestarts:
		return tooLarge("restarts", maxRequestRestarts)
	case opts.Grasp.SampleCandidates > maxRequestCandidates:
		return tooLarge("sample_candidates", maxRequestCandidates)
	case opts.Grasp.LocalSearchIters > maxRequestLocalIters:
		return tooLarge("local_iters", maxRequestLocalIters)
	case opts.Grasp.SwapTrialsPerIter > maxRequestSwapTrials:
		return tooLarge("swap_trials", maxRequestSwapTrials)
	}
	poolSize := min(opts.PoolSize, opts.Game.MaxNumber)
	if !combo.BinomialAtMost(poolSize, opts.T, maxRequestSubsets) {
		return tooLarge(fmt.Sprintf("C(pool=%d, t=%d)", poolSize, opts.T), maxRequestSubsets)
	}
	if !combo.BinomialAtMost(opts.K, opts.T, maxRequestTicketSubsets) {
		return tooLarge(fmt.Sprintf("C(k=%d, t=%d)", opts.K, opts.T), maxRequestTicketSubsets)
	}
	return nil
}

// runGenerate runs one generation and records it on rec (which may be nil).
func runGenerate(ctx context.Context, gen *generator.Generator, rec *telemetry.Recorder, opts generator.Options) (*generator.Result, error) {
	res, err := gen.Generate(ctx, opts)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		rec.ObserveRun(telemetry.Run{
			Game:      res.Game,
			Requested: res.Requested,
			Generated: len(res.Tickets),
			Objective: res.Objective,
			Covered:   res.Covered,
			Total:     res.TotalSubsets,
			Stats:     res.Stats,
		})
	}
	return res, nil
}

type errorBody struct {
	Error string `json:"error"`
}

type generateResponse struct {
	*generator.Result
	Detail string `json:"detail"`
}

// respond handles one JSON generation request and returns the status code
// and the value to encode as the response body.
func respond(ctx context.Context, gen *generator.Generator, rec *telemetry.Recorder, catalog game.Catalog, body []byte) (int, any) {
	opts, err := parseRequest(body, catalog)
	if err != nil {
		return statusFor(err), errorBody{Error: err.Error()}
	}
	res, err := runGenerate(ctx, gen, rec, opts)
	if err != nil {
		return statusFor(err), errorBody{Error: err.Error()}
	}
	return http.StatusOK, generateResponse{Result: res, Detail: FormatResult(res)}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownGame):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, generator.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
