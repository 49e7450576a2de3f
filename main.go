//go:build !lambda

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/sirupsen/logrus"

	"loto-optimizer/internal/export"
	"loto-optimizer/internal/generator"
	"loto-optimizer/internal/grasp"
	"loto-optimizer/internal/history"
	"loto-optimizer/internal/logging"
	"loto-optimizer/internal/telemetry"
)

const usage = `Usage: loto-optimizer [flags] <tickets> <k> <game>
       loto-optimizer -serve :8080

Positional arguments:
  tickets   Number of tickets to generate
  k         Numbers per ticket
  game      Game preset (megasena, lotofacil, quina, or one added by -presets)

Flags:
`

// cliFlags holds the parsed command line. Override flags only apply when
// they were set explicitly; otherwise the game preset decides.
type cliFlags struct {
	history      string
	historyDSN   string
	reweightBias bool

	poolSize   int
	bins       int
	minBinsHit int
	minEven    int
	maxEven    int
	tCover     int

	lamOverlap float64
	lamPop     float64
	grasp      grasp.Params
	seed       uint64
	restarts   int

	out         string
	stdout      bool
	jsonOut     bool
	presets     string
	metricsFile string
	serve       string
	verbose     bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*cliFlags, map[string]bool, error) {
	f := &cliFlags{}
	def := grasp.DefaultParams()
	fs.StringVar(&f.history, "history", "", "Past draws file (.csv or .json)")
	fs.StringVar(&f.historyDSN, "history-dsn", "", "Postgres DSN to read past draws from (env LOTO_HISTORY_DSN)")
	fs.BoolVar(&f.reweightBias, "reweight-bias", false, "Nudge pool sampling by historical frequency")
	fs.IntVar(&f.poolSize, "pool-size", 0, "Pool size (default: game preset)")
	fs.IntVar(&f.bins, "bins", 0, "Number of ranges 1..N is split into (default: game preset)")
	fs.IntVar(&f.minBinsHit, "min-bins-hit", 0, "Minimum ranges hit per ticket (default: game preset)")
	fs.IntVar(&f.minEven, "min-even", 0, "Minimum even numbers per ticket (default: game preset)")
	fs.IntVar(&f.maxEven, "max-even", 0, "Maximum even numbers per ticket (default: game preset)")
	fs.IntVar(&f.tCover, "t-cover", 0, "Subset size for coverage (default: game preset)")
	fs.Float64Var(&f.lamOverlap, "lam-overlap", generator.DefaultLamOverlap, "Overlap penalty weight")
	fs.Float64Var(&f.lamPop, "lam-pop", generator.DefaultLamPop, "Popularity cost weight")
	fs.IntVar(&f.grasp.SampleCandidates, "sample-candidates", def.SampleCandidates, "Candidates sampled per construction round")
	fs.Float64Var(&f.grasp.RCLFraction, "rcl-frac", def.RCLFraction, "Restricted candidate list fraction, in (0,1]")
	fs.IntVar(&f.grasp.LocalSearchIters, "local-iters", def.LocalSearchIters, "Local search iterations")
	fs.IntVar(&f.grasp.SwapTrialsPerIter, "swap-trials", def.SwapTrialsPerIter, "Swap attempts per local search iteration")
	fs.Uint64Var(&f.seed, "seed", generator.DefaultSeed, "Random seed")
	fs.IntVar(&f.restarts, "restarts", 1, "Independent construct+improve restarts; best objective wins")
	fs.StringVar(&f.out, "out", "", "Write tickets to this CSV file")
	fs.BoolVar(&f.stdout, "stdout", false, "Print tickets to the console even with -out")
	fs.BoolVar(&f.jsonOut, "json", false, "Print the result as JSON")
	fs.StringVar(&f.presets, "presets", "", "YAML file overriding or adding game presets (env LOTO_PRESETS)")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write prometheus metrics to this file after the run (env LOTO_METRICS_FILE)")
	fs.StringVar(&f.serve, "serve", "", "Serve the HTTP API on this address instead of running once")
	fs.BoolVar(&f.verbose, "verbose", false, "Debug logging to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// apply copies explicitly set overrides onto opts.
func (f *cliFlags) apply(opts *generator.Options, set map[string]bool) {
	ints := map[string]struct {
		src int
		dst *int
	}{
		"pool-size":    {f.poolSize, &opts.PoolSize},
		"bins":         {f.bins, &opts.Bins},
		"min-bins-hit": {f.minBinsHit, &opts.MinBinsHit},
		"min-even":     {f.minEven, &opts.MinEven},
		"max-even":     {f.maxEven, &opts.MaxEven},
		"t-cover":      {f.tCover, &opts.T},
	}
	for name, o := range ints {
		if set[name] {
			*o.dst = o.src
		}
	}
	opts.LamOverlap = f.lamOverlap
	opts.LamPop = f.lamPop
	opts.Grasp = f.grasp
	opts.Seed = f.seed
	opts.Restarts = f.restarts
	opts.ReweightBias = f.reweightBias
}

// overrideEnv fills unset flags from the environment.
func (f *cliFlags) overrideEnv(env envConfig) {
	if f.historyDSN == "" {
		f.historyDSN = env.HistoryDSN
	}
	if f.metricsFile == "" {
		f.metricsFile = env.MetricsFile
	}
	if f.presets == "" {
		f.presets = env.Presets
	}
}

func main() {
	fs := flag.NewFlagSet("loto-optimizer", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	f, set, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	env, err := loadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f.overrideEnv(env)

	level := env.LogLevel
	if f.verbose {
		level = "debug"
	}
	log, err := logging.New(level, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if f.serve != "" {
		if err := serve(ctx, f.serve, f.presets, log); err != nil {
			log.WithError(err).Fatal("serve")
		}
		return
	}

	if err := run(ctx, f, set, fs.Args(), os.Stdout, log); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			fs.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// run executes one CLI generation: presets, history, search, output.
func run(ctx context.Context, f *cliFlags, set map[string]bool, args []string, stdout io.Writer, log *logrus.Logger) error {
	if len(args) != 3 {
		// flag parsing stops at the first positional, so anything after
		// "tickets k game" would otherwise be dropped silently
		return fmt.Errorf("%w: want <tickets> <k> <game> after the flags, got %d arguments %q", errUsage, len(args), args)
	}
	tickets, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid tickets %q", args[0])
	}
	k, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid k %q", args[1])
	}

	catalog, err := loadCatalog(f.presets)
	if err != nil {
		return err
	}
	spec, err := catalog.Lookup(args[2])
	if err != nil {
		return err
	}

	opts := generator.DefaultOptions(spec, tickets, k)
	f.apply(&opts, set)
	if err := opts.Validate(); err != nil {
		return err
	}

	draws, err := loadDraws(ctx, f.history, f.historyDSN)
	switch {
	case errors.Is(err, history.ErrNoDraws):
		log.WithError(err).Warn("history ignored")
	case err != nil:
		return err
	}
	opts.Draws = history.Ints(draws)
	if f.reweightBias && len(opts.Draws) == 0 {
		log.Warn("-reweight-bias without history: pool is sampled uniformly")
	}

	rec := telemetry.NewRecorder()
	res, err := runGenerate(ctx, generator.New(log, rec), rec, opts)
	if err != nil {
		return err
	}

	switch {
	case f.jsonOut:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	case f.stdout || f.out == "":
		fmt.Fprintln(stdout, FormatResult(res))
	}

	if f.out != "" {
		if err := export.WriteFile(f.out, res.Tickets, res.K); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "[ok] %d tickets saved to %s\n", len(res.Tickets), f.out)
	}
	if f.metricsFile != "" {
		if err := rec.WriteTextfile(f.metricsFile); err != nil {
			return fmt.Errorf("metrics file: %w", err)
		}
	}
	return nil
}

// loadDraws reads history from a file, or from Postgres when only a DSN is
// given. With neither it returns no draws.
func loadDraws(ctx context.Context, path, dsn string) ([]history.Draw, error) {
	switch {
	case path != "":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("history file: %w", err)
		}
		return history.FileSource{Path: path}.Load(ctx)
	case dsn != "":
		db, err := history.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return history.SQLSource{DB: db}.Load(ctx)
	}
	return nil, nil
}
