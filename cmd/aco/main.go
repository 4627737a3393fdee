package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chaitanya176/aco-last-mile/internal/config"
	"github.com/chaitanya176/aco-last-mile/internal/dataset"
	"github.com/chaitanya176/aco-last-mile/internal/logging"
	"github.com/chaitanya176/aco-last-mile/internal/optimization/aco"
)

var version = "dev"

const epilog = `For best results:
  * 0.5 <= alpha <= 1
  * 1.0 <= beta <= 5
  * alpha < beta
  * limit >= 2000
  * count > 1
`

// ExitError carries the process exit code for a failed run.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(msg string) error {
	return &ExitError{Code: 2, Message: msg}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err == nil {
		return
	}

	code := 1
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	env, err := config.Load()
	if err != nil {
		return err
	}
	base := env.SolverConfig()

	fs := flag.NewFlagSet("aco", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Solve a travelling salesman tour with ant colony optimization.\n\nUsage:\n  aco [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\n%s", epilog)
	}

	flags := base
	fs.Float64Var(&flags.Alpha, "alpha", base.Alpha, "relative importance placed on pheromones")
	fs.Float64Var(&flags.Beta, "beta", base.Beta, "relative importance placed on distances")
	fs.IntVar(&flags.Limit, "limit", base.Limit, "number of iterations to perform")
	fs.Float64Var(&flags.Rho, "rho", base.Rho, "ratio of evaporated pheromone (0 <= rho <= 1)")
	fs.Float64Var(&flags.Elite, "elite", base.Elite, "ratio of the elite ant's pheromone")
	fs.Float64Var(&flags.Q, "q", base.Q, "total pheromone capacity of each ant (q > 0)")
	fs.Float64Var(&flags.T0, "t0", base.T0, "initial amount of pheromone on every edge (t0 > 0)")
	fs.IntVar(&flags.AntCount, "count", base.AntCount, "number of ants used in each iteration (count > 0)")
	fs.Int64Var(&flags.Seed, "seed", base.Seed, "random seed; 0 seeds from the clock")
	fs.IntVar(&flags.Workers, "workers", base.Workers, "goroutines building tours")
	fs.IntVar(&flags.Start, "start", base.Start, "index of the start node; -1 picks one per ant")
	datasetID := fs.Int("dataset", 38, fmt.Sprintf("demo data set, one of %v", dataset.IDs()))
	profilePath := fs.String("config", "", "TOML solver profile applied before explicit flags")
	logLevel := fs.String("log-level", "warn", "log level: debug|info|warn|error")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return usageError(err.Error())
	}
	if fs.NArg() > 0 {
		return usageError(fmt.Sprintf("unexpected arguments: %v", fs.Args()))
	}
	if *showVersion {
		fmt.Fprintf(stdout, "aco %s\n", version)
		return nil
	}

	nodes, err := dataset.Lookup(*datasetID)
	if err != nil {
		return usageError(err.Error())
	}

	cfg := base
	if *profilePath != "" {
		if cfg, err = config.LoadProfile(*profilePath, base); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "alpha":
			cfg.Alpha = flags.Alpha
		case "beta":
			cfg.Beta = flags.Beta
		case "limit":
			cfg.Limit = flags.Limit
		case "rho":
			cfg.Rho = flags.Rho
		case "elite":
			cfg.Elite = flags.Elite
		case "q":
			cfg.Q = flags.Q
		case "t0":
			cfg.T0 = flags.T0
		case "count":
			cfg.AntCount = flags.AntCount
		case "seed":
			cfg.Seed = flags.Seed
		case "workers":
			cfg.Workers = flags.Workers
		case "start":
			cfg.Start = flags.Start
		}
	})

	logger := logging.New(logging.ParseLevel(*logLevel), stderr)
	defer logger.Sync()

	world, err := aco.NewWorld(nodes, dataset.Euclidean)
	if err != nil {
		return err
	}
	solver, err := aco.NewSolver[dataset.Point](cfg, aco.WithLogger(logger.Zap()))
	if err != nil {
		return err
	}

	return solve(ctx, stdout, solver, world)
}

func solve(ctx context.Context, out io.Writer, solver *aco.Solver[dataset.Point], world *aco.World[dataset.Point]) error {
	cfg := solver.Config()
	start := "random"
	if cfg.Start != aco.StartRandom {
		start = fmt.Sprint(cfg.Start)
	}
	fmt.Fprintf(out, "Solver settings:\nlimit=%d\nrho=%v, Q=%v\nalpha=%v, beta=%v\nelite=%v\nants=%d, t0=%v, workers=%d, start=%s\n\n",
		cfg.Limit, cfg.Rho, cfg.Q, cfg.Alpha, cfg.Beta, cfg.Elite, cfg.AntCount, cfg.T0, cfg.Workers, start)

	seq, err := solver.Solutions(world)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%-25s\t%25s\n", "Time Elapsed", "Distance")
	fmt.Fprintln(out, divider)

	began := time.Now()
	var foundAfter time.Duration
	for sol := range seq.All(ctx) {
		// only improvements are reported
		if sol.FoundAt != sol.Iteration {
			continue
		}
		foundAfter = time.Since(began)
		fmt.Fprintf(out, "%-25s\t%25v\n", foundAfter, sol.Distance)
	}
	total := time.Since(began)

	best := seq.Solution()
	if best == nil {
		return seq.Err()
	}

	fmt.Fprintln(out, divider)
	fmt.Fprintln(out, "Best solution:")
	for i, idx := range best.Visited {
		fmt.Fprintf(out, "  %8d = %v\n", idx, best.Tour[i])
	}
	fmt.Fprintf(out, "Solution length: %v\n", best.Distance)
	fmt.Fprintf(out, "Found at %s (iteration %d) out of %s (%d iterations).\n",
		foundAfter, best.FoundAt, total, seq.Iteration())

	return seq.Err()
}

var divider = strings.Repeat("-", 50)
