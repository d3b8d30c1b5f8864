package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/devolve/internal/de"
	"github.com/cwbudde/devolve/internal/objective"
	"github.com/cwbudde/devolve/internal/opt"
	"github.com/cwbudde/devolve/internal/polish"
	"github.com/cwbudde/devolve/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// runSettings mirrors the run command's flags; the same structure can be
// loaded from a YAML file with --config, with explicit flags taking
// precedence.
type runSettings struct {
	Objective     string    `yaml:"objective"`
	Dim           int       `yaml:"dim"`
	Lower         float64   `yaml:"lower"`
	Upper         float64   `yaml:"upper"`
	Optimizer     string    `yaml:"optimizer"`
	Strategy      string    `yaml:"strategy"`
	Init          string    `yaml:"init"`
	Mutation      float64   `yaml:"mutation"`
	Dither        []float64 `yaml:"dither"`
	Recombination float64   `yaml:"recombination"`
	Tol           float64   `yaml:"tol"`
	MaxIter       int       `yaml:"maxiter"`
	PopSize       int       `yaml:"popsize"`
	Seed          int64     `yaml:"seed"`
	Polish        bool      `yaml:"polish"`
	Workers       int       `yaml:"workers"`
}

var (
	runCfg     runSettings
	configPath string
	dataDir    string
	saveRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long:  `Minimizes a named benchmark objective and writes the run record and cost trace.`,
	RunE:  runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&runCfg.Objective, "objective", "sphere", "Benchmark objective to minimize")
	runCmd.Flags().IntVar(&runCfg.Dim, "dim", 2, "Problem dimensionality")
	runCmd.Flags().Float64Var(&runCfg.Lower, "lower", 0, "Lower bound for all dimensions (0 with --upper 0 = objective default)")
	runCmd.Flags().Float64Var(&runCfg.Upper, "upper", 0, "Upper bound for all dimensions")
	runCmd.Flags().StringVar(&runCfg.Optimizer, "optimizer", "de", "Optimization engine: de, mayfly")
	runCmd.Flags().StringVar(&runCfg.Strategy, "strategy", "best1bin", "DE strategy")
	runCmd.Flags().StringVar(&runCfg.Init, "init", "latinhypercube", "Population init: latinhypercube, random")
	runCmd.Flags().Float64Var(&runCfg.Mutation, "mutation", 0, "Fixed mutation constant F (0 = dither)")
	runCmd.Flags().Float64SliceVar(&runCfg.Dither, "dither", []float64{0.5, 1.0}, "Dither range for F, ignored when --mutation is set")
	runCmd.Flags().Float64Var(&runCfg.Recombination, "cr", 0.7, "Crossover probability CR")
	runCmd.Flags().Float64Var(&runCfg.Tol, "tol", 0.01, "Convergence tolerance")
	runCmd.Flags().IntVar(&runCfg.MaxIter, "maxiter", 1000, "Max generations")
	runCmd.Flags().IntVar(&runCfg.PopSize, "pop", 0, "Population size (0 = 15x dim)")
	runCmd.Flags().Int64Var(&runCfg.Seed, "seed", 42, "Random seed (0 = non-reproducible)")
	runCmd.Flags().BoolVar(&runCfg.Polish, "polish", false, "Locally refine the final best candidate")
	runCmd.Flags().IntVar(&runCfg.Workers, "workers", 0, "Parallel evaluator workers (0 = all CPUs)")
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML file with run settings (flags override)")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Base directory for run storage")
	runCmd.Flags().BoolVar(&saveRun, "save", true, "Persist the run record and trace")

	rootCmd.AddCommand(runCmd)
}

// mergeConfigFile overlays YAML settings under any flag the user did not set
// explicitly.
func mergeConfigFile(cmd *cobra.Command, path string, cfg *runSettings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var file runSettings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	flagCfg := *cfg
	*cfg = file
	apply := func(name string, set func()) {
		if cmd.Flags().Changed(name) {
			set()
		}
	}
	apply("objective", func() { cfg.Objective = flagCfg.Objective })
	apply("dim", func() { cfg.Dim = flagCfg.Dim })
	apply("lower", func() { cfg.Lower = flagCfg.Lower })
	apply("upper", func() { cfg.Upper = flagCfg.Upper })
	apply("optimizer", func() { cfg.Optimizer = flagCfg.Optimizer })
	apply("strategy", func() { cfg.Strategy = flagCfg.Strategy })
	apply("init", func() { cfg.Init = flagCfg.Init })
	apply("mutation", func() { cfg.Mutation = flagCfg.Mutation })
	apply("dither", func() { cfg.Dither = flagCfg.Dither })
	apply("cr", func() { cfg.Recombination = flagCfg.Recombination })
	apply("tol", func() { cfg.Tol = flagCfg.Tol })
	apply("maxiter", func() { cfg.MaxIter = flagCfg.MaxIter })
	apply("pop", func() { cfg.PopSize = flagCfg.PopSize })
	apply("seed", func() { cfg.Seed = flagCfg.Seed })
	apply("polish", func() { cfg.Polish = flagCfg.Polish })
	apply("workers", func() { cfg.Workers = flagCfg.Workers })

	// Zero-value fallbacks for fields the file omitted and flags left alone.
	if cfg.Objective == "" {
		cfg.Objective = flagCfg.Objective
	}
	if cfg.Dim == 0 {
		cfg.Dim = flagCfg.Dim
	}
	if cfg.Optimizer == "" {
		cfg.Optimizer = flagCfg.Optimizer
	}
	if cfg.Strategy == "" {
		cfg.Strategy = flagCfg.Strategy
	}
	if cfg.Init == "" {
		cfg.Init = flagCfg.Init
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = flagCfg.MaxIter
	}
	if cfg.Dither == nil && cfg.Mutation == 0 {
		cfg.Dither = flagCfg.Dither
	}
	if cfg.Recombination == 0 {
		cfg.Recombination = flagCfg.Recombination
	}
	return nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		if err := mergeConfigFile(cmd, configPath, &runCfg); err != nil {
			return err
		}
	}

	bench, err := objective.Lookup(runCfg.Objective)
	if err != nil {
		return err
	}
	dim := runCfg.Dim
	if bench.Dim > 0 {
		dim = bench.Dim
	}

	lower, upper := bench.Bounds(dim)
	if runCfg.Lower != 0 || runCfg.Upper != 0 {
		for i := 0; i < dim; i++ {
			lower[i] = runCfg.Lower
			upper[i] = runCfg.Upper
		}
	}

	slog.Info("Starting optimization",
		"objective", bench.Name,
		"optimizer", runCfg.Optimizer,
		"dim", dim,
		"maxiter", runCfg.MaxIter,
	)

	switch runCfg.Optimizer {
	case "de":
		return runDE(bench, dim, lower, upper)
	case "mayfly":
		return runMayfly(bench, dim, lower, upper)
	default:
		return fmt.Errorf("unknown optimizer: %s", runCfg.Optimizer)
	}
}

func runDE(bench objective.Benchmark, dim int, lower, upper []float64) error {
	cfg := de.Config{
		Strategy:      de.Strategy(runCfg.Strategy),
		Init:          de.Init(runCfg.Init),
		Mutation:      runCfg.Mutation,
		Recombination: runCfg.Recombination,
		Tol:           runCfg.Tol,
		MaxIter:       runCfg.MaxIter,
		PopSize:       runCfg.PopSize,
		Seed:          runCfg.Seed,
	}
	if runCfg.Mutation == 0 {
		cfg.Dither = runCfg.Dither
	}
	if runCfg.Polish {
		cfg.Polish = &polish.NelderMead{}
	}

	var (
		runStore *store.FSStore
		trace    *store.TraceWriter
		runID    string
	)
	if saveRun {
		var err error
		runStore, err = store.NewFSStore(dataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		runID = store.NewRunID()
		trace, err = store.NewTraceWriter(runStore.RunDir(runID))
		if err != nil {
			return fmt.Errorf("failed to create trace writer: %w", err)
		}
		defer trace.Close()

		cfg.Callbacks = append(cfg.Callbacks, func(generation int, best []float64, bestCost float64) {
			entry := store.TraceEntry{
				Generation: generation,
				Cost:       bestCost,
				Timestamp:  time.Now(),
			}
			if err := trace.Append(entry); err != nil {
				slog.Warn("Failed to append trace entry", "error", err)
			}
		})
	}

	evaluator := objective.NewConcurrent(bench.Fn, runCfg.Workers)
	solver, err := de.New(evaluator, lower, upper, cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := solver.Solve()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if saveRun {
		record := &store.RunRecord{
			ID: runID,
			Settings: store.RunSettings{
				Objective:     bench.Name,
				Dim:           dim,
				Strategy:      runCfg.Strategy,
				Init:          runCfg.Init,
				Mutation:      runCfg.Mutation,
				Dither:        cfg.Dither,
				Recombination: runCfg.Recombination,
				Tol:           runCfg.Tol,
				MaxIter:       runCfg.MaxIter,
				PopSize:       solver.PopSize(),
				Seed:          runCfg.Seed,
				Polish:        runCfg.Polish,
				Lower:         lower,
				Upper:         upper,
			},
			BestParams:  result.X,
			BestCost:    result.Cost,
			Gradient:    result.Gradient,
			NumEvals:    result.NumEvals,
			Generations: result.Generations,
			Message:     result.Message,
			Success:     result.Success,
			StartedAt:   start,
			FinishedAt:  start.Add(elapsed),
		}
		if err := runStore.SaveRun(record); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		slog.Info("Run saved", "id", runID)
	}

	fmt.Printf("%s: cost %.6g after %d generations, %d evals in %s (%s)\n",
		bench.Name, result.Cost, result.Generations, result.NumEvals, elapsed.Round(time.Millisecond), result.Message)
	return nil
}

func runMayfly(bench objective.Benchmark, dim int, lower, upper []float64) error {
	popSize := runCfg.PopSize
	if popSize == 0 {
		popSize = 15 * dim
	}
	optimizer := opt.NewMayfly(runCfg.MaxIter, popSize, runCfg.Seed)

	start := time.Now()
	best, cost, err := optimizer.Run(bench.Fn, lower, upper, dim)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	slog.Info("Mayfly baseline complete", "best_cost", cost, "elapsed", elapsed)
	fmt.Printf("%s: cost %.6g at %v in %s\n", bench.Name, cost, best, elapsed.Round(time.Millisecond))
	return nil
}
