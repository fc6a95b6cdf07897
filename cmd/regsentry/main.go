// Command regsentry runs a closed-batch reliability evaluation of a
// signup pipeline: it simulates (or replays) a batch of signup attempts,
// drives every failure through classification and the retry cascade, and
// reduces the run to a reliability snapshot, report and exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/regsentry/regsentry/internal/config"
	"github.com/regsentry/regsentry/internal/eval"
	"github.com/regsentry/regsentry/internal/export"
	"github.com/regsentry/regsentry/internal/report"
	"github.com/regsentry/regsentry/internal/simulate"
	"github.com/regsentry/regsentry/internal/threshold"
)

var (
	cfgPath  string
	outDir   string
	seed     int64
	watch    bool
	debug    bool
	noReport bool
)

// errThresholds marks a run that completed but violated a critical
// threshold — a failing exit code without an error stack.
var errThresholds = errors.New("critical threshold violations")

var rootCmd = &cobra.Command{
	Use:           "regsentry",
	Short:         "Signup pipeline reliability evaluation",
	Long:          "regsentry evaluates the reliability of a signup pipeline over a closed batch of attempts: failure classification, retry cascades, manual-intervention escalation and derived health metrics.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one evaluation (or keep re-running with --watch)",
	RunE:  runEvaluation,
}

func init() {
	runCmd.Flags().StringVar(&cfgPath, "config", "config.yaml", "config file; built-in defaults apply when absent")
	runCmd.Flags().StringVar(&outDir, "out", "", "output directory (overrides output.dir)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides simulation.seed; 0 derives from the clock)")
	runCmd.Flags().BoolVar(&watch, "watch", false, "re-run whenever the config file changes")
	runCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	runCmd.Flags().BoolVar(&noReport, "no-report", false, "suppress the Markdown report on stdout")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errThresholds) {
			slog.Error("regsentry failed", "err", err)
		}
		os.Exit(1)
	}
}

func runEvaluation(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !watch {
		return runOnce(cfg)
	}

	// Watch mode: run immediately, then once per config change. Threshold
	// violations are logged but do not stop the watch loop.
	if err := runOnce(cfg); err != nil && !errors.Is(err, errThresholds) {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return config.Watch(ctx, cfgPath, func(cfg *config.Config) {
		if err := runOnce(cfg); err != nil && !errors.Is(err, errThresholds) {
			slog.Error("evaluation failed", "err", err)
		}
	})
}

// loadConfig loads the config file, falling back to built-in defaults when
// the default path does not exist. --watch needs a real file to watch.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && !watch {
		slog.Info("no config file found — using built-in defaults", "path", cfgPath)
		return config.Default(), nil
	}
	return nil, err
}

func runOnce(cfg *config.Config) error {
	runSeed := cfg.Simulation.Seed
	if seed != 0 {
		runSeed = seed
	}
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(runSeed))

	evaluator, err := eval.New(cfg, rnd)
	if err != nil {
		return err
	}

	attempts := simulate.New(cfg, rnd).Batch(time.Now())
	slog.Info("evaluating batch",
		"attempts", len(attempts),
		"providers", len(cfg.Providers),
		"seed", runSeed,
	)

	_, snap, err := evaluator.Run(attempts)
	if err != nil {
		return err
	}
	slog.Info("evaluation complete",
		"total_attempts", snap.Overall.TotalAttempts,
		"failure_rate", fmt.Sprintf("%.1f%%", snap.Overall.FailureRate*100),
		"incidents", snap.Recovery.TotalIncidents,
		"resolved", snap.Recovery.ResolvedIncidents,
	)

	dir := cfg.Output.Dir
	if outDir != "" {
		dir = outDir
	}
	path, err := report.WriteJSON(dir, snap)
	if err != nil {
		return err
	}
	slog.Info("results written", "path", path)

	if cfg.Output.Textfile != "" {
		if err := export.WriteFile(cfg.Output.Textfile, snap); err != nil {
			return err
		}
		slog.Info("textfile written", "path", cfg.Output.Textfile)
	}

	if !noReport {
		fmt.Println(report.Markdown(snap))
	}

	violations, err := threshold.Evaluate(cfg.Thresholds, snap)
	if err != nil {
		return err
	}
	critical := false
	for _, v := range violations {
		if v.Critical() {
			critical = true
			slog.Error("threshold violated", "rule", v.Rule.Name, "condition", v.Rule.Condition, "value", v.Value)
		} else {
			slog.Warn("threshold violated", "rule", v.Rule.Name, "condition", v.Rule.Condition, "value", v.Value)
		}
	}
	if critical {
		return errThresholds
	}
	slog.Info("all thresholds satisfied", "rules", len(cfg.Thresholds))
	return nil
}
