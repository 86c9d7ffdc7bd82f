package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danieljhkim/horizon/internal/clock"
	"github.com/danieljhkim/horizon/internal/config"
	"github.com/danieljhkim/horizon/internal/driver"
	"github.com/danieljhkim/horizon/internal/fsops"
	"github.com/danieljhkim/horizon/internal/hash"
	"github.com/danieljhkim/horizon/internal/lp"
	"github.com/danieljhkim/horizon/internal/metrics"
	"github.com/danieljhkim/horizon/internal/planner"
	"github.com/danieljhkim/horizon/internal/record"
)

var (
	runTicks       int
	runRealtime    bool
	runPolicy      string
	runSkipFirst   bool
	runTick        time.Duration
	runMetricsAddr string
	runQuiet       bool
	runRecord      string
)

// tickLine is one line of `run --json` output.
type tickLine struct {
	driver.TickResult
	Error string `json:"error,omitempty"`
}

// runSummary is what a run did overall.
type runSummary struct {
	Ticks    int
	Elapsed  time.Duration
	Position float64
	Goals    int
	Failed   int
	Pending  int
	Queued   int
}

var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Drive the plant through a goal scenario",
	Long: `Run the tick-driven driver over a scenario.

Each tick advances the elapsed time, triggers the next goal once its time has
passed, and applies one planned position. Without --ticks the run stops when
every goal has triggered and every planned position has been applied.

By default ticks are simulated as fast as possible. With --realtime the driver
follows the wall clock until interrupted.

Examples:
  horizon run
  horizon run examples/demo.yaml --policy replace
  horizon run --ticks 200 --json
  horizon run examples/demo.yaml --record runs/demo.json
  horizon run --realtime --metrics-addr :9090`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarioPath := config.ResolvePath(scenarioArg(args))
		cfg, err := config.Load(scenarioPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("policy") {
			cfg.Driver.Policy = runPolicy
		}
		if flags.Changed("skip-first") {
			cfg.Driver.SkipFirst = runSkipFirst
		}
		tick := cfg.Driver.Tick.Std()
		if flags.Changed("tick") {
			tick = runTick
		}
		if tick <= 0 {
			return fmt.Errorf("%w: tick must be positive, got %s", driver.ErrInvalidConfig, tick)
		}

		dcfg, err := cfg.DriverConfig()
		if err != nil {
			return err
		}
		feed, err := cfg.Feed()
		if err != nil {
			return err
		}

		log, err := newLogger(logLevel)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		reg := prometheus.NewRegistry()
		if runMetricsAddr != "" {
			_, stop, err := serveMetrics(runMetricsAddr, reg, log)
			if err != nil {
				return err
			}
			defer stop()
		}

		d, err := driver.New(planner.New(lp.NewSimplex()), feed, dcfg,
			driver.WithLogger(log),
			driver.WithMetrics(metrics.NewRecorder(reg)),
		)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !jsonOutput {
			PrintSection(fmt.Sprintf("Scenario %s", cfg.Name))
			PrintLabelValue("Goals", PrintCount(d.Pending(), "goal", "goals"))
			PrintLabelValue("Policy", dcfg.Policy.String())
			PrintLabelValue("Tick", tick.String())
			PrintLabelValue("Horizon", fmt.Sprintf("%s x %gs", PrintCount(dcfg.Params.Steps, "step", "steps"), dcfg.Params.StepSize))
			_, _ = fmt.Fprintln(out)
		}

		var rec *record.Recording
		if runRecord != "" {
			rec = record.New(uuid.NewString(), cfg.Name, dcfg, tick, time.Now().UTC())
			if scenarioPath != "" {
				sum, err := hash.NewSHA256Hasher().HashFile(scenarioPath)
				if err != nil {
					return err
				}
				rec.ScenarioPath = scenarioPath
				rec.ScenarioHash = sum
			}
		}

		summary := runSummary{Goals: d.Pending()}
		enc := json.NewEncoder(out)
		onTick := func(res driver.TickResult) {
			summary.Ticks = res.Tick
			if rec != nil {
				rec.Add(res)
			}
			if res.Err != nil {
				summary.Failed++
			}
			if jsonOutput {
				line := tickLine{TickResult: res}
				if res.Err != nil {
					line.Error = res.Err.Error()
				}
				if err := enc.Encode(line); err != nil {
					log.Warn("failed to write tick", zap.Error(err))
				}
				return
			}
			printTick(res)
		}

		if runRealtime {
			err = runRealtimeLoop(ctx, d, tick, onTick)
		} else {
			err = d.Simulate(ctx, tick, runTicks, onTick)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		summary.Elapsed = d.Elapsed()
		summary.Position = d.Position()
		summary.Pending = d.Pending()
		summary.Queued = d.Queued()
		if rec != nil {
			if err := record.NewStore(fsops.NewRealFS()).Save(runRecord, rec); err != nil {
				return err
			}
			log.Info("run recorded", zap.String("path", runRecord), zap.String("id", rec.ID))
		}
		if !jsonOutput {
			printRunSummary(summary, runRecord)
		}
		return nil
	},
}

// runRealtimeLoop follows the wall clock. With --ticks it stops after that
// many ticks.
func runRealtimeLoop(ctx context.Context, d *driver.Driver, tick time.Duration, onTick func(driver.TickResult)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	return d.Run(ctx, &clock.RealClock{}, tick, func(res driver.TickResult) {
		onTick(res)
		if runTicks > 0 && res.Tick >= runTicks {
			cancel()
		}
	})
}

func printTick(res driver.TickResult) {
	if res.Goal != nil {
		_, _ = infoColor.Fprintf(out, "  goal %s triggered at %s\n", res.Goal, res.Elapsed)
	}
	if res.Err != nil {
		PrintWarning(fmt.Sprintf("plan failed, keeping %s: %v", PrintCount(res.Queued, "queued sample", "queued samples"), res.Err))
	}
	if runQuiet {
		return
	}
	marker := " "
	if res.Advanced {
		marker = "*"
	}
	_, _ = valueColor.Fprintf(out, "  %5d  %8s  %s %10s  queued=%d\n",
		res.Tick, res.Elapsed, marker, formatFloat(res.Position), res.Queued)
}

func printRunSummary(s runSummary, recordPath string) {
	PrintSection("Summary")
	PrintLabelValue("Ticks", fmt.Sprintf("%d", s.Ticks))
	PrintLabelValue("Elapsed", s.Elapsed.String())
	PrintLabelValue("Final position", formatFloat(s.Position))
	PrintLabelValue("Goals triggered", fmt.Sprintf("%d of %d", s.Goals-s.Pending, s.Goals))
	if recordPath != "" {
		PrintLabelValue("Recording", recordPath)
	}
	if s.Queued > 0 {
		PrintLabelValue("Still queued", PrintCount(s.Queued, "sample", "samples"))
	}
	if s.Failed > 0 {
		PrintWarning(fmt.Sprintf("%s failed to plan", PrintCount(s.Failed, "goal", "goals")))
		return
	}
	PrintSuccess("Run complete")
}

func init() {
	runCmd.Flags().IntVarP(&runTicks, "ticks", "n", 0, "Number of ticks to run (0 runs until idle, or until interrupted with --realtime)")
	runCmd.Flags().BoolVar(&runRealtime, "realtime", false, "Tick on the wall clock instead of simulating")
	runCmd.Flags().StringVar(&runPolicy, "policy", string(driver.PolicyAppend), "How new plans combine with queued samples: append or replace")
	runCmd.Flags().BoolVar(&runSkipFirst, "skip-first", false, "Drop the first sample of every plan")
	runCmd.Flags().DurationVar(&runTick, "tick", 0, "Tick length (defaults to the scenario's driver.tick)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	runCmd.Flags().StringVar(&runRecord, "record", "", "Write a JSON recording of every tick to this file")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Only print goal events and the summary")
}
