package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/horizon/internal/lp"
	"github.com/danieljhkim/horizon/internal/planner"
)

var checkSolve bool

// goalCheck is the result of planning one goal during `check --solve`.
type goalCheck struct {
	At        string  `json:"at"`
	From      float64 `json:"from"`
	Target    float64 `json:"target"`
	Effort    float64 `json:"effort,omitempty"`
	Deviation float64 `json:"deviation,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type checkResult struct {
	Name   string      `json:"name"`
	Valid  bool        `json:"valid"`
	Goals  []goalCheck `json:"goals"`
	Failed int         `json:"failed"`
}

var checkCmd = &cobra.Command{
	Use:   "check [scenario.yaml]",
	Short: "Validate a scenario file",
	Long: `Validate a scenario file and list its goals.

With --solve, every goal is also planned in order, each one starting at rest
from the previous goal's target, to catch targets that cannot be reached
within the horizon.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(scenarioArg(args))
		if err != nil {
			return err
		}
		dcfg, err := cfg.DriverConfig()
		if err != nil {
			return err
		}

		result := checkResult{Name: cfg.Name, Valid: true}
		from := dcfg.StartPosition / dcfg.Scale
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		p := planner.New(lp.NewSimplex())

		for _, g := range cfg.GoalList() {
			gc := goalCheck{At: g.At.String(), From: from, Target: g.Target}
			if checkSolve {
				req := planner.NewRequest(from, g.Target)
				req.Params = dcfg.Params
				traj, err := solveWithTimeout(ctx, p, req, dcfg.SolveTimeout)
				if err != nil {
					gc.Error = err.Error()
					result.Failed++
				} else {
					gc.Effort = traj.Effort
					gc.Deviation = traj.Deviation
					from = g.Target
				}
			}
			result.Goals = append(result.Goals, gc)
		}

		if jsonOutput {
			if err := outputJSON(result); err != nil {
				return err
			}
		} else {
			printCheck(result, dcfg.Params)
		}
		if result.Failed > 0 {
			return fmt.Errorf("%s could not be planned", PrintCount(result.Failed, "goal", "goals"))
		}
		return nil
	},
}

func solveWithTimeout(ctx context.Context, p *planner.Planner, req planner.Request, timeout time.Duration) (*planner.Trajectory, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Plan(ctx, req)
}

func printCheck(result checkResult, params planner.Params) {
	PrintSection(fmt.Sprintf("Scenario %s", result.Name))
	PrintLabelValue("Horizon", fmt.Sprintf("%s x %gs = %gs", PrintCount(params.Steps, "step", "steps"), params.StepSize, params.Horizon()))
	PrintLabelValue("Gamma", strconv.FormatFloat(params.Gamma, 'g', -1, 64))
	PrintLabelValue("Goals", PrintCount(len(result.Goals), "goal", "goals"))
	_, _ = fmt.Fprintln(out)

	if len(result.Goals) == 0 {
		PrintEmptyState("No goals scheduled")
		return
	}

	rows := make([][]string, 0, len(result.Goals))
	for _, g := range result.Goals {
		status := "-"
		switch {
		case checkSolve && g.Error != "":
			status = "failed"
		case checkSolve:
			status = fmt.Sprintf("effort %s", formatFloat(g.Effort))
		}
		rows = append(rows, []string{g.At, formatFloat(g.Target), status})
	}
	PrintTable([]string{"at", "target", "plan"}, rows)
	_, _ = fmt.Fprintln(out)

	var failures []string
	for _, g := range result.Goals {
		if g.Error != "" {
			failures = append(failures, fmt.Sprintf("%s: %s", g.At, g.Error))
		}
	}
	if len(failures) > 0 {
		PrintWarning("Some goals cannot be planned:")
		PrintList(failures, 1)
		return
	}
	PrintSuccess("Scenario is valid")
}

func init() {
	checkCmd.Flags().BoolVar(&checkSolve, "solve", false, "Plan every goal in order")
}
