package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/horizon/internal/lp"
	"github.com/danieljhkim/horizon/internal/planner"
)

var (
	planFrom     float64
	planTo       float64
	planFromVel  float64
	planToVel    float64
	planSteps    int
	planStepSize float64
	planGamma    float64
	planConfig   string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Solve a single trajectory and print it",
	Long: `Solve one trajectory from --from to --to and print every step.

Horizon parameters come from the scenario file (--config, then HORIZON_CONFIG,
then the built-in defaults) and can be overridden with --steps, --dt and --gamma.

Examples:
  horizon plan --to 0.4
  horizon plan --from -0.2 --to 1 --steps 40 --gamma 0.9
  horizon plan --to 0.5 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(planConfig)
		if err != nil {
			return err
		}
		params := cfg.Params()
		flags := cmd.Flags()
		if flags.Changed("steps") {
			params.Steps = planSteps
		}
		if flags.Changed("dt") {
			params.StepSize = planStepSize
		}
		if flags.Changed("gamma") {
			params.Gamma = planGamma
		}

		req := planner.Request{
			CurrentPosition: planFrom,
			TargetPosition:  planTo,
			CurrentVelocity: planFromVel,
			TargetVelocity:  planToVel,
			Params:          params,
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		traj, err := solveWithTimeout(ctx, planner.New(lp.NewSimplex()), req, cfg.Planner.SolveTimeout.Std())
		if err != nil {
			return fmt.Errorf("failed to plan: %w", err)
		}

		if jsonOutput {
			return outputJSON(traj)
		}

		PrintSection("Trajectory")
		PrintLabelValue("From", fmt.Sprintf("%s (v=%s)", formatFloat(req.CurrentPosition), formatFloat(req.CurrentVelocity)))
		PrintLabelValue("To", fmt.Sprintf("%s (v=%s)", formatFloat(req.TargetPosition), formatFloat(req.TargetVelocity)))
		PrintLabelValue("Horizon", fmt.Sprintf("%s x %gs = %gs", PrintCount(params.Steps, "step", "steps"), params.StepSize, params.Horizon()))
		PrintLabelValue("Gamma", strconv.FormatFloat(params.Gamma, 'g', -1, 64))
		PrintLabelValue("Effort", formatFloat(traj.Effort))
		PrintLabelValue("Deviation", formatFloat(traj.Deviation))
		PrintLabelValue("Objective", formatFloat(traj.Objective))
		_, _ = fmt.Fprintln(out)

		times := traj.Times()
		rows := make([][]string, traj.Len())
		for k := range rows {
			rows[k] = []string{
				strconv.Itoa(k),
				fmt.Sprintf("%.2f", times[k]),
				formatFloat(traj.Outputs[k]),
				formatFloat(traj.Velocities[k]),
				formatFloat(traj.Controls[k]),
			}
		}
		PrintTable([]string{"k", "t", "position", "velocity", "control"}, rows)
		return nil
	},
}

func init() {
	planCmd.Flags().Float64Var(&planFrom, "from", 0, "Current position")
	planCmd.Flags().Float64Var(&planTo, "to", 0, "Target position")
	planCmd.Flags().Float64Var(&planFromVel, "v0", 0, "Current velocity")
	planCmd.Flags().Float64Var(&planToVel, "v1", 0, "Target velocity")
	planCmd.Flags().IntVar(&planSteps, "steps", planner.DefaultSteps, "Number of steps N")
	planCmd.Flags().Float64Var(&planStepSize, "dt", planner.DefaultStepSize, "Step size h in seconds")
	planCmd.Flags().Float64Var(&planGamma, "gamma", planner.DefaultGamma, "Weight on control effort, in [0, 1]")
	planCmd.Flags().StringVarP(&planConfig, "config", "c", "", "Scenario file for planner defaults")
}
