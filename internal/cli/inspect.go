package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/horizon/internal/fsops"
	"github.com/danieljhkim/horizon/internal/hash"
	"github.com/danieljhkim/horizon/internal/record"
)

var inspectScenario string

var inspectCmd = &cobra.Command{
	Use:   "inspect <recording.json>",
	Short: "Summarize a recorded run",
	Long: `Load a recording written by "horizon run --record" and summarize it:
the settings the run used, every goal that triggered and any planning failures.

With --scenario, the file is compared against the fingerprint stored in the
recording to tell whether it still describes the recorded run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		rec, err := record.NewStore(fsops.NewRealFS()).Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("recording %s not found", path)
			}
			return fmt.Errorf("%s: %w", path, err)
		}

		var drifted bool
		if inspectScenario != "" {
			sum, err := hash.NewSHA256Hasher().HashFile(inspectScenario)
			if err != nil {
				return err
			}
			drifted = sum != rec.ScenarioHash
		}

		if jsonOutput {
			return outputJSON(rec)
		}
		if drifted {
			PrintWarning(fmt.Sprintf("%s differs from the scenario this run used", inspectScenario))
		}

		PrintSection(fmt.Sprintf("Run %s", rec.ID))
		PrintLabelValue("Scenario", rec.Scenario)
		if rec.ScenarioHash != "" {
			PrintLabelValue("Scenario file", fmt.Sprintf("%s (%s)", rec.ScenarioPath, hash.Short(rec.ScenarioHash)))
		}
		PrintLabelValue("Started", rec.StartedAt.Format(time.RFC3339))
		PrintLabelValue("Policy", rec.Policy)
		PrintLabelValue("Horizon", fmt.Sprintf("%s x %gs", PrintCount(rec.Params.Steps, "step", "steps"), rec.Params.StepSize))
		PrintLabelValue("Plans applied", strconv.Itoa(len(rec.Plans())))
		if final, ok := rec.Final(); ok {
			PrintLabelValue("Ticks", strconv.Itoa(final.Tick))
			PrintLabelValue("Final position", formatFloat(final.Position))
		}
		_, _ = fmt.Fprintln(out)

		var rows [][]string
		for _, t := range rec.Ticks {
			if t.Goal == nil {
				continue
			}
			status := "planned"
			if t.Error != "" {
				status = "failed"
			}
			rows = append(rows, []string{
				strconv.Itoa(t.Tick),
				(time.Duration(t.ElapsedMS) * time.Millisecond).String(),
				formatFloat(t.Goal.Target),
				status,
			})
		}
		if len(rows) == 0 {
			PrintEmptyState("No goals triggered")
			return nil
		}
		PrintTable([]string{"tick", "elapsed", "target", "plan"}, rows)

		if failed := rec.Failures(); len(failed) > 0 {
			_, _ = fmt.Fprintln(out)
			items := make([]string, len(failed))
			for i, t := range failed {
				items[i] = fmt.Sprintf("tick %d: %s", t.Tick, t.Error)
			}
			PrintWarning(fmt.Sprintf("%s failed to plan:", PrintCount(len(failed), "goal", "goals")))
			PrintList(items, 1)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectScenario, "scenario", "", "Scenario file to compare against the recording")
}
