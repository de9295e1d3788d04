package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/filepatcher/internal/config"
	"github.com/danieljhkim/filepatcher/internal/engine"
	"github.com/danieljhkim/filepatcher/internal/lifecycle"
	"github.com/danieljhkim/filepatcher/internal/logging"
	"github.com/danieljhkim/filepatcher/internal/overlay"
	"github.com/danieljhkim/filepatcher/internal/report"
)

var (
	runType        string
	runSource      string
	runTarget      string
	runHostVersion string
	runNoCleanup   bool
)

// runOutput is the --json document of a run.
type runOutput struct {
	Lifecycle string            `json:"lifecycle"`
	Result    *engine.RunResult `json:"result,omitempty"`
	Messages  []report.Entry    `json:"messages"`
	Error     string            `json:"error,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply the patch overlay for a lifecycle event",
	Long: `Run the preflight and postflight hooks for one lifecycle event.

Preflight checks the host version, then overwrites every target file that has a
replacement under the source folder. Files missing from the target are reported
and skipped. Postflight reports the summary and, after install or update,
removes this patcher's own registration.

Examples:
  filepatcher run --target /var/www/site --host-version 5.4.2
  filepatcher run --type update --source ./files --target /var/www/site
  filepatcher run --no-cleanup --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lc, err := lifecycle.Parse(runType)
		if err != nil {
			return err
		}

		a, err := loadApp(func(cfg *config.Config) {
			if runSource != "" {
				cfg.SourceRoot = runSource
			}
			if runTarget != "" {
				cfg.TargetRoot = runTarget
			}
		})
		if err != nil {
			return err
		}

		version, err := a.cfg.HostVersion(a.fs, runHostVersion)
		if err != nil {
			return err
		}

		recorder := report.NewRecorder()
		var sink report.Sink
		if jsonOutput {
			sink = report.Multi(recorder, report.NewLogSink(logging.GetLogger("report")))
		} else {
			sink = report.Multi(recorder, terminalSink())
		}

		eng := a.newEngine(sink, !runNoCleanup)
		result, runErr := eng.Run(cmd.Context(), &engine.RunRequest{Lifecycle: lc, HostVersion: version})

		if jsonOutput {
			out := runOutput{
				Lifecycle: string(lc),
				Result:    result,
				Messages:  recorder.Entries(),
			}
			if runErr != nil {
				out.Error = runErr.Error()
			}
			if err := outputJSON(out); err != nil {
				return err
			}
			return runErr
		}

		if runErr != nil {
			return runErr
		}
		printRunSummary(result, eng.Results())
		return nil
	},
}

func printRunSummary(result *engine.RunResult, results []overlay.Result) {
	counts := result.Preflight.Counts
	if result.Postflight != nil {
		counts = result.Postflight.Counts
	}

	PrintSection("Patch Summary")
	PrintLabelValue("Host version", result.Preflight.HostVersion)
	PrintLabelValue("Files", PrintCount(counts.Total(), "file", "files"))
	PrintLabelValueWithColor("Applied", strconv.Itoa(counts.Applied), successColor)
	if counts.Failed > 0 {
		PrintLabelValueWithColor("Failed", strconv.Itoa(counts.Failed), errorColor)
	} else {
		PrintLabelValue("Failed", "0")
	}
	PrintLabelValueWithColor("Missing", strconv.Itoa(counts.Missing), warningColor)

	if result.Postflight != nil && result.Postflight.Cleanup != nil {
		if failed := result.Postflight.Cleanup.Failed(); len(failed) > 0 {
			fmt.Fprintln(stdout)
			PrintWarning(fmt.Sprintf("Cleanup left %s behind:", PrintCount(len(failed), "record", "records")))
			for _, f := range failed {
				PrintLabelValue(fmt.Sprintf("%s (id %d)", f.Record.Element, f.Record.ID), f.Error)
			}
		}
	}

	if verbosity > 0 && len(results) > 0 {
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{r.RelPath, string(r.Outcome), shortChecksum(r.Checksum)})
		}
		fmt.Fprintln(stdout)
		PrintTable([]string{"FILE", "OUTCOME", "SHA256"}, rows)
	}
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

func init() {
	runCmd.Flags().StringVarP(&runType, "type", "t", string(lifecycle.Install), "Lifecycle event (install, update, discover_install, uninstall)")
	runCmd.Flags().StringVar(&runSource, "source", "", "Folder of replacement files (overrides source_root)")
	runCmd.Flags().StringVar(&runTarget, "target", "", "Installation root to patch (overrides target_root)")
	runCmd.Flags().StringVar(&runHostVersion, "host-version", "", "Running host version (overrides host.version)")
	runCmd.Flags().BoolVar(&runNoCleanup, "no-cleanup", false, "Never remove the patcher's registration")
}
