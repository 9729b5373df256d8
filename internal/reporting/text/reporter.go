package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color"`
}

// Reporter renders diffs, plans and progress for a human operator.
type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

var (
	_ ports.DiffReporter   = (*Reporter)(nil)
	_ ports.DeployReporter = (*Reporter)(nil)
)

func NewReporter(cfg Config, w io.Writer, logger ports.Logger) (*Reporter, error) {
	if w == nil {
		w = os.Stdout
	}
	if cfg.NoColor || !isTerminal(w) {
		color.NoColor = true
	}

	return &Reporter{
		config: cfg,
		writer: w,
		logger: logger,
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func wanted(statuses []domain.Status, s domain.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, w := range statuses {
		if w == s {
			return true
		}
	}
	return false
}

// DiffLine renders one entry with its key padded to width.
func DiffLine(e domain.ConfigEntry, width int) string {
	key := fmt.Sprintf("%-*s", width, e.Key)
	switch e.Status {
	case domain.StatusMatch:
		return fmt.Sprintf("%s %s: %s", e.Status.Marker(), key, e.Local())
	case domain.StatusMismatch:
		return red(fmt.Sprintf("%s %s: %s (remote = %s)", e.Status.Marker(), key, e.Local(), e.Remote()))
	case domain.StatusLocalOnly:
		return green(fmt.Sprintf("%s %s: %s", e.Status.Marker(), key, e.Local()))
	case domain.StatusRemoteOnly:
		return cyan(fmt.Sprintf("%s %s: %s (remote only)", e.Status.Marker(), key, e.Remote()))
	default:
		return fmt.Sprintf("Unknown status for %s: %s", e.Key, e.Status)
	}
}

// ReportDiff prints the selected entries in key order, one DiffLine each.
// Remote-only keys stay in sequence with the others.
func (r *Reporter) ReportDiff(ctx context.Context, app string, entries []domain.ConfigEntry, statuses ...domain.Status) error {
	width := 0
	for _, e := range entries {
		if len(e.Key) > width {
			width = len(e.Key)
		}
	}

	fmt.Fprintf(r.writer, "\nSettings of %s (diff shown by '!', '+', '?' indicator):\n\n", bold(app))
	shown, remoteOnly := 0, 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !wanted(statuses, e.Status) {
			continue
		}
		if e.Status == domain.StatusRemoteOnly {
			remoteOnly++
		}
		fmt.Fprintln(r.writer, DiffLine(e, width))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(r.writer, "  (none)")
	}
	if remoteOnly > 0 {
		fmt.Fprintf(r.writer, "\n%d remote-only setting(s) marked '?', probably Heroku-specific and ignorable.\n", remoteOnly)
	}
	return nil
}

func (r *Reporter) ReportUpdates(ctx context.Context, app string, updates []domain.ConfigEntry) error {
	if len(updates) == 0 {
		fmt.Fprintln(r.writer, green("\nAll settings are up-to-date. No action required."))
		return nil
	}
	fmt.Fprintf(r.writer, "\nThe following settings will be applied to '%s':\n\n", app)
	for _, e := range updates {
		fmt.Fprintf(r.writer, "%s %s=%s\n", e.Status.Marker(), e.Key, e.Local())
	}
	fmt.Fprintln(r.writer)
	return nil
}

func (r *Reporter) ReportChanges(ctx context.Context, changes *domain.ChangeSet) error {
	if changes == nil {
		return nil
	}
	fmt.Fprintf(r.writer, "\nComparing %s..%s\n\n", changes.From, changes.To)
	if changes.Unknown {
		fmt.Fprintln(r.writer, yellow("  Unable to list the changes in this deployment."))
		return nil
	}

	fmt.Fprintln(r.writer, "The following files have changed since the last deployment:")
	fmt.Fprintln(r.writer)
	if len(changes.Files) == 0 {
		fmt.Fprintln(r.writer, "  (no change)")
	}
	for _, f := range changes.Files {
		fmt.Fprintf(r.writer, "  * %s\n", f)
	}

	fmt.Fprintln(r.writer, "\nThe following commits will be included in this deployment:")
	fmt.Fprintln(r.writer)
	if len(changes.Commits) == 0 {
		fmt.Fprintln(r.writer, "  (no change)")
	}
	for _, c := range changes.Commits {
		fmt.Fprintf(r.writer, "  [%s] %s\n", yellow(c.Hash), c.Message)
	}
	fmt.Fprintln(r.writer)
	return nil
}

func (r *Reporter) ReportPlan(ctx context.Context, plan *domain.DeployPlan) error {
	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "\nSummary of deployment options:")
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "  ----- Deployment SETTINGS -----------")
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "  Git branch:\t%s\n", plan.Branch)
	fmt.Fprintf(tw, "  Target env:\t%s (%s)\n", plan.Environment, bold(plan.AppName))
	fmt.Fprintf(tw, "  Force push:\t%t\n", plan.Force)
	if plan.Pipeline {
		fmt.Fprintf(tw, "  Pipeline:\t%t\n", true)
		fmt.Fprintf(tw, "  Promote:\t%s\n", plan.Upstream)
	} else {
		fmt.Fprintf(tw, "  Run buildpack:\t%t\n", plan.RunBuildpack)
		fmt.Fprintf(tw, "  Collectstatic:\t%t\n", plan.BuildpackStatic)
	}
	fmt.Fprintf(tw, "  Release tag:\t%s\n", plan.TagMode)
	fmt.Fprintf(tw, "  Maintenance:\t%t\n", plan.Maintenance)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "  ----- Post-deployment commands ------")
	fmt.Fprintln(tw)
	if len(plan.Tasks) == 0 {
		fmt.Fprintln(tw, "  (none specified)")
	}
	for _, task := range plan.Tasks {
		fmt.Fprintf(tw, "  %s:\t%s\n", task.Kind, task.Command)
	}
	fmt.Fprintln(tw)
	return nil
}

func (r *Reporter) ReportStep(ctx context.Context, message string) error {
	_, err := fmt.Fprintln(r.writer, message)
	return err
}

func (r *Reporter) ReportTasks(ctx context.Context, results []domain.TaskResult) error {
	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "\nPost-deployment commands:")
	for _, res := range results {
		if res.Succeeded() {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", green("[OK]"), res.Task.Kind, res.Task.Command)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s (%v)\n", red("[FAILED]"), res.Task.Kind, res.Task.Command, res.Err)
	}
	failed := len(domain.FailedTasks(results))
	fmt.Fprintf(tw, "\n  Succeeded:\t%s\n", green(len(results)-failed))
	fmt.Fprintf(tw, "  Failed:\t%s\n", red(failed))
	return nil
}

func (r *Reporter) ReportRelease(ctx context.Context, release *domain.ReleaseInfo) error {
	if release == nil {
		return nil
	}
	_, err := fmt.Fprintln(r.writer, release.String())
	return err
}
