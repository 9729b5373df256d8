package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
)

// TaskRunner runs post-deploy commands one after another. A failing task
// never stops the ones after it.
type TaskRunner struct {
	runner   ports.RemoteCommandRunner
	reporter ports.DeployReporter
	logger   ports.Logger
}

func NewTaskRunner(runner ports.RemoteCommandRunner, reporter ports.DeployReporter, logger ports.Logger) *TaskRunner {
	return &TaskRunner{runner: runner, reporter: reporter, logger: logger}
}

// RunAll returns one result per task, in task order.
func (t *TaskRunner) RunAll(ctx context.Context, app string, tasks []domain.Task) []domain.TaskResult {
	results := make([]domain.TaskResult, 0, len(tasks))
	for _, task := range tasks {
		if ctx.Err() != nil {
			results = append(results, domain.TaskResult{Task: task, Err: ctx.Err()})
			continue
		}

		if err := t.reporter.ReportStep(ctx, fmt.Sprintf("Running %s command: %s", task.Kind, task.Command)); err != nil {
			t.logger.Warnf(ctx, "Failed to report step: %v", err)
		}
		err := t.runner.RunCommand(ctx, app, task.Command)
		if err != nil {
			t.logger.Errorf(ctx, err, "post-deploy task %q failed", task.Command)
		} else {
			t.logger.Debugf(ctx, "post-deploy task %q succeeded", task.Command)
		}
		results = append(results, domain.TaskResult{Task: task, Err: err})
	}
	return results
}

// TasksError summarises failed task results, or returns nil when all succeeded.
func TasksError(results []domain.TaskResult) error {
	failed := domain.FailedTasks(results)
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, fmt.Sprintf("%q", r.Task.Command))
	}
	return errors.NewUserFacing(errors.CodeRemoteCommand,
		fmt.Sprintf("%d of %d post-deploy tasks failed: %s", len(failed), len(results), strings.Join(names, ", ")),
		"The deployment itself completed. Re-run the failed commands with 'heroku run'.")
}
