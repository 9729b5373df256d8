package ports

import (
	"context"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
)

// DiffReporter renders a settings diff.
type DiffReporter interface {
	ReportDiff(ctx context.Context, app string, entries []domain.ConfigEntry, statuses ...domain.Status) error
	ReportUpdates(ctx context.Context, app string, updates []domain.ConfigEntry) error
}

// DeployReporter renders the observable steps of a deployment.
type DeployReporter interface {
	ReportChanges(ctx context.Context, changes *domain.ChangeSet) error
	ReportPlan(ctx context.Context, plan *domain.DeployPlan) error
	ReportStep(ctx context.Context, message string) error
	ReportTasks(ctx context.Context, results []domain.TaskResult) error
	ReportRelease(ctx context.Context, release *domain.ReleaseInfo) error
}
