package service

import (
	"context"
	"fmt"

	"github.com/olusolaa/heroku-tools/internal/config"
	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/pkg/compare"
)

type ReconcileRequest struct {
	Environment string
	ConfigFile  string
	// Statuses restricts what is rendered; empty means all four.
	Statuses []domain.Status
	// DryRun renders the diff and pending updates without applying them.
	DryRun bool
}

type ReconcileOutcome struct {
	AppName  string
	Entries  []domain.ConfigEntry
	Updates  map[string]string
	UpToDate bool
	Applied  bool
}

// SettingsReconciler pushes locally declared settings to the remote config
// vars after showing the diff and getting the operator's confirmation.
type SettingsReconciler struct {
	loader   ports.ApplicationLoader
	releases ports.ReleaseProvider
	runner   ports.RemoteCommandRunner
	operator ports.Operator
	reporter ports.DiffReporter
	cfg      *config.Config
	logger   ports.Logger
}

func NewSettingsReconciler(
	loader ports.ApplicationLoader,
	releases ports.ReleaseProvider,
	runner ports.RemoteCommandRunner,
	operator ports.Operator,
	reporter ports.DiffReporter,
	cfg *config.Config,
	logger ports.Logger,
) *SettingsReconciler {
	return &SettingsReconciler{
		loader:   loader,
		releases: releases,
		runner:   runner,
		operator: operator,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *SettingsReconciler) Run(ctx context.Context, req ReconcileRequest) (*ReconcileOutcome, error) {
	path := req.ConfigFile
	if path == "" {
		path = r.cfg.AppConfPath(req.Environment)
	}
	app, err := r.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	outcome := &ReconcileOutcome{AppName: app.AppName()}

	remote, err := r.releases.ConfigVars(ctx, app.AppName())
	if err != nil {
		return outcome, errors.WithPrefix(err, errors.CodeReleaseLookup, fmt.Sprintf("failed to fetch config vars of %s", app.AppName()))
	}

	outcome.Entries = compare.Settings(app.Settings, remote)
	r.logger.Debugf(ctx, "Compared %d local and %d remote settings of %s", len(app.Settings), len(remote), app.AppName())

	statuses := req.Statuses
	if len(statuses) == 0 {
		statuses = domain.AllStatuses
	}
	if err := r.reporter.ReportDiff(ctx, app.AppName(), outcome.Entries, statuses...); err != nil {
		return outcome, errors.Wrap(err, errors.CodeInternal, "failed to render settings diff")
	}

	pending := domain.PendingUpdates(outcome.Entries)
	outcome.Updates = domain.UpdateSet(pending)
	if err := r.reporter.ReportUpdates(ctx, app.AppName(), pending); err != nil {
		return outcome, errors.Wrap(err, errors.CodeInternal, "failed to render pending updates")
	}
	if len(pending) == 0 {
		outcome.UpToDate = true
		return outcome, nil
	}
	if req.DryRun {
		r.logger.Infof(ctx, "Dry run, %d settings of %s left unchanged", len(pending), app.AppName())
		return outcome, nil
	}

	confirmed, err := r.operator.ConfirmWithToken(ctx, "")
	if err != nil {
		return outcome, errors.Wrap(err, errors.CodeInternal, "confirmation prompt failed")
	}
	if !confirmed {
		return outcome, errors.ErrOperatorDeclined
	}

	if err := r.runner.SetConfigVars(ctx, app.AppName(), outcome.Updates); err != nil {
		return outcome, errors.WithPrefix(err, errors.CodeRemoteCommand, fmt.Sprintf("failed to update config vars of %s", app.AppName()))
	}
	outcome.Applied = true
	r.logger.Infof(ctx, "Applied %d settings to %s", len(outcome.Updates), app.AppName())
	return outcome, nil
}
