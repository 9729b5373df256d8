package service

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/olusolaa/heroku-tools/internal/config"
	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
)

// DisableCollectstaticVar, when present in the remote config vars, stops the
// Python buildpack from running collectstatic during a push.
const DisableCollectstaticVar = "DISABLE_COLLECTSTATIC"

type Collaborators struct {
	Loader   ports.ApplicationLoader
	VCS      ports.VersionControl
	Releases ports.ReleaseProvider
	Runner   ports.RemoteCommandRunner
	Operator ports.Operator
	Editor   ports.NoteEditor
	Reporter ports.DeployReporter
}

// DeploymentPlanner drives one deployment through its fixed sequence of stages.
type DeploymentPlanner struct {
	Collaborators
	tasks  *TaskRunner
	cfg    *config.Config
	logger ports.Logger
}

func NewDeploymentPlanner(c Collaborators, cfg *config.Config, logger ports.Logger) (*DeploymentPlanner, error) {
	if c.Loader == nil || c.VCS == nil || c.Releases == nil || c.Runner == nil || c.Operator == nil || c.Reporter == nil {
		return nil, errors.New(errors.CodeInternal, "deployment planner is missing a collaborator")
	}
	if cfg == nil {
		return nil, errors.New(errors.CodeConfigValidation, "deployment planner needs tool settings")
	}
	return &DeploymentPlanner{
		Collaborators: c,
		tasks:         NewTaskRunner(c.Runner, c.Reporter, logger.WithFields(map[string]any{"component": "tasks"})),
		cfg:           cfg,
		logger:        logger,
	}, nil
}

func stageError(stage domain.Stage, code errors.Code, err error) error {
	return errors.WithPrefix(err, code, fmt.Sprintf("deploy stage %s", stage))
}

func (p *DeploymentPlanner) complete(ctx context.Context, outcome *domain.DeployOutcome, stage domain.Stage) {
	outcome.Stage = stage
	outcome.Completed = append(outcome.Completed, stage)
	p.logger.Debugf(ctx, "Deploy stage %s complete", stage)
}

func (p *DeploymentPlanner) step(ctx context.Context, format string, args ...any) {
	if err := p.Reporter.ReportStep(ctx, fmt.Sprintf(format, args...)); err != nil {
		p.logger.Warnf(ctx, "Failed to report step: %v", err)
	}
}

// Run executes the deployment described by req. Declining the confirmation
// returns errors.ErrOperatorDeclined. An up-to-date application returns
// an outcome with UpToDate set and no error.
func (p *DeploymentPlanner) Run(ctx context.Context, req domain.DeployRequest) (*domain.DeployOutcome, error) {
	outcome := &domain.DeployOutcome{}

	path := req.ConfigFile
	if path == "" {
		path = p.cfg.AppConfPath(req.Environment)
	}
	app, err := p.Loader.Load(ctx, path)
	if err != nil {
		return outcome, stageError(domain.StageLoaded, errors.CodeConfigReadError, err)
	}
	p.complete(ctx, outcome, domain.StageLoaded)

	branch := req.Branch
	if branch == "" {
		branch = app.DefaultBranch()
	}

	remoteCommit, localCommit, err := p.commits(ctx, app, branch)
	if err != nil {
		return outcome, stageError(domain.StageCompared, errors.CodeReleaseLookup, err)
	}
	if remoteCommit == localCommit && remoteCommit != domain.InvalidCommit {
		p.step(ctx, "Heroku application is up-to-date, aborting deployment.")
		outcome.UpToDate = true
		p.complete(ctx, outcome, domain.StageDone)
		return outcome, nil
	}
	p.complete(ctx, outcome, domain.StageCompared)

	outcome.Changes = p.changes(ctx, remoteCommit, localCommit)
	if err := p.Reporter.ReportChanges(ctx, outcome.Changes); err != nil {
		p.logger.Warnf(ctx, "Failed to report changes: %v", err)
	}

	plan, err := p.decide(ctx, req, app, branch, outcome.Changes)
	if err != nil {
		return outcome, stageError(domain.StageSummarized, errors.CodeInternal, err)
	}
	plan.RemoteCommit = remoteCommit
	plan.LocalCommit = localCommit
	outcome.Plan = plan
	if err := p.Reporter.ReportPlan(ctx, plan); err != nil {
		return outcome, stageError(domain.StageSummarized, errors.CodeInternal, err)
	}
	p.complete(ctx, outcome, domain.StageSummarized)

	confirmed, err := p.Operator.ConfirmWithToken(ctx, "")
	if err != nil {
		return outcome, stageError(domain.StageConfirmed, errors.CodeInternal, err)
	}
	if !confirmed {
		p.logger.Infof(ctx, "Operator declined deployment of %s", plan.AppName)
		return outcome, errors.ErrOperatorDeclined
	}
	p.complete(ctx, outcome, domain.StageConfirmed)

	// Nothing below is rolled back on failure.
	if err := p.deliver(ctx, plan, outcome); err != nil {
		return outcome, err
	}

	var tasksErr error
	if err := TasksError(outcome.Tasks); err != nil {
		tasksErr = stageError(domain.StagePostDeployRun, errors.CodeRemoteCommand, err)
	}

	release, err := p.Releases.LatestRelease(ctx, plan.AppName)
	if err != nil {
		if plan.TagMode != domain.TagNone {
			lookupErr := errors.WithPrefix(err, errors.CodeReleaseLookup, "deployed, but failed to fetch the new release for tagging")
			return outcome, stderrs.Join(tasksErr, stageError(domain.StageTagged, errors.CodeReleaseLookup, lookupErr))
		}
		p.logger.Warnf(ctx, "Deployed, but failed to fetch the new release: %v", err)
	} else {
		outcome.Release = release
		if plan.TagMode != domain.TagNone {
			if err := p.tag(ctx, plan, release, outcome.Changes); err != nil {
				return outcome, stderrs.Join(tasksErr, stageError(domain.StageTagged, errors.CodeVCSError, err))
			}
			outcome.TagName = release.TagName()
			p.complete(ctx, outcome, domain.StageTagged)
		}
		if err := p.Reporter.ReportRelease(ctx, release); err != nil {
			p.logger.Warnf(ctx, "Failed to report release: %v", err)
		}
	}

	if tasksErr != nil {
		return outcome, tasksErr
	}
	p.complete(ctx, outcome, domain.StageDone)
	return outcome, nil
}

// commits resolves the commit currently live on the target app and the one
// about to be deployed. For pipeline deployments the latter is the commit
// of the upstream app's latest release, since that is what gets promoted.
func (p *DeploymentPlanner) commits(ctx context.Context, app *domain.AppConfiguration, branch string) (string, string, error) {
	release, err := p.Releases.LatestRelease(ctx, app.AppName())
	if err != nil {
		return "", "", err
	}
	remote := release.Commit()
	if !release.HasValidCommit() {
		p.logger.Warnf(ctx, "Latest release of %s (%q) carries no commit reference", app.AppName(), release.Description)
	}

	if app.UsePipeline() {
		upstream, err := p.Releases.LatestRelease(ctx, app.UpstreamApp())
		if err != nil {
			return "", "", err
		}
		return remote, upstream.Commit(), nil
	}

	local, err := p.VCS.HeadCommit(ctx, branch)
	if err != nil {
		return "", "", errors.WithPrefix(err, errors.CodeVCSError, fmt.Sprintf("failed to resolve head of branch %s", branch))
	}
	return remote, local, nil
}

func (p *DeploymentPlanner) changes(ctx context.Context, from, to string) *domain.ChangeSet {
	changes := &domain.ChangeSet{From: from, To: to}
	if from == domain.InvalidCommit || to == domain.InvalidCommit {
		p.logger.Warnf(ctx, "Cannot list changes between %s and %s, migration and static heuristics are disabled", from, to)
		changes.Unknown = true
		return changes
	}

	files, err := p.VCS.ChangedFiles(ctx, from, to)
	if err != nil {
		p.logger.Warnf(ctx, "Cannot list changed files between %s and %s: %v", from, to, err)
		changes.Unknown = true
		return changes
	}
	commits, err := p.VCS.CommitLog(ctx, from, to)
	if err != nil {
		p.logger.Warnf(ctx, "Cannot list commits between %s and %s: %v", from, to, err)
		changes.Unknown = true
		return changes
	}
	changes.Files = files
	changes.Commits = commits
	return changes
}

func containsMarker(files []string, marker string) bool {
	for _, f := range files {
		if strings.Contains(f, marker) {
			return true
		}
	}
	return false
}

// decide resolves every optional action into the plan.
func (p *DeploymentPlanner) decide(ctx context.Context, req domain.DeployRequest, app *domain.AppConfiguration, branch string, changes *domain.ChangeSet) (*domain.DeployPlan, error) {
	plan := &domain.DeployPlan{
		Environment:  req.Environment,
		AppName:      app.AppName(),
		Branch:       branch,
		Force:        req.Force,
		Pipeline:     app.UsePipeline(),
		Upstream:     app.UpstreamApp(),
		RunBuildpack: !app.UsePipeline(),
		TagMode:      app.TagMode(req.RichTag),
	}

	if plan.RunBuildpack {
		vars, err := p.Releases.ConfigVars(ctx, plan.AppName)
		if err != nil {
			return nil, err
		}
		_, disabled := vars[DisableCollectstaticVar]
		plan.BuildpackStatic = !disabled
	}

	hasMigrations := containsMarker(changes.Files, p.cfg.Deploy.MigrationsMarker)
	hasStatic := containsMarker(changes.Files, p.cfg.Deploy.StaticMarker) && !plan.BuildpackStatic

	migrate, err := p.choose(ctx, req.Migrate, req.Auto, "Do you want to run migrations?", hasMigrations)
	if err != nil {
		return nil, err
	}
	static, err := p.choose(ctx, req.Static, req.Auto, "Do you want to run collectstatic?", hasStatic)
	if err != nil {
		return nil, err
	}
	plan.Maintenance, err = p.choose(ctx, req.Maintenance, req.Auto, "Do you want to put up the maintenance page?", migrate)
	if err != nil {
		return nil, err
	}

	if migrate {
		plan.Tasks = append(plan.Tasks, domain.Task{Kind: domain.TaskMigrate, Command: p.cfg.Commands.Migrate})
	}
	if static {
		plan.Tasks = append(plan.Tasks, domain.Task{Kind: domain.TaskStatic, Command: p.cfg.Commands.Collectstatic})
	}
	for _, cmd := range app.PostDeployTasks() {
		plan.Tasks = append(plan.Tasks, domain.Task{Kind: domain.TaskPostDeploy, Command: cmd})
	}
	return plan, nil
}

// choose resolves one boolean: an explicit flag wins, auto mode takes the
// heuristic, otherwise the operator is asked with the heuristic as default.
func (p *DeploymentPlanner) choose(ctx context.Context, explicit, auto bool, question string, heuristic bool) (bool, error) {
	switch {
	case explicit:
		return true, nil
	case auto:
		return heuristic, nil
	default:
		return p.Operator.Confirm(ctx, question, heuristic)
	}
}

// deliver raises the maintenance page if planned, ships the code, runs the
// post-deploy tasks and lowers the page again whatever happened in between.
func (p *DeploymentPlanner) deliver(ctx context.Context, plan *domain.DeployPlan, outcome *domain.DeployOutcome) (err error) {
	if plan.Maintenance {
		p.step(ctx, "Putting up maintenance page")
		if err := p.Runner.ToggleMaintenance(ctx, plan.AppName, true); err != nil {
			return stageError(domain.StageMaintenanceOn, errors.CodeRemoteCommand, err)
		}
		p.complete(ctx, outcome, domain.StageMaintenanceOn)

		defer func() {
			p.step(ctx, "Pulling down maintenance page")
			cleanupCtx := context.WithoutCancel(ctx)
			if offErr := p.Runner.ToggleMaintenance(cleanupCtx, plan.AppName, false); offErr != nil {
				p.logger.Errorf(ctx, offErr, "Failed to pull down maintenance page of %s", plan.AppName)
				err = stderrs.Join(err, stageError(domain.StageMaintenanceOff, errors.CodeRemoteCommand, offErr))
				return
			}
			p.complete(ctx, outcome, domain.StageMaintenanceOff)
		}()
	}

	if plan.Pipeline {
		p.step(ctx, "Promoting upstream app: %s", plan.Upstream)
		if err := p.Runner.Promote(ctx, plan.Upstream); err != nil {
			return stageError(domain.StageDelivered, errors.CodeRemoteCommand, err)
		}
	} else {
		p.step(ctx, "Pushing to git remote")
		push := ports.PushRequest{
			RemoteURL:    p.cfg.RemoteURL(plan.AppName),
			LocalBranch:  plan.Branch,
			RemoteBranch: p.cfg.Deploy.RemoteBranch,
			Force:        plan.Force,
		}
		if err := p.VCS.Push(ctx, push); err != nil {
			return stageError(domain.StageDelivered, errors.CodeVCSError, err)
		}
	}
	p.complete(ctx, outcome, domain.StageDelivered)

	outcome.Tasks = p.tasks.RunAll(ctx, plan.AppName, plan.Tasks)
	if len(outcome.Tasks) > 0 {
		if err := p.Reporter.ReportTasks(ctx, outcome.Tasks); err != nil {
			p.logger.Warnf(ctx, "Failed to report task results: %v", err)
		}
	}
	p.complete(ctx, outcome, domain.StagePostDeployRun)
	return nil
}

// ReleaseNote seeds a rich tag message with one line per deployed commit.
func ReleaseNote(changes *domain.ChangeSet) string {
	if changes == nil {
		return ""
	}
	lines := make([]string, 0, len(changes.Commits))
	for _, c := range changes.Commits {
		lines = append(lines, "* "+c.Message)
	}
	return strings.Join(lines, "\n")
}

func (p *DeploymentPlanner) tag(ctx context.Context, plan *domain.DeployPlan, release *domain.ReleaseInfo, changes *domain.ChangeSet) error {
	p.step(ctx, "Applying git tag")
	message := fmt.Sprintf("Deployed to %s by %s", plan.AppName, release.DeployedBy)

	if plan.TagMode == domain.TagRich {
		switch {
		case p.Editor == nil:
			p.logger.Warnf(ctx, "No editor configured, using the default release note")
		default:
			edited, err := p.Editor.Edit(ctx, ReleaseNote(changes))
			switch {
			case err != nil:
				p.logger.Warnf(ctx, "Release note editor failed, using the default release note: %v", err)
			case strings.TrimSpace(edited) == "":
				p.logger.Warnf(ctx, "Release note is empty, using the default release note")
			default:
				message = strings.TrimSpace(edited)
			}
		}
	}

	return p.VCS.ApplyAnnotatedTag(ctx, plan.LocalCommit, release.TagName(), message)
}
