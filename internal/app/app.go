package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/olusolaa/heroku-tools/internal/adapters/editor"
	"github.com/olusolaa/heroku-tools/internal/adapters/git"
	"github.com/olusolaa/heroku-tools/internal/adapters/heroku"
	"github.com/olusolaa/heroku-tools/internal/adapters/prompt"
	"github.com/olusolaa/heroku-tools/internal/config"
	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/core/service"
	"github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/internal/reporting/json"
	"github.com/olusolaa/heroku-tools/internal/reporting/text"
)

// Application wires the adapters to the deploy and settings services for one invocation.
type Application struct {
	Config *config.Config
	Logger ports.Logger

	streams  Streams
	loader   *config.ApplicationLoader
	toolbelt *heroku.Toolbelt
	operator *prompt.Prompt
	editor   *editor.Editor
	api      *heroku.Client
	repo     *git.Repository
}

func (a *Application) textReporter() (*text.Reporter, error) {
	r, err := text.NewReporter(text.Config{NoColor: a.Config.Reporter.NoColor}, a.streams.Out,
		a.Logger.WithFields(map[string]any{"component": "reporter", "type": text.ReporterTypeText}))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize Text reporter")
	}
	return r, nil
}

// Deploy runs one deployment of req.Environment.
func (a *Application) Deploy(ctx context.Context, req domain.DeployRequest) (*domain.DeployOutcome, error) {
	logger := a.Logger.WithFields(map[string]any{"command": "deploy", "environment": req.Environment})
	if !req.Auto && !a.operator.Interactive() {
		logger.Warnf(ctx, "Input is not a terminal; answers are read from it as typed")
	}

	reporter, err := a.textReporter()
	if err != nil {
		return nil, err
	}

	planner, err := service.NewDeploymentPlanner(service.Collaborators{
		Loader:   a.loader,
		VCS:      lazyVCS{app: a},
		Releases: lazyReleases{app: a},
		Runner:   a.toolbelt,
		Operator: a.operator,
		Editor:   a.editor,
		Reporter: reporter,
	}, a.Config, logger.WithFields(map[string]any{"component": "planner"}))
	if err != nil {
		return nil, err
	}

	logger.Infof(ctx, "Starting deployment...")
	outcome, err := planner.Run(ctx, req)
	if err != nil {
		if !errors.IsDeclined(err) {
			logger.WithFields(map[string]any{"stage": outcome.Stage}).Errorf(ctx, err, "Deployment failed")
		}
		return outcome, err
	}
	logger.Infof(ctx, "Deployment completed successfully")
	return outcome, nil
}

// Configure compares local settings with the remote config vars and applies
// the differences. JSON output never prompts, so it always runs dry.
func (a *Application) Configure(ctx context.Context, req service.ReconcileRequest) (*service.ReconcileOutcome, error) {
	logger := a.Logger.WithFields(map[string]any{"command": "config", "environment": req.Environment})

	var (
		reporter ports.DiffReporter
		err      error
	)
	switch a.Config.Reporter.Output {
	case config.OutputJSON:
		if !req.DryRun {
			logger.Debugf(ctx, "JSON output requested, switching to dry run")
			req.DryRun = true
		}
		reporter, err = json.NewReporter(a.streams.Out, logger.WithFields(map[string]any{"component": "reporter", "type": json.ReporterTypeJSON}))
	default:
		reporter, err = a.textReporter()
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize reporter")
	}

	reconciler := service.NewSettingsReconciler(a.loader, lazyReleases{app: a}, a.toolbelt, a.operator, reporter, a.Config,
		logger.WithFields(map[string]any{"component": "reconciler"}))
	return reconciler.Run(ctx, req)
}

// Init interactively writes a new application configuration for env and
// returns its path. Existing files are never overwritten.
func (a *Application) Init(ctx context.Context, env string) (string, error) {
	path := a.Config.AppConfPath(env)
	if _, err := os.Stat(path); err == nil {
		return "", errors.NewUserFacing(errors.CodeConfigExists,
			fmt.Sprintf("configuration file %s already exists", path),
			"Edit the file directly or remove it first.")
	}

	conf := &domain.AppConfiguration{}
	name, err := a.operator.Ask(ctx, "Heroku application name")
	if err != nil {
		return "", err
	}
	conf.Application.Name = name

	branch, err := a.operator.Ask(ctx, fmt.Sprintf("Git branch to deploy [%s]", a.Config.Deploy.RemoteBranch))
	if err != nil {
		return "", err
	}
	if branch == "" {
		branch = a.Config.Deploy.RemoteBranch
	}
	conf.Application.Branch = branch

	if conf.Application.Pipeline, err = a.operator.Confirm(ctx, "Is the application deployed by pipeline promotion?", false); err != nil {
		return "", err
	}
	if conf.Application.Pipeline {
		if conf.Application.Upstream, err = a.operator.Ask(ctx, "Upstream application name"); err != nil {
			return "", err
		}
	}
	if conf.Application.AddTag, err = a.operator.Confirm(ctx, "Tag each release in git?", true); err != nil {
		return "", err
	}

	if err := config.Validate(ctx, conf); err != nil {
		return "", err
	}

	seed, err := a.operator.Confirm(ctx, fmt.Sprintf("Copy the current config vars of %s into the file?", name), false)
	if err != nil {
		return "", err
	}
	if seed {
		releases, err := a.releases(ctx)
		if err != nil {
			return "", err
		}
		vars, err := releases.ConfigVars(ctx, name)
		if err != nil {
			return "", errors.WithPrefix(err, errors.CodeReleaseLookup, fmt.Sprintf("failed to fetch config vars of %s", name))
		}
		conf.Settings = make(map[string]any, len(vars))
		for k, v := range vars {
			conf.Settings[k] = v
		}
	}

	if err := config.SaveApplication(path, conf); err != nil {
		return "", err
	}
	a.Logger.Infof(ctx, "Wrote application configuration %s", path)
	return path, nil
}

// DescribeSettings prints the effective tool settings, token masked.
func (a *Application) DescribeSettings(w io.Writer) {
	c := a.Config
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "settings.app_conf_dir\t%s\n", c.Settings.AppConfDir)
	fmt.Fprintf(tw, "settings.git_work_dir\t%s\n", c.Settings.GitWorkDir)
	fmt.Fprintf(tw, "settings.log_level\t%s\n", c.Settings.LogLevel)
	fmt.Fprintf(tw, "settings.log_format\t%s\n", c.Settings.LogFormat)
	fmt.Fprintf(tw, "commands.migrate\t%s\n", c.Commands.Migrate)
	fmt.Fprintf(tw, "commands.collectstatic\t%s\n", c.Commands.Collectstatic)
	fmt.Fprintf(tw, "heroku.api_url\t%s\n", c.Heroku.APIURL)
	fmt.Fprintf(tw, "heroku.api_token\t%s\n", c.MaskedToken())
	fmt.Fprintf(tw, "heroku.max_range\t%d\n", c.Heroku.MaxRange)
	fmt.Fprintf(tw, "heroku.rate_limit\t%d\n", c.Heroku.RateLimit)
	fmt.Fprintf(tw, "heroku.timeout\t%s\n", c.Heroku.Timeout)
	fmt.Fprintf(tw, "heroku.cli_path\t%s\n", c.Heroku.CLIPath)
	fmt.Fprintf(tw, "heroku.git_remote\t%s\n", c.Heroku.GitRemote)
	fmt.Fprintf(tw, "deploy.migrations_marker\t%s\n", c.Deploy.MigrationsMarker)
	fmt.Fprintf(tw, "deploy.static_marker\t%s\n", c.Deploy.StaticMarker)
	fmt.Fprintf(tw, "deploy.remote_branch\t%s\n", c.Deploy.RemoteBranch)
	fmt.Fprintf(tw, "reporter.no_color\t%t\n", c.Reporter.NoColor)
	fmt.Fprintf(tw, "reporter.output\t%s\n", c.Reporter.Output)
}
