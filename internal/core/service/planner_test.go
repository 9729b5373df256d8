package service_test

import (
	"context"
	stderrs "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/heroku-tools/internal/config"
	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/core/service"
	apperrors "github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/mocks"
)

const confPath = "/apps/prod.conf"

type plannerFixture struct {
	loader   *mocks.MockApplicationLoader
	vcs      *mocks.MockVersionControl
	releases *mocks.MockReleaseProvider
	runner   *mocks.MockRemoteCommandRunner
	operator *mocks.MockOperator
	editor   *mocks.MockNoteEditor
	reporter *mocks.MockDeployReporter
	cfg      *config.Config
}

func newPlannerFixture() *plannerFixture {
	cfg := config.DefaultConfig()
	cfg.Settings.AppConfDir = "/apps"
	return &plannerFixture{
		loader:   new(mocks.MockApplicationLoader),
		vcs:      new(mocks.MockVersionControl),
		releases: new(mocks.MockReleaseProvider),
		runner:   new(mocks.MockRemoteCommandRunner),
		operator: new(mocks.MockOperator),
		editor:   new(mocks.MockNoteEditor),
		reporter: mocks.NewQuietDeployReporter(),
		cfg:      cfg,
	}
}

func (f *plannerFixture) planner(t *testing.T) *service.DeploymentPlanner {
	t.Helper()
	p, err := service.NewDeploymentPlanner(service.Collaborators{
		Loader:   f.loader,
		VCS:      f.vcs,
		Releases: f.releases,
		Runner:   f.runner,
		Operator: f.operator,
		Editor:   f.editor,
		Reporter: f.reporter,
	}, f.cfg, mocks.NewTestLogger())
	require.NoError(t, err)
	return p
}

func (f *plannerFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.loader.AssertExpectations(t)
	f.vcs.AssertExpectations(t)
	f.releases.AssertExpectations(t)
	f.runner.AssertExpectations(t)
	f.operator.AssertExpectations(t)
	f.editor.AssertExpectations(t)
}

func release(version int, description string) *domain.ReleaseInfo {
	return &domain.ReleaseInfo{
		Version:     version,
		Description: description,
		DeployedBy:  "ops@example.com",
		Application: "my-app",
	}
}

func appConf(mutate func(a *domain.Application)) *domain.AppConfiguration {
	cfg := &domain.AppConfiguration{
		Application: domain.Application{Name: "my-app", Branch: "master"},
	}
	if mutate != nil {
		mutate(&cfg.Application)
	}
	return cfg
}

func TestDeploymentPlanner_UpToDateIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, confPath).Return(appConf(func(a *domain.Application) { a.AddTag = true }), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(10, "Deploy abc1234"), nil)
	f.vcs.On("HeadCommit", mock.Anything, "master").Return("abc1234", nil)

	p := f.planner(t)
	for i := 0; i < 2; i++ {
		outcome, err := p.Run(ctx, domain.DeployRequest{Environment: "prod", Force: true, Migrate: true, Maintenance: true})
		require.NoError(t, err)
		assert.True(t, outcome.UpToDate)
		assert.Equal(t, domain.StageDone, outcome.Stage)
		assert.Equal(t, []domain.Stage{domain.StageLoaded, domain.StageDone}, outcome.Completed)
	}

	f.assertExpectations(t)
	f.vcs.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	f.vcs.AssertNotCalled(t, "ApplyAnnotatedTag", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "ToggleMaintenance", mock.Anything, mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "RunCommand", mock.Anything, mock.Anything, mock.Anything)
	f.operator.AssertNotCalled(t, "ConfirmWithToken", mock.Anything, mock.Anything)
	f.reporter.AssertCalled(t, "ReportStep", mock.Anything, "Heroku application is up-to-date, aborting deployment.")
}

func TestDeploymentPlanner_PushDeployment(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, confPath).Return(appConf(func(a *domain.Application) {
		a.AddTag = true
		a.PostDeploy = []string{"python manage.py clearsessions"}
	}), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(10, "Deploy aaa1111"), nil).Once()
	f.vcs.On("HeadCommit", mock.Anything, "master").Return("bbb2222", nil)
	f.vcs.On("ChangedFiles", mock.Anything, "aaa1111", "bbb2222").Return([]string{"app/migrations/0002_field.py", "app/static/site.css", "app/views.py"}, nil)
	f.vcs.On("CommitLog", mock.Anything, "aaa1111", "bbb2222").Return([]domain.Commit{{Hash: "bbb2222", Message: "Add field"}}, nil)
	f.releases.On("ConfigVars", mock.Anything, "my-app").Return(map[string]string{"DEBUG": "false"}, nil)
	f.operator.On("ConfirmWithToken", mock.Anything, "").Return(true, nil)

	var calls []string
	f.runner.On("ToggleMaintenance", mock.Anything, "my-app", true).Return(nil).Run(func(mock.Arguments) { calls = append(calls, "maintenance:on") })
	f.vcs.On("Push", mock.Anything, ports.PushRequest{
		RemoteURL:    "https://git.heroku.com/my-app.git",
		LocalBranch:  "master",
		RemoteBranch: "master",
		Force:        false,
	}).Return(nil).Run(func(mock.Arguments) { calls = append(calls, "push") })
	f.runner.On("RunCommand", mock.Anything, "my-app", config.DefaultMigrate).Return(nil).Run(func(mock.Arguments) { calls = append(calls, "migrate") })
	f.runner.On("RunCommand", mock.Anything, "my-app", "python manage.py clearsessions").Return(nil).Run(func(mock.Arguments) { calls = append(calls, "clearsessions") })
	f.runner.On("ToggleMaintenance", mock.Anything, "my-app", false).Return(nil).Run(func(mock.Arguments) { calls = append(calls, "maintenance:off") })
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(11, "Deploy bbb2222"), nil).Once()
	f.vcs.On("ApplyAnnotatedTag", mock.Anything, "bbb2222", "11", "Deployed to my-app by ops@example.com").Return(nil).Run(func(mock.Arguments) { calls = append(calls, "tag") })

	outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{Environment: "prod", Auto: true})
	require.NoError(t, err)

	f.assertExpectations(t)
	assert.Equal(t, []string{"maintenance:on", "push", "migrate", "clearsessions", "maintenance:off", "tag"}, calls)
	assert.Equal(t, []domain.Stage{
		domain.StageLoaded, domain.StageCompared, domain.StageSummarized, domain.StageConfirmed,
		domain.StageMaintenanceOn, domain.StageDelivered, domain.StagePostDeployRun,
		domain.StageMaintenanceOff, domain.StageTagged, domain.StageDone,
	}, outcome.Completed)
	assert.Equal(t, "11", outcome.TagName)
	require.NotNil(t, outcome.Plan)
	assert.True(t, outcome.Plan.RunBuildpack)
	assert.True(t, outcome.Plan.BuildpackStatic, "buildpack runs collectstatic, so no explicit static task")
	assert.True(t, outcome.Plan.Maintenance)
	assert.Equal(t, domain.TagDefault, outcome.Plan.TagMode)
	assert.Len(t, outcome.Tasks, 2)
	f.operator.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything)
}

func TestDeploymentPlanner_PipelinePromotes(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, "/tmp/custom.conf").Return(appConf(func(a *domain.Application) {
		a.Pipeline = true
		a.Upstream = "my-app-stg"
	}), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(10, "Promote my-app-stg v4 aaa1111"), nil).Once()
	f.releases.On("LatestRelease", mock.Anything, "my-app-stg").Return(release(5, "Deploy ccc3333"), nil)
	f.vcs.On("ChangedFiles", mock.Anything, "aaa1111", "ccc3333").Return(nil, stderrs.New("object not found"))
	f.operator.On("Confirm", mock.Anything, "Do you want to run migrations?", false).Return(false, nil)
	f.operator.On("Confirm", mock.Anything, "Do you want to run collectstatic?", false).Return(false, nil)
	f.operator.On("Confirm", mock.Anything, "Do you want to put up the maintenance page?", false).Return(false, nil)
	f.operator.On("ConfirmWithToken", mock.Anything, "").Return(true, nil)
	f.runner.On("Promote", mock.Anything, "my-app-stg").Return(nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(11, "Promote my-app-stg v5 ccc3333"), nil).Once()

	outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{Environment: "prod", ConfigFile: "/tmp/custom.conf"})
	require.NoError(t, err)

	f.assertExpectations(t)
	assert.True(t, outcome.Changes.Unknown)
	assert.False(t, outcome.Plan.RunBuildpack)
	assert.Empty(t, outcome.Plan.Tasks)
	assert.Equal(t, "ccc3333", outcome.Plan.LocalCommit)
	assert.Equal(t, domain.StageDone, outcome.Stage)
	f.vcs.AssertNotCalled(t, "HeadCommit", mock.Anything, mock.Anything)
	f.vcs.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	f.vcs.AssertNotCalled(t, "ApplyAnnotatedTag", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.releases.AssertNotCalled(t, "ConfigVars", mock.Anything, mock.Anything)
	f.reporter.AssertNotCalled(t, "ReportTasks", mock.Anything, mock.Anything)
}

func TestDeploymentPlanner_MaintenanceLoweredWhenTaskFails(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, confPath).Return(appConf(func(a *domain.Application) {
		a.PostDeploy = []string{"python manage.py clearsessions"}
	}), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(10, "Deploy aaa1111"), nil).Once()
	f.vcs.On("HeadCommit", mock.Anything, "master").Return("bbb2222", nil)
	f.vcs.On("ChangedFiles", mock.Anything, "aaa1111", "bbb2222").Return([]string{"app/static/site.css"}, nil)
	f.vcs.On("CommitLog", mock.Anything, "aaa1111", "bbb2222").Return([]domain.Commit{}, nil)
	f.releases.On("ConfigVars", mock.Anything, "my-app").Return(map[string]string{service.DisableCollectstaticVar: "1"}, nil)
	f.operator.On("ConfirmWithToken", mock.Anything, "").Return(true, nil)
	f.runner.On("ToggleMaintenance", mock.Anything, "my-app", true).Return(nil)
	f.vcs.On("Push", mock.Anything, mock.Anything).Return(nil)
	migrateErr := apperrors.New(apperrors.CodeRemoteCommand, "heroku run exited with status 1")
	f.runner.On("RunCommand", mock.Anything, "my-app", config.DefaultMigrate).Return(migrateErr)
	f.runner.On("RunCommand", mock.Anything, "my-app", config.DefaultCollectstatic).Return(nil)
	f.runner.On("RunCommand", mock.Anything, "my-app", "python manage.py clearsessions").Return(nil)
	f.runner.On("ToggleMaintenance", mock.Anything, "my-app", false).Return(nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(11, "Deploy bbb2222"), nil).Once()

	outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{Environment: "prod", Migrate: true, Maintenance: true, Auto: true})
	require.Error(t, err)

	f.assertExpectations(t)
	assert.Equal(t, apperrors.CodeRemoteCommand, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "1 of 3 post-deploy tasks failed")
	require.Len(t, outcome.Tasks, 3)
	assert.False(t, outcome.Tasks[0].Succeeded())
	assert.True(t, outcome.Tasks[1].Succeeded())
	assert.True(t, outcome.Tasks[2].Succeeded())
	assert.Contains(t, outcome.Completed, domain.StageMaintenanceOff)
	assert.NotContains(t, outcome.Completed, domain.StageDone)
	f.reporter.AssertCalled(t, "ReportTasks", mock.Anything, outcome.Tasks)
}

func TestDeploymentPlanner_MaintenanceLoweredWhenPushFails(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, confPath).Return(appConf(nil), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(10, "Deploy aaa1111"), nil).Once()
	f.vcs.On("HeadCommit", mock.Anything, "release").Return("bbb2222", nil)
	f.vcs.On("ChangedFiles", mock.Anything, "aaa1111", "bbb2222").Return([]string{}, nil)
	f.vcs.On("CommitLog", mock.Anything, "aaa1111", "bbb2222").Return([]domain.Commit{}, nil)
	f.releases.On("ConfigVars", mock.Anything, "my-app").Return(map[string]string{}, nil)
	f.operator.On("ConfirmWithToken", mock.Anything, "").Return(true, nil)
	f.runner.On("ToggleMaintenance", mock.Anything, "my-app", true).Return(nil)
	f.vcs.On("Push", mock.Anything, ports.PushRequest{
		RemoteURL:    "https://git.heroku.com/my-app.git",
		LocalBranch:  "release",
		RemoteBranch: "master",
		Force:        true,
	}).Return(apperrors.New(apperrors.CodeVCSError, "non-fast-forward update"))
	f.runner.On("ToggleMaintenance", mock.Anything, "my-app", false).Return(nil)

	outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{
		Environment: "prod", Branch: "release", Force: true, Maintenance: true, Auto: true,
	})
	require.Error(t, err)

	f.assertExpectations(t)
	assert.Equal(t, apperrors.CodeVCSError, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "deploy stage delivered")
	assert.Contains(t, outcome.Completed, domain.StageMaintenanceOff)
	assert.NotContains(t, outcome.Completed, domain.StageDelivered)
	f.runner.AssertNotCalled(t, "RunCommand", mock.Anything, mock.Anything, mock.Anything)
	f.releases.AssertNumberOfCalls(t, "LatestRelease", 1)
}

func TestDeploymentPlanner_DeclineHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, confPath).Return(appConf(func(a *domain.Application) { a.AddTag = true }), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(10, "Deploy aaa1111"), nil)
	f.vcs.On("HeadCommit", mock.Anything, "master").Return("bbb2222", nil)
	f.vcs.On("ChangedFiles", mock.Anything, "aaa1111", "bbb2222").Return([]string{"app/migrations/0003.py"}, nil)
	f.vcs.On("CommitLog", mock.Anything, "aaa1111", "bbb2222").Return([]domain.Commit{}, nil)
	f.releases.On("ConfigVars", mock.Anything, "my-app").Return(map[string]string{}, nil)
	f.operator.On("Confirm", mock.Anything, "Do you want to run migrations?", true).Return(true, nil)
	f.operator.On("Confirm", mock.Anything, "Do you want to run collectstatic?", false).Return(false, nil)
	f.operator.On("Confirm", mock.Anything, "Do you want to put up the maintenance page?", true).Return(true, nil)
	f.operator.On("ConfirmWithToken", mock.Anything, "").Return(false, nil)

	outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{Environment: "prod"})
	require.Error(t, err)

	f.assertExpectations(t)
	assert.True(t, apperrors.IsDeclined(err))
	assert.Equal(t, domain.StageSummarized, outcome.Stage)
	f.vcs.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	f.vcs.AssertNotCalled(t, "ApplyAnnotatedTag", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "ToggleMaintenance", mock.Anything, mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "RunCommand", mock.Anything, mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything)
}

func TestDeploymentPlanner_PipelineWithoutUpstreamFailsBeforeAnyCall(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "prod.conf")
	require.NoError(t, os.WriteFile(path, []byte("application:\n  name: my-app\n  branch: master\n  pipeline: true\n"), 0o644))

	f := newPlannerFixture()
	f.cfg.Settings.AppConfDir = dir
	p, err := service.NewDeploymentPlanner(service.Collaborators{
		Loader:   config.NewApplicationLoader(mocks.NewTestLogger()),
		VCS:      f.vcs,
		Releases: f.releases,
		Runner:   f.runner,
		Operator: f.operator,
		Reporter: f.reporter,
	}, f.cfg, mocks.NewTestLogger())
	require.NoError(t, err)

	outcome, err := p.Run(ctx, domain.DeployRequest{Environment: "prod"})
	require.Error(t, err)

	assert.True(t, apperrors.GetCode(err).IsConfigurationError())
	assert.Contains(t, err.Error(), "deploy stage loaded")
	assert.Empty(t, outcome.Completed)
	assert.Empty(t, f.vcs.Calls)
	assert.Empty(t, f.releases.Calls)
	assert.Empty(t, f.runner.Calls)
	assert.Empty(t, f.operator.Calls)
}

func TestDeploymentPlanner_InvalidRemoteCommit(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, confPath).Return(appConf(nil), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(3, "Deploy"), nil).Once()
	f.vcs.On("HeadCommit", mock.Anything, "master").Return("bbb2222", nil)
	f.releases.On("ConfigVars", mock.Anything, "my-app").Return(map[string]string{}, nil)
	f.operator.On("ConfirmWithToken", mock.Anything, "").Return(true, nil)
	f.vcs.On("Push", mock.Anything, mock.Anything).Return(nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(4, "Deploy bbb2222"), nil).Once()

	outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{Environment: "prod", Auto: true})
	require.NoError(t, err)

	f.assertExpectations(t)
	assert.True(t, outcome.Changes.Unknown)
	assert.Equal(t, domain.InvalidCommit, outcome.Plan.RemoteCommit)
	assert.False(t, outcome.Plan.Maintenance)
	assert.Empty(t, outcome.Plan.Tasks)
	f.vcs.AssertNotCalled(t, "ChangedFiles", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeploymentPlanner_ReleaseLookupFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture()
	f.loader.On("Load", mock.Anything, confPath).Return(appConf(nil), nil)
	f.releases.On("LatestRelease", mock.Anything, "my-app").
		Return(nil, apperrors.New(apperrors.CodeNoDeployableRelease, "no deployments found in API response"))

	outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{Environment: "prod"})
	require.Error(t, err)

	assert.Equal(t, apperrors.CodeNoDeployableRelease, apperrors.GetCode(err))
	assert.True(t, apperrors.GetCode(err).IsReleaseLookupError())
	assert.Contains(t, err.Error(), "deploy stage compared")
	assert.Equal(t, domain.StageLoaded, outcome.Stage)
	assert.Empty(t, f.vcs.Calls)
}

func TestDeploymentPlanner_RichTag(t *testing.T) {
	tests := []struct {
		name            string
		edited          string
		editErr         error
		expectedMessage string
	}{
		{name: "edited note", edited: "* Add field\n* Tweak copy\n", expectedMessage: "* Add field\n* Tweak copy"},
		{name: "editor failure falls back", editErr: stderrs.New("no editor"), expectedMessage: "Deployed to my-app by ops@example.com"},
		{name: "empty note falls back", edited: "  \n", expectedMessage: "Deployed to my-app by ops@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newPlannerFixture()
			f.loader.On("Load", mock.Anything, confPath).Return(appConf(nil), nil)
			f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(10, "Deploy aaa1111"), nil).Once()
			f.vcs.On("HeadCommit", mock.Anything, "master").Return("bbb2222", nil)
			f.vcs.On("ChangedFiles", mock.Anything, "aaa1111", "bbb2222").Return([]string{"README"}, nil)
			f.vcs.On("CommitLog", mock.Anything, "aaa1111", "bbb2222").Return([]domain.Commit{
				{Hash: "bbb2222", Message: "Add field"},
				{Hash: "ab12cd3", Message: "Tweak copy"},
			}, nil)
			f.releases.On("ConfigVars", mock.Anything, "my-app").Return(map[string]string{}, nil)
			f.operator.On("ConfirmWithToken", mock.Anything, "").Return(true, nil)
			f.vcs.On("Push", mock.Anything, mock.Anything).Return(nil)
			f.releases.On("LatestRelease", mock.Anything, "my-app").Return(release(11, "Deploy bbb2222"), nil).Once()
			f.editor.On("Edit", mock.Anything, "* Add field\n* Tweak copy").Return(tt.edited, tt.editErr)
			f.vcs.On("ApplyAnnotatedTag", mock.Anything, "bbb2222", "11", tt.expectedMessage).Return(nil)

			outcome, err := f.planner(t).Run(ctx, domain.DeployRequest{Environment: "prod", Auto: true, RichTag: true})
			require.NoError(t, err)

			f.assertExpectations(t)
			assert.Equal(t, domain.TagRich, outcome.Plan.TagMode)
			assert.Equal(t, "11", outcome.TagName)
		})
	}
}

func TestReleaseNote(t *testing.T) {
	assert.Equal(t, "", service.ReleaseNote(nil))
	assert.Equal(t, "* one\n* two", service.ReleaseNote(&domain.ChangeSet{Commits: []domain.Commit{{Message: "one"}, {Message: "two"}}}))
}
