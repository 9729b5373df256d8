package app

import (
	"context"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
)

// lazyReleases defers building the API client, and with it any token lookup
// through the CLI, until the services first ask for release data. The
// application configuration is always loaded and validated before that.
type lazyReleases struct {
	app *Application
}

func (l lazyReleases) LatestRelease(ctx context.Context, name string) (*domain.ReleaseInfo, error) {
	releases, err := l.app.releases(ctx)
	if err != nil {
		return nil, err
	}
	return releases.LatestRelease(ctx, name)
}

func (l lazyReleases) ConfigVars(ctx context.Context, name string) (map[string]string, error) {
	releases, err := l.app.releases(ctx)
	if err != nil {
		return nil, err
	}
	return releases.ConfigVars(ctx, name)
}

// lazyVCS opens the working copy on first use.
type lazyVCS struct {
	app *Application
}

func (l lazyVCS) HeadCommit(ctx context.Context, branch string) (string, error) {
	vcs, err := l.app.vcs(ctx)
	if err != nil {
		return "", err
	}
	return vcs.HeadCommit(ctx, branch)
}

func (l lazyVCS) ChangedFiles(ctx context.Context, from, to string) ([]string, error) {
	vcs, err := l.app.vcs(ctx)
	if err != nil {
		return nil, err
	}
	return vcs.ChangedFiles(ctx, from, to)
}

func (l lazyVCS) CommitLog(ctx context.Context, from, to string) ([]domain.Commit, error) {
	vcs, err := l.app.vcs(ctx)
	if err != nil {
		return nil, err
	}
	return vcs.CommitLog(ctx, from, to)
}

func (l lazyVCS) Push(ctx context.Context, req ports.PushRequest) error {
	vcs, err := l.app.vcs(ctx)
	if err != nil {
		return err
	}
	return vcs.Push(ctx, req)
}

func (l lazyVCS) ApplyAnnotatedTag(ctx context.Context, commit, tag, message string) error {
	vcs, err := l.app.vcs(ctx)
	if err != nil {
		return err
	}
	return vcs.ApplyAnnotatedTag(ctx, commit, tag, message)
}

var (
	_ ports.ReleaseProvider = lazyReleases{}
	_ ports.VersionControl  = lazyVCS{}
)
