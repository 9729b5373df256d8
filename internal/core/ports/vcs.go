package ports

import (
	"context"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
)

// PushRequest describes one push of a local branch to a remote URL.
type PushRequest struct {
	RemoteURL    string
	LocalBranch  string
	RemoteBranch string
	Force        bool
}

type VersionControl interface {
	// HeadCommit returns the abbreviated hash at the head of branch.
	HeadCommit(ctx context.Context, branch string) (string, error)
	// ChangedFiles lists paths changed between from and to, sorted.
	ChangedFiles(ctx context.Context, from, to string) ([]string, error)
	// CommitLog lists non-merge commits reachable from to but not from from,
	// newest first.
	CommitLog(ctx context.Context, from, to string) ([]domain.Commit, error)
	Push(ctx context.Context, req PushRequest) error
	ApplyAnnotatedTag(ctx context.Context, commit, tag, message string) error
}
