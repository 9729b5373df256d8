package git

import (
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
)

const (
	ShortHashLength = 7
	pushRemoteName  = "heroku"
)

type Options struct {
	// Token authenticates HTTPS pushes; SSH remotes use the ssh-agent.
	Token string
	// Progress receives the server's push output. Nil discards it.
	Progress io.Writer
	// Tagger is used for annotated tags when git config has no user identity.
	Tagger object.Signature
}

// Repository is a ports.VersionControl backed by a local working copy.
type Repository struct {
	repo   *gogit.Repository
	opts   Options
	logger ports.Logger
	now    func() time.Time
}

var _ ports.VersionControl = (*Repository)(nil)

func Open(dir string, opts Options, logger ports.Logger) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeVCSError,
			fmt.Sprintf("cannot open git repository at %s", dir),
			"Set settings.git_work_dir to the application's working copy.")
	}
	return &Repository{repo: repo, opts: opts, logger: logger, now: time.Now}, nil
}

func short(h plumbing.Hash) string {
	return h.String()[:ShortHashLength]
}

func (r *Repository) resolve(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, fmt.Sprintf("cannot resolve revision %q", rev))
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, fmt.Sprintf("cannot load commit %s", hash))
	}
	return commit, nil
}

func (r *Repository) HeadCommit(ctx context.Context, branch string) (string, error) {
	commit, err := r.resolve(branch)
	if err != nil {
		return "", err
	}
	r.logger.Debugf(ctx, "Head of %s is %s", branch, commit.Hash)
	return short(commit.Hash), nil
}

func (r *Repository) ChangedFiles(ctx context.Context, from, to string) ([]string, error) {
	fromCommit, err := r.resolve(from)
	if err != nil {
		return nil, err
	}
	toCommit, err := r.resolve(to)
	if err != nil {
		return nil, err
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, "cannot read tree of "+from)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, "cannot read tree of "+to)
	}

	changes, err := object.DiffTreeContext(ctx, fromTree, toTree)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, fmt.Sprintf("cannot diff %s..%s", from, to))
	}

	seen := make(map[string]struct{}, len(changes))
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name != "" {
				seen[name] = struct{}{}
			}
		}
	}
	files := make([]string, 0, len(seen))
	for name := range seen {
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// CommitLog mirrors `git log --no-merges from..to`.
func (r *Repository) CommitLog(ctx context.Context, from, to string) ([]domain.Commit, error) {
	fromCommit, err := r.resolve(from)
	if err != nil {
		return nil, err
	}
	toCommit, err := r.resolve(to)
	if err != nil {
		return nil, err
	}

	excluded := make(map[plumbing.Hash]struct{})
	iter, err := r.repo.Log(&gogit.LogOptions{From: fromCommit.Hash})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, "cannot walk history of "+from)
	}
	err = iter.ForEach(func(c *object.Commit) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		excluded[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, "cannot walk history of "+from)
	}

	var commits []domain.Commit
	iter, err = r.repo.Log(&gogit.LogOptions{From: toCommit.Hash, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, "cannot walk history of "+to)
	}
	err = iter.ForEach(func(c *object.Commit) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, ok := excluded[c.Hash]; ok {
			return nil
		}
		if c.NumParents() > 1 {
			return nil
		}
		commits = append(commits, domain.Commit{
			Hash:    short(c.Hash),
			Message: strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0],
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVCSError, "cannot walk history of "+to)
	}
	return commits, nil
}

func (r *Repository) auth(url string) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, err
	}
	switch ep.Protocol {
	case "http", "https":
		if r.opts.Token == "" {
			return nil, nil
		}
		return &http.BasicAuth{Username: "heroku", Password: r.opts.Token}, nil
	case "ssh":
		user := ep.User
		if user == "" {
			user = ssh.DefaultUsername
		}
		return ssh.NewSSHAgentAuth(user)
	default:
		return nil, nil
	}
}

func (r *Repository) Push(ctx context.Context, req ports.PushRequest) error {
	auth, err := r.auth(req.RemoteURL)
	if err != nil {
		return errors.Wrap(err, errors.CodeVCSError, fmt.Sprintf("cannot set up authentication for %s", req.RemoteURL))
	}

	refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", req.LocalBranch, req.RemoteBranch)
	if req.Force {
		refspec = "+" + refspec
	}
	remote := gogit.NewRemote(r.repo.Storer, &gitconfig.RemoteConfig{
		Name: pushRemoteName,
		URLs: []string{req.RemoteURL},
	})

	r.logger.Infof(ctx, "Pushing %s to %s (force: %t)", refspec, req.RemoteURL, req.Force)
	err = remote.PushContext(ctx, &gogit.PushOptions{
		RemoteName: pushRemoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(refspec)},
		Auth:       auth,
		Force:      req.Force,
		Progress:   r.opts.Progress,
	})
	if stderrs.Is(err, gogit.NoErrAlreadyUpToDate) {
		r.logger.Infof(ctx, "Remote %s is already up to date", req.RemoteURL)
		return nil
	}
	if err != nil {
		return errors.WrapUserFacing(err, errors.CodeVCSError,
			fmt.Sprintf("git push of %s to %s failed: %v", req.LocalBranch, req.RemoteURL, err),
			"Use --force if the remote history has diverged.")
	}
	return nil
}

func (r *Repository) tagger() *object.Signature {
	cfg, err := r.repo.ConfigScoped(gitconfig.SystemScope)
	if err == nil && cfg.User.Name != "" && cfg.User.Email != "" {
		return &object.Signature{Name: cfg.User.Name, Email: cfg.User.Email, When: r.now()}
	}
	sig := r.opts.Tagger
	sig.When = r.now()
	return &sig
}

func (r *Repository) ApplyAnnotatedTag(ctx context.Context, commit, tag, message string) error {
	target, err := r.resolve(commit)
	if err != nil {
		return err
	}
	_, err = r.repo.CreateTag(tag, target.Hash, &gogit.CreateTagOptions{
		Tagger:  r.tagger(),
		Message: message,
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeVCSError, fmt.Sprintf("cannot create tag %s at %s", tag, commit))
	}
	r.logger.Infof(ctx, "Tagged %s as %s", short(target.Hash), tag)
	return nil
}
