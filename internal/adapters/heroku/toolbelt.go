package heroku

import (
	"bytes"
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"

	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
)

// Toolbelt drives the heroku CLI for everything the read-only API client
// does not cover.
type Toolbelt struct {
	path   string
	stdout io.Writer
	logger ports.Logger
}

var _ ports.RemoteCommandRunner = (*Toolbelt)(nil)

// NewToolbelt streams command output to stdout; nil discards it.
func NewToolbelt(path string, stdout io.Writer, logger ports.Logger) *Toolbelt {
	if stdout == nil {
		stdout = io.Discard
	}
	return &Toolbelt{path: path, stdout: stdout, logger: logger}
}

func (t *Toolbelt) exec(ctx context.Context, stdout io.Writer, args ...string) error {
	cmdline := t.path + " " + strings.Join(args, " ")
	t.logger.Infof(ctx, "Running %s", cmdline)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.path, args...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if stderrs.Is(err, exec.ErrNotFound) {
		return errors.WrapUserFacing(err, errors.CodeRemoteCommand,
			fmt.Sprintf("Heroku CLI not found at %q", t.path),
			"Install the Heroku CLI or set heroku.cli_path.")
	}
	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), errors.CodeTimeout, fmt.Sprintf("Heroku command '%s' was interrupted", cmdline))
	}
	return errors.Wrap(err, errors.CodeRemoteCommand,
		fmt.Sprintf("Error running Heroku command '%s': %s", cmdline, strings.TrimSpace(stderr.String())))
}

func (t *Toolbelt) run(ctx context.Context, app string, args ...string) error {
	return t.exec(ctx, t.stdout, append(args, "--app", app)...)
}

func (t *Toolbelt) RunCommand(ctx context.Context, app, command string) error {
	return t.run(ctx, app, "run", "--exit-code", command)
}

func (t *Toolbelt) ToggleMaintenance(ctx context.Context, app string, on bool) error {
	if on {
		return t.run(ctx, app, "maintenance:on")
	}
	return t.run(ctx, app, "maintenance:off")
}

func (t *Toolbelt) Promote(ctx context.Context, app string) error {
	return t.run(ctx, app, "pipelines:promote")
}

func (t *Toolbelt) SetConfigVars(ctx context.Context, app string, vars map[string]string) error {
	if len(vars) == 0 {
		return nil
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{"config:set"}
	for _, k := range keys {
		args = append(args, k+"="+vars[k])
	}
	return t.run(ctx, app, args...)
}

// AuthToken asks the CLI for the logged-in user's API token.
func (t *Toolbelt) AuthToken(ctx context.Context) (string, error) {
	var out bytes.Buffer
	if err := t.exec(ctx, &out, "auth:token"); err != nil {
		return "", errors.WrapUserFacing(err, errors.CodePlatformAuthError,
			"Unable to retrieve user auth token from Heroku",
			"Please ensure that you are logged in using 'heroku login', or set HEROKU_API_TOKEN.")
	}
	token := strings.TrimSpace(out.String())
	if token == "" {
		return "", errors.NewUserFacing(errors.CodePlatformAuthError,
			"Heroku CLI returned an empty auth token",
			"Please ensure that you are logged in using 'heroku login'.")
	}
	return token, nil
}
