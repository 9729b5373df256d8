package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
)

const noteFileName = "RELEASE_NOTE"

var (
	envPrecedence = []string{"GIT_EDITOR", "VISUAL", "EDITOR"}
	fallbacks     = []string{"vim", "nano", "vi"}
)

// Editor opens the operator's text editor on a release note.
type Editor struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	logger   ports.Logger
}

var _ ports.NoteEditor = (*Editor)(nil)

type Option func(*Editor)

func WithEnv(getenv func(string) string) Option {
	return func(e *Editor) { e.getenv = getenv }
}

func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(e *Editor) { e.lookPath = lookPath }
}

func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Editor) { e.stdin, e.stdout, e.stderr = stdin, stdout, stderr }
}

func New(logger ports.Logger, opts ...Option) *Editor {
	e := &Editor{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Command returns the editor command line, split into fields.
func (e *Editor) Command() ([]string, error) {
	for _, key := range envPrecedence {
		if v := strings.TrimSpace(e.getenv(key)); v != "" {
			return strings.Fields(v), nil
		}
	}
	for _, name := range fallbacks {
		if path, err := e.lookPath(name); err == nil {
			return []string{path}, nil
		}
	}
	return nil, errors.NewUserFacing(errors.CodeInternal,
		"no text editor found",
		"Set GIT_EDITOR, VISUAL or EDITOR.")
}

func (e *Editor) Edit(ctx context.Context, seed string) (string, error) {
	command, err := e.Command()
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "heroku-tools-note-")
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "cannot create release note directory")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, noteFileName)
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "cannot write release note")
	}

	e.logger.Debugf(ctx, "Opening %s in %s", path, strings.Join(command, " "))
	cmd := exec.CommandContext(ctx, command[0], append(command[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = e.stdin, e.stdout, e.stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("editor %s failed", command[0]))
	}

	note, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "cannot read release note")
	}
	return strings.TrimSpace(string(note)), nil
}
