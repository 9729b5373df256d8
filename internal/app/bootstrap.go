package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/viper"

	"github.com/olusolaa/heroku-tools/internal/adapters/editor"
	"github.com/olusolaa/heroku-tools/internal/adapters/git"
	"github.com/olusolaa/heroku-tools/internal/adapters/heroku"
	"github.com/olusolaa/heroku-tools/internal/adapters/prompt"
	"github.com/olusolaa/heroku-tools/internal/config"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/internal/log"
)

// Streams are the operator's terminal.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func DefaultStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Bootstrap turns the merged tool settings in v into a ready Application.
// Adapters that need the working copy or the API token are built on first use.
func Bootstrap(ctx context.Context, v *viper.Viper, streams Streams) (*Application, error) {
	cfg, err := config.Load(ctx, v)
	if err != nil {
		return nil, err
	}

	logCfg := log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat}
	logger, err := log.NewLoggerWithWriter(logCfg, streams.Err)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Infof(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	if override := v.GetString("commands_override"); override != "" {
		logger.Debugf(ctx, "Applying command overrides from command line: %s", override)
		applyCommandsOverride(ctx, cfg, parseCommandsOverride(override), logger)
		if err := config.Validate(ctx, cfg); err != nil {
			return nil, err
		}
	}

	a := &Application{
		Config:   cfg,
		Logger:   logger,
		streams:  streams,
		loader:   config.NewApplicationLoader(logger.WithFields(map[string]any{"component": "loader"})),
		toolbelt: heroku.NewToolbelt(cfg.Heroku.CLIPath, streams.Out, logger.WithFields(map[string]any{"component": "toolbelt"})),
		operator: prompt.New(streams.In, streams.Out, logger.WithFields(map[string]any{"component": "prompt"})),
	}
	a.editor = editor.New(logger.WithFields(map[string]any{"component": "editor"}), editor.WithIO(streams.In, streams.Out, streams.Err))
	logger.Debugf(ctx, "Application bootstrap complete")
	return a, nil
}

// releases builds the API client, asking the CLI for a token when none is configured.
func (a *Application) releases(ctx context.Context) (ports.ReleaseProvider, error) {
	if a.api != nil {
		return a.api, nil
	}
	if a.Config.Heroku.APIToken == "" {
		a.Logger.Infof(ctx, "No API token configured, asking the Heroku CLI")
		token, err := a.toolbelt.AuthToken(ctx)
		if err != nil {
			return nil, err
		}
		a.Config.Heroku.APIToken = token
	}
	a.api = heroku.NewClient(a.Config.Heroku, a.Logger.WithFields(map[string]any{"component": "heroku_api"}))
	a.Logger.Debugf(ctx, "Using Heroku API at %s (token %s)", a.Config.Heroku.APIURL, a.Config.MaskedToken())
	return a.api, nil
}

func (a *Application) vcs(ctx context.Context) (ports.VersionControl, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	repo, err := git.Open(a.Config.Settings.GitWorkDir, git.Options{
		Token:    a.Config.Heroku.APIToken,
		Progress: a.streams.Out,
		Tagger:   fallbackTagger(),
	}, a.Logger.WithFields(map[string]any{"component": "git"}))
	if err != nil {
		return nil, err
	}
	a.Logger.Debugf(ctx, "Opened git working copy at %s", a.Config.Settings.GitWorkDir)
	a.repo = repo
	return repo, nil
}

func fallbackTagger() object.Signature {
	name := "heroku-tools"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return object.Signature{Name: name, Email: fmt.Sprintf("%s@%s", name, host)}
}
