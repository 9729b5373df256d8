package config

import (
	"context"
	stderrs "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	apperrors "github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/pkg/convert"
)

// ApplicationLoader reads per-environment application files.
type ApplicationLoader struct {
	logger ports.Logger
}

func NewApplicationLoader(logger ports.Logger) *ApplicationLoader {
	return &ApplicationLoader{logger: logger}
}

func (l *ApplicationLoader) Load(ctx context.Context, path string) (*domain.AppConfiguration, error) {
	l.logger.Debugf(ctx, "Loading application configuration from %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrs.Is(err, fs.ErrNotExist) {
			return nil, apperrors.WrapUserFacing(err, apperrors.CodeConfigNotFound,
				fmt.Sprintf("application configuration %s does not exist", path),
				"Create it with 'heroku-tools init <env>' or pass --config-file.")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeConfigReadError, fmt.Sprintf("failed to read %s", path))
	}
	return ParseApplication(ctx, data, path)
}

// ParseApplication decodes and validates application configuration YAML.
// source is only used in error messages.
func ParseApplication(ctx context.Context, data []byte, source string) (*domain.AppConfiguration, error) {
	var cfg domain.AppConfiguration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.WrapUserFacing(err, apperrors.CodeConfigParseError,
			fmt.Sprintf("invalid YAML in %s:\n%s", source, yaml.FormatError(err, false, true)), "")
	}

	cfg.Application.Name = strings.TrimSpace(cfg.Application.Name)
	cfg.Application.Branch = strings.TrimSpace(cfg.Application.Branch)
	cfg.Application.Upstream = strings.TrimSpace(cfg.Application.Upstream)

	if cfg.Application.Pipeline && cfg.Application.Upstream == "" {
		return nil, apperrors.NewUserFacing(apperrors.CodeConfigValidation,
			fmt.Sprintf("invalid configuration in %s: pipeline is set to run, but no upstream app is defined", source),
			"Set application.upstream or disable application.pipeline.")
	}
	if err := Validate(ctx, &cfg); err != nil {
		return nil, err
	}
	if _, err := convert.ToStringMap(cfg.Settings); err != nil {
		return nil, apperrors.WrapUserFacing(err, apperrors.CodeConfigValidation,
			fmt.Sprintf("invalid settings in %s: values must be plain strings, numbers or booleans", source), "")
	}
	return &cfg, nil
}

// SaveApplication writes cfg to path, refusing to replace an existing file.
func SaveApplication(path string, cfg *domain.AppConfiguration) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode application configuration")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if stderrs.Is(err, fs.ErrExist) {
			return apperrors.NewUserFacing(apperrors.CodeConfigExists,
				fmt.Sprintf("configuration file already exists: %s", path), "Edit the existing file instead.")
		}
		return apperrors.Wrap(err, apperrors.CodeConfigReadError, fmt.Sprintf("failed to create %s", path))
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return apperrors.Wrap(err, apperrors.CodeConfigReadError, fmt.Sprintf("failed to write %s", path))
	}
	return nil
}
