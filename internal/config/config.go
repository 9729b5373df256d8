package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	apperrors "github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/internal/log"
)

const (
	// FileName is the tool settings file looked up in the working directory and $HOME.
	FileName = ".herokutoolsconf"

	DefaultAPIURL        = "https://api.heroku.com"
	DefaultGitRemote     = "https://git.heroku.com/%s.git"
	DefaultMaxRange      = 10
	DefaultCollectstatic = "python manage.py collectstatic --noinput"
	DefaultMigrate       = "python manage.py migrate"

	OutputText = "text"
	OutputJSON = "json"
)

type Config struct {
	Settings SettingsConfig `mapstructure:"settings"`
	Commands CommandsConfig `mapstructure:"commands"`
	Heroku   HerokuConfig   `mapstructure:"heroku"`
	Deploy   DeployConfig   `mapstructure:"deploy"`
	Reporter ReporterConfig `mapstructure:"reporter"`
}

type SettingsConfig struct {
	AppConfDir string     `mapstructure:"app_conf_dir" validate:"required"`
	GitWorkDir string     `mapstructure:"git_work_dir" validate:"required"`
	LogLevel   log.Level  `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat  log.Format `mapstructure:"log_format" validate:"omitempty,oneof=text json"`
}

// CommandsConfig holds the shell commands run on the application after delivery.
type CommandsConfig struct {
	Collectstatic string `mapstructure:"collectstatic" validate:"required"`
	Migrate       string `mapstructure:"migrate" validate:"required"`
}

type HerokuConfig struct {
	APIURL    string        `mapstructure:"api_url" validate:"required,url"`
	APIToken  string        `mapstructure:"api_token"`
	MaxRange  int           `mapstructure:"max_range" validate:"min=1,max=1000"`
	RateLimit int           `mapstructure:"rate_limit" validate:"min=0,max=100"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"min=0"`
	CLIPath   string        `mapstructure:"cli_path" validate:"required"`
	GitRemote string        `mapstructure:"git_remote" validate:"required,contains=%s"`
}

type DeployConfig struct {
	MigrationsMarker string `mapstructure:"migrations_marker" validate:"required"`
	StaticMarker     string `mapstructure:"static_marker" validate:"required"`
	RemoteBranch     string `mapstructure:"remote_branch" validate:"required"`
}

type ReporterConfig struct {
	NoColor bool   `mapstructure:"no_color"`
	Output  string `mapstructure:"output" validate:"oneof=text json"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			AppConfDir: ".",
			GitWorkDir: ".",
			LogLevel:   log.LevelWarn,
			LogFormat:  log.FormatText,
		},
		Commands: CommandsConfig{
			Collectstatic: DefaultCollectstatic,
			Migrate:       DefaultMigrate,
		},
		Heroku: HerokuConfig{
			APIURL:    DefaultAPIURL,
			MaxRange:  DefaultMaxRange,
			RateLimit: 10,
			Timeout:   30 * time.Second,
			CLIPath:   "heroku",
			GitRemote: DefaultGitRemote,
		},
		Deploy: DeployConfig{
			MigrationsMarker: "/migrations/",
			StaticMarker:     "/static/",
			RemoteBranch:     "master",
		},
		Reporter: ReporterConfig{
			Output: OutputText,
		},
	}
}

// RegisterDefaults makes every setting known to v so that environment
// variables are honoured by Unmarshal even when no file sets the key.
// The legacy HEROKU_API_TOKEN and HEROKU_API_MAX_RANGE variables are bound too.
func RegisterDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("settings.app_conf_dir", d.Settings.AppConfDir)
	v.SetDefault("settings.git_work_dir", d.Settings.GitWorkDir)
	v.SetDefault("settings.log_level", string(d.Settings.LogLevel))
	v.SetDefault("settings.log_format", string(d.Settings.LogFormat))
	v.SetDefault("commands.collectstatic", d.Commands.Collectstatic)
	v.SetDefault("commands.migrate", d.Commands.Migrate)
	v.SetDefault("heroku.api_url", d.Heroku.APIURL)
	v.SetDefault("heroku.api_token", "")
	v.SetDefault("heroku.max_range", d.Heroku.MaxRange)
	v.SetDefault("heroku.rate_limit", d.Heroku.RateLimit)
	v.SetDefault("heroku.timeout", d.Heroku.Timeout.String())
	v.SetDefault("heroku.cli_path", d.Heroku.CLIPath)
	v.SetDefault("heroku.git_remote", d.Heroku.GitRemote)
	v.SetDefault("deploy.migrations_marker", d.Deploy.MigrationsMarker)
	v.SetDefault("deploy.static_marker", d.Deploy.StaticMarker)
	v.SetDefault("deploy.remote_branch", d.Deploy.RemoteBranch)
	v.SetDefault("reporter.no_color", d.Reporter.NoColor)
	v.SetDefault("reporter.output", d.Reporter.Output)

	_ = v.BindEnv("heroku.api_token", "HEROKU_TOOLS_HEROKU_API_TOKEN", "HEROKU_API_TOKEN")
	_ = v.BindEnv("heroku.max_range", "HEROKU_TOOLS_HEROKU_MAX_RANGE", "HEROKU_API_MAX_RANGE")
}

// Load decodes and validates the tool settings held by v.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	decoderConfig := func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
	if err := v.Unmarshal(cfg, decoderConfig); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigParseError, "failed to unmarshal tool settings")
	}
	if err := Validate(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct validation and flattens the failures into one user-facing error.
func Validate(ctx context.Context, s any) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Wrap(err, apperrors.CodeConfigValidation, "configuration validation failed")
	}
	var errorDetails strings.Builder
	errorDetails.WriteString("Configuration validation failed:")
	for _, fe := range validationErrors {
		errorDetails.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return apperrors.NewUserFacing(apperrors.CodeConfigValidation, errorDetails.String(), "Please check your configuration file, environment or flags.")
}

// AppConfPath is the default application configuration file for env.
func (c *Config) AppConfPath(env string) string {
	return filepath.Join(c.Settings.AppConfDir, fmt.Sprintf("%s.conf", env))
}

// RemoteURL is the git remote of app.
func (c *Config) RemoteURL(app string) string {
	return fmt.Sprintf(c.Heroku.GitRemote, app)
}

// MaskedToken shows only the last four characters of the API token.
func (c *Config) MaskedToken() string {
	t := c.Heroku.APIToken
	if t == "" {
		return "<none>"
	}
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", len(t)-4) + t[len(t)-4:]
}
