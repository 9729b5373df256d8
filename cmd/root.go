package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/heroku-tools/internal/app"
	"github.com/olusolaa/heroku-tools/internal/config"
	apperrors "github.com/olusolaa/heroku-tools/internal/errors"
)

const (
	exitOK       = 0
	exitFatal    = 1
	exitDeclined = 2
)

var (
	settingsFile      string
	logLevel          string
	logFormat         string
	noColor           bool
	commandsOverride  string
	configDescription = "Application configuration file (default is <app_conf_dir>/<env>.conf)"
)

var rootCmd = &cobra.Command{
	Use:   "heroku-tools",
	Short: "Deploys Heroku applications and keeps their config vars in line with local settings.",
	Long: `heroku-tools sequences a Heroku deployment: it compares the code live on the
application with the code about to ship, asks which optional steps to run
(migrations, collectstatic, maintenance page), pushes or promotes, runs the
post-deploy commands and tags the release in git.

It also compares the settings declared in an environment's configuration
file with the application's config vars and applies the differences.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings-file", "", "Tool settings file (default is .herokutoolsconf in the working or home directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.PersistentFlags().StringVar(&commandsOverride, "commands", "", "Override post-deploy commands (e.g., 'migrate=./manage.py migrate;collectstatic=make static')")

	_ = viper.BindPFlag("settings.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("settings.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("reporter.no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("commands_override", rootCmd.PersistentFlags().Lookup("commands"))

	viper.SetEnvPrefix("HEROKU_TOOLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.RegisterDefaults(viper.GetViper())

	rootCmd.AddCommand(deployCmd, configCmd, settingsCmd, initCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(config.FileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return apperrors.WrapUserFacing(err, apperrors.CodeConfigReadError,
				fmt.Sprintf("failed to read settings file: %v", err), "Check the YAML syntax of the settings file.")
		}
	}
	return nil
}

func bootstrap(ctx context.Context) (*app.Application, error) {
	return app.Bootstrap(ctx, viper.GetViper(), app.DefaultStreams())
}

// printError writes the user-facing form of err.
func printError(w io.Writer, err error) {
	userMsg, suggestion, _ := apperrors.GetUserFacingMessage(err)
	fmt.Fprintf(w, "ERROR: %s\n", userMsg)
	if suggestion != "" {
		fmt.Fprintf(w, "Suggestion: %s\n", suggestion)
	}
}

// exitCode maps the result of a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case apperrors.IsDeclined(err):
		return exitDeclined
	default:
		return exitFatal
	}
}

func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case apperrors.IsDeclined(err):
		fmt.Fprintln(os.Stderr, "Aborted: the operator declined, nothing was changed.")
	default:
		printError(os.Stderr, err)
	}
	return exitCode(err)
}
