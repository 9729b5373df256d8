package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/service"
	apperrors "github.com/olusolaa/heroku-tools/internal/errors"
)

var (
	configReq      service.ReconcileRequest
	configStatuses []string
)

var configCmd = &cobra.Command{
	Use:   "config <environment>",
	Short: "Compare and apply the settings of an environment.",
	Long: `Compare the settings declared in <environment>.conf with the application's
config vars, print the diff and apply the local values after confirmation.

  =  same value locally and remotely
  !  different value, the local one will be applied
  +  local only, will be added
  ?  remote only, left untouched

JSON output implies --dry-run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := parseStatuses(configStatuses)
		if err != nil {
			return err
		}
		application, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		req := configReq
		req.Environment = args[0]
		req.Statuses = statuses
		_, err = application.Configure(cmd.Context(), req)
		return err
	},
}

func init() {
	f := configCmd.Flags()
	f.StringVarP(&configReq.ConfigFile, "config-file", "c", "", configDescription)
	f.BoolVar(&configReq.DryRun, "dry-run", false, "Show the diff without applying anything")
	f.StringSliceVar(&configStatuses, "status", nil, "Only show these statuses (match, mismatch, local_only, remote_only)")
	f.StringP("output", "o", "", "Output format (text, json)")
	_ = viper.BindPFlag("reporter.output", f.Lookup("output"))
}

func parseStatuses(values []string) ([]domain.Status, error) {
	statuses := make([]domain.Status, 0, len(values))
	for _, v := range values {
		s := domain.Status(strings.ToUpper(strings.TrimSpace(v)))
		switch s {
		case domain.StatusMatch, domain.StatusMismatch, domain.StatusLocalOnly, domain.StatusRemoteOnly:
			statuses = append(statuses, s)
		default:
			return nil, apperrors.NewUserFacing(apperrors.CodeConfigValidation,
				fmt.Sprintf("unknown status %q", v), "Use one of: match, mismatch, local_only, remote_only.")
		}
	}
	return statuses, nil
}
