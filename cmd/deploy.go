package main

import (
	"github.com/spf13/cobra"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
)

var deployReq domain.DeployRequest

var deployCmd = &cobra.Command{
	Use:   "deploy <environment>",
	Short: "Deploy the application configured for an environment.",
	Long: `Deploy the application configured in <environment>.conf.

The deployment runs these steps in order:

  1. load the application configuration
  2. compare the live release commit with the commit to deploy
  3. list the changed files and commits
  4. decide on migrations, collectstatic and the maintenance page
  5. print a summary and ask for a confirmation code
  6. push to the git remote (or promote the upstream app)
  7. run the post-deploy commands
  8. tag the release in git

An application that is already up to date is left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		req := deployReq
		req.Environment = args[0]
		_, err = application.Deploy(cmd.Context(), req)
		return err
	},
}

func init() {
	f := deployCmd.Flags()
	f.StringVarP(&deployReq.ConfigFile, "config-file", "c", "", configDescription)
	f.StringVarP(&deployReq.Branch, "branch", "b", "", "Git branch to deploy (default is the configured branch)")
	f.BoolVarP(&deployReq.Force, "force", "f", false, "Force push to the git remote")
	f.BoolVarP(&deployReq.Migrate, "migrate", "m", false, "Run migrations without asking")
	f.BoolVarP(&deployReq.Static, "static", "s", false, "Run collectstatic without asking")
	f.BoolVar(&deployReq.Maintenance, "maintenance", false, "Put up the maintenance page without asking")
	f.BoolVar(&deployReq.Auto, "auto", false, "Answer every question with the detected default")
	f.BoolVar(&deployReq.RichTag, "rich-tag", false, "Edit the release note of the git tag")
}
