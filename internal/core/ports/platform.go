package ports

import (
	"context"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
)

// ReleaseProvider reads release and configuration data from the hosting platform.
type ReleaseProvider interface {
	// LatestRelease returns the most recent Deploy or Promote release of app.
	// It fails with CodeNoDeployableRelease when none is in the queried window.
	LatestRelease(ctx context.Context, app string) (*domain.ReleaseInfo, error)
	ConfigVars(ctx context.Context, app string) (map[string]string, error)
}

// RemoteCommandRunner performs actions against a running application.
// Every method fails with CodeRemoteCommand on a non-zero exit.
type RemoteCommandRunner interface {
	RunCommand(ctx context.Context, app, command string) error
	ToggleMaintenance(ctx context.Context, app string, on bool) error
	Promote(ctx context.Context, app string) error
	SetConfigVars(ctx context.Context, app string, vars map[string]string) error
}
