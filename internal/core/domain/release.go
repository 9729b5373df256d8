package domain

import (
	"fmt"
	"strings"
	"time"
)

// InvalidCommit is returned by ReleaseInfo.Commit when the description does
// not carry a recognisable commit reference.
const InvalidCommit = "invalid"

const (
	DescriptionDeploy  = "Deploy"
	DescriptionPromote = "Promote"
)

// ReleaseInfo is a read-only snapshot of one platform release.
type ReleaseInfo struct {
	Version     int
	Description string
	DeployedBy  string
	DeployedAt  time.Time
	Application string
}

// Commit extracts the commit hash from the release description:
//
//	"Deploy 75c70c5"               -> 75c70c5
//	"Promote my-app v123 75c70c5"  -> 75c70c5
//
// Any other description yields InvalidCommit.
func (r ReleaseInfo) Commit() string {
	parts := strings.Split(r.Description, " ")
	switch {
	case strings.HasPrefix(r.Description, DescriptionPromote):
		if len(parts) > 3 {
			return parts[3]
		}
	case strings.HasPrefix(r.Description, DescriptionDeploy):
		if len(parts) > 1 {
			return parts[1]
		}
	}
	return InvalidCommit
}

// HasValidCommit reports whether Commit returned a real hash.
func (r ReleaseInfo) HasValidCommit() bool {
	return r.Commit() != InvalidCommit
}

// IsDeployment reports whether the first word of the description marks a
// code deployment (as opposed to config changes, add-on attachments, ...).
func IsDeployment(description string) bool {
	first := strings.SplitN(description, " ", 2)[0]
	return first == DescriptionDeploy || first == DescriptionPromote
}

// TagName is the git tag applied for this release.
func (r ReleaseInfo) TagName() string {
	return fmt.Sprintf("%d", r.Version)
}

func (r ReleaseInfo) String() string {
	return fmt.Sprintf("Release %d [%s] of %s, deployed by %s at %s",
		r.Version, r.Commit(), r.Application, r.DeployedBy, r.DeployedAt.Format(time.RFC3339))
}
