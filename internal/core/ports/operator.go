package ports

import (
	"context"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
)

// Operator is the interactive user at the terminal.
type Operator interface {
	Confirm(ctx context.Context, question string, defaultAnswer bool) (bool, error)
	// ConfirmWithToken prints a fresh random numeric token and reports
	// whether the operator typed it back exactly.
	ConfirmWithToken(ctx context.Context, prompt string) (bool, error)
	Ask(ctx context.Context, question string) (string, error)
}

// NoteEditor lets the operator edit a release note before it is used as a tag message.
type NoteEditor interface {
	Edit(ctx context.Context, seed string) (string, error)
}

// ApplicationLoader reads and validates an application configuration file.
type ApplicationLoader interface {
	Load(ctx context.Context, path string) (*domain.AppConfiguration, error)
}
