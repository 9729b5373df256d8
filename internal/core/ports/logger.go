package ports

import "context"

// Logger is the diagnostic channel shared by services and adapters.
// Errorf attaches the error code of an AppError to the record.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, err error, format string, args ...any)
	// WithFields scopes a logger to a command, stage or component.
	WithFields(fields map[string]any) Logger
}
