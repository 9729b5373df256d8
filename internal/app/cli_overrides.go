package app

import (
	"context"
	"strings"

	"github.com/olusolaa/heroku-tools/internal/config"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
)

const (
	commandMigrate       = "migrate"
	commandCollectstatic = "collectstatic"
)

// parseCommandsOverride reads "migrate=...;collectstatic=..." into a map.
// Malformed pairs are skipped.
func parseCommandsOverride(override string) map[string]string {
	if override == "" {
		return nil
	}
	parsed := make(map[string]string)
	for _, pair := range strings.Split(override, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(parts[0]))
		command := strings.TrimSpace(parts[1])
		if name != "" && command != "" {
			parsed[name] = command
		}
	}
	if len(parsed) == 0 {
		return nil
	}
	return parsed
}

func applyCommandsOverride(ctx context.Context, cfg *config.Config, overrides map[string]string, logger ports.Logger) {
	for name, command := range overrides {
		switch name {
		case commandMigrate:
			cfg.Commands.Migrate = command
		case commandCollectstatic:
			cfg.Commands.Collectstatic = command
		default:
			logger.Warnf(ctx, "Ignoring override for unknown command '%s'", name)
			continue
		}
		logger.Debugf(ctx, "Overriding %s command with: %s", name, command)
	}
}
