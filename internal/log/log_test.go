package log_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/internal/log"
)

func TestNewLoggerWithWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := log.NewLoggerWithWriter(log.Config{Level: log.LevelWarn, Format: log.FormatText}, &buf)
		require.NoError(t, err)

		logger.Infof(ctx, "hidden %d", 1)
		logger.Warnf(ctx, "shown %d", 2)

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown 2")
	})

	t.Run("json with fields and app error", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := log.NewLoggerWithWriter(log.Config{Level: log.LevelDebug, Format: log.FormatJSON}, &buf)
		require.NoError(t, err)

		appErr := errors.Wrap(fmt.Errorf("exit status 1"), errors.CodeRemoteCommand, "maintenance:on failed")
		logger.WithFields(map[string]any{"stage": "maintenance_on"}).Errorf(ctx, appErr, "stage failed")

		out := buf.String()
		assert.Contains(t, out, `"stage":"maintenance_on"`)
		assert.Contains(t, out, `"error_code":"REMOTE_COMMAND_ERROR"`)
		assert.Contains(t, out, `"error_wrapped":"exit status 1"`)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := log.NewLoggerWithWriter(log.Config{Level: "loud"}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := log.NewLoggerWithWriter(log.Config{Level: log.LevelInfo, Format: "xml"}, &bytes.Buffer{})
		require.Error(t, err)
	})
}
