package service_test

import (
	"context"
	stderrs "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/service"
	apperrors "github.com/olusolaa/heroku-tools/internal/errors"
	"github.com/olusolaa/heroku-tools/mocks"
)

func TestTaskRunner_RunAll(t *testing.T) {
	tasks := []domain.Task{
		{Kind: domain.TaskMigrate, Command: "migrate"},
		{Kind: domain.TaskPostDeploy, Command: "broken"},
		{Kind: domain.TaskPostDeploy, Command: "cleanup"},
	}

	t.Run("failures do not stop later tasks", func(t *testing.T) {
		runner := new(mocks.MockRemoteCommandRunner)
		runner.On("RunCommand", mock.Anything, "app", "migrate").Return(nil)
		runner.On("RunCommand", mock.Anything, "app", "broken").Return(stderrs.New("exit status 1"))
		runner.On("RunCommand", mock.Anything, "app", "cleanup").Return(nil)

		results := service.NewTaskRunner(runner, mocks.NewQuietDeployReporter(), mocks.NewTestLogger()).
			RunAll(context.Background(), "app", tasks)

		runner.AssertExpectations(t)
		require.Len(t, results, 3)
		assert.True(t, results[0].Succeeded())
		assert.False(t, results[1].Succeeded())
		assert.True(t, results[2].Succeeded())
		assert.Equal(t, tasks[1], domain.FailedTasks(results)[0].Task)

		err := service.TasksError(results)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeRemoteCommand, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), `1 of 3 post-deploy tasks failed: "broken"`)
	})

	t.Run("cancelled context skips remaining tasks", func(t *testing.T) {
		runner := new(mocks.MockRemoteCommandRunner)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results := service.NewTaskRunner(runner, mocks.NewQuietDeployReporter(), mocks.NewTestLogger()).
			RunAll(ctx, "app", tasks)

		require.Len(t, results, 3)
		for _, r := range results {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
		assert.Empty(t, runner.Calls)
	})

	t.Run("reporter failure is logged and tasks still run", func(t *testing.T) {
		runner := new(mocks.MockRemoteCommandRunner)
		runner.On("RunCommand", mock.Anything, "app", "migrate").Return(nil)

		reporter := new(mocks.MockDeployReporter)
		reporter.On("ReportStep", mock.Anything, mock.Anything).Return(stderrs.New("closed pipe"))

		logger := new(mocks.MockLogger)
		logger.On("Debugf", mock.Anything, mock.Anything, mock.Anything).Return()
		logger.On("Warnf", mock.Anything, "Failed to report step: %v", mock.Anything).Return()

		results := service.NewTaskRunner(runner, reporter, logger).
			RunAll(context.Background(), "app", tasks[:1])

		require.Len(t, results, 1)
		assert.True(t, results[0].Succeeded())
		runner.AssertExpectations(t)
		logger.AssertCalled(t, "Warnf", mock.Anything, "Failed to report step: %v", mock.Anything)
	})

	t.Run("no failures", func(t *testing.T) {
		assert.NoError(t, service.TasksError(nil))
		assert.NoError(t, service.TasksError([]domain.TaskResult{{Task: tasks[0]}}))
	})
}
