package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
)

// MockLogger is a mock implementation of ports.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debugf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Infof(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Warnf(ctx context.Context, format string, args ...any) {
	m.Called(ctx, format, args)
}

func (m *MockLogger) Errorf(ctx context.Context, err error, format string, args ...any) {
	m.Called(ctx, err, format, args)
}

func (m *MockLogger) WithFields(fields map[string]any) ports.Logger {
	args := m.Called(fields)
	return args.Get(0).(ports.Logger)
}

// NewTestLogger creates a MockLogger that accepts every call.
func NewTestLogger() *MockLogger {
	mockLogger := new(MockLogger)
	mockLogger.On("WithFields", mock.Anything).Return(mockLogger)
	mockLogger.On("Debugf", mock.Anything, mock.Anything, mock.Anything).Return()
	mockLogger.On("Infof", mock.Anything, mock.Anything, mock.Anything).Return()
	mockLogger.On("Warnf", mock.Anything, mock.Anything, mock.Anything).Return()
	mockLogger.On("Errorf", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	return mockLogger
}

// MockVersionControl is a mock implementation of ports.VersionControl
type MockVersionControl struct {
	mock.Mock
}

func (m *MockVersionControl) HeadCommit(ctx context.Context, branch string) (string, error) {
	args := m.Called(ctx, branch)
	return args.String(0), args.Error(1)
}

func (m *MockVersionControl) ChangedFiles(ctx context.Context, from, to string) ([]string, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVersionControl) CommitLog(ctx context.Context, from, to string) ([]domain.Commit, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Commit), args.Error(1)
}

func (m *MockVersionControl) Push(ctx context.Context, req ports.PushRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockVersionControl) ApplyAnnotatedTag(ctx context.Context, commit, tag, message string) error {
	return m.Called(ctx, commit, tag, message).Error(0)
}

// MockReleaseProvider is a mock implementation of ports.ReleaseProvider
type MockReleaseProvider struct {
	mock.Mock
}

func (m *MockReleaseProvider) LatestRelease(ctx context.Context, app string) (*domain.ReleaseInfo, error) {
	args := m.Called(ctx, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReleaseInfo), args.Error(1)
}

func (m *MockReleaseProvider) ConfigVars(ctx context.Context, app string) (map[string]string, error) {
	args := m.Called(ctx, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// MockRemoteCommandRunner is a mock implementation of ports.RemoteCommandRunner
type MockRemoteCommandRunner struct {
	mock.Mock
}

func (m *MockRemoteCommandRunner) RunCommand(ctx context.Context, app, command string) error {
	return m.Called(ctx, app, command).Error(0)
}

func (m *MockRemoteCommandRunner) ToggleMaintenance(ctx context.Context, app string, on bool) error {
	return m.Called(ctx, app, on).Error(0)
}

func (m *MockRemoteCommandRunner) Promote(ctx context.Context, app string) error {
	return m.Called(ctx, app).Error(0)
}

func (m *MockRemoteCommandRunner) SetConfigVars(ctx context.Context, app string, vars map[string]string) error {
	return m.Called(ctx, app, vars).Error(0)
}

// MockOperator is a mock implementation of ports.Operator
type MockOperator struct {
	mock.Mock
}

func (m *MockOperator) Confirm(ctx context.Context, question string, defaultAnswer bool) (bool, error) {
	args := m.Called(ctx, question, defaultAnswer)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperator) ConfirmWithToken(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperator) Ask(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

// MockNoteEditor is a mock implementation of ports.NoteEditor
type MockNoteEditor struct {
	mock.Mock
}

func (m *MockNoteEditor) Edit(ctx context.Context, seed string) (string, error) {
	args := m.Called(ctx, seed)
	return args.String(0), args.Error(1)
}

// MockApplicationLoader is a mock implementation of ports.ApplicationLoader
type MockApplicationLoader struct {
	mock.Mock
}

func (m *MockApplicationLoader) Load(ctx context.Context, path string) (*domain.AppConfiguration, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppConfiguration), args.Error(1)
}

// MockDiffReporter is a mock implementation of ports.DiffReporter
type MockDiffReporter struct {
	mock.Mock
}

func (m *MockDiffReporter) ReportDiff(ctx context.Context, app string, entries []domain.ConfigEntry, statuses ...domain.Status) error {
	return m.Called(ctx, app, entries, statuses).Error(0)
}

func (m *MockDiffReporter) ReportUpdates(ctx context.Context, app string, updates []domain.ConfigEntry) error {
	return m.Called(ctx, app, updates).Error(0)
}

// MockDeployReporter is a mock implementation of ports.DeployReporter
type MockDeployReporter struct {
	mock.Mock
}

func (m *MockDeployReporter) ReportChanges(ctx context.Context, changes *domain.ChangeSet) error {
	return m.Called(ctx, changes).Error(0)
}

func (m *MockDeployReporter) ReportPlan(ctx context.Context, plan *domain.DeployPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *MockDeployReporter) ReportStep(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockDeployReporter) ReportTasks(ctx context.Context, results []domain.TaskResult) error {
	return m.Called(ctx, results).Error(0)
}

func (m *MockDeployReporter) ReportRelease(ctx context.Context, release *domain.ReleaseInfo) error {
	return m.Called(ctx, release).Error(0)
}

// NewQuietDeployReporter creates a MockDeployReporter that accepts every call.
func NewQuietDeployReporter() *MockDeployReporter {
	r := new(MockDeployReporter)
	r.On("ReportChanges", mock.Anything, mock.Anything).Return(nil)
	r.On("ReportPlan", mock.Anything, mock.Anything).Return(nil)
	r.On("ReportStep", mock.Anything, mock.Anything).Return(nil)
	r.On("ReportTasks", mock.Anything, mock.Anything).Return(nil)
	r.On("ReportRelease", mock.Anything, mock.Anything).Return(nil)
	return r
}
