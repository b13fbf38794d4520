package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/searchfix/search_scripts/internal/execshell"
	"github.com/searchfix/search_scripts/internal/ui"
)

const (
	testStartedEventCaseNameConstant   = "started_event"
	testCompletedEventCaseNameConstant = "completed_event"
	testFailedEventCaseNameConstant    = "failed_exit_event"
	testExecutionEventCaseNameConstant = "execution_failure_event"
)

func TestConsoleCommandEventLogger(testInstance *testing.T) {
	testCommand := execshell.ShellCommand{Text: "mdutil -s /"}

	testCases := []struct {
		name            string
		emitEvent       func(eventLogger *ui.ConsoleCommandEventLogger)
		expectedLevel   zap.AtomicLevel
		expectedMessage string
	}{
		{
			name: testStartedEventCaseNameConstant,
			emitEvent: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandStarted(testCommand)
			},
			expectedLevel:   zap.NewAtomicLevelAt(zap.InfoLevel),
			expectedMessage: "Running Spotlight index utility: mdutil -s /",
		},
		{
			name: testCompletedEventCaseNameConstant,
			emitEvent: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandCompleted(testCommand, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zap.NewAtomicLevelAt(zap.InfoLevel),
			expectedMessage: "Completed Spotlight index utility: mdutil -s /",
		},
		{
			name: testFailedEventCaseNameConstant,
			emitEvent: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandCompleted(testCommand, execshell.ExecutionResult{ExitCode: 1, StandardError: "unknown indexing state"})
			},
			expectedLevel:   zap.NewAtomicLevelAt(zap.WarnLevel),
			expectedMessage: "Spotlight index utility: mdutil -s / failed with exit code 1: unknown indexing state",
		},
		{
			name: testExecutionEventCaseNameConstant,
			emitEvent: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandExecutionFailed(testCommand, errors.New("executable file not found"))
			},
			expectedLevel:   zap.NewAtomicLevelAt(zap.ErrorLevel),
			expectedMessage: "Spotlight index utility: mdutil -s / failed: executable file not found",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zap.DebugLevel)
			eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

			testCase.emitEvent(eventLogger)

			loggedEntries := observedLogs.All()
			require.Len(testInstance, loggedEntries, 1)
			require.Equal(testInstance, testCase.expectedLevel.Level(), loggedEntries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, loggedEntries[0].Message)
		})
	}
}
