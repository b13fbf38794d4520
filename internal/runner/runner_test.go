package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/searchfix/search_scripts/internal/runner"
)

const (
	testSequenceNameConstant          = "diagnostic"
	testCompletionMessageConstant     = "Diagnostic complete."
	testTerminalMessageConstant       = "Run stopped before completion."
	testFirstStepLabelConstant        = "check app running"
	testSecondStepLabelConstant       = "check index service status"
	testThirdStepLabelConstant        = "check indexing-enabled flag"
	testCompletedCaseNameConstant     = "completed_run"
	testFailureCaseNameConstant       = "failing_step_stops_run"
	testCancelBetweenCaseNameConstant = "cancel_between_steps"
	testIdleCancelCaseNameConstant    = "cancel_while_idle_has_no_effect"
)

func TestMain(testMain *testing.M) {
	goleak.VerifyTestMain(testMain)
}

func newTestRunner(testInstance *testing.T) (*runner.SequenceRunner, *runner.RunState) {
	testInstance.Helper()
	runState := runner.NewRunState()
	sequenceRunner, creationError := runner.NewSequenceRunner(zap.NewNop(), runState)
	require.NoError(testInstance, creationError)
	return sequenceRunner, runState
}

func TestSequenceRunnerInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		logger      *zap.Logger
		runState    *runner.RunState
		expectError error
	}{
		{name: "logger_validation", logger: nil, runState: runner.NewRunState(), expectError: runner.ErrLoggerNotConfigured},
		{name: "state_validation", logger: zap.NewNop(), runState: nil, expectError: runner.ErrRunStateNotConfigured},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			sequenceRunner, creationError := runner.NewSequenceRunner(testCase.logger, testCase.runState)
			require.Nil(testInstance, sequenceRunner)
			require.ErrorIs(testInstance, creationError, testCase.expectError)
		})
	}
}

func TestSequenceRunnerExecutesStepsInOrderWithForwardProgress(testInstance *testing.T) {
	testInstance.Run(testCompletedCaseNameConstant, func(testInstance *testing.T) {
		sequenceRunner, runState := newTestRunner(testInstance)

		executedLabels := make([]string, 0, 3)
		observedFractions := make([]float64, 0, 3)
		recordingAction := func(stepLabel string) runner.StepAction {
			return func(context.Context) error {
				// Progress is published before the action runs, so the
				// snapshot inside the action reflects this step already.
				snapshot := runState.Snapshot()
				executedLabels = append(executedLabels, stepLabel)
				observedFractions = append(observedFractions, snapshot.Fraction)
				require.Equal(testInstance, stepLabel, snapshot.Message)
				require.True(testInstance, snapshot.Running)
				return nil
			}
		}

		hookInvocations := 0
		sequenceRunner.SetPostRunHook(func(context.Context) {
			hookInvocations++
			require.Equal(testInstance, testCompletionMessageConstant, runState.Snapshot().Message)
		})

		sequence := runner.Sequence{
			Name:              testSequenceNameConstant,
			CompletionMessage: testCompletionMessageConstant,
			Steps: []runner.Step{
				{Label: testFirstStepLabelConstant, Fraction: 0.25, Action: recordingAction(testFirstStepLabelConstant)},
				{Label: testSecondStepLabelConstant, Fraction: 0.50, Action: recordingAction(testSecondStepLabelConstant)},
				{Label: testThirdStepLabelConstant, Fraction: 1.00, Action: recordingAction(testThirdStepLabelConstant)},
			},
		}

		require.NoError(testInstance, sequenceRunner.Run(context.Background(), sequence))

		require.Equal(testInstance, []string{testFirstStepLabelConstant, testSecondStepLabelConstant, testThirdStepLabelConstant}, executedLabels)
		require.Equal(testInstance, []float64{0.25, 0.50, 1.00}, observedFractions)
		require.Equal(testInstance, 1, hookInvocations)

		finalSnapshot := runState.Snapshot()
		require.False(testInstance, finalSnapshot.Running)
		require.Equal(testInstance, testCompletionMessageConstant, finalSnapshot.Message)
		require.Equal(testInstance, 1.00, finalSnapshot.Fraction)
	})
}

func TestSequenceRunnerStopsOnStepFailure(testInstance *testing.T) {
	testInstance.Run(testFailureCaseNameConstant, func(testInstance *testing.T) {
		sequenceRunner, runState := newTestRunner(testInstance)

		stepError := errors.New("elevation denied")
		executedSteps := 0
		hookInvocations := 0
		sequenceRunner.SetPostRunHook(func(context.Context) { hookInvocations++ })

		sequence := runner.Sequence{
			Name:              testSequenceNameConstant,
			CompletionMessage: testCompletionMessageConstant,
			Steps: []runner.Step{
				{Label: testFirstStepLabelConstant, Fraction: 0.25, Action: func(context.Context) error { executedSteps++; return nil }},
				{Label: testSecondStepLabelConstant, Fraction: 0.50, Action: func(context.Context) error { executedSteps++; return stepError }},
				{Label: testThirdStepLabelConstant, Fraction: 1.00, Action: func(context.Context) error { executedSteps++; return nil }},
			},
		}

		runError := sequenceRunner.Run(context.Background(), sequence)
		require.ErrorIs(testInstance, runError, stepError)
		require.Equal(testInstance, 2, executedSteps)
		require.Zero(testInstance, hookInvocations)

		finalSnapshot := runState.Snapshot()
		require.False(testInstance, finalSnapshot.Running)
		require.Equal(testInstance, testTerminalMessageConstant, finalSnapshot.Message)
	})
}

func TestSequenceRunnerCancellationBetweenSteps(testInstance *testing.T) {
	testInstance.Run(testCancelBetweenCaseNameConstant, func(testInstance *testing.T) {
		sequenceRunner, runState := newTestRunner(testInstance)

		executedSteps := 0
		sequence := runner.Sequence{
			Name:              testSequenceNameConstant,
			CompletionMessage: testCompletionMessageConstant,
			Steps: []runner.Step{
				{Label: testFirstStepLabelConstant, Fraction: 0.25, Action: func(context.Context) error { executedSteps++; return nil }},
				{
					Label:    testSecondStepLabelConstant,
					Fraction: 0.50,
					Action: func(context.Context) error {
						executedSteps++
						sequenceRunner.Cancel()
						return nil
					},
				},
				{Label: testThirdStepLabelConstant, Fraction: 1.00, Action: func(context.Context) error { executedSteps++; return nil }},
			},
		}

		runError := sequenceRunner.Run(context.Background(), sequence)
		require.ErrorIs(testInstance, runError, runner.ErrRunCancelled)
		require.Equal(testInstance, 2, executedSteps)

		finalSnapshot := runState.Snapshot()
		require.False(testInstance, finalSnapshot.Running)
		require.Equal(testInstance, testTerminalMessageConstant, finalSnapshot.Message)
	})
}

func TestSequenceRunnerRejectsConcurrentRuns(testInstance *testing.T) {
	sequenceRunner, _ := newTestRunner(testInstance)

	firstStepStarted := make(chan struct{})
	releaseFirstStep := make(chan struct{})
	firstRunErrors := make(chan error, 1)

	blockingSequence := runner.Sequence{
		Name:              testSequenceNameConstant,
		CompletionMessage: testCompletionMessageConstant,
		Steps: []runner.Step{
			{
				Label:    testFirstStepLabelConstant,
				Fraction: 1.00,
				Action: func(context.Context) error {
					close(firstStepStarted)
					<-releaseFirstStep
					return nil
				},
			},
		},
	}

	go func() {
		firstRunErrors <- sequenceRunner.Run(context.Background(), blockingSequence)
	}()
	<-firstStepStarted

	competingStepExecutions := 0
	competingSequence := runner.Sequence{
		Name:              testSequenceNameConstant,
		CompletionMessage: testCompletionMessageConstant,
		Steps: []runner.Step{
			{Label: testSecondStepLabelConstant, Fraction: 1.00, Action: func(context.Context) error { competingStepExecutions++; return nil }},
		},
	}

	competingRunError := sequenceRunner.Run(context.Background(), competingSequence)
	require.ErrorIs(testInstance, competingRunError, runner.ErrRunInProgress)
	require.Zero(testInstance, competingStepExecutions)

	close(releaseFirstStep)
	require.NoError(testInstance, <-firstRunErrors)
	require.False(testInstance, sequenceRunner.State().Snapshot().Running)
}

func TestSequenceRunnerIgnoresIdleCancellation(testInstance *testing.T) {
	testInstance.Run(testIdleCancelCaseNameConstant, func(testInstance *testing.T) {
		sequenceRunner, runState := newTestRunner(testInstance)

		// A stale cancel before any run starts must not poison the next run.
		sequenceRunner.Cancel()
		require.False(testInstance, runState.Snapshot().Cancelled)

		executedSteps := 0
		sequence := runner.Sequence{
			Name:              testSequenceNameConstant,
			CompletionMessage: testCompletionMessageConstant,
			Steps: []runner.Step{
				{Label: testFirstStepLabelConstant, Fraction: 1.00, Action: func(context.Context) error { executedSteps++; return nil }},
			},
		}

		require.NoError(testInstance, sequenceRunner.Run(context.Background(), sequence))
		require.Equal(testInstance, 1, executedSteps)
	})
}
