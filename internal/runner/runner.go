package runner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	runnerLoggerRequiredMessageConstant   = "sequence runner requires a logger"
	runnerStateRequiredMessageConstant    = "sequence runner requires a run state"
	runInProgressMessageConstant          = "a run is already in progress"
	runCancelledMessageConstant           = "run cancelled"
	terminalRunMessageConstant            = "Run stopped before completion."
	startingMessageTemplateConstant       = "Starting %s"
	runStartedLogMessageConstant          = "run started"
	runRejectedLogMessageConstant         = "run request ignored while another run is active"
	runCompletedLogMessageConstant        = "run completed"
	runCancelledLogMessageConstant        = "run cancelled"
	runFailedLogMessageConstant           = "run failed"
	cancellationRequestedLogMessage       = "cancellation requested"
	cancellationIgnoredLogMessageConstant = "cancellation ignored while idle"
	stepStartedLogMessageConstant         = "step started"
	logFieldSequenceNameConstant          = "sequence_name"
	logFieldStepLabelConstant             = "step_label"
	logFieldStepFractionConstant          = "step_fraction"
)

// Sentinel errors surfaced by Run.
var (
	ErrLoggerNotConfigured   = errors.New(runnerLoggerRequiredMessageConstant)
	ErrRunStateNotConfigured = errors.New(runnerStateRequiredMessageConstant)
	ErrRunInProgress         = errors.New(runInProgressMessageConstant)
	ErrRunCancelled          = errors.New(runCancelledMessageConstant)
)

// PostRunHook runs after a sequence completes without failure or cancellation.
type PostRunHook func(executionContext context.Context)

// SequenceRunner executes sequences strictly in step order on the calling
// goroutine. Idle -> Running -> {Completed, Cancelled, Failed} -> Idle; the
// terminal outcome is Run's return value and the state always returns to idle.
type SequenceRunner struct {
	logger      *zap.Logger
	runState    *RunState
	postRunHook PostRunHook
}

// NewSequenceRunner constructs a runner bound to an explicit run state.
func NewSequenceRunner(logger *zap.Logger, runState *RunState) (*SequenceRunner, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runState == nil {
		return nil, ErrRunStateNotConfigured
	}
	return &SequenceRunner{logger: logger, runState: runState}, nil
}

// SetPostRunHook installs the hook invoked after successful completion.
func (sequenceRunner *SequenceRunner) SetPostRunHook(hook PostRunHook) {
	sequenceRunner.postRunHook = hook
}

// State exposes the observable run state for presentation-layer subscribers.
func (sequenceRunner *SequenceRunner) State() *RunState {
	return sequenceRunner.runState
}

// Run executes the sequence when idle and is a no-op while another run is
// active: no state change, no step execution, and no audit activity. The run
// returns nil on completion, ErrRunCancelled on a cooperative cancel, or the
// failing step's error; in every case the state is idle again before Run returns.
func (sequenceRunner *SequenceRunner) Run(executionContext context.Context, sequence Sequence) error {
	startMessage := fmt.Sprintf(startingMessageTemplateConstant, sequence.Name)
	if !sequenceRunner.runState.beginRun(startMessage) {
		sequenceRunner.logger.Debug(runRejectedLogMessageConstant, zap.String(logFieldSequenceNameConstant, sequence.Name))
		return ErrRunInProgress
	}
	defer sequenceRunner.runState.finishRun()

	sequenceRunner.logger.Info(runStartedLogMessageConstant, zap.String(logFieldSequenceNameConstant, sequence.Name))

	sequenceError := sequenceRunner.executeSteps(executionContext, sequence)
	switch {
	case sequenceError == nil:
		sequenceRunner.runState.publishMessage(sequence.CompletionMessage)
		sequenceRunner.logger.Info(runCompletedLogMessageConstant, zap.String(logFieldSequenceNameConstant, sequence.Name))
		if sequenceRunner.postRunHook != nil {
			sequenceRunner.postRunHook(executionContext)
		}
		return nil
	case errors.Is(sequenceError, ErrRunCancelled):
		sequenceRunner.runState.publishMessage(terminalRunMessageConstant)
		sequenceRunner.logger.Info(runCancelledLogMessageConstant, zap.String(logFieldSequenceNameConstant, sequence.Name))
		return ErrRunCancelled
	default:
		// A failed step and an operator cancel terminate with the same
		// operator-facing message; the audit log carries the distinction.
		sequenceRunner.runState.publishMessage(terminalRunMessageConstant)
		sequenceRunner.logger.Warn(
			runFailedLogMessageConstant,
			zap.String(logFieldSequenceNameConstant, sequence.Name),
			zap.Error(sequenceError),
		)
		return sequenceError
	}
}

// executeSteps walks the sequence in declared order. The cancel flag is polled
// before and after each action; progress is published before each action runs,
// making the fraction a forward-looking indicator of the step about to execute.
func (sequenceRunner *SequenceRunner) executeSteps(executionContext context.Context, sequence Sequence) error {
	for stepIndex := range sequence.Steps {
		step := sequence.Steps[stepIndex]

		if sequenceRunner.runState.cancelRequested() {
			return ErrRunCancelled
		}

		sequenceRunner.runState.publishProgress(step.Label, step.Fraction)
		sequenceRunner.logger.Info(
			stepStartedLogMessageConstant,
			zap.String(logFieldSequenceNameConstant, sequence.Name),
			zap.String(logFieldStepLabelConstant, step.Label),
			zap.Float64(logFieldStepFractionConstant, step.Fraction),
		)

		if actionError := step.Action(executionContext); actionError != nil {
			return actionError
		}

		if sequenceRunner.runState.cancelRequested() {
			return ErrRunCancelled
		}
	}

	return nil
}

// Cancel requests cooperative cancellation of the active run. The request is
// honored at the next step boundary; an idle runner ignores it.
func (sequenceRunner *SequenceRunner) Cancel() {
	if sequenceRunner.runState.requestCancel() {
		sequenceRunner.logger.Info(cancellationRequestedLogMessage)
		return
	}
	sequenceRunner.logger.Debug(cancellationIgnoredLogMessageConstant)
}
