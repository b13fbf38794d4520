package execshell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/searchfix/search_scripts/internal/auditlog"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor requires a logger"
	runnerNotConfiguredMessageConstant        = "shell executor requires a command runner"
	recorderNotConfiguredMessageConstant      = "shell executor requires an audit recorder"
	commandTextRequiredMessageConstant        = "shell command text must be non-empty"
	commandStartedLogMessageConstant          = "executing command"
	commandCompletedLogMessageConstant        = "command completed"
	commandFailedLogMessageConstant           = "command failed"
	commandExecutionFailedLogMessageConstant  = "command execution failed"
	commandOutputLogMessageConstant           = "command output"
	auditRecordFailedLogMessageConstant       = "unable to append audit record"
	logFieldCommandTextConstant               = "command_text"
	logFieldCommandElevatedConstant           = "elevated"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardOutputConstant            = "standard_output"
	combinedOutputStandardErrorSeparatorConst = "\n"
)

// Construction validation errors.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
	ErrAuditRecorderNotConfigured = errors.New(recorderNotConfiguredMessageConstant)
	ErrCommandTextRequired        = errors.New(commandTextRequiredMessageConstant)
)

// ShellCommand describes one external command invocation. The Text is passed to
// the shell verbatim; Elevated requests administrator privileges through the
// platform elevation mechanism. Values are immutable once constructed.
type ShellCommand struct {
	Text     string
	Elevated bool
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CombinedOutput joins captured standard output and standard error for audit records.
func (result ExecutionResult) CombinedOutput() string {
	trimmedStandardOutput := strings.TrimRight(result.StandardOutput, combinedOutputStandardErrorSeparatorConst)
	trimmedStandardError := strings.TrimSpace(result.StandardError)
	if len(trimmedStandardError) == 0 {
		return trimmedStandardOutput
	}
	if len(trimmedStandardOutput) == 0 {
		return trimmedStandardError
	}
	return trimmedStandardOutput + combinedOutputStandardErrorSeparatorConst + trimmedStandardError
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutor coordinates command execution, structured logging, and audit recording.
// Every Execute invocation appends exactly one audit record before returning,
// success or failure, so a partial run still leaves a durable trail.
type ShellExecutor struct {
	logger               *zap.Logger
	commandRunner        CommandRunner
	auditRecorder        auditlog.Recorder
	eventObserver        CommandEventObserver
	messageFormatter     CommandMessageFormatter
	verboseOutputLogging bool
}

// NewShellExecutor constructs an executor and validates its collaborators.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, auditRecorder auditlog.Recorder) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	if auditRecorder == nil {
		return nil, ErrAuditRecorderNotConfigured
	}

	return &ShellExecutor{
		logger:        logger,
		commandRunner: commandRunner,
		auditRecorder: auditRecorder,
		eventObserver: noopCommandEventObserver{},
	}, nil
}

// SetCommandEventObserver installs an observer receiving command lifecycle notifications.
func (executor *ShellExecutor) SetCommandEventObserver(observer CommandEventObserver) {
	if observer == nil {
		executor.eventObserver = noopCommandEventObserver{}
		return
	}
	executor.eventObserver = observer
}

// SetVerboseOutputLogging toggles debug logging of captured command output.
func (executor *ShellExecutor) SetVerboseOutputLogging(enabled bool) {
	executor.verboseOutputLogging = enabled
}

// Execute runs the command, records one audit entry, and maps the outcome onto
// typed errors. Non-zero exits surface as CommandFailedError; spawn or elevation
// failures surface as CommandExecutionError. Execution is never retried.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	trimmedCommandText := strings.TrimSpace(command.Text)
	if len(trimmedCommandText) == 0 {
		executor.recordFailure(executor.messageFormatter.BuildExecutionFailureMessage(command, ErrCommandTextRequired))
		return ExecutionResult{}, ErrCommandTextRequired
	}

	executor.logger.Info(
		commandStartedLogMessageConstant,
		zap.String(logFieldCommandTextConstant, command.Text),
		zap.Bool(logFieldCommandElevatedConstant, command.Elevated),
	)
	executor.eventObserver.CommandStarted(command)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		failureMessage := executor.messageFormatter.BuildExecutionFailureMessage(command, runError)
		executor.recordFailure(failureMessage)
		executor.eventObserver.CommandExecutionFailed(command, runError)
		executor.logger.Error(
			commandExecutionFailedLogMessageConstant,
			zap.String(logFieldCommandTextConstant, command.Text),
			zap.Error(runError),
		)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	if executionResult.ExitCode != 0 {
		failureMessage := executor.messageFormatter.BuildFailureMessage(command, executionResult)
		executor.recordFailure(failureMessage)
		executor.eventObserver.CommandCompleted(command, executionResult)
		executor.logger.Warn(
			commandFailedLogMessageConstant,
			zap.String(logFieldCommandTextConstant, command.Text),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.recordSuccess(command, executionResult)
	executor.eventObserver.CommandCompleted(command, executionResult)
	executor.logger.Info(
		commandCompletedLogMessageConstant,
		zap.String(logFieldCommandTextConstant, command.Text),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)
	if executor.verboseOutputLogging {
		executor.logger.Debug(
			commandOutputLogMessageConstant,
			zap.String(logFieldCommandTextConstant, command.Text),
			zap.String(logFieldStandardOutputConstant, executionResult.StandardOutput),
		)
	}

	return executionResult, nil
}

func (executor *ShellExecutor) recordSuccess(command ShellCommand, result ExecutionResult) {
	if recordError := executor.auditRecorder.RecordSuccess(command.Text, result.CombinedOutput()); recordError != nil {
		executor.logger.Warn(auditRecordFailedLogMessageConstant, zap.Error(recordError))
	}
}

func (executor *ShellExecutor) recordFailure(failureMessage string) {
	if recordError := executor.auditRecorder.RecordFailure(failureMessage); recordError != nil {
		executor.logger.Warn(auditRecordFailedLogMessageConstant, zap.Error(recordError))
	}
}
