package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/searchfix/search_scripts/internal/execshell"
	"github.com/searchfix/search_scripts/internal/runner"
)

const (
	serviceLoggerRequiredMessageConstant   = "doctor service requires a logger"
	serviceExecutorRequiredMessageConstant = "doctor service requires a command executor"
	serviceRunStateRequiredMessageConstant = "doctor service requires a run state"
	homeDirectoryErrorTemplateConstant     = "unable to resolve home directory: %w"
	openLogCommandTemplateConstant         = `open "%s"`
	openLogFailedLogMessageConstant        = "unable to open audit log"
	postRunHookSkippedLogMessageConstant   = "auto-open of the audit log disabled"
	logFieldAuditLogPathConstant           = "audit_log_path"
	diagnosticRunErrorTemplateConstant     = "diagnostic run failed: %w"
	repairRunErrorTemplateConstant         = "repair run failed: %w"
)

// Service construction validation errors.
var (
	ErrServiceLoggerNotConfigured   = errors.New(serviceLoggerRequiredMessageConstant)
	ErrServiceExecutorNotConfigured = errors.New(serviceExecutorRequiredMessageConstant)
	ErrServiceRunStateNotConfigured = errors.New(serviceRunStateRequiredMessageConstant)
)

// Service coordinates the diagnostic and repair sequences over a shared run
// state. At most one sequence runs at a time; a run request while another run
// is active is a no-op surfaced as runner.ErrRunInProgress.
type Service struct {
	logger          *zap.Logger
	executor        CommandExecutor
	sequenceBuilder *SequenceBuilder
	sequenceRunner  *runner.SequenceRunner
	configuration   CommandConfiguration
	auditLogPath    string
}

// NewService wires the sequence builder and runner around an explicit run state.
func NewService(logger *zap.Logger, executor CommandExecutor, runState *runner.RunState, configuration CommandConfiguration, auditLogPath string) (*Service, error) {
	if logger == nil {
		return nil, ErrServiceLoggerNotConfigured
	}
	if executor == nil {
		return nil, ErrServiceExecutorNotConfigured
	}
	if runState == nil {
		return nil, ErrServiceRunStateNotConfigured
	}

	sequenceBuilder, builderError := NewSequenceBuilder(executor, configuration)
	if builderError != nil {
		return nil, builderError
	}

	sequenceRunner, runnerError := runner.NewSequenceRunner(logger, runState)
	if runnerError != nil {
		return nil, runnerError
	}

	service := &Service{
		logger:          logger,
		executor:        executor,
		sequenceBuilder: sequenceBuilder,
		sequenceRunner:  sequenceRunner,
		configuration:   configuration.WithDefaults(),
		auditLogPath:    auditLogPath,
	}
	sequenceRunner.SetPostRunHook(service.openAuditLogIfConfigured)

	return service, nil
}

// State exposes the observable run state for presentation-layer subscribers.
func (service *Service) State() *runner.RunState {
	return service.sequenceRunner.State()
}

// RunDiagnostic executes the diagnostic sequence.
func (service *Service) RunDiagnostic(executionContext context.Context) error {
	runError := service.sequenceRunner.Run(executionContext, service.sequenceBuilder.DiagnosticSequence())
	if runError != nil {
		return fmt.Errorf(diagnosticRunErrorTemplateConstant, runError)
	}
	return nil
}

// RunRepair executes the repair sequence with paths anchored beneath the home directory.
func (service *Service) RunRepair(executionContext context.Context) error {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return fmt.Errorf(homeDirectoryErrorTemplateConstant, homeError)
	}

	runError := service.sequenceRunner.Run(executionContext, service.sequenceBuilder.RepairSequence(homeDirectory))
	if runError != nil {
		return fmt.Errorf(repairRunErrorTemplateConstant, runError)
	}
	return nil
}

// Cancel requests cooperative cancellation of the active run. The request is
// honored at the next step boundary.
func (service *Service) Cancel() {
	service.sequenceRunner.Cancel()
}

// openAuditLogIfConfigured is the post-run hook: a completed run opens the
// audit log with the OS default viewer when auto_open_log is set. The open
// goes through the executor, so it is audited like any other command.
func (service *Service) openAuditLogIfConfigured(executionContext context.Context) {
	if !service.configuration.AutoOpenLog {
		service.logger.Debug(postRunHookSkippedLogMessageConstant)
		return
	}

	openCommand := execshell.ShellCommand{Text: fmt.Sprintf(openLogCommandTemplateConstant, service.auditLogPath)}
	if _, openError := service.executor.Execute(executionContext, openCommand); openError != nil {
		service.logger.Warn(
			openLogFailedLogMessageConstant,
			zap.String(logFieldAuditLogPathConstant, service.auditLogPath),
			zap.Error(openError),
		)
	}
}
