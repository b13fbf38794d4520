package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/searchfix/search_scripts/internal/auditlog"
	"github.com/searchfix/search_scripts/internal/execshell"
	"github.com/searchfix/search_scripts/internal/runner"
	"github.com/searchfix/search_scripts/internal/ui"
	"github.com/searchfix/search_scripts/internal/utils"
)

const (
	diagnoseCommandUseConstant              = "diagnose"
	diagnoseCommandShortDescriptionConstant = "Inspect the search index without changing anything"
	diagnoseCommandLongDescriptionConstant  = "diagnose checks the target application, the Spotlight service, the indexing flag, and the search feature mode, recording every probe in the audit log."
	repairCommandUseConstant                = "repair"
	repairCommandShortDescriptionConstant   = "Rebuild the search index"
	repairCommandLongDescriptionConstant    = "repair quits the target application, deletes its search index directory, forces a full reindex, restarts the Spotlight service, and relaunches the application. The destructive steps require administrator authorization."
	unexpectedArgumentsMessageConstant      = "this command does not accept positional arguments"
	flagAssumeYesNameConstant               = "yes"
	flagAssumeYesDescriptionConstant        = "Skip the confirmation prompt before deleting the search index"
	repairConfirmationPromptTemplate        = "Repair deletes the search index directory for %s. Proceed? [y/N]: "
	repairAbortedMessageConstant            = "Repair aborted."
	confirmationAffirmativeShortConstant    = "y"
	confirmationAffirmativeLongConstant     = "yes"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the resolved doctor configuration.
type ConfigurationProvider func() CommandConfiguration

// HumanReadableLoggingProvider reports whether console-formatted logging is active.
type HumanReadableLoggingProvider func() bool

// CommandBuilder assembles the Cobra commands for the diagnostic and repair runs.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	Executor                     CommandExecutor
}

// BuildDiagnoseCommand constructs the diagnose command.
func (builder *CommandBuilder) BuildDiagnoseCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   diagnoseCommandUseConstant,
		Short: diagnoseCommandShortDescriptionConstant,
		Long:  diagnoseCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) > 0 {
				return errUnexpectedArguments
			}
			return builder.runSequence(command, false, false)
		},
	}

	return command, nil
}

// BuildRepairCommand constructs the repair command.
func (builder *CommandBuilder) BuildRepairCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   repairCommandUseConstant,
		Short: repairCommandShortDescriptionConstant,
		Long:  repairCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) > 0 {
				return errUnexpectedArguments
			}
			assumeYes, _ := command.Flags().GetBool(flagAssumeYesNameConstant)
			return builder.runSequence(command, true, assumeYes)
		},
	}

	command.Flags().Bool(flagAssumeYesNameConstant, false, flagAssumeYesDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) runSequence(command *cobra.Command, repairRequested bool, assumeYes bool) error {
	configuration := builder.resolveConfiguration().WithDefaults()
	logger := builder.resolveLogger()

	auditLogPath, logPathError := configuration.ResolveLogFilePath()
	if logPathError != nil {
		return logPathError
	}

	executor, executorError := builder.resolveExecutor(logger, configuration, auditLogPath)
	if executorError != nil {
		return executorError
	}

	runState := runner.NewRunState()
	service, serviceError := NewService(logger, executor, runState, configuration, auditLogPath)
	if serviceError != nil {
		return serviceError
	}

	// The confirmation gate lives here, outside the runner: the destructive
	// sequence is never started without operator consent.
	if repairRequested && configuration.ConfirmBeforeDelete && !assumeYes {
		confirmed, confirmationError := promptForConfirmation(command, fmt.Sprintf(repairConfirmationPromptTemplate, configuration.ApplicationName))
		if confirmationError != nil {
			return confirmationError
		}
		if !confirmed {
			fmt.Fprintln(command.OutOrStdout(), repairAbortedMessageConstant)
			return nil
		}
	}

	stateUpdates := runState.Subscribe()
	progressRenderer := ui.NewProgressRenderer(utils.NewFlushingWriter(command.OutOrStdout()))

	runContext, stopObservers := context.WithCancel(command.Context())
	defer stopObservers()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChannel)

	executionGroup := new(errgroup.Group)
	executionGroup.Go(func() error {
		defer stopObservers()
		if repairRequested {
			return service.RunRepair(runContext)
		}
		return service.RunDiagnostic(runContext)
	})
	executionGroup.Go(func() error {
		progressRenderer.Render(runContext, stateUpdates)
		return nil
	})
	executionGroup.Go(func() error {
		select {
		case <-signalChannel:
			service.Cancel()
		case <-runContext.Done():
		}
		return nil
	})

	return executionGroup.Wait()
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger, configuration CommandConfiguration, auditLogPath string) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	auditRecorder, recorderError := auditlog.NewFileRecorder(auditLogPath)
	if recorderError != nil {
		return nil, recorderError
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), auditRecorder)
	if creationError != nil {
		return nil, creationError
	}

	shellExecutor.SetVerboseOutputLogging(configuration.VerboseLogging)
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		shellExecutor.SetCommandEventObserver(ui.NewConsoleCommandEventLogger(logger))
	}

	return shellExecutor, nil
}

func promptForConfirmation(command *cobra.Command, promptText string) (bool, error) {
	fmt.Fprint(command.OutOrStdout(), promptText)

	lineReader := bufio.NewReader(command.InOrStdin())
	responseLine, readError := lineReader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) {
		return false, readError
	}

	trimmedResponse := strings.ToLower(strings.TrimSpace(responseLine))
	return trimmedResponse == confirmationAffirmativeShortConstant || trimmedResponse == confirmationAffirmativeLongConstant, nil
}
