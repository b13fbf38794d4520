package doctor_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/searchfix/search_scripts/internal/doctor"
	"github.com/searchfix/search_scripts/internal/execshell"
)

const (
	sequenceSubtestNameTemplateConstant     = "%d_%s"
	testApplicationNameConstant             = "Microsoft Outlook"
	testPreferencesDomainConstant           = "com.microsoft.Outlook"
	testHomeDirectoryConstant               = "/Users/fixture"
	testSearchIndexRelativePathConstant     = "Library/Group Containers/UBF8T346G9.Office/Outlook/Outlook 15 Profiles/Main Profile/Search"
	testDiagnosticSequenceNameConstant      = "diagnostic"
	testRepairSequenceNameConstant          = "repair"
	testDiagnosticCompletionMessageConstant = "Diagnostic complete."
	testRepairCompletionMessageConstant     = "Repair complete."
)

type recordedCommand struct {
	commandText string
	elevated    bool
}

type recordingCommandExecutor struct {
	recordMutex      sync.Mutex
	executedCommands []recordedCommand
	failingFragment  string
	failureError     error
}

func (executor *recordingCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.recordMutex.Lock()
	defer executor.recordMutex.Unlock()

	executor.executedCommands = append(executor.executedCommands, recordedCommand{commandText: command.Text, elevated: command.Elevated})
	if executor.failureError != nil && len(executor.failingFragment) > 0 && strings.Contains(command.Text, executor.failingFragment) {
		return execshell.ExecutionResult{ExitCode: 1}, executor.failureError
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *recordingCommandExecutor) recordedCommands() []recordedCommand {
	executor.recordMutex.Lock()
	defer executor.recordMutex.Unlock()

	duplicated := make([]recordedCommand, len(executor.executedCommands))
	copy(duplicated, executor.executedCommands)
	return duplicated
}

func TestNewSequenceBuilderValidation(testInstance *testing.T) {
	builder, builderError := doctor.NewSequenceBuilder(nil, doctor.DefaultConfiguration())
	require.ErrorIs(testInstance, builderError, doctor.ErrExecutorNotConfigured)
	require.Nil(testInstance, builder)
}

func TestDiagnosticSequenceDefinition(testInstance *testing.T) {
	executor := &recordingCommandExecutor{}
	builder, builderError := doctor.NewSequenceBuilder(executor, doctor.DefaultConfiguration())
	require.NoError(testInstance, builderError)

	sequence := builder.DiagnosticSequence()
	require.Equal(testInstance, testDiagnosticSequenceNameConstant, sequence.Name)
	require.Equal(testInstance, testDiagnosticCompletionMessageConstant, sequence.CompletionMessage)

	expectedSteps := []struct {
		label       string
		fraction    float64
		commandText string
		elevated    bool
	}{
		{
			label:       "Checking whether Microsoft Outlook is running",
			fraction:    0.25,
			commandText: `pgrep -x "Microsoft Outlook" || true`,
		},
		{
			label:       "Checking Spotlight service status",
			fraction:    0.50,
			commandText: `launchctl print system/com.apple.metadata.mds || true`,
		},
		{
			label:       "Checking whether indexing is enabled",
			fraction:    0.75,
			commandText: `mdutil -s /`,
		},
		{
			label:       "Checking search feature mode",
			fraction:    1.00,
			commandText: `defaults read com.microsoft.Outlook SearchIndexingMode 2>/dev/null || true`,
		},
	}

	require.Len(testInstance, sequence.Steps, len(expectedSteps))
	for stepIndex, expectedStep := range expectedSteps {
		testInstance.Run(fmt.Sprintf(sequenceSubtestNameTemplateConstant, stepIndex, expectedStep.label), func(testInstance *testing.T) {
			step := sequence.Steps[stepIndex]
			require.Equal(testInstance, expectedStep.label, step.Label)
			require.InDelta(testInstance, expectedStep.fraction, step.Fraction, 0.001)
			require.NoError(testInstance, step.Action(context.Background()))

			executedCommands := executor.recordedCommands()
			executedCommand := executedCommands[len(executedCommands)-1]
			require.Equal(testInstance, expectedStep.commandText, executedCommand.commandText)
			require.Equal(testInstance, expectedStep.elevated, executedCommand.elevated)
		})
	}
}

func TestRepairSequenceDefinition(testInstance *testing.T) {
	executor := &recordingCommandExecutor{}
	builder, builderError := doctor.NewSequenceBuilder(executor, doctor.DefaultConfiguration())
	require.NoError(testInstance, builderError)

	sequence := builder.RepairSequence(testHomeDirectoryConstant)
	require.Equal(testInstance, testRepairSequenceNameConstant, sequence.Name)
	require.Equal(testInstance, testRepairCompletionMessageConstant, sequence.CompletionMessage)

	resolvedSearchIndexPath := testHomeDirectoryConstant + "/" + testSearchIndexRelativePathConstant
	expectedSteps := []struct {
		label       string
		fraction    float64
		commandText string
		elevated    bool
	}{
		{
			label:       "Quitting Microsoft Outlook",
			fraction:    0.20,
			commandText: `osascript -e 'quit app "Microsoft Outlook"' || true`,
		},
		{
			label:       "Checking Spotlight service status",
			fraction:    0.35,
			commandText: `mdutil -s /`,
		},
		{
			label:       "Deleting the search index directory",
			fraction:    0.55,
			commandText: fmt.Sprintf(`rm -rf "%s"`, resolvedSearchIndexPath),
			elevated:    true,
		},
		{
			label:       "Forcing a full reindex",
			fraction:    0.75,
			commandText: `mdutil -E /`,
			elevated:    true,
		},
		{
			label:       "Restarting the Spotlight service",
			fraction:    0.90,
			commandText: `launchctl kickstart -k system/com.apple.metadata.mds`,
			elevated:    true,
		},
		{
			label:       "Relaunching Microsoft Outlook",
			fraction:    1.00,
			commandText: `open -a "Microsoft Outlook"`,
		},
	}

	require.Len(testInstance, sequence.Steps, len(expectedSteps))
	for stepIndex, expectedStep := range expectedSteps {
		testInstance.Run(fmt.Sprintf(sequenceSubtestNameTemplateConstant, stepIndex, expectedStep.label), func(testInstance *testing.T) {
			step := sequence.Steps[stepIndex]
			require.Equal(testInstance, expectedStep.label, step.Label)
			require.InDelta(testInstance, expectedStep.fraction, step.Fraction, 0.001)
			require.NoError(testInstance, step.Action(context.Background()))

			executedCommands := executor.recordedCommands()
			executedCommand := executedCommands[len(executedCommands)-1]
			require.Equal(testInstance, expectedStep.commandText, executedCommand.commandText)
			require.Equal(testInstance, expectedStep.elevated, executedCommand.elevated)
		})
	}
}

func TestRepairSequenceHonorsAbsoluteSearchIndexPath(testInstance *testing.T) {
	executor := &recordingCommandExecutor{}
	configuration := doctor.DefaultConfiguration()
	configuration.SearchIndexPath = "/Volumes/Data/Search"
	builder, builderError := doctor.NewSequenceBuilder(executor, configuration)
	require.NoError(testInstance, builderError)

	sequence := builder.RepairSequence(testHomeDirectoryConstant)
	deleteStep := sequence.Steps[2]
	require.NoError(testInstance, deleteStep.Action(context.Background()))

	executedCommands := executor.recordedCommands()
	require.Equal(testInstance, `rm -rf "/Volumes/Data/Search"`, executedCommands[len(executedCommands)-1].commandText)
}
