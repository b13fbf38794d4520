package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/searchfix/search_scripts/internal/execshell"
	"github.com/searchfix/search_scripts/internal/runner"
)

const (
	diagnosticSequenceNameConstant      = "diagnostic"
	repairSequenceNameConstant          = "repair"
	diagnosticCompletionMessageConstant = "Diagnostic complete."
	repairCompletionMessageConstant     = "Repair complete."

	checkApplicationRunningLabelTemplate = "Checking whether %s is running"
	checkIndexServiceStatusLabelConstant = "Checking Spotlight service status"
	checkIndexingEnabledLabelConstant    = "Checking whether indexing is enabled"
	checkFeatureModeLabelConstant        = "Checking search feature mode"
	quitApplicationLabelTemplateConstant = "Quitting %s"
	deleteSearchIndexLabelConstant       = "Deleting the search index directory"
	forceReindexLabelConstant            = "Forcing a full reindex"
	restartIndexServiceLabelConstant     = "Restarting the Spotlight service"
	relaunchApplicationLabelTemplate     = "Relaunching %s"

	// Diagnostic probes tolerate negative answers: an app that is not running
	// or an unset preference key is data, not a failure.
	checkApplicationRunningCommandTemplate = `pgrep -x "%s" || true`
	checkIndexServiceStatusProbeConstant   = `launchctl print system/com.apple.metadata.mds || true`
	checkIndexingEnabledCommandConstant    = `mdutil -s /`
	checkFeatureModeCommandTemplateConst   = `defaults read %s SearchIndexingMode 2>/dev/null || true`
	quitApplicationCommandTemplateConstant = `osascript -e 'quit app "%s"' || true`
	checkIndexServiceStatusCommandConstant = `mdutil -s /`
	deleteSearchIndexCommandTemplateConst  = `rm -rf "%s"`
	forceReindexCommandConstant            = `mdutil -E /`
	restartIndexServiceCommandConstant     = `launchctl kickstart -k system/com.apple.metadata.mds`
	relaunchApplicationCommandTemplate     = `open -a "%s"`

	sequenceExecutorRequiredMessageConstant = "sequence builder requires a command executor"
)

// ErrExecutorNotConfigured indicates a SequenceBuilder was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(sequenceExecutorRequiredMessageConstant)

// CommandExecutor runs external commands on behalf of sequence steps.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// SequenceBuilder assembles the fixed diagnostic and repair sequences. Each
// step is one executor invocation with a fixed command template; only the
// application name, preferences domain, and file-system paths are templated in.
type SequenceBuilder struct {
	executor      CommandExecutor
	configuration CommandConfiguration
}

// NewSequenceBuilder constructs a builder around the provided executor.
func NewSequenceBuilder(executor CommandExecutor, configuration CommandConfiguration) (*SequenceBuilder, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &SequenceBuilder{executor: executor, configuration: configuration.WithDefaults()}, nil
}

// DiagnosticSequence returns the read-only diagnostic sequence.
func (builder *SequenceBuilder) DiagnosticSequence() runner.Sequence {
	applicationName := builder.configuration.ApplicationName
	return runner.Sequence{
		Name:              diagnosticSequenceNameConstant,
		CompletionMessage: diagnosticCompletionMessageConstant,
		Steps: []runner.Step{
			builder.commandStep(
				fmt.Sprintf(checkApplicationRunningLabelTemplate, applicationName),
				0.25,
				fmt.Sprintf(checkApplicationRunningCommandTemplate, applicationName),
				false,
			),
			builder.commandStep(checkIndexServiceStatusLabelConstant, 0.50, checkIndexServiceStatusProbeConstant, false),
			builder.commandStep(checkIndexingEnabledLabelConstant, 0.75, checkIndexingEnabledCommandConstant, false),
			builder.commandStep(
				checkFeatureModeLabelConstant,
				1.00,
				fmt.Sprintf(checkFeatureModeCommandTemplateConst, builder.configuration.PreferencesDomain),
				false,
			),
		},
	}
}

// RepairSequence returns the repair sequence with index paths anchored beneath
// the provided home directory. The destructive and service-control steps run elevated.
func (builder *SequenceBuilder) RepairSequence(homeDirectory string) runner.Sequence {
	applicationName := builder.configuration.ApplicationName
	searchIndexPath := builder.configuration.ResolveSearchIndexPath(homeDirectory)
	return runner.Sequence{
		Name:              repairSequenceNameConstant,
		CompletionMessage: repairCompletionMessageConstant,
		Steps: []runner.Step{
			builder.commandStep(
				fmt.Sprintf(quitApplicationLabelTemplateConstant, applicationName),
				0.20,
				fmt.Sprintf(quitApplicationCommandTemplateConstant, applicationName),
				false,
			),
			builder.commandStep(checkIndexServiceStatusLabelConstant, 0.35, checkIndexServiceStatusCommandConstant, false),
			builder.commandStep(
				deleteSearchIndexLabelConstant,
				0.55,
				fmt.Sprintf(deleteSearchIndexCommandTemplateConst, searchIndexPath),
				true,
			),
			builder.commandStep(forceReindexLabelConstant, 0.75, forceReindexCommandConstant, true),
			builder.commandStep(restartIndexServiceLabelConstant, 0.90, restartIndexServiceCommandConstant, true),
			builder.commandStep(
				fmt.Sprintf(relaunchApplicationLabelTemplate, applicationName),
				1.00,
				fmt.Sprintf(relaunchApplicationCommandTemplate, applicationName),
				false,
			),
		},
	}
}

func (builder *SequenceBuilder) commandStep(stepLabel string, progressFraction float64, commandText string, elevated bool) runner.Step {
	return runner.Step{
		Label:    stepLabel,
		Fraction: progressFraction,
		Action: func(executionContext context.Context) error {
			_, executionError := builder.executor.Execute(executionContext, execshell.ShellCommand{Text: commandText, Elevated: elevated})
			return executionError
		},
	}
}
