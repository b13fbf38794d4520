package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	successMessageTemplateConstant          = "Completed %s"
	failureMessageTemplateConstant          = "%s failed with exit code %d%s"
	executionFailureMessageTemplateConstant = "%s failed: %s"
	elevatedCommandLabelTemplateConstant    = "elevated %s"
	describedCommandLabelTemplateConstant   = "%s: %s"
	standardErrorSuffixTemplateConstant     = ": %s"
	commandTokenSeparatorConstant           = " "
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
)

const (
	processCheckToolNameConstant     = "pgrep"
	spotlightUtilityToolNameConstant = "mdutil"
	launchdControlToolNameConstant   = "launchctl"
	preferencesToolNameConstant      = "defaults"
	appleScriptToolNameConstant      = "osascript"
	applicationOpenToolNameConstant  = "open"
	fileRemovalToolNameConstant      = "rm"
)

const (
	processCheckDescriptionConstant     = "process check"
	spotlightUtilityDescriptionConstant = "Spotlight index utility"
	launchdControlDescriptionConstant   = "launchd control"
	preferencesDescriptionConstant      = "preferences read"
	appleScriptDescriptionConstant      = "AppleScript"
	applicationOpenDescriptionConstant  = "application launch"
	fileRemovalDescriptionConstant      = "file removal"
)

var toolDescriptionMapping = map[string]string{
	processCheckToolNameConstant:     processCheckDescriptionConstant,
	spotlightUtilityToolNameConstant: spotlightUtilityDescriptionConstant,
	launchdControlToolNameConstant:   launchdControlDescriptionConstant,
	preferencesToolNameConstant:      preferencesDescriptionConstant,
	appleScriptToolNameConstant:      appleScriptDescriptionConstant,
	applicationOpenToolNameConstant:  applicationOpenDescriptionConstant,
	fileRemovalToolNameConstant:      fileRemovalDescriptionConstant,
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.FormatCommandLabel(command))
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(successMessageTemplateConstant, formatter.FormatCommandLabel(command))
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return fmt.Sprintf(
		failureMessageTemplateConstant,
		formatter.FormatCommandLabel(command),
		result.ExitCode,
		formatter.formatStandardErrorSuffix(result.StandardError),
	)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(executionFailureMessageTemplateConstant, formatter.FormatCommandLabel(command), failureMessage)
}

// FormatCommandLabel renders the command with its tool description and elevation marker.
func (formatter CommandMessageFormatter) FormatCommandLabel(command ShellCommand) string {
	commandLabel := strings.TrimSpace(command.Text)
	if toolDescription := formatter.describeTool(commandLabel); len(toolDescription) > 0 {
		commandLabel = fmt.Sprintf(describedCommandLabelTemplateConstant, toolDescription, commandLabel)
	}
	if command.Elevated {
		commandLabel = fmt.Sprintf(elevatedCommandLabelTemplateConstant, commandLabel)
	}
	return commandLabel
}

func (formatter CommandMessageFormatter) describeTool(commandText string) string {
	commandTokens := strings.SplitN(commandText, commandTokenSeparatorConstant, 2)
	if len(commandTokens) == 0 {
		return emptyStringConstant
	}
	return toolDescriptionMapping[commandTokens[0]]
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}
