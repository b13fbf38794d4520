package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	shellExecutableNameConstant         = "/bin/sh"
	shellCommandFlagConstant            = "-c"
	osascriptExecutableNameConstant     = "osascript"
	osascriptExpressionFlagConstant     = "-e"
	elevatedScriptTemplateConstant      = `do shell script "%s" with administrator privileges`
	scriptBackslashEscapeTargetConstant = `\`
	scriptBackslashEscapeValueConstant  = `\\`
	scriptQuoteEscapeTargetConstant     = `"`
	scriptQuoteEscapeValueConstant      = `\"`
)

// OSCommandRunner executes shell commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command through /bin/sh, or through an osascript
// administrator-privileges wrapper when the command requests elevation.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executableName, executableArguments := buildInvocation(command)
	executable := exec.CommandContext(executionContext, executableName, executableArguments...)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

// buildInvocation maps a ShellCommand onto an executable name and argument list.
// Elevated commands are embedded in an AppleScript "do shell script" expression,
// which macOS executes after interactive administrator authorization.
func buildInvocation(command ShellCommand) (string, []string) {
	if !command.Elevated {
		return shellExecutableNameConstant, []string{shellCommandFlagConstant, command.Text}
	}

	elevatedExpression := fmt.Sprintf(elevatedScriptTemplateConstant, escapeScriptText(command.Text))
	return osascriptExecutableNameConstant, []string{osascriptExpressionFlagConstant, elevatedExpression}
}

// escapeScriptText escapes the command text for embedding inside an AppleScript
// double-quoted string literal. Quoting of arguments inside the command itself
// remains the caller's responsibility.
func escapeScriptText(commandText string) string {
	escapedText := strings.ReplaceAll(commandText, scriptBackslashEscapeTargetConstant, scriptBackslashEscapeValueConstant)
	return strings.ReplaceAll(escapedText, scriptQuoteEscapeTargetConstant, scriptQuoteEscapeValueConstant)
}
