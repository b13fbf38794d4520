// Package execshell provides structured helpers for invoking external commands.
//
// It wraps /bin/sh invocations with zap logging, audit recording, and optional
// privilege escalation via osascript, exposes OSCommandRunner for default
// process execution, and defines the abstractions searchfix uses to run mdutil,
// launchctl, defaults, and related utilities in a testable manner.
package execshell
