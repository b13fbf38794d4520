// Package runner executes named maintenance sequences one step at a time with
// forward-looking progress reporting and cooperative cancellation. At most one
// sequence runs at a time; cancellation is polled at step boundaries only, so
// an in-flight external command is never interrupted mid-execution.
package runner
