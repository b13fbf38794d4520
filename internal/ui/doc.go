// Package ui renders run progress and command lifecycle events for the terminal.
package ui
