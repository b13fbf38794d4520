// Package utils hosts shared infrastructure for the searchfix CLI: the zap
// logger factory, the viper-backed configuration loader, the flushing writer
// used for live terminal output, and the command context accessor.
package utils
