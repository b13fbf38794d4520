// Package doctor diagnoses and repairs a stuck Outlook/Spotlight search index.
//
// It defines the two fixed maintenance sequences (diagnostic and repair) as
// ordered steps over the shell executor, the service coordinating them through
// the sequence runner, and the Cobra command builders exposing them on the CLI.
package doctor
