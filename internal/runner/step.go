package runner

import "context"

// StepAction performs one step's work. Actions block until their external
// command returns; the runner suspends between actions only.
type StepAction func(executionContext context.Context) error

// Step is one labeled unit of work in a sequence. Fraction is the progress
// target published just before the action runs, so a sequence's fractions must
// be non-decreasing in declaration order.
type Step struct {
	Label    string
	Fraction float64
	Action   StepAction
}

// Sequence is a named, fixed, ordered list of steps with a completion message
// shown when every step finishes without failure or cancellation.
type Sequence struct {
	Name              string
	Steps             []Step
	CompletionMessage string
}
