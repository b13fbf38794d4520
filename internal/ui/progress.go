package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/searchfix/search_scripts/internal/runner"
)

const (
	progressBarWidthConstant        = 24
	progressFilledCellConstant      = "█"
	progressEmptyCellConstant       = "░"
	progressLineTemplateConstant    = "\r%s %s %s"
	progressPercentTemplateConstant = "%3.0f%%"
	progressLineClearPaddingLength  = 16
	progressBarColorConstant        = "36"
	progressMessageColorConstant    = "252"
	progressPercentColorConstant    = "244"
	lineFeedConstant                = "\n"
	spaceConstant                   = " "
)

// ProgressRenderer draws a single updating progress line from run snapshots.
type ProgressRenderer struct {
	outputWriter io.Writer
	barStyle     lipgloss.Style
	percentStyle lipgloss.Style
	messageStyle lipgloss.Style
	lastLineLen  int
}

// NewProgressRenderer constructs a renderer writing to the provided writer.
func NewProgressRenderer(outputWriter io.Writer) *ProgressRenderer {
	return &ProgressRenderer{
		outputWriter: outputWriter,
		barStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color(progressBarColorConstant)),
		percentStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(progressPercentColorConstant)),
		messageStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(progressMessageColorConstant)),
	}
}

// Render consumes snapshots until the context is cancelled, then terminates
// the progress line. It drains any snapshot already queued before returning so
// the terminal shows the final message of a finished run.
func (renderer *ProgressRenderer) Render(renderContext context.Context, stateUpdates <-chan runner.RunSnapshot) {
	for {
		select {
		case snapshot := <-stateUpdates:
			renderer.renderSnapshot(snapshot)
		case <-renderContext.Done():
			renderer.drainPendingSnapshots(stateUpdates)
			fmt.Fprint(renderer.outputWriter, lineFeedConstant)
			return
		}
	}
}

func (renderer *ProgressRenderer) drainPendingSnapshots(stateUpdates <-chan runner.RunSnapshot) {
	for {
		select {
		case snapshot := <-stateUpdates:
			renderer.renderSnapshot(snapshot)
		default:
			return
		}
	}
}

func (renderer *ProgressRenderer) renderSnapshot(snapshot runner.RunSnapshot) {
	renderedLine := renderer.FormatSnapshot(snapshot)

	// Overwrite leftovers from a longer previous line.
	linePadding := renderer.lastLineLen - len(renderedLine)
	if linePadding < 0 {
		linePadding = 0
	}
	if linePadding > progressLineClearPaddingLength {
		linePadding = progressLineClearPaddingLength
	}

	fmt.Fprint(renderer.outputWriter, renderedLine+strings.Repeat(spaceConstant, linePadding))
	renderer.lastLineLen = len(renderedLine)
}

// FormatSnapshot renders one snapshot as a carriage-returned progress line.
func (renderer *ProgressRenderer) FormatSnapshot(snapshot runner.RunSnapshot) string {
	return fmt.Sprintf(
		progressLineTemplateConstant,
		renderer.barStyle.Render(buildProgressBar(snapshot.Fraction)),
		renderer.percentStyle.Render(fmt.Sprintf(progressPercentTemplateConstant, snapshot.Fraction*100)),
		renderer.messageStyle.Render(snapshot.Message),
	)
}

func buildProgressBar(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filledCellCount := int(fraction * float64(progressBarWidthConstant))
	return strings.Repeat(progressFilledCellConstant, filledCellCount) +
		strings.Repeat(progressEmptyCellConstant, progressBarWidthConstant-filledCellCount)
}
