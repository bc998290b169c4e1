// Package labeledspinner renders the waiting screen shown while the session
// controller is busy with a slow upstream call.
package labeledspinner

import (
	"strings"

	"github.com/alkime/speakimage/internal/tui/style"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Phase is the controller call being waited on.
type Phase int

const (
	// Idle shows nothing.
	Idle Phase = iota
	// Transcribing waits on the speech-to-text call.
	Transcribing
	// Generating waits on the image model.
	Generating
)

type labels struct {
	title    string
	subtitle string
	help     string
}

var phaseLabels = map[Phase]labels{
	Transcribing: {
		title:    "Transcribing audio...",
		subtitle: "Sending to Whisper API",
		help:     "This may take a moment depending on audio length",
	},
	Generating: {
		title:    "Creating your image...",
		subtitle: "Sending the transcript to the image model",
		help:     "This can take up to a minute",
	},
}

// Model is a spinner labelled for the current Phase.
type Model struct {
	Spinner spinner.Model
	phase   Phase
}

// New creates an idle spinner using the given frames.
func New(s spinner.Spinner) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner: sp,
		phase:   Idle,
	}
}

// Start switches the labels to phase.
func (ls Model) Start(phase Phase) Model {
	ls.phase = phase
	return ls
}

// Phase returns the phase being shown.
func (ls Model) Phase() Phase {
	return ls.phase
}

// Init returns the initial command for the spinner.
func (ls Model) Init() tea.Cmd {
	return ls.Spinner.Tick
}

// Update handles spinner tick messages.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		ls.Spinner, cmd = ls.Spinner.Update(tickMsg)

		return ls, cmd
	}

	return ls, nil
}

// View renders the spinner with the phase's title, subtitle and help line.
// An idle spinner renders as an empty string.
func (ls Model) View() string {
	l, ok := phaseLabels[ls.phase]
	if !ok {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(ls.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(l.title))
	sb.WriteString("\n\n")
	sb.WriteString(style.Subtitle.Render(l.subtitle))
	sb.WriteString("\n\n")
	sb.WriteString(style.Help.Render(l.help))

	return sb.String()
}
