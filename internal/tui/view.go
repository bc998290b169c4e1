package tui

import (
	"fmt"
	"strings"

	"github.com/alkime/speakimage/internal/session"
	"github.com/alkime/speakimage/internal/tui/style"
	"github.com/alkime/speakimage/pkg/uictl"
	"github.com/charmbracelet/bubbles/key"
)

const transcriptWidth = 70

// View renders the current UI.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Speech to Image Generator"))
	sb.WriteString("\n")
	sb.WriteString(style.Subtitle.Render("Step: " + m.state.Step.String()))
	sb.WriteString("\n\n")

	switch m.activity {
	case recording:
		sb.WriteString(m.recordingView())
	case transcribing, generating:
		sb.WriteString(m.busy.View())
	case idle:
		if m.state.Step == session.StepAwaitingAudio && !m.state.HasTranscript() {
			sb.WriteString(welcomeView())
		}
	}
	sb.WriteString("\n")

	if m.state.HasTranscript() {
		sb.WriteString("\n")
		sb.WriteString(style.Label.Render("Transcript:"))
		sb.WriteString("\n")
		sb.WriteString(style.Viewport.Width(transcriptWidth).Render(m.state.Transcript))
		sb.WriteString("\n")
	}

	if m.state.HasImage() {
		sb.WriteString("\n")
		sb.WriteString(style.Label.Render("Saved: "))
		sb.WriteString(style.Muted.Render(m.state.ImagePath))
		sb.WriteString("\n")
	}

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(style.Error.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	} else if m.notice != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Success.Render(m.notice))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.helpView())

	return sb.String()
}

func welcomeView() string {
	var sb strings.Builder

	sb.WriteString(style.Label.Render("Welcome!"))
	sb.WriteString("\n")
	for i, line := range []string{
		"Press r to record your description, r again to stop",
		"Review the transcript",
		"Press g to generate your image",
	} {
		sb.WriteString(style.Bullet.Render(fmt.Sprintf("%d.", i+1)))
		sb.WriteString(" " + line + "\n")
	}

	return sb.String()
}

func (m Model) recordingView() string {
	var sb strings.Builder

	sb.WriteString(m.busy.Spinner.View() + " ")
	sb.WriteString(style.Title.Render("Recording") + " ")
	sb.WriteString(style.Subtitle.Render(m.stopwatch.View()))
	sb.WriteString("\n\n")
	sb.WriteString(m.wave.View())
	sb.WriteString("\n\n")

	if m.controls.Size != nil {
		current, limit := m.controls.Size.Cap()
		sb.WriteString(m.progress.ViewAs(uictl.Fraction(m.controls.Size)))
		sb.WriteString("\n")
		sb.WriteString(style.Subtitle.Render(formatBytes(current, limit)))
		sb.WriteString("\n")
	}

	return sb.String()
}

// helpView lists only the keys that do something in the current state.
func (m Model) helpView() string {
	var bindings []key.Binding

	switch m.activity {
	case recording:
		bindings = append(bindings, m.keys.Record, m.keys.StartOver)
	case transcribing, generating:
		bindings = append(bindings, m.keys.StartOver)
	case idle:
		if m.state.CanSubmitAudio() {
			bindings = append(bindings, m.keys.Record)
		}
		if m.state.CanRequestImage() {
			bindings = append(bindings, m.keys.Generate)
		}
		bindings = append(bindings, m.keys.StartOver)
	}
	bindings = append(bindings, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, style.Help.Render("[")+style.Key.Render(h.Key)+style.Help.Render("] "+h.Desc))
	}

	return strings.Join(parts, "  ")
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(current, maxBytes int64) string {
	currentMB := float64(current) / (1024 * 1024)
	maxMB := float64(maxBytes) / (1024 * 1024)

	if maxBytes == 0 {
		return fmt.Sprintf("%.1f MB / unlimited", currentMB)
	}

	percent := int(float64(current) / float64(maxBytes) * 100)

	return fmt.Sprintf("%.1f MB / %.1f MB (%d%%)", currentMB, maxMB, percent)
}
