// Package waveform draws a scrolling input level meter for the microphone.
package waveform

import (
	"math"
	"strings"
	"time"

	"github.com/alkime/speakimage/internal/tui/style"
	"github.com/alkime/speakimage/pkg/uictl"
	tea "github.com/charmbracelet/bubbletea"
)

// Eighth-block glyphs, index 0 is blank and 8 is a full cell.
var blocks = []rune(" ▁▂▃▄▅▆▇█")

const (
	frameInterval = 50 * time.Millisecond
	fullScale     = 32767.0
)

// TickMsg triggers a redraw.
type TickMsg struct{}

// Model renders the most recent samples as columns of bars, oldest on the
// left. Each column shows the RMS of its bucket on a square-root scale so
// quiet speech is still visible.
type Model struct {
	levels uictl.Levels[int16]
	width  int
	height int
}

// New creates a meter width columns wide and height rows tall.
func New(levels uictl.Levels[int16], width, height int) Model {
	return Model{
		levels: levels,
		width:  max(width, 1),
		height: max(height, 1),
	}
}

// Init starts the redraw ticker.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update keeps the redraw ticker running.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, m.tick()
	}

	return m, nil
}

// View renders the meter.
func (m Model) View() string {
	var samples []int16
	if m.levels != nil {
		samples = m.levels.Read()
	}

	if len(samples) == 0 {
		return m.baseline()
	}

	heights := m.columnHeights(samples)

	rows := make([]string, m.height)
	for row := range m.height {
		floor := (m.height - 1 - row) * 8

		var sb strings.Builder
		for _, h := range heights {
			fill := min(max(h-floor, 0), 8)
			sb.WriteRune(blocks[fill])
		}
		rows[row] = style.Progress.Render(sb.String())
	}

	return strings.Join(rows, "\n")
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// columnHeights returns a bar height in eighths (0..height*8) per column.
func (m Model) columnHeights(samples []int16) []int {
	heights := make([]int, m.width)
	bucket := max(1, len(samples)/m.width)
	top := float64(m.height * 8)

	for col := range m.width {
		start := col * bucket
		if start >= len(samples) {
			break
		}
		end := min(start+bucket, len(samples))

		level := math.Sqrt(rms(samples[start:end]) / fullScale)
		heights[col] = min(int(level*top), int(top))
	}

	return heights
}

func (m Model) baseline() string {
	rows := make([]string, m.height)
	for row := range m.height {
		glyph := " "
		if row == m.height-1 {
			glyph = "▁"
		}
		rows[row] = style.Muted.Render(strings.Repeat(glyph, m.width))
	}

	return strings.Join(rows, "\n")
}

func rms(samples []int16) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	return math.Min(math.Sqrt(sum/float64(len(samples))), fullScale)
}
