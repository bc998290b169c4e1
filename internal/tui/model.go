// Package tui is the terminal front-end for a single speech-to-image session.
package tui

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/alkime/speakimage/internal/session"
	"github.com/alkime/speakimage/internal/tui/components/labeledspinner"
	"github.com/alkime/speakimage/internal/tui/components/waveform"
	"github.com/alkime/speakimage/pkg/uictl"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of session.Controller the UI drives.
type Controller interface {
	State() session.State
	SubmitAudio(ctx context.Context, audio []byte) (session.State, error)
	RequestImage(ctx context.Context) (session.State, error)
	Reset() session.State
}

// Recording gives access to the PCM buffered since the microphone was
// switched on.
type Recording interface {
	Take() []byte
}

// Controls provides read/write access to recording hardware.
type Controls struct {
	Mic       uictl.Knob
	Size      uictl.CappedDial[int64]
	Levels    uictl.Levels[int16]
	Recording Recording
}

// Config holds what the model needs besides the hardware.
type Config struct {
	// Context is passed to controller calls.
	Context context.Context //nolint:containedctx // bubbletea commands take no context
	// Cancel, when set, is called on quit.
	Cancel context.CancelFunc
}

type activity int

const (
	idle activity = iota
	recording
	transcribing
	generating
)

// submittedMsg carries the result of SubmitAudio.
type submittedMsg struct {
	state session.State
	err   error
}

// generatedMsg carries the result of RequestImage.
type generatedMsg struct {
	state session.State
	err   error
}

// Model is the bubbletea model for one session.
type Model struct {
	ctrl     Controller
	controls Controls
	config   Config
	keys     KeyMap

	state    session.State
	activity activity
	notice   string
	err      error

	busy      labeledspinner.Model
	wave      waveform.Model
	stopwatch stopwatch.Model
	progress  progress.Model
}

// New creates the session model.
func New(ctrl Controller, controls Controls, config Config) Model {
	if config.Context == nil {
		config.Context = context.Background()
	}

	return Model{
		ctrl:      ctrl,
		controls:  controls,
		config:    config,
		keys:      DefaultKeyMap(),
		state:     ctrl.State(),
		activity:  idle,
		notice:    "",
		err:       nil,
		busy:      labeledspinner.New(spinner.Dot),
		wave:      waveform.New(controls.Levels, 60, 3),
		stopwatch: stopwatch.NewWithInterval(time.Second),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.busy.Init(),
		m.wave.Init(),
	)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case submittedMsg:
		if m.stale(transcribing, msg.err) {
			m.state = m.ctrl.State()
			return m, nil
		}
		m.activity = idle
		m.applyResult(msg.state, msg.err)
		if msg.err == nil {
			m.notice = "Transcript ready. Press g to generate your image."
		}
		return m, nil

	case generatedMsg:
		if m.stale(generating, msg.err) {
			m.state = m.ctrl.State()
			return m, nil
		}
		m.activity = idle
		m.applyResult(msg.state, msg.err)
		if msg.err == nil {
			m.notice = "Image saved as " + filepath.Base(msg.state.ImagePath)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.busy, cmd = m.busy.Update(msg)
		return m, cmd

	case waveform.TickMsg:
		var cmd tea.Cmd
		m.wave, cmd = m.wave.Update(msg)
		return m, cmd

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		var cmd tea.Cmd
		m.stopwatch, cmd = m.stopwatch.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model) //nolint:forcetypeassert // progress.Update always returns progress.Model
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(km tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(km, m.keys.ForceQuit), key.Matches(km, m.keys.Quit):
		m.stopMic()
		if m.config.Cancel != nil {
			m.config.Cancel()
		}
		return m, tea.Quit

	case key.Matches(km, m.keys.Record):
		return m.toggleRecording()

	case key.Matches(km, m.keys.Generate):
		if m.activity != idle || !m.state.CanRequestImage() {
			return m, nil
		}
		m.activity = generating
		m.err = nil
		m.notice = ""
		m.busy = m.busy.Start(labeledspinner.Generating)
		return m, m.generateCmd()

	case key.Matches(km, m.keys.StartOver):
		if m.activity == recording {
			m.stopMic()
			m.controls.Recording.Take()
		}
		m.activity = idle
		m.state = m.ctrl.Reset()
		m.err = nil
		m.notice = ""
		return m, m.stopwatch.Reset()
	}

	return m, nil
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	switch m.activity {
	case idle:
		if !m.state.CanSubmitAudio() {
			m.notice = "Audio already transcribed. Press n to start over."
			return m, nil
		}
		m.controls.Recording.Take()
		m.controls.Mic.On()
		if !m.controls.Mic.Read() {
			m.err = errors.New("microphone did not start")
			return m, nil
		}
		m.activity = recording
		m.err = nil
		m.notice = ""
		return m, tea.Batch(m.stopwatch.Reset(), m.stopwatch.Start())

	case recording:
		m.stopMic()
		pcm := m.controls.Recording.Take()
		m.activity = transcribing
		m.busy = m.busy.Start(labeledspinner.Transcribing)
		return m, tea.Batch(m.stopwatch.Stop(), m.submitCmd(pcm))

	case transcribing, generating:
	}

	return m, nil
}

func (m *Model) stopMic() {
	if m.controls.Mic.Read() {
		m.controls.Mic.Off()
	}
}

// stale reports whether a controller result belongs to a call that was
// overtaken by a start-over, so it must not touch the current activity.
func (m Model) stale(waiting activity, err error) bool {
	return errors.Is(err, session.ErrSessionReset) || m.activity != waiting
}

// applyResult records a controller outcome.
func (m *Model) applyResult(state session.State, err error) {
	switch {
	case err != nil:
		m.state = state
		m.err = err
	default:
		m.state = state
		m.err = nil
	}
}

func (m Model) submitCmd(pcm []byte) tea.Cmd {
	ctx, ctrl := m.config.Context, m.ctrl
	return func() tea.Msg {
		state, err := ctrl.SubmitAudio(ctx, pcm)
		return submittedMsg{state: state, err: err}
	}
}

func (m Model) generateCmd() tea.Cmd {
	ctx, ctrl := m.config.Context, m.ctrl
	return func() tea.Msg {
		state, err := ctrl.RequestImage(ctx)
		return generatedMsg{state: state, err: err}
	}
}

// State returns the last session state the model rendered.
func (m Model) State() session.State {
	return m.state
}
