package audio

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// MicSwitch exposes a Device as an on/off knob for the terminal UI.
// Device errors are logged; Read reports what the device says.
type MicSwitch struct {
	ctx    context.Context //nolint:containedctx // knob methods take no context
	dev    Device
	logger *slog.Logger
	failed atomic.Bool
}

// NewMicSwitch wraps dev. ctx is passed to Start and Stop.
func NewMicSwitch(ctx context.Context, dev Device, logger *slog.Logger) *MicSwitch {
	return &MicSwitch{ //nolint:exhaustruct // failed starts false
		ctx:    ctx,
		dev:    dev,
		logger: logger,
	}
}

func (m *MicSwitch) Read() bool {
	return m.dev.IsStarted()
}

func (m *MicSwitch) On() {
	if err := m.dev.Start(m.ctx); err != nil {
		m.failed.Store(true)
		m.logger.Error("failed to start microphone", "error", err)
	}
}

func (m *MicSwitch) Off() {
	if err := m.dev.Stop(m.ctx); err != nil {
		m.failed.Store(true)
		m.logger.Error("failed to stop microphone", "error", err)
	}
}

func (m *MicSwitch) Toggle() {
	if m.Read() {
		m.Off()
		return
	}
	m.On()
}

// Failed reports whether any start or stop call has failed.
func (m *MicSwitch) Failed() bool {
	return m.failed.Load()
}
