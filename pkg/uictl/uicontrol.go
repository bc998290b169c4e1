// Package uictl defines the small control interfaces a UI reads and drives
// without knowing which hardware sits behind them.
package uictl

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// Knob is a simple on/off toggle control.
type Knob interface {
	Read() bool
	On()
	Off()
	Toggle()
}

// Dial is a control that can read some value.
type Dial[N Number] interface {
	Read() N
}

// CappedDial is a Dial with a maximum cap value. A zero max means no cap.
type CappedDial[N Number] interface {
	Dial[N]
	Cap() (num, max N)
}

// Levels is a control that exposes the most recent signal samples.
type Levels[N Number] interface {
	Read() []N
}

// Switch is an in-memory Knob.
type Switch struct {
	on atomic.Bool
}

func (s *Switch) Read() bool { return s.on.Load() }
func (s *Switch) On() { s.on.Store(true) }
func (s *Switch) Off() { s.on.Store(false) }

func (s *Switch) Toggle() {
	for {
		v := s.on.Load()
		if s.on.CompareAndSwap(v, !v) {
			return
		}
	}
}

// Fraction returns num/max for a capped dial, clamped to [0, 1]. It returns
// 0 when the dial has no cap.
func Fraction[N Number](d CappedDial[N]) float64 {
	num, limit := d.Cap()
	if limit <= 0 {
		return 0
	}

	return min(max(float64(num)/float64(limit), 0), 1)
}
