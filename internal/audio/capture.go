package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Capture accumulates PCM packets from a device channel in memory and keeps
// the most recent samples for level metering.
type Capture struct {
	input    <-chan []byte
	maxBytes int64

	mu     sync.Mutex
	buf    []byte
	levels *LevelBuffer

	bytesWritten atomic.Int64
	truncated    atomic.Bool
	started      atomic.Bool
	done         chan struct{}
}

// NewCapture creates a capture reading from input. Data beyond maxBytes is
// dropped; maxBytes <= 0 means unlimited.
func NewCapture(input <-chan []byte, maxBytes int64) (*Capture, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	return &Capture{ //nolint:exhaustruct // counters start zeroed
		input:    input,
		maxBytes: maxBytes,
		levels:   NewLevelBuffer(DefaultSampleRate / 10),
		done:     make(chan struct{}),
	}, nil
}

// Start begins draining the input channel until it is closed or ctx ends.
func (c *Capture) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("capture already started")
	}

	go func() {
		defer close(c.done)

		for {
			select {
			case data, ok := <-c.input:
				if !ok {
					return
				}
				c.append(data)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (c *Capture) append(data []byte) {
	c.levels.Write(BytesToInt16(data))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxBytes > 0 {
		room := c.maxBytes - int64(len(c.buf))
		if room <= 0 {
			c.truncated.Store(true)
			return
		}
		if int64(len(data)) > room {
			data = data[:room]
			c.truncated.Store(true)
		}
	}

	c.buf = append(c.buf, data...)
	c.bytesWritten.Store(int64(len(c.buf)))
}

// BytesWritten returns the number of PCM bytes buffered so far.
func (c *Capture) BytesWritten() int64 {
	return c.bytesWritten.Load()
}

// Truncated reports whether data was dropped because of the size cap.
func (c *Capture) Truncated() bool {
	return c.truncated.Load()
}

// Levels returns the meter fed by this capture.
func (c *Capture) Levels() *LevelBuffer {
	return c.levels
}

// Take returns the buffered PCM and clears the buffer so the next recording
// starts empty.
func (c *Capture) Take() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.buf
	c.buf = nil
	c.bytesWritten.Store(0)
	c.truncated.Store(false)

	return data
}

// Wait blocks until the input channel is closed or the context ends.
func (c *Capture) Wait() {
	if !c.started.Load() {
		return
	}
	<-c.done
}

// Read returns the buffered byte count.
func (c *Capture) Read() int64 {
	return c.BytesWritten()
}

// Cap returns the buffered byte count and the size cap.
func (c *Capture) Cap() (int64, int64) {
	return c.BytesWritten(), c.maxBytes
}
