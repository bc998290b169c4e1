package audio

import (
	"math"
	"sync"
)

// LevelBuffer is a thread-safe circular buffer of the most recent samples,
// read by the terminal UI to draw an input level meter.
type LevelBuffer struct {
	samples []int16
	head    int // Next write position
	count   int // Number of valid samples (up to capacity)
	mu      sync.RWMutex
}

// NewLevelBuffer creates a buffer holding up to capacity samples.
func NewLevelBuffer(capacity int) *LevelBuffer {
	return &LevelBuffer{
		samples: make([]int16, capacity),
		head:    0,
		count:   0,
		mu:      sync.RWMutex{},
	}
}

// Write appends samples, overwriting the oldest when full.
func (b *LevelBuffer) Write(samples []int16) {
	if len(samples) == 0 || len(b.samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.samples)

	for _, sample := range samples {
		b.samples[b.head] = sample
		b.head = (b.head + 1) % capacity

		if b.count < capacity {
			b.count++
		}
	}
}

// Recent returns up to n most recent samples in chronological order.
func (b *LevelBuffer) Recent(n int) []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 || n <= 0 {
		return nil
	}

	n = min(n, b.count)
	capacity := len(b.samples)
	start := (b.head - n + capacity) % capacity

	result := make([]int16, n)
	for i := range n {
		result[i] = b.samples[(start+i)%capacity]
	}

	return result
}

// Read returns every buffered sample, oldest first.
func (b *LevelBuffer) Read() []int16 {
	return b.Recent(len(b.samples))
}

// Peak returns the buffered peak amplitude in [0, 1].
func (b *LevelBuffer) Peak() float64 {
	var peak float64
	for _, s := range b.Read() {
		peak = math.Max(peak, math.Abs(float64(s)))
	}

	return math.Min(1, peak/math.MaxInt16)
}
