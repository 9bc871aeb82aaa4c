package aggregator

import (
	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

// SampleBuffer is a bounded FIFO of raw EMG samples that owns the
// window/stride/overlap discipline.
//
// Capacity is windowSize+overlap. When an append would exceed it, the oldest
// samples are discarded: under sustained high-rate input the control loop
// keeps producing timely commands from recent data instead of queueing.
// The buffer has exactly one mutator and performs no locking.
type SampleBuffer struct {
	data []float64 // ring storage, len == capacity
	head int       // index of the oldest sample
	size int

	windowSize int
	overlap    int

	dropped uint64 // samples discarded on overflow since creation
}

// NewSampleBuffer creates a buffer for windows of windowSize samples that
// keep overlap samples between consecutive windows
func NewSampleBuffer(windowSize, overlap int) (*SampleBuffer, error) {
	if windowSize <= 0 {
		return nil, models.NewConfigurationError("WINDOW_SIZE", "must be positive, got %d", windowSize)
	}
	if overlap < 0 {
		return nil, models.NewConfigurationError("WINDOW_OVERLAP", "must not be negative, got %d", overlap)
	}
	if overlap >= windowSize {
		return nil, models.NewConfigurationError("WINDOW_OVERLAP",
			"overlap %d must be smaller than window size %d (stride would be %d)",
			overlap, windowSize, windowSize-overlap)
	}

	return &SampleBuffer{
		data:       make([]float64, windowSize+overlap),
		windowSize: windowSize,
		overlap:    overlap,
	}, nil
}

// Append adds samples in arrival order and returns how many of the oldest
// buffered samples were discarded to make room
func (b *SampleBuffer) Append(samples []float64) int {
	capacity := len(b.data)
	dropped := 0

	// Only the newest capacity samples of a large batch can survive.
	if len(samples) > capacity {
		dropped += len(samples) - capacity + b.size
		samples = samples[len(samples)-capacity:]
		b.head = 0
		b.size = 0
	}

	for _, s := range samples {
		if b.size == capacity {
			b.data[b.head] = s
			b.head = (b.head + 1) % capacity
			dropped++
			continue
		}
		b.data[(b.head+b.size)%capacity] = s
		b.size++
	}

	b.dropped += uint64(dropped)
	return dropped
}

// Ready reports whether a full window is buffered
func (b *SampleBuffer) Ready() bool {
	return b.size >= b.windowSize
}

// Window returns a copy of the oldest windowSize samples. ok is false when
// fewer samples are buffered.
func (b *SampleBuffer) Window() (window []float64, ok bool) {
	if !b.Ready() {
		return nil, false
	}
	return b.copyOut(b.windowSize), true
}

// Advance removes the oldest stride samples, retaining overlap samples of
// the last window for the next one
func (b *SampleBuffer) Advance() {
	n := b.Stride()
	if n > b.size {
		n = b.size
	}
	b.head = (b.head + n) % len(b.data)
	b.size -= n
}

// Snapshot returns a copy of everything buffered, oldest first
func (b *SampleBuffer) Snapshot() []float64 {
	return b.copyOut(b.size)
}

// Reset empties the buffer. The drop counter is kept.
func (b *SampleBuffer) Reset() {
	b.head = 0
	b.size = 0
}

func (b *SampleBuffer) copyOut(n int) []float64 {
	out := make([]float64, n)
	capacity := len(b.data)
	first := capacity - b.head
	if first >= n {
		copy(out, b.data[b.head:b.head+n])
		return out
	}
	copy(out, b.data[b.head:])
	copy(out[first:], b.data[:n-first])
	return out
}

// Len returns the number of buffered samples
func (b *SampleBuffer) Len() int { return b.size }

// Cap returns windowSize+overlap
func (b *SampleBuffer) Cap() int { return len(b.data) }

// WindowSize returns N
func (b *SampleBuffer) WindowSize() int { return b.windowSize }

// Overlap returns the number of samples retained between windows
func (b *SampleBuffer) Overlap() int { return b.overlap }

// Stride returns windowSize-overlap
func (b *SampleBuffer) Stride() int { return b.windowSize - b.overlap }

// Dropped returns the total number of samples discarded on overflow
func (b *SampleBuffer) Dropped() uint64 { return b.dropped }
