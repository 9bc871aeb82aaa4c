package aggregator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArafathMohammed/Prosthetichand/internal/models"
)

func ramp(start, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(start + i)
	}
	return out
}

func TestNewSampleBuffer_Validation(t *testing.T) {
	tests := []struct {
		name       string
		windowSize int
		overlap    int
		wantErr    bool
	}{
		{"valid half overlap", 10, 5, false},
		{"zero overlap", 10, 0, false},
		{"overlap equals window", 10, 10, true},
		{"overlap exceeds window", 10, 11, true},
		{"negative overlap", 10, -1, true},
		{"zero window", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := NewSampleBuffer(tt.windowSize, tt.overlap)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.windowSize+tt.overlap, buf.Cap())
				assert.Equal(t, tt.windowSize-tt.overlap, buf.Stride())
				return
			}
			require.Error(t, err)
			assert.Nil(t, buf)
			var cfgErr *models.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestSampleBuffer_WindowRequiresFullWindow(t *testing.T) {
	buf, err := NewSampleBuffer(8, 4)
	require.NoError(t, err)

	buf.Append(ramp(0, 7))
	_, ok := buf.Window()
	assert.False(t, ok)
	assert.False(t, buf.Ready())

	buf.Append([]float64{7})
	window, ok := buf.Window()
	require.True(t, ok)
	assert.Equal(t, ramp(0, 8), window)
}

func TestSampleBuffer_WindowIsACopy(t *testing.T) {
	buf, err := NewSampleBuffer(4, 2)
	require.NoError(t, err)
	buf.Append(ramp(0, 4))

	window, ok := buf.Window()
	require.True(t, ok)
	window[0] = 999

	again, _ := buf.Window()
	assert.Equal(t, 0.0, again[0])
}

func TestSampleBuffer_OverlapContinuity(t *testing.T) {
	const n, overlap = 10, 4
	buf, err := NewSampleBuffer(n, overlap)
	require.NoError(t, err)

	buf.Append(ramp(0, n))
	first, ok := buf.Window()
	require.True(t, ok)
	buf.Advance()
	assert.Equal(t, overlap, buf.Len())
	assert.False(t, buf.Ready())

	buf.Append(ramp(n, n-overlap))
	second, ok := buf.Window()
	require.True(t, ok)

	assert.Equal(t, first[n-overlap:], second[:overlap],
		"next window must start with the retained tail of the previous one")
	assert.Equal(t, ramp(n-overlap, n), second)
}

func TestSampleBuffer_OverflowDropsOldest(t *testing.T) {
	buf, err := NewSampleBuffer(4, 2) // capacity 6
	require.NoError(t, err)

	assert.Equal(t, 0, buf.Append(ramp(0, 5)))
	assert.Equal(t, 2, buf.Append(ramp(5, 3)))
	assert.Equal(t, ramp(2, 6), buf.Snapshot())
	assert.Equal(t, uint64(2), buf.Dropped())
}

func TestSampleBuffer_BatchLargerThanCapacity(t *testing.T) {
	buf, err := NewSampleBuffer(4, 2) // capacity 6
	require.NoError(t, err)

	buf.Append(ramp(0, 3))
	dropped := buf.Append(ramp(3, 10))

	assert.Equal(t, 7, dropped)
	assert.Equal(t, ramp(7, 6), buf.Snapshot())
	assert.Equal(t, 6, buf.Len())
}

func TestSampleBuffer_WrapAround(t *testing.T) {
	buf, err := NewSampleBuffer(4, 1) // capacity 5, stride 3
	require.NoError(t, err)

	next := 0
	for cycle := 0; cycle < 20; cycle++ {
		for !buf.Ready() {
			buf.Append([]float64{float64(next)})
			next++
		}
		window, ok := buf.Window()
		require.True(t, ok)
		start := int(window[0])
		assert.Equal(t, ramp(start, 4), window, "cycle %d", cycle)
		buf.Advance()
		assert.Equal(t, 1, buf.Len())
	}
	assert.Equal(t, uint64(0), buf.Dropped())
}

func TestSampleBuffer_Reset(t *testing.T) {
	buf, err := NewSampleBuffer(4, 2)
	require.NoError(t, err)
	buf.Append(ramp(0, 9))
	buf.Reset()

	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Snapshot())
	assert.Equal(t, uint64(3), buf.Dropped())
}
