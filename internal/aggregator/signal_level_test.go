package aggregator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchLevel(t *testing.T) {
	assert.InDelta(t, 0, BatchLevel([]float64{1, -1, 1, -1}), 1e-12)
	assert.InDelta(t, -20, BatchLevel([]float64{0.1, -0.1}), 1e-9)
	assert.InDelta(t, 20, BatchLevel([]float64{10}), 1e-9)

	silence := BatchLevel(make([]float64, 8))
	assert.InDelta(t, -120, silence, 1e-9)
	assert.Equal(t, silence, BatchLevel(nil))

	cfg := LevelConfig{ReferenceLevel: 2, MinimumRMS: 1e-3}
	assert.InDelta(t, -6.0206, BatchLevelWithConfig([]float64{1, 1}, cfg), 1e-4)
	assert.False(t, math.IsInf(BatchLevelWithConfig(nil, cfg), 0))
}
