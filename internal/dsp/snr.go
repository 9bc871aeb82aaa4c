package dsp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// noiseFloorRatio marks samples below this fraction of the peak amplitude
// as the noise floor of a mode
const noiseFloorRatio = 0.05

// ErrNoModes is returned when there is nothing to select from
var ErrNoModes = errors.New("no modes to select from")

// EstimateSNR returns the amplitude-threshold SNR estimate of mode in dB.
// Signal power is the mean square of all samples; noise power is the mean
// square of the samples whose magnitude is under 5% of the peak. Both are
// floored so a silent mode or an empty noise subset yields a finite value.
func EstimateSNR(mode []float64) float64 {
	if len(mode) == 0 {
		return 0
	}

	signalPower := floats.Dot(mode, mode) / float64(len(mode))

	peak := math.Max(floats.Max(mode), -floats.Min(mode))
	threshold := noiseFloorRatio * peak

	var noiseSum float64
	noiseCount := 0
	for _, v := range mode {
		if math.Abs(v) < threshold {
			noiseSum += v * v
			noiseCount++
		}
	}

	noisePower := floorEps
	if noiseCount > 0 {
		noisePower = noiseSum / float64(noiseCount)
	}
	if noisePower < floorEps {
		noisePower = floorEps
	}
	if signalPower < floorEps {
		signalPower = floorEps
	}

	return 10 * math.Log10(signalPower/noisePower)
}

// Selection is the outcome of picking the best mode
type Selection struct {
	Index int       // position of the chosen mode
	Mode  []float64 // the chosen mode itself
	SNR   []float64 // estimate for every mode, in input order
}

// SelectMode picks the mode with the highest SNR. Ties go to the lowest
// index.
func SelectMode(modes [][]float64) (*Selection, error) {
	if len(modes) == 0 {
		return nil, ErrNoModes
	}

	snr := make([]float64, len(modes))
	best := 0
	for i, mode := range modes {
		snr[i] = EstimateSNR(mode)
		if snr[i] > snr[best] {
			best = i
		}
	}

	return &Selection{
		Index: best,
		Mode:  modes[best],
		SNR:   snr,
	}, nil
}
