// Package calibration estimates unmeasured preprocessing throughputs from stored historical numbers.
//
// One fresh measurement and the historical value at the same position give a scale factor, which is
// applied to the whole historical series of that modulus width. This assumes the slowdown or speedup of
// the current machine is uniform across database sizes. It is an approximation with no error bound;
// callers that need exact numbers must remeasure every point instead.
package calibration

import (
	"fmt"
)

// Factor returns measured / historical.
func Factor(measured, historical float64) (float64, error) {
	if historical <= 0 {
		return 0, fmt.Errorf("historical value must be positive, got %v", historical)
	}
	if measured <= 0 {
		return 0, fmt.Errorf("measured value must be positive, got %v", measured)
	}
	return measured / historical, nil
}

// Apply scales every value in series by factor.
func Apply(factor float64, series []float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = factor * v
	}
	return out
}

// Calibrate derives the factor from the value measured at position and returns the estimated series.
func Calibrate(series []float64, position int, measured float64) ([]float64, error) {
	if position < 0 || position >= len(series) {
		return nil, fmt.Errorf("position %d outside historical series of length %d", position, len(series))
	}
	f, err := Factor(measured, series[position])
	if err != nil {
		return nil, err
	}
	return Apply(f, series), nil
}
