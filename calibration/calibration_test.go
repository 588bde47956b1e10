package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historical32 = []float64{0.001811725487, 0.001635269492, 0.001490312966, 0.001441618072, 0.001345297513}

func TestCalibrate(t *testing.T) {
	t.Run("scales the whole series", func(t *testing.T) {
		measured := 0.0021
		got, err := Calibrate(historical32, 0, measured)
		require.NoError(t, err)
		require.Len(t, got, len(historical32))

		factor := measured / historical32[0]
		for i := range historical32 {
			assert.InDelta(t, factor*historical32[i], got[i], 1e-15)
		}
		assert.InDelta(t, measured, got[0], 1e-15)
	})

	t.Run("anchor at another position", func(t *testing.T) {
		got, err := Calibrate(historical32, 3, historical32[3]*2)
		require.NoError(t, err)
		for i := range historical32 {
			assert.InDelta(t, 2*historical32[i], got[i], 1e-15)
		}
	})

	t.Run("position out of range", func(t *testing.T) {
		_, err := Calibrate(historical32, 5, 1)
		require.Error(t, err)
	})

	t.Run("zero anchor", func(t *testing.T) {
		_, err := Calibrate([]float64{0, 1}, 0, 1)
		require.Error(t, err)
	})
}

func TestFactor(t *testing.T) {
	f, err := Factor(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	_, err = Factor(-1, 2)
	require.Error(t, err)
	assert.Equal(t, []float64{2, 4}, Apply(2, []float64{1, 2}))
}
