package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdBounds(t *testing.T) {
	assert.Equal(t, uint64(10), Threshold(4))
	assert.Equal(t, uint64(350000), Threshold(18))
}

func TestBetaCoeffsRowCount(t *testing.T) {
	require.Len(t, BetaCoeffs, numPrecision)
	for _, row := range BetaCoeffs {
		assert.Len(t, row, 8)
	}
}

func TestForPrecisionCovers4To18(t *testing.T) {
	for p := uint8(MinPrecision); p <= MaxPrecision; p++ {
		c := ForPrecision(p)
		require.NotEmpty(t, c.RawEstimate)
		assert.Equal(t, len(c.RawEstimate), len(c.Bias))
	}
}

func TestEstimateBiasIsContinuousNearSamples(t *testing.T) {
	c := ForPrecision(14)
	mid := c.RawEstimate[len(c.RawEstimate)/2]
	corrected := EstimateBias(mid, 14, 6)
	// the corrected value should stay in the same order of magnitude as
	// the raw estimate it was computed from
	assert.InDelta(t, mid, corrected, mid)
}

func TestEstimateBiasZeroAtExtremes(t *testing.T) {
	// far below the population, bias should be close to zero so the
	// corrected estimate stays close to the raw one
	p := uint8(14)
	m := float64(uint64(1) << p)
	corrected := EstimateBias(0.1*m, p, 6)
	assert.InDelta(t, 0.1*m, corrected, 0.1*m*0.5)
}
