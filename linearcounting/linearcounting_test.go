package linearcounting

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateEmptyBitmapIsZero(t *testing.T) {
	b := New(10)
	assert.Equal(t, uint64(0), b.Estimate())
}

func TestEstimateTracksAddedCardinality(t *testing.T) {
	const precision = 14
	const n = 2000
	b := New(precision)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		b.Add(rng.Uint64())
	}
	est := b.Estimate()
	// linear counting is only meant to be accurate well below saturation;
	// at n=2000 against a 2^14-bit bitmap it should track within ~15%.
	assert.InDelta(t, n, est, float64(n)*0.15)
}

func TestThresholdMatchesBiasTable(t *testing.T) {
	assert.Equal(t, uint64(350000), Threshold(18))
}
