package druid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumZeroLookupBothNibblesZero(t *testing.T) {
	assert.Equal(t, uint8(2), numZeroLookup[0x00])
	assert.Equal(t, uint8(0), numZeroLookup[0xFF])
	assert.Equal(t, uint8(1), numZeroLookup[0x0F])
}

func TestMinNumRegisterLookupMatchesDirectComputation(t *testing.T) {
	offset := 3
	b := 0x27 // upper=2, lower=7
	want := pow2Neg(2+offset) + pow2Neg(7+offset)
	assert.InDelta(t, want, minNumRegisterLookup[offset][b], 1e-12)
}
