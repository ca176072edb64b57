package druid

// minNumRegisterLookup[offset][byteValue] precomputes, for a register pair
// packed into one byte under registerOffset, the harmonic-mean term
// 2^-(upperNibble+offset) + 2^-(lowerNibble+offset). numZeroLookup[byteValue]
// precomputes how many of the two nibbles are raw zero (offset does not
// factor in: a raw-zero nibble always represents an empty register,
// regardless of the sliding offset).
//
// The reference engine ships these as a static precomputed table
// (druid_precalc_lookups.hpp) that was not part of this port's source
// material; generating them at init time is explicitly allowed by this
// component's contract and avoids hand-transcribing a 65536-entry table
// and a 256-entry one.
var (
	minNumRegisterLookup [256][256]float64
	numZeroLookup        [256]uint8
)

func init() {
	for offset := 0; offset < 256; offset++ {
		for b := 0; b < 256; b++ {
			upper := (b >> 4) + offset
			lower := (b & 0x0f) + offset
			minNumRegisterLookup[offset][b] = pow2Neg(upper) + pow2Neg(lower)
		}
	}
	for b := 0; b < 256; b++ {
		var z uint8
		if b&0xf0 == 0 {
			z++
		}
		if b&0x0f == 0 {
			z++
		}
		numZeroLookup[b] = z
	}
}

func pow2Neg(n int) float64 {
	if n >= 64 {
		// harmonic-mean contribution underflows to 0 well before this;
		// avoid an out-of-range shift for pathological offsets.
		return 0
	}
	return 1.0 / float64(uint64(1)<<uint(n))
}
