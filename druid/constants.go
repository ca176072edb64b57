// Package druid implements the HLL-Druid cardinality engine: a fixed
// precision-11 HyperLogLog synopsis with 4-bit nibble-packed registers, a
// sliding register offset, and a single overflow slot, wire-compatible
// with Apache Druid's HLL sketch.
package druid

import "math"

const (
	// HeaderBytes is sizeof(Header): version, registerOffset,
	// numNonZeroRegisters (2), maxOverflowValue, maxOverflowRegister (2).
	HeaderBytes = 7

	bitsPerBucket  = 4
	bitsForBuckets = 11

	// DenseThreshold is the number of non-zero registers at or above
	// which Serialize switches from the sparse tuple encoding to the
	// fixed-size dense encoding.
	DenseThreshold = 128

	// NumBuckets is the fixed register count, 2^bitsForBuckets.
	NumBuckets = 1 << bitsForBuckets
	// NumPayloadBytes is the dense payload size, one nibble per register.
	NumPayloadBytes = NumBuckets / 2
	// BufferSize is the fixed in-memory working-buffer size.
	BufferSize = HeaderBytes + NumPayloadBytes

	bucketMask = 0x7ff

	// range is the maximum value a register nibble can hold before its
	// position-of-1 has to be routed to the overflow slot instead.
	regRange = (1 << bitsPerBucket) - 1
)

var (
	alpha                  = 0.7213 / (1 + 1.079/NumBuckets)
	twoToThe64             = math.Pow(2, 64)
	lowCorrectionThreshold = (5 * float64(NumBuckets)) / 2.0
	highCorrectionThresh   = twoToThe64 / 30.0
	correctionParameter    = alpha * NumBuckets * NumBuckets
)
