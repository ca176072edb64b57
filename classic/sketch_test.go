package classic

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSketch(t *testing.T, precision uint8) *Sketch {
	t.Helper()
	s, err := WithOwnedBuffer(precision)
	require.NoError(t, err)
	s.Reset()
	return s
}

func TestNewRejectsOutOfRangePrecision(t *testing.T) {
	_, err := WithOwnedBuffer(3)
	assert.ErrorIs(t, err, ErrPrecisionOutOfRange)
	_, err = WithOwnedBuffer(19)
	assert.ErrorIs(t, err, ErrPrecisionOutOfRange)
}

func TestNewRejectsTooSmallBuffer(t *testing.T) {
	_, err := New(14, make([]byte, 10))
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestResetZeroesRegistersAndHeader(t *testing.T) {
	s := newTestSketch(t, 10)
	s.Add(1)
	s.Add(2)
	s.Reset()
	assert.Equal(t, 0, s.regs.NumSetRegisters())
	assert.Equal(t, uint8('H'), s.buf[0])
	assert.Equal(t, uint8('L'), s.buf[1])
	assert.Equal(t, byte(Normal), s.buf[2])
}

func TestApproximateCountDistinctAccuracy(t *testing.T) {
	const precision = 14
	s := newTestSketch(t, precision)
	const n = 100000
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		s.Add(rng.Uint64())
	}
	est := s.ApproximateCountDistinct()
	assert.InDelta(t, n, est, float64(n)*0.05)
}

func TestBetaEstimateAccuracy(t *testing.T) {
	const precision = 14
	s := newTestSketch(t, precision)
	const n = 100000
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < n; i++ {
		s.Add(rng.Uint64())
	}
	est := s.ApproximateCountDistinctBeta()
	assert.InDelta(t, n, est, float64(n)*0.05)
}

func TestMergeUnionsTwoSketches(t *testing.T) {
	a := newTestSketch(t, 12)
	b := newTestSketch(t, 12)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 5000; i++ {
		a.Add(rng.Uint64())
	}
	for i := 0; i < 5000; i++ {
		b.Add(rng.Uint64())
	}
	require.NoError(t, a.Merge(b))
	est := a.ApproximateCountDistinct()
	assert.InDelta(t, 10000, est, 10000*0.1)
}

func TestMergeRejectsPrecisionMismatch(t *testing.T) {
	a := newTestSketch(t, 10)
	b := newTestSketch(t, 12)
	assert.ErrorIs(t, a.Merge(b), ErrPrecisionMismatch)
}

func TestSerializeFoldRoundTripAllFormats(t *testing.T) {
	for _, format := range []Format{Normal, Compact6Bits, Compact5Bits, Compact4Bits, Sparse} {
		format := format
		t.Run(format.String(), func(t *testing.T) {
			src := newTestSketch(t, 12)
			rng := rand.New(rand.NewSource(99))
			for i := 0; i < 2000; i++ {
				src.Add(rng.Uint64())
			}

			size, err := src.SerializedSize(format)
			require.NoError(t, err)
			wire := make([]byte, size)
			n, err := src.Serialize(wire, format)
			require.NoError(t, err)
			assert.Equal(t, size, n)

			dst := newTestSketch(t, 12)
			require.NoError(t, dst.Fold(wire))

			srcEst := float64(src.ApproximateCountDistinct())
			dstEst := float64(dst.ApproximateCountDistinct())
			// COMPACT_5BITS/COMPACT_4BITS clamp registers far from the
			// per-sketch minimum, so the round trip is lossy for those
			// two formats; allow a wider tolerance there and an exact
			// match for the lossless formats.
			switch format {
			case Compact5Bits, Compact4Bits:
				assert.InDelta(t, srcEst, dstEst, srcEst*0.2+10)
			default:
				assert.Equal(t, srcEst, dstEst)
			}
		})
	}
}

func TestFoldRejectsShortPayload(t *testing.T) {
	s := newTestSketch(t, 10)
	err := s.Fold([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestFoldRejectsUnknownFormat(t *testing.T) {
	s := newTestSketch(t, 10)
	wire := make([]byte, headerSize+s.NumBuckets())
	wire[2] = 0xAA
	assert.ErrorIs(t, s.Fold(wire), ErrUnknownFormat)
}

func TestPrefersSparseBelowCutoff(t *testing.T) {
	s := newTestSketch(t, 14)
	assert.True(t, s.PrefersSparse())
	for i := 0; i < 10000; i++ {
		s.Add(uint64(i))
	}
	assert.False(t, s.PrefersSparse())
}

func TestEmptySketchEstimatesZero(t *testing.T) {
	s := newTestSketch(t, 14)
	assert.Equal(t, uint64(0), s.ApproximateCountDistinct())
}

func TestMaxSerializedSizeRejectsBadFormat(t *testing.T) {
	_, err := MaxSerializedSize(Format(0xFF), 14)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRhoZeroWhenValueBitsAllZero(t *testing.T) {
	// precision 4 leaves 60 value bits; craft a hash whose bucket prefix
	// is nonzero but whose value bits are entirely zero.
	r := newRegisters(4, make([]byte, 16))
	hash := uint64(0x5) << 60
	assert.Equal(t, uint8(0), r.rho(hash))
}

func TestAlphaSpecialCasedPrecisions(t *testing.T) {
	assert.Equal(t, 0.673, alpha(4, 16))
	assert.Equal(t, 0.697, alpha(5, 32))
	assert.Equal(t, 0.709, alpha(6, 64))
}

func TestCompositeEstimateNeverNegative(t *testing.T) {
	s := newTestSketch(t, 14)
	s.Add(1)
	est := s.ApproximateCountDistinct()
	assert.True(t, est < math.MaxInt64)
}
