// Package classic implements the HLL-Classic cardinality engine: a
// precision-4-through-18 HyperLogLog synopsis with five wire encodings and
// HLL++ bias-corrected and LogLog-Beta estimators.
package classic

import (
	"encoding/binary"
	"fmt"

	"github.com/criteo/vertica-hyperloglog/internal/bias"
	"github.com/criteo/vertica-hyperloglog/internal/xhash"
)

// headerSize is sizeof(HLLHdr): 2-byte magic, 1-byte format code, 1-byte
// bucket base (COMPACT_5BITS/COMPACT_4BITS), 2-byte native-endian sparse
// count, 2 bytes padding.
const headerSize = 8

// Sketch is a HLL-Classic synopsis. It borrows its backing buffer from the
// caller (see New) rather than owning it, so the same memory can be
// memory-mapped, pooled, or reused by a caller that manages its own
// buffers — the behavior spec.md's design notes call with_owned_buffer's
// counterpart.
type Sketch struct {
	precision uint8
	seed      uint32
	buf       []byte // headerSize + (1<<precision) bytes, caller-owned
	regs      Registers
}

// Option configures a Sketch at construction time.
type Option func(*Sketch)

// WithSeed overrides the default MurmurHash64A seed.
func WithSeed(seed uint32) Option {
	return func(s *Sketch) { s.seed = seed }
}

// New wraps buf as a Sketch of the given precision. buf must be at least
// MaxDeserializedSize(precision) bytes; its contents are left untouched
// until Reset or Add are called, mirroring Hll::wrapRawBuffer.
func New(precision uint8, buf []byte, opts ...Option) (*Sketch, error) {
	if precision < bias.MinPrecision || precision > bias.MaxPrecision {
		return nil, ErrPrecisionOutOfRange
	}
	need := headerSize + (1 << precision)
	if len(buf) < need {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrBufferTooSmall, need, len(buf))
	}
	s := &Sketch{precision: precision, seed: xhash.DefaultSeed, buf: buf}
	s.regs = newRegisters(precision, s.buf[headerSize:need])
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WithOwnedBuffer allocates and wraps its own buffer.
func WithOwnedBuffer(precision uint8, opts ...Option) (*Sketch, error) {
	if precision < bias.MinPrecision || precision > bias.MaxPrecision {
		return nil, ErrPrecisionOutOfRange
	}
	buf := make([]byte, headerSize+(1<<precision))
	return New(precision, buf, opts...)
}

// Precision returns the number of bucket bits this sketch was created with.
func (s *Sketch) Precision() uint8 { return s.precision }

// NumBuckets returns 2^precision.
func (s *Sketch) NumBuckets() int { return s.regs.Len() }

// Reset clears all registers and rewrites the header to its canonical
// empty-sketch form.
func (s *Sketch) Reset() {
	s.regs.Reset()
	s.buf[0], s.buf[1] = 'H', 'L'
	s.buf[2] = byte(Normal)
	s.buf[3] = 0
	binary.NativeEndian.PutUint16(s.buf[4:6], 0)
	s.buf[6], s.buf[7] = 0, 0
}

// Add hashes value and folds it into the synopsis.
func (s *Sketch) Add(value uint64) {
	s.AddHashed(xhash.Hash64Seed(value, s.seed))
}

// AddHashed folds an already-hashed 64-bit value into the synopsis,
// for callers that hash upstream of this library.
func (s *Sketch) AddHashed(hash uint64) {
	s.regs.Add(hash)
}

// Merge unions other into s, register by register. Both sketches must
// share the same precision.
func (s *Sketch) Merge(other *Sketch) error {
	if s.precision != other.precision {
		return ErrPrecisionMismatch
	}
	s.regs.Merge(other.regs)
	return nil
}

// PrefersSparse reports whether fewer than 256 registers are set, matching
// Hll::isBetterSerializedSparse's cutoff. The cutoff is the same at every
// precision, so at low precisions SPARSE can still be larger than a dense
// format.
func (s *Sketch) PrefersSparse() bool {
	return s.regs.NumSetRegisters() < 256
}

// SerializedSize returns the exact buffer size Serialize needs for format,
// header included.
func (s *Sketch) SerializedSize(format Format) (int, error) {
	if format == Sparse {
		return s.regs.NumSetRegisters()*3 + headerSize, nil
	}
	return MaxSerializedSize(format, s.precision)
}

// Serialize writes the synopsis into buf as format, returning the number
// of bytes written.
func (s *Sketch) Serialize(buf []byte, format Format) (int, error) {
	if !format.valid() {
		return 0, ErrUnknownFormat
	}
	need, err := s.SerializedSize(format)
	if err != nil {
		return 0, err
	}
	if len(buf) < need {
		return 0, fmt.Errorf("%w: need %d bytes, got %d", ErrBufferTooSmall, need, len(buf))
	}
	body := buf[headerSize:]
	var base uint8
	var sparseCount uint16
	switch format {
	case Sparse:
		sparseCount = serializeSparse(s.regs, body)
	case Normal:
		serializeNormal(s.regs, body)
	case Compact6Bits:
		serialize6Bits(s.regs, body)
	case Compact5Bits:
		base = serialize5BitsWithBase(s.regs, body)
	case Compact4Bits:
		base = serialize4BitsWithBase(s.regs, body)
	}
	buf[0], buf[1] = 'H', 'L'
	buf[2] = byte(format)
	buf[3] = base
	binary.NativeEndian.PutUint16(buf[4:6], sparseCount)
	buf[6], buf[7] = 0, 0
	return need, nil
}

// Fold deserializes wire (header included) and merges it into s.
func (s *Sketch) Fold(wire []byte) error {
	if len(wire) < headerSize {
		return fmt.Errorf("%w: payload shorter than header", ErrSerialization)
	}
	format := Format(wire[2])
	base := wire[3]
	sparseCount := binary.NativeEndian.Uint16(wire[4:6])
	body := wire[headerSize:]

	switch format {
	case Sparse:
		return foldSparse(s.regs, body, sparseCount)
	case Normal:
		return foldNormal(s.regs, body)
	case Compact6Bits:
		return fold6Bits(s.regs, body)
	case Compact5Bits:
		return fold5BitsWithBase(s.regs, body, base)
	case Compact4Bits:
		return fold4BitsWithBase(s.regs, body, base)
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnknownFormat, byte(format))
	}
}

// ApproximateCountDistinct returns the HLL++ composite cardinality
// estimate: bias-corrected or linear-counting depending on which regime
// the current register population falls into.
func (s *Sketch) ApproximateCountDistinct() uint64 {
	return compositeEstimate(s.regs, s.precision)
}

// ApproximateCountDistinctBeta returns the LogLog-Beta cardinality
// estimate, a single-formula alternative to the composite estimator that
// needs no bias-correction sample table.
func (s *Sketch) ApproximateCountDistinctBeta() uint64 {
	return betaEstimate(s.regs, s.precision)
}
