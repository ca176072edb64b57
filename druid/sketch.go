package druid

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"strconv"

	"github.com/criteo/vertica-hyperloglog/internal/xhash"
)

// Sketch is a HLL-Druid synopsis. Unlike Classic, Druid's working
// representation is always the fixed BufferSize-byte dense layout;
// Serialize is the only place a shorter sparse encoding appears, for wire
// transmission.
type Sketch struct {
	buf []byte // exactly BufferSize bytes, caller-owned
}

// New wraps buf, which must be exactly BufferSize bytes.
func New(buf []byte) (*Sketch, error) {
	if len(buf) != BufferSize {
		return nil, ErrBufferSize
	}
	return &Sketch{buf: buf}, nil
}

// NewOwned allocates and wraps its own BufferSize-byte buffer, already
// reset to an empty sketch.
func NewOwned() *Sketch {
	s := &Sketch{buf: make([]byte, BufferSize)}
	s.Reset()
	return s
}

// Reset clears the synopsis back to an empty sketch at version 1.
func (s *Sketch) Reset() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.buf[0] = 1
}

func (s *Sketch) version() uint8          { return s.buf[0] }
func (s *Sketch) registerOffset() uint8   { return s.buf[1] }
func (s *Sketch) numNonZeroRegisters() uint16 {
	return binary.BigEndian.Uint16(s.buf[2:4])
}
func (s *Sketch) maxOverflowValue() uint8 { return s.buf[4] }
func (s *Sketch) maxOverflowRegister() uint16 {
	return binary.BigEndian.Uint16(s.buf[5:7])
}

func (s *Sketch) setRegisterOffset(v uint8) { s.buf[1] = v }
func (s *Sketch) setNumNonZeroRegisters(v uint16) {
	binary.BigEndian.PutUint16(s.buf[2:4], v)
}
func (s *Sketch) setMaxOverflowValue(v uint8) { s.buf[4] = v }
func (s *Sketch) setMaxOverflowRegister(v uint16) {
	binary.BigEndian.PutUint16(s.buf[5:7], v)
}

// NumNonZeroRegisters exposes the live count of non-zero registers, useful
// for callers deciding whether to force a serialization format.
func (s *Sketch) NumNonZeroRegisters() int { return int(s.numNonZeroRegisters()) }

// positionOf1 returns the 1-indexed position of the lowest set bit of h1,
// or 64 when h1 is all zero.
//
// The reference engine instead scans h1 byte by byte through a 256-entry
// lookup table (positionOf1Lookup) to find this; math/bits.TrailingZeros64
// computes the identical result without needing that table.
func positionOf1(h1 uint64) uint8 {
	if h1 == 0 {
		return 64
	}
	return uint8(bits.TrailingZeros64(h1)) + 1
}

func bucketOf(h2 uint64) uint16 {
	return uint16(h2>>48) & bucketMask
}

// AddHashed folds an already-128-bit-hashed value into the synopsis.
// hash128 is a MurmurHash3 x64-128 digest, big-endian lane-packed (the
// first 8 bytes are h1, the last 8 are h2), for callers that hash
// upstream of this library.
func (s *Sketch) AddHashed(hash128 [16]byte) {
	h1 := binary.BigEndian.Uint64(hash128[0:8])
	h2 := binary.BigEndian.Uint64(hash128[8:16])
	s.addRegister(bucketOf(h2), positionOf1(h1))
}

// AddValue hashes v (via its base-10 string form, matching the reference
// engine's template add(T value)) and folds it into the synopsis.
func (s *Sketch) AddValue(v uint64) {
	h1, h2 := xhash.Hash128([]byte(strconv.FormatUint(v, 10)))
	var hash128 [16]byte
	binary.BigEndian.PutUint64(hash128[0:8], h1)
	binary.BigEndian.PutUint64(hash128[8:16], h2)
	s.AddHashed(hash128)
}

// addRegister routes positionOf1 into bucket, or into the overflow slot
// when it exceeds what the current register-offset window can represent.
func (s *Sketch) addRegister(bucket uint16, positionOf1 uint8) {
	offset := int(s.registerOffset())

	if int(positionOf1) <= offset {
		return
	}
	if int(positionOf1) > offset+regRange {
		currMax := s.maxOverflowValue()
		if positionOf1 > currMax {
			if int(currMax) <= offset+regRange {
				s.addRegister(s.maxOverflowRegister(), currMax)
			}
			s.setMaxOverflowValue(positionOf1)
			s.setMaxOverflowRegister(bucket)
		}
		return
	}

	numNonZero := s.addNibbleRegister(bucket, positionOf1-uint8(offset))
	s.setNumNonZeroRegisters(numNonZero)
	if numNonZero == NumBuckets {
		s.setRegisterOffset(uint8(offset + 1))
		s.setNumNonZeroRegisters(s.decrementBuckets())
	}
}

func (s *Sketch) addNibbleRegister(bucket uint16, positionOf1 uint8) uint16 {
	numNonZero := s.numNonZeroRegisters()
	position := HeaderBytes + int(bucket>>1)
	isUpper := bucket&1 == 0

	var shifted uint8
	if isUpper {
		shifted = positionOf1 << bitsPerBucket
	} else {
		shifted = positionOf1
	}

	origVal := s.buf[position]
	var newMask uint8
	if isUpper {
		newMask = 0xf0
	} else {
		newMask = 0x0f
	}
	origMask := ^newMask

	if origVal&newMask == 0 && shifted != 0 {
		numNonZero++
	}

	left := origVal & newMask
	right := shifted
	chosen := left
	if right > left {
		chosen = right
	}
	s.buf[position] = chosen | (origVal & origMask)
	return numNonZero
}

func (s *Sketch) decrementBuckets() uint16 {
	count := uint16(0)
	for i := HeaderBytes; i < HeaderBytes+NumPayloadBytes; i++ {
		val := s.buf[i]
		if val&0xf0 != 0 {
			val -= 0x10
		}
		if val&0x0f != 0 {
			val -= 0x01
		}
		if val&0xf0 != 0 {
			count++
		}
		if val&0x0f != 0 {
			count++
		}
		s.buf[i] = val
	}
	return count
}

// mergeByte lowers each nibble of otherByte by offsetDiff and folds the
// result into payload[position], returning how many of its two nibbles
// transitioned from zero to non-zero.
func mergeByte(payload []byte, position int, otherByte uint8, offsetDiff uint8) uint16 {
	upperNibble := int(payload[position]) & 0xf0
	lowerNibble := int(payload[position]) & 0x0f

	var otherUpper, otherLower int
	if otherByte > 0 {
		otherUpper = int(otherByte&0xf0) - int(offsetDiff)<<bitsPerBucket
		otherLower = int(otherByte&0x0f) - int(offsetDiff)
	}

	newUpper := upperNibble
	if otherUpper > newUpper {
		newUpper = otherUpper
	}
	newLower := lowerNibble
	if otherLower > newLower {
		newLower = otherLower
	}
	payload[position] = byte((newUpper | newLower) & 0xff)

	var delta uint16
	if upperNibble == 0 && newUpper > 0 {
		delta++
	}
	if lowerNibble == 0 && newLower > 0 {
		delta++
	}
	return delta
}

func mergeDense(payload, otherPayload []byte, offsetDiff uint8) uint16 {
	numNonZero := uint16(0)
	for position := HeaderBytes; position < HeaderBytes+NumPayloadBytes; position++ {
		numNonZero += mergeByte(payload, position, otherPayload[position], offsetDiff)
	}
	return numNonZero
}

func mergeSparse(payload, otherPayload []byte, offsetDiff uint8) (uint16, error) {
	numNonZero := uint16(0)
	for position := HeaderBytes; position+3 <= len(otherPayload); position += 3 {
		registerPosition := binary.BigEndian.Uint16(otherPayload[position:position+2]) - HeaderBytes
		byteToAdd := otherPayload[position+2]
		if byteToAdd == 0 {
			continue
		}
		// The reference engine bounds-checks against the whole-buffer
		// size here, which under-rejects by HeaderBytes and would let an
		// out-of-range registerPosition reach the merge; this checks
		// against the payload size directly instead.
		if int(registerPosition) >= NumPayloadBytes {
			return 0, fmt.Errorf("%w: sparse register position %d out of range", ErrSerialization, registerPosition)
		}
		numNonZero += mergeByte(payload, int(registerPosition)+HeaderBytes, byteToAdd, offsetDiff)
	}
	return numNonZero, nil
}

// Fold merges another synopsis, sparse or dense, into s.
func (s *Sketch) Fold(wire []byte) error {
	if len(wire) < HeaderBytes {
		return fmt.Errorf("%w: payload shorter than header", ErrSerialization)
	}
	otherOffset := wire[1]

	if len(wire) != BufferSize {
		for position := HeaderBytes; position+3 <= len(wire); position += 3 {
			registerPosition := binary.BigEndian.Uint16(wire[position:position+2]) - HeaderBytes
			if wire[position+2] != 0 && int(registerPosition) >= NumPayloadBytes {
				return fmt.Errorf("%w: sparse register position %d out of range", ErrSerialization, registerPosition)
			}
		}
	}

	for s.registerOffset() < otherOffset {
		s.setRegisterOffset(s.registerOffset() + 1)
		s.setNumNonZeroRegisters(s.decrementBuckets())
	}

	numNonZero := s.numNonZeroRegisters()
	offsetDiff := s.registerOffset() - otherOffset

	if len(wire) == BufferSize {
		numNonZero += mergeDense(s.buf, wire, offsetDiff)
	} else {
		n, err := mergeSparse(s.buf, wire, offsetDiff)
		if err != nil {
			return err
		}
		numNonZero += n
	}

	if numNonZero == NumBuckets {
		numNonZero = s.decrementBuckets()
		s.setRegisterOffset(s.registerOffset() + 1)
	}
	s.setNumNonZeroRegisters(numNonZero)

	otherOverflowReg := binary.BigEndian.Uint16(wire[5:7])
	otherOverflowVal := wire[4]
	s.addRegister(otherOverflowReg, otherOverflowVal)
	return nil
}

// SerializedSize returns the exact size Serialize will produce.
func (s *Sketch) SerializedSize() int {
	if s.numNonZeroRegisters() < DenseThreshold {
		length := HeaderBytes
		for i := 0; i < NumPayloadBytes; i++ {
			if s.buf[HeaderBytes+i] != 0 {
				length += 3
			}
		}
		return length
	}
	return BufferSize
}

// Serialize returns the wire encoding: sparse tuples when the register
// population is below DenseThreshold, the fixed dense layout otherwise.
func (s *Sketch) Serialize() []byte {
	if s.numNonZeroRegisters() >= DenseThreshold {
		out := make([]byte, BufferSize)
		copy(out, s.buf)
		return out
	}

	out := make([]byte, s.SerializedSize())
	copy(out, s.buf[:HeaderBytes])
	pos := HeaderBytes
	for i := 0; i < NumPayloadBytes; i++ {
		v := s.buf[HeaderBytes+i]
		if v == 0 {
			continue
		}
		binary.BigEndian.PutUint16(out[pos:pos+2], uint16(i+HeaderBytes))
		out[pos+2] = v
		pos += 3
	}
	return out
}

func applyCorrection(e float64, zeroCount uint16) (float64, error) {
	if e == 0 {
		return 0, ErrEstimateIsZero
	}
	e = correctionParameter / e

	if e <= lowCorrectionThreshold {
		if zeroCount == 0 {
			return e, nil
		}
		return float64(NumBuckets) * math.Log(float64(NumBuckets)/float64(zeroCount)), nil
	}

	if e > highCorrectionThresh {
		ratio := e / twoToThe64
		if ratio >= 1 {
			return -1, nil
		}
		return -twoToThe64 * math.Log(1-ratio), nil
	}

	return e, nil
}

// ApproximateCountDistinct returns the estimated cardinality. A result of
// -1 signals the (astronomically unlikely) case of an estimate above 2^64;
// a result of 0 covers both a genuinely empty sketch and the degenerate
// all-maxed-registers case applyCorrection rejects as undefined.
func (s *Sketch) ApproximateCountDistinct() int64 {
	offset := s.registerOffset()
	overflowValue := s.maxOverflowValue()
	overflowRegister := s.maxOverflowRegister()
	overflowPosition := int(overflowRegister / 2)
	isUpperNibble := overflowRegister&1 == 0

	e := 0.0
	zeroCount := uint16(0)

	for position := 0; position < NumPayloadBytes; position++ {
		registerValue := s.buf[HeaderBytes+position]
		if overflowValue != 0 && position == overflowPosition {
			upper := ((registerValue & 0xf0) >> bitsPerBucket) + offset
			lower := (registerValue & 0x0f) + offset
			if isUpperNibble {
				if overflowValue > upper {
					upper = overflowValue
				}
			} else {
				if overflowValue > lower {
					lower = overflowValue
				}
			}
			e += pow2Neg(int(upper)) + pow2Neg(int(lower))
			if upper&0xf0 == 0 {
				zeroCount++
			}
			if lower&0x0f == 0 {
				zeroCount++
			}
		} else {
			e += minNumRegisterLookup[offset][registerValue]
			zeroCount += uint16(numZeroLookup[registerValue])
		}
	}

	corrected, err := applyCorrection(e, zeroCount)
	if err != nil {
		return 0
	}
	return int64(math.Round(corrected))
}
