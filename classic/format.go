package classic

import "fmt"

// Format identifies one of the five ways a Classic synopsis can be
// serialized onto the wire.
type Format uint8

// The five wire formats, with the exact header format codes the reference
// engine uses (preserved so foreign-produced buffers stay readable).
const (
	Normal       Format = 0x01
	Compact6Bits Format = 0x02
	Compact5Bits Format = 0x04
	Compact4Bits Format = 0x08
	Sparse       Format = 0x10
)

func (f Format) String() string {
	switch f {
	case Normal:
		return "NORMAL"
	case Compact6Bits:
		return "COMPACT_6BITS"
	case Compact5Bits:
		return "COMPACT_5BITS"
	case Compact4Bits:
		return "COMPACT_4BITS"
	case Sparse:
		return "SPARSE"
	default:
		return fmt.Sprintf("Format(0x%02x)", uint8(f))
	}
}

func (f Format) valid() bool {
	switch f {
	case Normal, Compact6Bits, Compact5Bits, Compact4Bits, Sparse:
		return true
	default:
		return false
	}
}
