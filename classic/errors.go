package classic

import "errors"

// Sentinel errors returned (optionally wrapped with additional detail via
// fmt.Errorf's %w) by the Classic façade and its codecs.
var (
	ErrPrecisionOutOfRange = errors.New("classic: precision must be between 4 and 18")
	ErrPrecisionMismatch   = errors.New("classic: synopses have different precision")
	ErrBufferTooSmall      = errors.New("classic: buffer too small")
	ErrSerialization       = errors.New("classic: malformed wire payload")
	ErrUnknownFormat       = errors.New("classic: unknown wire format")
)
