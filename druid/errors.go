package druid

import "errors"

// Sentinel errors returned by Sketch's serialization paths.
var (
	ErrBufferSize     = errors.New("druid: buffer must be exactly BufferSize bytes")
	ErrSerialization  = errors.New("druid: malformed wire payload")
	ErrEstimateIsZero = errors.New("druid: cardinality estimate cannot be zero")
)
