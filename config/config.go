// Package config holds the small set of boundary-level options that
// parameterize a sketch at construction time: precision, register width,
// and hash seed.
package config

import (
	"errors"
	"fmt"

	"github.com/criteo/vertica-hyperloglog/classic"
	"github.com/criteo/vertica-hyperloglog/druid"
	"github.com/criteo/vertica-hyperloglog/internal/bias"
)

// ErrConfig is the sentinel wrapped by every validation failure Validate
// returns.
var ErrConfig = errors.New("config: invalid configuration")

// Engine selects which cardinality engine a Settings value configures.
type Engine int

const (
	EngineClassic Engine = iota
	EngineDruid
)

// Settings mirrors the boundary-level options table: which engine to use,
// the Classic precision (ignored for Druid, which is fixed at p=11), the
// per-register bit width a Classic sketch serializes with, and the hash
// seed Classic hashes values with.
type Settings struct {
	Engine        Engine
	PrecisionBits uint8
	BitsPerBucket uint8
	HashSeed      uint32
}

// Default returns the Classic-engine defaults: precision 14, one byte
// (NORMAL) per register, the reference engine's default MurmurHash64A seed.
func Default() Settings {
	return Settings{
		Engine:        EngineClassic,
		PrecisionBits: 14,
		BitsPerBucket: 8,
		HashSeed:      27072015,
	}
}

// Validate checks the settings are self-consistent, returning an
// ErrConfig-wrapped error describing the first problem found.
func (s Settings) Validate() error {
	switch s.Engine {
	case EngineClassic:
		if s.PrecisionBits < bias.MinPrecision || s.PrecisionBits > bias.MaxPrecision {
			return fmt.Errorf("%w: precision_bits must be between %d and %d, got %d",
				ErrConfig, bias.MinPrecision, bias.MaxPrecision, s.PrecisionBits)
		}
		if !validBitsPerBucket(s.BitsPerBucket) {
			return fmt.Errorf("%w: bits_per_bucket must be one of {4,5,6,8}, got %d",
				ErrConfig, s.BitsPerBucket)
		}
	case EngineDruid:
		if s.PrecisionBits != 0 && s.PrecisionBits != 11 {
			return fmt.Errorf("%w: druid precision is fixed at 11, got %d", ErrConfig, s.PrecisionBits)
		}
		if s.BitsPerBucket != 0 && s.BitsPerBucket != 4 {
			return fmt.Errorf("%w: druid registers are fixed at 4 bits, got %d", ErrConfig, s.BitsPerBucket)
		}
	default:
		return fmt.Errorf("%w: unknown engine %d", ErrConfig, s.Engine)
	}
	return nil
}

func validBitsPerBucket(bits uint8) bool {
	switch bits {
	case 0, 4, 5, 6, 8:
		return true
	default:
		return false
	}
}

// ClassicFormat translates BitsPerBucket into the classic.Format it
// corresponds to on the wire. A zero BitsPerBucket (the Go zero value)
// defaults to NORMAL, matching the reference engine's default format.
func (s Settings) ClassicFormat() (classic.Format, error) {
	switch s.BitsPerBucket {
	case 0, 8:
		return classic.Normal, nil
	case 6:
		return classic.Compact6Bits, nil
	case 5:
		return classic.Compact5Bits, nil
	case 4:
		return classic.Compact4Bits, nil
	default:
		return 0, fmt.Errorf("%w: bits_per_bucket must be one of {4,5,6,8}, got %d",
			ErrConfig, s.BitsPerBucket)
	}
}

// NewClassicSketch validates s and constructs a HLL-Classic sketch from
// it, seeded with s.HashSeed.
func NewClassicSketch(s Settings) (*classic.Sketch, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Engine != EngineClassic {
		return nil, fmt.Errorf("%w: NewClassicSketch requires EngineClassic, got %d", ErrConfig, s.Engine)
	}
	return classic.WithOwnedBuffer(s.PrecisionBits, classic.WithSeed(s.HashSeed))
}

// NewDruidSketch validates s and constructs a HLL-Druid sketch from it.
// Druid's precision and register width are both fixed, so s only gates
// which engine the caller meant to build.
func NewDruidSketch(s Settings) (*druid.Sketch, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Engine != EngineDruid {
		return nil, fmt.Errorf("%w: NewDruidSketch requires EngineDruid, got %d", ErrConfig, s.Engine)
	}
	return druid.NewOwned(), nil
}
