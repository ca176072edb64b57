package xhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMurmur64ADeterministic(t *testing.T) {
	h1 := Hash64(12345)
	h2 := Hash64(12345)
	assert.Equal(t, h1, h2)
}

func TestMurmur64ADistinguishesInputs(t *testing.T) {
	assert.NotEqual(t, Hash64(1), Hash64(2))
}

func TestMurmur64ASeedChangesOutput(t *testing.T) {
	assert.NotEqual(t, Hash64Seed(42, 1), Hash64Seed(42, 2))
}

func TestMurmur64AKnownOutputs(t *testing.T) {
	// Values hand-computed from the reference engine's MurMurHash<uint64_t>
	// specialization (murmur_hash.hpp) for the default seed, pinning this
	// implementation against algorithm drift.
	assert.Equal(t, uint64(0xf5ff128f79db3c4c), Murmur64A{}.Hash64(0, DefaultSeed))
	assert.Equal(t, uint64(0x785b8a2bdb09478c), Murmur64A{}.Hash64(12345, DefaultSeed))
}

func TestHash128Deterministic(t *testing.T) {
	h1a, h2a := Hash128([]byte("hello"))
	h1b, h2b := Hash128([]byte("hello"))
	assert.Equal(t, h1a, h1b)
	assert.Equal(t, h2a, h2b)
}

func TestHash128DistinguishesInputs(t *testing.T) {
	a1, a2 := Hash128([]byte("hello"))
	b1, b2 := Hash128([]byte("world"))
	assert.False(t, a1 == b1 && a2 == b2)
}
