// Package xhash provides the hash primitives the cardinality estimators
// are built on: MurmurHash64A for HLL-Classic and MurmurHash3 x64-128 for
// HLL-Druid.
package xhash

import "github.com/spaolacci/murmur3"

// DefaultSeed is the seed HLL-Classic uses unless a caller overrides it.
const DefaultSeed uint32 = 27072015

// Hasher is implemented by anything that can reduce a 64-bit value to a
// 64-bit hash under a caller-supplied seed. HLL-Classic's Sketch.Add always
// hashes with Murmur64A (through Hash64Seed) and takes no Hasher; a caller
// using another hash family hashes upstream and calls Sketch.AddHashed.
type Hasher interface {
	Hash64(value uint64, seed uint32) uint64
}

// Murmur64A is the MurmurHash2 64-bit "A" variant specialized to a single
// uint64 input, ported bit-for-bit from the uint64_t specialization of
// MurMurHash used by the Classic engine. It is distinct from MurmurHash3
// and has no existing Go implementation in the wild, so it is hand-written
// here rather than borrowed.
type Murmur64A struct{}

const murmurM = 0xc6a4a7935bd1e995
const murmurR = 47

// Hash64 hashes a single 8-byte value the same way the reference HLL-Classic
// implementation hashes its input values.
func (Murmur64A) Hash64(value uint64, seed uint32) uint64 {
	m := uint64(murmurM)
	h := uint64(seed) ^ (8 * m)

	k := value
	k *= murmurM
	k ^= k >> murmurR
	k *= murmurM

	h ^= k
	h *= murmurM

	h *= murmurM
	h ^= h >> murmurR
	h *= murmurM
	h ^= h >> murmurR

	return h
}

// Hash64 hashes value with the package default hasher and seed.
func Hash64(value uint64) uint64 {
	return Murmur64A{}.Hash64(value, DefaultSeed)
}

// Hash64Seed hashes value with the package default hasher under seed.
func Hash64Seed(value uint64, seed uint32) uint64 {
	return Murmur64A{}.Hash64(value, seed)
}

// Hash128 computes MurmurHash3 x64-128 (seed 0) over data and returns the
// two 64-bit lanes (h1, h2) of the digest, the hash family HLL-Druid's wire
// format is defined against. Wired directly to spaolacci/murmur3 rather
// than reimplemented: it computes the identical bit-for-bit algorithm the
// upstream engine uses.
func Hash128(data []byte) (h1, h2 uint64) {
	return murmur3.Sum128(data)
}
