package collection

import (
	"math"

	"github.com/spaolacci/murmur3"
)

// bloomFilter is a fixed-size bit array tested with k independent hash
// functions derived from a single MurmurHash3 128-bit digest via
// Kirsch-Mitzenmacher double hashing (h_i = h1 + i*h2), the same trick
// the teacher's index package uses bit rows for (index/serialization.go)
// generalized here to an actual Bloom filter rather than a raw
// presence row, since the SBT needs compact per-node summaries rather
// than one bit per global hash.
type bloomFilter struct {
	bits []uint64 // m bits packed into 64-bit words
	m    uint64
	k    uint64
}

// newBloomFilter sizes (m, k) for n expected elements and a target
// false-positive rate, per spec §4.5.2 "choose (m,k) so that
// false-positive rate at saturation remains below a configurable
// target (default 1%)".
func newBloomFilter(n int, targetFP float64) *bloomFilter {
	if n < 1 {
		n = 1
	}
	if targetFP <= 0 || targetFP >= 1 {
		targetFP = 0.01
	}
	m := optimalM(n, targetFP)
	k := optimalK(m, n)
	words := (m + 63) / 64
	return &bloomFilter{bits: make([]uint64, words), m: m, k: k}
}

func optimalM(n int, p float64) uint64 {
	m := -1 * float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	if m < 64 {
		m = 64
	}
	return uint64(math.Ceil(m))
}

func optimalK(m uint64, n int) uint64 {
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	if k > 20 {
		k = 20
	}
	return uint64(k)
}

// newBloomFilterParams builds an empty filter with explicit (m, k),
// used so every node in an SBT shares identical parameters and can be
// Union'd together.
func newBloomFilterParams(m, k uint64) *bloomFilter {
	words := (m + 63) / 64
	return &bloomFilter{bits: make([]uint64, words), m: m, k: k}
}

func (b *bloomFilter) locations(h uint64) (uint64, uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(h >> (8 * i))
	}
	h1, h2 := murmur3.Sum128(buf[:])
	return h1, h2
}

// Add sets the k bit positions derived from h.
func (b *bloomFilter) Add(h uint64) {
	h1, h2 := b.locations(h)
	for i := uint64(0); i < b.k; i++ {
		pos := (h1 + i*h2) % b.m
		b.bits[pos/64] |= 1 << (pos % 64)
	}
}

// Test reports whether h's k bit positions are all set (possible false
// positive, never a false negative).
func (b *bloomFilter) Test(h uint64) bool {
	h1, h2 := b.locations(h)
	for i := uint64(0); i < b.k; i++ {
		pos := (h1 + i*h2) % b.m
		if b.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Union ORs other's bits into b in place. Both must share (m, k).
func (b *bloomFilter) Union(other *bloomFilter) {
	for i := range b.bits {
		b.bits[i] |= other.bits[i]
	}
}

// countHits returns how many of hs test positive against b.
func (b *bloomFilter) countHits(hs []uint64) int {
	n := 0
	for _, h := range hs {
		if b.Test(h) {
			n++
		}
	}
	return n
}
