// Package sketch implements the bounded-MinHash ("num" mode) and
// FracMinHash ("scaled" mode) sketches that sit atop the hasher
// package, plus the comparison algebra and set operations over them
// (spec §4.2/§4.3).
package sketch

import (
	"fmt"
	"math"

	"github.com/shenwei356/sketchdb/hasher"
)

// Sketch holds the hash subset retained from a stream of k-mers, in
// either num mode (bounded MinHash) or scaled mode (FracMinHash).
// Exactly one of Num, Scaled is nonzero, enforced by the constructors.
//
// Internally the retained set lives in a map keyed by hash, which
// keeps AddHash O(1) amortized in scaled mode and O(num) worst case in
// num mode (a linear rescan for the current maximum on eviction, since
// num is a small bounded capacity this is not a hot path worth a heap
// for). Hashes/Abundances materialize the sorted-vector representation
// that spec §9 calls "the correct representation" on demand.
type Sketch struct {
	Ksize          int
	Moltype        hasher.MolType
	Seed           uint32
	Num            uint64
	Scaled         uint64
	TrackAbundance bool

	counts map[uint64]uint32
}

// maxAbundance is the saturating ceiling for abundance counts.
const maxAbundance = math.MaxUint32

// NewNum builds an empty num-mode sketch bounded at num.
func NewNum(ksize int, moltype hasher.MolType, seed uint32, num uint64, trackAbundance bool) *Sketch {
	return &Sketch{
		Ksize:          ksize,
		Moltype:        moltype,
		Seed:           seed,
		Num:            num,
		TrackAbundance: trackAbundance,
		counts:         make(map[uint64]uint32),
	}
}

// NewScaled builds an empty scaled-mode sketch: every hash h with
// h < 2^64/scaled is retained.
func NewScaled(ksize int, moltype hasher.MolType, seed uint32, scaled uint64, trackAbundance bool) *Sketch {
	return &Sketch{
		Ksize:          ksize,
		Moltype:        moltype,
		Seed:           seed,
		Scaled:         scaled,
		TrackAbundance: trackAbundance,
		counts:         make(map[uint64]uint32),
	}
}

// IsNum reports whether this sketch is in num (bounded MinHash) mode.
func (s *Sketch) IsNum() bool { return s.Num > 0 }

// IsScaled reports whether this sketch is in scaled (FracMinHash) mode.
func (s *Sketch) IsScaled() bool { return s.Scaled > 0 }

// maxHashThreshold returns 2^64/scaled, the admission ceiling for
// scaled mode. Returns 0 (meaning "no ceiling") in num mode.
func (s *Sketch) maxHashThreshold() uint64 {
	if s.Scaled == 0 {
		return 0
	}
	return math.MaxUint64 / s.Scaled
}

// Len returns the number of retained hashes.
func (s *Sketch) Len() int { return len(s.counts) }

// currentMax returns the largest retained hash in num mode. Only valid
// to call when len(s.counts) > 0.
func (s *Sketch) currentMax() uint64 {
	var max uint64
	first := true
	for h := range s.counts {
		if first || h > max {
			max = h
			first = false
		}
	}
	return max
}

// AddHash implements spec §4.2 add_hash: admits h per the sketch's
// capacity mode, incrementing its abundance (saturating) if already
// present and TrackAbundance is set.
func (s *Sketch) AddHash(h uint64) {
	if _, present := s.counts[h]; present {
		if s.TrackAbundance {
			if s.counts[h] < maxAbundance {
				s.counts[h]++
			}
		}
		return
	}

	if s.IsScaled() {
		if h < s.maxHashThreshold() {
			s.counts[h] = 1
		}
		return
	}

	// Num mode.
	if uint64(len(s.counts)) < s.Num {
		s.counts[h] = 1
		return
	}
	if len(s.counts) == 0 {
		return
	}
	max := s.currentMax()
	if h < max {
		delete(s.counts, max)
		s.counts[h] = 1
	}
}

// AddMany admits every hash in hs.
func (s *Sketch) AddMany(hs []uint64) {
	for _, h := range hs {
		s.AddHash(h)
	}
}

// AddSequence slides a k-mer window of Ksize over seq (DNA) and admits
// the hash of every window via the sketch's moltype. force=false
// aborts on the first invalid window (sketcherr.ErrInvalidSequence);
// force=true silently skips invalid windows, matching the teacher's
// "degenerate base tolerance" knob (unikmer's extendDegenerateSeq family).
func (s *Sketch) AddSequence(seq []byte, force bool) error {
	if s.Moltype != hasher.DNA {
		return fmt.Errorf("sketchdb: AddSequence requires DNA moltype, got %s", s.Moltype)
	}
	k := s.Ksize
	if len(seq) < k {
		return nil
	}
	for i := 0; i+k <= len(seq); i++ {
		h, err := hasher.HashDNAKmer(seq[i:i+k], s.Seed)
		if err != nil {
			if force {
				continue
			}
			return err
		}
		s.AddHash(h)
	}
	return nil
}

// AddProtein slides a residue window of Ksize over seq and admits the
// hash of every window via the sketch's moltype (Protein, Dayhoff or
// HP). Unlike AddSequence this never fails: the underlying residue
// hashers tolerate arbitrary bytes.
func (s *Sketch) AddProtein(seq []byte) error {
	if s.Moltype == hasher.DNA {
		return fmt.Errorf("sketchdb: AddProtein requires a protein-family moltype, got %s", s.Moltype)
	}
	k := s.Ksize
	if len(seq) < k {
		return nil
	}
	for i := 0; i+k <= len(seq); i++ {
		h, err := hasher.Hash(s.Moltype, seq[i:i+k], s.Seed)
		if err != nil {
			return err
		}
		s.AddHash(h)
	}
	return nil
}

// AddTranslatedDNA six-frame translates seq and feeds every frame's
// protein k-mers through the sketch's moltype hasher (Protein, Dayhoff
// or HP), per spec §4.1's translate_dna_to_protein_frames.
func (s *Sketch) AddTranslatedDNA(seq []byte) error {
	frames, err := hasher.TranslateDNAToProteinFrames(seq)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := s.AddProtein(f.Protein); err != nil {
			return err
		}
	}
	return nil
}

// Hashes returns the retained hashes in ascending sorted order, the
// "correct representation" per spec §9.
func (s *Sketch) Hashes() []uint64 {
	out := make([]uint64, 0, len(s.counts))
	for h := range s.counts {
		out = append(out, h)
	}
	sortUint64s(out)
	return out
}

// Abundances returns per-hash counts index-aligned with Hashes(), or
// nil if TrackAbundance is false.
func (s *Sketch) Abundances() []uint32 {
	if !s.TrackAbundance {
		return nil
	}
	hs := s.Hashes()
	out := make([]uint32, len(hs))
	for i, h := range hs {
		out[i] = s.counts[h]
	}
	return out
}

// Abundance returns the retained count for h, or 0 if h is not
// retained.
func (s *Sketch) Abundance(h uint64) uint32 { return s.counts[h] }

// SetHashAbundance directly inserts h with the given abundance,
// bypassing AddHash's capacity/admission checks. Used by signature
// deserialization to reconstruct a sketch exactly as it was recorded,
// including abundance counts, without re-deriving eviction decisions
// that have already been made.
func (s *Sketch) SetHashAbundance(h uint64, abundance uint32) {
	if abundance == 0 {
		abundance = 1
	}
	s.counts[h] = abundance
}

// Has reports whether h is retained.
func (s *Sketch) Has(h uint64) bool {
	_, ok := s.counts[h]
	return ok
}

// Clone returns a deep copy.
func (s *Sketch) Clone() *Sketch {
	c := &Sketch{
		Ksize:          s.Ksize,
		Moltype:        s.Moltype,
		Seed:           s.Seed,
		Num:            s.Num,
		Scaled:         s.Scaled,
		TrackAbundance: s.TrackAbundance,
		counts:         make(map[uint64]uint32, len(s.counts)),
	}
	for h, a := range s.counts {
		c.counts[h] = a
	}
	return c
}

