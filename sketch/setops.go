package sketch

import (
	"fmt"

	"github.com/shenwei356/sketchdb/sketcherr"
)

// Merge implements spec §4.3 merge(A,B): union of hashes, abundances
// summed where both operands track them. Moltype/ksize/seed must
// match. In num mode the result retains only the num smallest hashes
// of the union; scaled sketches are aligned to max(A.scaled,B.scaled)
// first.
func Merge(a, b *Sketch) (*Sketch, error) {
	if err := compatible(a, b); err != nil {
		return nil, err
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return nil, err
	}

	track := da.TrackAbundance && db.TrackAbundance
	var out *Sketch
	if da.IsNum() {
		out = NewNum(da.Ksize, da.Moltype, da.Seed, da.Num, track)
	} else {
		out = NewScaled(da.Ksize, da.Moltype, da.Seed, da.Scaled, track)
	}

	for h, ca := range da.counts {
		out.counts[h] = ca
	}
	for h, cb := range db.counts {
		if existing, ok := out.counts[h]; ok {
			if track {
				sum := uint64(existing) + uint64(cb)
				if sum > maxAbundance {
					sum = maxAbundance
				}
				out.counts[h] = uint32(sum)
			}
		} else {
			out.counts[h] = cb
		}
	}

	if out.IsNum() && uint64(len(out.counts)) > out.Num {
		trimToNumSmallest(out)
	}
	return out, nil
}

// trimToNumSmallest keeps only the s.Num numerically smallest retained
// hashes, used after a merge that may have grown past capacity.
func trimToNumSmallest(s *Sketch) {
	hs := s.Hashes()
	if uint64(len(hs)) <= s.Num {
		return
	}
	for _, h := range hs[s.Num:] {
		delete(s.counts, h)
	}
}

// Intersect implements spec §4.3 intersect(A,B): intersection of
// hashes, abundances dropped (result has no abundance).
func Intersect(a, b *Sketch) (*Sketch, error) {
	if err := compatible(a, b); err != nil {
		return nil, err
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return nil, err
	}

	var out *Sketch
	if da.IsNum() {
		out = NewNum(da.Ksize, da.Moltype, da.Seed, da.Num, false)
	} else {
		out = NewScaled(da.Ksize, da.Moltype, da.Seed, da.Scaled, false)
	}

	small, large := da, db
	if large.Len() < small.Len() {
		small, large = large, small
	}
	for h := range small.counts {
		if large.Has(h) {
			out.counts[h] = 1
		}
	}
	return out, nil
}

// Subtract implements spec §4.3 subtract(A,B) = A \ B. A must carry no
// abundance; callers with abundance tracked must Flatten first.
func Subtract(a, b *Sketch) (*Sketch, error) {
	if err := compatible(a, b); err != nil {
		return nil, err
	}
	if a.TrackAbundance {
		return nil, fmt.Errorf("sketchdb: subtract requires a has no abundance; flatten first")
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return nil, err
	}

	var out *Sketch
	if da.IsNum() {
		out = NewNum(da.Ksize, da.Moltype, da.Seed, da.Num, false)
	} else {
		out = NewScaled(da.Ksize, da.Moltype, da.Seed, da.Scaled, false)
	}
	for h := range da.counts {
		if !db.Has(h) {
			out.counts[h] = 1
		}
	}
	return out, nil
}

// Flatten implements spec §4.3 flatten(A): a copy of A with abundances
// stripped.
func Flatten(a *Sketch) *Sketch {
	var out *Sketch
	if a.IsNum() {
		out = NewNum(a.Ksize, a.Moltype, a.Seed, a.Num, false)
	} else {
		out = NewScaled(a.Ksize, a.Moltype, a.Seed, a.Scaled, false)
	}
	for h := range a.counts {
		out.counts[h] = 1
	}
	return out
}

// Downsample implements spec §4.3 downsample(A, scaled'=s): s must be
// ≥ A.Scaled; drops hashes ≥ 2^64/s. a must be in scaled mode.
func Downsample(a *Sketch, s uint64) (*Sketch, error) {
	if !a.IsScaled() {
		return nil, sketcherr.NewInvalidDownsample("downsample(scaled=...) requires a scaled-mode sketch")
	}
	if s < a.Scaled {
		return nil, sketcherr.NewInvalidDownsample("requested scaled is smaller than current scaled")
	}
	if s == a.Scaled {
		return a.Clone(), nil
	}
	out := NewScaled(a.Ksize, a.Moltype, a.Seed, s, a.TrackAbundance)
	threshold := out.maxHashThreshold()
	for h, c := range a.counts {
		if h < threshold {
			out.counts[h] = c
		}
	}
	return out, nil
}

// DownsampleNum implements spec §4.3 downsample(A, num'=m): in num
// mode m must be ≤ A.Num, keeping the m smallest hashes. Converting
// from a scaled sketch keeps the m smallest hashes, failing if the
// scaled sketch has fewer than m hashes.
func DownsampleNum(a *Sketch, m uint64) (*Sketch, error) {
	if a.IsNum() {
		if m > a.Num {
			return nil, sketcherr.NewInvalidDownsample("requested num is larger than current num")
		}
		out := NewNum(a.Ksize, a.Moltype, a.Seed, m, a.TrackAbundance)
		hs := a.Hashes()
		if uint64(len(hs)) > m {
			hs = hs[:m]
		}
		for _, h := range hs {
			out.counts[h] = a.counts[h]
		}
		return out, nil
	}

	// Converting from scaled mode.
	if uint64(a.Len()) < m {
		return nil, sketcherr.NewInvalidDownsample("scaled sketch has fewer hashes than requested num")
	}
	out := NewNum(a.Ksize, a.Moltype, a.Seed, m, a.TrackAbundance)
	hs := a.Hashes()[:m]
	for _, h := range hs {
		out.counts[h] = a.counts[h]
	}
	return out, nil
}
