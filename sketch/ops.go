package sketch

import (
	"math"

	"github.com/shenwei356/sketchdb/sketcherr"
)

// compatible implements spec §3's comparability rule: two sketches
// must share seed, ksize, moltype and capacity mode. It does not check
// scaled equality, since scaled sketches of differing scaled values
// are comparable after downsampling both to the higher value (that
// reconciliation happens in alignScaled).
func compatible(a, b *Sketch) error {
	if a.Ksize != b.Ksize {
		return sketcherr.NewIncompatibleSketch("ksize", a.Ksize, b.Ksize)
	}
	if a.Moltype != b.Moltype {
		return sketcherr.NewIncompatibleSketch("moltype", a.Moltype, b.Moltype)
	}
	if a.Seed != b.Seed {
		return sketcherr.NewIncompatibleSketch("seed", a.Seed, b.Seed)
	}
	if a.IsNum() != b.IsNum() {
		return sketcherr.NewIncompatibleSketch("capacity mode", a.IsNum(), b.IsNum())
	}
	return nil
}

// alignScaled returns a, b downsampled to the larger of the two
// scaled values, leaving both inputs untouched. In num mode it returns
// a, b unchanged.
func alignScaled(a, b *Sketch) (*Sketch, *Sketch, error) {
	if a.IsNum() {
		return a, b, nil
	}
	target := a.Scaled
	if b.Scaled > target {
		target = b.Scaled
	}
	da, err := Downsample(a, target)
	if err != nil {
		return nil, nil, err
	}
	db, err := Downsample(b, target)
	if err != nil {
		return nil, nil, err
	}
	return da, db, nil
}

// intersectionSize returns |A ∩ B| for comparable sketches a, b
// (already scaled-aligned by the caller).
func intersectionSize(a, b *Sketch) int {
	small, large := a, b
	if large.Len() < small.Len() {
		small, large = large, small
	}
	n := 0
	for h := range small.counts {
		if large.Has(h) {
			n++
		}
	}
	return n
}

// unionSize returns |A ∪ B|.
func unionSize(a, b *Sketch) int {
	return a.Len() + b.Len() - intersectionSize(a, b)
}

// Jaccard implements spec §4.3 jaccard(A,B) = |A∩B|/|A∪B|.
func Jaccard(a, b *Sketch) (float64, error) {
	if err := compatible(a, b); err != nil {
		return 0, err
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return 0, err
	}
	u := unionSize(da, db)
	if u == 0 {
		return 0, nil
	}
	return float64(intersectionSize(da, db)) / float64(u), nil
}

// ContainedBy implements spec §4.3 contained_by(A,B) = |A∩B|/|A|,
// the fraction of A's hashes also present in B.
func ContainedBy(a, b *Sketch) (float64, error) {
	if err := compatible(a, b); err != nil {
		return 0, err
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return 0, err
	}
	if da.Len() == 0 {
		return 0, nil
	}
	return float64(intersectionSize(da, db)) / float64(da.Len()), nil
}

// MaxContainment implements spec §4.3 max_containment(A,B) =
// |A∩B|/min(|A|,|B|).
func MaxContainment(a, b *Sketch) (float64, error) {
	if err := compatible(a, b); err != nil {
		return 0, err
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return 0, err
	}
	denom := da.Len()
	if db.Len() < denom {
		denom = db.Len()
	}
	if denom == 0 {
		return 0, nil
	}
	return float64(intersectionSize(da, db)) / float64(denom), nil
}

// AngularSimilarity implements spec §4.3 angular_similarity(A,B):
// requires track_abundance on both operands; 1 - (acos(cos_sim)*2/pi)
// where cos_sim is the cosine of the abundance vectors indexed by
// hash (hashes present in only one operand contribute a zero term for
// the other).
func AngularSimilarity(a, b *Sketch) (float64, error) {
	if err := compatible(a, b); err != nil {
		return 0, err
	}
	if !a.TrackAbundance || !b.TrackAbundance {
		return 0, sketcherr.NewIncompatibleSketch("track_abundance", a.TrackAbundance, b.TrackAbundance)
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return 0, err
	}

	var dot float64
	var normA, normB float64
	for h, ca := range da.counts {
		cb := db.counts[h]
		dot += float64(ca) * float64(cb)
	}
	for _, ca := range da.counts {
		normA += float64(ca) * float64(ca)
	}
	for _, cb := range db.counts {
		normB += float64(cb) * float64(cb)
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 1 - (math.Acos(cos) * 2 / math.Pi), nil
}

// IntersectionSizeEstimate implements spec §4.3
// intersection_size_estimate: scaled sketches only, |A∩B|*scaled
// approximates the true shared k-mer count.
func IntersectionSizeEstimate(a, b *Sketch) (uint64, error) {
	if err := compatible(a, b); err != nil {
		return 0, err
	}
	if !a.IsScaled() || !b.IsScaled() {
		return 0, sketcherr.NewIncompatibleSketch("capacity mode", "scaled", "num")
	}
	da, db, err := alignScaled(a, b)
	if err != nil {
		return 0, err
	}
	return uint64(intersectionSize(da, db)) * da.Scaled, nil
}

// ContainmentANI implements spec §4.3 containment_ani(A,B): from
// containment c, ANI = c^(1/ksize). Only defined for scaled sketches.
func ContainmentANI(a, b *Sketch) (float64, error) {
	if !a.IsScaled() || !b.IsScaled() {
		return 0, sketcherr.NewIncompatibleSketch("capacity mode", "scaled", "num")
	}
	c, err := ContainedBy(a, b)
	if err != nil {
		return 0, err
	}
	if c <= 0 {
		return 0, nil
	}
	return math.Pow(c, 1/float64(a.Ksize)), nil
}
