package sketch

import (
	"math"
	"testing"

	"github.com/shenwei356/sketchdb/hasher"
)

func buildDNA(t *testing.T, seq string, k int, num uint64) *Sketch {
	t.Helper()
	s := NewNum(k, hasher.DNA, hasher.DefaultSeed, num, false)
	if err := s.AddSequence([]byte(seq), false); err != nil {
		t.Fatalf("AddSequence(%q): %v", seq, err)
	}
	return s
}

// Concrete scenario 1 (spec §8): ATGGCA vs AGAGCA, k=3, num=20, no
// abundance: jaccard = 1/7 before merge, rises to ~0.571 after
// merge(A,B) is assigned back into A.
func TestTwoKmerJaccard(t *testing.T) {
	a := buildDNA(t, "ATGGCA", 3, 20)
	b := buildDNA(t, "AGAGCA", 3, 20)

	j, err := Jaccard(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := 1.0 / 7.0
	if math.Abs(j-want) > 1e-9 {
		t.Errorf("jaccard(A,B) = %v, want %v", j, want)
	}

	merged, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	j2, err := Jaccard(merged, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Round(j2*1000)/1000 != 0.571 {
		t.Errorf("jaccard(merge(A,B),B) = %v, want ~0.571", j2)
	}
}

// Concrete scenario 4 (spec §8): inserting 10000 distinct hashes into
// a num=500 sketch leaves exactly the 500 numerically smallest.
func TestNumSketchCapacity(t *testing.T) {
	s := NewNum(21, hasher.DNA, hasher.DefaultSeed, 500, false)
	hs := make([]uint64, 10000)
	for i := range hs {
		// A simple affine scramble keeps the values distinct without
		// relying on the hasher, so this test only exercises AddHash's
		// bounding behavior.
		hs[i] = uint64(i)*2654435761 + 1
	}
	s.AddMany(hs)

	if s.Len() != 500 {
		t.Fatalf("len = %d, want 500", s.Len())
	}

	got := s.Hashes()
	want := append([]uint64(nil), hs...)
	sortUint64s(want)
	want = want[:500]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("hashes[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestScaledAdmission(t *testing.T) {
	s := NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, false)
	threshold := uint64(math.MaxUint64 / 1000)
	s.AddHash(threshold - 1)
	s.AddHash(threshold)
	s.AddHash(threshold + 1)
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 (only values below the threshold admitted)", s.Len())
	}
	if !s.Has(threshold - 1) {
		t.Fatalf("expected threshold-1 to be admitted")
	}
}

func TestDownsampleSubset(t *testing.T) {
	s := NewScaled(21, hasher.DNA, hasher.DefaultSeed, 100, false)
	for i := uint64(1); i <= 1000; i++ {
		s.AddHash(i * (math.MaxUint64 / 100000))
	}
	down, err := Downsample(s, 500)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range down.Hashes() {
		if !s.Has(h) {
			t.Fatalf("downsample produced a hash %d not present in the source sketch", h)
		}
	}
	if down.Len() > s.Len() {
		t.Fatalf("downsample grew the sketch: %d > %d", down.Len(), s.Len())
	}
}

func TestDownsampleRejectsSmaller(t *testing.T) {
	s := NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, false)
	if _, err := Downsample(s, 500); err == nil {
		t.Fatal("expected error downsampling to a smaller scaled value")
	}
}

func TestContainedBySelfIsOne(t *testing.T) {
	a := buildDNA(t, "ATGGCATAGGCATGACCAGT", 4, 100)
	c, err := ContainedBy(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if c != 1 {
		t.Errorf("contained_by(A,A) = %v, want 1", c)
	}
}

func TestJaccardSymmetric(t *testing.T) {
	a := buildDNA(t, "ATGGCATAGGCATGACCAGT", 4, 100)
	b := buildDNA(t, "TTGGCATAGCCATGACGAGT", 4, 100)
	jab, err := Jaccard(a, b)
	if err != nil {
		t.Fatal(err)
	}
	jba, err := Jaccard(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if jab != jba {
		t.Errorf("jaccard not symmetric: %v != %v", jab, jba)
	}
}

func TestIncompatibleSketchRejected(t *testing.T) {
	a := NewNum(21, hasher.DNA, hasher.DefaultSeed, 100, false)
	b := NewNum(31, hasher.DNA, hasher.DefaultSeed, 100, false)
	if _, err := Jaccard(a, b); err == nil {
		t.Fatal("expected incompatible-sketch error for differing ksize")
	}
}

func TestFlattenStripsAbundance(t *testing.T) {
	s := NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, true)
	s.AddHash(10)
	s.AddHash(10)
	if s.Abundance(10) != 2 {
		t.Fatalf("abundance = %d, want 2", s.Abundance(10))
	}
	flat := Flatten(s)
	if flat.TrackAbundance {
		t.Fatal("flatten should produce a sketch with TrackAbundance=false")
	}
	if !flat.Has(10) {
		t.Fatal("flatten should preserve the hash set")
	}
}

func TestSubtract(t *testing.T) {
	a := buildDNA(t, "ATGGCATAGGCATGACCAGT", 4, 100)
	b := buildDNA(t, "ATGGCATAGCCATGACGAGT", 4, 100)
	diff, err := Subtract(a, b)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range diff.Hashes() {
		if b.Has(h) {
			t.Fatalf("subtract left a hash %d that is also in B", h)
		}
	}
}
