package collection

import (
	"math/rand"
	"testing"

	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

func randomSketch(seed int64, n int, ksize int) *sketch.Sketch {
	r := rand.New(rand.NewSource(seed))
	sk := sketch.NewScaled(ksize, hasher.DNA, hasher.DefaultSeed, 1000, false)
	for i := 0; i < n; i++ {
		sk.AddHash(r.Uint64() % (1 << 40))
	}
	return sk
}

func buildSignatures(n int) ([]*signature.Signature, []string) {
	sigs := make([]*signature.Signature, n)
	locs := make([]string, n)
	for i := 0; i < n; i++ {
		sk := randomSketch(int64(i), 200, 21)
		sigs[i] = signature.New(letterName(i), "", sk)
		locs[i] = letterName(i) + ".sig"
	}
	return sigs, locs
}

func letterName(i int) string {
	return string(rune('a' + i))
}

func TestLinearCollectionSearchOrdering(t *testing.T) {
	sigs, locs := buildSignatures(8)
	lc := NewLinear(sigs, locs)

	query := sigs[0].Sketches[0]
	results, err := lc.Search(query, 0, Containment)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Measure < results[i].Measure {
			t.Fatalf("results not descending: %v then %v", results[i-1].Measure, results[i].Measure)
		}
	}
	if results[0].Measure != 1 {
		t.Fatalf("query against itself should score 1, got %v", results[0].Measure)
	}
}

// Concrete scenario 5 (spec §8): for any Jaccard threshold t, the set
// of matches returned by LinearCollection.search(q,t) equals the set
// returned by SBT.search(q,t) over the same signatures.
func TestSBTEquivalenceWithLinear(t *testing.T) {
	sigs, locs := buildSignatures(12)
	lc := NewLinear(sigs, locs)
	sbt, err := BuildSBT(sigs, locs, 0.01)
	if err != nil {
		t.Fatal(err)
	}

	query := sigs[3].Sketches[0]
	for _, threshold := range []float64{0, 0.001, 0.05, 0.3} {
		linRes, err := lc.Search(query, threshold, Jaccard)
		if err != nil {
			t.Fatal(err)
		}
		sbtRes, err := sbt.Search(query, threshold, Jaccard)
		if err != nil {
			t.Fatal(err)
		}
		linSet := namesOf(linRes)
		sbtSet := namesOf(sbtRes)
		if !sameSet(linSet, sbtSet) {
			t.Errorf("threshold=%v: linear=%v sbt=%v", threshold, linSet, sbtSet)
		}
	}
}

func namesOf(matches []Match) map[string]bool {
	out := make(map[string]bool, len(matches))
	for _, m := range matches {
		out[m.Signature.Name] = true
	}
	return out
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func TestInvertedIndexSearch(t *testing.T) {
	sigs, locs := buildSignatures(10)
	idx, err := NewInvertedIndex(1000, sigs, locs)
	if err != nil {
		t.Fatal(err)
	}
	query := sigs[5].Sketches[0]
	results, err := idx.Search(query, 0.0, Containment)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, m := range results {
		if m.Signature.Name == sigs[5].Name && m.Measure == 1 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the query's own signature to appear with containment 1")
	}
}

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	b := newBloomFilter(1000, 0.01)
	inserted := make([]uint64, 0, 1000)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		h := r.Uint64()
		b.Add(h)
		inserted = append(inserted, h)
	}
	for _, h := range inserted {
		if !b.Test(h) {
			t.Fatalf("false negative for inserted hash %d", h)
		}
	}
}

func TestZipRoundTrip(t *testing.T) {
	sigs, locs := buildSignatures(4)
	lc := NewLinear(sigs, locs)
	tmp := t.TempDir() + "/bundle.zip"
	if err := lc.Save(tmp); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadZip(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != lc.Len() {
		t.Fatalf("zip round trip lost signatures: %d != %d", loaded.Len(), lc.Len())
	}
}
