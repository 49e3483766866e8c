package search

import (
	"testing"

	"github.com/shenwei356/sketchdb/collection"
	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

func buildCollections(t *testing.T, n int) []collection.Collection {
	t.Helper()
	var cols []collection.Collection
	for c := 0; c < 3; c++ {
		sigs := make([]*signature.Signature, 0, n)
		locs := make([]string, 0, n)
		for i := 0; i < n; i++ {
			sk := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, false)
			sk.AddHash(uint64(c*1000 + i))
			sigs = append(sigs, signature.New("sig", "", sk))
			locs = append(locs, "loc")
		}
		cols = append(cols, collection.NewLinear(sigs, locs))
	}
	return cols
}

func TestSearchAcrossCollectionsDescending(t *testing.T) {
	cols := buildCollections(t, 5)
	query := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, false)
	query.AddHash(0)

	results, err := Search(query, cols, 0, collection.Containment, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Measure < results[i].Measure {
			t.Fatalf("results not descending at %d", i)
		}
	}
}

func TestPrefetchAggregatesAllCollections(t *testing.T) {
	cols := buildCollections(t, 5)
	query := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, false)
	query.AddHash(0)

	results, err := Prefetch(query, cols, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one prefetch match across collections")
	}
}
