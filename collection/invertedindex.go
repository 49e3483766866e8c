package collection

import (
	"fmt"
	"sort"

	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

// InvertedIndex is a hash → list-of-signature-IDs map, scaled sketches
// only, one scaled value per index (spec §4.5.3). Search and gather
// iterate each query hash, aggregate per-signature hit counts, and
// rank candidates by those counts, turning containment search into a
// streaming tally rather than a cross-product.
type InvertedIndex struct {
	scaled    uint64
	postings  map[uint64][]int // hash -> signature indices
	sigs      []*signature.Signature
	sketches  []*sketch.Sketch // the indexed sketch per signature, same scaled
	locations []string
	man       *manifest.Manifest
}

// NewInvertedIndex builds an index over sigs, all of whose relevant
// sketch must share the given scaled value.
func NewInvertedIndex(scaled uint64, sigs []*signature.Signature, locations []string) (*InvertedIndex, error) {
	idx := &InvertedIndex{
		scaled:    scaled,
		postings:  make(map[uint64][]int),
		sigs:      sigs,
		sketches:  make([]*sketch.Sketch, len(sigs)),
		locations: locations,
		man:       manifest.New(),
	}
	for i, sig := range sigs {
		var chosen *sketch.Sketch
		for _, sk := range sig.Sketches {
			if sk.IsScaled() && sk.Scaled == scaled {
				chosen = sk
				break
			}
		}
		if chosen == nil {
			return nil, fmt.Errorf("sketchdb: signature %q has no sketch at scaled=%d", sig.Name, scaled)
		}
		idx.sketches[i] = chosen
		idx.man.Add(manifest.RowFromSketch(chosen, locations[i], sig.Name, sig.Filename))
		for _, h := range chosen.Hashes() {
			idx.postings[h] = append(idx.postings[h], i)
		}
	}
	return idx, nil
}

func (idx *InvertedIndex) Len() int { return len(idx.sigs) }

func (idx *InvertedIndex) Manifest() *manifest.Manifest { return idx.man }

func (idx *InvertedIndex) Each(visit func(sig *signature.Signature, location string) bool) error {
	for i, sig := range idx.sigs {
		if !visit(sig, idx.locations[i]) {
			break
		}
	}
	return nil
}

func (idx *InvertedIndex) Select(pred manifest.Predicate) Collection {
	keep := make(map[string]bool)
	for _, r := range idx.man.Filter(pred).Rows {
		keep[r.InternalLocation] = true
	}
	sigs := make([]*signature.Signature, 0)
	locs := make([]string, 0)
	for i, sig := range idx.sigs {
		if keep[idx.locations[i]] {
			sigs = append(sigs, sig)
			locs = append(locs, idx.locations[i])
		}
	}
	sub, err := NewInvertedIndex(idx.scaled, sigs, locs)
	if err != nil {
		return NewLinear(sigs, locs)
	}
	return sub
}

// tally counts, per signature index, how many of query's hashes
// appear in that signature's sketch.
func (idx *InvertedIndex) tally(query *sketch.Sketch) map[int]int {
	counts := make(map[int]int)
	for _, h := range query.Hashes() {
		for _, sigIdx := range idx.postings[h] {
			counts[sigIdx]++
		}
	}
	return counts
}

func (idx *InvertedIndex) Search(query *sketch.Sketch, threshold float64, kind Kind) ([]Match, error) {
	if !query.IsScaled() || query.Scaled != idx.scaled {
		return nil, fmt.Errorf("sketchdb: query scaled must equal index scaled (%d)", idx.scaled)
	}
	counts := idx.tally(query)
	order := make([]int, 0, len(counts))
	for i := range counts {
		order = append(order, i)
	}
	sort.Ints(order) // stable traversal order before sorting by measure

	var results []Match
	for _, i := range order {
		val, err := measure(query, idx.sketches[i], kind)
		if err != nil {
			continue
		}
		if val >= threshold {
			results = append(results, Match{Signature: idx.sigs[i], Location: idx.locations[i], Measure: val})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Measure > results[j].Measure })
	return results, nil
}

func (idx *InvertedIndex) Prefetch(query *sketch.Sketch, thresholdBP uint64) ([]Match, error) {
	if !query.IsScaled() || query.Scaled != idx.scaled {
		return nil, fmt.Errorf("sketchdb: query scaled must equal index scaled (%d)", idx.scaled)
	}
	counts := idx.tally(query)
	var results []Match
	for i, n := range counts {
		bp := uint64(n) * idx.scaled
		if bp >= thresholdBP {
			results = append(results, Match{Signature: idx.sigs[i], Location: idx.locations[i], Measure: float64(bp)})
		}
	}
	return results, nil
}

// Save persists the indexed signatures as a plain zip collection; the
// postings map is not written. LoadZip reads the file back as a
// LinearCollection, not as an InvertedIndex.
func (idx *InvertedIndex) Save(path string) error {
	return NewLinear(idx.sigs, idx.locations).Save(path)
}
