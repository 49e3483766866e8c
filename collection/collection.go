// Package collection implements the four Collection variants of spec
// §4.5 behind one shared interface: LinearCollection, SBT,
// InvertedIndex and StandaloneManifestIndex.
package collection

import (
	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

// Kind selects the similarity measure a Search call thresholds on.
type Kind string

const (
	Jaccard        Kind = "jaccard"
	Containment    Kind = "containment"
	MaxContainment Kind = "max_containment"
)

// Match is one result of Search or Prefetch: a signature handle plus
// the measure that qualified it and a location hint for re-fetching.
type Match struct {
	Signature *signature.Signature
	Location  string
	Measure   float64
}

// Collection is the shared contract of spec §4.5: every variant
// supports iteration, predicate-based selection, threshold search,
// prefetch and persistence.
type Collection interface {
	// Each visits every (signature, location) pair. Iteration stops
	// early, without error, if visit returns false.
	Each(visit func(sig *signature.Signature, location string) bool) error

	// Select returns a restricted view containing only signatures
	// whose manifest row passes pred. Cheap (no sketch loading) for
	// manifest-backed variants.
	Select(pred manifest.Predicate) Collection

	// Search returns matches whose Kind-measure against query meets
	// threshold, descending by measure, ties broken by traversal
	// order.
	Search(query *sketch.Sketch, threshold float64, kind Kind) ([]Match, error)

	// Prefetch returns every signature with estimated overlap
	// (shared-hash count * scaled) at or above thresholdBP. Scaled
	// sketches only. Output order is unspecified.
	Prefetch(query *sketch.Sketch, thresholdBP uint64) ([]Match, error)

	// Save persists the collection to path.
	Save(path string) error

	// Len returns the number of cataloged signatures.
	Len() int

	// Manifest returns the catalog backing this collection, or nil
	// for a bare directory that has none.
	Manifest() *manifest.Manifest
}

// measure computes the Kind-selected similarity between query and
// candidate.
func measure(query, candidate *sketch.Sketch, kind Kind) (float64, error) {
	switch kind {
	case Jaccard:
		return sketch.Jaccard(query, candidate)
	case Containment:
		return sketch.ContainedBy(query, candidate)
	case MaxContainment:
		return sketch.MaxContainment(query, candidate)
	default:
		return 0, nil
	}
}

// overlapBP estimates shared-hash count * scaled between two scaled
// sketches, used by Prefetch's threshold_bp comparisons.
func overlapBP(query, candidate *sketch.Sketch) (uint64, error) {
	return sketch.IntersectionSizeEstimate(query, candidate)
}

// primarySketch picks the sketch within sig that is comparable to
// query (matching ksize/moltype), or nil if none is.
func primarySketch(sig *signature.Signature, query *sketch.Sketch) *sketch.Sketch {
	for _, sk := range sig.Sketches {
		if sk.Ksize == query.Ksize && sk.Moltype == query.Moltype {
			return sk
		}
	}
	return nil
}
