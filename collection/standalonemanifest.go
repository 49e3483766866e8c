package collection

import (
	"fmt"
	"sort"

	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

// Loader resolves a manifest row's internal_location to a loaded
// signature. DirectoryLoader is the only implementation in this
// package.
type Loader func(internalLocation string) (*signature.Signature, error)

// StandaloneManifestIndex is a manifest whose internal_location
// fields point into one or more other collections (spec §4.5.4).
// Loading a signature dispatches to the referenced collection; search
// is a linear scan across the manifest with lazy per-sketch load.
type StandaloneManifestIndex struct {
	man    *manifest.Manifest
	loader Loader
}

// NewStandaloneManifestIndex wraps man, dispatching signature loads
// through loader.
func NewStandaloneManifestIndex(man *manifest.Manifest, loader Loader) *StandaloneManifestIndex {
	return &StandaloneManifestIndex{man: man, loader: loader}
}

func (s *StandaloneManifestIndex) Len() int { return s.man.Len() }

func (s *StandaloneManifestIndex) Manifest() *manifest.Manifest { return s.man }

func (s *StandaloneManifestIndex) Each(visit func(sig *signature.Signature, location string) bool) error {
	for _, r := range s.man.Rows {
		sig, err := s.loader(r.InternalLocation)
		if err != nil {
			return err
		}
		if !visit(sig, r.InternalLocation) {
			break
		}
	}
	return nil
}

func (s *StandaloneManifestIndex) Select(pred manifest.Predicate) Collection {
	return &StandaloneManifestIndex{man: s.man.Filter(pred), loader: s.loader}
}

func (s *StandaloneManifestIndex) Search(query *sketch.Sketch, threshold float64, kind Kind) ([]Match, error) {
	var results []Match
	for _, r := range s.man.Rows {
		if r.Ksize != query.Ksize || r.Moltype != query.Moltype {
			continue
		}
		sig, err := s.loader(r.InternalLocation)
		if err != nil {
			return nil, err
		}
		cand := primarySketch(sig, query)
		if cand == nil {
			continue
		}
		val, err := measure(query, cand, kind)
		if err != nil {
			continue
		}
		if val >= threshold {
			results = append(results, Match{Signature: sig, Location: r.InternalLocation, Measure: val})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Measure > results[j].Measure })
	return results, nil
}

func (s *StandaloneManifestIndex) Prefetch(query *sketch.Sketch, thresholdBP uint64) ([]Match, error) {
	if !query.IsScaled() {
		return nil, fmt.Errorf("sketchdb: prefetch requires a scaled query sketch")
	}
	var results []Match
	for _, r := range s.man.Rows {
		if r.Scaled == 0 {
			continue
		}
		sig, err := s.loader(r.InternalLocation)
		if err != nil {
			return nil, err
		}
		cand := primarySketch(sig, query)
		if cand == nil || !cand.IsScaled() {
			continue
		}
		bp, err := overlapBP(query, cand)
		if err != nil {
			continue
		}
		if bp >= thresholdBP {
			results = append(results, Match{Signature: sig, Location: r.InternalLocation, Measure: float64(bp)})
		}
	}
	return results, nil
}

// Save persists the manifest itself as CSV; the referenced
// collections are left untouched, since this variant never owns the
// signature bodies.
func (s *StandaloneManifestIndex) Save(path string) error {
	return manifest.Save(s.man, path)
}
