package collection

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

// LinearCollection is an in-memory list, or a zip/directory on disk,
// of signatures (spec §4.5.1). Every operation iterates every
// signature; search is O(n).
type LinearCollection struct {
	sigs      []*signature.Signature
	locations []string
	man       *manifest.Manifest
}

// NewLinear wraps an in-memory list of signatures. If locations is nil,
// locations default to each signature's Name.
func NewLinear(sigs []*signature.Signature, locations []string) *LinearCollection {
	if locations == nil {
		locations = make([]string, len(sigs))
		for i, s := range sigs {
			locations[i] = s.Name
		}
	}
	m := synthesizeManifest(sigs, locations)
	return &LinearCollection{sigs: sigs, locations: locations, man: m}
}

// synthesizeManifest builds a Manifest from signatures directly, used
// when a collection has no manifest of its own on disk (spec open
// question: "a zip without a manifest auto-synthesizes one on first
// read").
func synthesizeManifest(sigs []*signature.Signature, locations []string) *manifest.Manifest {
	m := manifest.New()
	for i, sig := range sigs {
		for _, sk := range sig.Sketches {
			m.Add(manifest.RowFromSketch(sk, locations[i], sig.Name, sig.Filename))
		}
	}
	return m
}

func (c *LinearCollection) Len() int { return len(c.sigs) }

func (c *LinearCollection) Manifest() *manifest.Manifest { return c.man }

func (c *LinearCollection) Each(visit func(sig *signature.Signature, location string) bool) error {
	for i, sig := range c.sigs {
		if !visit(sig, c.locations[i]) {
			break
		}
	}
	return nil
}

func (c *LinearCollection) Select(pred manifest.Predicate) Collection {
	keep := make(map[string]bool)
	if c.man != nil {
		for _, r := range c.man.Filter(pred).Rows {
			keep[r.InternalLocation] = true
		}
	}
	sigs := make([]*signature.Signature, 0)
	locs := make([]string, 0)
	for i, sig := range c.sigs {
		if keep[c.locations[i]] {
			sigs = append(sigs, sig)
			locs = append(locs, c.locations[i])
		}
	}
	return NewLinear(sigs, locs)
}

func (c *LinearCollection) Search(query *sketch.Sketch, threshold float64, kind Kind) ([]Match, error) {
	var results []Match
	for i, sig := range c.sigs {
		cand := primarySketch(sig, query)
		if cand == nil {
			continue
		}
		val, err := measure(query, cand, kind)
		if err != nil {
			continue
		}
		if val >= threshold {
			results = append(results, Match{Signature: sig, Location: c.locations[i], Measure: val})
		}
	}
	// Descending by measure; ties broken by traversal (input) order,
	// which sort.SliceStable preserves.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Measure > results[j].Measure })
	return results, nil
}

func (c *LinearCollection) Prefetch(query *sketch.Sketch, thresholdBP uint64) ([]Match, error) {
	if !query.IsScaled() {
		return nil, fmt.Errorf("sketchdb: prefetch requires a scaled query sketch")
	}
	var results []Match
	for i, sig := range c.sigs {
		cand := primarySketch(sig, query)
		if cand == nil || !cand.IsScaled() {
			continue
		}
		bp, err := overlapBP(query, cand)
		if err != nil {
			continue
		}
		if bp >= thresholdBP {
			results = append(results, Match{Signature: sig, Location: c.locations[i], Measure: float64(bp)})
		}
	}
	return results, nil
}

// Save writes the collection as a zip archive: SOURMASH-MANIFEST.csv
// at the root plus one signature file per entry, per spec §6.2.
func (c *LinearCollection) Save(p string) error {
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("sketchdb: create zip %s: %w", p, err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	for i, sig := range c.sigs {
		loc := c.locations[i]
		if loc == "" {
			loc = fmt.Sprintf("signatures/%d.sig", i)
		}
		w, err := zw.Create(loc)
		if err != nil {
			zw.Close()
			return err
		}
		data, err := json.Marshal(sig)
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return err
		}
	}

	mw, err := zw.Create("SOURMASH-MANIFEST.csv")
	if err != nil {
		zw.Close()
		return err
	}
	if err := manifest.WriteCSV(mw, c.man); err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}

// LoadZip reads a zip collection written by Save (or a compatible
// third-party producer): the manifest when present, or a synthesized
// one built by decoding every signature file otherwise (spec: "a zip
// without a manifest auto-synthesizes one on first read").
func LoadZip(p string) (*LinearCollection, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: open zip %s: %w", p, err)
	}
	defer zr.Close()

	var man *manifest.Manifest
	sigFiles := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if path.Base(f.Name) == "SOURMASH-MANIFEST.csv" {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			man, err = manifest.ReadCSV(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			continue
		}
		if path.Ext(f.Name) == ".sig" || path.Ext(f.Name) == ".json" {
			sigFiles = append(sigFiles, f)
		}
	}

	sigs := make([]*signature.Signature, 0, len(sigFiles))
	locations := make([]string, 0, len(sigFiles))
	for _, f := range sigFiles {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		sig, err := signature.Decode(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
		locations = append(locations, f.Name)
	}

	c := &LinearCollection{sigs: sigs, locations: locations, man: man}
	if c.man == nil {
		c.man = synthesizeManifest(sigs, locations)
	}
	return c, nil
}
