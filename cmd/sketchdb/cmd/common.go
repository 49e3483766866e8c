package cmd

import (
	"fmt"
	"strings"

	"github.com/shenwei356/sketchdb/collection"
	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

// openCollection loads a collection file, trying each on-disk format
// in turn. Collections are self-describing containers (zip magic vs.
// the SBT's internal descriptor vs. a standalone manifest CSV), so
// this probes rather than requiring a --kind flag at search/gather
// time, the way the teacher's db-search.go accepts any prebuilt
// .uniki/.unik index interchangeably.
func openCollection(path string) (collection.Collection, error) {
	if sbt, err := collection.LoadSBT(path); err == nil {
		return sbt, nil
	}
	if lc, err := collection.LoadZip(path); err == nil {
		return lc, nil
	}
	if strings.HasSuffix(path, ".csv") || strings.HasSuffix(path, ".csv.gz") {
		man, err := manifest.Load(path)
		if err == nil {
			return collection.NewStandaloneManifestIndex(man, collection.DirectoryLoader()), nil
		}
	}
	return nil, fmt.Errorf("sketchdb: %s is not a recognized collection file", path)
}

// loadQuerySketch loads a signature file and returns the sketch
// comparable at ksize/moltype, erroring out via checkError if none
// exists.
func loadQuerySketch(file string, ksize int, moltype hasher.MolType) (*signature.Signature, *sketch.Sketch) {
	sig, err := signature.Load(file)
	checkError(err)
	for _, sk := range sig.Sketches {
		if sk.Ksize == ksize && sk.Moltype == moltype {
			return sig, sk
		}
	}
	checkError(fmt.Errorf("%s: no sketch at ksize=%d moltype=%s", file, ksize, moltype))
	return nil, nil
}
