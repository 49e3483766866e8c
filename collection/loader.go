package collection

import (
	"bytes"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/shenwei356/sketchdb/signature"
)

// DirectoryLoader builds a Loader for a StandaloneManifestIndex whose
// internal_location fields are plain uncompressed signature files on
// disk, memory-mapping each one rather than copying it through a
// buffered read, the way the teacher's util-search.go mmaps its .unik
// index files for random-access lookups across a large local
// collection. Gzipped or otherwise unmappable files fall back to
// signature.Load's ordinary buffered, gzip-transparent path.
func DirectoryLoader() Loader {
	return func(internalLocation string) (*signature.Signature, error) {
		sig, ok := tryMmapLoad(internalLocation)
		if ok {
			return sig, nil
		}
		sig, err := signature.Load(internalLocation)
		if err != nil {
			return nil, errors.Wrapf(err, "sketchdb: loading %s", internalLocation)
		}
		return sig, nil
	}
}

// tryMmapLoad attempts the memory-mapped fast path, returning ok=false
// on any failure (not mmap-able, not valid uncompressed JSON) so the
// caller can retry through the ordinary loader.
func tryMmapLoad(path string) (*signature.Signature, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, false
	}
	defer data.Unmap()

	sig, err := signature.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	return sig, true
}
