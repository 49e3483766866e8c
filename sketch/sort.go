package sketch

import "github.com/twotwotwo/sorts/sortutil"

// sortUint64s sorts hs ascending. FracMinHash sketches over
// metagenomes can reach into the millions of hashes, so we reach for
// the same parallel sort the teacher's set-operation commands use
// (github.com/twotwotwo/sorts's sortutil.Uint64s) rather than
// sort.Slice.
func sortUint64s(hs []uint64) {
	if len(hs) < 2 {
		return
	}
	sortutil.Uint64s(hs)
}
