package collection

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
	"github.com/shenwei356/sketchdb/sketcherr"
)

// sbtNode is one node of the binary Sequence Bloom Tree: leaves hold a
// signature directly, internal nodes hold a Bloom filter over the
// union of hashes in their subtree (spec §4.5.2).
type sbtNode struct {
	left, right *sbtNode
	bloom       *bloomFilter
	leafSig     *signature.Signature
	leafSketch  *sketch.Sketch
	location    string
	size        int // upper bound on the number of distinct hashes below this node
}

func (n *sbtNode) isLeaf() bool { return n.left == nil && n.right == nil }

// SBT is a single-ksize, single-moltype, single-capacity-parameter
// Sequence Bloom Tree (spec §4.5.2).
type SBT struct {
	root     *sbtNode
	ksize    int
	moltype  string
	targetFP float64
	m, k     uint64
	manifest *manifest.Manifest
	leaves   []*sbtNode // in build order, for stable traversal-order tie-breaks
}

// BuildSBT builds a binary tree over sigs (each expected to carry
// exactly one sketch, per spec §6.4 "a signature containing exactly
// one sketch"). All sketches must share ksize, moltype and capacity
// parameter. Leaves are paired sequentially in input order; this is
// not a balanced/optimal tree but the search algorithm's correctness
// does not depend on tree shape, only on the Bloom filter's
// no-false-negative property.
func BuildSBT(sigs []*signature.Signature, locations []string, targetFP float64) (*SBT, error) {
	if len(sigs) == 0 {
		return nil, fmt.Errorf("sketchdb: cannot build an SBT over zero signatures")
	}
	if targetFP <= 0 {
		targetFP = 0.01
	}

	first := sigs[0].Sketches[0]
	ksize := first.Ksize
	moltype := first.Moltype.String()

	leaves := make([]*sbtNode, len(sigs))
	m := manifest.New()
	for i, sig := range sigs {
		sk := sig.Sketches[0]
		if sk.Ksize != ksize || sk.Moltype.String() != moltype {
			return nil, sketcherr.NewIncompatibleSketch("ksize/moltype", ksize, sk.Ksize)
		}
		if sk.Num != first.Num || sk.Scaled != first.Scaled {
			return nil, sketcherr.NewIncompatibleSketch("capacity", first.Scaled, sk.Scaled)
		}
		leaves[i] = &sbtNode{leafSig: sig, leafSketch: sk, location: locations[i], size: sk.Len()}
		m.Add(manifest.RowFromSketch(sk, locations[i], sig.Name, sig.Filename))
	}

	maxLeafSize := 1
	for _, l := range leaves {
		if l.size > maxLeafSize {
			maxLeafSize = l.size
		}
	}
	bm := optimalM(maxLeafSize*2, targetFP)
	bk := optimalK(bm, maxLeafSize*2)

	for _, l := range leaves {
		l.bloom = newBloomFilterParams(bm, bk)
		for _, h := range l.leafSketch.Hashes() {
			l.bloom.Add(h)
		}
	}

	level := leaves
	for len(level) > 1 {
		next := make([]*sbtNode, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			l, r := level[i], level[i+1]
			parent := &sbtNode{left: l, right: r, size: l.size + r.size}
			parent.bloom = newBloomFilterParams(bm, bk)
			parent.bloom.Union(l.bloom)
			parent.bloom.Union(r.bloom)
			next = append(next, parent)
		}
		level = next
	}

	return &SBT{
		root:     level[0],
		ksize:    ksize,
		moltype:  moltype,
		targetFP: targetFP,
		m:        bm,
		k:        bk,
		manifest: m,
		leaves:   leaves,
	}, nil
}

func (s *SBT) Len() int { return len(s.leaves) }

func (s *SBT) Manifest() *manifest.Manifest { return s.manifest }

func (s *SBT) Each(visit func(sig *signature.Signature, location string) bool) error {
	for _, l := range s.leaves {
		if !visit(l.leafSig, l.location) {
			break
		}
	}
	return nil
}

func (s *SBT) Select(pred manifest.Predicate) Collection {
	keep := make(map[string]bool)
	for _, r := range s.manifest.Filter(pred).Rows {
		keep[r.InternalLocation] = true
	}
	sigs := make([]*signature.Signature, 0)
	locs := make([]string, 0)
	for _, l := range s.leaves {
		if keep[l.location] {
			sigs = append(sigs, l.leafSig)
			locs = append(locs, l.location)
		}
	}
	sub, err := BuildSBT(sigs, locs, s.targetFP)
	if err != nil {
		return &LinearCollection{}
	}
	return sub
}

// bestFirstItem is a priority-queue entry for Search's best-first
// traversal, ranked by upper bound (highest first).
type bestFirstItem struct {
	node  *sbtNode
	bound float64
	seq   int // insertion order, for a stable pop order among equal bounds
}

type bestFirstQueue []*bestFirstItem

func (q bestFirstQueue) Len() int { return len(q) }
func (q bestFirstQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound > q[j].bound
	}
	return q[i].seq < q[j].seq
}
func (q bestFirstQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *bestFirstQueue) Push(x interface{}) { *q = append(*q, x.(*bestFirstItem)) }
func (q *bestFirstQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// upperBound estimates the best similarity any leaf under n could
// achieve against query's hash set, per kind. It is sound (never an
// under-estimate) because the Bloom filter never reports a false
// negative: a hash actually present in some descendant leaf always
// tests positive at every ancestor.
func upperBound(n *sbtNode, queryHashes []uint64, queryLen int, kind Kind) float64 {
	hits := n.bloom.countHits(queryHashes)
	switch kind {
	case Jaccard, Containment:
		if queryLen == 0 {
			return 0
		}
		return float64(hits) / float64(queryLen)
	case MaxContainment:
		if hits == 0 {
			return 0
		}
		// A tight bound would need the smallest possible descendant
		// size, which the node summary does not carry; 1.0 is a safe
		// (if loose) upper bound whenever any hit exists.
		return 1.0
	default:
		return 0
	}
}

// Search implements spec §4.5.2's best-first/DFS pruned search.
func (s *SBT) Search(query *sketch.Sketch, threshold float64, kind Kind) ([]Match, error) {
	if query.Ksize != s.ksize || query.Moltype.String() != s.moltype {
		return nil, sketcherr.NewIncompatibleSketch("ksize/moltype", query.Ksize, s.ksize)
	}
	queryHashes := query.Hashes()

	pq := &bestFirstQueue{}
	heap.Init(pq)
	seq := 0
	push := func(n *sbtNode) {
		b := upperBound(n, queryHashes, len(queryHashes), kind)
		if b < threshold {
			return
		}
		heap.Push(pq, &bestFirstItem{node: n, bound: b, seq: seq})
		seq++
	}
	push(s.root)

	var results []Match
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*bestFirstItem)
		n := item.node
		if n.isLeaf() {
			val, err := measure(query, n.leafSketch, kind)
			if err != nil {
				return nil, err
			}
			if val >= threshold {
				results = append(results, Match{Signature: n.leafSig, Location: n.location, Measure: val})
			}
			continue
		}
		if n.left != nil {
			push(n.left)
		}
		if n.right != nil {
			push(n.right)
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Measure > results[j].Measure })
	return results, nil
}

// Prefetch implements spec §4.6 prefetch: every leaf with estimated
// overlap (shared-hash count * scaled) at or above thresholdBP.
func (s *SBT) Prefetch(query *sketch.Sketch, thresholdBP uint64) ([]Match, error) {
	if !query.IsScaled() {
		return nil, fmt.Errorf("sketchdb: prefetch requires a scaled query sketch")
	}
	var results []Match
	for _, l := range s.leaves {
		if !l.leafSketch.IsScaled() {
			continue
		}
		bp, err := overlapBP(query, l.leafSketch)
		if err != nil {
			continue
		}
		if bp >= thresholdBP {
			results = append(results, Match{Signature: l.leafSig, Location: l.location, Measure: float64(bp)})
		}
	}
	return results, nil
}

// Save serializes the SBT container per spec §6.4: a zip file holding
// the tree descriptor (written as YAML, SBT-DESCRIPTOR.yml, not JSON),
// one Bloom-filter file per internal node, and one signature file per
// leaf.
func (s *SBT) Save(path string) error {
	return saveSBTZip(s, path)
}

// LoadSBT reads back an SBT container written by Save.
func LoadSBT(path string) (*SBT, error) {
	return loadSBTZip(path)
}
