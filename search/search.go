// Package search implements the uniform Searcher operations of spec
// §4.6: search and prefetch over any Collection, partitioned across a
// bounded worker pool when more than one collection is queried.
package search

import (
	"sort"
	"sync"

	"github.com/smallnest/ringbuffer"

	"github.com/shenwei356/sketchdb/collection"
	"github.com/shenwei356/sketchdb/sketch"
)

// DefaultWorkers bounds how many collections are searched
// concurrently when callers don't specify a worker count.
const DefaultWorkers = 4

// Search implements spec §4.6 search(query, collection, threshold,
// kind) generalized to one or more collections: matches whose
// Kind-measure against query meets threshold, descending by measure,
// ties broken by collection input order and then by each collection's
// own traversal order (stable and documented).
func Search(query *sketch.Sketch, collections []collection.Collection, threshold float64, kind collection.Kind, workers int) ([]collection.Match, error) {
	if workers < 1 {
		workers = DefaultWorkers
	}
	perCollection, err := fanOut(len(collections), workers, func(i int) ([]collection.Match, error) {
		return collections[i].Search(query, threshold, kind)
	})
	if err != nil {
		return nil, err
	}

	var results []collection.Match
	for _, batch := range perCollection {
		results = append(results, batch...)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Measure > results[j].Measure })
	return results, nil
}

// Prefetch implements spec §4.6 prefetch(query, collection,
// threshold_bp): every signature across collections with estimated
// overlap at or above thresholdBP. Scaled-only. Output order is
// unspecified, per spec.
func Prefetch(query *sketch.Sketch, collections []collection.Collection, thresholdBP uint64, workers int) ([]collection.Match, error) {
	if workers < 1 {
		workers = DefaultWorkers
	}
	perCollection, err := fanOut(len(collections), workers, func(i int) ([]collection.Match, error) {
		return collections[i].Prefetch(query, thresholdBP)
	})
	if err != nil {
		return nil, err
	}

	var results []collection.Match
	for _, batch := range perCollection {
		results = append(results, batch...)
	}
	return results, nil
}

// fanOut runs work(0..n-1) across at most workers concurrent
// goroutines, using a ring-buffer token pool exactly as the teacher's
// multi-index search command bounds its worker count (ringbuffer is
// faster than a plain channel for this token-passing role). The
// first error encountered is returned; results preserve input order.
func fanOut(n, workers int, work func(i int) ([]collection.Match, error)) ([][]collection.Match, error) {
	results := make([][]collection.Match, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	tokens := ringbuffer.New(workers)
	for i := 0; i < n; i++ {
		wg.Add(1)
		tokens.WriteByte(0)
		go func(i int) {
			defer wg.Done()
			defer tokens.ReadByte()
			res, err := work(i)
			results[i] = res
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
