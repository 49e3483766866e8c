// Package gather implements the greedy min-set-cover decomposition of
// spec §4.7: repeatedly pick the candidate sketch with the largest
// remaining overlap against a query, report it, and subtract its
// hashes from what remains, until no candidate clears threshold_bp.
package gather

import (
	"fmt"
	"math"
	"sort"

	"github.com/shenwei356/sketchdb/sketch"
	"github.com/shenwei356/sketchdb/sketcherr"
)

// DefaultThresholdBP is the default minimum overlap (in bp) required
// to accept a gather result, per spec §4.7.
const DefaultThresholdBP = 50000

// Candidate is one reference sketch considered by Gather, typically
// the output of search.Prefetch.
type Candidate struct {
	Name     string
	Filename string
	MD5      string
	Sketch   *sketch.Sketch
}

// Result is one row of the gather output (spec §6.5's column set).
type Result struct {
	IntersectBP       uint64
	FOrigQuery        float64
	FMatch            float64
	FUniqueToQuery    float64
	FUniqueWeighted   float64
	AverageAbund      float64
	MedianAbund       float64
	StdAbund          float64
	Name              string
	Filename          string
	MD5               string
	FMatchOrig        float64
	UniqueIntersectBP uint64
	GatherResultRank  int
	RemainingBP       uint64
}

// Run implements spec §4.7. query and every candidate sketch must
// already share the same scaled value. Run takes no scaled override
// and performs no rescaling of its own (callers downsample beforehand
// with sketch.Downsample), so a mismatch is reported as an IncompatibleSketch error
// rather than silently realigned, keeping every intersect_bp figure
// directly comparable across results.
//
// query is never mutated; Gather works against an internal flattened
// copy. The original query's abundances (if any) are retained
// separately and used only for the weighted reporting fields.
func Run(query *sketch.Sketch, candidates []Candidate, thresholdBP uint64) ([]Result, error) {
	if !query.IsScaled() {
		return nil, fmt.Errorf("sketchdb: gather requires a scaled query sketch")
	}
	if thresholdBP == 0 {
		thresholdBP = DefaultThresholdBP
	}
	scaled := query.Scaled
	for _, c := range candidates {
		if c.Sketch.Scaled != scaled {
			return nil, sketcherr.NewIncompatibleSketch("scaled", scaled, c.Sketch.Scaled)
		}
	}

	origQueryLen := query.Len()
	origFlat := sketch.Flatten(query)
	remaining := sketch.Flatten(query)

	remainingCandidates := append([]Candidate(nil), candidates...)

	var results []Result
	rank := 0
	for {
		bestIdx, bestOverlapCount := pickBest(remaining, remainingCandidates)
		if bestIdx < 0 {
			break
		}
		bestOverlapBP := uint64(bestOverlapCount) * scaled
		if bestOverlapBP < thresholdBP {
			break
		}

		best := remainingCandidates[bestIdx]

		origOverlap, err := sketch.Intersect(origFlat, best.Sketch)
		if err != nil {
			return nil, err
		}
		origOverlapCount := origOverlap.Len()

		matchLen := best.Sketch.Len()

		r := Result{
			IntersectBP:       uint64(origOverlapCount) * scaled,
			FOrigQuery:        safeDiv(float64(origOverlapCount), float64(origQueryLen)),
			FMatch:            safeDiv(float64(bestOverlapCount), float64(matchLen)),
			FUniqueToQuery:    safeDiv(float64(bestOverlapCount), float64(origQueryLen)),
			Name:              best.Name,
			Filename:          best.Filename,
			MD5:               best.MD5,
			FMatchOrig:        safeDiv(float64(origOverlapCount), float64(matchLen)),
			UniqueIntersectBP: bestOverlapBP,
			GatherResultRank:  rank,
		}

		if query.TrackAbundance {
			uniqueOverlap, err := sketch.Intersect(remaining, best.Sketch)
			if err != nil {
				return nil, err
			}
			abunds := make([]float64, 0, uniqueOverlap.Len())
			var sumAbund, totalAbund float64
			for _, h := range query.Hashes() {
				totalAbund += float64(query.Abundance(h))
			}
			for _, h := range uniqueOverlap.Hashes() {
				a := float64(query.Abundance(h))
				abunds = append(abunds, a)
				sumAbund += a
			}
			r.AverageAbund, r.MedianAbund, r.StdAbund = abundStats(abunds)
			r.FUniqueWeighted = safeDiv(sumAbund, totalAbund)
		}

		results = append(results, r)

		newRemaining, err := sketch.Subtract(remaining, best.Sketch)
		if err != nil {
			return nil, err
		}
		remaining = newRemaining
		r.RemainingBP = uint64(remaining.Len()) * scaled
		results[len(results)-1] = r

		remainingCandidates = removeAt(remainingCandidates, bestIdx)
		remainingCandidates = pruneBelowThreshold(remaining, remainingCandidates, thresholdBP, scaled)

		rank++
	}

	return results, nil
}

// pickBest implements spec §4.7's argmax and tie-break rules: largest
// overlap(remaining,c); ties broken by largest |c|, then
// lexicographically smallest name, then input order (deterministic).
func pickBest(remaining *sketch.Sketch, candidates []Candidate) (int, int) {
	bestIdx := -1
	bestOverlap := -1
	bestLen := -1
	bestName := ""
	for i, c := range candidates {
		overlap, err := sketch.Intersect(remaining, c.Sketch)
		if err != nil {
			continue
		}
		count := overlap.Len()
		if count == 0 {
			continue
		}
		cLen := c.Sketch.Len()
		better := false
		switch {
		case count != bestOverlap:
			better = count > bestOverlap
		case cLen != bestLen:
			better = cLen > bestLen
		case c.Name != bestName:
			better = bestIdx == -1 || c.Name < bestName
		default:
			better = false
		}
		if better {
			bestIdx, bestOverlap, bestLen, bestName = i, count, cLen, c.Name
		}
	}
	return bestIdx, bestOverlap
}

func pruneBelowThreshold(remaining *sketch.Sketch, candidates []Candidate, thresholdBP, scaled uint64) []Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		overlap, err := sketch.Intersect(remaining, c.Sketch)
		if err != nil {
			continue
		}
		if uint64(overlap.Len())*scaled >= thresholdBP {
			out = append(out, c)
		}
	}
	return out
}

func removeAt(cs []Candidate, i int) []Candidate {
	out := make([]Candidate, 0, len(cs)-1)
	out = append(out, cs[:i]...)
	out = append(out, cs[i+1:]...)
	return out
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func abundStats(vals []float64) (mean, median, std float64) {
	if len(vals) == 0 {
		return 0, 0, 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	mean = sum / float64(len(vals))

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(n))
	return mean, median, std
}
