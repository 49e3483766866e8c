package gather

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/sketch"
)

func scaledSketch(trackAbund bool) *sketch.Sketch {
	return sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 10, trackAbund)
}

func addRange(sk *sketch.Sketch, lo, hi uint64) {
	for h := lo; h < hi; h++ {
		sk.AddHash(h)
	}
}

// Concrete scenario 3 (spec §8): two equal-sized, disjoint genomes A
// and B, each contributing half the query's hashes; query carries the
// A-half at 10x the abundance of the B-half. Weighted gather should
// attribute ~0.91 of the query to A and ~0.09 to B; unweighted gather
// (no abundance) should split evenly, ~0.5/0.5.
func TestAbundanceWeightedGatherScenario(t *testing.T) {
	query := scaledSketch(true)
	for h := uint64(0); h < 100; h++ {
		for i := 0; i < 10; i++ {
			query.AddHash(h)
		}
	}
	for h := uint64(100); h < 200; h++ {
		query.AddHash(h)
	}

	aSketch := scaledSketch(false)
	addRange(aSketch, 0, 100)
	bSketch := scaledSketch(false)
	addRange(bSketch, 100, 200)

	candidates := []Candidate{
		{Name: "A", Sketch: aSketch},
		{Name: "B", Sketch: bSketch},
	}

	results, err := Run(query, candidates, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}

	if math.Abs(byName["A"].FUniqueWeighted-0.909) > 0.01 {
		t.Errorf("A weighted fraction = %v, want ~0.909", byName["A"].FUniqueWeighted)
	}
	if math.Abs(byName["B"].FUniqueWeighted-0.0909) > 0.01 {
		t.Errorf("B weighted fraction = %v, want ~0.0909", byName["B"].FUniqueWeighted)
	}

	flat := scaledSketch(false)
	for h := uint64(0); h < 200; h++ {
		flat.AddHash(h)
	}
	flatResults, err := Run(flat, candidates, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range flatResults {
		if math.Abs(r.FUniqueToQuery-0.5) > 0.001 {
			t.Errorf("unweighted fraction for %s = %v, want 0.5", r.Name, r.FUniqueToQuery)
		}
	}
}

// Termination guarantee (spec §8): the number of reported results
// never exceeds ceil(|query|*scaled / threshold_bp).
func TestGatherTerminationBound(t *testing.T) {
	query := scaledSketch(false)
	addRange(query, 0, 1000)

	var candidates []Candidate
	for i := 0; i < 50; i++ {
		sk := scaledSketch(false)
		lo := uint64(i * 20)
		addRange(sk, lo, lo+20)
		candidates = append(candidates, Candidate{Name: fmt.Sprintf("ref%02d", i), Sketch: sk})
	}

	thresholdBP := uint64(50)
	results, err := Run(query, candidates, thresholdBP)
	if err != nil {
		t.Fatal(err)
	}

	queryBP := uint64(query.Len()) * query.Scaled
	maxResults := int((queryBP + thresholdBP - 1) / thresholdBP)
	if len(results) > maxResults {
		t.Fatalf("got %d results, exceeds bound %d", len(results), maxResults)
	}
}

// f_unique_to_query must be non-increasing across successive results,
// since each pick claims a subset of what remains.
func TestGatherResultsNonIncreasing(t *testing.T) {
	query := scaledSketch(false)
	addRange(query, 0, 300)

	var candidates []Candidate
	for i := 0; i < 10; i++ {
		sk := scaledSketch(false)
		lo := uint64(i * 30)
		addRange(sk, lo, lo+30)
		candidates = append(candidates, Candidate{Name: fmt.Sprintf("ref%02d", i), Sketch: sk})
	}

	results, err := Run(query, candidates, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].FUniqueToQuery > results[i-1].FUniqueToQuery {
			t.Fatalf("f_unique_to_query increased at result %d: %v then %v",
				i, results[i-1].FUniqueToQuery, results[i].FUniqueToQuery)
		}
	}
}

func TestGatherTieBreakLexicographic(t *testing.T) {
	query := scaledSketch(false)
	addRange(query, 0, 10)

	skA := scaledSketch(false)
	addRange(skA, 0, 10)
	skB := scaledSketch(false)
	addRange(skB, 0, 10)

	candidates := []Candidate{
		{Name: "zeta", Sketch: skA},
		{Name: "alpha", Sketch: skB},
	}

	results, err := Run(query, candidates, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Name != "alpha" {
		t.Fatalf("expected 'alpha' to win the tie, got results=%v", results)
	}
}

func TestWriteGatherCSVColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	err := WriteGatherCSV(&buf, []Result{{Name: "x", Filename: "x.fa", MD5: "abc"}}, QueryInfo{Name: "q"})
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := "intersect_bp,f_orig_query,f_match,f_unique_to_query,f_unique_weighted,average_abund,median_abund,std_abund,name,filename,md5,f_match_orig,unique_intersect_bp,gather_result_rank,remaining_bp,query_filename,query_name,query_md5,query_bp"
	assert.Equal(t, want, lines[0])
}

func TestWritePrefetchCSVColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	err := WritePrefetchCSV(&buf, []PrefetchRow{{MatchName: "x"}}, QueryInfo{Name: "q"})
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := "intersect_bp,jaccard,max_containment,f_query_match,f_match_query,match_filename,match_name,match_md5,match_bp,query_filename,query_name,query_md5,query_bp"
	assert.Equal(t, want, lines[0])
}
