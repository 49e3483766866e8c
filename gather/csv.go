package gather

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shenwei356/sketchdb/collection"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
)

// FromMatches converts the output of search.Prefetch into gather
// Candidates, picking from each signature the sketch comparable to
// query (matching ksize/moltype). Matches with no comparable sketch
// are skipped.
func FromMatches(matches []collection.Match, query *sketch.Sketch) []Candidate {
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		sk := comparableSketch(m.Signature, query)
		if sk == nil {
			continue
		}
		out = append(out, Candidate{
			Name:     m.Signature.Name,
			Filename: m.Signature.Filename,
			MD5:      signature.MD5(sk),
			Sketch:   sk,
		})
	}
	return out
}

func comparableSketch(sig *signature.Signature, query *sketch.Sketch) *sketch.Sketch {
	for _, sk := range sig.Sketches {
		if sk.Ksize == query.Ksize && sk.Moltype == query.Moltype {
			return sk
		}
	}
	return nil
}

var gatherHeader = []string{
	"intersect_bp", "f_orig_query", "f_match", "f_unique_to_query",
	"f_unique_weighted", "average_abund", "median_abund", "std_abund",
	"name", "filename", "md5", "f_match_orig", "unique_intersect_bp",
	"gather_result_rank", "remaining_bp",
	"query_filename", "query_name", "query_md5", "query_bp",
}

// QueryInfo carries the query-describing columns shared by every row
// of both the gather and prefetch CSVs.
type QueryInfo struct {
	Filename string
	Name     string
	MD5      string
	BP       uint64
}

// WriteGatherCSV writes results per spec §6.5's exact column order.
func WriteGatherCSV(w io.Writer, results []Result, q QueryInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(gatherHeader); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{
			strconv.FormatUint(r.IntersectBP, 10),
			formatFloat(r.FOrigQuery),
			formatFloat(r.FMatch),
			formatFloat(r.FUniqueToQuery),
			formatFloat(r.FUniqueWeighted),
			formatFloat(r.AverageAbund),
			formatFloat(r.MedianAbund),
			formatFloat(r.StdAbund),
			r.Name,
			r.Filename,
			r.MD5,
			formatFloat(r.FMatchOrig),
			strconv.FormatUint(r.UniqueIntersectBP, 10),
			strconv.Itoa(r.GatherResultRank),
			strconv.FormatUint(r.RemainingBP, 10),
			q.Filename, q.Name, q.MD5, strconv.FormatUint(q.BP, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var prefetchHeader = []string{
	"intersect_bp", "jaccard", "max_containment", "f_query_match", "f_match_query",
	"match_filename", "match_name", "match_md5", "match_bp",
	"query_filename", "query_name", "query_md5", "query_bp",
}

// PrefetchRow is one row of the prefetch CSV (spec §6.6).
type PrefetchRow struct {
	IntersectBP    uint64
	Jaccard        float64
	MaxContainment float64
	FQueryMatch    float64
	FMatchQuery    float64
	MatchFilename  string
	MatchName      string
	MatchMD5       string
	MatchBP        uint64
}

// BuildPrefetchRows computes every reporting field of spec §6.6 for
// one query against a set of candidates, with no subtraction or
// ordering beyond the input order (prefetch never removes overlap).
func BuildPrefetchRows(query *sketch.Sketch, candidates []Candidate) ([]PrefetchRow, error) {
	rows := make([]PrefetchRow, 0, len(candidates))
	for _, c := range candidates {
		overlap, err := sketch.Intersect(query, c.Sketch)
		if err != nil {
			return nil, err
		}
		count := overlap.Len()
		jac, err := sketch.Jaccard(query, c.Sketch)
		if err != nil {
			return nil, err
		}
		maxc, err := sketch.MaxContainment(query, c.Sketch)
		if err != nil {
			return nil, err
		}
		rows = append(rows, PrefetchRow{
			IntersectBP:    uint64(count) * query.Scaled,
			Jaccard:        jac,
			MaxContainment: maxc,
			FQueryMatch:    safeDiv(float64(count), float64(query.Len())),
			FMatchQuery:    safeDiv(float64(count), float64(c.Sketch.Len())),
			MatchFilename:  c.Filename,
			MatchName:      c.Name,
			MatchMD5:       c.MD5,
			MatchBP:        uint64(c.Sketch.Len()) * c.Sketch.Scaled,
		})
	}
	return rows, nil
}

// WritePrefetchCSV writes rows per spec §6.6's exact column order.
func WritePrefetchCSV(w io.Writer, rows []PrefetchRow, q QueryInfo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(prefetchHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatUint(r.IntersectBP, 10),
			formatFloat(r.Jaccard),
			formatFloat(r.MaxContainment),
			formatFloat(r.FQueryMatch),
			formatFloat(r.FMatchQuery),
			r.MatchFilename, r.MatchName, r.MatchMD5,
			strconv.FormatUint(r.MatchBP, 10),
			q.Filename, q.Name, q.MD5, strconv.FormatUint(q.BP, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
