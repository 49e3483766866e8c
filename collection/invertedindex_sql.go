package collection

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
	_ "modernc.org/sqlite"
)

// SQLInvertedIndex is the relational-store-backed InvertedIndex spec
// §4.5.3 describes as typical: hash→signature-id postings live in a
// SQLite table, and signature bodies are stored as JSON blobs keyed by
// id, so the hot path of Search/Prefetch (hash lookup) stays a single
// indexed query instead of an in-memory map.
type SQLInvertedIndex struct {
	db     *sql.DB
	scaled uint64
	man    *manifest.Manifest
}

const sqlIndexSchema = `
CREATE TABLE IF NOT EXISTS sig_bodies (
	id       INTEGER PRIMARY KEY,
	location TEXT NOT NULL,
	name     TEXT NOT NULL,
	filename TEXT NOT NULL,
	body     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS postings (
	hash INTEGER NOT NULL,
	sig_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS postings_hash_idx ON postings(hash);
`

// BuildSQLInvertedIndex creates a fresh SQLite-backed inverted index
// at dbPath over sigs, all of whose relevant sketch must share scaled.
func BuildSQLInvertedIndex(dbPath string, scaled uint64, sigs []*signature.Signature, locations []string) (*SQLInvertedIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: open sqlite index %s: %w", dbPath, err)
	}
	if _, err := db.Exec("DROP TABLE IF EXISTS sig_bodies; DROP TABLE IF EXISTS postings;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqlIndexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sketchdb: create sqlite index schema: %w", err)
	}

	idx := &SQLInvertedIndex{db: db, scaled: scaled, man: manifest.New()}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, err
	}
	insertSig, err := tx.Prepare(`INSERT INTO sig_bodies (id, location, name, filename, body) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}
	insertPosting, err := tx.Prepare(`INSERT INTO postings (hash, sig_id) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}

	for i, sig := range sigs {
		var chosen *sketch.Sketch
		for _, sk := range sig.Sketches {
			if sk.IsScaled() && sk.Scaled == scaled {
				chosen = sk
				break
			}
		}
		if chosen == nil {
			tx.Rollback()
			db.Close()
			return nil, fmt.Errorf("sketchdb: signature %q has no sketch at scaled=%d", sig.Name, scaled)
		}

		body, err := json.Marshal(sig)
		if err != nil {
			tx.Rollback()
			db.Close()
			return nil, err
		}
		if _, err := insertSig.Exec(i, locations[i], sig.Name, sig.Filename, string(body)); err != nil {
			tx.Rollback()
			db.Close()
			return nil, err
		}
		for _, h := range chosen.Hashes() {
			if _, err := insertPosting.Exec(int64(h), i); err != nil {
				tx.Rollback()
				db.Close()
				return nil, err
			}
		}
		idx.man.Add(manifest.RowFromSketch(chosen, locations[i], sig.Name, sig.Filename))
	}
	insertSig.Close()
	insertPosting.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// OpenSQLInvertedIndex reopens an index built by BuildSQLInvertedIndex.
func OpenSQLInvertedIndex(dbPath string, scaled uint64) (*SQLInvertedIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: open sqlite index %s: %w", dbPath, err)
	}
	idx := &SQLInvertedIndex{db: db, scaled: scaled, man: manifest.New()}
	rows, err := db.Query(`SELECT location, name, filename, body FROM sig_bodies`)
	if err != nil {
		db.Close()
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var location, name, filename, body string
		if err := rows.Scan(&location, &name, &filename, &body); err != nil {
			db.Close()
			return nil, err
		}
		var sig signature.Signature
		if err := json.Unmarshal([]byte(body), &sig); err != nil {
			db.Close()
			return nil, err
		}
		for _, sk := range sig.Sketches {
			if sk.IsScaled() && sk.Scaled == scaled {
				idx.man.Add(manifest.RowFromSketch(sk, location, name, filename))
				break
			}
		}
	}
	return idx, rows.Err()
}

func (idx *SQLInvertedIndex) Close() error { return idx.db.Close() }

func (idx *SQLInvertedIndex) Len() int { return idx.man.Len() }

func (idx *SQLInvertedIndex) Manifest() *manifest.Manifest { return idx.man }

func (idx *SQLInvertedIndex) loadSignature(id int) (*signature.Signature, string, error) {
	var location, body string
	err := idx.db.QueryRow(`SELECT location, body FROM sig_bodies WHERE id = ?`, id).Scan(&location, &body)
	if err != nil {
		return nil, "", err
	}
	var sig signature.Signature
	if err := json.Unmarshal([]byte(body), &sig); err != nil {
		return nil, "", err
	}
	return &sig, location, nil
}

func (idx *SQLInvertedIndex) Each(visit func(sig *signature.Signature, location string) bool) error {
	rows, err := idx.db.Query(`SELECT id FROM sig_bodies ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		sig, loc, err := idx.loadSignature(id)
		if err != nil {
			return err
		}
		if !visit(sig, loc) {
			break
		}
	}
	return rows.Err()
}

// Select returns an in-memory LinearCollection view (the SQL index is
// query-shaped around hash lookups, not predicate scans; a picklist
// restriction here is cheap enough as a post-filter over the already
// tiny manifest).
func (idx *SQLInvertedIndex) Select(pred manifest.Predicate) Collection {
	filtered := idx.man.Filter(pred)
	keep := make(map[string]bool, filtered.Len())
	for _, r := range filtered.Rows {
		keep[r.InternalLocation] = true
	}
	var sigs []*signature.Signature
	var locs []string
	idx.Each(func(sig *signature.Signature, location string) bool {
		if keep[location] {
			sigs = append(sigs, sig)
			locs = append(locs, location)
		}
		return true
	})
	return NewLinear(sigs, locs)
}

func (idx *SQLInvertedIndex) tally(query *sketch.Sketch) (map[int]int, error) {
	counts := make(map[int]int)
	for _, h := range query.Hashes() {
		rows, err := idx.db.Query(`SELECT sig_id FROM postings WHERE hash = ?`, int64(h))
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var sigID int
			if err := rows.Scan(&sigID); err != nil {
				rows.Close()
				return nil, err
			}
			counts[sigID]++
		}
		rows.Close()
	}
	return counts, nil
}

func (idx *SQLInvertedIndex) Search(query *sketch.Sketch, threshold float64, kind Kind) ([]Match, error) {
	if !query.IsScaled() || query.Scaled != idx.scaled {
		return nil, fmt.Errorf("sketchdb: query scaled must equal index scaled (%d)", idx.scaled)
	}
	counts, err := idx.tally(query)
	if err != nil {
		return nil, err
	}
	var results []Match
	for sigID := range counts {
		sig, loc, err := idx.loadSignature(sigID)
		if err != nil {
			continue
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
			results = append(results, Match{Signature: sig, Location: loc, Measure: val})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Measure > results[j].Measure })
	return results, nil
}

func (idx *SQLInvertedIndex) Prefetch(query *sketch.Sketch, thresholdBP uint64) ([]Match, error) {
	if !query.IsScaled() || query.Scaled != idx.scaled {
		return nil, fmt.Errorf("sketchdb: query scaled must equal index scaled (%d)", idx.scaled)
	}
	counts, err := idx.tally(query)
	if err != nil {
		return nil, err
	}
	var results []Match
	for sigID, n := range counts {
		bp := uint64(n) * idx.scaled
		if bp < thresholdBP {
			continue
		}
		sig, loc, err := idx.loadSignature(sigID)
		if err != nil {
			continue
		}
		results = append(results, Match{Signature: sig, Location: loc, Measure: float64(bp)})
	}
	return results, nil
}

// Save is a no-op: the SQLite file at the path given to
// BuildSQLInvertedIndex already is the persisted form.
func (idx *SQLInvertedIndex) Save(path string) error { return nil }
