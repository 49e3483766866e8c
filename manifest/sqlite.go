package manifest

import (
	"database/sql"
	"fmt"

	"github.com/shenwei356/sketchdb/hasher"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS manifest (
	internal_location TEXT NOT NULL,
	md5               TEXT NOT NULL,
	md5short          TEXT NOT NULL,
	ksize             INTEGER NOT NULL,
	moltype           TEXT NOT NULL,
	num               INTEGER NOT NULL,
	scaled            INTEGER NOT NULL,
	n_hashes          INTEGER NOT NULL,
	with_abundance    INTEGER NOT NULL,
	name              TEXT NOT NULL,
	filename          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS manifest_md5_idx ON manifest(md5);
CREATE INDEX IF NOT EXISTS manifest_md5short_idx ON manifest(md5short);
`

// SaveSQLite serializes m into a SQLite database at path, replacing
// any existing manifest table. This is the alternative to the CSV
// form of spec §4.4's serialize(csv|sqlite), used for manifests too
// large to scan linearly (many-million-signature collections).
func SaveSQLite(m *Manifest, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("sketchdb: open sqlite manifest: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("DROP TABLE IF EXISTS manifest"); err != nil {
		return err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sketchdb: create sqlite manifest schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO manifest
		(internal_location, md5, md5short, ksize, moltype, num, scaled, n_hashes, with_abundance, name, filename)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range m.Rows {
		if _, err := stmt.Exec(
			r.InternalLocation, r.MD5, r.MD5Short, r.Ksize, r.Moltype.String(),
			r.Num, r.Scaled, r.NHashes, boolToInt(r.WithAbundance), r.Name, r.Filename,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadSQLite reads every row of the manifest table at path.
func LoadSQLite(path string) (*Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: open sqlite manifest: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT internal_location, md5, md5short, ksize, moltype,
		num, scaled, n_hashes, with_abundance, name, filename FROM manifest`)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: query sqlite manifest: %w", err)
	}
	defer rows.Close()

	m := New()
	for rows.Next() {
		var r Row
		var moltypeStr string
		var withAbundance int
		if err := rows.Scan(
			&r.InternalLocation, &r.MD5, &r.MD5Short, &r.Ksize, &moltypeStr,
			&r.Num, &r.Scaled, &r.NHashes, &withAbundance, &r.Name, &r.Filename,
		); err != nil {
			return nil, err
		}
		mt, err := hasher.ParseMolType(moltypeStr)
		if err != nil {
			return nil, err
		}
		r.Moltype = mt
		r.WithAbundance = withAbundance != 0
		m.Add(r)
	}
	return m, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FilterSQLite filters at the database layer with whereClause, a raw
// SQL WHERE clause bound to args, avoiding a full row-by-row scan for simple equality
// predicates. It complements Filter (in-memory, arbitrary predicate)
// for manifests backed by a SQLite store too large to load wholesale.
func FilterSQLite(path, whereClause string, args ...interface{}) (*Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: open sqlite manifest: %w", err)
	}
	defer db.Close()

	query := `SELECT internal_location, md5, md5short, ksize, moltype,
		num, scaled, n_hashes, with_abundance, name, filename FROM manifest`
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: query sqlite manifest: %w", err)
	}
	defer rows.Close()

	m := New()
	for rows.Next() {
		var r Row
		var moltypeStr string
		var withAbundance int
		if err := rows.Scan(
			&r.InternalLocation, &r.MD5, &r.MD5Short, &r.Ksize, &moltypeStr,
			&r.Num, &r.Scaled, &r.NHashes, &withAbundance, &r.Name, &r.Filename,
		); err != nil {
			return nil, err
		}
		mt, err := hasher.ParseMolType(moltypeStr)
		if err != nil {
			return nil, err
		}
		r.Moltype = mt
		r.WithAbundance = withAbundance != 0
		m.Add(r)
	}
	return m, rows.Err()
}
