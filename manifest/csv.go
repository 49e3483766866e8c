package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/iostreams"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketch"
	"github.com/shenwei356/sketchdb/sketcherr"
)

// header is the exact column order required by spec §6.3.
var header = []string{
	"internal_location", "md5", "md5short", "ksize", "moltype",
	"num", "scaled", "n_hashes", "with_abundance", "name", "filename",
}

// RowFromSketch builds the catalog Row describing sk, located at
// internalLocation within its collection.
func RowFromSketch(sk *sketch.Sketch, internalLocation, name, filename string) Row {
	md5 := signature.MD5(sk)
	return Row{
		InternalLocation: internalLocation,
		MD5:              md5,
		MD5Short:         md5[:8],
		Ksize:            sk.Ksize,
		Moltype:          sk.Moltype,
		Num:              sk.Num,
		Scaled:           sk.Scaled,
		NHashes:          sk.Len(),
		WithAbundance:    sk.TrackAbundance,
		Name:             name,
		Filename:         filename,
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Save serializes m as CSV to file, gzip-compressing when file ends in
// ".gz" (spec §6.3 "gzip allowed when the filename ends in .gz" —
// this is the one place the format cares about suffix rather than
// magic bytes, since there is no content yet to sniff before writing).
func Save(m *Manifest, file string) error {
	gzipped := hasGzipSuffix(file)
	bw, wc, f, err := iostreams.OutStream(file, gzipped, 6)
	if err != nil {
		return err
	}
	if err := WriteCSV(bw, m); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if wc != nil {
		if err := wc.Close(); err != nil {
			return err
		}
	}
	if f != nil && !iostreams.IsStdout(file) {
		return f.Close()
	}
	return nil
}

// Load reads a manifest CSV from file, transparently unwrapping gzip
// by magic bytes on read (only the write path is suffix-driven).
func Load(file string) (*Manifest, error) {
	br, f, err := iostreams.InStream(file)
	if err != nil {
		return nil, err
	}
	if f != nil {
		defer f.Close()
	}
	return ReadCSV(br)
}

// WriteCSV writes m's CSV form (header plus one row per sketch) to w.
func WriteCSV(w io.Writer, m *Manifest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range m.Rows {
		rec := []string{
			r.InternalLocation,
			r.MD5,
			r.MD5Short,
			strconv.Itoa(r.Ksize),
			r.Moltype.String(),
			strconv.FormatUint(r.Num, 10),
			strconv.FormatUint(r.Scaled, 10),
			strconv.Itoa(r.NHashes),
			boolDigit(r.WithAbundance),
			r.Name,
			r.Filename,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a manifest CSV (header plus one row per sketch) from r.
func ReadCSV(r io.Reader) (*Manifest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &sketcherr.CorruptManifest{Reason: fmt.Sprintf("invalid CSV: %v", err)}
	}
	if len(records) == 0 {
		return nil, &sketcherr.CorruptManifest{Reason: "empty manifest file"}
	}
	if !equalHeader(records[0]) {
		return nil, &sketcherr.CorruptManifest{Reason: fmt.Sprintf("unexpected header: %v", records[0])}
	}

	m := New()
	for i, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, &sketcherr.CorruptManifest{Reason: fmt.Sprintf("row %d: %v", i+1, err)}
		}
		m.Add(row)
	}
	return m, nil
}

func equalHeader(rec []string) bool {
	if len(rec) != len(header) {
		return false
	}
	for i := range header {
		if rec[i] != header[i] {
			return false
		}
	}
	return true
}

func parseRow(rec []string) (Row, error) {
	if len(rec) != len(header) {
		return Row{}, fmt.Errorf("expected %d fields, got %d", len(header), len(rec))
	}
	ksize, err := strconv.Atoi(rec[3])
	if err != nil {
		return Row{}, fmt.Errorf("ksize: %w", err)
	}
	mt, err := hasher.ParseMolType(rec[4])
	if err != nil {
		return Row{}, err
	}
	num, err := strconv.ParseUint(rec[5], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("num: %w", err)
	}
	scaled, err := strconv.ParseUint(rec[6], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("scaled: %w", err)
	}
	nHashes, err := strconv.Atoi(rec[7])
	if err != nil {
		return Row{}, fmt.Errorf("n_hashes: %w", err)
	}
	withAbundance := rec[8] == "1"

	return Row{
		InternalLocation: rec[0],
		MD5:              rec[1],
		MD5Short:         rec[2],
		Ksize:            ksize,
		Moltype:          mt,
		Num:              num,
		Scaled:           scaled,
		NHashes:          nHashes,
		WithAbundance:    withAbundance,
		Name:             rec[9],
		Filename:         rec[10],
	}, nil
}

func hasGzipSuffix(file string) bool {
	return len(file) > 3 && file[len(file)-3:] == ".gz"
}
