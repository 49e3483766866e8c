package signature

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shenwei356/sketchdb/iostreams"
	"github.com/shenwei356/sketchdb/sketcherr"
)

// Load reads a single signature from file. Gzip framing is detected
// transparently by magic bytes (spec: "optionally gzip-framed,
// detected by magic bytes, not by suffix").
func Load(file string) (*Signature, error) {
	br, f, err := iostreams.InStream(file)
	if err != nil {
		return nil, err
	}
	if f != nil {
		defer f.Close()
	}
	return Decode(br)
}

// Decode parses a single signature from r.
func Decode(r io.Reader) (*Signature, error) {
	var s Signature
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, &sketcherr.CorruptSignature{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return &s, nil
}

// Save writes s to file, gzip-compressing when gzipped is true.
func Save(s *Signature, file string, gzipped bool, level int) error {
	bw, wc, f, err := iostreams.OutStream(file, gzipped, level)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(bw)
	if err := enc.Encode(s); err != nil {
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
