// Package signature implements the canonical on-disk signature format
// (spec §6.1): one or more sketches wrapped with display metadata, and
// the stable content digest (MD5) that identifies each sketch.
package signature

import (
	"encoding/json"
	"math"

	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/sketch"
)

// Signature is the in-memory form of spec §6.1's JSON schema: display
// metadata plus one or more sketches built from the same source
// sequence(s).
type Signature struct {
	Email        string
	License      string
	Name         string
	Filename     string
	HashFunction string
	Sketches     []*sketch.Sketch
}

// New wraps sketches with display metadata. HashFunction defaults to
// the schema's only defined value, "0.murmur64".
func New(name, filename string, sketches ...*sketch.Sketch) *Signature {
	return &Signature{
		License:      "CC0",
		Name:         name,
		Filename:     filename,
		HashFunction: "0.murmur64",
		Sketches:     sketches,
	}
}

// wireSignature mirrors the top-level JSON object of spec §6.1.
type wireSignature struct {
	Class        string        `json:"class"`
	Email        string        `json:"email"`
	License      string        `json:"license"`
	Name         *string       `json:"name"`
	Filename     *string       `json:"filename"`
	HashFunction string        `json:"hash_function"`
	Signatures   []wireSketch `json:"signatures"`
}

// wireSketch mirrors a single sketch object of spec §6.1.
type wireSketch struct {
	Ksize       int      `json:"ksize"`
	Seed        uint32   `json:"seed"`
	MaxHash     uint64   `json:"max_hash"`
	Num         uint64   `json:"num"`
	Molecule    string   `json:"molecule"`
	Mins        []uint64 `json:"mins"`
	Abundances  []uint32 `json:"abundances,omitempty"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON emits the canonical spec §6.1 schema.
func (s *Signature) MarshalJSON() ([]byte, error) {
	w := wireSignature{
		Class:        "sourmash_signature",
		Email:        s.Email,
		License:      s.License,
		Name:         strPtr(s.Name),
		Filename:     strPtr(s.Filename),
		HashFunction: s.HashFunction,
		Signatures:   make([]wireSketch, len(s.Sketches)),
	}
	for i, sk := range s.Sketches {
		ws := wireSketch{
			Ksize:    sk.Ksize,
			Seed:     sk.Seed,
			Molecule: sk.Moltype.String(),
			Mins:     sk.Hashes(),
		}
		if sk.IsScaled() {
			ws.MaxHash = math.MaxUint64 / sk.Scaled
			ws.Num = 0
		} else {
			ws.MaxHash = 0
			ws.Num = sk.Num
		}
		if sk.TrackAbundance {
			ws.Abundances = sk.Abundances()
		}
		w.Signatures[i] = ws
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the canonical spec §6.1 schema.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var w wireSignature
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Email = w.Email
	s.License = w.License
	if w.Name != nil {
		s.Name = *w.Name
	}
	if w.Filename != nil {
		s.Filename = *w.Filename
	}
	s.HashFunction = w.HashFunction

	s.Sketches = make([]*sketch.Sketch, len(w.Signatures))
	for i, ws := range w.Signatures {
		mt, err := hasher.ParseMolType(ws.Molecule)
		if err != nil {
			return err
		}
		trackAbundance := len(ws.Abundances) > 0

		var sk *sketch.Sketch
		if ws.Num > 0 {
			sk = sketch.NewNum(ws.Ksize, mt, ws.Seed, ws.Num, trackAbundance)
		} else {
			scaled := uint64(1)
			if ws.MaxHash > 0 {
				scaled = math.MaxUint64 / ws.MaxHash
			}
			sk = sketch.NewScaled(ws.Ksize, mt, ws.Seed, scaled, trackAbundance)
		}

		for j, m := range ws.Mins {
			abund := uint32(1)
			if trackAbundance {
				abund = ws.Abundances[j]
			}
			sk.SetHashAbundance(m, abund)
		}
		s.Sketches[i] = sk
	}
	return nil
}

// MD5 returns the content digest of Sketches[i].
func (s *Signature) MD5(i int) string { return MD5(s.Sketches[i]) }
