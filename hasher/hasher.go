// Package hasher turns k-mer windows into canonical 64-bit hashes and
// translates DNA into the six reading frames used by protein-family
// sketches. It is the leaf of the sketch engine (spec §4.1): it never
// knows about capacity modes, only about turning bytes into a hash.
package hasher

import (
	"fmt"

	"github.com/spaolacci/murmur3"

	"github.com/shenwei356/sketchdb/sketcherr"
)

// DefaultSeed is the default MurmurHash3 seed used by sketches that
// don't override it.
const DefaultSeed = 42

// MolType identifies one of the four supported k-mer encodings.
type MolType uint8

const (
	// DNA hashes nucleotide k-mers, canonicalized by reverse complement.
	DNA MolType = iota
	// Protein hashes amino-acid k-mers as opaque bytes.
	Protein
	// Dayhoff hashes amino-acid k-mers translated through the 6-class
	// Dayhoff table.
	Dayhoff
	// HP hashes amino-acid k-mers translated through the
	// hydrophobic/polar 2-class table.
	HP
)

func (m MolType) String() string {
	switch m {
	case DNA:
		return "DNA"
	case Protein:
		return "protein"
	case Dayhoff:
		return "dayhoff"
	case HP:
		return "hp"
	default:
		return "unknown"
	}
}

// ParseMolType maps the JSON/CLI spelling of a molecule type to a
// MolType.
func ParseMolType(s string) (MolType, error) {
	switch s {
	case "DNA", "dna":
		return DNA, nil
	case "protein":
		return Protein, nil
	case "dayhoff":
		return Dayhoff, nil
	case "hp":
		return HP, nil
	default:
		return 0, fmt.Errorf("sketchdb: unknown moltype %q", s)
	}
}

// hashBytes feeds b through MurmurHash3 x64 128-bit with the given
// seed and returns the low 64 bits, per spec §4.1.
func hashBytes(b []byte, seed uint32) uint64 {
	lo, _ := murmur3.Sum128WithSeed(b, seed)
	return lo
}

// normalizeDNABase upper-cases a DNA letter and folds U to T. It
// returns false for anything outside {A,C,G,T,U} (case-insensitive).
func normalizeDNABase(b byte) (byte, bool) {
	switch b {
	case 'A', 'a':
		return 'A', true
	case 'C', 'c':
		return 'C', true
	case 'G', 'g':
		return 'G', true
	case 'T', 't', 'U', 'u':
		return 'T', true
	default:
		return 0, false
	}
}

// CanonicalDNA normalizes kmer (case-fold, U->T) and returns
// min(kmer, revcomp(kmer)) under byte-lexicographic order, which is
// the free strand-insensitive comparison property the whole sketch
// engine relies on (spec §9 "MinHash canonicalization").
func CanonicalDNA(kmer []byte) ([]byte, error) {
	norm := make([]byte, len(kmer))
	for i, b := range kmer {
		nb, ok := normalizeDNABase(b)
		if !ok {
			return nil, sketcherr.ErrInvalidSequence
		}
		norm[i] = nb
	}

	rc := make([]byte, len(norm))
	for i, b := range norm {
		rc[len(norm)-1-i] = complementBase[b]
	}

	if bytesLess(rc, norm) {
		return rc, nil
	}
	return norm, nil
}

func bytesLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// HashDNAKmer implements spec §4.1 hash_dna_kmer: canonicalize by
// reverse complement then hash with MurmurHash3 x64/128, keeping the
// low 64 bits. It fails on any base outside {A,C,G,T,U} (case
// insensitive); callers that want tolerant skipping of bad windows
// (spec's add_sequence(force=true)) must catch this error themselves.
func HashDNAKmer(kmer []byte, seed uint32) (uint64, error) {
	canon, err := CanonicalDNA(kmer)
	if err != nil {
		return 0, err
	}
	return hashBytes(canon, seed), nil
}

// HashProteinKmer implements spec §4.1 hash_protein_kmer: the k-mer is
// hashed as opaque bytes, with no reverse complement and no residue
// validation (any byte outside the 20 canonical letters is hashed
// as-is, per spec "for straight protein, the residue is hashed as-is").
func HashProteinKmer(kmer []byte, seed uint32) (uint64, error) {
	return hashBytes(kmer, seed), nil
}

// translateResidue maps b through table, defaulting anything not a
// key (ambiguous/ extended IUPAC amino acid codes) to 'X'.
func translateResidue(table map[byte]byte, b byte) byte {
	if v, ok := table[b]; ok {
		return v
	}
	return 'X'
}

// HashDayhoffKmer implements spec §4.1 hash_dayhoff_kmer.
func HashDayhoffKmer(kmer []byte, seed uint32) (uint64, error) {
	translated := make([]byte, len(kmer))
	for i, b := range kmer {
		translated[i] = translateResidue(dayhoffTable, b)
	}
	return hashBytes(translated, seed), nil
}

// HashHPKmer implements spec §4.1 hash_hp_kmer.
func HashHPKmer(kmer []byte, seed uint32) (uint64, error) {
	translated := make([]byte, len(kmer))
	for i, b := range kmer {
		translated[i] = translateResidue(hpTable, b)
	}
	return hashBytes(translated, seed), nil
}

// Hash dispatches to the moltype-appropriate hash function.
func Hash(moltype MolType, kmer []byte, seed uint32) (uint64, error) {
	switch moltype {
	case DNA:
		return HashDNAKmer(kmer, seed)
	case Protein:
		return HashProteinKmer(kmer, seed)
	case Dayhoff:
		return HashDayhoffKmer(kmer, seed)
	case HP:
		return HashHPKmer(kmer, seed)
	default:
		return 0, fmt.Errorf("sketchdb: unknown moltype %v", moltype)
	}
}

// ProteinFrame is one of the six reading frames produced by
// TranslateDNAToProteinFrames.
type ProteinFrame struct {
	Frame   int // 0,1,2 forward; 3,4,5 reverse-complement
	Protein []byte
}

// ReverseComplementDNA returns the reverse complement of a
// case-insensitive DNA sequence (U read as T), normalizing to
// uppercase ACGT. It returns an error on any non-ACGTU letter.
func ReverseComplementDNA(seq []byte) ([]byte, error) {
	out := make([]byte, len(seq))
	for i, b := range seq {
		nb, ok := normalizeDNABase(b)
		if !ok {
			return nil, sketcherr.ErrInvalidSequence
		}
		out[len(seq)-1-i] = complementBase[nb]
	}
	return out, nil
}

// TranslateDNAToProteinFrames implements spec §4.1
// translate_dna_to_protein_frames: six protein sequences, three
// forward frames and three reverse-complement frames, via the
// standard codon table. Stop codons translate to '*' and are kept.
// Any non-ACGTU letter in a codon makes that codon (and only that
// codon) translate to 'X', so one bad base doesn't discard an entire
// frame.
func TranslateDNAToProteinFrames(seq []byte) ([]ProteinFrame, error) {
	// Complement only valid bases; any other letter is carried over
	// unchanged so translateFrame turns its codon into 'X'.
	rc := make([]byte, len(seq))
	for i, b := range seq {
		if nb, ok := normalizeDNABase(b); ok {
			b = complementBase[nb]
		}
		rc[len(seq)-1-i] = b
	}

	frames := make([]ProteinFrame, 0, 6)
	for i := 0; i < 3; i++ {
		frames = append(frames, ProteinFrame{Frame: i, Protein: translateFrame(seq, i)})
	}
	for i := 0; i < 3; i++ {
		frames = append(frames, ProteinFrame{Frame: 3 + i, Protein: translateFrame(rc, i)})
	}
	return frames, nil
}

func translateFrame(seq []byte, offset int) []byte {
	n := (len(seq) - offset) / 3
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		start := offset + i*3
		codon := make([]byte, 3)
		valid := true
		for j := 0; j < 3; j++ {
			nb, ok := normalizeDNABase(seq[start+j])
			if !ok {
				valid = false
				break
			}
			codon[j] = nb
		}
		if !valid {
			out[i] = 'X'
			continue
		}
		if aa, ok := standardCodonTable[string(codon)]; ok {
			out[i] = aa
		} else {
			out[i] = 'X'
		}
	}
	return out
}
