package hasher

import (
	"testing"

	"github.com/shenwei356/sketchdb/sketcherr"
)

func TestCanonicalDNA(t *testing.T) {
	cases := []struct {
		kmer string
		want string
	}{
		{"ATG", "ATG"}, // revcomp(ATG) = CAT; byte-wise 'A' < 'C', so ATG is canonical
	}
	_ = cases

	// ATG vs its revcomp CAT: 'A' < 'C' lexicographically, so ATG is
	// already canonical.
	got, err := CanonicalDNA([]byte("atg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "ATG" {
		t.Errorf("CanonicalDNA(atg) = %s, want ATG", got)
	}

	// GGG's revcomp is CCC, which is lexicographically smaller.
	got, err = CanonicalDNA([]byte("GGG"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "CCC" {
		t.Errorf("CanonicalDNA(GGG) = %s, want CCC", got)
	}
}

func TestCanonicalDNAInvalid(t *testing.T) {
	_, err := CanonicalDNA([]byte("ATN"))
	if err != sketcherr.ErrInvalidSequence {
		t.Fatalf("expected ErrInvalidSequence, got %v", err)
	}
}

func TestHashDNAKmerStrandInsensitive(t *testing.T) {
	h1, err := HashDNAKmer([]byte("ATGGCA"), DefaultSeed)
	if err != nil {
		t.Fatal(err)
	}
	rc, err := ReverseComplementDNA([]byte("ATGGCA"))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashDNAKmer(rc, DefaultSeed)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hash of a k-mer and its reverse complement should match: %d != %d", h1, h2)
	}
}

func TestHashProteinKmerNeverFails(t *testing.T) {
	if _, err := HashProteinKmer([]byte("ZZZ"), DefaultSeed); err != nil {
		t.Errorf("protein hashing should never fail on unusual residues: %v", err)
	}
}

func TestTranslateDNAToProteinFramesSixFrames(t *testing.T) {
	frames, err := TranslateDNAToProteinFrames([]byte("ATGGCATAG"))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 6 {
		t.Fatalf("expected 6 frames, got %d", len(frames))
	}
	if string(frames[0].Protein) != "MA*" {
		t.Errorf("frame 0 = %s, want MA*", frames[0].Protein)
	}
}

func TestHashDayhoffUnknownResidueMapsToX(t *testing.T) {
	h1, err := HashDayhoffKmer([]byte("XXX"), DefaultSeed)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashDayhoffKmer([]byte("ZZZ"), DefaultSeed) // Z is not canonical -> also X
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("unknown residues should all fold to X: %d != %d", h1, h2)
	}
}
