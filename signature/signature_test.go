package signature

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/sketch"
)

func TestMD5StableUnderInsertionOrder(t *testing.T) {
	a := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, false)
	b := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, false)

	forward := []uint64{10, 20, 30, 40}
	backward := []uint64{40, 30, 20, 10}
	a.AddMany(forward)
	b.AddMany(backward)

	if MD5(a) != MD5(b) {
		t.Errorf("MD5 depends on insertion order: %s != %s", MD5(a), MD5(b))
	}
}

func TestMD5DiffersOnAbundance(t *testing.T) {
	a := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, true)
	b := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, true)
	a.AddHash(10)
	b.AddHash(10)
	b.AddHash(10)
	if MD5(a) == MD5(b) {
		t.Error("MD5 should differ when abundances differ")
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	sk := sketch.NewScaled(21, hasher.DNA, hasher.DefaultSeed, 1000, true)
	sk.AddHash(10)
	sk.AddHash(10)
	sk.AddHash(20)

	sig := New("sample1", "sample1.fa", sk)

	data, err := json.Marshal(sig)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "sample1" {
		t.Errorf("name = %q, want sample1", got.Name)
	}
	if len(got.Sketches) != 1 {
		t.Fatalf("expected 1 sketch, got %d", len(got.Sketches))
	}
	rt := got.Sketches[0]
	if rt.Ksize != 21 || rt.Scaled != 1000 || !rt.TrackAbundance {
		t.Fatalf("round-tripped sketch attributes wrong: %+v", rt)
	}
	if rt.Abundance(10) != 2 || rt.Abundance(20) != 1 {
		t.Errorf("abundances did not round-trip: 10=%d 20=%d", rt.Abundance(10), rt.Abundance(20))
	}
	if MD5(rt) != MD5(sk) {
		t.Errorf("round-tripped sketch has a different MD5")
	}
}

func TestWireSchemaFieldNames(t *testing.T) {
	sk := sketch.NewNum(21, hasher.DNA, hasher.DefaultSeed, 500, false)
	sk.AddHash(5)
	sig := New("x", "", sk)
	data, err := json.Marshal(sig)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"class", "email", "license", "name", "filename", "hash_function", "signatures"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
	if raw["class"] != "sourmash_signature" {
		t.Errorf("class = %v, want sourmash_signature", raw["class"])
	}
}
