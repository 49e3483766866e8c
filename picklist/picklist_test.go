package picklist

import "testing"

func TestIdentPrefixStripsVersion(t *testing.T) {
	if got := identPrefix("GCF_000123.1 some description"); got != "GCF_000123" {
		t.Errorf("identPrefix = %q, want GCF_000123", got)
	}
	if got := identPrefix("GCF_000123 some description"); got != "GCF_000123" {
		t.Errorf("identPrefix = %q, want GCF_000123 (no version to strip)", got)
	}
}

func TestMatchesInclusiveOnly(t *testing.T) {
	pl := New(MD5Short, []string{"deadbeef"})
	if !pl.Matches("whatever", "deadbeefcafebabe00000000000000") {
		t.Error("expected md5short prefix match")
	}
	if pl.Matches("whatever", "0000000000000000000000000000000") {
		t.Error("unexpected match for a non-member md5")
	}
}

func TestMatchesName(t *testing.T) {
	pl := New(Name, []string{"sample A"})
	if !pl.Matches("sample A", "") {
		t.Error("expected exact name match")
	}
	if pl.Matches("sample B", "") {
		t.Error("unexpected match for a different name")
	}
}
