// Package manifest implements the Manifest catalog (spec §4.4): an
// ordered list of ManifestRow, one per sketch, supporting predicate
// selection and lazy batched loading without touching the sketches
// themselves.
package manifest

import (
	"github.com/shenwei356/sketchdb/hasher"
	"github.com/shenwei356/sketchdb/picklist"
)

// Row is one catalog entry, corresponding to a single sketch (spec
// §6.3's CSV columns).
type Row struct {
	InternalLocation string
	MD5              string
	MD5Short         string
	Ksize            int
	Moltype          hasher.MolType
	Num              uint64
	Scaled           uint64
	NHashes          int
	WithAbundance    bool
	Name             string
	Filename         string
}

// Manifest is an ordered catalog of Rows.
type Manifest struct {
	Rows []Row
}

// New builds an empty Manifest.
func New() *Manifest { return &Manifest{} }

// Add appends a row.
func (m *Manifest) Add(r Row) { m.Rows = append(m.Rows, r) }

// Len returns the number of rows.
func (m *Manifest) Len() int { return len(m.Rows) }

// Predicate is a filter over a single Row, used by Filter.
type Predicate func(Row) bool

// Filter implements spec §4.4 filter(predicate): a new Manifest
// containing only rows for which pred returns true. The original
// Manifest and its row order are untouched.
func (m *Manifest) Filter(pred Predicate) *Manifest {
	out := New()
	for _, r := range m.Rows {
		if pred(r) {
			out.Add(r)
		}
	}
	return out
}

// KsizeEquals builds a predicate matching an exact k-mer size.
func KsizeEquals(k int) Predicate {
	return func(r Row) bool { return r.Ksize == k }
}

// MoltypeEquals builds a predicate matching an exact moltype.
func MoltypeEquals(mt hasher.MolType) Predicate {
	return func(r Row) bool { return r.Moltype == mt }
}

// ScaledEquals builds a predicate matching an exact scaled value (0
// matches exactly the num-mode rows).
func ScaledEquals(scaled uint64) Predicate {
	return func(r Row) bool { return r.Scaled == scaled }
}

// NumEquals builds a predicate matching an exact num value (0
// matches exactly the scaled-mode rows).
func NumEquals(num uint64) Predicate {
	return func(r Row) bool { return r.Num == num }
}

// WithAbundance builds a predicate matching rows that do (or do not)
// track abundance.
func WithAbundance(want bool) Predicate {
	return func(r Row) bool { return r.WithAbundance == want }
}

// ByPicklist builds a predicate delegating to pl.Matches(name, md5)
// per spec §4.8.
func ByPicklist(pl *picklist.Picklist) Predicate {
	return func(r Row) bool { return pl.Matches(r.Name, r.MD5) }
}

// RowGroupsByInternalLocation implements spec §4.4
// row_groups_by_internal_location: rows bucketed by InternalLocation,
// in first-seen order, so a caller can batch loads from the same
// container file.
func (m *Manifest) RowGroupsByInternalLocation() []RowGroup {
	order := make([]string, 0)
	groups := make(map[string][]Row)
	for _, r := range m.Rows {
		if _, seen := groups[r.InternalLocation]; !seen {
			order = append(order, r.InternalLocation)
		}
		groups[r.InternalLocation] = append(groups[r.InternalLocation], r)
	}
	out := make([]RowGroup, len(order))
	for i, loc := range order {
		out[i] = RowGroup{InternalLocation: loc, Rows: groups[loc]}
	}
	return out
}

// RowGroup is one batch of rows sharing an InternalLocation.
type RowGroup struct {
	InternalLocation string
	Rows             []Row
}
