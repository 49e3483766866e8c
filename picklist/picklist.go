// Package picklist implements PicklistSpec-driven selection (spec
// §4.8): a predicate over a fixed identifier column that keeps only
// the rows whose derived key appears in a supplied value set.
package picklist

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/shenwei356/sketchdb/iostreams"
)

// Column identifies which field of a manifest row/signature the
// picklist key is derived from.
type Column string

const (
	Name        Column = "name"
	Ident       Column = "ident"
	IdentPrefix Column = "identprefix"
	MD5         Column = "md5"
	MD5Prefix8  Column = "md5prefix8"
	MD5Short    Column = "md5short"
)

// ParseColumn validates s against the six supported column kinds.
func ParseColumn(s string) (Column, error) {
	switch Column(s) {
	case Name, Ident, IdentPrefix, MD5, MD5Prefix8, MD5Short:
		return Column(s), nil
	default:
		return "", fmt.Errorf("sketchdb: unknown picklist column %q", s)
	}
}

// Picklist is a predicate defined by (column, value-set). Selection is
// purely inclusive: a row passes iff its derived key is in Values.
type Picklist struct {
	Column Column
	Values map[string]bool
}

// New builds a Picklist from an explicit value list.
func New(column Column, values []string) *Picklist {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return &Picklist{Column: column, Values: set}
}

// Load reads a one-value-per-line (or single-column CSV) picklist file
// for the given column, trimming surrounding whitespace and ignoring
// blank lines, mirroring the teacher's plain-text set-file convention
// (unikmer's checkFiles/set-operation inputs).
func Load(column Column, file string) (*Picklist, error) {
	br, f, err := iostreams.InStream(file)
	if err != nil {
		return nil, err
	}
	if f != nil {
		defer f.Close()
	}

	values := make([]string, 0, 128)
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if idx := strings.IndexByte(line, ','); idx >= 0 {
			line = line[:idx]
		}
		values = append(values, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(column, values), nil
}

// deriveKey derives the candidate key for column from a (name, md5)
// pair. Rows are matched on the single key that corresponds to p.Column.
func deriveKey(column Column, name, md5 string) string {
	switch column {
	case Name:
		return name
	case Ident:
		return ident(name)
	case IdentPrefix:
		return identPrefix(name)
	case MD5:
		return md5
	case MD5Prefix8, MD5Short:
		if len(md5) >= 8 {
			return md5[:8]
		}
		return md5
	default:
		return ""
	}
}

// Matches reports whether (name, md5) passes the picklist.
func (p *Picklist) Matches(name, md5 string) bool {
	return p.Values[deriveKey(p.Column, name, md5)]
}

// ident is the first whitespace-delimited token of name.
func ident(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// identPrefix strips a trailing ".N" version suffix from ident(name).
func identPrefix(name string) string {
	id := ident(name)
	if idx := strings.LastIndexByte(id, '.'); idx >= 0 {
		suffix := id[idx+1:]
		if suffix != "" && isAllDigits(suffix) {
			return id[:idx]
		}
	}
	return id
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
