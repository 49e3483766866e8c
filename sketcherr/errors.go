// Package sketcherr defines the typed error kinds shared by the sketch,
// signature, manifest, collection, search and gather packages.
package sketcherr

import "fmt"

// ErrInvalidSequence means an invalid residue was encountered while
// hashing in strict (non-tolerant) mode.
var ErrInvalidSequence = fmt.Errorf("sketchdb: invalid sequence")

// ErrNotFound means a search/gather found no match at or above the
// requested threshold. Not a hard failure, callers get an empty
// iterator instead of this error in practice; it exists for APIs that
// need to distinguish "no match" from "zero value".
var ErrNotFound = fmt.Errorf("sketchdb: not found")

// ErrNoSuchEntry means a picklist/selection referenced something that
// is not present in the manifest or collection.
var ErrNoSuchEntry = fmt.Errorf("sketchdb: no such entry")

// IncompatibleSketch is returned when two sketches disagree on one of
// seed, ksize, moltype or capacity mode and so cannot be compared or
// combined.
type IncompatibleSketch struct {
	Attribute string
	A, B      interface{}
}

func (e *IncompatibleSketch) Error() string {
	return fmt.Sprintf("sketchdb: incompatible sketches: %s differs (%v != %v)", e.Attribute, e.A, e.B)
}

// NewIncompatibleSketch builds an IncompatibleSketch naming the
// disagreeing attribute.
func NewIncompatibleSketch(attribute string, a, b interface{}) error {
	return &IncompatibleSketch{Attribute: attribute, A: a, B: b}
}

// InvalidDownsample is returned when a downsample target is smaller
// than the current scaled value, or larger than the current num value.
type InvalidDownsample struct {
	Reason string
}

func (e *InvalidDownsample) Error() string {
	return fmt.Sprintf("sketchdb: invalid downsample: %s", e.Reason)
}

// NewInvalidDownsample builds an InvalidDownsample error.
func NewInvalidDownsample(reason string) error {
	return &InvalidDownsample{Reason: reason}
}

// CorruptSignature means a signature file failed to deserialize.
type CorruptSignature struct {
	Reason string
}

func (e *CorruptSignature) Error() string {
	return fmt.Sprintf("sketchdb: corrupt signature: %s", e.Reason)
}

// CorruptManifest means a manifest file failed to deserialize.
type CorruptManifest struct {
	Reason string
}

func (e *CorruptManifest) Error() string {
	return fmt.Sprintf("sketchdb: corrupt manifest: %s", e.Reason)
}

// CorruptSBT means an SBT container failed to deserialize.
type CorruptSBT struct {
	Reason string
}

func (e *CorruptSBT) Error() string {
	return fmt.Sprintf("sketchdb: corrupt SBT: %s", e.Reason)
}

// InternalInvariantViolation is a fatal, unrecoverable programming-error
// condition. Callers should treat it like a panic: it indicates a bug
// in this package, not bad input.
type InternalInvariantViolation struct {
	Reason string
}

func (e *InternalInvariantViolation) Error() string {
	return fmt.Sprintf("sketchdb: internal invariant violation: %s", e.Reason)
}

// Abort panics with an InternalInvariantViolation. Per spec this class
// of error always aborts rather than propagating as a normal error
// return, mirroring the teacher's use of checkError-style fatal exits
// for conditions that indicate a bug rather than bad input.
func Abort(reason string) {
	panic(&InternalInvariantViolation{Reason: reason})
}
