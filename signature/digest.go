package signature

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"

	"github.com/shenwei356/sketchdb/sketch"
)

// MD5 computes the stable content digest of a sketch per spec §4.3: a
// fixed-width encoding of its attributes (ksize, moltype, seed, num,
// scaled) concatenated with its sorted hash sequence (and abundances,
// when tracked), hashed with MD5. Insertion order never affects the
// result since Hashes() always returns the sorted view.
//
// This is deliberately stdlib-only (crypto/md5, encoding/binary): MD5
// here is a content fingerprint, not a security primitive, and no
// library in the retrieved examples offers anything a raw
// crypto/md5.Sum wouldn't just wrap.
func MD5(s *sketch.Sketch) string {
	h := md5.New()

	var hdr [8 * 5]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(s.Ksize))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(s.Moltype))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(s.Seed))
	binary.LittleEndian.PutUint64(hdr[24:32], s.Num)
	binary.LittleEndian.PutUint64(hdr[32:40], s.Scaled)
	h.Write(hdr[:])

	hashes := s.Hashes()
	var buf [8]byte
	for _, v := range hashes {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	if s.TrackAbundance {
		for _, a := range s.Abundances() {
			var abuf [4]byte
			binary.LittleEndian.PutUint32(abuf[:], a)
			h.Write(abuf[:])
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// MD5Short returns the first 8 hex characters of MD5(s), the
// manifest's md5short column.
func MD5Short(s *sketch.Sketch) string {
	full := MD5(s)
	return full[:8]
}
