// Package iostreams provides the buffered, gzip-transparent file I/O
// helpers shared by the signature, manifest and collection packages.
// Gzip framing is detected by magic bytes, never by file suffix, so a
// signature file can be gzip-framed regardless of its name (spec: "a
// signature file is JSON (optionally gzip-framed, detected by magic
// bytes, not by suffix)").
package iostreams

import (
	"bufio"
	"fmt"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// OutStream opens file for writing, optionally gzip-wrapped. "-" means
// stdout. The returned io.WriteCloser is nil when gzipped is false.
func OutStream(file string, gzipped bool, level int) (*bufio.Writer, io.WriteCloser, *os.File, error) {
	var w *os.File
	var err error
	if file == "-" {
		w = os.Stdout
	} else {
		w, err = os.Create(file)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fail to write %s: %w", file, err)
		}
	}

	if gzipped {
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fail to create gzip writer for %s: %w", file, err)
		}
		return bufio.NewWriterSize(gw, os.Getpagesize()), gw, w, nil
	}
	return bufio.NewWriterSize(w, os.Getpagesize()), nil, w, nil
}

// InStream opens file for reading, transparently unwrapping gzip
// framing when the leading magic bytes are present. "-" means stdin.
func InStream(file string) (*bufio.Reader, *os.File, error) {
	var r *os.File
	var err error
	if file == "-" {
		if !detectStdin() {
			return nil, nil, fmt.Errorf("sketchdb: stdin not detected")
		}
		r = os.Stdin
	} else {
		r, err = os.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("fail to read %s: %w", file, err)
		}
	}

	br := bufio.NewReaderSize(r, os.Getpagesize())

	gzipped, err := checkMagic(br, gzipMagic)
	if err != nil {
		return br, r, nil // empty/short file: let the caller's decoder report the real error
	}
	if gzipped {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, r, fmt.Errorf("fail to create gzip reader for %s: %w", file, err)
		}
		br = bufio.NewReaderSize(gr, os.Getpagesize())
	}

	return br, r, nil
}

// IsStdin reports whether file names the stdin placeholder.
func IsStdin(file string) bool { return file == "-" }

// IsStdout reports whether file names the stdout placeholder.
func IsStdout(file string) bool { return file == "-" }

func checkMagic(b *bufio.Reader, magic []byte) (bool, error) {
	peeked, err := b.Peek(len(magic))
	if err != nil {
		return false, err
	}
	for i := range magic {
		if peeked[i] != magic[i] {
			return false, nil
		}
	}
	return true, nil
}

func detectStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
