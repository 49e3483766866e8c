package collection

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/shenwei356/sketchdb/manifest"
	"github.com/shenwei356/sketchdb/signature"
	"github.com/shenwei356/sketchdb/sketcherr"
)

// manifestFromLeaves rebuilds the catalog view of an SBT loaded from
// disk, one row per leaf signature.
func manifestFromLeaves(leaves []*sbtNode) *manifest.Manifest {
	m := manifest.New()
	for _, l := range leaves {
		m.Add(manifest.RowFromSketch(l.leafSketch, l.location, l.leafSig.Name, l.leafSig.Filename))
	}
	return m
}

// sbtDescriptor mirrors spec §6.4's tree descriptor: fan-out (always
// 2), Bloom parameters, factory parameters and the node-ID→file-path
// mapping. Serialized as YAML, the same _db.yml-style sidecar format
// the teacher's index commands use for compatibility metadata.
type sbtDescriptor struct {
	FanOut   int               `yaml:"fanout"`
	BloomM   uint64            `yaml:"bloom_m"`
	BloomK   uint64            `yaml:"bloom_k"`
	TargetFP float64           `yaml:"target_fp"`
	Ksize    int               `yaml:"ksize"`
	Moltype  string            `yaml:"moltype"`
	Nodes    map[string]string `yaml:"nodes"` // node id -> file path within the zip, "" for absent children
	Leaves   map[string]bool   `yaml:"leaves"`
	RootID   string            `yaml:"root"`
	LeftOf   map[string]string `yaml:"left_of"`
	RightOf  map[string]string `yaml:"right_of"`
}

// saveSBTZip implements spec §6.4: a zip file containing a tree
// descriptor (YAML, SBT-DESCRIPTOR.yml; no JSON form is written or
// read), one file per internal node (its Bloom filter bits) and
// one file per leaf (a single-sketch signature).
func saveSBTZip(s *SBT, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sketchdb: create SBT zip %s: %w", path, err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	desc := sbtDescriptor{
		FanOut:   2,
		BloomM:   s.m,
		BloomK:   s.k,
		TargetFP: s.targetFP,
		Ksize:    s.ksize,
		Moltype:  s.moltype,
		Nodes:    map[string]string{},
		Leaves:   map[string]bool{},
		LeftOf:   map[string]string{},
		RightOf:  map[string]string{},
	}

	id := 0
	nextID := func() string {
		id++
		return "node" + strconv.Itoa(id)
	}

	var walk func(n *sbtNode) (string, error)
	walk = func(n *sbtNode) (string, error) {
		nodeID := nextID()
		if n.isLeaf() {
			path := "leaves/" + nodeID + ".sig"
			desc.Nodes[nodeID] = path
			desc.Leaves[nodeID] = true

			w, err := zw.Create(path)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(n.leafSig)
			if err != nil {
				return "", err
			}
			if _, err := w.Write(data); err != nil {
				return "", err
			}
			return nodeID, nil
		}

		path := "nodes/" + nodeID + ".bloom"
		desc.Nodes[nodeID] = path
		w, err := zw.Create(path)
		if err != nil {
			return "", err
		}
		enc := base64.StdEncoding.EncodeToString(uint64SliceToBytes(n.bloom.bits))
		if _, err := w.Write([]byte(enc)); err != nil {
			return "", err
		}

		leftID, err := walk(n.left)
		if err != nil {
			return "", err
		}
		desc.LeftOf[nodeID] = leftID
		if n.right != nil {
			rightID, err := walk(n.right)
			if err != nil {
				return "", err
			}
			desc.RightOf[nodeID] = rightID
		}
		return nodeID, nil
	}

	rootID, err := walk(s.root)
	if err != nil {
		zw.Close()
		return err
	}
	desc.RootID = rootID

	dw, err := zw.Create("SBT-DESCRIPTOR.yml")
	if err != nil {
		zw.Close()
		return err
	}
	descData, err := yaml.Marshal(desc)
	if err != nil {
		zw.Close()
		return err
	}
	if _, err := dw.Write(descData); err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}

// loadSBTZip reads back an SBT container written by saveSBTZip.
func loadSBTZip(path string) (*SBT, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("sketchdb: open SBT zip %s: %w", path, err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	descFile, ok := files["SBT-DESCRIPTOR.yml"]
	if !ok {
		return nil, &sketcherr.CorruptSBT{Reason: "missing SBT-DESCRIPTOR.yml"}
	}
	rc, err := descFile.Open()
	if err != nil {
		return nil, err
	}
	var descData bytes.Buffer
	if _, err := descData.ReadFrom(rc); err != nil {
		rc.Close()
		return nil, err
	}
	rc.Close()
	var desc sbtDescriptor
	if err := yaml.Unmarshal(descData.Bytes(), &desc); err != nil {
		return nil, &sketcherr.CorruptSBT{Reason: fmt.Sprintf("invalid descriptor YAML: %v", err)}
	}

	var leaves []*sbtNode
	nodeCache := make(map[string]*sbtNode)

	var build func(id string) (*sbtNode, error)
	build = func(id string) (*sbtNode, error) {
		if n, ok := nodeCache[id]; ok {
			return n, nil
		}
		fpath, ok := desc.Nodes[id]
		if !ok {
			return nil, &sketcherr.CorruptSBT{Reason: fmt.Sprintf("descriptor references unknown node %q", id)}
		}
		zf, ok := files[fpath]
		if !ok {
			return nil, &sketcherr.CorruptSBT{Reason: fmt.Sprintf("missing file %q for node %q", fpath, id)}
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		if desc.Leaves[id] {
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(rc); err != nil {
				return nil, err
			}
			sig, err := signature.Decode(&buf)
			if err != nil {
				return nil, err
			}
			n := &sbtNode{leafSig: sig, leafSketch: sig.Sketches[0], location: fpath, size: sig.Sketches[0].Len()}
			leaves = append(leaves, n)
			nodeCache[id] = n
			return n, nil
		}

		var enc bytes.Buffer
		if _, err := enc.ReadFrom(rc); err != nil {
			return nil, err
		}
		bits, err := base64.StdEncoding.DecodeString(enc.String())
		if err != nil {
			return nil, &sketcherr.CorruptSBT{Reason: fmt.Sprintf("invalid bloom encoding for node %q: %v", id, err)}
		}
		bloom := &bloomFilter{bits: bytesToUint64Slice(bits), m: desc.BloomM, k: desc.BloomK}

		n := &sbtNode{bloom: bloom}
		leftID, ok := desc.LeftOf[id]
		if ok {
			left, err := build(leftID)
			if err != nil {
				return nil, err
			}
			n.left = left
			n.size += left.size
		}
		if rightID, ok := desc.RightOf[id]; ok {
			right, err := build(rightID)
			if err != nil {
				return nil, err
			}
			n.right = right
			n.size += right.size
		}
		nodeCache[id] = n
		return n, nil
	}

	root, err := build(desc.RootID)
	if err != nil {
		return nil, err
	}

	s := &SBT{
		root:     root,
		ksize:    desc.Ksize,
		moltype:  desc.Moltype,
		targetFP: desc.TargetFP,
		m:        desc.BloomM,
		k:        desc.BloomK,
		leaves:   leaves,
	}
	s.manifest = manifestFromLeaves(leaves)
	return s, nil
}

func uint64SliceToBytes(words []uint64) []byte {
	out := make([]byte, len(words)*8)
	for i, w := range words {
		for b := 0; b < 8; b++ {
			out[i*8+b] = byte(w >> (8 * b))
		}
	}
	return out
}

func bytesToUint64Slice(b []byte) []uint64 {
	n := (len(b) + 7) / 8
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		var w uint64
		for bi := 0; bi < 8 && i*8+bi < len(b); bi++ {
			w |= uint64(b[i*8+bi]) << (8 * bi)
		}
		out[i] = w
	}
	return out
}
