// Package dumpformat implements A10, a low-level SVN dump-format-v2
// token writer: the header, per-revision records, and per-node records
// spec.md §6 names as one of the two delivery modes ("a dumpfile, or a
// live `svnadmin load` target").
//
// Grounded verbatim in the teacher's SubversionDumper internals
// (go-reposurgeon/goreposurgeon.go): svnprops' "K len\nkey\nV len\nval\n"
// property encoding, dumpRevprops' header-then-PROPS-END-then-blank-line
// shape for revision records, and dumpNode's Node-path/-kind/-action/
// -copyfrom-*/Content-length/Text-content-sha1 sequence. The teacher
// computes a SHA-1 checksum per node's content; this writer keeps that
// (spec is silent on checksums, and svnadmin load has been observed by
// the teacher to validate sha1 but not md5).
//
// SPDX-License-Identifier: BSD-2-Clause
package dumpformat

import (
	"crypto/sha1"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Props is an ordered property map (order matters: it round-trips through
// svn dump files byte-for-byte only if key order is stable).
type Props struct {
	keys   []string
	values map[string]string
}

func NewProps() *Props {
	return &Props{values: make(map[string]string)}
}

// Set assigns key, preserving first-insertion order like the teacher's
// OrderedMap.
func (p *Props) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *Props) encode() string {
	var b strings.Builder
	for _, k := range p.keys {
		v := p.values[k]
		fmt.Fprintf(&b, "K %d\n%s\nV %d\n%s\n", len(k), k, len(v), v)
	}
	return b.String()
}

// Writer emits well-formed SVN dump-format-v2 records to an underlying
// io.Writer.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader emits the dumpfile's format line and UUID header (spec §6).
func (w *Writer) WriteHeader(uuid string) error {
	if _, err := fmt.Fprint(w.w, "SVN-fs-dump-format-version: 2\n\n"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w.w, "UUID: %s\n\n", uuid)
	return err
}

// RevisionHeader carries one revision's unversioned (revprop) metadata.
type RevisionHeader struct {
	Revnum  int
	Date    string // already RFC3339 with the ".000000Z" suffix svn expects
	Author  string
	Log     string
	Merged  []int // secondary parent revnums, for svn:mergeinfo (spec §3 MergeInfo)
	MergeTo string
}

// WriteRevision emits a Revision-number record with its PROPS-END trailer.
func (w *Writer) WriteRevision(h RevisionHeader) error {
	if _, err := fmt.Fprintf(w.w, "Revision-number: %d\n", h.Revnum); err != nil {
		return err
	}
	props := NewProps()
	props.Set("svn:log", h.Log)
	props.Set("svn:author", h.Author)
	props.Set("svn:date", h.Date)
	body := props.encode()
	if len(h.Merged) > 0 {
		merged := make([]int, len(h.Merged))
		copy(merged, h.Merged)
		sort.Ints(merged)
		entries := make([]string, len(merged))
		for i, r := range merged {
			entries[i] = fmt.Sprintf("%s:%d", h.MergeTo, r)
		}
		mergeinfo := NewProps()
		mergeinfo.Set("svn:mergeinfo", strings.Join(entries, "\n"))
		body += mergeinfo.encode()
	}
	body += "PROPS-END\n\n"
	if _, err := fmt.Fprintf(w.w, "Prop-content-length: %d\n", len(body)-1); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.w, "Content-length: %d\n\n", len(body)-1); err != nil {
		return err
	}
	_, err := fmt.Fprint(w.w, body)
	return err
}

// NodeKind and NodeAction mirror the SVN dump format's own vocabulary.
type NodeKind string
type NodeAction string

const (
	KindFile NodeKind = "file"
	KindDir  NodeKind = "dir"

	ActionChange NodeAction = "change"
	ActionAdd    NodeAction = "add"
	ActionDelete NodeAction = "delete"
	ActionReplace NodeAction = "replace"
)

// Node describes one Node-path record.
type Node struct {
	Path         string
	Kind         NodeKind
	Action       NodeAction
	CopyFromRev  int
	CopyFromPath string
	Props        *Props // nil when the node carries no property change
	Content      []byte // nil when the node has no text content (dir, or delete)
}

// WriteNode emits one Node-path record (spec §6).
func (w *Writer) WriteNode(n Node) error {
	if _, err := fmt.Fprintf(w.w, "Node-path: %s\n", n.Path); err != nil {
		return err
	}
	if n.Kind != "" {
		if _, err := fmt.Fprintf(w.w, "Node-kind: %s\n", n.Kind); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.w, "Node-action: %s\n", n.Action); err != nil {
		return err
	}
	if n.CopyFromRev != 0 {
		if _, err := fmt.Fprintf(w.w, "Node-copyfrom-rev: %d\n", n.CopyFromRev); err != nil {
			return err
		}
	}
	if n.CopyFromPath != "" {
		if _, err := fmt.Fprintf(w.w, "Node-copyfrom-path: %s\n", n.CopyFromPath); err != nil {
			return err
		}
	}
	var nodeprops string
	if n.Props != nil {
		nodeprops = n.Props.encode() + "PROPS-END\n"
		if _, err := fmt.Fprintf(w.w, "Prop-content-length: %d\n", len(nodeprops)); err != nil {
			return err
		}
	}
	if len(n.Content) > 0 {
		if _, err := fmt.Fprintf(w.w, "Text-content-length: %d\n", len(n.Content)); err != nil {
			return err
		}
		sum := sha1.Sum(n.Content)
		if _, err := fmt.Fprintf(w.w, "Text-content-sha1: %x\n", sum); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.w, "Content-length: %d\n\n", len(nodeprops)+len(n.Content)); err != nil {
		return err
	}
	if n.Props != nil {
		if _, err := fmt.Fprint(w.w, nodeprops); err != nil {
			return err
		}
	}
	if len(n.Content) > 0 {
		if _, err := w.w.Write(n.Content); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w.w, "\n\n")
	return err
}
