package dumpformat

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteHeaderFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteHeader("abc-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "SVN-fs-dump-format-version: 2\n\n") {
		t.Fatalf("unexpected header: %q", got)
	}
	if !strings.Contains(got, "UUID: abc-123\n\n") {
		t.Fatalf("expected UUID line, got %q", got)
	}
}

func TestWriteRevisionIncludesProps(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteRevision(RevisionHeader{Revnum: 1, Date: "2020-01-01T00:00:00.000000Z", Author: "esr", Log: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"Revision-number: 1\n", "K 7\nsvn:log\nV 5\nhello\n", "PROPS-END\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output, got %q", want, got)
		}
	}
}

func TestWriteNodeEmitsChecksumForContent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteNode(Node{
		Path:    "trunk/a",
		Kind:    KindFile,
		Action:  ActionAdd,
		Content: []byte("hello\n"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "Node-path: trunk/a\n") || !strings.Contains(got, "Text-content-sha1: ") {
		t.Fatalf("expected node and checksum, got %q", got)
	}
}

func TestWriteNodeCopyFrom(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteNode(Node{
		Path:         "branches/B",
		Kind:         KindDir,
		Action:       ActionAdd,
		CopyFromRev:  3,
		CopyFromPath: "trunk",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "Node-copyfrom-rev: 3\n") || !strings.Contains(got, "Node-copyfrom-path: trunk\n") {
		t.Fatalf("expected copyfrom fields, got %q", got)
	}
}
