// Package symintern interns the recurring string and tuple keys of a CVS
// conversion: (author, log, lod) metadata triples and symbol names. Interning
// turns "same triple" comparisons in the Changeset Builder (spec §4.2 rule 1,
// "r1.metadata_id == r2.metadata_id") into an integer-equality test instead of
// repeated string comparisons, and keeps one copy of every commit log message
// in memory regardless of how many revisions share it.
//
// Adapted from reposurgeon's string interning pool (go-reposurgeon/intern.go),
// generalized from a single string pool to a keyed pool of MetadataID values
// plus a companion string pool for symbol/cleaned-names.
//
// SPDX-License-Identifier: BSD-2-Clause
package symintern

import "sync"

// Metadata is the (author, log, line-of-development) triple that makes two
// CVSRevisions commit-eligible together (spec.md §3, CVSRevision.metadata_id).
type Metadata struct {
	Author string
	Log    string
	LOD    string
}

// MetadataID is the interned handle for a Metadata triple. Two CVSRevisions
// share a MetadataID iff their (author, log, lod) triples are equal.
type MetadataID int

// Pool interns Metadata triples and plain strings (symbol names, cleaned
// paths). It is safe for concurrent use, though the pipeline itself is
// single-threaded (spec §5); the lock exists because collection may run
// per-file RCS parsing concurrently before handing records to the pipeline.
type Pool struct {
	mu        sync.Mutex
	metadata  []Metadata
	metaIndex map[Metadata]MetadataID
	strings   map[string]string
}

// NewPool returns an empty interning pool.
func NewPool() *Pool {
	return &Pool{
		metaIndex: make(map[Metadata]MetadataID),
		strings:   make(map[string]string),
	}
}

// InternMetadata returns the MetadataID for m, allocating a new one the
// first time a given triple is seen.
func (p *Pool) InternMetadata(m Metadata) MetadataID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.metaIndex[m]; ok {
		return id
	}
	id := MetadataID(len(p.metadata))
	p.metadata = append(p.metadata, m)
	p.metaIndex[m] = id
	return id
}

// Metadata looks up the triple behind an already-interned id. Panics on an
// out-of-range id: that is always a bug in the caller, not recoverable data.
func (p *Pool) Metadata(id MetadataID) Metadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metadata[id]
}

// Count returns the number of distinct metadata triples interned so far.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.metadata)
}

// String interns a plain string (symbol name, cleaned path component),
// collapsing repeats to a single backing allocation.
func (p *Pool) String(s string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if interned, ok := p.strings[s]; ok {
		return interned
	}
	p.strings[s] = s
	return s
}
