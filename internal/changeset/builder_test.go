package changeset

import (
	"testing"

	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
)

func revMap(revs ...*cvsmodel.CVSRevision) (map[cvsmodel.RevisionID]*cvsmodel.CVSRevision, RevisionLookup) {
	m := make(map[cvsmodel.RevisionID]*cvsmodel.CVSRevision)
	for _, r := range revs {
		m[r.ID] = r
	}
	return m, func(id cvsmodel.RevisionID) *cvsmodel.CVSRevision { return m[id] }
}

func TestGroupsMatchingMetadataWithinWindow(t *testing.T) {
	r1 := &cvsmodel.CVSRevision{ID: 1, MetadataID: 10, Timestamp: 1000}
	r2 := &cvsmodel.CVSRevision{ID: 2, MetadataID: 10, Timestamp: 1100}
	_, lookup := revMap(r1, r2)

	b := NewBuilder(300, lookup)
	b.AddRevision(r1)
	b.AddRevision(r2)
	done := b.Flush()

	if len(done) != 1 {
		t.Fatalf("expected 1 changeset, got %d", len(done))
	}
	if done[0].Items.Len() != 2 {
		t.Fatalf("expected 2 items in the changeset, got %d", done[0].Items.Len())
	}
}

func TestSeparatesDistantTimestamps(t *testing.T) {
	r1 := &cvsmodel.CVSRevision{ID: 1, MetadataID: 10, Timestamp: 1000}
	r2 := &cvsmodel.CVSRevision{ID: 2, MetadataID: 10, Timestamp: 5000} // > 300s later
	_, lookup := revMap(r1, r2)

	b := NewBuilder(300, lookup)
	b.AddRevision(r1)
	b.AddRevision(r2)
	done := b.Flush()

	if len(done) != 2 {
		t.Fatalf("expected 2 separate changesets, got %d", len(done))
	}
}

func TestDependencyPreventsMergeEvenWithMatchingMetadata(t *testing.T) {
	// r1 and r2 share metadata; r2.prev_id = r1.ID so they must not merge
	// (rule 3: neither depends on the other through prev_id within the
	// pending set).
	r1 := &cvsmodel.CVSRevision{ID: 1, MetadataID: 10, Timestamp: 1000}
	r2 := &cvsmodel.CVSRevision{ID: 2, MetadataID: 10, Timestamp: 1001, PrevID: 1}
	_, lookup := revMap(r1, r2)

	b := NewBuilder(300, lookup)
	b.AddRevision(r1)
	b.AddRevision(r2)
	done := b.Flush()

	if len(done) != 2 {
		t.Fatalf("expected 2 changesets (dependency must block merge), got %d", len(done))
	}
	// r2's changeset must depend on r1's changeset.
	var csOfR1, csOfR2 *Changeset
	for _, c := range done {
		if c.Items.Contains(1) {
			csOfR1 = c
		}
		if c.Items.Contains(2) {
			csOfR2 = c
		}
	}
	deps := b.Graph().Dependencies(csOfR2.ID)
	found := false
	for _, d := range deps {
		if d == csOfR1.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected changeset holding r2 to depend on changeset holding r1")
	}
}

func TestInterleavedCommitsStayDistinct(t *testing.T) {
	// Two commits at identical timestamps but different metadata (author/
	// log) must never merge, regardless of time proximity (spec §8
	// scenario 2).
	r1 := &cvsmodel.CVSRevision{ID: 1, MetadataID: 1, Timestamp: 1000}
	r2 := &cvsmodel.CVSRevision{ID: 2, MetadataID: 2, Timestamp: 1000}
	_, lookup := revMap(r1, r2)

	b := NewBuilder(300, lookup)
	b.AddRevision(r1)
	b.AddRevision(r2)
	done := b.Flush()

	if len(done) != 2 {
		t.Fatalf("expected 2 distinct changesets for distinct metadata, got %d", len(done))
	}
}

func TestFlushEmitsRemainingOpenChangesets(t *testing.T) {
	r1 := &cvsmodel.CVSRevision{ID: 1, MetadataID: 1, Timestamp: 1000}
	_, lookup := revMap(r1)
	b := NewBuilder(300, lookup)
	b.AddRevision(r1)
	done := b.Flush()
	if len(done) != 1 {
		t.Fatalf("expected the single still-open changeset to flush out, got %d", len(done))
	}
}
