// C2, the Changeset Builder (spec.md §4.2): streams CVSRevisions in
// timestamp order and groups them into RevisionChangesets using the
// open/expired/ready model spec.md describes.
//
// SPDX-License-Identifier: BSD-2-Clause
package changeset

import (
	"gitlab.com/esr/cvs2svn/internal/cvsmodel"
	"gitlab.com/esr/cvs2svn/internal/setutil"
	"gitlab.com/esr/cvs2svn/internal/symintern"
)

type state int

const (
	stateOpen state = iota
	stateExpired
	stateReady
	stateDone
)

// RevisionLookup gives the Builder read access to the revisions it's
// grouping, without owning their storage (that's C8's job).
type RevisionLookup func(id cvsmodel.RevisionID) *cvsmodel.CVSRevision

// Builder implements C2. Construct with NewBuilder, feed revisions in
// ascending timestamp order via AddRevision, then call Flush.
type Builder struct {
	thresholdSeconds int64
	lookup           RevisionLookup

	nextID ID
	graph  *Graph
	status map[ID]state

	open    map[symintern.MetadataID][]*Changeset
	expired []*Changeset
	ready   []*Changeset
	done    []*Changeset

	// owner maps a revision id to the changeset currently holding it,
	// across open/expired/ready/done — used to find "the changeset
	// containing R.prev_id" (spec §3's dependency-graph rule).
	owner map[cvsmodel.RevisionID]ID
}

// NewBuilder returns a Builder with the given COMMIT_THRESHOLD (spec
// default 300s) and a way to look up CVSRevision records by id.
func NewBuilder(thresholdSeconds int64, lookup RevisionLookup) *Builder {
	return &Builder{
		thresholdSeconds: thresholdSeconds,
		lookup:           lookup,
		graph:            NewGraph(),
		status:           make(map[ID]state),
		open:             make(map[symintern.MetadataID][]*Changeset),
		owner:            make(map[cvsmodel.RevisionID]ID),
	}
}

// Graph exposes the dependency graph accumulated so far, for the Scheduler.
func (b *Builder) Graph() *Graph { return b.graph }

func (b *Builder) newChangeset(kind Kind, rev *cvsmodel.CVSRevision) *Changeset {
	b.nextID++
	cs := &Changeset{
		ID:         b.nextID,
		Kind:       kind,
		Items:      setutil.NewIntSet(int(rev.ID)),
		TMin:       rev.Timestamp,
		TMax:       rev.Timestamp,
		MetadataID: rev.MetadataID,
	}
	b.graph.AddNode(cs)
	b.status[cs.ID] = stateOpen
	return cs
}

// AddRevision ingests one CVSRevision, in non-decreasing timestamp order.
func (b *Builder) AddRevision(rev *cvsmodel.CVSRevision) {
	b.expireOpenChangesets(rev.Timestamp)
	b.promoteExpiredToReady()
	b.emitReadyBefore(rev.Timestamp)

	deps := b.findDependencies(rev)

	// Step 5: attach to the first open changeset with matching metadata
	// that isn't one of R's dependencies; else open a new one.
	candidates := b.open[rev.MetadataID]
	var target *Changeset
	for _, c := range candidates {
		if !containsID(deps, c.ID) {
			target = c
			break
		}
	}
	if target == nil {
		target = b.newChangeset(KindRevision, rev)
		b.open[rev.MetadataID] = append(b.open[rev.MetadataID], target)
	} else {
		target.Items.Add(int(rev.ID))
		if rev.Timestamp > target.TMax {
			target.TMax = rev.Timestamp
		}
		if rev.Timestamp < target.TMin {
			target.TMin = rev.Timestamp
		}
	}
	b.owner[rev.ID] = target.ID

	for _, dep := range deps {
		if dep != target.ID {
			b.graph.AddEdge(target.ID, dep)
		}
	}
}

func containsID(ids []ID, target ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// findDependencies follows prev_id chains transitively through the
// pending (not-yet-done) set, per spec §4.2 step 4.
func (b *Builder) findDependencies(rev *cvsmodel.CVSRevision) []ID {
	var deps []ID
	seen := setutil.NewIntSet()
	prevID := rev.PrevID
	for prevID != 0 {
		ownerID, ok := b.owner[prevID]
		if ok && b.status[ownerID] != stateDone {
			if !seen.Contains(int(ownerID)) {
				seen.Add(int(ownerID))
				deps = append(deps, ownerID)
			}
			break // found the nearest pending ancestor changeset
		}
		prev := b.lookup(prevID)
		if prev == nil {
			break
		}
		prevID = prev.PrevID
	}
	return deps
}

// expireOpenChangesets moves changesets whose time window has closed
// (spec §4.2 step 1) from open to expired.
func (b *Builder) expireOpenChangesets(now int64) {
	for meta, list := range b.open {
		var stillOpen []*Changeset
		for _, c := range list {
			if c.TMax+b.thresholdSeconds < now {
				b.status[c.ID] = stateExpired
				b.expired = append(b.expired, c)
			} else {
				stillOpen = append(stillOpen, c)
			}
		}
		if len(stillOpen) == 0 {
			delete(b.open, meta)
		} else {
			b.open[meta] = stillOpen
		}
	}
}

// promoteExpiredToReady repeatedly promotes expired changesets whose
// dependencies have themselves already been promoted (spec §4.2 step 2),
// bumping the promoted changeset's effective timestamp so ordering stays
// consistent: max(own t_max, max(dep.t_max) + 1).
func (b *Builder) promoteExpiredToReady() {
	for {
		progressed := false
		var stillExpired []*Changeset
		for _, c := range b.expired {
			if b.allDepsPromoted(c.ID) {
				bump := c.TMax
				for _, dep := range b.graph.Dependencies(c.ID) {
					if depNode := b.graph.Node(dep); depNode != nil && depNode.TMax+1 > bump {
						bump = depNode.TMax + 1
					}
				}
				c.TMax = bump
				b.status[c.ID] = stateReady
				b.ready = append(b.ready, c)
				progressed = true
			} else {
				stillExpired = append(stillExpired, c)
			}
		}
		b.expired = stillExpired
		if !progressed {
			break
		}
	}
}

func (b *Builder) allDepsPromoted(id ID) bool {
	for _, dep := range b.graph.Dependencies(id) {
		if b.status[dep] != stateReady && b.status[dep] != stateDone {
			return false
		}
	}
	return true
}

// emitReadyBefore moves every ready changeset with t_max < cutoff to done,
// in the total order (spec §4.2 step 3).
func (b *Builder) emitReadyBefore(cutoff int64) {
	var stillReady []*Changeset
	var toEmit []*Changeset
	for _, c := range b.ready {
		if c.TMax < cutoff {
			toEmit = append(toEmit, c)
		} else {
			stillReady = append(stillReady, c)
		}
	}
	b.ready = stillReady
	SortByReadyOrder(toEmit)
	for _, c := range toEmit {
		b.status[c.ID] = stateDone
		b.done = append(b.done, c)
		b.removeFromOpen(c)
	}
}

func (b *Builder) removeFromOpen(c *Changeset) {
	list := b.open[c.MetadataID]
	for i, o := range list {
		if o.ID == c.ID {
			b.open[c.MetadataID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Flush processes all remaining expired, then ready, changesets (spec
// §4.2: "Flush at end of input processes all remaining expired then ready
// changesets") and returns the complete, builder-order sequence of
// RevisionChangesets.
func (b *Builder) Flush() []*Changeset {
	// Force every remaining open changeset to expire so it can be
	// promoted and emitted.
	for _, list := range b.open {
		for _, c := range list {
			if b.status[c.ID] == stateOpen {
				b.status[c.ID] = stateExpired
				b.expired = append(b.expired, c)
			}
		}
	}
	b.open = make(map[symintern.MetadataID][]*Changeset)
	b.promoteExpiredToReady()
	SortByReadyOrder(b.ready)
	for _, c := range b.ready {
		b.status[c.ID] = stateDone
		b.done = append(b.done, c)
	}
	b.ready = nil
	return b.done
}
