package changeset

import (
	"testing"

	"gitlab.com/esr/cvs2svn/internal/setutil"
)

func node(id ID, tmin, tmax int64) *Changeset {
	return &Changeset{ID: id, Kind: KindRevision, Items: setutil.NewIntSet(int(id)), TMin: tmin, TMax: tmax}
}

func TestScheduleRespectsDependencies(t *testing.T) {
	g := NewGraph()
	a := node(1, 100, 100)
	b := node(2, 200, 200)
	c := node(3, 300, 300)
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)
	// c depends on b depends on a
	g.AddEdge(3, 2)
	g.AddEdge(2, 1)

	next := ID(3)
	order := Schedule(g, &next, nil)

	pos := map[ID]int{}
	for i, cs := range order {
		pos[cs.ID] = i
	}
	if pos[1] > pos[2] || pos[2] > pos[3] {
		t.Fatalf("expected order a,b,c; got positions %v", pos)
	}
	if order[0].Revnum != 2 {
		t.Fatalf("expected first scheduled changeset to get revnum 2, got %d", order[0].Revnum)
	}
	for i, cs := range order {
		if cs.Revnum != 2+i {
			t.Fatalf("revnum %d at position %d, expected %d", cs.Revnum, i, 2+i)
		}
	}
}

func TestScheduleTieBreaksByTMinThenID(t *testing.T) {
	g := NewGraph()
	a := node(5, 100, 100)
	b := node(2, 100, 100) // same TMin, lower ID
	g.AddNode(a)
	g.AddNode(b)
	next := ID(5)
	order := Schedule(g, &next, nil)
	if order[0].ID != 2 || order[1].ID != 5 {
		t.Fatalf("expected id 2 before id 5 on tie, got order %v, %v", order[0].ID, order[1].ID)
	}
}

func TestScheduleBreaksCycle(t *testing.T) {
	g := NewGraph()
	a := &Changeset{ID: 1, Kind: KindRevision, Items: setutil.NewIntSet(10, 11), TMin: 100, TMax: 110}
	b := node(2, 200, 200)
	g.AddNode(a)
	g.AddNode(b)
	// Introduce a cycle: a depends on b, b depends on a.
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)

	next := ID(2)
	stamps := map[int]int64{10: 100, 11: 110}
	order := Schedule(g, &next, func(item int) int64 { return stamps[item] })

	// The cycle must have been broken: no remaining 2-cycle, and every
	// node got a distinct monotonically increasing revnum.
	seen := map[int]bool{}
	for _, cs := range order {
		if seen[cs.Revnum] {
			t.Fatalf("duplicate revnum %d", cs.Revnum)
		}
		seen[cs.Revnum] = true
	}
	if len(order) < 2 {
		t.Fatalf("expected at least 2 changesets after breaking the cycle (original a split in two), got %d", len(order))
	}
}

func TestScheduleAcyclicLargeGraphNoDuplicateRevnums(t *testing.T) {
	g := NewGraph()
	for i := ID(1); i <= 10; i++ {
		g.AddNode(node(i, int64(i)*10, int64(i)*10))
		if i > 1 {
			g.AddEdge(i, i-1)
		}
	}
	next := ID(10)
	order := Schedule(g, &next, nil)
	if len(order) != 10 {
		t.Fatalf("expected 10 changesets, got %d", len(order))
	}
	for i, cs := range order {
		if int(cs.ID) != i+1 {
			t.Fatalf("expected strict chain order, got id %d at position %d", cs.ID, i)
		}
	}
}
