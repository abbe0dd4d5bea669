package symintern

import "testing"

func TestInternMetadataSameTripleSameID(t *testing.T) {
	p := NewPool()
	m := Metadata{Author: "esr", Log: "initial import", LOD: "trunk"}
	id1 := p.InternMetadata(m)
	id2 := p.InternMetadata(m)
	if id1 != id2 {
		t.Fatalf("expected identical ids for identical triples, got %d and %d", id1, id2)
	}
	if p.Count() != 1 {
		t.Fatalf("expected 1 distinct triple, got %d", p.Count())
	}
}

func TestInternMetadataDistinctTriples(t *testing.T) {
	p := NewPool()
	id1 := p.InternMetadata(Metadata{Author: "esr", Log: "a", LOD: "trunk"})
	id2 := p.InternMetadata(Metadata{Author: "esr", Log: "b", LOD: "trunk"})
	if id1 == id2 {
		t.Fatalf("expected distinct ids for distinct triples")
	}
	if p.Metadata(id1).Log != "a" || p.Metadata(id2).Log != "b" {
		t.Fatalf("round trip through Metadata() failed")
	}
}

func TestStringInterning(t *testing.T) {
	p := NewPool()
	a := p.String("REL1_0")
	b := p.String("REL1_0")
	if a != b {
		t.Fatalf("expected equal interned strings")
	}
}
