package kind

import "testing"

func TestRegistryComplete(t *testing.T) {
	seen := make(map[string]Kind)
	for _, k := range Kinds() {
		if k.String() == "" || k.String() == "unknown" {
			t.Fatalf("kind %d has no name", k)
		}
		if k.Tag() == "" {
			t.Fatalf("kind %s has no tag", k)
		}
		if prev, ok := seen[k.String()]; ok {
			t.Fatalf("kinds %d and %d share name %s", prev, k, k)
		}
		seen[k.String()] = k
		back, ok := Parse(k.String())
		if !ok || back != k {
			t.Fatalf("Parse(%s) = %v, %v", k, back, ok)
		}
	}
	if len(seen) != int(Count)-1 {
		t.Fatalf("registry has %d kinds, want %d", len(seen), Count-1)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		k         Kind
		global    bool
		directive bool
		facet     bool
		reference bool
	}{
		{k: GlobalElement, global: true},
		{k: LocalElement},
		{k: ElementReference, reference: true},
		{k: Include, directive: true},
		{k: Length, facet: true},
		{k: FractionDigits, facet: true},
		{k: Notation, global: true},
		{k: GroupReference, reference: true},
	}
	for _, tt := range tests {
		if tt.k.IsGlobal() != tt.global || tt.k.IsDirective() != tt.directive ||
			tt.k.IsFacet() != tt.facet || tt.k.IsReference() != tt.reference {
			t.Fatalf("%s predicates mismatch", tt.k)
		}
	}
	if Invalid.Valid() || Count.Valid() || !Schema.Valid() {
		t.Fatalf("Valid() bounds wrong")
	}
}
