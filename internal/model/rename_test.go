package model

import (
	"testing"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

func renameFixture(t *testing.T) (*stubSource, *Model, *Model) {
	t.Helper()
	src := newStubSource(t)
	a := src.load(t, "a.xsd", schema(`xmlns:tns="urn:a" targetNamespace="urn:a"`, `
  <xs:simpleType name="Age"><xs:restriction base="xs:int"/></xs:simpleType>
  <xs:simpleType name="Other"><xs:restriction base="xs:string"/></xs:simpleType>
  <xs:simpleType name="Either"><xs:union memberTypes="tns:Age xs:string tns:Other"/></xs:simpleType>
  <xs:element name="person">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="age" type="tns:Age"/>
        <xs:element name="note" type="tns:Other"/>
      </xs:sequence>
      <xs:attribute name="years" type="tns:Age"/>
    </xs:complexType>
  </xs:element>`))
	b := src.load(t, "b.xsd", schema(`xmlns:a="urn:a" targetNamespace="urn:b"`, `
  <xs:import namespace="urn:a" schemaLocation="a.xsd"/>
  <xs:element name="age" type="a:Age"/>`))
	return src, a, b
}

func raw(t *testing.T, c *Component, name attrs.Name) string {
	t.Helper()
	v, _ := c.RawAttr(name)
	return v
}

func TestFindUsages(t *testing.T) {
	_, a, b := renameFixture(t)
	age := a.Lookup(kind.GlobalSimpleType, "Age")
	usages := FindUsages(age, a.Schema(), b.Schema(), a.Schema())
	if len(usages) != 4 {
		t.Fatalf("FindUsages() = %d references, want 4", len(usages))
	}
	for _, r := range usages {
		if r.Resolve() != age {
			t.Fatalf("usage %s does not resolve to Age", r)
		}
	}
}

func TestRenamePropagatesToReferences(t *testing.T) {
	_, a, b := renameFixture(t)
	age := a.Lookup(kind.GlobalSimpleType, "Age")
	other := a.Lookup(kind.GlobalSimpleType, "Other")

	n, err := Rename(age, "YearsOld", a.Schema(), b.Schema())
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("Rename() rewrote %d references, want 4", n)
	}
	if age.Name() != "YearsOld" {
		t.Fatalf("Name() = %q, want YearsOld", age.Name())
	}

	tests := []struct {
		c    *Component
		attr attrs.Name
		want string
	}{
		{c: find(t, a.Schema(), "age"), attr: attrs.Type, want: "tns:YearsOld"},
		{c: find(t, a.Schema(), "years"), attr: attrs.Type, want: "tns:YearsOld"},
		{c: find(t, a.Schema(), "note"), attr: attrs.Type, want: "tns:Other"},
		{c: find(t, a.Schema(), "Either").Child(kind.Union), attr: attrs.MemberTypes, want: "tns:YearsOld xs:string tns:Other"},
		{c: find(t, b.Schema(), "age"), attr: attrs.Type, want: "a:YearsOld"},
	}
	for _, tt := range tests {
		if got := raw(t, tt.c, tt.attr); got != tt.want {
			t.Fatalf("%s %s = %q, want %q", tt.c, tt.attr, got, tt.want)
		}
	}

	if got := find(t, b.Schema(), "age").TypeRef().Resolve(); got != age {
		t.Fatalf("rewritten reference resolves to %v, want renamed type", got)
	}
	if got := find(t, a.Schema(), "note").TypeRef().Resolve(); got != other {
		t.Fatalf("untouched reference resolves to %v, want Other", got)
	}
	if a.InTransaction() || b.InTransaction() {
		t.Fatalf("Rename left a transaction open")
	}
}

func TestRenameDeclaresMissingPrefix(t *testing.T) {
	src := newStubSource(t)
	a := src.load(t, "a.xsd", schema(`targetNamespace="urn:a"`, `
  <xs:element name="e" type="T" xmlns="urn:a"/>
  <xs:complexType name="T"/>`))
	target := a.Lookup(kind.GlobalComplexType, "T")
	e := find(t, a.Schema(), "e")
	if e.TypeRef().Resolve() != target {
		t.Fatalf("fixture reference does not resolve")
	}

	var text string
	inTx(t, a, func() error {
		var err error
		text, err = RefString(a.Schema(), "urn:a", "T")
		return err
	})
	if text != "ns1:T" {
		t.Fatalf("RefString() = %q, want ns1:T", text)
	}
	if ns, ok := a.Document().LookupNamespace(a.Schema().Node(), "ns1"); !ok || ns != "urn:a" {
		t.Fatalf("ns1 bound to %q, %v", ns, ok)
	}

	if _, err := RefString(a.Schema(), "urn:z", "X"); !xsderrors.HasCode(err, xsderrors.ErrNotInTransaction) {
		t.Fatalf("RefString() outside transaction error = %v", err)
	}
}

func TestRenameJoinsCallerTransaction(t *testing.T) {
	_, a, b := renameFixture(t)
	age := a.Lookup(kind.GlobalSimpleType, "Age")

	a.StartTransaction()
	b.StartTransaction()
	n, err := Rename(age, "Years", a.Schema(), b.Schema())
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if !a.InTransaction() || !b.InTransaction() {
		t.Fatalf("Rename closed the caller's transactions")
	}
	b.EndTransaction()
	a.EndTransaction()

	if n != 4 {
		t.Fatalf("Rename() = %d, want 4", n)
	}
	if got := raw(t, find(t, b.Schema(), "age"), attrs.Type); got != "a:Years" {
		t.Fatalf("b type = %q, want a:Years", got)
	}
	if a.InTransaction() || b.InTransaction() {
		t.Fatalf("transactions still open")
	}
}

func TestRefStringSkipsNestedPrefix(t *testing.T) {
	m := mustParse(t, schema(`targetNamespace="urn:a"`, `
  <xs:element name="e" xmlns:ns1="urn:other"/>
  <xs:complexType name="T"/>`))
	e := find(t, m.Schema(), "e")
	var text string
	inTx(t, m, func() error {
		var err error
		text, err = RefString(e, "urn:a", "T")
		return err
	})
	if text != "ns2:T" {
		t.Fatalf("RefString() = %q, want ns2:T", text)
	}
	if ns, ok := m.Document().LookupNamespace(e.Node(), "ns2"); !ok || ns != "urn:a" {
		t.Fatalf("ns2 bound to %q, %v at the referencing node", ns, ok)
	}
}

func TestRenameRejectsInvalidName(t *testing.T) {
	_, a, _ := renameFixture(t)
	age := a.Lookup(kind.GlobalSimpleType, "Age")
	for _, name := range []string{"", "a:b", "two words"} {
		if _, err := Rename(age, name, a.Schema()); !xsderrors.HasCode(err, xsderrors.ErrInvalidLiteral) {
			t.Fatalf("Rename(%q) error = %v", name, err)
		}
	}
	if age.Name() != "Age" {
		t.Fatalf("Name() = %q after rejected renames", age.Name())
	}
}
