package model

import (
	"strings"
	"testing"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

func TestAddChildOrdering(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:complexType name="ct"><xs:attribute name="a"/></xs:complexType>`))
	ct := find(t, m.Schema(), "ct")
	f := m.Factory()

	add := func(k kind.Kind) {
		t.Helper()
		c, err := f.Create(k)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", k, err)
		}
		inTx(t, m, func() error { return ct.AddChild(c) })
	}
	add(kind.AnyAttribute)
	add(kind.Sequence)
	add(kind.Annotation)

	got := kindsOf(ct.Children())
	want := []kind.Kind{kind.Annotation, kind.Sequence, kind.LocalAttribute, kind.AnyAttribute}
	if !sameKinds(got, want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
}

func TestAddChildSchemaDirectivesFirst(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:annotation/><xs:element name="e"/>`))
	s := m.Schema()
	imp, err := m.Factory().Create(kind.Import)
	if err != nil {
		t.Fatalf("Create(import) error = %v", err)
	}
	inTx(t, m, func() error { return s.AddChild(imp) })
	got := kindsOf(s.Children())
	want := []kind.Kind{kind.Annotation, kind.Import, kind.GlobalElement}
	if !sameKinds(got, want) {
		t.Fatalf("children = %v, want %v", got, want)
	}
}

func TestInsertChildWithinSlot(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="a"/><xs:element name="c"/>`))
	s := m.Schema()
	b, err := m.Factory().CreateNamed(kind.GlobalElement, "b")
	if err != nil {
		t.Fatalf("CreateNamed() error = %v", err)
	}
	inTx(t, m, func() error { return s.InsertChild(b, 1) })
	var names []string
	for _, c := range s.Children() {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "a,b,c" {
		t.Fatalf("names = %v, want [a b c]", names)
	}
	if b.Parent() != s {
		t.Fatalf("Parent() of inserted child is not the schema")
	}
}

func TestAddChildRejections(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="e"/>`))
	other := mustParse(t, schema(``, ``))
	s := m.Schema()

	sel, _ := m.Factory().Create(kind.Selector)
	if err := m.Update(func() error { return s.AddChild(sel) }); !xsderrors.HasCode(err, xsderrors.ErrChildNotAllowed) {
		t.Fatalf("AddChild(selector) error = %v, want %s", err, xsderrors.ErrChildNotAllowed)
	}
	foreign, _ := other.Factory().Create(kind.GlobalElement)
	if err := m.Update(func() error { return s.AddChild(foreign) }); !xsderrors.HasCode(err, xsderrors.ErrForeignComponent) {
		t.Fatalf("AddChild(foreign) error = %v, want %s", err, xsderrors.ErrForeignComponent)
	}
	el, _ := m.Factory().Create(kind.GlobalElement)
	if err := s.AddChild(el); !xsderrors.HasCode(err, xsderrors.ErrNotInTransaction) {
		t.Fatalf("AddChild outside transaction error = %v", err)
	}
	if err := m.Update(func() error { return s.RemoveChild(el) }); !xsderrors.HasCode(err, xsderrors.ErrNotAChild) {
		t.Fatalf("RemoveChild(detached) error = %v, want %s", err, xsderrors.ErrNotAChild)
	}
}

func TestRemoveAndReinsertKeepsIdentity(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="e"/><xs:element name="f"/>`))
	s := m.Schema()
	e := find(t, s, "e")
	inTx(t, m, func() error { return s.RemoveChild(e) })
	if e.Attached() {
		t.Fatalf("removed component still attached")
	}
	if len(s.Children()) != 1 {
		t.Fatalf("children after remove = %d, want 1", len(s.Children()))
	}
	inTx(t, m, func() error { return s.AddChild(e) })
	if !e.Attached() || find(t, s, "e") != e {
		t.Fatalf("reinserted component lost its identity")
	}
}

func TestFactoryBuildsDocument(t *testing.T) {
	m := New(nil, Options{})
	f := m.Factory()
	s, err := f.Create(kind.Schema)
	if err != nil {
		t.Fatalf("Create(schema) error = %v", err)
	}
	inTx(t, m, func() error {
		if err := m.SetSchema(s); err != nil {
			return err
		}
		el, err := f.CreateNamed(kind.GlobalElement, "root")
		if err != nil {
			return err
		}
		return s.AddChild(el)
	})
	if m.Schema() != s {
		t.Fatalf("Schema() is not the installed component")
	}
	if m.Lookup(kind.GlobalElement, "root") == nil {
		t.Fatalf("Lookup(root) = nil")
	}
	out := string(m.Document().Bytes())
	for _, want := range []string{`<xs:schema`, `xmlns:xs="http://www.w3.org/2001/XMLSchema"`, `<xs:element name="root"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestFactoryReusesParsedPrefix(t *testing.T) {
	m := mustParse(t, schema(`targetNamespace="urn:a"`, `<xs:element name="e"/>`))
	c, err := m.Factory().CreateNamed(kind.GlobalElement, "f")
	if err != nil {
		t.Fatalf("CreateNamed() error = %v", err)
	}
	doc := m.Document()
	if got := doc.QualifiedName(c.Node()); got != "xs:element" {
		t.Fatalf("QualifiedName() = %q, want xs:element", got)
	}
	for _, a := range doc.Attributes(c.Node()) {
		if a.Prefix == "xmlns" || a.Local == "xmlns" {
			t.Fatalf("created node redeclares %s", a.QualifiedName())
		}
	}
}

func TestFactoryReferenceKinds(t *testing.T) {
	m := mustParse(t, schema(`xmlns="http://www.w3.org/2001/XMLSchema"`, `<xs:group name="g"><xs:sequence/></xs:group>`))
	seq := m.Schema().Child(kind.GlobalGroup).Child(kind.Sequence)
	ref, err := m.Factory().Create(kind.ElementReference)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	inTx(t, m, func() error { return seq.AddChild(ref) })
	if got := seq.Children()[0]; got != ref || got.Kind() != kind.ElementReference {
		t.Fatalf("child = %v, want the element reference", got)
	}
}
