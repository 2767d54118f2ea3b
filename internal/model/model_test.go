package model

import (
	"testing"
	"time"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

type recorder struct {
	signals []Signal
}

func (r *recorder) listen(s Signal) { r.signals = append(r.signals, s) }

func (r *recorder) kinds() []SignalKind {
	out := make([]SignalKind, len(r.signals))
	for i, s := range r.signals {
		out[i] = s.Kind
	}
	return out
}

func TestSignalsQueuedUntilEndTransaction(t *testing.T) {
	m := mustParse(t, schema(`targetNamespace="urn:a"`, `<xs:include schemaLocation="b.xsd"/><xs:element name="e"/>`))
	var rec recorder
	sub := m.Subscribe(rec.listen)
	defer sub.Cancel()

	inc := m.Includes()[0]
	m.StartTransaction()
	if err := m.Schema().RemoveChild(inc); err != nil {
		t.Fatalf("RemoveChild() error = %v", err)
	}
	if len(rec.signals) != 0 {
		t.Fatalf("signals delivered inside transaction: %v", rec.kinds())
	}
	m.EndTransaction()

	if len(rec.signals) != 1 {
		t.Fatalf("signals = %v, want one", rec.kinds())
	}
	s := rec.signals[0]
	if s.Kind != SignalSchemaReferences || s.Source != inc || s.Model != m {
		t.Fatalf("signal = %+v, want schema-references from the include", s)
	}
}

// within fails the test when fn does not return in time.
func within(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("call did not return within %s", d)
	}
}

func TestSyncJoinsOpenTransaction(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="e"/>`))
	var rec recorder
	m.Subscribe(rec.listen)

	var err error
	within(t, 2*time.Second, func() {
		err = m.Update(func() error {
			if err := m.Sync([]byte(schema(`targetNamespace="urn:new"`, `<xs:element name="x"/>`))); err != nil {
				return err
			}
			if !m.InTransaction() {
				t.Errorf("Sync closed the enclosing transaction")
			}
			if len(rec.signals) != 0 {
				t.Errorf("signals delivered before the outer transaction ended: %v", rec.kinds())
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if m.InTransaction() {
		t.Fatalf("transaction still open after Update")
	}
	if tns, _ := m.TargetNamespace(); tns != "urn:new" || m.Lookup(kind.GlobalElement, "x") == nil {
		t.Fatalf("synced content not visible")
	}
	if len(rec.signals) == 0 {
		t.Fatalf("no signals delivered after the transaction ended")
	}
}

func TestNestedUpdateJoins(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="e"/>`))
	e := find(t, m.Schema(), "e")
	within(t, 2*time.Second, func() {
		err := m.Update(func() error {
			return m.Update(func() error { return e.SetName("f") })
		})
		if err != nil {
			t.Errorf("Update() error = %v", err)
		}
	})
	if e.Name() != "f" || m.InTransaction() {
		t.Fatalf("Name() = %q, InTransaction() = %v", e.Name(), m.InTransaction())
	}
	m.EndTransaction()
	if m.InTransaction() {
		t.Fatalf("unbalanced EndTransaction opened a transaction")
	}
}

func TestTargetNamespaceSignal(t *testing.T) {
	m := mustParse(t, schema(`targetNamespace="urn:a"`, ``))
	var rec recorder
	m.Subscribe(rec.listen)
	inTx(t, m, func() error {
		return m.Schema().SetAttr(attrs.TargetNamespace, attrs.String("urn:b"))
	})
	if ns, ok := m.TargetNamespace(); !ok || ns != "urn:b" {
		t.Fatalf("TargetNamespace() = %q, %v, want urn:b", ns, ok)
	}
	if len(rec.signals) != 1 || rec.signals[0].Kind != SignalTargetNamespace {
		t.Fatalf("signals = %v, want one target-namespace", rec.kinds())
	}
	if s := rec.signals[0]; s.Old != "urn:a" || s.New != "urn:b" {
		t.Fatalf("signal old/new = %q/%q", s.Old, s.New)
	}

	inTx(t, m, func() error { return m.Schema().ClearAttr(attrs.TargetNamespace) })
	if _, ok := m.TargetNamespace(); ok {
		t.Fatalf("TargetNamespace() still set after clear")
	}
}

func TestDirectiveSignal(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:import namespace="urn:b" schemaLocation="b.xsd"/>`))
	var rec recorder
	m.Subscribe(rec.listen)
	imp := m.Imports()[0]
	inTx(t, m, func() error { return imp.SetAttr(attrs.SchemaLocation, attrs.String("c.xsd")) })
	if len(rec.signals) != 1 || rec.signals[0].Kind != SignalDirective || rec.signals[0].Source != imp {
		t.Fatalf("signals = %v, want one directive signal", rec.kinds())
	}
	if rec.signals[0].Old != "b.xsd" || rec.signals[0].New != "c.xsd" {
		t.Fatalf("directive signal old/new = %q/%q", rec.signals[0].Old, rec.signals[0].New)
	}
}

func TestGlobalIndexTracksChanges(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="e"/><xs:complexType name="e"/>`))
	e := m.Lookup(kind.GlobalElement, "e")
	if e == nil || e.Kind() != kind.GlobalElement {
		t.Fatalf("Lookup(element e) = %v", e)
	}
	if ct := m.Lookup(kind.GlobalComplexType, "e"); ct == nil || ct == e {
		t.Fatalf("Lookup(complexType e) = %v, want a distinct component", ct)
	}

	inTx(t, m, func() error {
		f, err := m.Factory().CreateNamed(kind.GlobalElement, "f")
		if err != nil {
			return err
		}
		return m.Schema().AddChild(f)
	})
	if m.Lookup(kind.GlobalElement, "f") == nil {
		t.Fatalf("Lookup(f) = nil after add")
	}

	inTx(t, m, func() error { return e.SetName("g") })
	if m.Lookup(kind.GlobalElement, "e") != nil {
		t.Fatalf("Lookup(e) still finds renamed element")
	}
	if m.Lookup(kind.GlobalElement, "g") != e {
		t.Fatalf("Lookup(g) is not the renamed element")
	}
}

func TestRedefinedComponentsAreIndexed(t *testing.T) {
	m := mustParse(t, schema(``, `
  <xs:redefine schemaLocation="base.xsd">
    <xs:simpleType name="r"><xs:restriction base="r"/></xs:simpleType>
  </xs:redefine>`))
	r := m.Lookup(kind.GlobalSimpleType, "r")
	if r == nil || r.Parent().Kind() != kind.Redefine {
		t.Fatalf("Lookup(r) = %v, want the redefined simple type", r)
	}
	if got := m.Globals(kind.GlobalSimpleType); len(got) != 1 || got[0] != r {
		t.Fatalf("Globals(simpleType) = %v", got)
	}
}

func TestSyncFailureKeepsTree(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="e"/>`))
	e := find(t, m.Schema(), "e")
	var rec recorder
	m.Subscribe(rec.listen)

	err := m.Sync([]byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element`))
	if !xsderrors.HasCode(err, xsderrors.ErrNotWellFormed) {
		t.Fatalf("Sync() error = %v, want %s", err, xsderrors.ErrNotWellFormed)
	}
	if m.State() != StateNotWellFormed {
		t.Fatalf("State() = %s, want not-well-formed", m.State())
	}
	if find(t, m.Schema(), "e") != e {
		t.Fatalf("component tree replaced by failed sync")
	}
	if len(rec.signals) != 1 || rec.signals[0].Kind != SignalValidity || rec.signals[0].New != StateNotWellFormed.String() {
		t.Fatalf("signals = %v, want one validity signal", rec.kinds())
	}

	rec.signals = nil
	if err := m.Sync([]byte(schema(``, `<xs:element name="e"/><xs:element name="x"/>`))); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if m.State() != StateValid {
		t.Fatalf("State() = %s, want valid", m.State())
	}
	if e.Attached() {
		t.Fatalf("component from the replaced tree still attached")
	}
	if got := len(m.Elements()); got != 2 {
		t.Fatalf("Elements() = %d, want 2", got)
	}
	var sawValidity bool
	for _, s := range rec.signals {
		if s.Kind == SignalValidity && s.New == StateValid.String() {
			sawValidity = true
		}
	}
	if !sawValidity {
		t.Fatalf("signals = %v, want validity back to valid", rec.kinds())
	}
}

func TestClosedModel(t *testing.T) {
	m := mustParse(t, schema(``, `<xs:element name="e"/>`))
	e := find(t, m.Schema(), "e")
	var rec recorder
	m.Subscribe(rec.listen)
	m.Close()
	m.Close()

	if m.Valid() || !m.Closed() {
		t.Fatalf("closed model reports valid")
	}
	if len(rec.signals) != 1 || rec.signals[0].Kind != SignalValidity {
		t.Fatalf("signals = %v, want one final validity signal", rec.kinds())
	}
	if m.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount() = %d after Close", m.SubscriberCount())
	}
	err := m.Update(func() error { return e.SetName("x") })
	if !xsderrors.HasCode(err, xsderrors.ErrModelClosed) {
		t.Fatalf("SetName() on closed model error = %v", err)
	}
}
