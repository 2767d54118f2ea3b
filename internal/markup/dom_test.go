package markup

import (
	"bytes"
	"strings"
	"testing"
)

const sampleSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:tns="urn:a" targetNamespace="urn:a">
  <xs:annotation><xs:documentation>Hello <b>world</b></xs:documentation></xs:annotation>
  <xs:element name="root" type="tns:T"/>
  <xs:complexType name="T"/>
</xs:schema>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestParseStructure(t *testing.T) {
	doc := mustParse(t, sampleSchema)
	root := doc.Root()
	if got := doc.LocalName(root); got != "schema" {
		t.Fatalf("LocalName(root) = %q, want schema", got)
	}
	if got := doc.NamespaceURI(root); got != xsdNamespace {
		t.Fatalf("NamespaceURI(root) = %q, want %q", got, xsdNamespace)
	}
	if got := doc.Prefix(root); got != "xs" {
		t.Fatalf("Prefix(root) = %q, want xs", got)
	}
	children := doc.Children(root)
	if len(children) != 3 {
		t.Fatalf("len(Children(root)) = %d, want 3", len(children))
	}
	if v, ok := doc.Attr(children[1], "type"); !ok || v != "tns:T" {
		t.Fatalf("Attr(type) = %q, %v, want tns:T, true", v, ok)
	}
	doc2 := doc.Children(children[0])
	if len(doc2) != 1 || doc.LocalName(doc2[0]) != "documentation" {
		t.Fatalf("annotation children = %v, want one documentation", doc2)
	}
	if got := doc.Children(doc2[0]); got != nil {
		t.Fatalf("documentation children = %v, want opaque node", got)
	}
	if got := doc.Text(doc2[0]); got != "Hello <b>world</b>" {
		t.Fatalf("Text(documentation) = %q", got)
	}
}

func TestLookupNamespace(t *testing.T) {
	doc := mustParse(t, sampleSchema)
	elem := doc.Children(doc.Root())[1]
	tests := []struct {
		prefix string
		want   string
		ok     bool
	}{
		{prefix: "tns", want: "urn:a", ok: true},
		{prefix: "xs", want: xsdNamespace, ok: true},
		{prefix: "xml", want: XMLNamespace, ok: true},
		{prefix: "missing", ok: false},
	}
	for _, tt := range tests {
		got, ok := doc.LookupNamespace(elem, tt.prefix)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("LookupNamespace(%q) = %q, %v, want %q, %v", tt.prefix, got, ok, tt.want, tt.ok)
		}
	}
	if p, ok := doc.LookupPrefix(elem, "urn:a"); !ok || p != "tns" {
		t.Fatalf("LookupPrefix(urn:a) = %q, %v, want tns, true", p, ok)
	}
}

func TestLookupUndeclaredPrefix(t *testing.T) {
	doc := mustParse(t, `<r xmlns:a="urn:a"><c/></r>`)
	child := doc.Children(doc.Root())[0]
	for _, prefix := range []string{"q", "ns1", ""} {
		if ns, ok := doc.LookupNamespace(child, prefix); ok {
			t.Fatalf("LookupNamespace(%q) = %q, true, want unbound", prefix, ns)
		}
	}
	if ns, ok := doc.LookupNamespace(child, "a"); !ok || ns != "urn:a" {
		t.Fatalf("LookupNamespace(a) = %q, %v, want urn:a, true", ns, ok)
	}
}

func TestParseKeepsNamespaceDecls(t *testing.T) {
	doc := mustParse(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns="urn:d" version="1">
  <xs:annotation><xs:documentation><p xmlns:h="urn:h"/></xs:documentation></xs:annotation>
  <xs:element xmlns:e="urn:e" name="x"/>
</xs:schema>`)
	root := doc.Root()
	got := doc.Attributes(root)
	want := []Attr{
		{Prefix: "xmlns", Local: "xs", Value: xsdNamespace},
		{Local: "xmlns", Value: "urn:d"},
		{Local: "version", Value: "1"},
	}
	if len(got) != len(want) {
		t.Fatalf("Attributes(root) = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Attributes(root)[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	elem := doc.Children(root)[1]
	if v, ok := doc.Attr(elem, "name"); !ok || v != "x" {
		t.Fatalf("Attr(name) = %q, %v", v, ok)
	}
	attrs := doc.Attributes(elem)
	if len(attrs) != 2 || attrs[0] != (Attr{Prefix: "xmlns", Local: "e", Value: "urn:e"}) {
		t.Fatalf("Attributes(element) = %+v, want xmlns:e first", attrs)
	}
	if p, ok := doc.LookupPrefix(elem, xsdNamespace); !ok || p != "xs" {
		t.Fatalf("LookupPrefix(xsd) = %q, %v, want xs, true", p, ok)
	}
	if p, ok := doc.LookupPrefix(elem, "urn:d"); !ok || p != "" {
		t.Fatalf("LookupPrefix(urn:d) = %q, %v, want default, true", p, ok)
	}
	if _, ok := doc.LookupNamespace(root, "h"); ok {
		t.Fatalf("declaration inside documentation leaked to the schema")
	}
}

func TestLookupPrefixShadowed(t *testing.T) {
	doc := mustParse(t, `<r xmlns:p="urn:a"><c xmlns:p="urn:b"/></r>`)
	child := doc.Children(doc.Root())[0]
	if _, ok := doc.LookupPrefix(child, "urn:a"); ok {
		t.Fatalf("LookupPrefix(urn:a) found a shadowed prefix")
	}
	if p, ok := doc.LookupPrefix(child, "urn:b"); !ok || p != "p" {
		t.Fatalf("LookupPrefix(urn:b) = %q, %v, want p, true", p, ok)
	}
}

func TestMutationEvents(t *testing.T) {
	doc := mustParse(t, sampleSchema)
	var events []Event
	cancel := doc.Subscribe(func(ev Event) { events = append(events, ev) })
	defer cancel()

	root := doc.Root()
	n := doc.CreateNode(xsdNamespace, "xs:simpleType")
	if doc.Attached(n) {
		t.Fatalf("created node reported attached")
	}
	if err := doc.InsertChild(root, 1, n); err != nil {
		t.Fatalf("InsertChild() error = %v", err)
	}
	if err := doc.SetAttr(n, "name", "Age"); err != nil {
		t.Fatalf("SetAttr() error = %v", err)
	}
	if err := doc.SetAttr(n, "name", "Age"); err != nil {
		t.Fatalf("SetAttr() error = %v", err)
	}
	if err := doc.RemoveAttr(n, "name"); err != nil {
		t.Fatalf("RemoveAttr() error = %v", err)
	}
	if err := doc.RemoveChild(root, n); err != nil {
		t.Fatalf("RemoveChild() error = %v", err)
	}

	want := []Property{PropertyChildAdded, PropertyAttribute, PropertyAttribute, PropertyChildRemoved}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d: %+v", len(events), len(want), events)
	}
	for i, p := range want {
		if events[i].Property != p {
			t.Fatalf("events[%d].Property = %s, want %s", i, events[i].Property, p)
		}
	}
	if events[0].Index != 1 || events[0].Child != n {
		t.Fatalf("child-added event = %+v", events[0])
	}
	if events[1].HadOld || !events[1].HasNew || events[1].New != "Age" {
		t.Fatalf("attribute set event = %+v", events[1])
	}
	if !events[2].HadOld || events[2].HasNew || events[2].Old != "Age" {
		t.Fatalf("attribute remove event = %+v", events[2])
	}
}

func TestInsertRejectsCycles(t *testing.T) {
	doc := mustParse(t, `<r><a/></r>`)
	a := doc.Children(doc.Root())[0]
	if err := doc.InsertChild(a, 0, a); err == nil {
		t.Fatalf("InsertChild(a, a) expected error")
	}
	if err := doc.InsertChild(doc.Root(), 0, a); err == nil {
		t.Fatalf("InsertChild of attached node expected error")
	}
}

func TestSyncStateMachine(t *testing.T) {
	doc := mustParse(t, sampleSchema)
	var states []string
	cancel := doc.Subscribe(func(ev Event) {
		if ev.Property == PropertyState {
			states = append(states, ev.New)
		}
	})
	defer cancel()

	gen := doc.Generation()
	if err := doc.Sync([]byte(`<xs:schema xmlns:xs=`)); err == nil {
		t.Fatalf("Sync(broken) expected error")
	}
	if doc.State() != StateNotWellFormed {
		t.Fatalf("State() = %s, want not-well-formed", doc.State())
	}
	if doc.LocalName(doc.Root()) != "schema" {
		t.Fatalf("failed sync replaced the tree")
	}
	if doc.Generation() != gen {
		t.Fatalf("Generation changed on failed sync")
	}
	if err := doc.Sync([]byte(sampleSchema)); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if doc.State() != StateValid || doc.Generation() == gen {
		t.Fatalf("State() = %s, generation %d, want valid and new generation", doc.State(), doc.Generation())
	}
	if len(states) != 2 || states[0] != "not-well-formed" || states[1] != "valid" {
		t.Fatalf("state events = %v", states)
	}
}

func TestWriteToRoundTrip(t *testing.T) {
	doc := mustParse(t, sampleSchema)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	again := mustParse(t, buf.String())
	if got, want := len(again.Children(again.Root())), 3; got != want {
		t.Fatalf("reparsed children = %d, want %d", got, want)
	}
	if v, _ := again.Attr(again.Root(), "targetNamespace"); v != "urn:a" {
		t.Fatalf("reparsed targetNamespace = %q", v)
	}
	if ns, ok := again.LookupNamespace(again.Root(), "tns"); !ok || ns != "urn:a" {
		t.Fatalf("reparsed tns binding = %q, %v", ns, ok)
	}
	if p, ok := again.LookupPrefix(again.Root(), xsdNamespace); !ok || p != "xs" {
		t.Fatalf("reparsed xsd prefix = %q, %v", p, ok)
	}
	if got := again.NamespaceURI(again.Root()); got != xsdNamespace {
		t.Fatalf("reparsed root namespace = %q", got)
	}
}

func TestWriteEscapesAttributeValues(t *testing.T) {
	doc := mustParse(t, `<r/>`)
	if err := doc.SetAttr(doc.Root(), "a", `x"y&z<w>`); err != nil {
		t.Fatalf("SetAttr() error = %v", err)
	}
	if err := doc.SetAttr(doc.Root(), "b", "one\ntwo"); err != nil {
		t.Fatalf("SetAttr() error = %v", err)
	}
	out := string(doc.Bytes())
	if !strings.Contains(out, `a="x&quot;y&amp;z&lt;w&gt;"`) {
		t.Fatalf("output %q does not escape a", out)
	}
	if !strings.Contains(out, "b=\"one\ntwo\"") {
		t.Fatalf("output %q rewrote the newline in b", out)
	}
	again := mustParse(t, out)
	if v, _ := again.Attr(again.Root(), "a"); v != `x"y&z<w>` {
		t.Fatalf("reparsed a = %q", v)
	}
}

func TestCancelSubscription(t *testing.T) {
	doc := mustParse(t, `<r/>`)
	calls := 0
	cancel := doc.Subscribe(func(Event) { calls++ })
	cancel()
	cancel()
	if err := doc.SetAttr(doc.Root(), "a", "b"); err != nil {
		t.Fatalf("SetAttr() error = %v", err)
	}
	if calls != 0 || doc.ListenerCount() != 0 {
		t.Fatalf("calls = %d, listeners = %d, want 0, 0", calls, doc.ListenerCount())
	}
}
