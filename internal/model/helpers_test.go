package model

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jacoelho/xsdmodel/internal/markup"
)

const builtinsXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
  targetNamespace="http://www.w3.org/2001/XMLSchema">
  <xs:complexType name="anyType"/>
  <xs:simpleType name="anySimpleType"/>
  <xs:simpleType name="string"><xs:restriction base="xs:anySimpleType"/></xs:simpleType>
  <xs:simpleType name="int"><xs:restriction base="xs:anySimpleType"/></xs:simpleType>
</xs:schema>`

// stubSource serves models by schemaLocation.
type stubSource struct {
	mu       sync.Mutex
	docs     map[string]*Model
	calls    map[string]int
	builtins *Model
	clock    *fakeClock
}

func newStubSource(t *testing.T) *stubSource {
	t.Helper()
	s := &stubSource{
		docs:  make(map[string]*Model),
		calls: make(map[string]int),
		clock: &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	doc, err := markup.Parse([]byte(builtinsXSD))
	if err != nil {
		t.Fatalf("Parse(builtins) error = %v", err)
	}
	s.builtins = New(doc, Options{Identity: "builtins"})
	return s
}

func (s *stubSource) ResolveDirective(_ context.Context, req DirectiveRequest) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.Location]++
	m, ok := s.docs[req.Location]
	if !ok {
		return nil, fmt.Errorf("no document at %q", req.Location)
	}
	return m, nil
}

func (s *stubSource) Builtins() *Model { return s.builtins }

func (s *stubSource) Models() []*Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Model, 0, len(s.docs))
	for _, m := range s.docs {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *Model) int { return strings.Compare(a.Identity(), b.Identity()) })
	return out
}

func (s *stubSource) callCount(location string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[location]
}

func (s *stubSource) load(t *testing.T, identity, text string) *Model {
	t.Helper()
	doc, err := markup.Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", identity, err)
	}
	m := New(doc, Options{Source: s, Identity: identity, Clock: s.clock.Now})
	s.mu.Lock()
	s.docs[identity] = m
	s.mu.Unlock()
	return m
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func schema(attrs, body string) string {
	return `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" ` + attrs + `>` + body + `</xs:schema>`
}

func mustParse(t *testing.T, text string) *Model {
	t.Helper()
	doc, err := markup.Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return New(doc, Options{Identity: "test.xsd"})
}

// find returns the first component below root with the given name.
func find(t *testing.T, root *Component, name string) *Component {
	t.Helper()
	for c := range root.Descendants() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("no component named %q", name)
	return nil
}

func inTx(t *testing.T, m *Model, fn func() error) {
	t.Helper()
	if err := m.Update(fn); err != nil {
		t.Fatalf("transaction error = %v", err)
	}
}
