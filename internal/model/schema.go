package model

import (
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

// globalIndex maps (kind, local name) to the declaring component. It is
// rebuilt on first use after the schema root's children change.
type globalIndex struct {
	valid   bool
	entries map[indexKey]*Component
}

type indexKey struct {
	kind kind.Kind
	name string
}

func (x *globalIndex) reset() {
	x.valid = false
	x.entries = nil
}

func (m *Model) indexLocked() map[indexKey]*Component {
	if m.index.valid {
		return m.index.entries
	}
	entries := make(map[indexKey]*Component)
	for _, c := range m.globalsLocked() {
		name, ok := m.doc.Attr(c.node, string(attrs.NameAttr))
		if !ok {
			continue
		}
		key := indexKey{kind: c.kind, name: name}
		if _, dup := entries[key]; !dup {
			entries[key] = c
		}
	}
	m.index = globalIndex{valid: true, entries: entries}
	return entries
}

// globalsLocked returns the top-level declarations followed by the
// components redefined through redefine directives.
func (m *Model) globalsLocked() []*Component {
	s := m.schemaLocked()
	if s == nil {
		return nil
	}
	var out, redefined []*Component
	for _, c := range m.childrenLocked(s) {
		switch {
		case c.kind.IsGlobal():
			out = append(out, c)
		case c.kind == kind.Redefine:
			for _, r := range m.childrenLocked(c) {
				if r.kind.IsGlobal() {
					redefined = append(redefined, r)
				}
			}
		}
	}
	return append(out, redefined...)
}

// Lookup finds a global declaration of this document by kind and name,
// without following directives.
func (m *Model) Lookup(k kind.Kind, name string) *Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexLocked()[indexKey{kind: k, name: name}]
}

func (m *Model) lookupAny(name string, kinds []kind.Kind) *Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.indexLocked()
	for _, k := range kinds {
		if c, ok := idx[indexKey{kind: k, name: name}]; ok {
			return c
		}
	}
	return nil
}

// Globals returns this document's global components of kind k in document
// order, redefined components last.
func (m *Model) Globals(k kind.Kind) []*Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Component
	for _, c := range m.globalsLocked() {
		if c.kind == k {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) top(k kind.Kind) []*Component {
	s := m.Schema()
	if s == nil {
		return nil
	}
	return s.ChildrenOf(k)
}

// Elements returns the top-level element declarations.
func (m *Model) Elements() []*Component { return m.top(kind.GlobalElement) }

// Attributes returns the top-level attribute declarations.
func (m *Model) Attributes() []*Component { return m.top(kind.GlobalAttribute) }

// ComplexTypes returns the top-level complex type definitions.
func (m *Model) ComplexTypes() []*Component { return m.top(kind.GlobalComplexType) }

// SimpleTypes returns the top-level simple type definitions.
func (m *Model) SimpleTypes() []*Component { return m.top(kind.GlobalSimpleType) }

// Groups returns the top-level model group definitions.
func (m *Model) Groups() []*Component { return m.top(kind.GlobalGroup) }

// AttributeGroups returns the top-level attribute group definitions.
func (m *Model) AttributeGroups() []*Component { return m.top(kind.GlobalAttributeGroup) }

// Notations returns the notation declarations.
func (m *Model) Notations() []*Component { return m.top(kind.Notation) }

// Imports returns the import directives.
func (m *Model) Imports() []*Component { return m.top(kind.Import) }

// Includes returns the include directives.
func (m *Model) Includes() []*Component { return m.top(kind.Include) }

// Redefines returns the redefine directives.
func (m *Model) Redefines() []*Component { return m.top(kind.Redefine) }
