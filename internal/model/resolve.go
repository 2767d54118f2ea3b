package model

import (
	"context"
	"slices"

	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/graphwalk"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

// Resolve finds the global declaration named {namespace}local of one of
// kinds, as seen from this model:
//   - the schema namespace resolves against the shared built-in types;
//   - the model's own namespace resolves in this document and everything
//     it includes or redefines;
//   - a schema without target namespace also resolves through the
//     documents that include it;
//   - any other namespace resolves through matching imports.
func (m *Model) Resolve(namespace, local string, kinds ...kind.Kind) *Component {
	return m.resolve(namespace, local, kinds, nil)
}

// ResolveQName resolves a prefixed name written on owner.
func (m *Model) ResolveQName(owner *Component, qname string, kinds ...kind.Kind) *Component {
	name, bound := NewReference(owner, "", qname, kinds...).QName()
	if !bound {
		return nil
	}
	return m.Resolve(name.Namespace, name.Local, kinds...)
}

func (m *Model) resolve(namespace, local string, kinds []kind.Kind, tr *trace) *Component {
	tr.add(m)
	if !m.Valid() {
		return nil
	}
	tns := m.namespace()
	if namespace == kind.XSDNamespace && tns != kind.XSDNamespace {
		b := m.builtins()
		if b == nil {
			return nil
		}
		tr.add(b)
		return b.lookupAny(local, kinds)
	}
	if namespace == tns {
		if c := m.resolveInClosure(local, kinds, tr); c != nil {
			return c
		}
		if tns == "" {
			return m.resolveAsChameleon("", local, kinds, tr)
		}
		return nil
	}
	if tns == "" {
		if c := m.resolveAsChameleon(namespace, local, kinds, tr); c != nil {
			return c
		}
	}
	return m.resolveViaImports(namespace, local, kinds, tr)
}

func (m *Model) builtins() *Model {
	if m.source == nil {
		return nil
	}
	return m.source.Builtins()
}

// resolveDirective resolves d and marks the trace volatile when the
// answer may change without an epoch bump.
func (m *Model) resolveDirective(d *Component, tr *trace) *Model {
	t := m.ResolveDirectiveContext(context.Background(), d)
	if t == nil {
		tr.markVolatile()
	}
	return t
}

// includeTargets returns the valid documents this model includes or
// redefines whose namespace is compatible with its own.
func (m *Model) includeTargets(tr *trace) []*Model {
	tns := m.namespace()
	var out []*Model
	for _, d := range m.Directives() {
		if d.kind != kind.Include && d.kind != kind.Redefine {
			continue
		}
		t := m.resolveDirective(d, tr)
		if t == nil {
			continue
		}
		if ns := t.namespace(); ns != "" && ns != tns {
			continue
		}
		out = append(out, t)
	}
	return out
}

// directiveTargets returns every valid document any directive points to.
func (m *Model) directiveTargets(tr *trace) []*Model {
	var out []*Model
	for _, d := range m.Directives() {
		if t := m.resolveDirective(d, tr); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// IncludeClosure returns this model followed by every document reachable
// through include and redefine directives, each once.
func (m *Model) IncludeClosure() []*Model {
	return m.includeClosure(nil)
}

func (m *Model) includeClosure(tr *trace) []*Model {
	return graphwalk.Reachable(func(x *Model) []*Model { return x.includeTargets(tr) }, m)
}

func (m *Model) resolveInClosure(local string, kinds []kind.Kind, tr *trace) *Component {
	var found *Component
	graphwalk.Walk(graphwalk.Config[*Model]{
		Starts: []*Model{m},
		Next:   func(x *Model) []*Model { return x.includeTargets(tr) },
		Visit: func(x *Model) bool {
			tr.add(x)
			found = x.lookupAny(local, kinds)
			return found == nil
		},
	})
	return found
}

func (m *Model) resolveViaImports(namespace, local string, kinds []kind.Kind, tr *trace) *Component {
	seen := make(map[*Model]struct{})
	for _, x := range m.includeClosure(tr) {
		for _, d := range x.Imports() {
			declared, ok := d.RawAttr(attrs.Namespace)
			if ok && declared != namespace {
				continue
			}
			if !ok && namespace != "" {
				continue
			}
			t := x.resolveDirective(d, tr)
			if t == nil || t.namespace() != namespace {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if c := t.resolveInClosure(local, kinds, tr); c != nil {
				return c
			}
		}
	}
	return nil
}

// chameleonHosts returns the live documents with namespace ns (any
// namespace when ns is empty) whose include closure contains m.
func (m *Model) chameleonHosts(namespace string, tr *trace) []*Model {
	if m.source == nil {
		return nil
	}
	tr.markVolatile()
	var out []*Model
	for _, h := range m.source.Models() {
		if h == m || !h.Valid() {
			continue
		}
		hns := h.namespace()
		if hns == "" || (namespace != "" && hns != namespace) {
			continue
		}
		if slices.Contains(h.includeClosure(tr), m) {
			out = append(out, h)
		}
	}
	return out
}

func (m *Model) resolveAsChameleon(namespace, local string, kinds []kind.Kind, tr *trace) *Component {
	for _, h := range m.chameleonHosts(namespace, tr) {
		if c := h.resolveInClosure(local, kinds, tr); c != nil {
			return c
		}
	}
	return nil
}

// FindAllGlobal returns the global components of kind k declared in this
// document and in every document reachable through any directive. Each
// document contributes once even when reachable through several paths or
// through cycles.
func (m *Model) FindAllGlobal(k kind.Kind) []*Component {
	var out []*Component
	graphwalk.Walk(graphwalk.Config[*Model]{
		Starts: []*Model{m},
		Next:   func(x *Model) []*Model { return x.directiveTargets(nil) },
		Visit: func(x *Model) bool {
			out = append(out, x.Globals(k)...)
			return true
		},
	})
	return out
}

// EffectiveNamespace returns the namespace c's declarations live in as
// seen from m. A component of a document without target namespace takes
// m's namespace when m includes that document and no directive of the
// reachable document set imports it.
func (m *Model) EffectiveNamespace(c *Component) string {
	owner := c.model
	ns, ok := owner.TargetNamespace()
	if ok || owner == m {
		return ns
	}
	if !slices.Contains(m.includeClosure(nil), owner) {
		return ""
	}
	if m.importsReach(owner) {
		return ""
	}
	return m.namespace()
}

// importsReach reports whether target is the target of an import from any
// document reachable from m.
func (m *Model) importsReach(target *Model) bool {
	_, found := graphwalk.Find(
		func(x *Model) []*Model { return x.directiveTargets(nil) },
		func(x *Model) bool {
			for _, d := range x.Imports() {
				if x.ResolveDirective(d) == target {
					return true
				}
			}
			return false
		},
		m,
	)
	return found
}
