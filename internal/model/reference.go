package model

import (
	"strings"
	"sync"

	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

// RefState is the resolution state of a Reference.
type RefState uint8

const (
	RefUnresolved RefState = iota
	RefResolved
	RefBroken
)

func (s RefState) String() string {
	switch s {
	case RefResolved:
		return "resolved"
	case RefBroken:
		return "broken"
	default:
		return "unresolved"
	}
}

// QName is a namespace-qualified name.
type QName struct {
	Namespace string
	Local     string
}

func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return "{" + q.Namespace + "}" + q.Local
}

// Reference is a QName-valued attribute token that designates a global
// declaration. Its namespace is bound from the prefix when the reference
// is created; resolution is lazy and memoized until one of the models it
// consulted changes.
type Reference struct {
	owner  *Component
	attr   attrs.Name
	raw    string
	prefix string
	name   QName
	bound  bool
	kinds  []kind.Kind

	mu     sync.Mutex
	state  RefState
	target *Component
	stamps []modelStamp
}

type modelStamp struct {
	model *Model
	epoch uint64
}

// NewReference binds raw, as written on owner's attribute attr, to a
// namespace. kinds lists the declaration kinds the reference may designate.
func NewReference(owner *Component, attr attrs.Name, raw string, kinds ...kind.Kind) *Reference {
	raw = strings.TrimSpace(raw)
	r := &Reference{owner: owner, attr: attr, raw: raw, kinds: kinds}
	prefix, local, hasPrefix := strings.Cut(raw, ":")
	if !hasPrefix {
		prefix, local = "", raw
	}
	r.prefix = prefix
	r.name.Local = local
	ns, ok := owner.model.doc.LookupNamespace(owner.node, prefix)
	switch {
	case ok:
		r.name.Namespace, r.bound = ns, true
	case prefix == "":
		r.bound = true
	}
	if local == "" {
		r.bound = false
	}
	return r
}

// Owner returns the component carrying the reference.
func (r *Reference) Owner() *Component { return r.owner }

// Attribute returns the attribute the reference was read from.
func (r *Reference) Attribute() attrs.Name { return r.attr }

// String returns the reference as written.
func (r *Reference) String() string { return r.raw }

// Prefix returns the prefix as written.
func (r *Reference) Prefix() string { return r.prefix }

// QName returns the bound name. Bound is false when the prefix is not
// declared in scope.
func (r *Reference) QName() (name QName, bound bool) { return r.name, r.bound }

// Kinds returns the declaration kinds the reference may designate.
func (r *Reference) Kinds() []kind.Kind { return r.kinds }

// State returns the memoized state without resolving.
func (r *Reference) State() RefState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RefUnresolved && !r.freshLocked() {
		return RefUnresolved
	}
	return r.state
}

// Broken reports whether the reference does not resolve.
func (r *Reference) Broken() bool { return r.Resolve() == nil }

// Resolve returns the designated component, or nil for a broken reference.
func (r *Reference) Resolve() *Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RefUnresolved && r.freshLocked() {
		return r.target
	}
	r.state, r.target, r.stamps = RefUnresolved, nil, nil
	tr := newTrace()
	var target *Component
	if r.bound {
		target = r.owner.model.resolve(r.name.Namespace, r.name.Local, r.kinds, tr)
	} else {
		tr.add(r.owner.model)
	}
	if tr.volatile {
		return target
	}
	r.target, r.stamps = target, tr.stamps
	r.state = RefBroken
	if target != nil {
		r.state = RefResolved
	}
	return target
}

func (r *Reference) freshLocked() bool {
	if len(r.stamps) == 0 {
		return false
	}
	for _, s := range r.stamps {
		if s.model.epoch.Load() != s.epoch || s.model.closed.Load() {
			return false
		}
	}
	return true
}

// trace records the models a resolution consulted and their epochs.
// A volatile trace consulted state that changes without an epoch bump
// (expiring negative entries, chameleon hosts) and is not memoized.
type trace struct {
	stamps   []modelStamp
	seen     map[*Model]struct{}
	volatile bool
}

func newTrace() *trace {
	return &trace{seen: make(map[*Model]struct{})}
}

func (t *trace) add(m *Model) {
	if t == nil {
		return
	}
	if _, ok := t.seen[m]; ok {
		return
	}
	t.seen[m] = struct{}{}
	t.stamps = append(t.stamps, modelStamp{model: m, epoch: m.epoch.Load()})
}

func (t *trace) markVolatile() {
	if t != nil {
		t.volatile = true
	}
}

type refAttr struct {
	name  attrs.Name
	kinds []kind.Kind
	multi bool
}

var (
	typeKinds       = []kind.Kind{kind.GlobalComplexType, kind.GlobalSimpleType}
	simpleTypeKinds = []kind.Kind{kind.GlobalSimpleType}
)

// referenceAttrs lists, per component kind, the attributes holding
// references and the kinds they designate.
var referenceAttrs = map[kind.Kind][]refAttr{
	kind.GlobalElement: {
		{name: attrs.Type, kinds: typeKinds},
		{name: attrs.SubstitutionGroup, kinds: []kind.Kind{kind.GlobalElement}},
	},
	kind.LocalElement:              {{name: attrs.Type, kinds: typeKinds}},
	kind.ElementReference:          {{name: attrs.Ref, kinds: []kind.Kind{kind.GlobalElement}}},
	kind.GlobalAttribute:           {{name: attrs.Type, kinds: simpleTypeKinds}},
	kind.LocalAttribute:            {{name: attrs.Type, kinds: simpleTypeKinds}},
	kind.AttributeReference:        {{name: attrs.Ref, kinds: []kind.Kind{kind.GlobalAttribute}}},
	kind.AttributeGroupReference:   {{name: attrs.Ref, kinds: []kind.Kind{kind.GlobalAttributeGroup}}},
	kind.GroupReference:            {{name: attrs.Ref, kinds: []kind.Kind{kind.GlobalGroup}}},
	kind.SimpleTypeRestriction:     {{name: attrs.Base, kinds: simpleTypeKinds}},
	kind.SimpleContentRestriction:  {{name: attrs.Base, kinds: typeKinds}},
	kind.SimpleContentExtension:    {{name: attrs.Base, kinds: typeKinds}},
	kind.ComplexContentRestriction: {{name: attrs.Base, kinds: typeKinds}},
	kind.ComplexContentExtension:   {{name: attrs.Base, kinds: typeKinds}},
	kind.List:                      {{name: attrs.ItemType, kinds: simpleTypeKinds}},
	kind.Union:                     {{name: attrs.MemberTypes, kinds: simpleTypeKinds, multi: true}},
}

// IsReferenceBearing reports whether components of kind k can carry
// references.
func IsReferenceBearing(k kind.Kind) bool {
	_, ok := referenceAttrs[k]
	return ok
}

type refEntry struct {
	raw  string
	refs []*Reference
}

func lookupRefAttr(k kind.Kind, name attrs.Name) (refAttr, bool) {
	for _, ra := range referenceAttrs[k] {
		if ra.name == name {
			return ra, true
		}
	}
	return refAttr{}, false
}

// refsFor returns the references held by attribute name, reusing the
// previous objects while the attribute text is unchanged.
func (c *Component) refsFor(name attrs.Name) []*Reference {
	ra, ok := lookupRefAttr(c.kind, name)
	if !ok {
		return nil
	}
	raw, ok := c.RawAttr(name)
	if !ok {
		return nil
	}
	m := c.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := c.refs[name]; ok && e.raw == raw {
		return e.refs
	}
	var refs []*Reference
	if ra.multi {
		for _, token := range strings.Fields(raw) {
			refs = append(refs, NewReference(c, name, token, ra.kinds...))
		}
	} else if strings.TrimSpace(raw) != "" {
		refs = []*Reference{NewReference(c, name, raw, ra.kinds...)}
	}
	if c.refs == nil {
		c.refs = make(map[attrs.Name]*refEntry)
	}
	c.refs[name] = &refEntry{raw: raw, refs: refs}
	return refs
}

func (c *Component) single(name attrs.Name) *Reference {
	refs := c.refsFor(name)
	if len(refs) == 0 {
		return nil
	}
	return refs[0]
}

// TypeRef returns the type attribute reference.
func (c *Component) TypeRef() *Reference { return c.single(attrs.Type) }

// Ref returns the ref attribute reference.
func (c *Component) Ref() *Reference { return c.single(attrs.Ref) }

// BaseRef returns the base attribute reference of a derivation.
func (c *Component) BaseRef() *Reference { return c.single(attrs.Base) }

// SubstitutionGroupRef returns the substitutionGroup reference.
func (c *Component) SubstitutionGroupRef() *Reference { return c.single(attrs.SubstitutionGroup) }

// ItemTypeRef returns the itemType reference of a list.
func (c *Component) ItemTypeRef() *Reference { return c.single(attrs.ItemType) }

// MemberTypeRefs returns one reference per memberTypes token of a union.
func (c *Component) MemberTypeRefs() []*Reference { return c.refsFor(attrs.MemberTypes) }

// References returns every reference carried by the component.
func (c *Component) References() []*Reference {
	var out []*Reference
	for _, ra := range referenceAttrs[c.kind] {
		out = append(out, c.refsFor(ra.name)...)
	}
	return out
}
