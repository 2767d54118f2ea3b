package model

import (
	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
	"github.com/jacoelho/xsdmodel/internal/markup"
)

// slot orders children of one parent: children with a lower slot come
// first. Annotation always takes slot 0.
func slot(parent, child kind.Kind) int {
	if child == kind.Annotation {
		return 0
	}
	switch parent {
	case kind.Schema:
		if child.IsDirective() {
			return 1
		}
		return 2
	case kind.GlobalComplexType, kind.LocalComplexType,
		kind.ComplexContentRestriction, kind.ComplexContentExtension,
		kind.SimpleContentExtension, kind.GlobalAttributeGroup:
		switch child {
		case kind.LocalAttribute, kind.AttributeReference, kind.AttributeGroupReference:
			return 3
		case kind.AnyAttribute:
			return 4
		}
		return 1
	case kind.SimpleContentRestriction:
		switch {
		case child == kind.LocalSimpleType:
			return 1
		case child.IsFacet():
			return 2
		case child == kind.AnyAttribute:
			return 4
		}
		return 3
	case kind.SimpleTypeRestriction:
		if child == kind.LocalSimpleType {
			return 1
		}
		return 2
	case kind.GlobalElement, kind.LocalElement:
		if child.IsIdentityConstraint() {
			return 2
		}
		return 1
	case kind.Key, kind.KeyRef, kind.Unique:
		if child == kind.Field {
			return 2
		}
		return 1
	}
	return 1
}

// AddChild inserts child after every sibling that must precede it and
// before the first sibling that must follow it.
func (c *Component) AddChild(child *Component) error {
	return c.InsertChild(child, -1)
}

// InsertChild inserts child at position index among the children of its
// ordering slot; a negative index appends within the slot.
func (c *Component) InsertChild(child *Component, index int) error {
	m := c.model
	if err := m.requireTx(); err != nil {
		return err
	}
	if child == nil || child.model != m {
		return xsderrors.New(xsderrors.ErrForeignComponent, "child belongs to another model")
	}
	k, ok := classifyChild(m.doc, c.kind, child.node)
	if !ok || k != child.kind {
		e := xsderrors.Newf(xsderrors.ErrChildNotAllowed, "%s cannot contain %s", c.kind, child.kind)
		e.Kind = child.kind.String()
		return e
	}
	want := slot(c.kind, child.kind)
	pos := -1
	seen := 0
	for _, sib := range c.Children() {
		s := slot(c.kind, sib.kind)
		if s < want {
			continue
		}
		if s == want && (index < 0 || seen < index) {
			seen++
			continue
		}
		pos = m.doc.IndexOf(c.node, sib.node)
		break
	}
	return m.doc.InsertChild(c.node, pos, child.node)
}

// RemoveChild detaches child. The removed component keeps its identity and
// may be inserted again.
func (c *Component) RemoveChild(child *Component) error {
	m := c.model
	if err := m.requireTx(); err != nil {
		return err
	}
	if child == nil || child.model != m {
		return xsderrors.New(xsderrors.ErrForeignComponent, "child belongs to another model")
	}
	if m.doc.Parent(child.node) != c.node {
		e := xsderrors.Newf(xsderrors.ErrNotAChild, "%s is not a child of %s", child.kind, c.kind)
		e.Kind = child.kind.String()
		return e
	}
	return m.doc.RemoveChild(c.node, child.node)
}

// Factory creates detached components for one model.
type Factory struct {
	m *Model
}

// Factory returns the component factory of m.
func (m *Model) Factory() Factory { return Factory{m: m} }

const defaultXSDPrefix = "xs"

// Create makes a detached component of kind k. The element uses the prefix
// the schema binds to the schema namespace. Element and attribute
// references carry an empty ref attribute so they classify as references.
func (f Factory) Create(k kind.Kind) (*Component, error) {
	m := f.m
	if !k.Valid() {
		return nil, xsderrors.Newf(xsderrors.ErrChildNotAllowed, "cannot create kind %d", k)
	}
	prefix, declare := f.prefix()
	qname := k.Tag()
	if prefix != "" {
		qname = prefix + ":" + qname
	}
	node := m.doc.CreateNode(kind.XSDNamespace, qname)
	if declare {
		if err := m.doc.DeclareNamespace(node, prefix, kind.XSDNamespace); err != nil {
			return nil, err
		}
	}
	if k == kind.ElementReference || k == kind.AttributeReference {
		if err := m.doc.SetAttr(node, string(attrs.Ref), ""); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	c := m.componentLocked(node, k, nil)
	m.mu.Unlock()
	return c, nil
}

// prefix returns the prefix bound to the schema namespace on the root, and
// whether a declaration is needed because none exists.
func (f Factory) prefix() (string, bool) {
	root := f.m.doc.Root()
	if root == markup.InvalidNode {
		return defaultXSDPrefix, true
	}
	if p, ok := f.m.doc.LookupPrefix(root, kind.XSDNamespace); ok {
		return p, false
	}
	return defaultXSDPrefix, true
}

// CreateNamed makes a detached component with its name attribute set.
func (f Factory) CreateNamed(k kind.Kind, name string) (*Component, error) {
	c, err := f.Create(k)
	if err != nil {
		return nil, err
	}
	if err := f.m.doc.SetAttr(c.node, string(attrs.NameAttr), name); err != nil {
		return nil, err
	}
	return c, nil
}
