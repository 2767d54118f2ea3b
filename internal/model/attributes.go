package model

import (
	"strconv"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

// MetaFor returns the attribute metadata of name on a component of kind k.
// Facet value and fixed attributes take their shape from the facet.
func MetaFor(k kind.Kind, name attrs.Name) (attrs.Meta, bool) {
	if k.IsFacet() {
		switch name {
		case attrs.ValueAttr:
			switch k {
			case kind.Length, kind.MinLength, kind.MaxLength, kind.TotalDigits, kind.FractionDigits:
				return attrs.FacetCount, true
			case kind.WhiteSpace:
				return attrs.FacetWhiteSpace, true
			}
		case attrs.Fixed:
			return attrs.FacetFixed, true
		}
	}
	return attrs.Lookup(name)
}

func (c *Component) meta(name attrs.Name) (attrs.Meta, error) {
	meta, ok := MetaFor(c.kind, name)
	if !ok {
		e := xsderrors.Newf(xsderrors.ErrUnknownAttribute, "unknown attribute %s", name)
		e.Kind, e.Attribute = c.kind.String(), string(name)
		return attrs.Meta{}, e
	}
	return meta, nil
}

// RawAttr returns the attribute as written in markup.
func (c *Component) RawAttr(name attrs.Name) (string, bool) {
	if !c.live() {
		return "", false
	}
	return c.model.doc.Attr(c.node, string(name))
}

func (c *Component) live() bool {
	m := c.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return c.liveLocked()
}

// Attr returns the typed value present in markup. The second result is
// false when the attribute is absent; a malformed literal is an error.
func (c *Component) Attr(name attrs.Name) (attrs.Value, bool, error) {
	meta, err := c.meta(name)
	if err != nil {
		return attrs.Value{}, false, err
	}
	raw, ok := c.RawAttr(name)
	if !ok {
		return attrs.Value{}, false, nil
	}
	v, err := attrs.Parse(meta, raw)
	if err != nil {
		if e, ok := xsderrors.AsError(err); ok {
			e.Kind = c.kind.String()
		}
		return attrs.Value{}, true, err
	}
	return v, true, nil
}

// SetAttr writes a typed value. It requires an open transaction.
func (c *Component) SetAttr(name attrs.Name, v attrs.Value) error {
	if err := c.model.requireTx(); err != nil {
		return err
	}
	meta, err := c.meta(name)
	if err != nil {
		return err
	}
	raw, err := attrs.Format(meta, v)
	if err != nil {
		if e, ok := xsderrors.AsError(err); ok {
			e.Kind = c.kind.String()
		}
		return err
	}
	if err := c.validate(name, v, raw); err != nil {
		return err
	}
	return c.model.doc.SetAttr(c.node, string(name), raw)
}

// ClearAttr removes the attribute so the default applies again.
func (c *Component) ClearAttr(name attrs.Name) error {
	if err := c.model.requireTx(); err != nil {
		return err
	}
	if _, err := c.meta(name); err != nil {
		return err
	}
	return c.model.doc.RemoveAttr(c.node, string(name))
}

// setRaw writes a string-shaped attribute without typed conversion; used
// when rewriting reference attributes.
func (c *Component) setRaw(name attrs.Name, raw string) error {
	if err := c.model.requireTx(); err != nil {
		return err
	}
	return c.model.doc.SetAttr(c.node, string(name), raw)
}

func (c *Component) validate(name attrs.Name, v attrs.Value, raw string) error {
	invalid := func(msg string) error {
		e := xsderrors.New(xsderrors.ErrInvalidFacetValue, msg)
		e.Kind, e.Attribute, e.Value = c.kind.String(), string(name), raw
		return e
	}
	switch {
	case name == attrs.ValueAttr && v.Shape() == attrs.ShapeInteger:
		switch c.kind {
		case kind.TotalDigits:
			if v.Int() <= 0 {
				return invalid("totalDigits must be positive")
			}
		default:
			if v.Int() < 0 {
				return invalid(c.kind.Tag() + " must not be negative")
			}
		}
	case name == attrs.MinOccurs:
		if v.Int() < 0 {
			return invalid("minOccurs must not be negative")
		}
	case name == attrs.MaxOccurs:
		if raw == attrs.Unbounded {
			return nil
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err != nil || n < 0 {
			e := xsderrors.New(xsderrors.ErrInvalidLiteral, "maxOccurs must be a non-negative integer or unbounded")
			e.Kind, e.Attribute, e.Value = c.kind.String(), string(name), raw
			return e
		}
	}
	return nil
}

// Name returns the name attribute, or "" when absent.
func (c *Component) Name() string {
	v, _ := c.RawAttr(attrs.NameAttr)
	return v
}

// SetName writes the name attribute.
func (c *Component) SetName(name string) error {
	return c.SetAttr(attrs.NameAttr, attrs.String(name))
}
