package model

import (
	"strconv"

	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/kind"
)

type defaultKey struct {
	kind kind.Kind
	name attrs.Name
}

type defaultFunc func(c *Component) (attrs.Value, error)

var defaults = map[defaultKey]defaultFunc{}

func constant(v attrs.Value) defaultFunc {
	return func(*Component) (attrs.Value, error) { return v, nil }
}

func defaultFor(fn defaultFunc, name attrs.Name, kinds ...kind.Kind) {
	for _, k := range kinds {
		defaults[defaultKey{kind: k, name: name}] = fn
	}
}

// schemaDefault reads a schema-level default attribute, keeping only the
// derivation literals that apply to the component kind.
func schemaDefault(name attrs.Name, keep ...string) defaultFunc {
	return func(c *Component) (attrs.Value, error) {
		s := c.model.Schema()
		var v attrs.Value
		var err error
		if s == nil {
			v, err = defaults[defaultKey{kind: kind.Schema, name: name}](nil)
		} else {
			v, err = s.Effective(name)
		}
		if err != nil || len(keep) == 0 {
			return v, err
		}
		return attrs.SetValue(v.Set().Intersect(keep...)), nil
	}
}

func init() {
	particles := []kind.Kind{
		kind.LocalElement, kind.ElementReference, kind.GroupReference,
		kind.Sequence, kind.Choice, kind.All, kind.Any,
	}
	defaultFor(constant(attrs.Int(1)), attrs.MinOccurs, particles...)
	defaultFor(constant(attrs.String("1")), attrs.MaxOccurs, particles...)

	defaultFor(constant(attrs.Bool(false)), attrs.Nillable, kind.GlobalElement, kind.LocalElement)
	defaultFor(constant(attrs.Bool(false)), attrs.Abstract, kind.GlobalElement, kind.GlobalComplexType)
	defaultFor(constant(attrs.Bool(false)), attrs.Mixed, kind.GlobalComplexType, kind.LocalComplexType)
	defaultFor(func(c *Component) (attrs.Value, error) {
		if p := c.Parent(); p != nil && (p.kind == kind.GlobalComplexType || p.kind == kind.LocalComplexType) {
			return p.Effective(attrs.Mixed)
		}
		return attrs.Bool(false), nil
	}, attrs.Mixed, kind.ComplexContent)

	defaultFor(constant(attrs.Literal(attrs.FormUnqualified)), attrs.ElementFormDefault, kind.Schema)
	defaultFor(constant(attrs.Literal(attrs.FormUnqualified)), attrs.AttributeFormDefault, kind.Schema)
	defaultFor(constant(attrs.SetOf()), attrs.BlockDefault, kind.Schema)
	defaultFor(constant(attrs.SetOf()), attrs.FinalDefault, kind.Schema)

	defaultFor(schemaDefault(attrs.ElementFormDefault), attrs.FormAttr, kind.LocalElement)
	defaultFor(schemaDefault(attrs.AttributeFormDefault), attrs.FormAttr, kind.LocalAttribute)

	defaultFor(schemaDefault(attrs.BlockDefault,
		attrs.DerivationAll, attrs.DerivationExtension, attrs.DerivationRestriction, attrs.DerivationSubstitution),
		attrs.Block, kind.GlobalElement, kind.LocalElement)
	defaultFor(schemaDefault(attrs.BlockDefault,
		attrs.DerivationAll, attrs.DerivationExtension, attrs.DerivationRestriction),
		attrs.Block, kind.GlobalComplexType)
	defaultFor(schemaDefault(attrs.FinalDefault,
		attrs.DerivationAll, attrs.DerivationExtension, attrs.DerivationRestriction),
		attrs.Final, kind.GlobalElement, kind.GlobalComplexType)
	defaultFor(schemaDefault(attrs.FinalDefault,
		attrs.DerivationAll, attrs.DerivationRestriction, attrs.DerivationList, attrs.DerivationUnion),
		attrs.Final, kind.GlobalSimpleType)

	defaultFor(constant(attrs.Literal(attrs.UseOptional)), attrs.UseAttr, kind.LocalAttribute, kind.AttributeReference)
	defaultFor(constant(attrs.Literal(attrs.ProcessStrict)), attrs.ProcessContentsAttr, kind.Any, kind.AnyAttribute)
	defaultFor(constant(attrs.String("##any")), attrs.Namespace, kind.Any, kind.AnyAttribute)

	for _, k := range kind.Kinds() {
		if k.IsFacet() {
			defaultFor(constant(attrs.Bool(false)), attrs.Fixed, k)
		}
	}
}

// Default returns the value name takes when absent from markup. The second
// result is false when the attribute has no default on this kind.
func (c *Component) Default(name attrs.Name) (attrs.Value, bool, error) {
	fn, ok := defaults[defaultKey{kind: c.kind, name: name}]
	if !ok {
		return attrs.Value{}, false, nil
	}
	v, err := fn(c)
	return v, err == nil, err
}

// Effective returns the present value when set, else the default.
func (c *Component) Effective(name attrs.Name) (attrs.Value, error) {
	v, ok, err := c.Attr(name)
	if err != nil || ok {
		return v, err
	}
	v, _, err = c.Default(name)
	return v, err
}

// FormEffective returns the effective form of a local element or attribute.
func (c *Component) FormEffective() (string, error) {
	v, err := c.Effective(attrs.FormAttr)
	return v.Str(), err
}

// MinOccursEffective returns minOccurs, defaulting to 1.
func (c *Component) MinOccursEffective() (int64, error) {
	v, err := c.Effective(attrs.MinOccurs)
	return v.Int(), err
}

// MaxOccursEffective returns maxOccurs; unbounded reports "unbounded".
func (c *Component) MaxOccursEffective() (n int64, unbounded bool, err error) {
	v, err := c.Effective(attrs.MaxOccurs)
	if err != nil {
		return 0, false, err
	}
	if v.Str() == attrs.Unbounded {
		return 0, true, nil
	}
	n, err = strconv.ParseInt(v.Str(), 10, 64)
	return n, false, err
}

// BlockEffective returns the block set, inherited from blockDefault.
func (c *Component) BlockEffective() (attrs.Set, error) {
	v, err := c.Effective(attrs.Block)
	return v.Set(), err
}

// FinalEffective returns the final set, inherited from finalDefault.
func (c *Component) FinalEffective() (attrs.Set, error) {
	v, err := c.Effective(attrs.Final)
	return v.Set(), err
}

// UseEffective returns the attribute use, defaulting to optional.
func (c *Component) UseEffective() (string, error) {
	v, err := c.Effective(attrs.UseAttr)
	return v.Str(), err
}

// ProcessContentsEffective returns processContents, defaulting to strict.
func (c *Component) ProcessContentsEffective() (string, error) {
	v, err := c.Effective(attrs.ProcessContentsAttr)
	return v.Str(), err
}

// NillableEffective returns nillable, defaulting to false.
func (c *Component) NillableEffective() (bool, error) {
	v, err := c.Effective(attrs.Nillable)
	return v.Bool(), err
}

// AbstractEffective returns abstract, defaulting to false.
func (c *Component) AbstractEffective() (bool, error) {
	v, err := c.Effective(attrs.Abstract)
	return v.Bool(), err
}

// MixedEffective returns mixed; complexContent inherits from its type.
func (c *Component) MixedEffective() (bool, error) {
	v, err := c.Effective(attrs.Mixed)
	return v.Bool(), err
}
