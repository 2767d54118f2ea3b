// Package classify decides the component kind of a schema markup node from
// its tag, its parent component kind and the presence of a ref attribute.
package classify

import (
	"slices"

	"github.com/jacoelho/xsdmodel/internal/kind"
)

// Node is the markup view the classifier needs.
type Node interface {
	NamespaceURI() string
	LocalName() string
	HasAttr(name string) bool
}

type rule struct {
	plain kind.Kind
	local kind.Kind
	ref   kind.Kind
}

func (r rule) apply(n Node) kind.Kind {
	if r.plain != kind.Invalid {
		return r.plain
	}
	if n.HasAttr("ref") {
		return r.ref
	}
	return r.local
}

func is(k kind.Kind) rule { return rule{plain: k} }

func byRef(local, ref kind.Kind) rule { return rule{local: local, ref: ref} }

// tags maps a child tag to its rule under one parent kind. A nil map means
// the parent kind has no table entry; an empty map means no children other
// than annotation.
type tags map[string]rule

var (
	leaf = tags{}

	elementChildren = byRef(kind.LocalElement, kind.ElementReference)
	attrChildren    = byRef(kind.LocalAttribute, kind.AttributeReference)

	facets = tags{
		"length":         is(kind.Length),
		"minLength":      is(kind.MinLength),
		"maxLength":      is(kind.MaxLength),
		"pattern":        is(kind.Pattern),
		"enumeration":    is(kind.Enumeration),
		"whiteSpace":     is(kind.WhiteSpace),
		"maxInclusive":   is(kind.MaxInclusive),
		"maxExclusive":   is(kind.MaxExclusive),
		"minInclusive":   is(kind.MinInclusive),
		"minExclusive":   is(kind.MinExclusive),
		"totalDigits":    is(kind.TotalDigits),
		"fractionDigits": is(kind.FractionDigits),
	}

	attributeUses = tags{
		"attribute":      attrChildren,
		"attributeGroup": is(kind.AttributeGroupReference),
		"anyAttribute":   is(kind.AnyAttribute),
	}

	complexBody = merge(attributeUses, tags{
		"group":    is(kind.GroupReference),
		"sequence": is(kind.Sequence),
		"choice":   is(kind.Choice),
		"all":      is(kind.All),
	})

	complexType = merge(complexBody, tags{
		"simpleContent":  is(kind.SimpleContent),
		"complexContent": is(kind.ComplexContent),
	})

	particles = tags{
		"element":  elementChildren,
		"group":    is(kind.GroupReference),
		"choice":   is(kind.Choice),
		"sequence": is(kind.Sequence),
		"any":      is(kind.Any),
	}

	simpleType = tags{
		"restriction": is(kind.SimpleTypeRestriction),
		"list":        is(kind.List),
		"union":       is(kind.Union),
	}

	localSimpleType = tags{"simpleType": is(kind.LocalSimpleType)}

	elementBody = tags{
		"simpleType":  is(kind.LocalSimpleType),
		"complexType": is(kind.LocalComplexType),
		"key":         is(kind.Key),
		"keyref":      is(kind.KeyRef),
		"unique":      is(kind.Unique),
	}

	identity = tags{
		"selector": is(kind.Selector),
		"field":    is(kind.Field),
	}
)

var rules = [kind.Count]tags{
	kind.Schema: {
		"element":        is(kind.GlobalElement),
		"attribute":      is(kind.GlobalAttribute),
		"attributeGroup": is(kind.GlobalAttributeGroup),
		"group":          is(kind.GlobalGroup),
		"complexType":    is(kind.GlobalComplexType),
		"simpleType":     is(kind.GlobalSimpleType),
		"notation":       is(kind.Notation),
		"import":         is(kind.Import),
		"include":        is(kind.Include),
		"redefine":       is(kind.Redefine),
	},
	kind.Annotation: {
		"documentation": is(kind.Documentation),
		"appinfo":       is(kind.AppInfo),
	},
	kind.Documentation: leaf,
	kind.AppInfo:       leaf,
	kind.Import:        leaf,
	kind.Include:       leaf,
	kind.Redefine: {
		"simpleType":     is(kind.GlobalSimpleType),
		"complexType":    is(kind.GlobalComplexType),
		"group":          is(kind.GlobalGroup),
		"attributeGroup": is(kind.GlobalAttributeGroup),
	},
	kind.Notation:                leaf,
	kind.GlobalElement:           elementBody,
	kind.LocalElement:            elementBody,
	kind.ElementReference:        leaf,
	kind.GlobalAttribute:         localSimpleType,
	kind.LocalAttribute:          localSimpleType,
	kind.AttributeReference:      leaf,
	kind.GlobalAttributeGroup:    attributeUses,
	kind.AttributeGroupReference: leaf,
	kind.GlobalGroup: {
		"sequence": is(kind.Sequence),
		"choice":   is(kind.Choice),
		"all":      is(kind.All),
		"element":  elementChildren,
	},
	kind.GroupReference:            leaf,
	kind.GlobalComplexType:         complexType,
	kind.LocalComplexType:          complexType,
	kind.GlobalSimpleType:          simpleType,
	kind.LocalSimpleType:           simpleType,
	kind.Sequence:                  particles,
	kind.Choice:                    particles,
	kind.All:                       {"element": elementChildren},
	kind.Any:                       leaf,
	kind.AnyAttribute:              leaf,
	kind.SimpleContent:             {"restriction": is(kind.SimpleContentRestriction), "extension": is(kind.SimpleContentExtension)},
	kind.ComplexContent:            {"restriction": is(kind.ComplexContentRestriction), "extension": is(kind.ComplexContentExtension)},
	kind.SimpleContentRestriction:  merge(localSimpleType, facets, attributeUses),
	kind.SimpleContentExtension:    attributeUses,
	kind.ComplexContentRestriction: complexBody,
	kind.ComplexContentExtension:   complexBody,
	kind.SimpleTypeRestriction:     merge(localSimpleType, facets),
	kind.List:                      localSimpleType,
	kind.Union:                     localSimpleType,
	kind.Key:                       identity,
	kind.KeyRef:                    identity,
	kind.Unique:                    identity,
	kind.Selector:                  leaf,
	kind.Field:                     leaf,
	kind.Length:                    leaf,
	kind.MinLength:                 leaf,
	kind.MaxLength:                 leaf,
	kind.Pattern:                   leaf,
	kind.Enumeration:               leaf,
	kind.WhiteSpace:                leaf,
	kind.MaxInclusive:              leaf,
	kind.MaxExclusive:              leaf,
	kind.MinInclusive:              leaf,
	kind.MinExclusive:              leaf,
	kind.TotalDigits:               leaf,
	kind.FractionDigits:            leaf,
}

func merge(sets ...tags) tags {
	out := make(tags)
	for _, s := range sets {
		for tag, r := range s {
			out[tag] = r
		}
	}
	return out
}

// Classify returns the component kind for n placed under a parent of kind
// parent. Pass kind.Invalid when n has no parent. The second result is
// false when n contributes no component.
func Classify(parent kind.Kind, n Node) (kind.Kind, bool) {
	if n == nil || n.NamespaceURI() != kind.XSDNamespace {
		return kind.Invalid, false
	}
	tag := n.LocalName()
	if parent == kind.Invalid {
		if tag == kind.Schema.Tag() {
			return kind.Schema, true
		}
		return kind.Invalid, false
	}
	if tag == kind.Annotation.Tag() {
		return kind.Annotation, true
	}
	if parent >= kind.Count {
		return kind.Invalid, false
	}
	r, ok := rules[parent][tag]
	if !ok {
		return kind.Invalid, false
	}
	k := r.apply(n)
	return k, k != kind.Invalid
}

// Defined reports whether parent has an entry in the rule table.
func Defined(parent kind.Kind) bool {
	return parent < kind.Count && rules[parent] != nil
}

// ChildKinds returns every kind that can be classified under parent,
// excluding annotation.
func ChildKinds(parent kind.Kind) []kind.Kind {
	if !Defined(parent) {
		return nil
	}
	seen := make(map[kind.Kind]bool)
	var out []kind.Kind
	add := func(k kind.Kind) {
		if k != kind.Invalid && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, r := range rules[parent] {
		add(r.plain)
		add(r.local)
		add(r.ref)
	}
	slices.Sort(out)
	return out
}
