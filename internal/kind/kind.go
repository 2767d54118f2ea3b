// Package kind is the closed registry of schema component kinds.
package kind

// Kind identifies which schema construct a component represents.
type Kind uint8

const (
	Invalid Kind = iota
	Schema
	Annotation
	Documentation
	AppInfo
	Import
	Include
	Redefine
	Notation
	GlobalElement
	LocalElement
	ElementReference
	GlobalAttribute
	LocalAttribute
	AttributeReference
	GlobalAttributeGroup
	AttributeGroupReference
	GlobalGroup
	GroupReference
	GlobalComplexType
	LocalComplexType
	GlobalSimpleType
	LocalSimpleType
	Sequence
	Choice
	All
	Any
	AnyAttribute
	SimpleContent
	ComplexContent
	SimpleContentRestriction
	SimpleContentExtension
	ComplexContentRestriction
	ComplexContentExtension
	SimpleTypeRestriction
	List
	Union
	Key
	KeyRef
	Unique
	Selector
	Field
	Length
	MinLength
	MaxLength
	Pattern
	Enumeration
	WhiteSpace
	MaxInclusive
	MaxExclusive
	MinInclusive
	MinExclusive
	TotalDigits
	FractionDigits

	// Count bounds the enumeration; tables indexed by Kind use it as length.
	Count
)

// XSDNamespace is the namespace of schema markup and of the built-in types.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

type info struct {
	name string
	tag  string
}

var infos = [Count]info{
	Invalid:                   {name: "invalid"},
	Schema:                    {name: "schema", tag: "schema"},
	Annotation:                {name: "annotation", tag: "annotation"},
	Documentation:             {name: "documentation", tag: "documentation"},
	AppInfo:                   {name: "appinfo", tag: "appinfo"},
	Import:                    {name: "import", tag: "import"},
	Include:                   {name: "include", tag: "include"},
	Redefine:                  {name: "redefine", tag: "redefine"},
	Notation:                  {name: "notation", tag: "notation"},
	GlobalElement:             {name: "global-element", tag: "element"},
	LocalElement:              {name: "local-element", tag: "element"},
	ElementReference:          {name: "element-reference", tag: "element"},
	GlobalAttribute:           {name: "global-attribute", tag: "attribute"},
	LocalAttribute:            {name: "local-attribute", tag: "attribute"},
	AttributeReference:        {name: "attribute-reference", tag: "attribute"},
	GlobalAttributeGroup:      {name: "global-attribute-group", tag: "attributeGroup"},
	AttributeGroupReference:   {name: "attribute-group-reference", tag: "attributeGroup"},
	GlobalGroup:               {name: "global-group", tag: "group"},
	GroupReference:            {name: "group-reference", tag: "group"},
	GlobalComplexType:         {name: "global-complex-type", tag: "complexType"},
	LocalComplexType:          {name: "local-complex-type", tag: "complexType"},
	GlobalSimpleType:          {name: "global-simple-type", tag: "simpleType"},
	LocalSimpleType:           {name: "local-simple-type", tag: "simpleType"},
	Sequence:                  {name: "sequence", tag: "sequence"},
	Choice:                    {name: "choice", tag: "choice"},
	All:                       {name: "all", tag: "all"},
	Any:                       {name: "any", tag: "any"},
	AnyAttribute:              {name: "any-attribute", tag: "anyAttribute"},
	SimpleContent:             {name: "simple-content", tag: "simpleContent"},
	ComplexContent:            {name: "complex-content", tag: "complexContent"},
	SimpleContentRestriction:  {name: "simple-content-restriction", tag: "restriction"},
	SimpleContentExtension:    {name: "simple-content-extension", tag: "extension"},
	ComplexContentRestriction: {name: "complex-content-restriction", tag: "restriction"},
	ComplexContentExtension:   {name: "complex-content-extension", tag: "extension"},
	SimpleTypeRestriction:     {name: "simple-type-restriction", tag: "restriction"},
	List:                      {name: "list", tag: "list"},
	Union:                     {name: "union", tag: "union"},
	Key:                       {name: "key", tag: "key"},
	KeyRef:                    {name: "keyref", tag: "keyref"},
	Unique:                    {name: "unique", tag: "unique"},
	Selector:                  {name: "selector", tag: "selector"},
	Field:                     {name: "field", tag: "field"},
	Length:                    {name: "length", tag: "length"},
	MinLength:                 {name: "min-length", tag: "minLength"},
	MaxLength:                 {name: "max-length", tag: "maxLength"},
	Pattern:                   {name: "pattern", tag: "pattern"},
	Enumeration:               {name: "enumeration", tag: "enumeration"},
	WhiteSpace:                {name: "white-space", tag: "whiteSpace"},
	MaxInclusive:              {name: "max-inclusive", tag: "maxInclusive"},
	MaxExclusive:              {name: "max-exclusive", tag: "maxExclusive"},
	MinInclusive:              {name: "min-inclusive", tag: "minInclusive"},
	MinExclusive:              {name: "min-exclusive", tag: "minExclusive"},
	TotalDigits:               {name: "total-digits", tag: "totalDigits"},
	FractionDigits:            {name: "fraction-digits", tag: "fractionDigits"},
}

// String returns the kind name.
func (k Kind) String() string {
	if k >= Count {
		return "unknown"
	}
	return infos[k].name
}

// Tag returns the local name of the markup element for k.
func (k Kind) Tag() string {
	if k >= Count {
		return ""
	}
	return infos[k].tag
}

// Valid reports whether k is a member of the registry.
func (k Kind) Valid() bool {
	return k > Invalid && k < Count
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, Count-1)
	for k := Invalid + 1; k < Count; k++ {
		out = append(out, k)
	}
	return out
}

// Parse returns the kind with the given name.
func Parse(name string) (Kind, bool) {
	for k := Invalid + 1; k < Count; k++ {
		if infos[k].name == name {
			return k, true
		}
	}
	return Invalid, false
}

// IsGlobal reports whether k is a top-level, globally named declaration.
func (k Kind) IsGlobal() bool {
	switch k {
	case GlobalElement, GlobalAttribute, GlobalAttributeGroup, GlobalGroup,
		GlobalComplexType, GlobalSimpleType, Notation:
		return true
	}
	return false
}

// IsDirective reports whether k links to another schema document.
func (k Kind) IsDirective() bool {
	return k == Import || k == Include || k == Redefine
}

// IsFacet reports whether k is a constraining facet.
func (k Kind) IsFacet() bool {
	return k >= Length && k <= FractionDigits
}

// IsType reports whether k is a simple or complex type definition.
func (k Kind) IsType() bool {
	switch k {
	case GlobalComplexType, LocalComplexType, GlobalSimpleType, LocalSimpleType:
		return true
	}
	return false
}

// IsReference reports whether k is a use of a global declaration via ref.
func (k Kind) IsReference() bool {
	switch k {
	case ElementReference, AttributeReference, AttributeGroupReference, GroupReference:
		return true
	}
	return false
}

// IsIdentityConstraint reports whether k is key, keyref or unique.
func (k Kind) IsIdentityConstraint() bool {
	return k == Key || k == KeyRef || k == Unique
}
