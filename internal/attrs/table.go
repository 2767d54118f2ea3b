// Package attrs is the attribute metadata table: the value shape of every
// recognized schema attribute and the literal sets of its enumerations.
package attrs

// Shape is the lexical shape of an attribute value.
type Shape uint8

const (
	ShapeString Shape = iota
	ShapeBoolean
	ShapeInteger
	ShapeEnum
	ShapeEnumSet
)

func (s Shape) String() string {
	switch s {
	case ShapeString:
		return "string"
	case ShapeBoolean:
		return "boolean"
	case ShapeInteger:
		return "integer"
	case ShapeEnum:
		return "enum"
	case ShapeEnumSet:
		return "enum-set"
	default:
		return "unknown"
	}
}

// Enum is a closed set of literals. Literal order is the serialization
// order of sets.
type Enum struct {
	Name     string
	Literals []string
}

// Has reports whether literal is declared by the enum.
func (e *Enum) Has(literal string) bool {
	return e.index(literal) >= 0
}

func (e *Enum) index(literal string) int {
	for i, l := range e.Literals {
		if l == literal {
			return i
		}
	}
	return -1
}

var (
	Form            = &Enum{Name: "form", Literals: []string{"qualified", "unqualified"}}
	Use             = &Enum{Name: "use", Literals: []string{"optional", "required", "prohibited"}}
	ProcessContents = &Enum{Name: "processContents", Literals: []string{"skip", "lax", "strict"}}
	WhiteSpace      = &Enum{Name: "whiteSpace", Literals: []string{"preserve", "replace", "collapse"}}
	Derivation      = &Enum{Name: "derivation", Literals: []string{"#all", "extension", "restriction", "substitution", "list", "union"}}
)

const (
	FormQualified   = "qualified"
	FormUnqualified = "unqualified"

	UseOptional   = "optional"
	UseRequired   = "required"
	UseProhibited = "prohibited"

	ProcessSkip   = "skip"
	ProcessLax    = "lax"
	ProcessStrict = "strict"

	DerivationAll          = "#all"
	DerivationExtension    = "extension"
	DerivationRestriction  = "restriction"
	DerivationSubstitution = "substitution"
	DerivationList         = "list"
	DerivationUnion        = "union"

	Unbounded = "unbounded"
)

// Name is a schema attribute name.
type Name string

const (
	ID                   Name = "id"
	NameAttr             Name = "name"
	Ref                  Name = "ref"
	Type                 Name = "type"
	Base                 Name = "base"
	SubstitutionGroup    Name = "substitutionGroup"
	ItemType             Name = "itemType"
	MemberTypes          Name = "memberTypes"
	Refer                Name = "refer"
	XPath                Name = "xpath"
	Namespace            Name = "namespace"
	SchemaLocation       Name = "schemaLocation"
	TargetNamespace      Name = "targetNamespace"
	Version              Name = "version"
	Default              Name = "default"
	Fixed                Name = "fixed"
	ValueAttr            Name = "value"
	Public               Name = "public"
	System               Name = "system"
	Source               Name = "source"
	MinOccurs            Name = "minOccurs"
	MaxOccurs            Name = "maxOccurs"
	Nillable             Name = "nillable"
	Abstract             Name = "abstract"
	Mixed                Name = "mixed"
	FormAttr             Name = "form"
	ElementFormDefault   Name = "elementFormDefault"
	AttributeFormDefault Name = "attributeFormDefault"
	UseAttr              Name = "use"
	ProcessContentsAttr  Name = "processContents"
	Block                Name = "block"
	Final                Name = "final"
	BlockDefault         Name = "blockDefault"
	FinalDefault         Name = "finalDefault"
)

// Meta describes one attribute.
type Meta struct {
	Name  Name
	Shape Shape
	Enum  *Enum
}

var table = map[Name]Meta{
	ID:                   {Name: ID, Shape: ShapeString},
	NameAttr:             {Name: NameAttr, Shape: ShapeString},
	Ref:                  {Name: Ref, Shape: ShapeString},
	Type:                 {Name: Type, Shape: ShapeString},
	Base:                 {Name: Base, Shape: ShapeString},
	SubstitutionGroup:    {Name: SubstitutionGroup, Shape: ShapeString},
	ItemType:             {Name: ItemType, Shape: ShapeString},
	MemberTypes:          {Name: MemberTypes, Shape: ShapeString},
	Refer:                {Name: Refer, Shape: ShapeString},
	XPath:                {Name: XPath, Shape: ShapeString},
	Namespace:            {Name: Namespace, Shape: ShapeString},
	SchemaLocation:       {Name: SchemaLocation, Shape: ShapeString},
	TargetNamespace:      {Name: TargetNamespace, Shape: ShapeString},
	Version:              {Name: Version, Shape: ShapeString},
	Default:              {Name: Default, Shape: ShapeString},
	Fixed:                {Name: Fixed, Shape: ShapeString},
	ValueAttr:            {Name: ValueAttr, Shape: ShapeString},
	Public:               {Name: Public, Shape: ShapeString},
	System:               {Name: System, Shape: ShapeString},
	Source:               {Name: Source, Shape: ShapeString},
	MinOccurs:            {Name: MinOccurs, Shape: ShapeInteger},
	MaxOccurs:            {Name: MaxOccurs, Shape: ShapeString},
	Nillable:             {Name: Nillable, Shape: ShapeBoolean},
	Abstract:             {Name: Abstract, Shape: ShapeBoolean},
	Mixed:                {Name: Mixed, Shape: ShapeBoolean},
	FormAttr:             {Name: FormAttr, Shape: ShapeEnum, Enum: Form},
	ElementFormDefault:   {Name: ElementFormDefault, Shape: ShapeEnum, Enum: Form},
	AttributeFormDefault: {Name: AttributeFormDefault, Shape: ShapeEnum, Enum: Form},
	UseAttr:              {Name: UseAttr, Shape: ShapeEnum, Enum: Use},
	ProcessContentsAttr:  {Name: ProcessContentsAttr, Shape: ShapeEnum, Enum: ProcessContents},
	Block:                {Name: Block, Shape: ShapeEnumSet, Enum: Derivation},
	Final:                {Name: Final, Shape: ShapeEnumSet, Enum: Derivation},
	BlockDefault:         {Name: BlockDefault, Shape: ShapeEnumSet, Enum: Derivation},
	FinalDefault:         {Name: FinalDefault, Shape: ShapeEnumSet, Enum: Derivation},
}

// Facet attributes whose shape depends on the facet kind rather than on
// the attribute name alone.
var (
	FacetCount      = Meta{Name: ValueAttr, Shape: ShapeInteger}
	FacetWhiteSpace = Meta{Name: ValueAttr, Shape: ShapeEnum, Enum: WhiteSpace}
	FacetFixed      = Meta{Name: Fixed, Shape: ShapeBoolean}
)

// Lookup returns the metadata for name.
func Lookup(name Name) (Meta, bool) {
	m, ok := table[name]
	return m, ok
}

// Names returns every attribute in the table.
func Names() []Name {
	out := make([]Name, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	return out
}
