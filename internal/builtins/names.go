// Package builtins describes the built-in datatypes of the schema
// namespace and builds the shared document that declares them.
package builtins

import "github.com/jacoelho/xsdmodel/internal/kind"

// XSDNamespace is the namespace of the built-in types.
const XSDNamespace = kind.XSDNamespace

// TypeName is the local name of a built-in type.
type TypeName string

const (
	TypeNameAnyType       TypeName = "anyType"
	TypeNameAnySimpleType TypeName = "anySimpleType"

	TypeNameString       TypeName = "string"
	TypeNameBoolean      TypeName = "boolean"
	TypeNameDecimal      TypeName = "decimal"
	TypeNameFloat        TypeName = "float"
	TypeNameDouble       TypeName = "double"
	TypeNameDuration     TypeName = "duration"
	TypeNameDateTime     TypeName = "dateTime"
	TypeNameTime         TypeName = "time"
	TypeNameDate         TypeName = "date"
	TypeNameGYearMonth   TypeName = "gYearMonth"
	TypeNameGYear        TypeName = "gYear"
	TypeNameGMonthDay    TypeName = "gMonthDay"
	TypeNameGDay         TypeName = "gDay"
	TypeNameGMonth       TypeName = "gMonth"
	TypeNameHexBinary    TypeName = "hexBinary"
	TypeNameBase64Binary TypeName = "base64Binary"
	TypeNameAnyURI       TypeName = "anyURI"
	TypeNameQName        TypeName = "QName"
	TypeNameNOTATION     TypeName = "NOTATION"

	TypeNameNormalizedString TypeName = "normalizedString"
	TypeNameToken            TypeName = "token"
	TypeNameLanguage         TypeName = "language"
	TypeNameName             TypeName = "Name"
	TypeNameNCName           TypeName = "NCName"
	TypeNameID               TypeName = "ID"
	TypeNameIDREF            TypeName = "IDREF"
	TypeNameIDREFS           TypeName = "IDREFS"
	TypeNameENTITY           TypeName = "ENTITY"
	TypeNameENTITIES         TypeName = "ENTITIES"
	TypeNameNMTOKEN          TypeName = "NMTOKEN"
	TypeNameNMTOKENS         TypeName = "NMTOKENS"

	TypeNameInteger            TypeName = "integer"
	TypeNameLong               TypeName = "long"
	TypeNameInt                TypeName = "int"
	TypeNameShort              TypeName = "short"
	TypeNameByte               TypeName = "byte"
	TypeNameNonNegativeInteger TypeName = "nonNegativeInteger"
	TypeNamePositiveInteger    TypeName = "positiveInteger"
	TypeNameUnsignedLong       TypeName = "unsignedLong"
	TypeNameUnsignedInt        TypeName = "unsignedInt"
	TypeNameUnsignedShort      TypeName = "unsignedShort"
	TypeNameUnsignedByte       TypeName = "unsignedByte"
	TypeNameNegativeInteger    TypeName = "negativeInteger"
	TypeNameNonPositiveInteger TypeName = "nonPositiveInteger"
)

type builtin struct {
	name TypeName
	base TypeName
	item TypeName
}

// ordered lists every simple type after its base.
var ordered = []builtin{
	{name: TypeNameAnySimpleType, base: TypeNameAnyType},

	{name: TypeNameString, base: TypeNameAnySimpleType},
	{name: TypeNameBoolean, base: TypeNameAnySimpleType},
	{name: TypeNameDecimal, base: TypeNameAnySimpleType},
	{name: TypeNameFloat, base: TypeNameAnySimpleType},
	{name: TypeNameDouble, base: TypeNameAnySimpleType},
	{name: TypeNameDuration, base: TypeNameAnySimpleType},
	{name: TypeNameDateTime, base: TypeNameAnySimpleType},
	{name: TypeNameTime, base: TypeNameAnySimpleType},
	{name: TypeNameDate, base: TypeNameAnySimpleType},
	{name: TypeNameGYearMonth, base: TypeNameAnySimpleType},
	{name: TypeNameGYear, base: TypeNameAnySimpleType},
	{name: TypeNameGMonthDay, base: TypeNameAnySimpleType},
	{name: TypeNameGDay, base: TypeNameAnySimpleType},
	{name: TypeNameGMonth, base: TypeNameAnySimpleType},
	{name: TypeNameHexBinary, base: TypeNameAnySimpleType},
	{name: TypeNameBase64Binary, base: TypeNameAnySimpleType},
	{name: TypeNameAnyURI, base: TypeNameAnySimpleType},
	{name: TypeNameQName, base: TypeNameAnySimpleType},
	{name: TypeNameNOTATION, base: TypeNameAnySimpleType},

	{name: TypeNameNormalizedString, base: TypeNameString},
	{name: TypeNameToken, base: TypeNameNormalizedString},
	{name: TypeNameLanguage, base: TypeNameToken},
	{name: TypeNameName, base: TypeNameToken},
	{name: TypeNameNMTOKEN, base: TypeNameToken},
	{name: TypeNameNCName, base: TypeNameName},
	{name: TypeNameID, base: TypeNameNCName},
	{name: TypeNameIDREF, base: TypeNameNCName},
	{name: TypeNameENTITY, base: TypeNameNCName},
	{name: TypeNameIDREFS, item: TypeNameIDREF},
	{name: TypeNameENTITIES, item: TypeNameENTITY},
	{name: TypeNameNMTOKENS, item: TypeNameNMTOKEN},

	{name: TypeNameInteger, base: TypeNameDecimal},
	{name: TypeNameNonPositiveInteger, base: TypeNameInteger},
	{name: TypeNameNegativeInteger, base: TypeNameNonPositiveInteger},
	{name: TypeNameLong, base: TypeNameInteger},
	{name: TypeNameInt, base: TypeNameLong},
	{name: TypeNameShort, base: TypeNameInt},
	{name: TypeNameByte, base: TypeNameShort},
	{name: TypeNameNonNegativeInteger, base: TypeNameInteger},
	{name: TypeNameUnsignedLong, base: TypeNameNonNegativeInteger},
	{name: TypeNameUnsignedInt, base: TypeNameUnsignedLong},
	{name: TypeNameUnsignedShort, base: TypeNameUnsignedInt},
	{name: TypeNameUnsignedByte, base: TypeNameUnsignedShort},
	{name: TypeNamePositiveInteger, base: TypeNameNonNegativeInteger},
}

var byName = func() map[TypeName]builtin {
	out := make(map[TypeName]builtin, len(ordered))
	for _, b := range ordered {
		out[b.name] = b
	}
	return out
}()

// SimpleTypes returns the built-in simple type names, each after its base.
func SimpleTypes() []TypeName {
	out := make([]TypeName, len(ordered))
	for i, b := range ordered {
		out[i] = b.name
	}
	return out
}

// IsBuiltin reports whether name is a built-in type of the schema namespace.
func IsBuiltin(namespace, name string) bool {
	if namespace != XSDNamespace {
		return false
	}
	if TypeName(name) == TypeNameAnyType {
		return true
	}
	_, ok := byName[TypeName(name)]
	return ok
}

// Base returns the type a built-in simple type restricts. List types and
// unknown names have none.
func Base(name TypeName) (TypeName, bool) {
	b, ok := byName[name]
	if !ok || b.base == "" {
		return "", false
	}
	return b.base, true
}

// ListItemType returns the item type of a built-in list type.
func ListItemType(name TypeName) (TypeName, bool) {
	b, ok := byName[name]
	if !ok || b.item == "" {
		return "", false
	}
	return b.item, true
}
