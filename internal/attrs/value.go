package attrs

import (
	"slices"
	"strconv"
	"strings"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
)

// Value is a typed attribute value.
type Value struct {
	set   Set
	str   string
	i     int64
	shape Shape
	b     bool
}

// String returns a string-shaped value.
func String(s string) Value { return Value{shape: ShapeString, str: s} }

// Bool returns a boolean-shaped value.
func Bool(b bool) Value { return Value{shape: ShapeBoolean, b: b} }

// Int returns an integer-shaped value.
func Int(i int64) Value { return Value{shape: ShapeInteger, i: i} }

// Literal returns an enum-shaped value.
func Literal(l string) Value { return Value{shape: ShapeEnum, str: l} }

// SetOf returns an enum-set value with the given members.
func SetOf(members ...string) Value { return Value{shape: ShapeEnumSet, set: NewSet(members...)} }

// SetValue wraps an existing set as an enum-set value.
func SetValue(s Set) Value {
	if s.members == nil {
		s = NewSet()
	}
	return Value{shape: ShapeEnumSet, set: s}
}

// Shape reports the value shape.
func (v Value) Shape() Shape { return v.shape }

// Str returns the string or enum literal payload.
func (v Value) Str() string { return v.str }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Set returns the enum-set payload.
func (v Value) Set() Set { return v.set }

// Equal reports whether two values have the same shape and payload.
func (v Value) Equal(o Value) bool {
	if v.shape != o.shape {
		return false
	}
	switch v.shape {
	case ShapeBoolean:
		return v.b == o.b
	case ShapeInteger:
		return v.i == o.i
	case ShapeEnumSet:
		return v.set.Equal(o.set)
	default:
		return v.str == o.str
	}
}

// Set is an unordered set of enum literals.
type Set struct {
	members map[string]struct{}
}

// NewSet builds a set from literals; duplicates collapse.
func NewSet(members ...string) Set {
	s := Set{members: make(map[string]struct{}, len(members))}
	for _, m := range members {
		s.members[m] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(literal string) bool {
	_, ok := s.members[literal]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s.members) }

// Members returns the members in enum declaration order, with literals
// unknown to e sorted after them.
func (s Set) Members(e *Enum) []string {
	out := make([]string, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b string) int {
		ia, ib := -1, -1
		if e != nil {
			ia, ib = e.index(a), e.index(b)
		}
		switch {
		case ia >= 0 && ib >= 0:
			return ia - ib
		case ia >= 0:
			return -1
		case ib >= 0:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return out
}

// Equal reports whether both sets hold the same members.
func (s Set) Equal(o Set) bool {
	if len(s.members) != len(o.members) {
		return false
	}
	for m := range s.members {
		if !o.Has(m) {
			return false
		}
	}
	return true
}

// Intersect keeps only the members allowed by keep.
func (s Set) Intersect(keep ...string) Set {
	out := NewSet()
	for _, k := range keep {
		if s.Has(k) {
			out.members[k] = struct{}{}
		}
	}
	return out
}

// Parse converts the raw markup form of an attribute to a typed value.
func Parse(meta Meta, raw string) (Value, error) {
	switch meta.Shape {
	case ShapeString:
		return String(raw), nil
	case ShapeBoolean:
		switch raw {
		case "true", "1":
			return Bool(true), nil
		case "false", "0":
			return Bool(false), nil
		}
		return Value{}, invalidLiteral(meta, raw)
	case ShapeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			e := xsderrors.Newf(xsderrors.ErrInvalidInteger, "attribute %s is not an integer", meta.Name)
			e.Attribute, e.Value, e.Err = string(meta.Name), raw, err
			return Value{}, e
		}
		return Int(n), nil
	case ShapeEnum:
		if meta.Enum == nil || !meta.Enum.Has(raw) {
			return Value{}, invalidLiteral(meta, raw)
		}
		return Literal(raw), nil
	case ShapeEnumSet:
		set := NewSet()
		for _, token := range strings.Fields(raw) {
			if meta.Enum == nil || !meta.Enum.Has(token) {
				return Value{}, invalidLiteral(meta, token)
			}
			set.members[token] = struct{}{}
		}
		return Value{shape: ShapeEnumSet, set: set}, nil
	default:
		return Value{}, xsderrors.Newf(xsderrors.ErrShapeMismatch, "attribute %s has unknown shape %d", meta.Name, meta.Shape)
	}
}

// Format is the inverse of Parse. A value whose shape differs from the
// attribute shape, or an enum literal outside the declared set, is rejected.
func Format(meta Meta, v Value) (string, error) {
	if v.shape != meta.Shape {
		e := xsderrors.Newf(xsderrors.ErrShapeMismatch, "attribute %s expects %s, got %s", meta.Name, meta.Shape, v.shape)
		e.Attribute = string(meta.Name)
		return "", e
	}
	switch v.shape {
	case ShapeString:
		return v.str, nil
	case ShapeBoolean:
		return strconv.FormatBool(v.b), nil
	case ShapeInteger:
		return strconv.FormatInt(v.i, 10), nil
	case ShapeEnum:
		if meta.Enum == nil || !meta.Enum.Has(v.str) {
			return "", invalidLiteral(meta, v.str)
		}
		return v.str, nil
	default:
		members := v.set.Members(meta.Enum)
		for _, m := range members {
			if meta.Enum == nil || !meta.Enum.Has(m) {
				return "", invalidLiteral(meta, m)
			}
		}
		return strings.Join(members, " "), nil
	}
}

func invalidLiteral(meta Meta, raw string) error {
	e := xsderrors.Newf(xsderrors.ErrInvalidLiteral, "invalid literal for attribute %s", meta.Name)
	e.Attribute, e.Value = string(meta.Name), raw
	return e
}
