// Package descriptor parses and formats JVM field and method descriptors.
package descriptor

import (
	"strings"

	"github.com/deepnoodle-ai/javabinary/errors"
)

// Kind is the base-type letter of a descriptor. Reference types use 'L'
// regardless of their array rank.
type Kind byte

const (
	Byte      Kind = 'B'
	Char      Kind = 'C'
	Double    Kind = 'D'
	Float     Kind = 'F'
	Int       Kind = 'I'
	Long      Kind = 'J'
	Short     Kind = 'S'
	Boolean   Kind = 'Z'
	Void      Kind = 'V'
	Reference Kind = 'L'
)

var primitiveNames = map[Kind]string{
	Byte:    "byte",
	Char:    "char",
	Double:  "double",
	Float:   "float",
	Int:     "int",
	Long:    "long",
	Short:   "short",
	Boolean: "boolean",
	Void:    "void",
}

// Type is a parsed field type. Exactly one of Kind (a primitive) or Class
// (when Kind is Reference) names the base type; Dims wraps it in arrays.
// Class names use the dotted form.
type Type struct {
	Kind  Kind
	Dims  int
	Class string
}

// Commonly used types.
var (
	TypeInt          = Type{Kind: Int}
	TypeLong         = Type{Kind: Long}
	TypeFloat        = Type{Kind: Float}
	TypeDouble       = Type{Kind: Double}
	TypeBoolean      = Type{Kind: Boolean}
	TypeVoid         = Type{Kind: Void}
	TypeObject       = Object("java.lang.Object")
	TypeString       = Object("java.lang.String")
	TypeClass        = Object("java.lang.Class")
	TypeCloneable    = Object("java.lang.Cloneable")
	TypeSerializable = Object("java.io.Serializable")
	TypeEnum         = Object("java.lang.Enum")
)

// Object returns the reference type for a dotted class name.
func Object(name string) Type {
	return Type{Kind: Reference, Class: name}
}

// FromInternalName converts the name stored in a CONSTANT_Class entry, which
// is a slash-separated class name or an array descriptor.
func FromInternalName(name string) (Type, error) {
	if strings.HasPrefix(name, "[") {
		return Parse(name)
	}
	if name == "" || strings.ContainsAny(name, ";[") {
		return Type{}, errors.New(errors.E1007, "malformed class name %q", name)
	}
	return Object(strings.ReplaceAll(name, "/", ".")), nil
}

// ParsePrefix parses one field-descriptor unit from the start of s. It
// returns the number of bytes consumed, or 0 if parsing stopped early.
// Void is accepted only without array dimensions.
func ParsePrefix(s string) (Type, int) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	if dims == len(s) || dims > 255 {
		return Type{}, 0
	}
	k := Kind(s[dims])
	switch k {
	case Byte, Char, Double, Float, Int, Long, Short, Boolean:
		return Type{Kind: k, Dims: dims}, dims + 1
	case Void:
		if dims > 0 {
			return Type{}, 0
		}
		return TypeVoid, 1
	case Reference:
		rest := s[dims+1:]
		end := strings.IndexByte(rest, ';')
		if end <= 0 {
			return Type{}, 0
		}
		name := rest[:end]
		if strings.ContainsAny(name, ".[") {
			return Type{}, 0
		}
		return Type{Kind: Reference, Dims: dims, Class: strings.ReplaceAll(name, "/", ".")}, dims + end + 2
	}
	return Type{}, 0
}

// Parse parses a complete field descriptor.
func Parse(s string) (Type, error) {
	t, n := ParsePrefix(s)
	if n == 0 || n != len(s) || t.Kind == Void {
		return Type{}, errors.New(errors.E1007, "malformed field descriptor %q", s)
	}
	return t, nil
}

// Descriptor returns the wire form of the type, the exact inverse of Parse.
func (t Type) Descriptor() string {
	var sb strings.Builder
	for i := 0; i < t.Dims; i++ {
		sb.WriteByte('[')
	}
	if t.Kind == Reference {
		sb.WriteByte('L')
		sb.WriteString(strings.ReplaceAll(t.Class, ".", "/"))
		sb.WriteByte(';')
	} else {
		sb.WriteByte(byte(t.Kind))
	}
	return sb.String()
}

// InternalName returns the name stored in a CONSTANT_Class entry for this
// type: the slash form for classes, the descriptor for arrays.
func (t Type) InternalName() string {
	if t.Dims == 0 && t.Kind == Reference {
		return strings.ReplaceAll(t.Class, ".", "/")
	}
	return t.Descriptor()
}

// String renders the type as it would appear in Java source.
func (t Type) String() string {
	base := t.Class
	if t.Kind != Reference {
		base = primitiveNames[t.Kind]
	}
	return base + strings.Repeat("[]", t.Dims)
}

// IsZero reports whether t is the zero Type.
func (t Type) IsZero() bool {
	return t.Kind == 0
}

// IsReference reports whether values of the type are object references.
func (t Type) IsReference() bool {
	return t.Dims > 0 || t.Kind == Reference
}

// IsArray reports whether the type has at least one array dimension.
func (t Type) IsArray() bool {
	return t.Dims > 0
}

// IsIntLike reports whether the type is held as an int by the JVM.
func (t Type) IsIntLike() bool {
	if t.Dims > 0 {
		return false
	}
	switch t.Kind {
	case Byte, Char, Short, Boolean, Int:
		return true
	}
	return false
}

// Category returns the number of local or stack slots a value occupies:
// 2 for long and double, 0 for void, 1 otherwise.
func (t Type) Category() int {
	if t.Dims > 0 {
		return 1
	}
	switch t.Kind {
	case Long, Double:
		return 2
	case Void:
		return 0
	}
	return 1
}

// Elem returns the element type of an array type.
func (t Type) Elem() Type {
	if t.Dims == 0 {
		return t
	}
	t.Dims--
	return t
}

// ArrayOf returns an array of t.
func (t Type) ArrayOf() Type {
	t.Dims++
	return t
}
