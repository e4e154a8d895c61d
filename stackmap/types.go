// Package stackmap tracks the verifier type state of a method body while it
// is built, merges frames where control flow joins, and converts recorded
// frames to and from the StackMapTable attribute.
package stackmap

import (
	"fmt"

	"github.com/deepnoodle-ai/javabinary/descriptor"
)

// Kind is a verification type tag. The values match the wire tags.
type Kind uint8

const (
	Top Kind = iota
	Int
	Float
	Double
	Long
	Null
	UninitializedThis
	Object
	Uninitialized
)

// Type is one verification type. Ref is set for Object; Label is the label
// of the allocating new instruction for Uninitialized.
type Type struct {
	Kind  Kind
	Ref   descriptor.Type
	Label int
}

// Commonly used verification types.
var (
	TopType    = Type{Kind: Top}
	IntType    = Type{Kind: Int}
	FloatType  = Type{Kind: Float}
	LongType   = Type{Kind: Long}
	DoubleType = Type{Kind: Double}
	NullType   = Type{Kind: Null}
	ThisType   = Type{Kind: UninitializedThis}
)

// ObjectOf returns the verification type of a reference type.
func ObjectOf(t descriptor.Type) Type {
	return Type{Kind: Object, Ref: t}
}

// UninitializedAt returns the type produced by a new instruction at label.
func UninitializedAt(label int) Type {
	return Type{Kind: Uninitialized, Label: label}
}

// Of returns the verification type holding values of a field type. Types
// narrower than int are held as int; void maps to top.
func Of(t descriptor.Type) Type {
	switch {
	case t.IsReference():
		return ObjectOf(t)
	case t.IsIntLike():
		return IntType
	case t.Kind == descriptor.Long:
		return LongType
	case t.Kind == descriptor.Float:
		return FloatType
	case t.Kind == descriptor.Double:
		return DoubleType
	}
	return TopType
}

// Category returns the number of slots the type occupies.
func (t Type) Category() int {
	if t.Kind == Long || t.Kind == Double {
		return 2
	}
	return 1
}

// IsReference reports whether the type holds an object reference.
func (t Type) IsReference() bool {
	switch t.Kind {
	case Null, UninitializedThis, Object, Uninitialized:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t.Kind {
	case Top:
		return "top"
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	case Long:
		return "long"
	case Null:
		return "null"
	case UninitializedThis:
		return "uninitializedThis"
	case Object:
		return t.Ref.String()
	case Uninitialized:
		return fmt.Sprintf("uninitialized(%d)", t.Label)
	}
	return fmt.Sprintf("Kind(%d)", uint8(t.Kind))
}

// merge returns the type of a slot holding a on one path and b on another.
// Distinct object types are reconciled through descriptor.ResolveConflict.
func merge(a, b Type, atBranch bool) (Type, bool) {
	if a == b {
		return a, true
	}
	switch {
	case a.Kind == Null && b.Kind == Object:
		return b, true
	case b.Kind == Null && a.Kind == Object:
		return a, true
	case a.Kind == Object && b.Kind == Object:
		t, ok := a.Ref.ResolveConflict(b.Ref, atBranch)
		return ObjectOf(t), ok
	}
	return Type{}, false
}

// compress converts locals from slot form, where a long or double is
// followed by top, to the wire form with one entry per value. Trailing tops
// are dropped.
func compress(locals []Type) []Type {
	locals = trim(locals)
	out := make([]Type, 0, len(locals))
	for i := 0; i < len(locals); i++ {
		t := locals[i]
		out = append(out, t)
		if t.Category() == 2 {
			i++
		}
	}
	return out
}

// expand is the inverse of compress.
func expand(locals []Type) []Type {
	out := make([]Type, 0, len(locals))
	for _, t := range locals {
		out = append(out, t)
		if t.Category() == 2 {
			out = append(out, TopType)
		}
	}
	return out
}

// trim drops trailing tops that are not the second half of a long or double.
func trim(locals []Type) []Type {
	n := len(locals)
	for n > 0 && locals[n-1].Kind == Top {
		if n >= 2 && locals[n-2].Category() == 2 {
			break
		}
		n--
	}
	return locals[:n]
}

func clone(types []Type) []Type {
	if len(types) == 0 {
		return nil
	}
	return append([]Type(nil), types...)
}

func equal(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func depthOf(stack []Type) int {
	n := 0
	for _, t := range stack {
		n += t.Category()
	}
	return n
}
