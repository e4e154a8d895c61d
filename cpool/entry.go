// Package cpool implements the class-file constant pool: a deduplicating,
// 1-indexed table of typed entries that is appended to while a class is
// being written and resolved through a per-pool memoization table while a
// class is being read.
package cpool

import (
	"fmt"
	"math"
)

// Tag identifies the kind of a constant-pool entry on the wire.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagInvokeDynamic      Tag = 18
)

var tagNames = map[Tag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagInvokeDynamic:      "InvokeDynamic",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Wide reports whether entries with this tag take two pool slots.
func (t Tag) Wide() bool {
	return t == TagLong || t == TagDouble
}

// Entry is one constant-pool entry. Every implementation is a comparable
// value type, so structural equality is ==.
type Entry interface {
	Tag() Tag
}

// Utf8 is a CONSTANT_Utf8 entry.
type Utf8 string

// Integer is a CONSTANT_Integer entry.
type Integer int32

// Float is a CONSTANT_Float entry held as its IEEE bits, so that NaN
// payloads and negative zero stay distinct.
type Float struct{ Bits uint32 }

// Long is a CONSTANT_Long entry.
type Long int64

// Double is a CONSTANT_Double entry held as its IEEE bits.
type Double struct{ Bits uint64 }

// Class is a CONSTANT_Class entry.
type Class struct{ Name uint16 }

// String is a CONSTANT_String entry.
type String struct{ Value uint16 }

// MemberEntry is a Fieldref, Methodref or InterfaceMethodref entry,
// distinguished by Kind.
type MemberEntry struct {
	Kind        Tag
	Class       uint16
	NameAndType uint16
}

// NameAndTypeEntry is a CONSTANT_NameAndType entry.
type NameAndTypeEntry struct {
	Name       uint16
	Descriptor uint16
}

// MethodHandleEntry is a CONSTANT_MethodHandle entry.
type MethodHandleEntry struct {
	Kind RefKind
	Ref  uint16
}

// MethodTypeEntry is a CONSTANT_MethodType entry.
type MethodTypeEntry struct{ Descriptor uint16 }

// InvokeDynamicEntry is a CONSTANT_InvokeDynamic entry. Bootstrap indexes
// the class's BootstrapMethods table.
type InvokeDynamicEntry struct {
	Bootstrap   uint16
	NameAndType uint16
}

func (Utf8) Tag() Tag               { return TagUtf8 }
func (Integer) Tag() Tag            { return TagInteger }
func (Float) Tag() Tag              { return TagFloat }
func (Long) Tag() Tag               { return TagLong }
func (Double) Tag() Tag             { return TagDouble }
func (Class) Tag() Tag              { return TagClass }
func (String) Tag() Tag             { return TagString }
func (e MemberEntry) Tag() Tag      { return e.Kind }
func (NameAndTypeEntry) Tag() Tag   { return TagNameAndType }
func (MethodHandleEntry) Tag() Tag  { return TagMethodHandle }
func (MethodTypeEntry) Tag() Tag    { return TagMethodType }
func (InvokeDynamicEntry) Tag() Tag { return TagInvokeDynamic }

// FloatOf returns the Float entry for v.
func FloatOf(v float32) Float { return Float{Bits: math.Float32bits(v)} }

// Value returns the float held by the entry.
func (f Float) Value() float32 { return math.Float32frombits(f.Bits) }

// DoubleOf returns the Double entry for v.
func DoubleOf(v float64) Double { return Double{Bits: math.Float64bits(v)} }

// Value returns the double held by the entry.
func (d Double) Value() float64 { return math.Float64frombits(d.Bits) }

// RefKind is the reference kind of a method handle.
type RefKind uint8

const (
	RefGetField         RefKind = 1
	RefGetStatic        RefKind = 2
	RefPutField         RefKind = 3
	RefPutStatic        RefKind = 4
	RefInvokeVirtual    RefKind = 5
	RefInvokeStatic     RefKind = 6
	RefInvokeSpecial    RefKind = 7
	RefNewInvokeSpecial RefKind = 8
	RefInvokeInterface  RefKind = 9
)

var refKindNames = [...]string{
	"", "getField", "getStatic", "putField", "putStatic",
	"invokeVirtual", "invokeStatic", "invokeSpecial", "newInvokeSpecial", "invokeInterface",
}

func (k RefKind) String() string {
	if k >= RefGetField && k <= RefInvokeInterface {
		return refKindNames[k]
	}
	return fmt.Sprintf("RefKind(%d)", uint8(k))
}

// accepts reports whether a handle of this kind may point at a member entry
// with the given tag.
func (k RefKind) accepts(member Tag) bool {
	switch k {
	case RefGetField, RefGetStatic, RefPutField, RefPutStatic:
		return member == TagFieldref
	case RefInvokeVirtual, RefNewInvokeSpecial:
		return member == TagMethodref
	case RefInvokeStatic, RefInvokeSpecial:
		return member == TagMethodref || member == TagInterfaceMethodref
	case RefInvokeInterface:
		return member == TagInterfaceMethodref
	}
	return false
}
