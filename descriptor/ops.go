package descriptor

import (
	"github.com/deepnoodle-ai/javabinary/op"
)

// Array type codes used by the newarray instruction.
const (
	TBoolean byte = 4
	TChar    byte = 5
	TFloat   byte = 6
	TDouble  byte = 7
	TByte    byte = 8
	TShort   byte = 9
	TInt     byte = 10
	TLong    byte = 11
)

var arrayTypeCodes = map[Kind]byte{
	Boolean: TBoolean,
	Char:    TChar,
	Float:   TFloat,
	Double:  TDouble,
	Byte:    TByte,
	Short:   TShort,
	Int:     TInt,
	Long:    TLong,
}

// FromArrayTypeCode returns the primitive element type of a newarray type
// code.
func FromArrayTypeCode(code byte) (Type, bool) {
	for k, c := range arrayTypeCodes {
		if c == code {
			return Type{Kind: k}, true
		}
	}
	return Type{}, false
}

// family picks one opcode from a group ordered int, long, float, double,
// reference.
func (t Type) family(i, l, f, d, a op.Code) op.Code {
	if t.IsReference() {
		return a
	}
	switch t.Kind {
	case Long:
		return l
	case Float:
		return f
	case Double:
		return d
	}
	return i
}

// InitOp returns the opcode pushing the default value of the type.
func (t Type) InitOp() op.Code {
	return t.family(op.Iconst0, op.Lconst0, op.Fconst0, op.Dconst0, op.AconstNull)
}

// LoadOp returns the general local-variable load opcode for the type.
func (t Type) LoadOp() op.Code {
	return t.family(op.Iload, op.Lload, op.Fload, op.Dload, op.Aload)
}

// StoreOp returns the general local-variable store opcode for the type.
func (t Type) StoreOp() op.Code {
	return t.family(op.Istore, op.Lstore, op.Fstore, op.Dstore, op.Astore)
}

// ReturnOp returns the return opcode for a method returning the type.
func (t Type) ReturnOp() op.Code {
	if t.Kind == Void && t.Dims == 0 {
		return op.Return
	}
	return t.family(op.Ireturn, op.Lreturn, op.Freturn, op.Dreturn, op.Areturn)
}

// ArrayLoadOp returns the opcode loading an element from an array of this
// type. t is the array type, not the element type.
func (t Type) ArrayLoadOp() op.Code {
	e := t.Elem()
	if !e.IsReference() {
		switch e.Kind {
		case Byte, Boolean:
			return op.Baload
		case Char:
			return op.Caload
		case Short:
			return op.Saload
		}
	}
	return e.family(op.Iaload, op.Laload, op.Faload, op.Daload, op.Aaload)
}

// ArrayStoreOp returns the opcode storing an element into an array of this
// type.
func (t Type) ArrayStoreOp() op.Code {
	return t.ArrayLoadOp() + (op.Iastore - op.Iaload)
}

// NewArray returns the opcode allocating an array of this type along with
// its operand byte: the newarray type code for primitive elements, the
// dimension count for multianewarray, and zero for anewarray.
func (t Type) NewArray() (op.Code, byte) {
	switch {
	case t.Dims > 1:
		return op.Multianewarray, byte(t.Dims)
	case t.Dims == 1 && !t.Elem().IsReference():
		return op.Newarray, arrayTypeCodes[t.Kind]
	}
	return op.Anewarray, 0
}
