// Package op defines the JVM opcodes read and written by the bytecode
// package, together with the static operand encoding of each opcode.
package op

// Code is a one-byte JVM opcode.
type Code uint8

const (
	Nop             Code = 0x00
	AconstNull      Code = 0x01
	IconstM1        Code = 0x02
	Iconst0         Code = 0x03
	Iconst1         Code = 0x04
	Iconst2         Code = 0x05
	Iconst3         Code = 0x06
	Iconst4         Code = 0x07
	Iconst5         Code = 0x08
	Lconst0         Code = 0x09
	Lconst1         Code = 0x0A
	Fconst0         Code = 0x0B
	Fconst1         Code = 0x0C
	Fconst2         Code = 0x0D
	Dconst0         Code = 0x0E
	Dconst1         Code = 0x0F
	Bipush          Code = 0x10
	Sipush          Code = 0x11
	Ldc             Code = 0x12
	LdcW            Code = 0x13
	Ldc2W           Code = 0x14
	Iload           Code = 0x15
	Lload           Code = 0x16
	Fload           Code = 0x17
	Dload           Code = 0x18
	Aload           Code = 0x19
	Iload0          Code = 0x1A
	Lload0          Code = 0x1E
	Fload0          Code = 0x22
	Dload0          Code = 0x26
	Aload0          Code = 0x2A
	Aload3          Code = 0x2D
	Iaload          Code = 0x2E
	Laload          Code = 0x2F
	Faload          Code = 0x30
	Daload          Code = 0x31
	Aaload          Code = 0x32
	Baload          Code = 0x33
	Caload          Code = 0x34
	Saload          Code = 0x35
	Istore          Code = 0x36
	Lstore          Code = 0x37
	Fstore          Code = 0x38
	Dstore          Code = 0x39
	Astore          Code = 0x3A
	Istore0         Code = 0x3B
	Lstore0         Code = 0x3F
	Fstore0         Code = 0x43
	Dstore0         Code = 0x47
	Astore0         Code = 0x4B
	Astore3         Code = 0x4E
	Iastore         Code = 0x4F
	Lastore         Code = 0x50
	Fastore         Code = 0x51
	Dastore         Code = 0x52
	Aastore         Code = 0x53
	Bastore         Code = 0x54
	Castore         Code = 0x55
	Sastore         Code = 0x56
	Pop             Code = 0x57
	Pop2            Code = 0x58
	Dup             Code = 0x59
	DupX1           Code = 0x5A
	DupX2           Code = 0x5B
	Dup2            Code = 0x5C
	Dup2X1          Code = 0x5D
	Dup2X2          Code = 0x5E
	Swap            Code = 0x5F
	Iadd            Code = 0x60
	Ladd            Code = 0x61
	Fadd            Code = 0x62
	Dadd            Code = 0x63
	Isub            Code = 0x64
	Lsub            Code = 0x65
	Fsub            Code = 0x66
	Dsub            Code = 0x67
	Imul            Code = 0x68
	Lmul            Code = 0x69
	Fmul            Code = 0x6A
	Dmul            Code = 0x6B
	Idiv            Code = 0x6C
	Ldiv            Code = 0x6D
	Fdiv            Code = 0x6E
	Ddiv            Code = 0x6F
	Irem            Code = 0x70
	Lrem            Code = 0x71
	Frem            Code = 0x72
	Drem            Code = 0x73
	Ineg            Code = 0x74
	Lneg            Code = 0x75
	Fneg            Code = 0x76
	Dneg            Code = 0x77
	Ishl            Code = 0x78
	Lshl            Code = 0x79
	Ishr            Code = 0x7A
	Lshr            Code = 0x7B
	Iushr           Code = 0x7C
	Lushr           Code = 0x7D
	Iand            Code = 0x7E
	Land            Code = 0x7F
	Ior             Code = 0x80
	Lor             Code = 0x81
	Ixor            Code = 0x82
	Lxor            Code = 0x83
	Iinc            Code = 0x84
	I2l             Code = 0x85
	I2f             Code = 0x86
	I2d             Code = 0x87
	L2i             Code = 0x88
	L2f             Code = 0x89
	L2d             Code = 0x8A
	F2i             Code = 0x8B
	F2l             Code = 0x8C
	F2d             Code = 0x8D
	D2i             Code = 0x8E
	D2l             Code = 0x8F
	D2f             Code = 0x90
	I2b             Code = 0x91
	I2c             Code = 0x92
	I2s             Code = 0x93
	Lcmp            Code = 0x94
	Fcmpl           Code = 0x95
	Fcmpg           Code = 0x96
	Dcmpl           Code = 0x97
	Dcmpg           Code = 0x98
	Ifeq            Code = 0x99
	Ifne            Code = 0x9A
	Iflt            Code = 0x9B
	Ifge            Code = 0x9C
	Ifgt            Code = 0x9D
	Ifle            Code = 0x9E
	IfIcmpeq        Code = 0x9F
	IfIcmpne        Code = 0xA0
	IfIcmplt        Code = 0xA1
	IfIcmpge        Code = 0xA2
	IfIcmpgt        Code = 0xA3
	IfIcmple        Code = 0xA4
	IfAcmpeq        Code = 0xA5
	IfAcmpne        Code = 0xA6
	Goto            Code = 0xA7
	Jsr             Code = 0xA8
	Ret             Code = 0xA9
	Tableswitch     Code = 0xAA
	Lookupswitch    Code = 0xAB
	Ireturn         Code = 0xAC
	Lreturn         Code = 0xAD
	Freturn         Code = 0xAE
	Dreturn         Code = 0xAF
	Areturn         Code = 0xB0
	Return          Code = 0xB1
	Getstatic       Code = 0xB2
	Putstatic       Code = 0xB3
	Getfield        Code = 0xB4
	Putfield        Code = 0xB5
	Invokevirtual   Code = 0xB6
	Invokespecial   Code = 0xB7
	Invokestatic    Code = 0xB8
	Invokeinterface Code = 0xB9
	Invokedynamic   Code = 0xBA
	New             Code = 0xBB
	Newarray        Code = 0xBC
	Anewarray       Code = 0xBD
	Arraylength     Code = 0xBE
	Athrow          Code = 0xBF
	Checkcast       Code = 0xC0
	Instanceof      Code = 0xC1
	Monitorenter    Code = 0xC2
	Monitorexit     Code = 0xC3
	Wide            Code = 0xC4
	Multianewarray  Code = 0xC5
	Ifnull          Code = 0xC6
	Ifnonnull       Code = 0xC7
	GotoW           Code = 0xC8
	JsrW            Code = 0xC9
	Breakpoint      Code = 0xCA
)

// OperandKind describes how an opcode's operands are laid out in the
// instruction stream.
type OperandKind uint8

const (
	// Invalid marks opcodes outside the defined set.
	Invalid OperandKind = iota
	// None has no operand bytes.
	None
	// Local is a u1 local index, u2 under the wide prefix.
	Local
	// LocalInc is iinc: a local index and a signed increment, both doubled
	// under the wide prefix.
	LocalInc
	// ConstU1 is a u1 constant-pool index (ldc).
	ConstU1
	// ConstU2 is a u2 constant-pool index.
	ConstU2
	// ConstInterface is invokeinterface: u2 index, u1 count, zero byte.
	ConstInterface
	// ConstDynamic is invokedynamic: u2 index and two zero bytes.
	ConstDynamic
	// ConstDims is multianewarray: u2 class index and u1 dimension count.
	ConstDims
	// Branch is a signed 16-bit relative offset.
	Branch
	// BranchWide is a signed 32-bit relative offset.
	BranchWide
	// Byte is a one-byte immediate (bipush value, newarray element type).
	Byte
	// Short is a signed 16-bit immediate (sipush).
	Short
	// TableSwitch is the padded, contiguous jump table.
	TableSwitch
	// LookupSwitch is the padded key/offset pair table.
	LookupSwitch
	// WidePrefix is the wide modifier.
	WidePrefix
)

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	Kind OperandKind
	// Size is the encoded length including the opcode byte, or 0 when the
	// length depends on position or prefix (switches, wide).
	Size int
}

// Valid reports whether the opcode belongs to the defined set.
func (i Info) Valid() bool {
	return i.Kind != Invalid
}

// ReferencesPool reports whether the operand is a constant-pool index.
func (i Info) ReferencesPool() bool {
	switch i.Kind {
	case ConstU1, ConstU2, ConstInterface, ConstDynamic, ConstDims:
		return true
	}
	return false
}

var infos [256]Info

func init() {
	type opInfo struct {
		op   Code
		name string
		kind OperandKind
	}
	ops := []opInfo{
		{Nop, "nop", None},
		{AconstNull, "aconst_null", None},
		{IconstM1, "iconst_m1", None},
		{Iconst0, "iconst_0", None},
		{Iconst1, "iconst_1", None},
		{Iconst2, "iconst_2", None},
		{Iconst3, "iconst_3", None},
		{Iconst4, "iconst_4", None},
		{Iconst5, "iconst_5", None},
		{Lconst0, "lconst_0", None},
		{Lconst1, "lconst_1", None},
		{Fconst0, "fconst_0", None},
		{Fconst1, "fconst_1", None},
		{Fconst2, "fconst_2", None},
		{Dconst0, "dconst_0", None},
		{Dconst1, "dconst_1", None},
		{Bipush, "bipush", Byte},
		{Sipush, "sipush", Short},
		{Ldc, "ldc", ConstU1},
		{LdcW, "ldc_w", ConstU2},
		{Ldc2W, "ldc2_w", ConstU2},
		{Iload, "iload", Local},
		{Lload, "lload", Local},
		{Fload, "fload", Local},
		{Dload, "dload", Local},
		{Aload, "aload", Local},
		{Iaload, "iaload", None},
		{Laload, "laload", None},
		{Faload, "faload", None},
		{Daload, "daload", None},
		{Aaload, "aaload", None},
		{Baload, "baload", None},
		{Caload, "caload", None},
		{Saload, "saload", None},
		{Istore, "istore", Local},
		{Lstore, "lstore", Local},
		{Fstore, "fstore", Local},
		{Dstore, "dstore", Local},
		{Astore, "astore", Local},
		{Iastore, "iastore", None},
		{Lastore, "lastore", None},
		{Fastore, "fastore", None},
		{Dastore, "dastore", None},
		{Aastore, "aastore", None},
		{Bastore, "bastore", None},
		{Castore, "castore", None},
		{Sastore, "sastore", None},
		{Pop, "pop", None},
		{Pop2, "pop2", None},
		{Dup, "dup", None},
		{DupX1, "dup_x1", None},
		{DupX2, "dup_x2", None},
		{Dup2, "dup2", None},
		{Dup2X1, "dup2_x1", None},
		{Dup2X2, "dup2_x2", None},
		{Swap, "swap", None},
		{Iadd, "iadd", None},
		{Ladd, "ladd", None},
		{Fadd, "fadd", None},
		{Dadd, "dadd", None},
		{Isub, "isub", None},
		{Lsub, "lsub", None},
		{Fsub, "fsub", None},
		{Dsub, "dsub", None},
		{Imul, "imul", None},
		{Lmul, "lmul", None},
		{Fmul, "fmul", None},
		{Dmul, "dmul", None},
		{Idiv, "idiv", None},
		{Ldiv, "ldiv", None},
		{Fdiv, "fdiv", None},
		{Ddiv, "ddiv", None},
		{Irem, "irem", None},
		{Lrem, "lrem", None},
		{Frem, "frem", None},
		{Drem, "drem", None},
		{Ineg, "ineg", None},
		{Lneg, "lneg", None},
		{Fneg, "fneg", None},
		{Dneg, "dneg", None},
		{Ishl, "ishl", None},
		{Lshl, "lshl", None},
		{Ishr, "ishr", None},
		{Lshr, "lshr", None},
		{Iushr, "iushr", None},
		{Lushr, "lushr", None},
		{Iand, "iand", None},
		{Land, "land", None},
		{Ior, "ior", None},
		{Lor, "lor", None},
		{Ixor, "ixor", None},
		{Lxor, "lxor", None},
		{Iinc, "iinc", LocalInc},
		{I2l, "i2l", None},
		{I2f, "i2f", None},
		{I2d, "i2d", None},
		{L2i, "l2i", None},
		{L2f, "l2f", None},
		{L2d, "l2d", None},
		{F2i, "f2i", None},
		{F2l, "f2l", None},
		{F2d, "f2d", None},
		{D2i, "d2i", None},
		{D2l, "d2l", None},
		{D2f, "d2f", None},
		{I2b, "i2b", None},
		{I2c, "i2c", None},
		{I2s, "i2s", None},
		{Lcmp, "lcmp", None},
		{Fcmpl, "fcmpl", None},
		{Fcmpg, "fcmpg", None},
		{Dcmpl, "dcmpl", None},
		{Dcmpg, "dcmpg", None},
		{Ifeq, "ifeq", Branch},
		{Ifne, "ifne", Branch},
		{Iflt, "iflt", Branch},
		{Ifge, "ifge", Branch},
		{Ifgt, "ifgt", Branch},
		{Ifle, "ifle", Branch},
		{IfIcmpeq, "if_icmpeq", Branch},
		{IfIcmpne, "if_icmpne", Branch},
		{IfIcmplt, "if_icmplt", Branch},
		{IfIcmpge, "if_icmpge", Branch},
		{IfIcmpgt, "if_icmpgt", Branch},
		{IfIcmple, "if_icmple", Branch},
		{IfAcmpeq, "if_acmpeq", Branch},
		{IfAcmpne, "if_acmpne", Branch},
		{Goto, "goto", Branch},
		{Jsr, "jsr", Branch},
		{Ret, "ret", Local},
		{Tableswitch, "tableswitch", TableSwitch},
		{Lookupswitch, "lookupswitch", LookupSwitch},
		{Ireturn, "ireturn", None},
		{Lreturn, "lreturn", None},
		{Freturn, "freturn", None},
		{Dreturn, "dreturn", None},
		{Areturn, "areturn", None},
		{Return, "return", None},
		{Getstatic, "getstatic", ConstU2},
		{Putstatic, "putstatic", ConstU2},
		{Getfield, "getfield", ConstU2},
		{Putfield, "putfield", ConstU2},
		{Invokevirtual, "invokevirtual", ConstU2},
		{Invokespecial, "invokespecial", ConstU2},
		{Invokestatic, "invokestatic", ConstU2},
		{Invokeinterface, "invokeinterface", ConstInterface},
		{Invokedynamic, "invokedynamic", ConstDynamic},
		{New, "new", ConstU2},
		{Newarray, "newarray", Byte},
		{Anewarray, "anewarray", ConstU2},
		{Arraylength, "arraylength", None},
		{Athrow, "athrow", None},
		{Checkcast, "checkcast", ConstU2},
		{Instanceof, "instanceof", ConstU2},
		{Monitorenter, "monitorenter", None},
		{Monitorexit, "monitorexit", None},
		{Wide, "wide", WidePrefix},
		{Multianewarray, "multianewarray", ConstDims},
		{Ifnull, "ifnull", Branch},
		{Ifnonnull, "ifnonnull", Branch},
		{GotoW, "goto_w", BranchWide},
		{JsrW, "jsr_w", BranchWide},
		{Breakpoint, "breakpoint", None},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code: o.op,
			Name: o.name,
			Kind: o.kind,
			Size: sizeOf(o.kind),
		}
	}
	// The compact local forms carry their slot in the opcode itself.
	prefixes := []string{"iload", "lload", "fload", "dload", "aload"}
	for i, p := range prefixes {
		for slot := 0; slot < 4; slot++ {
			c := Iload0 + Code(i*4+slot)
			infos[c] = Info{Code: c, Name: p + "_" + string(rune('0'+slot)), Kind: None, Size: 1}
		}
	}
	prefixes = []string{"istore", "lstore", "fstore", "dstore", "astore"}
	for i, p := range prefixes {
		for slot := 0; slot < 4; slot++ {
			c := Istore0 + Code(i*4+slot)
			infos[c] = Info{Code: c, Name: p + "_" + string(rune('0'+slot)), Kind: None, Size: 1}
		}
	}
}

func sizeOf(kind OperandKind) int {
	switch kind {
	case None:
		return 1
	case Local, ConstU1, Byte:
		return 2
	case ConstU2, Branch, Short:
		return 3
	case LocalInc:
		return 3
	case ConstDims:
		return 4
	case ConstInterface, ConstDynamic, BranchWide:
		return 5
	default:
		return 0
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(c Code) Info {
	return infos[c]
}

// String returns the JVM mnemonic of the opcode.
func (c Code) String() string {
	if name := infos[c].Name; name != "" {
		return name
	}
	return "<invalid>"
}

// ImpliedLocal splits a compact local opcode such as aload_2 into its
// general form (aload) and slot (2).
func ImpliedLocal(c Code) (base Code, slot int, ok bool) {
	switch {
	case c >= Iload0 && c <= Aload3:
		return Iload + (c-Iload0)/4, int(c-Iload0) % 4, true
	case c >= Istore0 && c <= Astore3:
		return Istore + (c-Istore0)/4, int(c-Istore0) % 4, true
	}
	return 0, 0, false
}

// CompactLocal returns the compact opcode for a general load or store of a
// slot in 0..3.
func CompactLocal(base Code, slot int) (Code, bool) {
	if slot < 0 || slot > 3 {
		return 0, false
	}
	switch {
	case base >= Iload && base <= Aload:
		return Iload0 + (base-Iload)*4 + Code(slot), true
	case base >= Istore && base <= Astore:
		return Istore0 + (base-Istore)*4 + Code(slot), true
	}
	return 0, false
}

// ImpliedConstant returns the value pushed by a constant opcode that takes
// no operand. aconst_null reports a nil value.
func ImpliedConstant(c Code) (any, bool) {
	switch {
	case c == AconstNull:
		return nil, true
	case c >= IconstM1 && c <= Iconst5:
		return int32(c) - int32(Iconst0), true
	case c == Lconst0 || c == Lconst1:
		return int64(c - Lconst0), true
	case c >= Fconst0 && c <= Fconst2:
		return float32(c - Fconst0), true
	case c == Dconst0 || c == Dconst1:
		return float64(c - Dconst0), true
	}
	return nil, false
}

// IsBranch reports whether the opcode carries a relative jump offset.
func IsBranch(c Code) bool {
	k := infos[c].Kind
	return k == Branch || k == BranchWide
}

// IsSwitch reports whether the opcode is tableswitch or lookupswitch.
func IsSwitch(c Code) bool {
	return c == Tableswitch || c == Lookupswitch
}

// IsReturn reports whether the opcode returns from the method.
func IsReturn(c Code) bool {
	return c >= Ireturn && c <= Return
}

// EndsBlock reports whether control never falls through to the next
// instruction.
func EndsBlock(c Code) bool {
	switch c {
	case Goto, GotoW, Athrow, Ret, Tableswitch, Lookupswitch:
		return true
	}
	return IsReturn(c)
}
