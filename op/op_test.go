package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(Invokeinterface)
	require.Equal(t, "invokeinterface", info.Name)
	require.Equal(t, ConstInterface, info.Kind)
	require.Equal(t, 5, info.Size)
	require.Equal(t, Invokeinterface, info.Code)
}

func TestGetInfoAllOpcodes(t *testing.T) {
	tests := []struct {
		code Code
		name string
		kind OperandKind
		size int
	}{
		{Nop, "nop", None, 1},
		{AconstNull, "aconst_null", None, 1},
		{IconstM1, "iconst_m1", None, 1},
		{Bipush, "bipush", Byte, 2},
		{Sipush, "sipush", Short, 3},
		{Ldc, "ldc", ConstU1, 2},
		{LdcW, "ldc_w", ConstU2, 3},
		{Ldc2W, "ldc2_w", ConstU2, 3},
		{Iload, "iload", Local, 2},
		{Iload0 + 3, "iload_3", None, 1},
		{Lload0 + 1, "lload_1", None, 1},
		{Aload0, "aload_0", None, 1},
		{Istore0 + 2, "istore_2", None, 1},
		{Astore3, "astore_3", None, 1},
		{Iinc, "iinc", LocalInc, 3},
		{Ifeq, "ifeq", Branch, 3},
		{Goto, "goto", Branch, 3},
		{GotoW, "goto_w", BranchWide, 5},
		{JsrW, "jsr_w", BranchWide, 5},
		{Ret, "ret", Local, 2},
		{Tableswitch, "tableswitch", TableSwitch, 0},
		{Lookupswitch, "lookupswitch", LookupSwitch, 0},
		{Getfield, "getfield", ConstU2, 3},
		{Invokedynamic, "invokedynamic", ConstDynamic, 5},
		{Newarray, "newarray", Byte, 2},
		{Multianewarray, "multianewarray", ConstDims, 4},
		{Wide, "wide", WidePrefix, 0},
		{Breakpoint, "breakpoint", None, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.kind, info.Kind)
			require.Equal(t, tt.size, info.Size)
			require.True(t, info.Valid())
		})
	}
}

func TestDefinedRange(t *testing.T) {
	for c := 0; c <= int(Breakpoint); c++ {
		require.True(t, GetInfo(Code(c)).Valid(), "opcode 0x%02x", c)
	}
	for c := int(Breakpoint) + 1; c < 256; c++ {
		require.False(t, GetInfo(Code(c)).Valid(), "opcode 0x%02x", c)
	}
	require.Equal(t, "<invalid>", Code(0xFE).String())
}

func TestReferencesPool(t *testing.T) {
	require.True(t, GetInfo(Ldc).ReferencesPool())
	require.True(t, GetInfo(Multianewarray).ReferencesPool())
	require.True(t, GetInfo(New).ReferencesPool())
	require.False(t, GetInfo(Bipush).ReferencesPool())
	require.False(t, GetInfo(Goto).ReferencesPool())
}

func TestCompactLocals(t *testing.T) {
	tests := []struct {
		compact Code
		base    Code
		slot    int
	}{
		{0x1A, Iload, 0},
		{0x1D, Iload, 3},
		{0x1F, Lload, 1},
		{0x2A, Aload, 0},
		{0x3B, Istore, 0},
		{0x41, Lstore, 2},
		{0x4E, Astore, 3},
	}
	for _, tt := range tests {
		t.Run(tt.compact.String(), func(t *testing.T) {
			base, slot, ok := ImpliedLocal(tt.compact)
			require.True(t, ok)
			require.Equal(t, tt.base, base)
			require.Equal(t, tt.slot, slot)

			c, ok := CompactLocal(tt.base, tt.slot)
			require.True(t, ok)
			require.Equal(t, tt.compact, c)
		})
	}
	_, ok := CompactLocal(Iload, 4)
	require.False(t, ok)
	_, ok = CompactLocal(Iinc, 0)
	require.False(t, ok)
	_, _, ok = ImpliedLocal(Iload)
	require.False(t, ok)
}

func TestImpliedConstant(t *testing.T) {
	tests := []struct {
		code  Code
		value any
	}{
		{AconstNull, nil},
		{IconstM1, int32(-1)},
		{Iconst5, int32(5)},
		{Lconst1, int64(1)},
		{Fconst2, float32(2)},
		{Dconst0, float64(0)},
	}
	for _, tt := range tests {
		v, ok := ImpliedConstant(tt.code)
		require.True(t, ok, tt.code.String())
		require.Equal(t, tt.value, v)
	}
	_, ok := ImpliedConstant(Bipush)
	require.False(t, ok)
}

func TestControlFlow(t *testing.T) {
	require.True(t, IsBranch(Ifnull))
	require.True(t, IsBranch(GotoW))
	require.False(t, IsBranch(Tableswitch))
	require.True(t, IsSwitch(Lookupswitch))
	require.True(t, IsReturn(Areturn))
	require.False(t, IsReturn(Athrow))
	require.True(t, EndsBlock(Athrow))
	require.True(t, EndsBlock(Return))
	require.False(t, EndsBlock(Ifeq))
}
