package descriptor

import (
	"testing"

	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/op"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := []string{
		"I", "J", "Z", "B", "C", "S", "F", "D",
		"[I",
		"[[J",
		"Ljava/lang/String;",
		"[[Ljava/lang/Object;",
		"La/b/C$Inner;",
		"LNoPackage;",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			typ, err := Parse(s)
			require.NoError(t, err)
			require.Equal(t, s, typ.Descriptor())
		})
	}
}

func TestMethodRoundTrip(t *testing.T) {
	tests := []string{
		"()V",
		"(I)I",
		"(IJLjava/lang/String;[[D)V",
		"([Ljava/lang/String;)Ljava/lang/Object;",
		"(ZBCSFD)[J",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			m, err := ParseMethod(s)
			require.NoError(t, err)
			require.Equal(t, s, m.Descriptor())
		})
	}
}

func TestParsePrefix(t *testing.T) {
	typ, n := ParsePrefix("[Ljava/util/List;IZ")
	require.Equal(t, 17, n)
	require.Equal(t, Type{Kind: Reference, Dims: 1, Class: "java.util.List"}, typ)

	for _, s := range []string{"", "[", "L;", "Ljava/lang/String", "Q", "[V", "La.b;"} {
		_, n := ParsePrefix(s)
		require.Zero(t, n, s)
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "V", "II", "Ljava/lang/String;X", "[["} {
		_, err := Parse(s)
		require.True(t, errors.HasCode(err, errors.E1007), s)
	}
	for _, s := range []string{"", "I", "(", "(V)V", "(I)", "(I)VV", "(I)[V"} {
		_, err := ParseMethod(s)
		require.True(t, errors.HasCode(err, errors.E1007), s)
	}
}

func TestNames(t *testing.T) {
	str := Type{Kind: Reference, Dims: 2, Class: "java.lang.String"}
	require.Equal(t, "java.lang.String[][]", str.String())
	require.Equal(t, "[[Ljava/lang/String;", str.InternalName())
	require.Equal(t, "java/lang/String", TypeString.InternalName())
	require.Equal(t, "int[]", TypeInt.ArrayOf().String())

	got, err := FromInternalName("java/util/Map$Entry")
	require.NoError(t, err)
	require.Equal(t, Object("java.util.Map$Entry"), got)
	got, err = FromInternalName("[I")
	require.NoError(t, err)
	require.Equal(t, TypeInt.ArrayOf(), got)
	_, err = FromInternalName("")
	require.Error(t, err)

	m, err := ParseMethod("(ILjava/lang/String;)V")
	require.NoError(t, err)
	require.Equal(t, "void (int, java.lang.String)", m.String())
}

func TestCategory(t *testing.T) {
	require.Equal(t, 2, TypeLong.Category())
	require.Equal(t, 2, TypeDouble.Category())
	require.Equal(t, 1, TypeLong.ArrayOf().Category())
	require.Equal(t, 1, TypeString.Category())
	require.Equal(t, 0, TypeVoid.Category())

	m, err := ParseMethod("(IJLjava/lang/Object;D[J)V")
	require.NoError(t, err)
	require.Equal(t, 7, m.ArgSlots())
}

func TestOpcodeFamilies(t *testing.T) {
	tests := []struct {
		typ                        Type
		init, load, store, ret     op.Code
		arrayLoad, arrayStore      op.Code
	}{
		{TypeInt, op.Iconst0, op.Iload, op.Istore, op.Ireturn, op.Iaload, op.Iastore},
		{TypeBoolean, op.Iconst0, op.Iload, op.Istore, op.Ireturn, op.Baload, op.Bastore},
		{Type{Kind: Char}, op.Iconst0, op.Iload, op.Istore, op.Ireturn, op.Caload, op.Castore},
		{Type{Kind: Short}, op.Iconst0, op.Iload, op.Istore, op.Ireturn, op.Saload, op.Sastore},
		{TypeLong, op.Lconst0, op.Lload, op.Lstore, op.Lreturn, op.Laload, op.Lastore},
		{TypeFloat, op.Fconst0, op.Fload, op.Fstore, op.Freturn, op.Faload, op.Fastore},
		{TypeDouble, op.Dconst0, op.Dload, op.Dstore, op.Dreturn, op.Daload, op.Dastore},
		{TypeString, op.AconstNull, op.Aload, op.Astore, op.Areturn, op.Aaload, op.Aastore},
		{TypeInt.ArrayOf(), op.AconstNull, op.Aload, op.Astore, op.Areturn, op.Aaload, op.Aastore},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			require.Equal(t, tt.init, tt.typ.InitOp())
			require.Equal(t, tt.load, tt.typ.LoadOp())
			require.Equal(t, tt.store, tt.typ.StoreOp())
			require.Equal(t, tt.ret, tt.typ.ReturnOp())
			arr := tt.typ.ArrayOf()
			require.Equal(t, tt.arrayLoad, arr.ArrayLoadOp())
			require.Equal(t, tt.arrayStore, arr.ArrayStoreOp())
		})
	}
	require.Equal(t, op.Return, TypeVoid.ReturnOp())
}

func TestNewArray(t *testing.T) {
	code, operand := TypeInt.ArrayOf().NewArray()
	require.Equal(t, op.Newarray, code)
	require.Equal(t, TInt, operand)

	code, _ = TypeString.ArrayOf().NewArray()
	require.Equal(t, op.Anewarray, code)

	code, operand = TypeInt.ArrayOf().ArrayOf().NewArray()
	require.Equal(t, op.Multianewarray, code)
	require.Equal(t, byte(2), operand)

	elem, ok := FromArrayTypeCode(TLong)
	require.True(t, ok)
	require.Equal(t, TypeLong, elem)
	_, ok = FromArrayTypeCode(3)
	require.False(t, ok)
}

func TestAssignableTo(t *testing.T) {
	list := Object("java.util.List")
	tests := []struct {
		from, to Type
		expected bool
	}{
		{TypeInt, TypeInt, true},
		{TypeInt, TypeLong, false},
		{TypeString, TypeObject, true},
		{TypeString, list, false},
		{TypeInt, TypeObject, false},
		{TypeInt.ArrayOf(), TypeObject, true},
		{TypeInt.ArrayOf(), TypeCloneable, true},
		{TypeInt.ArrayOf(), TypeSerializable, true},
		{TypeString, TypeCloneable, false},
		{TypeString.ArrayOf(), TypeObject.ArrayOf(), true},
		{TypeString.ArrayOf().ArrayOf(), TypeObject.ArrayOf(), true},
		{TypeInt.ArrayOf(), TypeObject.ArrayOf(), false},
		{TypeObject.ArrayOf(), TypeString.ArrayOf(), false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			require.Equal(t, tt.expected, tt.from.AssignableTo(tt.to))
		})
	}
}

func TestResolveConflict(t *testing.T) {
	list := Object("java.util.List")

	got, ok := TypeString.ResolveConflict(TypeObject, false)
	require.True(t, ok)
	require.Equal(t, TypeObject, got)

	_, ok = TypeString.ResolveConflict(list, false)
	require.False(t, ok)

	got, ok = TypeString.ResolveConflict(list, true)
	require.True(t, ok)
	require.Equal(t, TypeObject, got)

	_, ok = TypeInt.ResolveConflict(TypeFloat, true)
	require.False(t, ok)
}
