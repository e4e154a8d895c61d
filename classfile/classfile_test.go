package classfile

import (
	"bytes"
	"context"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
	"github.com/deepnoodle-ai/javabinary/op"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

var (
	hello      = descriptor.Object("demo.Hello")
	voidMethod = descriptor.Method{Return: descriptor.TypeVoid}
	concat     = cpool.MethodHandle{
		Kind: cpool.RefInvokeStatic,
		Member: cpool.MemberRef{
			Kind:       cpool.TagMethodref,
			Owner:      descriptor.Object("java.lang.invoke.StringConcatFactory"),
			Name:       "makeConcatWithConstants",
			Descriptor: "(Ljava/lang/invoke/MethodHandles$Lookup;Ljava/lang/String;Ljava/lang/invoke/MethodType;Ljava/lang/String;[Ljava/lang/Object;)Ljava/lang/invoke/CallSite;",
		},
	}
)

func mustMethod(t *testing.T, s string) descriptor.Method {
	t.Helper()
	m, err := descriptor.ParseMethod(s)
	require.NoError(t, err)
	return m
}

func push(t *testing.T, s *stackmap.State, types ...stackmap.Type) {
	t.Helper()
	for _, ty := range types {
		s.PushStack(ty)
	}
}

func pop(t *testing.T, s *stackmap.State, n int) {
	t.Helper()
	require.NoError(t, s.PopStackN(n))
}

func buildHello(t *testing.T) *Class {
	t.Helper()
	c := New(hello, descriptor.TypeObject, AccPublic|AccSuper)
	c.SourceFile = "Hello.java"
	c.Interfaces = []descriptor.Type{descriptor.Object("java.lang.Runnable")}
	c.AddNested(attr.InnerClass{Inner: descriptor.Object("demo.Hello$Item"), Name: "Item", Flags: uint16(AccPublic | AccStatic)})
	c.InnerRefs = []attr.InnerClass{{
		Inner: descriptor.Object("java.util.Map$Entry"),
		Outer: descriptor.Object("java.util.Map"),
		Name:  "Entry",
		Flags: uint16(AccPublic | AccStatic | AccInterface | AccAbstract),
	}}

	answer := c.AddField(AccPublic|AccStatic|AccFinal, "ANSWER", descriptor.TypeInt)
	answer.Constant = int32(42)
	names := c.AddField(AccPrivate, "names", descriptor.Object("java.util.List"))
	names.Signature = "Ljava/util/List<Ljava/lang/String;>;"

	ctor := c.AddMethod(AccPublic, "<init>", voidMethod)
	code := ctor.NewCode()
	code.SetLine(1)
	code.Load(descriptor.TypeObject, 0)
	push(t, code.Frames, stackmap.ThisType)
	code.Member(op.Invokespecial, cpool.MemberRef{Kind: cpool.TagMethodref, Owner: descriptor.TypeObject, Name: "<init>", Descriptor: "()V"})
	pop(t, code.Frames, 1)
	code.Op(op.Return)

	abs := c.AddMethod(AccPublic|AccStatic, "abs", mustMethod(t, "(I)I"))
	abs.Parameters = []attr.Parameter{{Name: "x"}}
	code = abs.NewCode()
	negative := code.NewLabel()
	code.Load(descriptor.TypeInt, 0)
	push(t, code.Frames, stackmap.IntType)
	code.Jump(op.Iflt, negative)
	pop(t, code.Frames, 1)
	_, err := code.Frames.SaveFrame(negative, true)
	require.NoError(t, err)
	code.Load(descriptor.TypeInt, 0)
	push(t, code.Frames, stackmap.IntType)
	code.Op(op.Ireturn)
	pop(t, code.Frames, 1)
	require.NoError(t, code.Frames.LoadFrame(negative, true))
	code.Mark(negative)
	code.Load(descriptor.TypeInt, 0)
	push(t, code.Frames, stackmap.IntType)
	code.Op(op.Ineg)
	code.Op(op.Ireturn)
	pop(t, code.Frames, 1)

	greet := c.AddMethod(AccPublic|AccStatic, "greet", mustMethod(t, "(Ljava/lang/String;)Ljava/lang/String;"))
	greet.Exceptions = []descriptor.Type{descriptor.Object("java.io.IOException")}
	code = greet.NewCode()
	code.Load(descriptor.TypeString, 0)
	push(t, code.Frames, stackmap.ObjectOf(descriptor.TypeString))
	code.InvokeDynamic(cpool.CallSite{
		Bootstrap:  cpool.BootstrapMethod{Handle: concat, Args: []any{"Hello \u0001"}},
		Name:       "makeConcatWithConstants",
		Descriptor: "(Ljava/lang/String;)Ljava/lang/String;",
	})
	code.Op(op.Areturn)
	pop(t, code.Frames, 1)

	one := c.AddMethod(AccStatic, "one", mustMethod(t, "()J"))
	code = one.NewCode()
	code.Const(int32(1))
	push(t, code.Frames, stackmap.IntType)
	code.Op(op.I2l)
	pop(t, code.Frames, 1)
	push(t, code.Frames, stackmap.LongType)
	code.Op(op.Lreturn)
	pop(t, code.Frames, 1)

	c.AddMethod(AccPublic|AccNative, "run", voidMethod)
	return c
}

func TestRoundTrip(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	b, err := buildHello(t).Bytes(WithLogger(logger))
	require.NoError(t, err)
	require.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52}, b[:8])
	require.Contains(t, logs.String(), `"message":"class written"`)

	c, err := Parse(b, WithLogger(logger))
	require.NoError(t, err)
	require.Contains(t, logs.String(), `"message":"class read"`)
	require.Equal(t, Version{Major: 52}, c.Version)
	require.Equal(t, hello, c.Name)
	require.Equal(t, descriptor.TypeObject, c.Super)
	require.Equal(t, AccPublic|AccSuper, c.Flags)
	require.Equal(t, "Hello.java", c.SourceFile)
	require.Equal(t, []descriptor.Type{descriptor.Object("java.lang.Runnable")}, c.Interfaces)

	require.Len(t, c.Nesting, 2)
	require.Nil(t, c.Nesting[0])
	require.Equal(t, "Item", c.Nesting[1].Name)
	require.Equal(t, hello, c.Nesting[1].Outer)
	require.Len(t, c.InnerRefs, 1)
	require.Equal(t, "Entry", c.InnerRefs[0].Name)

	answer, ok := c.Field("ANSWER")
	require.True(t, ok)
	require.Equal(t, int32(42), answer.Constant)
	names, ok := c.Field("names")
	require.True(t, ok)
	require.Equal(t, "Ljava/util/List<Ljava/lang/String;>;", names.Signature)

	abs, ok := c.Method("abs")
	require.True(t, ok)
	require.Equal(t, []attr.Parameter{{Name: "x"}}, abs.Parameters)
	require.NotNil(t, abs.Code.Frames)
	f, ok := abs.Code.Frames.Frame(6)
	require.True(t, ok)
	require.Equal(t, []stackmap.Type{stackmap.IntType}, f.Locals)
	require.Equal(t, 1, abs.Code.MaxStack)

	greet, ok := c.Method("greet")
	require.True(t, ok)
	require.Equal(t, []descriptor.Type{descriptor.Object("java.io.IOException")}, greet.Exceptions)
	site, ok := greet.Code.Instructions[1].Value.(cpool.CallSite)
	require.True(t, ok)
	require.Equal(t, []any{"Hello \u0001"}, site.Bootstrap.Args)
	require.Equal(t, concat, site.Bootstrap.Handle)

	one, ok := c.Method("one")
	require.True(t, ok)
	require.Len(t, one.Code.Instructions, 2)
	require.Equal(t, op.Lconst1, one.Code.Instructions[0].Op)

	run, ok := c.Method("run")
	require.True(t, ok)
	require.Nil(t, run.Code)

	again, err := c.Bytes(WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.Equal(t, b, again)
}

func TestRead(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, buildHello(t).Write(&buf, WithLogger(zerolog.Nop())))
	c, err := Read(&buf, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.Len(t, c.Methods, 5)
}

func TestOptions(t *testing.T) {
	b, err := buildHello(t).Bytes(WithLogger(zerolog.Nop()), WithStackMaps(false), WithOptimize(false))
	require.NoError(t, err)
	c, err := Parse(b, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	abs, _ := c.Method("abs")
	require.Nil(t, abs.Code.Frames)
	one, _ := c.Method("one")
	require.Equal(t, []op.Code{op.Iconst1, op.I2l, op.Lreturn}, []op.Code{
		one.Code.Instructions[0].Op,
		one.Code.Instructions[1].Op,
		one.Code.Instructions[2].Op,
	})
}

// setFlags rewrites the class access flags, which follow the constant pool.
func setFlags(t *testing.T, b []byte, flags AccessFlags) {
	t.Helper()
	r := byteio.NewReader(b)
	r.Skip(8)
	_, err := cpool.Read(r)
	require.NoError(t, err)
	b[r.Pos()] = byte(flags >> 8)
	b[r.Pos()+1] = byte(flags)
}

func TestEnumSuperValidation(t *testing.T) {
	color := descriptor.Object("demo.Color")

	good := New(color, descriptor.TypeEnum, AccPublic|AccFinal|AccSuper|AccEnum)
	b, err := good.Bytes(WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = Parse(b, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	body := New(descriptor.Object("demo.Color$1"), color, AccFinal|AccSuper|AccEnum)
	body.Enclosing = &attr.EnclosingMethod{Class: color}
	b, err = body.Bytes(WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	_, err = Parse(b, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	bad := New(color, descriptor.TypeObject, AccPublic|AccFinal|AccSuper|AccEnum)
	_, err = bad.Bytes(WithLogger(zerolog.Nop()))
	require.True(t, errors.HasCode(err, errors.E3006))

	bad.Flags = AccPublic | AccFinal | AccSuper
	b, err = bad.Bytes(WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	setFlags(t, b, AccPublic|AccFinal|AccSuper|AccEnum)
	_, err = Parse(b, WithLogger(zerolog.Nop()))
	require.True(t, errors.HasCode(err, errors.E3006))
	require.Contains(t, err.Error(), "bad super class for enum")
	require.Contains(t, err.Error(), "reading class 'demo.Color' version 52.0")
}

func TestValidate(t *testing.T) {
	c := New(hello, descriptor.TypeObject, AccPublic|AccSuper)
	c.AddField(AccPrivate, "x", descriptor.TypeInt)
	c.AddField(AccPrivate, "x", descriptor.TypeInt)
	f := c.AddField(AccStatic|AccFinal, "big", descriptor.TypeInt)
	f.Constant = int64(1)
	c.AddMethod(AccPublic, "run", voidMethod)
	c.AddMethod(AccPublic|AccAbstract, "stop", voidMethod).NewCode()

	err := c.Validate()
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 4)
	require.True(t, errors.HasCode(merr.Errors[1], errors.E3005))
	require.Contains(t, merr.Errors[1].Error(), "invalid constant value")

	_, err = c.Bytes(WithLogger(zerolog.Nop()))
	require.Error(t, err)

	require.NoError(t, buildHello(t).Validate())
}

func TestHeaderErrors(t *testing.T) {
	b, err := buildHello(t).Bytes(WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		code errors.ErrorCode
	}{
		{"bad magic", append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, b[4:]...), errors.E1002},
		{"old version", append([]byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 44}, b[8:]...), errors.E1003},
		{"truncated", b[:len(b)-3], errors.E1001},
		{"empty", nil, errors.E1001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data, WithLogger(zerolog.Nop()))
			require.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParseAll(t *testing.T) {
	b, err := buildHello(t).Bytes(WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	blobs := [][]byte{b, {0, 1, 2, 3}, b}

	classes, err := ParseAll(context.Background(), blobs, WithLogger(zerolog.Nop()), WithConcurrency(2))
	require.Len(t, classes, 3)
	require.NotNil(t, classes[0])
	require.Nil(t, classes[1])
	require.NotNil(t, classes[2])
	require.NotSame(t, classes[0], classes[2])

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	require.True(t, errors.HasCode(merr.Errors[0], errors.E1002))
	require.Contains(t, merr.Errors[0].Error(), "class file 1")
}

func TestFlagsFormat(t *testing.T) {
	require.Equal(t, "public static final", (AccPublic | AccStatic | AccFinal).Format(FieldTarget))
	require.Equal(t, "public synchronized", (AccPublic | AccSynchronized).Format(MethodTarget))
	require.Equal(t, "public super", AccessFlags(0x0021).Format(ClassTarget))
	require.Equal(t, "", AccessFlags(0).Format(ClassTarget))
}
