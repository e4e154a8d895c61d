package dis

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/classfile"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/op"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

func sample(t *testing.T) *classfile.Class {
	t.Helper()
	c := classfile.New(descriptor.Object("demo.Maths"), descriptor.TypeObject, classfile.AccPublic|classfile.AccSuper)
	c.SourceFile = "Maths.java"
	greeting := c.AddField(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal, "GREETING", descriptor.TypeString)
	greeting.Constant = "hi"

	sig, err := descriptor.ParseMethod("(I)I")
	require.NoError(t, err)
	abs := c.AddMethod(classfile.AccPublic|classfile.AccStatic, "abs", sig)
	abs.Parameters = []attr.Parameter{{Name: "x"}}
	code := abs.NewCode()
	s := code.Frames
	negative := code.NewLabel()

	code.SetLine(3)
	code.Load(descriptor.TypeInt, 0)
	s.PushStack(stackmap.IntType)
	code.Jump(op.Iflt, negative)
	require.NoError(t, s.PopStackN(1))
	_, err = s.SaveFrame(negative, true)
	require.NoError(t, err)
	code.SetLine(4)
	code.Load(descriptor.TypeInt, 0)
	s.PushStack(stackmap.IntType)
	code.Op(op.Ireturn)
	require.NoError(t, s.PopStackN(1))
	require.NoError(t, s.LoadFrame(negative, true))
	code.Mark(negative)
	code.SetLine(5)
	code.Load(descriptor.TypeInt, 0)
	s.PushStack(stackmap.IntType)
	code.Op(op.Ineg)
	code.Op(op.Ireturn)
	require.NoError(t, s.PopStackN(1))

	b, err := c.Bytes(classfile.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	parsed, err := classfile.Parse(b, classfile.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return parsed
}

func TestDisassemble(t *testing.T) {
	c := sample(t)
	abs, ok := c.Method("abs")
	require.True(t, ok)

	rows := Disassemble(abs.Code)
	require.Equal(t, []Row{
		{Label: 0, Line: 3, Mnemonic: "iload_0"},
		{Label: 1, Line: 3, Mnemonic: "iflt", Operands: "L6"},
		{Label: 4, Line: 4, Mnemonic: "iload_0"},
		{Label: 5, Line: 4, Mnemonic: "ireturn"},
		{Label: 6, Line: 5, Mnemonic: "iload_0", Frame: "locals [int] stack []"},
		{Label: 7, Line: 5, Mnemonic: "ineg"},
		{Label: 8, Line: 5, Mnemonic: "ireturn"},
	}, rows)
}

func TestFprint(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, sample(t)))
	out := buf.String()

	require.Contains(t, out, "public super class demo.Maths extends java.lang.Object\n")
	require.Contains(t, out, "  version 52.0\n")
	require.Contains(t, out, "  source Maths.java\n")
	require.Contains(t, out, "  public static final java.lang.String GREETING = \"hi\"\n")
	require.Contains(t, out, "  public static int abs(int x)\n")
	require.Contains(t, out, "    max stack 1, max locals 1\n")
	require.Contains(t, out, "| LABEL | LINE | OPCODE  | OPERANDS |         FRAME         |")
	require.Contains(t, out, "|    L1 |    3 | iflt    | L6       |                       |")
	require.Contains(t, out, "|    L6 |    5 | iload_0 |          | locals [int] stack [] |")
}
