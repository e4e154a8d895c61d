package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/javabinary/classfile"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/op"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	c := classfile.New(descriptor.Object("demo.Tool"), descriptor.TypeObject, classfile.AccPublic|classfile.AccSuper)
	sig, err := descriptor.ParseMethod("(I)I")
	require.NoError(t, err)
	m := c.AddMethod(classfile.AccPublic|classfile.AccStatic, "sign", sig)
	code := m.NewCode()
	s := code.Frames
	positive := code.NewLabel()
	code.Load(descriptor.TypeInt, 0)
	s.PushStack(stackmap.IntType)
	code.Jump(op.Ifgt, positive)
	require.NoError(t, s.PopStackN(1))
	_, err = s.SaveFrame(positive, true)
	require.NoError(t, err)
	code.Const(int32(0))
	s.PushStack(stackmap.IntType)
	code.Op(op.Ireturn)
	require.NoError(t, s.PopStackN(1))
	require.NoError(t, s.LoadFrame(positive, true))
	code.Mark(positive)
	code.Const(int32(1))
	s.PushStack(stackmap.IntType)
	code.Op(op.Ireturn)
	require.NoError(t, s.PopStackN(1))

	b, err := c.Bytes(classfile.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	path := filepath.Join(dir, "Tool.class")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	path := writeSample(t, t.TempDir())

	out, err := run(t, "check", path)
	require.NoError(t, err)
	require.Equal(t, "ok "+path+"\n", out)

	out, err = run(t, "check", "--no-stackmaps", path)
	require.NoError(t, err)
	require.Contains(t, out, "rewritten "+path)

	_, err = run(t, "check", "--no-stackmaps", "--write", path)
	require.NoError(t, err)
	out, err = run(t, "check", "--no-stackmaps", path)
	require.NoError(t, err)
	require.Equal(t, "ok "+path+"\n", out)
}

func TestCheckReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeSample(t, dir)
	bad := filepath.Join(dir, "Bad.class")
	require.NoError(t, os.WriteFile(bad, []byte("not a class"), 0o644))

	out, err := run(t, "check", good, bad)
	require.Error(t, err)
	require.Contains(t, out, "ok "+good)
	require.Contains(t, out, "FAIL "+bad)

	_, err = run(t, "check", filepath.Join(dir, "Missing.class"))
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	path := writeSample(t, t.TempDir())

	out, err := run(t, "dump", path)
	require.NoError(t, err)
	require.Contains(t, out, "public super class demo.Tool extends java.lang.Object")
	require.Contains(t, out, "public static int sign(int)")
	require.Contains(t, out, "ifgt")

	out, err = run(t, "dump", "-o", "json", path)
	require.NoError(t, err)
	require.Contains(t, out, `"demo.Tool"`)
	require.Contains(t, out, `"(I)I"`)

	_, err = run(t, "dump", "-o", "xml", path)
	require.EqualError(t, err, "unknown output format: xml")
}
