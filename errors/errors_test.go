package errors

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestErrorCode_Kind(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected Kind
	}{
		{E1002, MalformedInput},
		{E2001, ReferenceError},
		{E3003, UnsupportedConstruct},
		{E4001, VerifierConflict},
		{ErrorCode(""), MalformedInput},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			require.Equal(t, tt.expected, tt.code.Kind())
		})
	}
}

func TestErrorCode_Description(t *testing.T) {
	require.Equal(t, "jump to undefined label", E3002.Description())
	require.Equal(t, "unknown error", ErrorCode("J9999").Description())
}

func TestError_Message(t *testing.T) {
	err := New(E3002, "jump to undefined label %d", 12)
	require.Equal(t, "unsupported construct: jump to undefined label 12", err.Error())
	require.Equal(t, UnsupportedConstruct, err.Kind())
}

func TestWrapf_AccumulatesOutermostFirst(t *testing.T) {
	var err error = New(E3003, "jump offset too far")
	err = Wrapf(err, "opcode 0xa7 label 0x0012")
	err = Wrapf(err, "method body")
	err = Wrapf(err, "method '%s'", "foo")
	err = Wrapf(err, "writing class '%s'", "a.B")

	e, ok := As(err)
	require.True(t, ok)
	require.Equal(t, []string{
		"writing class 'a.B'",
		"method 'foo'",
		"method body",
		"opcode 0xa7 label 0x0012",
	}, e.Where)
	require.Equal(t,
		"unsupported construct: jump offset too far\n\nwhere: writing class 'a.B' > method 'foo' > method body > opcode 0xa7 label 0x0012",
		err.Error())
}

func TestWrapf_ForeignError(t *testing.T) {
	err := Wrapf(io.ErrUnexpectedEOF, "reading class")
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, MalformedInput, kind)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Nil(t, Wrapf(nil, "ignored"))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(E4001, "conflict"))
	require.True(t, HasCode(err, E4001))
	require.False(t, HasCode(err, E4002))
	require.False(t, HasCode(io.EOF, E4001))
}

func TestFormatter_Format(t *testing.T) {
	err := Wrapf(New(E3006, "bad super class for enum 'a.E': java.lang.Object"), "reading class 'a.E' version 52.0")
	out := NewFormatter(false).Format(err)
	expected := strings.Join([]string{
		"error[J3006]: bad super class for enum 'a.E': java.lang.Object",
		"  --> reading class 'a.E' version 52.0",
		"   = note: unsupported construct, bad super class for enum",
		"",
	}, "\n")
	require.Equal(t, expected, out)
}

func TestFormatter_FormatMultiple(t *testing.T) {
	var merr *multierror.Error
	merr = multierror.Append(merr, New(E1002, "bad magic number 0x00000000"))
	merr = multierror.Append(merr, New(E1003, "unsupported version 44"))
	out := NewFormatter(false).FormatMultiple(merr)
	require.Contains(t, out, "error[1/2 J1002]: bad magic number 0x00000000")
	require.Contains(t, out, "error[2/2 J1003]: unsupported version 44")
	require.True(t, strings.HasSuffix(out, "found 2 errors\n"))
}

func TestFormatter_Color(t *testing.T) {
	out := NewFormatter(true).Format(New(E4002, "operand stack underflow"))
	require.Contains(t, out, "\x1b[")
	require.Contains(t, out, "operand stack underflow")
}
