package descriptor

import (
	"strings"

	"github.com/deepnoodle-ai/javabinary/errors"
)

// Method is a parsed method descriptor.
type Method struct {
	Params []Type
	Return Type
}

// ParseMethod parses a method descriptor such as "(ILjava/lang/String;)V".
func ParseMethod(s string) (Method, error) {
	bad := func() (Method, error) {
		return Method{}, errors.New(errors.E1007, "malformed method descriptor %q", s)
	}
	if !strings.HasPrefix(s, "(") {
		return bad()
	}
	var m Method
	pos := 1
	for {
		if pos >= len(s) {
			return bad()
		}
		if s[pos] == ')' {
			pos++
			break
		}
		t, n := ParsePrefix(s[pos:])
		if n == 0 || t.Kind == Void {
			return bad()
		}
		m.Params = append(m.Params, t)
		pos += n
	}
	ret, n := ParsePrefix(s[pos:])
	if n == 0 || pos+n != len(s) {
		return bad()
	}
	m.Return = ret
	return m, nil
}

// Descriptor returns the wire form of the method type.
func (m Method) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range m.Params {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	ret := m.Return
	if ret.IsZero() {
		ret = TypeVoid
	}
	sb.WriteString(ret.Descriptor())
	return sb.String()
}

// ArgSlots returns the number of local slots the parameters occupy, not
// counting the receiver.
func (m Method) ArgSlots() int {
	n := 0
	for _, p := range m.Params {
		n += p.Category()
	}
	return n
}

func (m Method) String() string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = p.String()
	}
	ret := m.Return
	if ret.IsZero() {
		ret = TypeVoid
	}
	return ret.String() + " (" + strings.Join(parts, ", ") + ")"
}
