package cpool

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/javabinary/descriptor"
)

// NameAndType is a resolved CONSTANT_NameAndType.
type NameAndType struct {
	Name       string
	Descriptor string
}

// MemberRef is a resolved field or method reference. Kind is TagFieldref,
// TagMethodref or TagInterfaceMethodref.
type MemberRef struct {
	Kind       Tag
	Owner      descriptor.Type
	Name       string
	Descriptor string
}

func (m MemberRef) String() string {
	return m.Owner.String() + "." + m.Name + ":" + m.Descriptor
}

// Method parses the descriptor of a method reference.
func (m MemberRef) Method() (descriptor.Method, error) {
	return descriptor.ParseMethod(m.Descriptor)
}

// Field parses the descriptor of a field reference.
func (m MemberRef) Field() (descriptor.Type, error) {
	return descriptor.Parse(m.Descriptor)
}

// MethodHandle is a resolved CONSTANT_MethodHandle.
type MethodHandle struct {
	Kind   RefKind
	Member MemberRef
}

func (h MethodHandle) String() string {
	return h.Kind.String() + " " + h.Member.String()
}

// MethodType is a resolved CONSTANT_MethodType.
type MethodType struct {
	Descriptor string
}

func (m MethodType) String() string {
	return m.Descriptor
}

// BootstrapMethod is one row of the BootstrapMethods table. Args holds
// loadable values as returned by Pool.Loadable.
type BootstrapMethod struct {
	Handle MethodHandle
	Args   []any
}

// Equal reports whether two bootstrap methods have the same handle and
// arguments.
func (b BootstrapMethod) Equal(other BootstrapMethod) bool {
	if b.Handle != other.Handle || len(b.Args) != len(other.Args) {
		return false
	}
	for i, a := range b.Args {
		if !sameLoadable(a, other.Args[i]) {
			return false
		}
	}
	return true
}

// sameLoadable compares loadable values, treating floats by their bits.
func sameLoadable(a, b any) bool {
	switch x := a.(type) {
	case float32:
		y, ok := b.(float32)
		return ok && FloatOf(x) == FloatOf(y)
	case float64:
		y, ok := b.(float64)
		return ok && DoubleOf(x) == DoubleOf(y)
	}
	return a == b
}

func (b BootstrapMethod) String() string {
	args := make([]string, len(b.Args))
	for i, a := range b.Args {
		args[i] = FormatLoadable(a)
	}
	return b.Handle.String() + " [" + strings.Join(args, ", ") + "]"
}

// CallSite is a resolved CONSTANT_InvokeDynamic.
type CallSite struct {
	Bootstrap  BootstrapMethod
	Name       string
	Descriptor string
}

func (c CallSite) String() string {
	return c.Name + ":" + c.Descriptor + " via " + c.Bootstrap.Handle.String()
}

// FormatLoadable renders a loadable constant for diagnostics.
func FormatLoadable(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case int64:
		return fmt.Sprintf("%dL", x)
	case float32:
		return fmt.Sprintf("%gf", x)
	case float64:
		return fmt.Sprintf("%gd", x)
	case descriptor.Type:
		return x.String() + ".class"
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}
