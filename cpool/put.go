package cpool

import (
	"fmt"

	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
)

// PutUtf8 adds a CONSTANT_Utf8 entry.
func (p *Pool) PutUtf8(s string) (uint16, error) {
	if n := len(EncodeMUTF8(s)); n > 0xFFFF {
		return 0, errors.New(errors.E3008, "string constant too long (%d bytes encoded)", n)
	}
	return p.Put(Utf8(s))
}

// PutInteger adds a CONSTANT_Integer entry.
func (p *Pool) PutInteger(v int32) (uint16, error) {
	return p.Put(Integer(v))
}

// PutFloat adds a CONSTANT_Float entry.
func (p *Pool) PutFloat(v float32) (uint16, error) {
	return p.Put(FloatOf(v))
}

// PutLong adds a CONSTANT_Long entry.
func (p *Pool) PutLong(v int64) (uint16, error) {
	return p.Put(Long(v))
}

// PutDouble adds a CONSTANT_Double entry.
func (p *Pool) PutDouble(v float64) (uint16, error) {
	return p.Put(DoubleOf(v))
}

// PutString adds a CONSTANT_String entry.
func (p *Pool) PutString(s string) (uint16, error) {
	u, err := p.PutUtf8(s)
	if err != nil {
		return 0, err
	}
	return p.Put(String{Value: u})
}

// PutClass adds a CONSTANT_Class entry for a class or array type.
func (p *Pool) PutClass(t descriptor.Type) (uint16, error) {
	if !t.IsReference() {
		return 0, errors.New(errors.E3005, "%s is not a class or array type", t)
	}
	u, err := p.PutUtf8(t.InternalName())
	if err != nil {
		return 0, err
	}
	return p.Put(Class{Name: u})
}

// PutNameAndType adds a CONSTANT_NameAndType entry.
func (p *Pool) PutNameAndType(name, desc string) (uint16, error) {
	n, err := p.PutUtf8(name)
	if err != nil {
		return 0, err
	}
	d, err := p.PutUtf8(desc)
	if err != nil {
		return 0, err
	}
	return p.Put(NameAndTypeEntry{Name: n, Descriptor: d})
}

// PutMember adds a field or method reference entry.
func (p *Pool) PutMember(m MemberRef) (uint16, error) {
	switch m.Kind {
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
	default:
		return 0, errors.New(errors.E3005, "%s is not a member reference kind", m.Kind)
	}
	c, err := p.PutClass(m.Owner)
	if err != nil {
		return 0, err
	}
	nt, err := p.PutNameAndType(m.Name, m.Descriptor)
	if err != nil {
		return 0, err
	}
	return p.Put(MemberEntry{Kind: m.Kind, Class: c, NameAndType: nt})
}

// PutMethodHandle adds a CONSTANT_MethodHandle entry.
func (p *Pool) PutMethodHandle(h MethodHandle) (uint16, error) {
	if !h.Kind.accepts(h.Member.Kind) {
		return 0, errors.New(errors.E3009, "method handle %s cannot refer to a %s", h.Kind, h.Member.Kind)
	}
	ref, err := p.PutMember(h.Member)
	if err != nil {
		return 0, err
	}
	return p.Put(MethodHandleEntry{Kind: h.Kind, Ref: ref})
}

// PutMethodType adds a CONSTANT_MethodType entry.
func (p *Pool) PutMethodType(mt MethodType) (uint16, error) {
	d, err := p.PutUtf8(mt.Descriptor)
	if err != nil {
		return 0, err
	}
	return p.Put(MethodTypeEntry{Descriptor: d})
}

// PutCallSite adds a CONSTANT_InvokeDynamic entry, registering its
// bootstrap method in the pool's bootstrap table.
func (p *Pool) PutCallSite(cs CallSite) (uint16, error) {
	bi, err := p.FindOrCreateBootstrap(cs.Bootstrap)
	if err != nil {
		return 0, err
	}
	nt, err := p.PutNameAndType(cs.Name, cs.Descriptor)
	if err != nil {
		return 0, err
	}
	return p.Put(InvokeDynamicEntry{Bootstrap: bi, NameAndType: nt})
}

// PutLoadable adds the entry for a value of one of the types returned by
// Loadable. Plain Go ints are accepted as int32.
func (p *Pool) PutLoadable(v any) (uint16, error) {
	switch x := v.(type) {
	case int32:
		return p.PutInteger(x)
	case int:
		if int(int32(x)) != x {
			return 0, errors.New(errors.E3005, "integer constant %d out of range", x)
		}
		return p.PutInteger(int32(x))
	case float32:
		return p.PutFloat(x)
	case int64:
		return p.PutLong(x)
	case float64:
		return p.PutDouble(x)
	case string:
		return p.PutString(x)
	case descriptor.Type:
		return p.PutClass(x)
	case MethodType:
		return p.PutMethodType(x)
	case MethodHandle:
		return p.PutMethodHandle(x)
	}
	return 0, errors.New(errors.E3005, "%s is not a loadable constant", describe(v))
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
