package cpool

import (
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
)

// Roles under which an index may be resolved and cached.
const (
	asClass uint8 = iota
	asNameAndType
	asMember
	asMethodHandle
	asCallSite
	asLoadable
)

// Utf8 resolves a CONSTANT_Utf8 index.
func (p *Pool) Utf8(index uint16) (string, error) {
	s, err := Lookup[Utf8](p, index)
	return string(s), err
}

// ClassType resolves a CONSTANT_Class index. Array classes are returned as
// array types.
func (p *Pool) ClassType(index uint16) (descriptor.Type, error) {
	return memo(p, index, asClass, func() (descriptor.Type, error) {
		c, err := Lookup[Class](p, index)
		if err != nil {
			return descriptor.Type{}, err
		}
		name, err := p.Utf8(c.Name)
		if err != nil {
			return descriptor.Type{}, err
		}
		return descriptor.FromInternalName(name)
	})
}

// ClassName resolves a CONSTANT_Class index to a dotted class name, or the
// Java form of an array type.
func (p *Pool) ClassName(index uint16) (string, error) {
	t, err := p.ClassType(index)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// String resolves a CONSTANT_String index.
func (p *Pool) String(index uint16) (string, error) {
	s, err := Lookup[String](p, index)
	if err != nil {
		return "", err
	}
	return p.Utf8(s.Value)
}

// NameAndType resolves a CONSTANT_NameAndType index.
func (p *Pool) NameAndType(index uint16) (NameAndType, error) {
	return memo(p, index, asNameAndType, func() (NameAndType, error) {
		nt, err := Lookup[NameAndTypeEntry](p, index)
		if err != nil {
			return NameAndType{}, err
		}
		name, err := p.Utf8(nt.Name)
		if err != nil {
			return NameAndType{}, err
		}
		desc, err := p.Utf8(nt.Descriptor)
		if err != nil {
			return NameAndType{}, err
		}
		return NameAndType{Name: name, Descriptor: desc}, nil
	})
}

// Member resolves a Fieldref, Methodref or InterfaceMethodref index.
func (p *Pool) Member(index uint16) (MemberRef, error) {
	return memo(p, index, asMember, func() (MemberRef, error) {
		m, err := Lookup[MemberEntry](p, index)
		if err != nil {
			return MemberRef{}, err
		}
		owner, err := p.ClassType(m.Class)
		if err != nil {
			return MemberRef{}, err
		}
		nt, err := p.NameAndType(m.NameAndType)
		if err != nil {
			return MemberRef{}, err
		}
		return MemberRef{Kind: m.Kind, Owner: owner, Name: nt.Name, Descriptor: nt.Descriptor}, nil
	})
}

// MethodHandle resolves a CONSTANT_MethodHandle index.
func (p *Pool) MethodHandle(index uint16) (MethodHandle, error) {
	return memo(p, index, asMethodHandle, func() (MethodHandle, error) {
		h, err := Lookup[MethodHandleEntry](p, index)
		if err != nil {
			return MethodHandle{}, err
		}
		member, err := p.Member(h.Ref)
		if err != nil {
			return MethodHandle{}, err
		}
		if !h.Kind.accepts(member.Kind) {
			return MethodHandle{}, errors.New(errors.E3009, "method handle #%d: %s cannot refer to a %s",
				index, h.Kind, member.Kind)
		}
		return MethodHandle{Kind: h.Kind, Member: member}, nil
	})
}

// MethodType resolves a CONSTANT_MethodType index.
func (p *Pool) MethodType(index uint16) (MethodType, error) {
	mt, err := Lookup[MethodTypeEntry](p, index)
	if err != nil {
		return MethodType{}, err
	}
	desc, err := p.Utf8(mt.Descriptor)
	if err != nil {
		return MethodType{}, err
	}
	return MethodType{Descriptor: desc}, nil
}

// CallSite resolves a CONSTANT_InvokeDynamic index. The bootstrap table
// must have been installed with SetBootstrapMethods.
func (p *Pool) CallSite(index uint16) (CallSite, error) {
	return memo(p, index, asCallSite, func() (CallSite, error) {
		d, err := Lookup[InvokeDynamicEntry](p, index)
		if err != nil {
			return CallSite{}, err
		}
		if int(d.Bootstrap) >= len(p.bootstrap) {
			return CallSite{}, errors.New(errors.E2001, "call site #%d refers to bootstrap method %d of %d",
				index, d.Bootstrap, len(p.bootstrap))
		}
		nt, err := p.NameAndType(d.NameAndType)
		if err != nil {
			return CallSite{}, err
		}
		return CallSite{Bootstrap: p.bootstrap[d.Bootstrap], Name: nt.Name, Descriptor: nt.Descriptor}, nil
	})
}

// Loadable resolves an index usable by ldc or as a bootstrap argument. The
// result is one of int32, float32, int64, float64, string, descriptor.Type,
// MethodType or MethodHandle.
func (p *Pool) Loadable(index uint16) (any, error) {
	return memo(p, index, asLoadable, func() (any, error) {
		e, ok := p.Get(index)
		if !ok {
			return nil, errors.New(errors.E2001, "constant #%d is empty, expected a loadable constant", index)
		}
		switch v := e.(type) {
		case Integer:
			return int32(v), nil
		case Float:
			return v.Value(), nil
		case Long:
			return int64(v), nil
		case Double:
			return v.Value(), nil
		case String:
			return p.Utf8(v.Value)
		case Class:
			return p.ClassType(index)
		case MethodTypeEntry:
			return p.MethodType(index)
		case MethodHandleEntry:
			return p.MethodHandle(index)
		}
		return nil, errors.New(errors.E2001, "constant #%d is %s, expected a loadable constant", index, e.Tag())
	})
}

// BootstrapMethods returns the bootstrap table of the class.
func (p *Pool) BootstrapMethods() []BootstrapMethod {
	return p.bootstrap
}

// SetBootstrapMethods installs a decoded bootstrap table so that
// InvokeDynamic entries can be resolved.
func (p *Pool) SetBootstrapMethods(methods []BootstrapMethod) {
	p.bootstrap = methods
	for key := range p.cache {
		if key.as == asCallSite {
			delete(p.cache, key)
		}
	}
}

// FindOrCreateBootstrap returns the index of an equal bootstrap method,
// appending bm when none exists. The table is scanned linearly; classes
// have few dynamic call sites.
func (p *Pool) FindOrCreateBootstrap(bm BootstrapMethod) (uint16, error) {
	for i, existing := range p.bootstrap {
		if existing.Equal(bm) {
			return uint16(i), nil
		}
	}
	if p.closed {
		return 0, errors.New(errors.E2002, "constant pool is not editable")
	}
	if len(p.bootstrap) >= maxEntries {
		return 0, errors.New(errors.E3008, "too many bootstrap methods")
	}
	p.bootstrap = append(p.bootstrap, bm)
	return uint16(len(p.bootstrap) - 1), nil
}
