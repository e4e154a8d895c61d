package cpool

import (
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
)

// Read decodes a constant pool: the u2 count followed by its entries. The
// returned pool is closed.
func Read(r *byteio.Reader) (*Pool, error) {
	count := int(r.U16())
	if r.Err() != nil {
		return nil, r.Err()
	}
	if count == 0 {
		return nil, errors.New(errors.E1005, "constant pool count is zero")
	}
	p := New()
	p.entries = make([]Entry, count)
	for i := 1; i < count; i++ {
		at := r.Offset()
		tag := Tag(r.U8())
		var e Entry
		switch tag {
		case TagUtf8:
			n := int(r.U16())
			b := r.Bytes(n)
			if r.Err() != nil {
				return nil, r.Err()
			}
			s, err := DecodeMUTF8(b)
			if err != nil {
				return nil, errors.Wrapf(err, "constant #%d", i)
			}
			e = Utf8(s)
		case TagInteger:
			e = Integer(r.S32())
		case TagFloat:
			e = Float{Bits: r.U32()}
		case TagLong:
			e = Long(int64(r.U64()))
		case TagDouble:
			e = Double{Bits: r.U64()}
		case TagClass:
			e = Class{Name: r.U16()}
		case TagString:
			e = String{Value: r.U16()}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			e = MemberEntry{Kind: tag, Class: r.U16(), NameAndType: r.U16()}
		case TagNameAndType:
			e = NameAndTypeEntry{Name: r.U16(), Descriptor: r.U16()}
		case TagMethodHandle:
			e = MethodHandleEntry{Kind: RefKind(r.U8()), Ref: r.U16()}
		case TagMethodType:
			e = MethodTypeEntry{Descriptor: r.U16()}
		case TagInvokeDynamic:
			e = InvokeDynamicEntry{Bootstrap: r.U16(), NameAndType: r.U16()}
		default:
			if r.Err() != nil {
				return nil, r.Err()
			}
			return nil, errors.New(errors.E1005, "invalid constant pool tag %d for #%d at offset %d", uint8(tag), i, at)
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		p.entries[i] = e
		if _, dup := p.lookup[e]; !dup {
			p.lookup[e] = uint16(i)
		}
		if tag.Wide() {
			if i+1 >= count {
				return nil, errors.New(errors.E1005, "%s constant #%d overruns the pool", tag, i)
			}
			i++
		}
	}
	p.closed = true
	return p, nil
}

// Write encodes the pool and closes it.
func (p *Pool) Write(w *byteio.Writer) {
	p.closed = true
	w.U16(uint16(len(p.entries)))
	for _, e := range p.entries {
		if e == nil {
			continue
		}
		w.U8(uint8(e.Tag()))
		switch v := e.(type) {
		case Utf8:
			b := EncodeMUTF8(string(v))
			w.U16(uint16(len(b)))
			w.Write(b)
		case Integer:
			w.U32(uint32(v))
		case Float:
			w.U32(v.Bits)
		case Long:
			w.U64(uint64(v))
		case Double:
			w.U64(v.Bits)
		case Class:
			w.U16(v.Name)
		case String:
			w.U16(v.Value)
		case MemberEntry:
			w.U16(v.Class)
			w.U16(v.NameAndType)
		case NameAndTypeEntry:
			w.U16(v.Name)
			w.U16(v.Descriptor)
		case MethodHandleEntry:
			w.U8(uint8(v.Kind))
			w.U16(v.Ref)
		case MethodTypeEntry:
			w.U16(v.Descriptor)
		case InvokeDynamicEntry:
			w.U16(v.Bootstrap)
			w.U16(v.NameAndType)
		}
	}
}
