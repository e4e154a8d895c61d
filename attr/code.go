package attr

import (
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
)

// maxCodeLength is the largest method body the JVM accepts.
const maxCodeLength = 65535

// Handler is one exception-table row in byte offsets. CatchType is zero for
// a handler that catches everything.
type Handler struct {
	Start     uint16
	End       uint16
	Handler   uint16
	CatchType descriptor.Type
}

// Code is a method body in wire form. The bytecode package decodes
// Bytecode into instructions.
type Code struct {
	MaxStack   uint16
	MaxLocals  uint16
	Bytecode   []byte
	Handlers   []Handler
	Attributes Set
}

func (*Code) Name() string { return "Code" }

func (a *Code) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	if len(a.Bytecode) == 0 || len(a.Bytecode) > maxCodeLength {
		return errors.New(errors.E3008, "code length %d outside 1..%d", len(a.Bytecode), maxCodeLength)
	}
	w.U16(a.MaxStack)
	w.U16(a.MaxLocals)
	w.U32(uint32(len(a.Bytecode)))
	w.Write(a.Bytecode)
	w.U16(uint16(len(a.Handlers)))
	for _, h := range a.Handlers {
		w.U16(h.Start)
		w.U16(h.End)
		w.U16(h.Handler)
		if err := putOptionalClass(w, pool, h.CatchType); err != nil {
			return err
		}
	}
	return a.Attributes.Write(w, pool)
}

func parseCode(r *byteio.Reader, ctx *Context) (Attribute, error) {
	a := &Code{MaxStack: r.U16(), MaxLocals: r.U16()}
	n := int(r.U32())
	a.Bytecode = append([]byte(nil), r.Bytes(n)...)
	handlers := int(r.U16())
	for i := 0; i < handlers && r.Err() == nil; i++ {
		h := Handler{Start: r.U16(), End: r.U16(), Handler: r.U16()}
		catch, err := optionalClass(ctx.Pool, r.U16())
		if err != nil {
			return nil, errors.Wrapf(err, "exception handler %d", i)
		}
		h.CatchType = catch
		a.Handlers = append(a.Handlers, h)
	}
	if r.Err() != nil {
		return a, nil
	}
	set, err := ReadSet(r, ctx)
	if err != nil {
		return nil, err
	}
	a.Attributes = set
	return a, nil
}
