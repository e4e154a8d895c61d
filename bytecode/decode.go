package bytecode

import (
	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
	"github.com/deepnoodle-ai/javabinary/op"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

// Decode reads the instructions of a Code attribute. Every instruction is
// labelled with its byte offset, and the code length labels the end of the
// code. initial is the method's entry frame, used to expand a
// StackMapTable when one is present.
func Decode(a *attr.Code, pool *cpool.Pool, initial stackmap.Frame) (*Code, error) {
	end := len(a.Bytecode)
	c := &Code{
		MaxStack:  int(a.MaxStack),
		MaxLocals: int(a.MaxLocals),
		nextLabel: end + 1,
		ends:      []int{end},
		aliases:   map[int]int{},
	}
	r := byteio.NewReader(a.Bytecode)
	for !r.Done() {
		start := r.Pos()
		ins, err := decodeOne(r, pool, start)
		if r.Err() != nil {
			err = r.Err()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "opcode 0x%02x label 0x%04x", a.Bytecode[start], start)
		}
		ins.Raw = a.Bytecode[start:r.Pos()]
		c.Instructions = append(c.Instructions, ins)
	}

	for _, h := range a.Handlers {
		c.Exceptions = append(c.Exceptions, ExceptionEntry{
			Start:     int(h.Start),
			End:       int(h.End),
			Handler:   int(h.Handler),
			CatchType: h.CatchType,
		})
	}

	lines := map[int]int{}
	for _, t := range attr.GetAll[*attr.LineNumberTable](a.Attributes) {
		for _, l := range t.Lines {
			lines[int(l.Start)] = int(l.Line)
		}
	}
	line := 0
	for _, ins := range c.Instructions {
		if l, ok := lines[ins.Label]; ok {
			line = l
		}
		ins.Line = line
	}

	for _, t := range attr.GetAll[*attr.LocalVariableTable](a.Attributes) {
		for _, v := range t.Vars {
			c.Locals = append(c.Locals, LocalVariable{
				Start:      int(v.Start),
				End:        int(v.Start) + int(v.Length),
				Name:       v.Name,
				Descriptor: v.Descriptor,
				Slot:       int(v.Slot),
				Generic:    t.Types,
			})
		}
	}

	if smt, ok := attr.Get[*attr.StackMapTable](a.Attributes); ok {
		frames, err := stackmap.Expand(initial, smt.Entries)
		if err != nil {
			return nil, err
		}
		c.Frames = frames
	}

	c.Attributes = a.Attributes.Without(rebuiltAttributes...)
	return c, nil
}

// rebuiltAttributes are the nested attributes Encode regenerates from the
// instructions.
var rebuiltAttributes = []string{"LineNumberTable", "LocalVariableTable", "LocalVariableTypeTable", "StackMapTable"}

func decodeOne(r *byteio.Reader, pool *cpool.Pool, start int) (*Instruction, error) {
	code := op.Code(r.U8())
	ins := &Instruction{Op: code, Label: start}
	info := op.GetInfo(code)
	var err error
	switch info.Kind {
	case op.Invalid:
		return nil, errors.New(errors.E1008, "unknown opcode 0x%02x at offset %d", byte(code), start)
	case op.None:
		if _, slot, ok := op.ImpliedLocal(code); ok {
			ins.Local = slot
		} else if v, ok := op.ImpliedConstant(code); ok {
			ins.Value = v
		}
	case op.Local:
		ins.Local = int(r.U8())
	case op.LocalInc:
		ins.Local = int(r.U8())
		ins.Inc = int(r.S8())
	case op.ConstU1:
		ins.Value, err = pool.Loadable(uint16(r.U8()))
	case op.ConstU2:
		ins.Value, err = decodeConst(pool, code, r.U16())
	case op.ConstInterface:
		ins.Value, err = pool.Member(r.U16())
		ins.Imm = int(r.U8())
		r.Skip(1)
	case op.ConstDynamic:
		ins.Value, err = pool.CallSite(r.U16())
		r.Skip(2)
	case op.ConstDims:
		ins.Value, err = pool.ClassType(r.U16())
		ins.Imm = int(r.U8())
	case op.Branch:
		ins.Jump = &Jump{Label: start + int(r.S16())}
	case op.BranchWide:
		ins.Jump = &Jump{Label: start + int(r.S32())}
	case op.Byte:
		if code == op.Newarray {
			ins.Imm = int(r.U8())
		} else {
			ins.Imm = int(r.S8())
		}
	case op.Short:
		ins.Imm = int(r.S16())
	case op.TableSwitch:
		r.Skip(padding(start))
		sw := &Switch{Default: start + int(r.S32())}
		sw.Low = r.S32()
		high := r.S32()
		n := int64(high) - int64(sw.Low) + 1
		if n < 0 || n*4 > int64(r.Remaining()) {
			return nil, errors.New(errors.E1001, "tableswitch range %d..%d exceeds the code", sw.Low, high)
		}
		for i := int64(0); i < n; i++ {
			sw.Targets = append(sw.Targets, start+int(r.S32()))
		}
		ins.Switch = sw
	case op.LookupSwitch:
		r.Skip(padding(start))
		sw := &Switch{Default: start + int(r.S32())}
		n := int64(r.S32())
		if n < 0 || n*8 > int64(r.Remaining()) {
			return nil, errors.New(errors.E1001, "lookupswitch with %d pairs exceeds the code", n)
		}
		for i := int64(0); i < n; i++ {
			sw.Keys = append(sw.Keys, r.S32())
			sw.Targets = append(sw.Targets, start+int(r.S32()))
		}
		ins.Switch = sw
	case op.WidePrefix:
		ins.Op = op.Code(r.U8())
		switch op.GetInfo(ins.Op).Kind {
		case op.Local:
			ins.Local = int(r.U16())
		case op.LocalInc:
			ins.Local = int(r.U16())
			ins.Inc = int(r.S16())
		default:
			if r.Err() != nil {
				return nil, r.Err()
			}
			return nil, errors.New(errors.E1008, "opcode 0x%02x cannot follow wide at offset %d", byte(ins.Op), start)
		}
	}
	return ins, err
}

func decodeConst(pool *cpool.Pool, code op.Code, index uint16) (any, error) {
	switch code {
	case op.LdcW, op.Ldc2W:
		return pool.Loadable(index)
	case op.New, op.Anewarray, op.Checkcast, op.Instanceof:
		return pool.ClassType(index)
	}
	return pool.Member(index)
}

// padding returns the number of zero bytes after a switch opcode at offset
// so that its operands start on a four-byte boundary.
func padding(offset int) int {
	return (4 - (offset+1)%4) % 4
}
